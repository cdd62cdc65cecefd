// Package task implements a personal task tracker with recurring tasks and
// reminders.
//
// Tasks live in a Repository (memory, JSON file, or SQLite). The Service
// validates caller input, delegates storage to the repository, and derives
// follow-on state such as the next occurrence of a recurring task.
//
// The public API mirrors the CLI commands:
//   - Add, Update, Complete, Delete, Restore for the task lifecycle
//   - Get, List, Search, CheckReminders for querying
//   - ScheduleNextOccurrence for recurring tasks
package task

import "time"

// Priority represents the importance of a task.
type Priority string

const (
	// PriorityHigh marks urgent work.
	PriorityHigh Priority = "high"

	// PriorityMedium is the default priority.
	PriorityMedium Priority = "medium"

	// PriorityLow marks work that can wait.
	PriorityLow Priority = "low"
)

// ValidPriorities returns all valid priority values.
func ValidPriorities() []Priority {
	return []Priority{PriorityHigh, PriorityMedium, PriorityLow}
}

// IsValid returns true if the priority is a known valid value.
func (p Priority) IsValid() bool {
	for _, valid := range ValidPriorities() {
		if p == valid {
			return true
		}
	}
	return false
}

// PriorityRank returns the sort rank for a priority. Unknown values sort last.
func PriorityRank(p Priority) int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// Interval is the repeat period of a recurring task.
type Interval string

const (
	// IntervalDaily repeats every day.
	IntervalDaily Interval = "daily"

	// IntervalWeekly repeats every seven days.
	IntervalWeekly Interval = "weekly"

	// IntervalMonthly repeats every thirty days.
	IntervalMonthly Interval = "monthly"
)

// ValidIntervals returns all valid interval values.
func ValidIntervals() []Interval {
	return []Interval{IntervalDaily, IntervalWeekly, IntervalMonthly}
}

// IsValid returns true if the interval is a known valid value.
func (i Interval) IsValid() bool {
	for _, valid := range ValidIntervals() {
		if i == valid {
			return true
		}
	}
	return false
}

// Days returns the number of days between occurrences. Monthly is a fixed
// thirty days, not a calendar month.
func (i Interval) Days() (int, bool) {
	switch i {
	case IntervalDaily:
		return 1, true
	case IntervalWeekly:
		return 7, true
	case IntervalMonthly:
		return 30, true
	default:
		return 0, false
	}
}

// Next returns the occurrence after from. Days are added on the calendar, so
// the wall-clock time is kept across daylight saving changes.
func (i Interval) Next(from time.Time) (time.Time, bool) {
	days, ok := i.Days()
	if !ok {
		return time.Time{}, false
	}
	return from.AddDate(0, 0, days), true
}

// SortKey selects the ordering of search results.
type SortKey string

const (
	SortNone      SortKey = ""
	SortPriority  SortKey = "priority"
	SortDueDate   SortKey = "due_date"
	SortTitle     SortKey = "title"
	SortCreatedAt SortKey = "created_at"
	SortStatus    SortKey = "status"
	SortReminder  SortKey = "reminder"
)

// ValidSortKeys returns all valid sort keys.
func ValidSortKeys() []SortKey {
	return []SortKey{SortPriority, SortDueDate, SortTitle, SortCreatedAt, SortStatus, SortReminder}
}

// IsValid returns true if the key is a known sort key. The empty key is valid
// and leaves results in repository order.
func (k SortKey) IsValid() bool {
	if k == SortNone {
		return true
	}
	for _, valid := range ValidSortKeys() {
		if k == valid {
			return true
		}
	}
	return false
}

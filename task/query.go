package task

import (
	"sort"
	"strings"
	"time"
)

// Query filters and orders a search. Zero-valued fields do not filter.
type Query struct {
	// Keyword matches title or description, case-insensitively.
	Keyword string

	// Status filters by completion state.
	Status *bool

	// Priority filters by exact priority.
	Priority Priority

	// Tags requires every listed tag to be present.
	Tags []string

	// SortBy orders the results after filtering.
	SortBy SortKey

	// ReminderBefore selects tasks whose reminder is at or before this time.
	ReminderBefore *time.Time
}

// Match reports whether a task satisfies every filter of the query.
// Deleted tasks never match.
func (q Query) Match(t Task) bool {
	if t.Deleted {
		return false
	}
	if q.Keyword != "" {
		keyword := strings.ToLower(q.Keyword)
		if !strings.Contains(strings.ToLower(t.Title), keyword) &&
			!strings.Contains(strings.ToLower(t.Description), keyword) {
			return false
		}
	}
	if q.Status != nil && t.Status != *q.Status {
		return false
	}
	if q.Priority != "" && t.Priority != q.Priority {
		return false
	}
	for _, tag := range q.Tags {
		if !t.HasTag(tag) {
			return false
		}
	}
	if q.ReminderBefore != nil {
		if t.Reminder == nil || t.Reminder.After(*q.ReminderBefore) {
			return false
		}
	}
	return true
}

// Filter returns the tasks matching q, sorted by q.SortBy.
func (q Query) Filter(tasks []Task) []Task {
	matched := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if q.Match(t) {
			matched = append(matched, t)
		}
	}
	SortTasks(matched, q.SortBy)
	return matched
}

// SortTasks orders tasks in place. The sort is stable, so ties keep their
// input order. An empty key leaves the slice untouched.
func SortTasks(tasks []Task, key SortKey) {
	var less func(a, b Task) bool
	switch key {
	case SortPriority:
		less = func(a, b Task) bool {
			return PriorityRank(a.Priority) < PriorityRank(b.Priority)
		}
	case SortDueDate:
		less = func(a, b Task) bool { return timeLess(a.DueDate, b.DueDate) }
	case SortReminder:
		less = func(a, b Task) bool { return timeLess(a.Reminder, b.Reminder) }
	case SortTitle:
		less = func(a, b Task) bool {
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		}
	case SortCreatedAt:
		less = func(a, b Task) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case SortStatus:
		less = func(a, b Task) bool { return !a.Status && b.Status }
	default:
		return
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		return less(tasks[i], tasks[j])
	})
}

// timeLess orders nil values after every set value.
func timeLess(a, b *time.Time) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return a.Before(*b)
	}
}

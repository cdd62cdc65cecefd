package task

import (
	"strings"
	"time"
)

// Task is a single unit of work.
type Task struct {
	// ID is a unique positive identifier assigned at creation.
	ID int `json:"id"`

	// Title is the short summary of the task.
	Title string `json:"title"`

	// Description provides additional context (max 1000 chars).
	Description string `json:"description"`

	// Status is true once the task has been completed.
	Status bool `json:"status"`

	// CreatedAt is when the task was created.
	CreatedAt time.Time `json:"created_at"`

	// Deleted marks a soft-deleted task.
	Deleted bool `json:"deleted"`

	// Priority is the importance level.
	Priority Priority `json:"priority"`

	// Tags are free-form labels in insertion order.
	Tags []string `json:"tags"`

	// DueDate is when the task should be done (nil if unscheduled).
	DueDate *time.Time `json:"due_date"`

	// Recurring describes how the task repeats (nil if it does not).
	Recurring *Recurring `json:"recurring"`

	// Reminder is when the user should be notified (nil if never).
	Reminder *time.Time `json:"reminder"`
}

// Recurring configures a repeating task.
type Recurring struct {
	// Interval is the repeat period.
	Interval Interval `json:"interval"`

	// Count is the number of occurrences still to generate (nil means unlimited).
	Count *int `json:"count,omitempty"`

	// NextDueDate is the due date of the most recently scheduled occurrence.
	NextDueDate *time.Time `json:"next_due_date,omitempty"`
}

// Clone returns a deep copy of the recurring config.
func (r *Recurring) Clone() *Recurring {
	if r == nil {
		return nil
	}
	out := &Recurring{Interval: r.Interval}
	if r.Count != nil {
		count := *r.Count
		out.Count = &count
	}
	out.NextDueDate = cloneTime(r.NextDueDate)
	return out
}

// Pending reports whether the task has not been completed.
func (t Task) Pending() bool {
	return !t.Status
}

// Clone returns a deep copy of the task so callers cannot alias repository state.
func (t Task) Clone() Task {
	out := t
	if t.Tags != nil {
		out.Tags = append([]string{}, t.Tags...)
	}
	out.DueDate = cloneTime(t.DueDate)
	out.Reminder = cloneTime(t.Reminder)
	out.Recurring = t.Recurring.Clone()
	return out
}

// HasTag reports whether the task carries the given tag.
func (t Task) HasTag(tag string) bool {
	for _, existing := range t.Tags {
		if existing == tag {
			return true
		}
	}
	return false
}

// NewOptions holds the optional fields of a new task.
type NewOptions struct {
	Description string
	Priority    Priority
	Tags        []string
	DueDate     *time.Time
	Recurring   *Recurring
	Reminder    *time.Time

	// CreatedAt defaults to the current time when zero.
	CreatedAt time.Time
}

// New builds a pending task, applying defaults, and validates it.
func New(id int, title string, opts NewOptions) (Task, error) {
	priority := opts.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	createdAt := opts.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	t := Task{
		ID:          id,
		Title:       strings.TrimSpace(title),
		Description: opts.Description,
		CreatedAt:   createdAt,
		Priority:    priority,
		DueDate:     cloneTime(opts.DueDate),
		Recurring:   opts.Recurring.Clone(),
		Reminder:    cloneTime(opts.Reminder),
	}
	if opts.Tags != nil {
		t.Tags = append([]string{}, opts.Tags...)
	} else {
		t.Tags = []string{}
	}

	if err := ValidateTask(t); err != nil {
		return Task{}, err
	}
	return t, nil
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

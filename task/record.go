package task

import "fmt"

// taskRecord is the on-disk shape of a task. Datetimes are ISO-8601 strings.
type taskRecord struct {
	ID          int              `json:"id"`
	Title       string           `json:"title"`
	Description *string          `json:"description"`
	Status      bool             `json:"status"`
	CreatedAt   *string          `json:"created_at"`
	Deleted     bool             `json:"deleted"`
	Priority    Priority         `json:"priority"`
	Tags        []string         `json:"tags"`
	DueDate     *string          `json:"due_date"`
	Recurring   *recurringRecord `json:"recurring"`
	Reminder    *string          `json:"reminder"`
}

type recurringRecord struct {
	Interval    Interval `json:"interval"`
	Count       *int     `json:"count,omitempty"`
	NextDueDate *string  `json:"next_due_date,omitempty"`
}

func newTaskRecord(t Task) taskRecord {
	rec := taskRecord{
		ID:        t.ID,
		Title:     t.Title,
		Status:    t.Status,
		CreatedAt: formatOptionalDate(&t.CreatedAt),
		Deleted:   t.Deleted,
		Priority:  t.Priority,
		Tags:      t.Tags,
		DueDate:   formatOptionalDate(t.DueDate),
		Recurring: newRecurringRecord(t.Recurring),
		Reminder:  formatOptionalDate(t.Reminder),
	}
	if t.Description != "" {
		description := t.Description
		rec.Description = &description
	}
	if rec.Tags == nil {
		rec.Tags = []string{}
	}
	return rec
}

func newRecurringRecord(r *Recurring) *recurringRecord {
	if r == nil {
		return nil
	}
	rec := &recurringRecord{
		Interval:    r.Interval,
		NextDueDate: formatOptionalDate(r.NextDueDate),
	}
	if r.Count != nil {
		count := *r.Count
		rec.Count = &count
	}
	return rec
}

func (rec taskRecord) task() (Task, error) {
	t := Task{
		ID:       rec.ID,
		Title:    rec.Title,
		Status:   rec.Status,
		Deleted:  rec.Deleted,
		Priority: rec.Priority,
		Tags:     rec.Tags,
	}
	if rec.Description != nil {
		t.Description = *rec.Description
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}

	createdAt, err := parseStoredDate(rec.CreatedAt)
	if err != nil {
		return Task{}, fmt.Errorf("task %d created_at: %w", rec.ID, err)
	}
	if createdAt != nil {
		t.CreatedAt = *createdAt
	}
	if t.DueDate, err = parseStoredDate(rec.DueDate); err != nil {
		return Task{}, fmt.Errorf("task %d due_date: %w", rec.ID, err)
	}
	if t.Reminder, err = parseStoredDate(rec.Reminder); err != nil {
		return Task{}, fmt.Errorf("task %d reminder: %w", rec.ID, err)
	}
	if t.Recurring, err = rec.Recurring.recurring(); err != nil {
		return Task{}, fmt.Errorf("task %d recurring: %w", rec.ID, err)
	}

	if err := ValidateTask(t); err != nil {
		return Task{}, fmt.Errorf("task %d: %w", rec.ID, err)
	}
	return t, nil
}

func (rec *recurringRecord) recurring() (*Recurring, error) {
	if rec == nil {
		return nil, nil
	}
	r := &Recurring{Interval: rec.Interval}
	if rec.Count != nil {
		count := *rec.Count
		r.Count = &count
	}
	next, err := parseStoredDate(rec.NextDueDate)
	if err != nil {
		return nil, err
	}
	r.NextDueDate = next
	return r, nil
}

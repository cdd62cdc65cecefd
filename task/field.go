package task

import (
	"strings"
	"time"
)

type fieldState uint8

const (
	fieldUnchanged fieldState = iota
	fieldCleared
	fieldSet
)

// Field is a partial-update value. The zero value leaves the target
// untouched; Clear resets it; Set replaces it.
type Field[T any] struct {
	state fieldState
	value T
}

// Set returns a field that replaces the target with v.
func Set[T any](v T) Field[T] {
	return Field[T]{state: fieldSet, value: v}
}

// Clear returns a field that resets the target to its empty value.
func Clear[T any]() Field[T] {
	return Field[T]{state: fieldCleared}
}

// Changed reports whether the field was provided at all.
func (f Field[T]) Changed() bool {
	return f.state != fieldUnchanged
}

// Cleared reports whether the field resets the target.
func (f Field[T]) Cleared() bool {
	return f.state == fieldCleared
}

// Value returns the new value and true when the field was Set.
func (f Field[T]) Value() (T, bool) {
	return f.value, f.state == fieldSet
}

// Patch is a partial update of a task. Unchanged fields are left as is.
type Patch struct {
	Title       Field[string]
	Description Field[string]
	Status      Field[bool]
	Priority    Field[Priority]
	Tags        Field[[]string]
	DueDate     Field[time.Time]
	Recurring   Field[Recurring]
	Reminder    Field[time.Time]
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return !p.Title.Changed() &&
		!p.Description.Changed() &&
		!p.Status.Changed() &&
		!p.Priority.Changed() &&
		!p.Tags.Changed() &&
		!p.DueDate.Changed() &&
		!p.Recurring.Changed() &&
		!p.Reminder.Changed()
}

// Apply returns a copy of t with the patch applied and validated. Clearing
// the priority restores the default.
func (p Patch) Apply(t Task) (Task, error) {
	out := t.Clone()

	if p.Title.Changed() {
		v, _ := p.Title.Value()
		out.Title = strings.TrimSpace(v)
	}
	if p.Description.Changed() {
		out.Description, _ = p.Description.Value()
	}
	if p.Status.Changed() {
		out.Status, _ = p.Status.Value()
	}
	if p.Priority.Changed() {
		out.Priority = PriorityMedium
		if v, ok := p.Priority.Value(); ok {
			out.Priority = v
		}
	}
	if p.Tags.Changed() {
		out.Tags = []string{}
		if v, ok := p.Tags.Value(); ok && v != nil {
			out.Tags = append([]string{}, v...)
		}
	}
	applyTime(p.DueDate, &out.DueDate)
	applyTime(p.Reminder, &out.Reminder)
	if p.Recurring.Changed() {
		out.Recurring = nil
		if v, ok := p.Recurring.Value(); ok {
			out.Recurring = v.Clone()
		}
	}

	if err := ValidateTask(out); err != nil {
		return Task{}, err
	}
	return out, nil
}

func applyTime(f Field[time.Time], dst **time.Time) {
	if !f.Changed() {
		return
	}
	*dst = nil
	if v, ok := f.Value(); ok {
		*dst = &v
	}
}

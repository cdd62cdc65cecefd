package task

import (
	"fmt"
	"strings"
	"time"

	internalstrings "github.com/amonks/tasks/internal/strings"
	"go.uber.org/zap"
)

// Service implements task operations on top of a Repository. It never caches
// tasks; every read goes to the repository.
type Service struct {
	repo   Repository
	ids    IDGenerator
	now    func() time.Time
	logger *zap.Logger
}

// ServiceOptions configures a Service.
type ServiceOptions struct {
	// IDs allocates task IDs. Defaults to a counter starting at 1.
	IDs IDGenerator

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	// Logger receives scheduling diagnostics. If nil, logs are discarded.
	Logger *zap.Logger
}

// NewService returns a service backed by repo.
func NewService(repo Repository, opts ServiceOptions) *Service {
	if opts.IDs == nil {
		opts.IDs = NewCounter(0)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Service{
		repo:   repo,
		ids:    opts.IDs,
		now:    opts.Now,
		logger: opts.Logger,
	}
}

// Repository returns the underlying repository.
func (s *Service) Repository() Repository {
	return s.repo
}

// AddOptions holds the optional fields for Add.
type AddOptions struct {
	// Description provides additional context.
	Description string

	// Priority defaults to PriorityMedium.
	Priority Priority

	// Tags are free-form labels.
	Tags []string

	// DueDate is an ISO-8601 date or datetime; empty means none.
	DueDate string

	// Recurring makes the task repeat.
	Recurring *Recurring

	// Reminder is an ISO-8601 date or datetime; empty means none.
	Reminder string
}

// Add validates the input, allocates an ID, and stores a new pending task.
// Nothing is written if any field is invalid.
func (s *Service) Add(title string, opts AddOptions) (int, error) {
	if err := ValidateTitle(title); err != nil {
		return 0, err
	}
	if err := ValidateDescription(opts.Description); err != nil {
		return 0, err
	}
	if opts.Priority == "" {
		opts.Priority = PriorityMedium
	}
	priority, err := normalizePriority(opts.Priority)
	if err != nil {
		return 0, err
	}
	if err := ValidateTags(opts.Tags); err != nil {
		return 0, err
	}
	dueDate, err := ParseOptionalDate(opts.DueDate)
	if err != nil {
		return 0, fmt.Errorf("due date: %w", err)
	}
	reminder, err := ParseOptionalDate(opts.Reminder)
	if err != nil {
		return 0, fmt.Errorf("reminder: %w", err)
	}
	if err := ValidateRecurring(opts.Recurring); err != nil {
		return 0, err
	}

	t, err := New(s.ids.GenerateID(), title, NewOptions{
		Description: opts.Description,
		Priority:    priority,
		Tags:        opts.Tags,
		DueDate:     dueDate,
		Recurring:   opts.Recurring,
		Reminder:    reminder,
		CreatedAt:   s.now(),
	})
	if err != nil {
		return 0, err
	}

	id, err := s.repo.Create(t)
	if err != nil {
		return 0, fmt.Errorf("create task: %w", err)
	}
	return id, nil
}

// UpdateOptions holds the fields to change. Nil pointers and unchanged
// fields are left as they are. Status is changed only through Complete.
type UpdateOptions struct {
	Title       *string
	Description *string
	Priority    *Priority
	Tags        *[]string

	// DueDate and Reminder take ISO-8601 strings.
	DueDate   Field[string]
	Recurring Field[Recurring]
	Reminder  Field[string]
}

// Update applies a partial update. It reports false if the task does not exist.
func (s *Service) Update(id int, opts UpdateOptions) (bool, error) {
	exists, err := s.repo.Exists(id)
	if err != nil || !exists {
		return false, err
	}

	var patch Patch
	if opts.Title != nil {
		if err := ValidateTitle(*opts.Title); err != nil {
			return false, err
		}
		patch.Title = Set(strings.TrimSpace(*opts.Title))
	}
	if opts.Description != nil {
		if err := ValidateDescription(*opts.Description); err != nil {
			return false, err
		}
		patch.Description = Set(*opts.Description)
	}
	if opts.Priority != nil {
		priority, err := normalizePriority(*opts.Priority)
		if err != nil {
			return false, err
		}
		patch.Priority = Set(priority)
	}
	if opts.Tags != nil {
		if err := ValidateTags(*opts.Tags); err != nil {
			return false, err
		}
		patch.Tags = Set(*opts.Tags)
	}
	if patch.DueDate, err = parseDateField(opts.DueDate); err != nil {
		return false, fmt.Errorf("due date: %w", err)
	}
	if patch.Reminder, err = parseDateField(opts.Reminder); err != nil {
		return false, fmt.Errorf("reminder: %w", err)
	}
	if r, ok := opts.Recurring.Value(); ok {
		if err := ValidateRecurring(&r); err != nil {
			return false, err
		}
	}
	patch.Recurring = opts.Recurring

	return s.repo.Update(id, patch)
}

// Complete marks the task as done. If the task recurs, the next occurrence is
// scheduled; a scheduling failure is logged and does not affect the result.
func (s *Service) Complete(id int) (bool, error) {
	exists, err := s.repo.Exists(id)
	if err != nil || !exists {
		return false, err
	}
	t, err := s.repo.Get(id)
	if err != nil {
		return false, err
	}

	ok, err := s.repo.Update(id, Patch{Status: Set(true)})
	if err != nil || !ok {
		return ok, err
	}

	if t.Recurring != nil {
		scheduled, err := s.ScheduleNextOccurrence(id)
		switch {
		case err != nil:
			s.logger.Warn("failed to schedule next occurrence",
				zap.Int("task_id", id),
				zap.Error(err),
			)
		case !scheduled:
			s.logger.Debug("recurring task not rescheduled", zap.Int("task_id", id))
		}
	}
	return true, nil
}

// Delete soft-deletes the task. It reports false if the task does not exist.
func (s *Service) Delete(id int) (bool, error) {
	exists, err := s.repo.Exists(id)
	if err != nil || !exists {
		return false, err
	}
	return s.repo.Delete(id)
}

// Restore undeletes the task. It reports false if the task does not exist
// or is not deleted.
func (s *Service) Restore(id int) (bool, error) {
	exists, err := s.repo.Exists(id)
	if err != nil || !exists {
		return false, err
	}
	t, err := s.repo.Get(id)
	if err != nil {
		return false, err
	}
	if !t.Deleted {
		return false, nil
	}
	return s.repo.Restore(id)
}

// Get returns the task with the given ID, including deleted tasks.
func (s *Service) Get(id int) (Task, error) {
	return s.repo.Get(id)
}

// List returns every non-deleted task.
func (s *Service) List() ([]Task, error) {
	return s.repo.All()
}

// SearchOptions filters and orders a search.
type SearchOptions struct {
	Keyword  string
	Status   *bool
	Priority Priority
	Tags     []string
	SortBy   SortKey
}

// Search validates the options and returns the matching non-deleted tasks.
func (s *Service) Search(opts SearchOptions) ([]Task, error) {
	var priority Priority
	if opts.Priority != "" {
		var err error
		if priority, err = normalizePriority(opts.Priority); err != nil {
			return nil, err
		}
	}
	sortBy := SortKey(internalstrings.NormalizeLowerTrimSpace(string(opts.SortBy)))
	if err := ValidateSortKey(sortBy); err != nil {
		return nil, err
	}
	return s.repo.Search(Query{
		Keyword:  opts.Keyword,
		Status:   opts.Status,
		Priority: priority,
		Tags:     opts.Tags,
		SortBy:   sortBy,
	})
}

// ScheduleNextOccurrence creates the next occurrence of a recurring task.
//
// The new task copies the title, description, priority, tags, and reminder
// of the original, is due one interval after the original's due date (or
// now), and carries the recurring config with its count decremented. When
// the original's count was 1, its recurring config is cleared.
//
// It reports false if the task does not exist, does not recur, or has no
// occurrences left.
func (s *Service) ScheduleNextOccurrence(id int) (bool, error) {
	exists, err := s.repo.Exists(id)
	if err != nil || !exists {
		return false, err
	}
	t, err := s.repo.Get(id)
	if err != nil {
		return false, err
	}
	rec := t.Recurring
	if rec == nil {
		return false, nil
	}
	if rec.Count != nil && *rec.Count <= 0 {
		return false, nil
	}

	from := s.now()
	if t.DueDate != nil {
		from = *t.DueDate
	}
	next, ok := rec.Interval.Next(from)
	if !ok {
		return false, nil
	}

	following := rec.Clone()
	if following.Count != nil {
		if remaining := *following.Count - 1; remaining > 0 {
			*following.Count = remaining
		} else {
			following.Count = nil
		}
	}
	following.NextDueDate = &next

	occurrence, err := New(s.ids.GenerateID(), t.Title, NewOptions{
		Description: t.Description,
		Priority:    t.Priority,
		Tags:        t.Tags,
		DueDate:     &next,
		Recurring:   following,
		Reminder:    t.Reminder,
		CreatedAt:   s.now(),
	})
	if err != nil {
		return false, err
	}
	if _, err := s.repo.Create(occurrence); err != nil {
		return false, fmt.Errorf("create next occurrence: %w", err)
	}
	s.logger.Debug("scheduled next occurrence",
		zap.Int("task_id", id),
		zap.Int("next_id", occurrence.ID),
		zap.Time("due_date", next),
	)

	if rec.Count != nil && *rec.Count == 1 {
		if _, err := s.repo.Update(id, Patch{Recurring: Clear[Recurring]()}); err != nil {
			return false, fmt.Errorf("retire recurring config: %w", err)
		}
	}
	return true, nil
}

// CheckReminders returns the pending, non-deleted tasks whose reminder is
// due. Reminders are not acknowledged; a task stays due until its reminder
// is cleared or the task is completed or deleted.
func (s *Service) CheckReminders() ([]Task, error) {
	now := s.now()
	pending := false
	return s.repo.Search(Query{Status: &pending, ReminderBefore: &now, SortBy: SortReminder})
}

func normalizePriority(p Priority) (Priority, error) {
	normalized := Priority(internalstrings.NormalizeLowerTrimSpace(string(p)))
	if err := ValidatePriority(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}

func parseDateField(f Field[string]) (Field[time.Time], error) {
	if !f.Changed() {
		return Field[time.Time]{}, nil
	}
	v, ok := f.Value()
	if !ok || strings.TrimSpace(v) == "" {
		return Clear[time.Time](), nil
	}
	t, err := ParseDate(v)
	if err != nil {
		return Field[time.Time]{}, err
	}
	return Set(t), nil
}

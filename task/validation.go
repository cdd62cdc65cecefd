package task

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxDescriptionLength is the maximum number of characters in a description.
const MaxDescriptionLength = 1000

var (
	// ErrEmptyTitle is returned when a task title is empty after trimming.
	ErrEmptyTitle = errors.New("title cannot be empty")

	// ErrDescriptionTooLong is returned when a description exceeds MaxDescriptionLength.
	ErrDescriptionTooLong = errors.New("description exceeds maximum length")

	// ErrInvalidID is returned when a task ID is not a positive integer.
	ErrInvalidID = errors.New("task id must be a positive integer")

	// ErrInvalidPriority is returned when an invalid priority is provided.
	ErrInvalidPriority = errors.New("invalid priority")

	// ErrInvalidTag is returned when a tag is blank.
	ErrInvalidTag = errors.New("tag cannot be blank")

	// ErrInvalidDate is returned when a date string cannot be parsed.
	ErrInvalidDate = errors.New("invalid date format")

	// ErrInvalidRecurring is returned when a recurring config is malformed.
	ErrInvalidRecurring = errors.New("invalid recurring config")

	// ErrInvalidSortKey is returned when an unknown sort key is provided.
	ErrInvalidSortKey = errors.New("invalid sort key")

	// ErrTaskNotFound is returned when a task with the given ID doesn't exist.
	ErrTaskNotFound = errors.New("task not found")
)

var validationErrors = []error{
	ErrEmptyTitle,
	ErrDescriptionTooLong,
	ErrInvalidID,
	ErrInvalidPriority,
	ErrInvalidTag,
	ErrInvalidDate,
	ErrInvalidRecurring,
	ErrInvalidSortKey,
}

// IsValidationError reports whether err was caused by invalid input.
func IsValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// ValidateTitle checks if the title is valid.
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return ErrEmptyTitle
	}
	return nil
}

// ValidateDescription checks the description length in characters.
func ValidateDescription(description string) error {
	if n := utf8.RuneCountInString(description); n > MaxDescriptionLength {
		return fmt.Errorf("%w: %d > %d", ErrDescriptionTooLong, n, MaxDescriptionLength)
	}
	return nil
}

// ValidatePriority checks if the priority is valid.
func ValidatePriority(priority Priority) error {
	if !priority.IsValid() {
		return fmt.Errorf("%w: %q (must be one of high, medium, low)", ErrInvalidPriority, priority)
	}
	return nil
}

// ValidateTags checks that no tag is blank.
func ValidateTags(tags []string) error {
	for i, tag := range tags {
		if strings.TrimSpace(tag) == "" {
			return fmt.Errorf("%w: tag %d", ErrInvalidTag, i+1)
		}
	}
	return nil
}

// ValidateRecurring checks the interval and count of a recurring config.
func ValidateRecurring(r *Recurring) error {
	if r == nil {
		return nil
	}
	if r.Interval == "" {
		return fmt.Errorf("%w: interval is required", ErrInvalidRecurring)
	}
	if !r.Interval.IsValid() {
		return fmt.Errorf("%w: interval %q (must be one of daily, weekly, monthly)", ErrInvalidRecurring, r.Interval)
	}
	if r.Count != nil && *r.Count <= 0 {
		return fmt.Errorf("%w: count must be positive, got %d", ErrInvalidRecurring, *r.Count)
	}
	return nil
}

// ValidateSortKey checks if the sort key is valid.
func ValidateSortKey(key SortKey) error {
	if !key.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidSortKey, key)
	}
	return nil
}

// ValidateTask checks all invariants of a task.
func ValidateTask(t Task) error {
	if t.ID <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidID, t.ID)
	}
	if err := ValidateTitle(t.Title); err != nil {
		return err
	}
	if err := ValidateDescription(t.Description); err != nil {
		return err
	}
	if err := ValidatePriority(t.Priority); err != nil {
		return err
	}
	if err := ValidateTags(t.Tags); err != nil {
		return err
	}
	return ValidateRecurring(t.Recurring)
}

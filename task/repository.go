package task

// Repository stores tasks.
//
// Not-found outcomes are reported as false rather than errors, except for
// Get, which returns ErrTaskNotFound. Errors are reserved for invalid input
// and storage failures.
type Repository interface {
	// Create stores t, replacing any task with the same ID.
	Create(t Task) (int, error)

	// Get returns the task with the given ID, including deleted tasks.
	Get(id int) (Task, error)

	// All returns every task that is not deleted, ordered by ID.
	All() ([]Task, error)

	// Exists reports whether a task with the ID exists, deleted or not.
	Exists(id int) (bool, error)

	// Update applies a partial update.
	Update(id int, patch Patch) (bool, error)

	// Delete marks the task as deleted.
	Delete(id int) (bool, error)

	// Restore clears the deleted flag. It reports false if the task is
	// absent or not currently deleted.
	Restore(id int) (bool, error)

	// Search returns the non-deleted tasks matching q.
	Search(q Query) ([]Task, error)
}

// IDSource is implemented by repositories that can report the highest ID
// they hold, deleted tasks included.
type IDSource interface {
	MaxID() (int, error)
}

// Closer is implemented by repositories holding external resources.
type Closer interface {
	Close() error
}

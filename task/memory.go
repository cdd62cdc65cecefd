package task

import (
	"fmt"
	"sort"
	"sync"
)

// MemoryRepository keeps tasks in a map. It is safe for concurrent use.
type MemoryRepository struct {
	mu    sync.Mutex
	tasks map[int]Task
}

// NewMemoryRepository returns an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{tasks: make(map[int]Task)}
}

// Create stores t, replacing any task with the same ID.
func (r *MemoryRepository) Create(t Task) (int, error) {
	if err := ValidateTask(t); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[t.ID] = t.Clone()
	return t.ID, nil
}

// Get returns the task with the given ID, including deleted tasks.
func (r *MemoryRepository) Get(id int) (Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return Task{}, fmt.Errorf("%w: %d", ErrTaskNotFound, id)
	}
	return t.Clone(), nil
}

// All returns every non-deleted task ordered by ID.
func (r *MemoryRepository) All() ([]Task, error) {
	return r.Search(Query{})
}

// Exists reports whether the ID is known.
func (r *MemoryRepository) Exists(id int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.tasks[id]
	return ok, nil
}

// Update applies a partial update.
func (r *MemoryRepository) Update(id int, patch Patch) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return false, nil
	}
	updated, err := patch.Apply(t)
	if err != nil {
		return false, err
	}
	r.tasks[id] = updated
	return true, nil
}

// Delete marks the task as deleted.
func (r *MemoryRepository) Delete(id int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return false, nil
	}
	t.Deleted = true
	r.tasks[id] = t
	return true, nil
}

// Restore clears the deleted flag of a deleted task.
func (r *MemoryRepository) Restore(id int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok || !t.Deleted {
		return false, nil
	}
	t.Deleted = false
	r.tasks[id] = t
	return true, nil
}

// Search returns the non-deleted tasks matching q.
func (r *MemoryRepository) Search(q Query) ([]Task, error) {
	r.mu.Lock()
	tasks := make([]Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		tasks = append(tasks, t.Clone())
	}
	r.mu.Unlock()

	sortByID(tasks)
	return q.Filter(tasks), nil
}

// MaxID returns the highest stored ID, or 0 when empty.
func (r *MemoryRepository) MaxID() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	highest := 0
	for id := range r.tasks {
		if id > highest {
			highest = id
		}
	}
	return highest, nil
}

func sortByID(tasks []Task) {
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].ID < tasks[j].ID
	})
}

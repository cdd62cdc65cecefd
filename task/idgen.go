package task

import (
	"fmt"
	"sync/atomic"
)

// IDGenerator allocates task IDs.
type IDGenerator interface {
	GenerateID() int
}

// Counter is a process-wide monotonic ID generator. IDs start at 1.
type Counter struct {
	last atomic.Int64
}

// NewCounter returns a counter whose first ID is last+1.
func NewCounter(last int) *Counter {
	c := &Counter{}
	c.last.Store(int64(last))
	return c
}

// GenerateID returns the next ID.
func (c *Counter) GenerateID() int {
	return int(c.last.Add(1))
}

// NewSeededCounter returns a counter that continues after the highest ID in
// repo, so a persistent store never reuses an ID across restarts.
func NewSeededCounter(repo Repository) (*Counter, error) {
	src, ok := repo.(IDSource)
	if !ok {
		return NewCounter(0), nil
	}
	last, err := src.MaxID()
	if err != nil {
		return nil, fmt.Errorf("seed id counter: %w", err)
	}
	return NewCounter(last), nil
}

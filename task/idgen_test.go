package task

import (
	"sync"
	"testing"
)

func TestCounterStartsAtOne(t *testing.T) {
	c := NewCounter(0)
	for want := 1; want <= 3; want++ {
		if got := c.GenerateID(); got != want {
			t.Fatalf("expected %d, got %d", want, got)
		}
	}
}

func TestCounterConcurrentUnique(t *testing.T) {
	c := NewCounter(0)
	const workers, perWorker = 8, 100

	var mu sync.Mutex
	seen := make(map[int]bool)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				id := c.GenerateID()
				mu.Lock()
				if seen[id] {
					t.Errorf("duplicate id %d", id)
				}
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if len(seen) != workers*perWorker {
		t.Fatalf("expected %d ids, got %d", workers*perWorker, len(seen))
	}
}

func TestSeededCounterResumesAfterMaxID(t *testing.T) {
	repo := NewMemoryRepository()
	mustCreate(t, repo, mustTask(t, 7, "seven", NewOptions{}))
	if _, err := repo.Delete(7); err != nil {
		t.Fatalf("delete: %v", err)
	}

	c, err := NewSeededCounter(repo)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if got := c.GenerateID(); got != 8 {
		t.Fatalf("expected 8, got %d", got)
	}
}

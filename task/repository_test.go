package task

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type repoFactory struct {
	name string
	open func(t *testing.T) Repository
}

func repoFactories() []repoFactory {
	return []repoFactory{
		{
			name: "memory",
			open: func(t *testing.T) Repository { return NewMemoryRepository() },
		},
		{
			name: "file",
			open: func(t *testing.T) Repository {
				return NewFileRepository(filepath.Join(t.TempDir(), "tasks.json"), FileOptions{})
			},
		},
		{
			name: "sqlite",
			open: func(t *testing.T) Repository {
				repo, err := OpenSQLite(filepath.Join(t.TempDir(), "tasks.db"))
				if err != nil {
					t.Fatalf("open sqlite: %v", err)
				}
				t.Cleanup(func() { repo.Close() })
				return repo
			},
		},
	}
}

func forEachRepository(t *testing.T, fn func(t *testing.T, repo Repository)) {
	t.Helper()
	for _, factory := range repoFactories() {
		t.Run(factory.name, func(t *testing.T) {
			fn(t, factory.open(t))
		})
	}
}

var testEpoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func mustTask(t *testing.T, id int, title string, opts NewOptions) Task {
	t.Helper()
	if opts.CreatedAt.IsZero() {
		opts.CreatedAt = testEpoch.Add(time.Duration(id) * time.Minute)
	}
	task, err := New(id, title, opts)
	if err != nil {
		t.Fatalf("new task %d: %v", id, err)
	}
	return task
}

func mustCreate(t *testing.T, repo Repository, tasks ...Task) {
	t.Helper()
	for _, task := range tasks {
		if _, err := repo.Create(task); err != nil {
			t.Fatalf("create task %d: %v", task.ID, err)
		}
	}
}

func taskIDs(tasks []Task) []int {
	ids := make([]int, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
	}
	return ids
}

func timePtr(t time.Time) *time.Time { return &t }

func intPtr(n int) *int { return &n }

func boolPtr(b bool) *bool { return &b }

func TestRepositoryCreateAndGet(t *testing.T) {
	forEachRepository(t, func(t *testing.T, repo Repository) {
		want := mustTask(t, 1, "Buy milk", NewOptions{
			Description: "2% please",
			Priority:    PriorityHigh,
			Tags:        []string{"errand", "food"},
			DueDate:     timePtr(testEpoch.Add(24 * time.Hour)),
			Reminder:    timePtr(testEpoch.Add(20 * time.Hour)),
			Recurring: &Recurring{
				Interval:    IntervalWeekly,
				Count:       intPtr(3),
				NextDueDate: timePtr(testEpoch.Add(8 * 24 * time.Hour)),
			},
		})
		id, err := repo.Create(want)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if id != 1 {
			t.Fatalf("expected id 1, got %d", id)
		}

		got, err := repo.Get(1)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("task mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestRepositoryCreateReplacesExisting(t *testing.T) {
	forEachRepository(t, func(t *testing.T, repo Repository) {
		mustCreate(t, repo, mustTask(t, 1, "first", NewOptions{}))
		mustCreate(t, repo, mustTask(t, 1, "second", NewOptions{}))

		all, err := repo.All()
		if err != nil {
			t.Fatalf("all: %v", err)
		}
		if len(all) != 1 || all[0].Title != "second" {
			t.Fatalf("expected replaced task, got %+v", all)
		}
	})
}

func TestRepositoryCreateRejectsInvalidTask(t *testing.T) {
	forEachRepository(t, func(t *testing.T, repo Repository) {
		_, err := repo.Create(Task{ID: 1, Title: "  ", Priority: PriorityMedium})
		if !errors.Is(err, ErrEmptyTitle) {
			t.Fatalf("expected ErrEmptyTitle, got %v", err)
		}
		if exists, _ := repo.Exists(1); exists {
			t.Fatal("invalid task should not be stored")
		}
	})
}

func TestRepositoryGetMissing(t *testing.T) {
	forEachRepository(t, func(t *testing.T, repo Repository) {
		_, err := repo.Get(42)
		if !errors.Is(err, ErrTaskNotFound) {
			t.Fatalf("expected ErrTaskNotFound, got %v", err)
		}
	})
}

func TestRepositoryDeleteAndRestore(t *testing.T) {
	forEachRepository(t, func(t *testing.T, repo Repository) {
		original := mustTask(t, 1, "Walk dog", NewOptions{Tags: []string{"pets"}})
		mustCreate(t, repo, original, mustTask(t, 2, "Feed cat", NewOptions{}))

		ok, err := repo.Delete(1)
		if err != nil || !ok {
			t.Fatalf("delete: ok=%v err=%v", ok, err)
		}

		all, err := repo.All()
		if err != nil {
			t.Fatalf("all: %v", err)
		}
		if diff := cmp.Diff([]int{2}, taskIDs(all)); diff != "" {
			t.Fatalf("all after delete (-want +got):\n%s", diff)
		}

		deleted, err := repo.Get(1)
		if err != nil {
			t.Fatalf("get deleted: %v", err)
		}
		if !deleted.Deleted {
			t.Fatal("expected deleted flag")
		}
		if exists, _ := repo.Exists(1); !exists {
			t.Fatal("deleted task should still exist")
		}

		ok, err = repo.Restore(1)
		if err != nil || !ok {
			t.Fatalf("restore: ok=%v err=%v", ok, err)
		}
		restored, err := repo.Get(1)
		if err != nil {
			t.Fatalf("get restored: %v", err)
		}
		if diff := cmp.Diff(original, restored); diff != "" {
			t.Fatalf("restored task mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestRepositoryRestoreNotDeleted(t *testing.T) {
	forEachRepository(t, func(t *testing.T, repo Repository) {
		mustCreate(t, repo, mustTask(t, 1, "Walk dog", NewOptions{}))

		ok, err := repo.Restore(1)
		if err != nil {
			t.Fatalf("restore: %v", err)
		}
		if ok {
			t.Fatal("restore of a live task should report false")
		}
		if ok, _ := repo.Restore(99); ok {
			t.Fatal("restore of a missing task should report false")
		}
		if ok, _ := repo.Delete(99); ok {
			t.Fatal("delete of a missing task should report false")
		}
	})
}

func TestRepositoryUpdatePartial(t *testing.T) {
	forEachRepository(t, func(t *testing.T, repo Repository) {
		original := mustTask(t, 1, "Pay rent", NewOptions{
			Description: "by transfer",
			Tags:        []string{"bills"},
			Reminder:    timePtr(testEpoch),
			Recurring:   &Recurring{Interval: IntervalMonthly},
		})
		mustCreate(t, repo, original)

		ok, err := repo.Update(1, Patch{
			Title:    Set("Pay rent early"),
			Priority: Set(PriorityHigh),
			Reminder: Clear[time.Time](),
		})
		if err != nil || !ok {
			t.Fatalf("update: ok=%v err=%v", ok, err)
		}

		got, err := repo.Get(1)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		want := original.Clone()
		want.Title = "Pay rent early"
		want.Priority = PriorityHigh
		want.Reminder = nil
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("updated task mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestRepositoryUpdateMissing(t *testing.T) {
	forEachRepository(t, func(t *testing.T, repo Repository) {
		ok, err := repo.Update(7, Patch{Title: Set("nope")})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if ok {
			t.Fatal("update of a missing task should report false")
		}
	})
}

func TestRepositoryUpdateRejectsInvalidPatch(t *testing.T) {
	forEachRepository(t, func(t *testing.T, repo Repository) {
		mustCreate(t, repo, mustTask(t, 1, "Pay rent", NewOptions{}))

		_, err := repo.Update(1, Patch{Title: Set("   ")})
		if !errors.Is(err, ErrEmptyTitle) {
			t.Fatalf("expected ErrEmptyTitle, got %v", err)
		}
		got, err := repo.Get(1)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Title != "Pay rent" {
			t.Fatalf("title changed to %q", got.Title)
		}
	})
}

func TestRepositorySearch(t *testing.T) {
	forEachRepository(t, func(t *testing.T, repo Repository) {
		mustCreate(t, repo,
			mustTask(t, 1, "Buy milk", NewOptions{Priority: PriorityHigh, Tags: []string{"errand", "food"}}),
			mustTask(t, 2, "Write report", NewOptions{Description: "quarterly MILK numbers", Priority: PriorityLow}),
			mustTask(t, 3, "Buy bread", NewOptions{Priority: PriorityHigh, Tags: []string{"food"}}),
			mustTask(t, 4, "Call mom", NewOptions{Reminder: timePtr(testEpoch.Add(-time.Hour))}),
			mustTask(t, 5, "Renew passport", NewOptions{Reminder: timePtr(testEpoch.Add(time.Hour))}),
		)
		if _, err := repo.Update(3, Patch{Status: Set(true)}); err != nil {
			t.Fatalf("complete: %v", err)
		}
		mustCreate(t, repo, mustTask(t, 6, "Buy milk again", NewOptions{Priority: PriorityHigh}))
		if _, err := repo.Delete(6); err != nil {
			t.Fatalf("delete: %v", err)
		}

		tests := []struct {
			name  string
			query Query
			want  []int
		}{
			{"all", Query{}, []int{1, 2, 3, 4, 5}},
			{"keyword title or description", Query{Keyword: "milk"}, []int{1, 2}},
			{"status", Query{Status: boolPtr(true)}, []int{3}},
			{"priority", Query{Priority: PriorityHigh}, []int{1, 3}},
			{"status and priority", Query{Status: boolPtr(false), Priority: PriorityHigh}, []int{1}},
			{"tags all required", Query{Tags: []string{"food", "errand"}}, []int{1}},
			{"single tag", Query{Tags: []string{"food"}}, []int{1, 3}},
			{"reminder before", Query{ReminderBefore: timePtr(testEpoch)}, []int{4}},
			{"reminder inclusive", Query{ReminderBefore: timePtr(testEpoch.Add(time.Hour))}, []int{4, 5}},
			{"no match", Query{Keyword: "zzz"}, []int{}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := repo.Search(tt.query)
				if err != nil {
					t.Fatalf("search: %v", err)
				}
				if diff := cmp.Diff(tt.want, taskIDs(got)); diff != "" {
					t.Fatalf("search ids (-want +got):\n%s", diff)
				}
			})
		}
	})
}

func TestRepositorySearchSortsDueDateNullsLast(t *testing.T) {
	forEachRepository(t, func(t *testing.T, repo Repository) {
		mustCreate(t, repo,
			mustTask(t, 1, "none", NewOptions{}),
			mustTask(t, 2, "later", NewOptions{DueDate: timePtr(testEpoch.Add(48 * time.Hour))}),
			mustTask(t, 3, "also none", NewOptions{}),
			mustTask(t, 4, "sooner", NewOptions{DueDate: timePtr(testEpoch)}),
		)
		got, err := repo.Search(Query{SortBy: SortDueDate})
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if diff := cmp.Diff([]int{4, 2, 1, 3}, taskIDs(got)); diff != "" {
			t.Fatalf("sorted ids (-want +got):\n%s", diff)
		}
	})
}

func TestRepositoryMaxIDIncludesDeleted(t *testing.T) {
	forEachRepository(t, func(t *testing.T, repo Repository) {
		src, ok := repo.(IDSource)
		if !ok {
			t.Fatal("repository does not implement IDSource")
		}
		if highest, err := src.MaxID(); err != nil || highest != 0 {
			t.Fatalf("empty max id: %d, %v", highest, err)
		}
		mustCreate(t, repo, mustTask(t, 3, "a", NewOptions{}), mustTask(t, 9, "b", NewOptions{}))
		if _, err := repo.Delete(9); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if highest, err := src.MaxID(); err != nil || highest != 9 {
			t.Fatalf("max id: %d, %v", highest, err)
		}
	})
}

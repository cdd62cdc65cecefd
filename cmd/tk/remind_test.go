package main

import (
	"context"
	"testing"
	"time"

	"github.com/amonks/tasks/task"
	"go.uber.org/zap"
)

func TestWatchRemindersNotifiesOnce(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := task.NewService(task.NewMemoryRepository(), task.ServiceOptions{
		Now: func() time.Time { return now },
	})
	due, err := svc.Add("Pay rent", task.AddOptions{Reminder: "2024-03-01T08:00:00Z"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.Add("Later", task.AddOptions{Reminder: "2024-03-02T08:00:00Z"}); err != nil {
		t.Fatalf("add: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var notified []int
	done := make(chan error, 1)
	go func() {
		done <- watchReminders(ctx, svc, time.Millisecond, zap.NewNop(), func(item task.Task) error {
			notified = append(notified, item.ID)
			return nil
		})
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("watch reminders: %v", err)
	}
	if len(notified) != 1 || notified[0] != due {
		t.Fatalf("expected one notification for task %d, got %v", due, notified)
	}
}

package ui

import (
	"testing"

	"github.com/amonks/tasks/task"
)

func withANSI(t *testing.T, enabled bool) {
	t.Helper()
	original := ansiEnabledFn
	ansiEnabledFn = func() bool { return enabled }
	t.Cleanup(func() { ansiEnabledFn = original })
}

func TestPlainOutputWithoutANSI(t *testing.T) {
	withANSI(t, false)

	if got := HighlightID(42); got != "42" {
		t.Fatalf("HighlightID = %q", got)
	}
	if got := FormatPriority(task.PriorityHigh); got != "high" {
		t.Fatalf("FormatPriority = %q", got)
	}
	cases := []struct {
		task task.Task
		want string
	}{
		{task.Task{}, "pending"},
		{task.Task{Status: true}, "done"},
		{task.Task{Status: true, Deleted: true}, "deleted"},
	}
	for _, tc := range cases {
		if got := FormatStatus(tc.task); got != tc.want {
			t.Fatalf("FormatStatus(%+v) = %q, want %q", tc.task, got, tc.want)
		}
	}
}

func TestNoColorDisablesANSI(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	if ansiEnabled() {
		t.Fatal("expected NO_COLOR to disable ANSI output")
	}
}

package ui

import (
	"testing"
	"time"
)

func TestFormatDurationShort(t *testing.T) {
	cases := []struct {
		name     string
		duration time.Duration
		want     string
	}{
		{name: "negative", duration: -time.Minute, want: "0s"},
		{name: "seconds", duration: 45 * time.Second, want: "45s"},
		{name: "minutes", duration: 2*time.Minute + 10*time.Second, want: "2m"},
		{name: "hours", duration: 3*time.Hour + 5*time.Minute, want: "3h"},
		{name: "days", duration: 48 * time.Hour, want: "2d"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FormatDurationShort(tc.duration)
			if got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestFormatTimeAgo(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	then := now.Add(-2 * time.Minute)

	if got := FormatTimeAgo(then, now); got != "2m ago" {
		t.Fatalf("expected 2m ago, got %s", got)
	}
	if got := FormatTimeAgo(time.Time{}, now); got != "-" {
		t.Fatalf("expected - for zero time, got %s", got)
	}
}

func TestFormatDue(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(72 * time.Hour)
	past := now.Add(-2 * time.Hour)

	cases := []struct {
		due  *time.Time
		want string
	}{
		{nil, "-"},
		{&future, "in 3d"},
		{&past, "2h overdue"},
	}
	for _, tc := range cases {
		if got := FormatDue(tc.due, now); got != tc.want {
			t.Fatalf("FormatDue(%v) = %q, want %q", tc.due, got, tc.want)
		}
	}
}

func TestFormatDate(t *testing.T) {
	if got := FormatDate(nil); got != "-" {
		t.Fatalf("expected -, got %q", got)
	}
	midnight := time.Date(2025, 3, 4, 0, 0, 0, 0, time.Local)
	if got := FormatDate(&midnight); got != "2025-03-04" {
		t.Fatalf("expected date only, got %q", got)
	}
	evening := time.Date(2025, 3, 4, 18, 30, 0, 0, time.Local)
	if got := FormatDate(&evening); got != "2025-03-04 18:30" {
		t.Fatalf("expected date and time, got %q", got)
	}
}

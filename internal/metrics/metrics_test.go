package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/amonks/tasks/task"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type staticSource struct {
	tasks     []task.Task
	reminders []task.Task
}

func (s staticSource) List() ([]task.Task, error)           { return s.tasks, nil }
func (s staticSource) CheckReminders() ([]task.Task, error) { return s.reminders, nil }

type failingSource struct{ err error }

func (s failingSource) List() ([]task.Task, error)           { return nil, s.err }
func (s failingSource) CheckReminders() ([]task.Task, error) { return nil, s.err }

func TestMiddlewareCountsByRoute(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/tasks/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tasks/7", nil))
	}

	got := testutil.ToFloat64(m.requests.WithLabelValues("GET", "/api/tasks/{id}", "404"))
	if got != 2 {
		t.Fatalf("expected 2 requests, got %v", got)
	}
}

func TestTaskGauges(t *testing.T) {
	m := New()
	now := time.Now()
	m.RegisterTaskGauges(staticSource{
		tasks: []task.Task{
			{ID: 1, Title: "a"},
			{ID: 2, Title: "b", Status: true},
			{ID: 3, Title: "c"},
		},
		reminders: []task.Task{{ID: 1, Title: "a", Reminder: &now}},
	}, zap.NewNop())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()

	for _, want := range []string{"tasks_pending 2", "tasks_reminders_due 1"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in metrics output", want)
		}
	}
}

func TestTaskGaugesReportStoreFailures(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	m := New()
	m.RegisterTaskGauges(failingSource{err: errors.New("disk on fire")}, zap.New(core))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()

	for _, want := range []string{"tasks_pending NaN", "tasks_reminders_due NaN"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in metrics output", want)
		}
	}
	if got := logs.Len(); got != 2 {
		t.Fatalf("expected 2 logged failures, got %d", got)
	}
	if got := logs.All()[0].ContextMap()["error"]; got != "disk on fire" {
		t.Fatalf("expected logged error, got %v", got)
	}
}

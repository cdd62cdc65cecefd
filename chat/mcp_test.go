package chat

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/amonks/tasks/task"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func newTestMCPServer(t *testing.T) (*server.MCPServer, *task.Service) {
	t.Helper()
	bot, svc := newTestBot(t)
	return NewMCPServer(svc, bot, "test"), svc
}

func callTool(t *testing.T, s *server.MCPServer, name string, args map[string]any) (string, bool) {
	t.Helper()
	tool := s.GetTool(name)
	if tool == nil {
		t.Fatalf("tool %q not registered", name)
	}
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	result, err := tool.Handler(context.Background(), req)
	if err != nil {
		t.Fatalf("call %s: %v", name, err)
	}
	return result.Content[0].(mcp.TextContent).Text, result.IsError
}

func decodeTasks(t *testing.T, text string) []task.Task {
	t.Helper()
	var payload struct {
		Tasks []task.Task `json:"tasks"`
	}
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		t.Fatalf("decode %q: %v", text, err)
	}
	return payload.Tasks
}

func TestMCPAddTask(t *testing.T) {
	s, svc := newTestMCPServer(t)

	text, isErr := callTool(t, s, "add_task", map[string]any{
		"title":     "Water plants",
		"priority":  "HIGH",
		"tags":      "home, garden",
		"due_date":  "2024-03-05",
		"recurring": "weekly",
		"count":     float64(3),
	})
	if isErr {
		t.Fatalf("add_task failed: %s", text)
	}

	got, err := svc.Get(1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Priority != task.PriorityHigh {
		t.Errorf("priority = %q", got.Priority)
	}
	if strings.Join(got.Tags, ",") != "home,garden" {
		t.Errorf("tags = %v", got.Tags)
	}
	if got.Recurring == nil || got.Recurring.Interval != task.IntervalWeekly {
		t.Fatalf("recurring = %+v", got.Recurring)
	}
	if got.Recurring.Count == nil || *got.Recurring.Count != 3 {
		t.Errorf("count = %v", got.Recurring.Count)
	}
}

func TestMCPAddTaskValidation(t *testing.T) {
	s, svc := newTestMCPServer(t)

	tests := []map[string]any{
		{"title": "   "},
		{"title": "ok", "priority": "critical"},
		{"title": "ok", "due_date": "next tuesday"},
		{"title": "ok", "recurring": "hourly"},
		{"title": "ok", "recurring": "daily", "count": float64(0)},
	}
	for _, args := range tests {
		if text, isErr := callTool(t, s, "add_task", args); !isErr {
			t.Errorf("add_task(%v) succeeded: %s", args, text)
		}
	}
	tasks, err := svc.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("expected nothing stored, got %d tasks", len(tasks))
	}
}

func TestMCPUpdateTaskClearsFields(t *testing.T) {
	s, svc := newTestMCPServer(t)
	callTool(t, s, "add_task", map[string]any{
		"title":     "Pay rent",
		"due_date":  "2024-04-01",
		"reminder":  "2024-03-30",
		"recurring": "monthly",
	})

	text, isErr := callTool(t, s, "update_task", map[string]any{
		"id":        float64(1),
		"title":     "Pay the rent",
		"due_date":  nil,
		"reminder":  "",
		"recurring": nil,
	})
	if isErr {
		t.Fatalf("update_task failed: %s", text)
	}

	got, err := svc.Get(1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Pay the rent" {
		t.Errorf("title = %q", got.Title)
	}
	if got.DueDate != nil || got.Reminder != nil || got.Recurring != nil {
		t.Errorf("expected cleared fields, got due=%v reminder=%v recurring=%+v", got.DueDate, got.Reminder, got.Recurring)
	}

	if text, isErr := callTool(t, s, "update_task", map[string]any{"id": float64(9), "title": "x"}); !isErr {
		t.Errorf("update of missing task succeeded: %s", text)
	}
}

func TestMCPLifecycle(t *testing.T) {
	s, _ := newTestMCPServer(t)
	callTool(t, s, "add_task", map[string]any{"title": "Buy milk", "tags": "errands"})
	callTool(t, s, "add_task", map[string]any{"title": "Write report", "reminder": "2024-02-01"})

	if text, isErr := callTool(t, s, "complete_task", map[string]any{"id": float64(1)}); isErr {
		t.Fatalf("complete_task failed: %s", text)
	}
	if text, isErr := callTool(t, s, "restore_task", map[string]any{"id": float64(1)}); !isErr {
		t.Fatalf("restore of live task succeeded: %s", text)
	}

	text, _ := callTool(t, s, "search_tasks", map[string]any{"status": true})
	if tasks := decodeTasks(t, text); len(tasks) != 1 || tasks[0].ID != 1 {
		t.Fatalf("search status=true returned %s", text)
	}
	text, _ = callTool(t, s, "search_tasks", map[string]any{"keyword": "REPORT"})
	if tasks := decodeTasks(t, text); len(tasks) != 1 || tasks[0].ID != 2 {
		t.Fatalf("search keyword returned %s", text)
	}
	if text, isErr := callTool(t, s, "search_tasks", map[string]any{"sort_by": "size"}); !isErr {
		t.Fatalf("search with bad sort key succeeded: %s", text)
	}

	text, _ = callTool(t, s, "check_reminders", map[string]any{})
	if tasks := decodeTasks(t, text); len(tasks) != 1 || tasks[0].ID != 2 {
		t.Fatalf("check_reminders returned %s", text)
	}

	callTool(t, s, "delete_task", map[string]any{"id": float64(2)})
	text, _ = callTool(t, s, "list_tasks", map[string]any{})
	if tasks := decodeTasks(t, text); len(tasks) != 1 || tasks[0].ID != 1 {
		t.Fatalf("list_tasks returned %s", text)
	}
	text, _ = callTool(t, s, "check_reminders", map[string]any{})
	if tasks := decodeTasks(t, text); len(tasks) != 0 {
		t.Fatalf("deleted task still has a reminder: %s", text)
	}
}

func TestMCPChat(t *testing.T) {
	s, svc := newTestMCPServer(t)

	text, isErr := callTool(t, s, "chat", map[string]any{"message": "add buy milk #errands"})
	if isErr {
		t.Fatalf("chat failed: %s", text)
	}
	if !strings.Contains(text, "buy milk") {
		t.Fatalf("unexpected reply %q", text)
	}
	if _, err := svc.Get(1); err != nil {
		t.Fatalf("chat did not create a task: %v", err)
	}
}

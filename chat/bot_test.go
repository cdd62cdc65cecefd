package chat

import (
	"strings"
	"testing"
	"time"

	"github.com/amonks/tasks/task"
	"github.com/google/go-cmp/cmp"
)

var testNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestBot(t *testing.T) (*Bot, *task.Service) {
	t.Helper()
	svc := task.NewService(task.NewMemoryRepository(), task.ServiceOptions{
		Now: func() time.Time { return testNow },
	})
	return NewBot(svc, BotOptions{Now: func() time.Time { return testNow }}), svc
}

func mustRespond(t *testing.T, bot *Bot, message string) Reply {
	t.Helper()
	reply, err := bot.Respond(message)
	if err != nil {
		t.Fatalf("respond %q: %v", message, err)
	}
	return reply
}

func TestBotAdd(t *testing.T) {
	bot, svc := newTestBot(t)

	reply := mustRespond(t, bot, "add buy milk due tomorrow #errands high priority")
	if reply.Intent != IntentAdd {
		t.Fatalf("expected add intent, got %q", reply.Intent)
	}
	if len(reply.Tasks) != 1 {
		t.Fatalf("expected one task in reply, got %d", len(reply.Tasks))
	}

	got, err := svc.Get(1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "buy milk" {
		t.Errorf("title = %q", got.Title)
	}
	if got.Priority != task.PriorityHigh {
		t.Errorf("priority = %q", got.Priority)
	}
	if diff := cmp.Diff([]string{"errands"}, got.Tags); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
	if got.DueDate == nil || got.DueDate.Format("2006-01-02") != "2024-03-02" {
		t.Errorf("due date = %v", got.DueDate)
	}
	if got.Reminder != nil {
		t.Errorf("expected no reminder, got %v", got.Reminder)
	}
	if !strings.Contains(reply.Text, "buy milk") {
		t.Errorf("reply text %q does not mention the title", reply.Text)
	}
}

func TestBotRemindMeSetsReminder(t *testing.T) {
	bot, svc := newTestBot(t)

	mustRespond(t, bot, "remind me to call mom tomorrow")
	got, err := svc.Get(1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "call mom" {
		t.Errorf("title = %q", got.Title)
	}
	if got.Reminder == nil || got.Reminder.Format("2006-01-02") != "2024-03-02" {
		t.Errorf("reminder = %v", got.Reminder)
	}
}

func TestBotAddWithoutTitle(t *testing.T) {
	bot, svc := newTestBot(t)

	reply := mustRespond(t, bot, "add")
	if reply.Text != "What should the task be called?" {
		t.Fatalf("unexpected reply %q", reply.Text)
	}
	tasks, err := svc.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("expected no tasks, got %d", len(tasks))
	}
}

func TestBotCompleteRecurring(t *testing.T) {
	bot, svc := newTestBot(t)

	mustRespond(t, bot, "add water plants every week")
	reply := mustRespond(t, bot, "complete 1")
	if reply.Text != "Task 1 completed." {
		t.Fatalf("unexpected reply %q", reply.Text)
	}

	tasks, err := svc.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected original and next occurrence, got %d tasks", len(tasks))
	}
	if !tasks[0].Status || tasks[1].Status {
		t.Fatalf("unexpected statuses: %v, %v", tasks[0].Status, tasks[1].Status)
	}
	if tasks[1].Title != "water plants" {
		t.Fatalf("next occurrence title = %q", tasks[1].Title)
	}
}

func TestBotIDOperations(t *testing.T) {
	bot, svc := newTestBot(t)
	mustRespond(t, bot, "add buy milk")

	tests := []struct {
		message string
		want    string
	}{
		{"complete", `Which task? Include its ID, for example "complete 3".`},
		{"complete 99", "Task 99 was not completed; check the ID."},
		{"delete task 1", "Task 1 deleted."},
		{"delete task 1", "Task 1 deleted."},
		{"restore 1", "Task 1 restored."},
		{"restore 1", "Task 1 was not restored; check the ID."},
	}
	for _, tt := range tests {
		if got := mustRespond(t, bot, tt.message).Text; got != tt.want {
			t.Errorf("%q: got %q, want %q", tt.message, got, tt.want)
		}
	}

	got, err := svc.Get(1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Deleted {
		t.Fatal("expected task to be restored")
	}
}

func TestBotUpdate(t *testing.T) {
	bot, svc := newTestBot(t)
	mustRespond(t, bot, "add buy milk")

	mustRespond(t, bot, "rename task 1 to buy oat milk")
	mustRespond(t, bot, "set priority of task 1 to low")
	mustRespond(t, bot, "reschedule 1 to 2024-06-01")

	got, err := svc.Get(1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "buy oat milk" {
		t.Errorf("title = %q", got.Title)
	}
	if got.Priority != task.PriorityLow {
		t.Errorf("priority = %q", got.Priority)
	}
	if got.DueDate == nil || got.DueDate.Format("2006-01-02") != "2024-06-01" {
		t.Errorf("due date = %v", got.DueDate)
	}

	reply := mustRespond(t, bot, "update 1")
	if !strings.HasPrefix(reply.Text, "What should I change?") {
		t.Errorf("unexpected reply %q", reply.Text)
	}
	reply = mustRespond(t, bot, "rename 42 to nothing")
	if reply.Text != "Task 42 was not found." {
		t.Errorf("unexpected reply %q", reply.Text)
	}
}

func TestBotValidationErrorsBecomeReplies(t *testing.T) {
	bot, _ := newTestBot(t)
	mustRespond(t, bot, "add buy milk")

	reply, err := bot.Respond("reschedule 1 to 2024-13-45")
	if err != nil {
		t.Fatalf("expected validation error as reply, got %v", err)
	}
	if reply.Intent != IntentUpdate {
		t.Fatalf("intent = %q", reply.Intent)
	}
	if !strings.HasPrefix(reply.Text, "Sorry, due date: invalid date") {
		t.Fatalf("unexpected reply %q", reply.Text)
	}
}

func TestBotQueries(t *testing.T) {
	bot, svc := newTestBot(t)
	mustRespond(t, bot, "add buy milk #errands")
	mustRespond(t, bot, "add write report #work")
	if _, err := svc.Update(2, task.UpdateOptions{Reminder: task.Set("2024-02-28")}); err != nil {
		t.Fatalf("update: %v", err)
	}
	mustRespond(t, bot, "complete 1")

	ids := func(reply Reply) []int {
		var ids []int
		for _, t := range reply.Tasks {
			ids = append(ids, t.ID)
		}
		return ids
	}

	tests := []struct {
		message string
		intent  Intent
		want    []int
	}{
		{"list", IntentList, []int{1, 2}},
		{"list pending", IntentList, []int{2}},
		{"show completed tasks", IntentList, []int{1}},
		{"search for milk", IntentSearch, []int{1}},
		{"find #work", IntentSearch, []int{2}},
		{"reminders", IntentReminders, []int{2}},
		{"search for nothing-like-this", IntentSearch, nil},
	}
	for _, tt := range tests {
		reply := mustRespond(t, bot, tt.message)
		if reply.Intent != tt.intent {
			t.Errorf("%q: intent = %q, want %q", tt.message, reply.Intent, tt.intent)
		}
		if diff := cmp.Diff(tt.want, ids(reply)); diff != "" {
			t.Errorf("%q: ids mismatch (-want +got):\n%s", tt.message, diff)
		}
	}
}

func TestBotUnknown(t *testing.T) {
	bot, _ := newTestBot(t)
	reply := mustRespond(t, bot, "the weather is nice")
	if reply.Intent != IntentUnknown {
		t.Fatalf("intent = %q", reply.Intent)
	}
	if !strings.Contains(reply.Text, "help") {
		t.Fatalf("unexpected reply %q", reply.Text)
	}
}

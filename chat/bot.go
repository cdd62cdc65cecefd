package chat

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/amonks/tasks/task"
	"go.uber.org/zap"
)

// Reply is the bot's answer to a message.
type Reply struct {
	Intent Intent      `json:"intent"`
	Text   string      `json:"text"`
	Tasks  []task.Task `json:"tasks,omitempty"`
}

// Bot answers free-text messages by running task operations.
type Bot struct {
	svc    *task.Service
	now    func() time.Time
	logger *zap.Logger
}

// BotOptions configures a Bot.
type BotOptions struct {
	// Now resolves relative dates such as "tomorrow". Defaults to time.Now.
	Now func() time.Time

	// Logger receives one debug line per message. If nil, logs are discarded.
	Logger *zap.Logger
}

// NewBot returns a bot backed by svc.
func NewBot(svc *task.Service, opts BotOptions) *Bot {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Bot{svc: svc, now: opts.Now, logger: opts.Logger}
}

const helpText = `I can manage your tasks. Try:
  add buy milk due tomorrow #errands
  add water plants every week high priority
  list / list pending
  search for milk
  complete 3 / delete 3 / restore 3
  rename task 3 to buy oat milk
  reminders`

var (
	pendingPattern   = regexp.MustCompile(`(?i)\b(?:pending|open|incomplete|todo)\b`)
	completedPattern = regexp.MustCompile(`(?i)\b(?:completed|finished)\b`)
	reminderPattern  = regexp.MustCompile(`(?i)\bremind`)
)

// Respond classifies the message and runs the matching operation. Invalid
// input is reported in the reply text; only storage failures are returned
// as errors.
func (b *Bot) Respond(message string) (Reply, error) {
	intent := Classify(message)
	b.logger.Debug("chat message", zap.String("intent", string(intent)))

	ex := extract(message, b.now())
	reply, err := b.dispatch(intent, message, ex)
	if err != nil && task.IsValidationError(err) {
		return Reply{Intent: intent, Text: "Sorry, " + err.Error() + "."}, nil
	}
	reply.Intent = intent
	return reply, err
}

func (b *Bot) dispatch(intent Intent, message string, ex extracted) (Reply, error) {
	switch intent {
	case IntentHelp:
		return Reply{Text: helpText}, nil
	case IntentAdd:
		return b.add(message, ex)
	case IntentComplete:
		return b.byID(ex, "completed", b.svc.Complete)
	case IntentDelete:
		return b.byID(ex, "deleted", b.svc.Delete)
	case IntentRestore:
		return b.byID(ex, "restored", b.svc.Restore)
	case IntentUpdate:
		return b.update(message, ex)
	case IntentReminders:
		tasks, err := b.svc.CheckReminders()
		if err != nil {
			return Reply{}, err
		}
		if len(tasks) == 0 {
			return Reply{Text: "No reminders are due."}, nil
		}
		return Reply{Text: describeTasks("Reminders due:", tasks), Tasks: tasks}, nil
	case IntentSearch:
		tasks, err := b.svc.Search(task.SearchOptions{
			Keyword:  ex.keyword,
			Priority: ex.priority,
			Tags:     ex.tags,
		})
		if err != nil {
			return Reply{}, err
		}
		if len(tasks) == 0 {
			return Reply{Text: "No matching tasks."}, nil
		}
		return Reply{Text: describeTasks("Found:", tasks), Tasks: tasks}, nil
	case IntentList:
		var status *bool
		switch {
		case pendingPattern.MatchString(message):
			status = new(bool)
		case completedPattern.MatchString(message):
			done := true
			status = &done
		}
		tasks, err := b.svc.Search(task.SearchOptions{Status: status, Priority: ex.priority, Tags: ex.tags})
		if err != nil {
			return Reply{}, err
		}
		if len(tasks) == 0 {
			return Reply{Text: "You have no tasks."}, nil
		}
		return Reply{Text: describeTasks("Your tasks:", tasks), Tasks: tasks}, nil
	default:
		return Reply{Text: `Sorry, I didn't understand that. Say "help" to see what I can do.`}, nil
	}
}

func (b *Bot) add(message string, ex extracted) (Reply, error) {
	if ex.title == "" {
		return Reply{Text: "What should the task be called?"}, nil
	}
	opts := task.AddOptions{
		Priority: ex.priority,
		Tags:     ex.tags,
		DueDate:  ex.dueDate,
	}
	if ex.interval != "" {
		opts.Recurring = &task.Recurring{Interval: ex.interval}
	}
	if reminderPattern.MatchString(message) {
		opts.Reminder = ex.dueDate
	}
	id, err := b.svc.Add(ex.title, opts)
	if err != nil {
		return Reply{}, err
	}
	t, err := b.svc.Get(id)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Text: "Added " + describeTask(t), Tasks: []task.Task{t}}, nil
}

func (b *Bot) byID(ex extracted, verb string, op func(int) (bool, error)) (Reply, error) {
	if !ex.hasID {
		return Reply{Text: "Which task? Include its ID, for example \"complete 3\"."}, nil
	}
	ok, err := op(ex.id)
	if err != nil {
		return Reply{}, err
	}
	if !ok {
		return Reply{Text: fmt.Sprintf("Task %d was not %s; check the ID.", ex.id, verb)}, nil
	}
	return Reply{Text: fmt.Sprintf("Task %d %s.", ex.id, verb)}, nil
}

func (b *Bot) update(message string, ex extracted) (Reply, error) {
	if !ex.hasID {
		return Reply{Text: "Which task? Include its ID, for example \"rename 3 to call mom\"."}, nil
	}

	var opts task.UpdateOptions
	changed := false
	if title, ok := renameTarget(message); ok {
		opts.Title = &title
		changed = true
	}
	if ex.priority != "" {
		opts.Priority = &ex.priority
		changed = true
	}
	if len(ex.tags) > 0 {
		opts.Tags = &ex.tags
		changed = true
	}
	if ex.interval != "" {
		opts.Recurring = task.Set(task.Recurring{Interval: ex.interval})
		changed = true
	}
	if ex.dueDate != "" {
		if reminderPattern.MatchString(message) {
			opts.Reminder = task.Set(ex.dueDate)
		} else {
			opts.DueDate = task.Set(ex.dueDate)
		}
		changed = true
	}
	if !changed {
		return Reply{Text: "What should I change? Try a new title, priority, due date, or #tag."}, nil
	}

	ok, err := b.svc.Update(ex.id, opts)
	if err != nil {
		return Reply{}, err
	}
	if !ok {
		return Reply{Text: fmt.Sprintf("Task %d was not found.", ex.id)}, nil
	}
	t, err := b.svc.Get(ex.id)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Text: "Updated " + describeTask(t), Tasks: []task.Task{t}}, nil
}

func describeTasks(header string, tasks []task.Task) string {
	var sb strings.Builder
	sb.WriteString(header)
	for _, t := range tasks {
		sb.WriteString("\n  ")
		sb.WriteString(describeTask(t))
	}
	return sb.String()
}

func describeTask(t task.Task) string {
	mark := " "
	if t.Status {
		mark = "x"
	}
	s := fmt.Sprintf("[%s] %d: %s (%s)", mark, t.ID, t.Title, t.Priority)
	if t.DueDate != nil {
		s += " due " + t.DueDate.Format("2006-01-02")
	}
	if t.Recurring != nil {
		s += " repeats " + string(t.Recurring.Interval)
	}
	if len(t.Tags) > 0 {
		s += " #" + strings.Join(t.Tags, " #")
	}
	return s
}

package tasktui

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/amonks/tasks/internal/markdown"
	internalstrings "github.com/amonks/tasks/internal/strings"
	"github.com/amonks/tasks/internal/ui"
	"github.com/amonks/tasks/task"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

type taskItem struct {
	task    task.Task
	overdue bool
}

func (item taskItem) FilterValue() string {
	return item.task.Title
}

type taskItemDelegate struct {
	normalStyle   lipgloss.Style
	selectedStyle lipgloss.Style
	doneStyle     lipgloss.Style
}

func newTaskItemDelegate() taskItemDelegate {
	return taskItemDelegate{
		normalStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		selectedStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("24")),
		doneStyle:     valueMuted,
	}
}

func (d taskItemDelegate) Height() int                             { return 1 }
func (d taskItemDelegate) Spacing() int                            { return 0 }
func (d taskItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d taskItemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	item, ok := listItem.(taskItem)
	if !ok {
		return
	}

	line := formatTaskItem(item, m.Width())
	style := d.normalStyle
	switch {
	case index == m.Index():
		style = d.selectedStyle
	case item.task.Status || item.task.Deleted:
		style = d.doneStyle
	case item.overdue:
		style = overdueStyle
	}
	fmt.Fprint(w, style.Render(line))
}

func formatTaskItem(item taskItem, width int) string {
	mark := "[ ]"
	if item.task.Status {
		mark = "[x]"
	}
	if item.task.Deleted {
		mark = "[-]"
	}
	title := internalstrings.NormalizeWhitespace(item.task.Title)
	line := fmt.Sprintf("%s %d  %s  (%s)", mark, item.task.ID, title, item.task.Priority)
	if item.task.DueDate != nil {
		line += "  due " + ui.FormatDate(item.task.DueDate)
	}
	return truncateText(line, width)
}

type taskDetailModel struct {
	task     task.Task
	selected bool
	now      time.Time
	width    int
	viewport viewport.Model
}

func newTaskDetailModel() taskDetailModel {
	return taskDetailModel{viewport: viewport.New(0, 0)}
}

func (model *taskDetailModel) SetTask(t task.Task, now time.Time) {
	model.task = t
	model.selected = true
	model.now = now
	model.refresh(true)
}

func (model *taskDetailModel) Clear() {
	model.task = task.Task{}
	model.selected = false
	model.refresh(true)
}

func (model *taskDetailModel) SetSize(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	model.width = width
	model.viewport.Width = width
	model.viewport.Height = height
	model.refresh(false)
}

func (model taskDetailModel) Update(msg tea.Msg) (taskDetailModel, tea.Cmd) {
	var cmd tea.Cmd
	model.viewport, cmd = model.viewport.Update(msg)
	return model, cmd
}

func (model taskDetailModel) View() string {
	return model.viewport.View()
}

func (model *taskDetailModel) refresh(reset bool) {
	model.viewport.SetContent(model.renderContent())
	if reset {
		model.viewport.GotoTop()
	}
}

func (model taskDetailModel) renderContent() string {
	if !model.selected {
		return valueMuted.Render("No task selected")
	}
	t := model.task

	lines := []string{
		labelStyle.Render(t.Title),
		"",
		formatDetailRow("ID", strconv.Itoa(t.ID)),
		formatDetailRow("Status", statusName(t)),
		formatDetailRow("Priority", string(t.Priority)),
		formatDetailRow("Tags", strings.Join(t.Tags, ", ")),
		formatDetailRow("Due", dueText(t.DueDate, model.now)),
		formatDetailRow("Reminder", ui.FormatDate(t.Reminder)),
		formatDetailRow("Repeats", recurringText(t.Recurring)),
		formatDetailRow("Created", formatOptionalTime(t.CreatedAt)),
	}

	if description := markdown.Render(model.width, 0, t.Description); description != "" {
		lines = append(lines, "", labelStyle.Render("Description"), description)
	}
	return strings.Join(lines, "\n")
}

func statusName(t task.Task) string {
	switch {
	case t.Deleted:
		return "deleted"
	case t.Status:
		return "done"
	default:
		return "pending"
	}
}

func dueText(due *time.Time, now time.Time) string {
	if due == nil {
		return ""
	}
	return fmt.Sprintf("%s (%s)", ui.FormatDate(due), ui.FormatDue(due, now))
}

func recurringText(r *task.Recurring) string {
	if r == nil {
		return ""
	}
	text := string(r.Interval)
	if r.Count != nil {
		text += fmt.Sprintf(", %d left", *r.Count)
	}
	return text
}

func formatDetailRow(label, value string) string {
	return fmt.Sprintf("%s: %s", labelStyle.Render(label), valueMuted.Render(valueOrDash(value)))
}

func truncateText(value string, width int) string {
	if width <= 0 {
		return value
	}
	return runewidth.Truncate(value, width, "...")
}

func formatOptionalTime(value time.Time) string {
	if value.IsZero() {
		return "-"
	}
	return value.Local().Format("2006-01-02 15:04")
}

func valueOrDash(value string) string {
	if internalstrings.IsBlank(value) {
		return "-"
	}
	return value
}

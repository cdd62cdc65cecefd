// Package tasktui is the interactive terminal view behind `tk tui`.
package tasktui

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	internalstrings "github.com/amonks/tasks/internal/strings"
	"github.com/amonks/tasks/task"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Service is the subset of task.Service the TUI drives.
type Service interface {
	List() ([]task.Task, error)
	Add(title string, opts task.AddOptions) (int, error)
	Complete(id int) (bool, error)
	Delete(id int) (bool, error)
	Restore(id int) (bool, error)
	CheckReminders() ([]task.Task, error)
}

// Options configures Run.
type Options struct {
	// RefreshInterval reloads tasks and reminders periodically. Zero disables it.
	RefreshInterval time.Duration

	// Now defaults to time.Now.
	Now func() time.Time
}

type focusPane int

const (
	focusList focusPane = iota
	focusDetail
)

type statusLevel int

const (
	statusNone statusLevel = iota
	statusInfo
	statusError
)

type modalKind int

const (
	modalNone modalKind = iota
	modalHelp
	modalAdd
	modalConfirmDelete
)

type model struct {
	svc          Service
	now          func() time.Time
	refresh      time.Duration
	width        int
	height       int
	focus        focusPane
	showDeleted  bool
	taskList     list.Model
	detail       taskDetailModel
	input        textinput.Model
	modal        confirmModal
	status       string
	statusLevel  statusLevel
	selectedID   int
	reminderSeen map[int]bool
}

type confirmModal struct {
	kind        modalKind
	message     string
	confirmText string
	cancelText  string
	selected    int
	taskID      int
}

type tasksLoadedMsg struct {
	tasks     []task.Task
	reminders []task.Task
	err       error
}

type taskChangedMsg struct {
	id      int
	action  string
	changed bool
	err     error
}

type refreshTickMsg struct{}

// Run starts the TUI and blocks until the user quits.
func Run(ctx context.Context, svc Service, opts Options) error {
	if svc == nil {
		return errors.New("task service is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	program := tea.NewProgram(newModel(svc, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

func newModel(svc Service, opts Options) model {
	taskList := list.New(nil, newTaskItemDelegate(), 0, 0)
	taskList.Title = "Tasks"
	taskList.SetShowStatusBar(false)
	taskList.SetFilteringEnabled(false)
	taskList.SetShowHelp(false)
	taskList.SetShowPagination(false)

	input := textinput.New()
	input.Placeholder = "Task title"
	input.CharLimit = 200
	input.Prompt = "> "

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return model{
		svc:          svc,
		now:          now,
		refresh:      opts.RefreshInterval,
		focus:        focusList,
		taskList:     taskList,
		detail:       newTaskDetailModel(),
		input:        input,
		modal:        confirmModal{kind: modalNone},
		reminderSeen: map[int]bool{},
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.loadTasksCmd(), m.tickCmd())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil
	case tasksLoadedMsg:
		m.handleTasksLoaded(msg)
		return m, nil
	case taskChangedMsg:
		return m.handleTaskChanged(msg)
	case refreshTickMsg:
		return m, tea.Batch(m.loadTasksCmd(), m.tickCmd())
	}

	if m.modal.kind != modalNone {
		return m.updateModal(msg)
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		updated, cmd, handled := m.handleKey(key)
		if handled {
			return updated, cmd
		}
		m = updated
	}

	var cmd tea.Cmd
	if m.focus == focusDetail {
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd
	}
	m.taskList, cmd = m.taskList.Update(msg)
	m.updateSelection()
	return m, cmd
}

func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading tasks..."
	}
	contentHeight := max(m.height-3, 1)
	leftWidth, rightWidth := splitWidths(m.width)

	listPane := renderPane(m.taskList.View(), leftWidth, contentHeight, m.focus == focusList)
	detailPane := renderPane(m.detail.View(), rightWidth, contentHeight, m.focus == focusDetail)
	content := lipgloss.JoinHorizontal(lipgloss.Top, listPane, detailPane)

	view := strings.Join([]string{m.renderTitleBar(), m.renderHelpLine(), content, m.renderStatusLine()}, "\n")
	if m.modal.kind != modalNone {
		view = m.renderModalOverlay(view)
	}
	return view
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd, bool) {
	key := msg.String()
	switch key {
	case "?":
		m.modal = confirmModal{kind: modalHelp}
		return m, nil, true
	case "ctrl+c", "q":
		return m, tea.Quit, true
	case "esc":
		m.focus = focusList
		return m, nil, true
	}

	if m.focus != focusList {
		return m, nil, false
	}

	switch key {
	case "up", "k":
		return m.moveSelection(-1), nil, true
	case "down", "j":
		return m.moveSelection(1), nil, true
	case "home":
		return m.moveSelection(-len(m.taskList.Items())), nil, true
	case "end":
		return m.moveSelection(len(m.taskList.Items())), nil, true
	case "enter":
		if _, ok := m.currentItem(); ok {
			m.focus = focusDetail
		}
		return m, nil, true
	case "a":
		m.modal = confirmModal{kind: modalAdd}
		m.input.SetValue("")
		m.input.Focus()
		return m, textinput.Blink, true
	case " ", "x":
		if item, ok := m.currentItem(); ok && item.task.Pending() && !item.task.Deleted {
			return m, m.changeCmd(item.task.ID, "completed", m.svc.Complete), true
		}
		return m, nil, true
	case "d":
		if item, ok := m.currentItem(); ok && !item.task.Deleted {
			m.modal = confirmModal{
				kind:        modalConfirmDelete,
				message:     fmt.Sprintf("Delete task %d %q?", item.task.ID, item.task.Title),
				confirmText: "Delete",
				cancelText:  "Cancel",
				taskID:      item.task.ID,
			}
		}
		return m, nil, true
	case "u":
		if item, ok := m.currentItem(); ok && item.task.Deleted {
			return m, m.changeCmd(item.task.ID, "restored", m.svc.Restore), true
		}
		return m, nil, true
	case "D":
		m.showDeleted = !m.showDeleted
		return m, m.loadTasksCmd(), true
	case "r":
		m.setStatus("Refreshing...", statusNone)
		return m, m.loadTasksCmd(), true
	}
	return m, nil, false
}

func (m model) moveSelection(delta int) model {
	items := m.taskList.Items()
	if len(items) == 0 {
		return m
	}
	next := min(max(m.taskList.Index()+delta, 0), len(items)-1)
	m.taskList.Select(next)
	m.updateSelection()
	return m
}

func (m model) updateModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.modal.kind == modalAdd {
		return m.updateAddModal(msg)
	}
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if m.modal.kind == modalHelp {
		switch key.String() {
		case "?", "esc":
			m.modal = confirmModal{kind: modalNone}
		case "ctrl+c", "q":
			return m, tea.Quit
		}
		return m, nil
	}
	switch key.String() {
	case "left", "right", "tab", "shift+tab", "backtab":
		m.modal.selected = 1 - m.modal.selected
		return m, nil
	case "y":
		return m.resolveModal(true)
	case "n", "esc":
		return m.resolveModal(false)
	case "enter":
		return m.resolveModal(m.modal.selected == 0)
	}
	return m, nil
}

func (m model) updateAddModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			m.input.Blur()
			m.modal = confirmModal{kind: modalNone}
			return m, nil
		case "enter":
			title := internalstrings.NormalizeWhitespace(m.input.Value())
			m.input.Blur()
			m.modal = confirmModal{kind: modalNone}
			if title == "" {
				m.setStatus("Title cannot be empty", statusError)
				return m, nil
			}
			return m, m.addCmd(title)
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) resolveModal(confirm bool) (tea.Model, tea.Cmd) {
	modal := m.modal
	m.modal = confirmModal{kind: modalNone}
	if !confirm {
		return m, nil
	}
	if modal.kind == modalConfirmDelete {
		return m, m.changeCmd(modal.taskID, "deleted", m.svc.Delete)
	}
	return m, nil
}

func (m *model) handleTasksLoaded(msg tasksLoadedMsg) {
	if msg.err != nil {
		m.setStatus(fmt.Sprintf("Load failed: %v", msg.err), statusError)
		return
	}

	now := m.now()
	tasks := make([]task.Task, 0, len(msg.tasks))
	for _, t := range msg.tasks {
		if t.Deleted && !m.showDeleted {
			continue
		}
		tasks = append(tasks, t)
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].Status != tasks[j].Status {
			return !tasks[i].Status
		}
		return tasks[i].ID < tasks[j].ID
	})

	items := make([]list.Item, 0, len(tasks))
	for _, t := range tasks {
		overdue := t.Pending() && t.DueDate != nil && t.DueDate.Before(now)
		items = append(items, taskItem{task: t, overdue: overdue})
	}
	m.taskList.SetItems(items)
	m.selectByID(m.selectedID)

	var fresh []string
	for _, t := range msg.reminders {
		if m.reminderSeen[t.ID] {
			continue
		}
		m.reminderSeen[t.ID] = true
		fresh = append(fresh, fmt.Sprintf("%d %s", t.ID, t.Title))
	}
	switch {
	case len(fresh) > 0:
		m.setStatus("Reminder: "+strings.Join(fresh, "; "), statusInfo)
	case m.status == "Refreshing...":
		m.setStatus(fmt.Sprintf("Loaded %d tasks", len(items)), statusInfo)
	}
}

func (m model) handleTaskChanged(msg taskChangedMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.err != nil:
		m.setStatus(fmt.Sprintf("Task %d: %v", msg.id, msg.err), statusError)
		return m, nil
	case !msg.changed:
		m.setStatus(fmt.Sprintf("Task %d was not %s", msg.id, msg.action), statusError)
	default:
		m.setStatus(fmt.Sprintf("Task %d %s", msg.id, msg.action), statusInfo)
		if msg.action == "added" {
			m.selectedID = msg.id
		}
	}
	return m, m.loadTasksCmd()
}

func (m *model) updateSelection() {
	item, ok := m.currentItem()
	if !ok {
		m.selectedID = 0
		m.detail.Clear()
		return
	}
	m.selectedID = item.task.ID
	m.detail.SetTask(item.task, m.now())
}

func (m *model) selectByID(id int) {
	for i, item := range m.taskList.Items() {
		if current, ok := item.(taskItem); ok && current.task.ID == id {
			m.taskList.Select(i)
			m.updateSelection()
			return
		}
	}
	if len(m.taskList.Items()) > 0 {
		m.taskList.Select(0)
	}
	m.updateSelection()
}

func (m model) currentItem() (taskItem, bool) {
	item := m.taskList.SelectedItem()
	if item == nil {
		return taskItem{}, false
	}
	current, ok := item.(taskItem)
	return current, ok
}

func (m *model) resize() {
	contentHeight := max(m.height-3, 1)
	leftWidth, rightWidth := splitWidths(m.width)
	m.taskList.SetSize(max(leftWidth-4, 1), max(contentHeight-2, 1))
	m.detail.SetSize(max(rightWidth-4, 1), max(contentHeight-2, 1))
	m.input.Width = max(m.width/2, 20)
}

func splitWidths(width int) (int, int) {
	left := width / 2
	if left < 30 {
		left = 30
	}
	if left > width-20 {
		left = width / 2
	}
	right := width - left
	if right < 20 {
		right = 20
		left = width - right
	}
	return left, right
}

func (m model) renderTitleBar() string {
	title := " tk"
	if m.showDeleted {
		title += " (showing deleted)"
	}
	hint := valueMuted.Render("Press ? for help ")
	spacerWidth := max(m.width-lipgloss.Width(title)-lipgloss.Width(hint), 1)
	return titleBarStyle.Width(m.width).Render(title + strings.Repeat(" ", spacerWidth) + hint)
}

func renderPane(content string, width, height int, focused bool) string {
	style := paneStyle
	if focused {
		style = paneActiveStyle
	}
	return style.Width(max(width, 0)).Height(max(height, 0)).Render(content)
}

func (m model) renderStatusLine() string {
	if internalstrings.IsBlank(m.status) {
		return ""
	}
	style := valueMuted
	switch m.statusLevel {
	case statusError:
		style = statusErrorStyle
	case statusInfo:
		style = statusSuccessStyle
	}
	return style.Render(truncateText(m.status, m.width))
}

func (m model) renderHelpLine() string {
	text := "Keys: up/down move | enter detail | a add | x complete | d delete | r refresh | ? help | q quit"
	if m.focus == focusDetail {
		text = "Keys: up/down/pgup/pgdown scroll | esc back | ? help | q quit"
	}
	return helpBarStyle.Width(m.width).Render(truncateText(text, m.width))
}

func (m *model) setStatus(text string, level statusLevel) {
	m.status = text
	m.statusLevel = level
}

func (m model) renderModalOverlay(content string) string {
	if m.modal.kind == modalNone {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.modalView())
}

func (m model) modalView() string {
	switch m.modal.kind {
	case modalHelp:
		return modalStyle.Render(helpContent())
	case modalAdd:
		content := strings.Join([]string{labelStyle.Render("New task"), "", m.input.View(), "", valueMuted.Render("enter to add, esc to cancel")}, "\n")
		return modalStyle.Render(content)
	}
	buttons := make([]string, 0, 2)
	for i, option := range []string{m.modal.confirmText, m.modal.cancelText} {
		style := valueMuted
		if i == m.modal.selected {
			style = selectedButton
		}
		buttons = append(buttons, style.Render("["+option+"]"))
	}
	content := strings.Join([]string{m.modal.message, "", strings.Join(buttons, " ")}, "\n")
	return modalStyle.Render(content)
}

func helpContent() string {
	sections := []string{
		labelStyle.Render("Global"),
		"q or ctrl+c: quit",
		"?: toggle help",
		"",
		labelStyle.Render("Navigation"),
		"up/down or j/k: move selection",
		"enter: focus detail pane",
		"esc: return to list",
		"",
		labelStyle.Render("Tasks"),
		"a: add task",
		"x or space: complete task",
		"d: delete task",
		"u: restore deleted task",
		"D: show or hide deleted tasks",
		"r: refresh",
		"",
		labelStyle.Render("Help"),
		"press ? or esc to close",
	}
	return strings.Join(sections, "\n")
}

func (m model) loadTasksCmd() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		tasks, err := svc.List()
		if err != nil {
			return tasksLoadedMsg{err: err}
		}
		reminders, err := svc.CheckReminders()
		return tasksLoadedMsg{tasks: tasks, reminders: reminders, err: err}
	}
}

func (m model) addCmd(title string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		id, err := svc.Add(title, task.AddOptions{})
		return taskChangedMsg{id: id, action: "added", changed: err == nil, err: err}
	}
}

func (m model) changeCmd(id int, action string, fn func(int) (bool, error)) tea.Cmd {
	return func() tea.Msg {
		changed, err := fn(id)
		return taskChangedMsg{id: id, action: action, changed: changed, err: err}
	}
}

func (m model) tickCmd() tea.Cmd {
	if m.refresh <= 0 {
		return nil
	}
	return tea.Tick(m.refresh, func(time.Time) tea.Msg {
		return refreshTickMsg{}
	})
}

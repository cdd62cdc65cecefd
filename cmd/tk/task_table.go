package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/amonks/tasks/internal/markdown"
	"github.com/amonks/tasks/internal/ui"
	"github.com/amonks/tasks/task"
)

const taskDetailLineWidth = 80

// printTaskTable prints tasks in a table format.
func printTaskTable(tasks []task.Task, now time.Time) {
	if len(tasks) == 0 {
		fmt.Println("No tasks found.")
		return
	}

	fmt.Print(formatTaskTable(tasks, ui.HighlightID, now))
}

func formatTaskTable(tasks []task.Task, highlight func(int) string, now time.Time) string {
	builder := ui.NewTableBuilder([]string{"ID", "PRI", "STATUS", "DUE", "TAGS", "AGE", "TITLE"}, len(tasks))

	for _, t := range tasks {
		builder.AddRow(
			highlight(t.ID),
			ui.FormatPriority(t.Priority),
			ui.FormatStatus(t),
			formatTaskDue(t, now),
			ui.TruncateTableCell(strings.Join(t.Tags, ",")),
			ui.FormatTimeAgo(t.CreatedAt, now),
			ui.TruncateTableCell(t.Title),
		)
	}

	return builder.String()
}

func formatTaskDue(t task.Task, now time.Time) string {
	if t.DueDate == nil {
		return "-"
	}
	due := ui.FormatDate(t.DueDate)
	if t.Pending() && t.DueDate.Before(now) {
		return ui.FormatOverdue(due)
	}
	return due
}

// printTaskDetail prints detailed information about a task.
func printTaskDetail(t task.Task, now time.Time) {
	fmt.Print(formatTaskDetail(t, ui.HighlightID, now))
}

func formatTaskDetail(t task.Task, highlight func(int) string, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ID:        %s\n", highlight(t.ID))
	fmt.Fprintf(&b, "Title:     %s\n", t.Title)
	fmt.Fprintf(&b, "Status:    %s\n", ui.FormatStatus(t))
	fmt.Fprintf(&b, "Priority:  %s\n", ui.FormatPriority(t.Priority))
	fmt.Fprintf(&b, "Created:   %s\n", t.CreatedAt.Local().Format("2006-01-02 15:04:05"))

	if len(t.Tags) > 0 {
		fmt.Fprintf(&b, "Tags:      %s\n", strings.Join(t.Tags, ", "))
	}
	if t.DueDate != nil {
		fmt.Fprintf(&b, "Due:       %s (%s)\n", formatTaskDue(t, now), ui.FormatDue(t.DueDate, now))
	}
	if t.Reminder != nil {
		fmt.Fprintf(&b, "Reminder:  %s\n", ui.FormatDate(t.Reminder))
	}
	if t.Recurring != nil {
		fmt.Fprintf(&b, "Repeats:   %s\n", formatRecurring(t.Recurring))
	}

	if t.Description != "" {
		fmt.Fprintf(&b, "\nDescription:\n%s\n", formatTaskDescription(t.Description))
	}
	return b.String()
}

func formatRecurring(r *task.Recurring) string {
	text := string(r.Interval)
	if r.Count != nil {
		text += " (" + strconv.Itoa(*r.Count) + " left)"
	}
	if r.NextDueDate != nil {
		text += ", next " + ui.FormatDate(r.NextDueDate)
	}
	return text
}

func formatTaskDescription(value string) string {
	formatted := markdown.Render(taskDetailLineWidth, 2, value)
	if strings.TrimSpace(formatted) == "" {
		return "-"
	}
	return formatted
}

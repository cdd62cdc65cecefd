package ui

import (
	"os"
	"strconv"

	"github.com/amonks/tasks/task"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	idStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	highStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	mediumStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	lowStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	doneStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	overdueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	deletedStyle  = lipgloss.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("8"))
	headingStyle  = lipgloss.NewStyle().Bold(true)
	ansiEnabledFn = ansiEnabled
)

func ansiEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func render(style lipgloss.Style, value string) string {
	if !ansiEnabledFn() {
		return value
	}
	return style.Render(value)
}

// HighlightID renders a task ID for terminal output.
func HighlightID(id int) string {
	return render(idStyle, strconv.Itoa(id))
}

// FormatPriority renders a priority, coloured by importance.
func FormatPriority(p task.Priority) string {
	switch p {
	case task.PriorityHigh:
		return render(highStyle, string(p))
	case task.PriorityLow:
		return render(lowStyle, string(p))
	default:
		return render(mediumStyle, string(p))
	}
}

// FormatStatus renders the state of a task as a short word.
func FormatStatus(t task.Task) string {
	switch {
	case t.Deleted:
		return render(deletedStyle, "deleted")
	case t.Status:
		return render(doneStyle, "done")
	default:
		return "pending"
	}
}

// FormatOverdue renders text in the overdue colour.
func FormatOverdue(value string) string {
	return render(overdueStyle, value)
}

// Heading renders a bold label.
func Heading(value string) string {
	return render(headingStyle, value)
}

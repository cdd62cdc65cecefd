// Package chat maps free-text messages and MCP tool calls onto task
// operations.
package chat

import (
	"regexp"
	"strings"
)

// Intent is the operation a message asks for.
type Intent string

const (
	IntentAdd       Intent = "add"
	IntentUpdate    Intent = "update"
	IntentComplete  Intent = "complete"
	IntentDelete    Intent = "delete"
	IntentRestore   Intent = "restore"
	IntentSearch    Intent = "search"
	IntentList      Intent = "list"
	IntentReminders Intent = "reminders"
	IntentHelp      Intent = "help"
	IntentUnknown   Intent = "unknown"
)

type intentRule struct {
	intent   Intent
	keywords []string
}

// Rules are checked in order; the first rule with a matching keyword wins.
// Phrases are matched on word boundaries.
var intentRules = []intentRule{
	{IntentHelp, []string{"help", "what can you do"}},
	{IntentAdd, []string{"add", "create", "new task", "remind me to", "remember to"}},
	{IntentRestore, []string{"restore", "undelete", "recover", "bring back"}},
	{IntentComplete, []string{"complete", "done", "finish", "mark"}},
	{IntentDelete, []string{"delete", "remove", "drop", "cancel"}},
	{IntentUpdate, []string{"update", "change", "rename", "set", "reschedule", "edit"}},
	{IntentReminders, []string{"reminder", "reminders", "remind", "overdue"}},
	{IntentSearch, []string{"search", "find", "look for", "tagged"}},
	{IntentList, []string{"list", "show", "tasks", "todo", "todos", "pending"}},
}

var nonWord = regexp.MustCompile(`[^a-z0-9#]+`)

// Classify returns the intent of a message using keyword rules.
func Classify(message string) Intent {
	normalized := " " + strings.TrimSpace(nonWord.ReplaceAllString(strings.ToLower(message), " ")) + " "
	if strings.TrimSpace(normalized) == "" {
		return IntentUnknown
	}
	for _, rule := range intentRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(normalized, " "+keyword+" ") {
				return rule.intent
			}
		}
	}
	return IntentUnknown
}

package chat

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	internalstrings "github.com/amonks/tasks/internal/strings"
	"github.com/amonks/tasks/task"
)

var (
	datePattern     = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}(?:[T ]\d{2}:\d{2}(?::\d{2})?)?\b`)
	idPattern       = regexp.MustCompile(`(?:^|[\s#])(\d+)\b`)
	tagPattern      = regexp.MustCompile(`#([A-Za-z][\w-]*)`)
	quotedPattern   = regexp.MustCompile(`"([^"]+)"|'([^']+)'`)
	renamePattern   = regexp.MustCompile(`(?i)\b(?:rename|title)\b.*?\bto\s+(.+)$`)
	duePattern      = regexp.MustCompile(`(?i)\b(?:due|by|on)\s+(today|tomorrow|\d{4}-\d{2}-\d{2}(?:[T ]\d{2}:\d{2}(?::\d{2})?)?)\b`)
	relativePattern = regexp.MustCompile(`(?i)\b(today|tomorrow)\b`)
)

var priorityPhrases = []struct {
	pattern  *regexp.Regexp
	priority task.Priority
}{
	{regexp.MustCompile(`(?i)\b(?:high priority|priority high|priority\b[\w\s]*?\bto high|urgent|important|asap)\b`), task.PriorityHigh},
	{regexp.MustCompile(`(?i)\b(?:low priority|priority low|priority\b[\w\s]*?\bto low|someday|whenever)\b`), task.PriorityLow},
	{regexp.MustCompile(`(?i)\b(?:medium priority|priority medium|priority\b[\w\s]*?\bto medium|normal priority)\b`), task.PriorityMedium},
}

var intervalPhrases = []struct {
	pattern  *regexp.Regexp
	interval task.Interval
}{
	{regexp.MustCompile(`(?i)\b(?:daily|every ?day)\b`), task.IntervalDaily},
	{regexp.MustCompile(`(?i)\b(?:weekly|every ?week)\b`), task.IntervalWeekly},
	{regexp.MustCompile(`(?i)\b(?:monthly|every ?month)\b`), task.IntervalMonthly},
}

var commandPrefixes = regexp.MustCompile(`(?i)^\s*(?:please\s+)?(?:add|create|new task|remind me to|remember to)\b\s*(?:a\s+)?(?:new\s+)?(?:task\b)?\s*(?:to\b|:)?\s*`)

var searchPrefixes = regexp.MustCompile(`(?i)^.*?\b(?:search(?:\s+for)?|find|look\s+for)\b\s*(?:tasks?\b)?\s*(?:about|with|for|containing)?\s*`)

// extracted holds the arguments found in a message.
type extracted struct {
	id       int
	hasID    bool
	title    string
	keyword  string
	tags     []string
	priority task.Priority
	interval task.Interval
	dueDate  string
}

func extract(message string, now time.Time) extracted {
	var ex extracted

	for _, m := range tagPattern.FindAllStringSubmatch(message, -1) {
		ex.tags = append(ex.tags, m[1])
	}
	for _, p := range priorityPhrases {
		if p.pattern.MatchString(message) {
			ex.priority = p.priority
			break
		}
	}
	for _, p := range intervalPhrases {
		if p.pattern.MatchString(message) {
			ex.interval = p.interval
			break
		}
	}
	if m := duePattern.FindStringSubmatch(message); m != nil {
		ex.dueDate = resolveDate(m[1], now)
	} else if m := datePattern.FindString(message); m != "" {
		ex.dueDate = m
	} else if m := relativePattern.FindString(message); m != "" {
		ex.dueDate = resolveDate(m, now)
	}

	bare := datePattern.ReplaceAllString(quotedPattern.ReplaceAllString(message, " "), " ")
	if m := idPattern.FindStringSubmatch(bare); m != nil {
		if id, err := strconv.Atoi(m[1]); err == nil {
			ex.id = id
			ex.hasID = true
		}
	}

	ex.title = cleanTitle(message)
	ex.keyword = cleanKeyword(message)
	return ex
}

func resolveDate(value string, now time.Time) string {
	switch strings.ToLower(value) {
	case "today":
		return now.Format("2006-01-02")
	case "tomorrow":
		return now.AddDate(0, 0, 1).Format("2006-01-02")
	default:
		return value
	}
}

// cleanTitle strips the command phrase and every recognised argument,
// leaving the task title. A quoted string wins when present.
func cleanTitle(message string) string {
	if m := quotedPattern.FindStringSubmatch(message); m != nil {
		return strings.TrimSpace(m[1] + m[2])
	}
	s := commandPrefixes.ReplaceAllString(message, "")
	s = stripArguments(s)
	return tidy(s)
}

func cleanKeyword(message string) string {
	if m := quotedPattern.FindStringSubmatch(message); m != nil {
		return strings.TrimSpace(m[1] + m[2])
	}
	if !searchPrefixes.MatchString(message) {
		return ""
	}
	s := searchPrefixes.ReplaceAllString(message, "")
	s = stripArguments(s)
	return tidy(s)
}

func stripArguments(s string) string {
	s = tagPattern.ReplaceAllString(s, " ")
	s = duePattern.ReplaceAllString(s, " ")
	s = datePattern.ReplaceAllString(s, " ")
	s = relativePattern.ReplaceAllString(s, " ")
	for _, p := range priorityPhrases {
		s = p.pattern.ReplaceAllString(s, " ")
	}
	for _, p := range intervalPhrases {
		s = p.pattern.ReplaceAllString(s, " ")
	}
	return s
}

func tidy(s string) string {
	return strings.Trim(internalstrings.NormalizeWhitespace(s), " .,!?:;-")
}

// renameTarget returns the new title in "rename task 3 to X".
func renameTarget(message string) (string, bool) {
	m := renamePattern.FindStringSubmatch(message)
	if m == nil {
		return "", false
	}
	title := tidy(m[1])
	return title, title != ""
}

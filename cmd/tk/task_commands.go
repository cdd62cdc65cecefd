package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	internalstrings "github.com/amonks/tasks/internal/strings"
	"github.com/amonks/tasks/internal/ui"
	"github.com/amonks/tasks/task"
	"github.com/spf13/cobra"
)

// add
var addCmd = &cobra.Command{
	Use:   "add <title>...",
	Short: "Add a task",
	Long: `Add a task. The title is the remaining arguments joined by spaces.

Dates are ISO-8601: YYYY-MM-DD or YYYY-MM-DDTHH:MM:SS.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

var (
	addDescription string
	addPriority    string
	addTags        string
	addDue         string
	addReminder    string
	addRecurring   string
	addCount       int
	addJSON        bool
)

// update
var updateCmd = &cobra.Command{
	Use:     "update <id>",
	Short:   "Update a task",
	Aliases: []string{"edit"},
	Args:    cobra.ExactArgs(1),
	RunE:    runUpdate,
}

var (
	updateTitle          string
	updateDescription    string
	updatePriority       string
	updateTags           string
	updateDue            string
	updateReminder       string
	updateRecurring      string
	updateCount          int
	updateClearDue       bool
	updateClearReminder  bool
	updateClearRecurring bool
)

// done
var doneCmd = &cobra.Command{
	Use:     "done <id>...",
	Short:   "Mark tasks as completed",
	Long:    "Mark tasks as completed. Completing a recurring task schedules its next occurrence.",
	Aliases: []string{"complete"},
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTransition(args, "Completed", app.svc.Complete)
	},
}

// delete
var deleteCmd = &cobra.Command{
	Use:     "delete <id>...",
	Short:   "Soft-delete tasks",
	Aliases: []string{"rm"},
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTransition(args, "Deleted", app.svc.Delete)
	},
}

// restore
var restoreCmd = &cobra.Command{
	Use:   "restore <id>...",
	Short: "Restore deleted tasks",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTransition(args, "Restored", app.svc.Restore)
	},
}

// schedule
var scheduleCmd = &cobra.Command{
	Use:   "schedule <id>",
	Short: "Create the next occurrence of a recurring task",
	Args:  cobra.ExactArgs(1),
	RunE:  runSchedule,
}

// show
var showCmd = &cobra.Command{
	Use:   "show <id>...",
	Short: "Show detailed information about tasks",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runShow,
}

var showJSON bool

// list
var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List tasks",
	Aliases: []string{"ls"},
	Args:    cobra.NoArgs,
	RunE:    runList,
}

var (
	listAll     bool
	listDeleted bool
	listJSON    bool
)

// search
var searchCmd = &cobra.Command{
	Use:   "search [keyword]",
	Short: "Search tasks",
	Long: `Search non-deleted tasks. The keyword matches titles and descriptions,
case-insensitively. Filters combine with AND.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

var (
	searchStatus   string
	searchPriority string
	searchTags     string
	searchSort     string
	searchJSON     bool
)

func init() {
	rootCmd.AddCommand(addCmd, updateCmd, doneCmd, deleteCmd, restoreCmd, scheduleCmd, showCmd, listCmd, searchCmd)
	addTaskFlagAliases(addCmd, updateCmd, searchCmd)

	// add flags
	addCmd.Flags().StringVarP(&addDescription, "description", "d", "", "Description (use '-' to read from stdin)")
	addCmd.Flags().StringVarP(&addPriority, "priority", "p", "", "Priority (high, medium, low)")
	addCmd.Flags().StringVarP(&addTags, "tags", "t", "", "Comma-separated tags")
	addCmd.Flags().StringVar(&addDue, "due", "", "Due date")
	addCmd.Flags().StringVar(&addReminder, "reminder", "", "Reminder time")
	addCmd.Flags().StringVar(&addRecurring, "recurring", "", "Repeat interval (daily, weekly, monthly)")
	addCmd.Flags().IntVar(&addCount, "count", 0, "Occurrences left to generate (0 means unlimited)")
	addCmd.Flags().BoolVar(&addJSON, "json", false, "Output the created task as JSON")

	// update flags
	updateCmd.Flags().StringVar(&updateTitle, "title", "", "New title")
	updateCmd.Flags().StringVarP(&updateDescription, "description", "d", "", "New description (use '-' to read from stdin)")
	updateCmd.Flags().StringVarP(&updatePriority, "priority", "p", "", "New priority (high, medium, low)")
	updateCmd.Flags().StringVarP(&updateTags, "tags", "t", "", "Replace tags (comma-separated, empty to clear)")
	updateCmd.Flags().StringVar(&updateDue, "due", "", "New due date")
	updateCmd.Flags().StringVar(&updateReminder, "reminder", "", "New reminder time")
	updateCmd.Flags().StringVar(&updateRecurring, "recurring", "", "New repeat interval (daily, weekly, monthly)")
	updateCmd.Flags().IntVar(&updateCount, "count", 0, "Occurrences left, with --recurring (0 means unlimited)")
	updateCmd.Flags().BoolVar(&updateClearDue, "clear-due", false, "Remove the due date")
	updateCmd.Flags().BoolVar(&updateClearReminder, "clear-reminder", false, "Remove the reminder")
	updateCmd.Flags().BoolVar(&updateClearRecurring, "clear-recurring", false, "Stop the task from repeating")
	updateCmd.MarkFlagsMutuallyExclusive("due", "clear-due")
	updateCmd.MarkFlagsMutuallyExclusive("reminder", "clear-reminder")
	updateCmd.MarkFlagsMutuallyExclusive("recurring", "clear-recurring")

	// show flags
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Output as JSON")

	// list flags
	listCmd.Flags().BoolVarP(&listAll, "all", "a", false, "Include completed tasks")
	listCmd.Flags().BoolVar(&listDeleted, "deleted", false, "Include deleted tasks")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output as JSON")

	// search flags
	searchCmd.Flags().StringVar(&searchStatus, "status", "", "Filter by status (pending, done)")
	searchCmd.Flags().StringVarP(&searchPriority, "priority", "p", "", "Filter by priority")
	searchCmd.Flags().StringVarP(&searchTags, "tags", "t", "", "Require all of these comma-separated tags")
	searchCmd.Flags().StringVar(&searchSort, "sort", "", "Sort by priority, due_date, title, created_at, status, or reminder")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Output as JSON")
}

func runAdd(cmd *cobra.Command, args []string) error {
	description, err := resolveDescriptionFromStdin(addDescription, os.Stdin)
	if err != nil {
		return err
	}
	recurring, err := recurringFromFlags(addRecurring, addCount)
	if err != nil {
		return err
	}

	id, err := app.svc.Add(strings.Join(args, " "), task.AddOptions{
		Description: description,
		Priority:    task.Priority(addPriority),
		Tags:        internalstrings.SplitList(addTags),
		DueDate:     addDue,
		Recurring:   recurring,
		Reminder:    addReminder,
	})
	if err != nil {
		return err
	}

	created, err := app.svc.Get(id)
	if err != nil {
		return err
	}
	if addJSON {
		return encodeJSONToStdout(created)
	}
	fmt.Printf("Created task %s: %s\n", ui.HighlightID(created.ID), created.Title)
	return nil
}

func runUpdate(cmd *cobra.Command, args []string) error {
	id, err := parseTaskID(args[0])
	if err != nil {
		return err
	}

	var opts task.UpdateOptions
	flags := cmd.Flags()
	if flags.Changed("title") {
		opts.Title = &updateTitle
	}
	if flags.Changed("description") {
		description, err := resolveDescriptionFromStdin(updateDescription, os.Stdin)
		if err != nil {
			return err
		}
		opts.Description = &description
	}
	if flags.Changed("priority") {
		priority := task.Priority(updatePriority)
		opts.Priority = &priority
	}
	if flags.Changed("tags") {
		tags := internalstrings.SplitList(updateTags)
		if tags == nil {
			tags = []string{}
		}
		opts.Tags = &tags
	}
	switch {
	case updateClearDue:
		opts.DueDate = task.Clear[string]()
	case flags.Changed("due"):
		opts.DueDate = task.Set(updateDue)
	}
	switch {
	case updateClearReminder:
		opts.Reminder = task.Clear[string]()
	case flags.Changed("reminder"):
		opts.Reminder = task.Set(updateReminder)
	}
	switch {
	case updateClearRecurring:
		opts.Recurring = task.Clear[task.Recurring]()
	case flags.Changed("recurring"):
		recurring, err := recurringFromFlags(updateRecurring, updateCount)
		if err != nil {
			return err
		}
		opts.Recurring = task.Set(*recurring)
	}

	updated, err := app.svc.Update(id, opts)
	if err != nil {
		return err
	}
	if !updated {
		return fmt.Errorf("task %d not found", id)
	}
	fmt.Printf("Updated task %s\n", ui.HighlightID(id))
	return nil
}

func runTransition(args []string, verb string, op func(int) (bool, error)) error {
	ids, err := parseTaskIDs(args)
	if err != nil {
		return err
	}
	var failed []string
	for _, id := range ids {
		ok, err := op(id)
		if err != nil {
			return err
		}
		if !ok {
			failed = append(failed, strconv.Itoa(id))
			continue
		}
		fmt.Printf("%s task %s\n", verb, ui.HighlightID(id))
	}
	if len(failed) > 0 {
		return fmt.Errorf("%s: no change for task %s", strings.ToLower(verb), strings.Join(failed, ", "))
	}
	return nil
}

func runSchedule(cmd *cobra.Command, args []string) error {
	id, err := parseTaskID(args[0])
	if err != nil {
		return err
	}
	before, err := app.svc.List()
	if err != nil {
		return err
	}
	scheduled, err := app.svc.ScheduleNextOccurrence(id)
	if err != nil {
		return err
	}
	if !scheduled {
		return fmt.Errorf("task %d does not exist or has no occurrences left", id)
	}
	after, err := app.svc.List()
	if err != nil {
		return err
	}
	if next, ok := newestTask(before, after); ok {
		fmt.Printf("Scheduled task %s: %s due %s\n", ui.HighlightID(next.ID), next.Title, ui.FormatDate(next.DueDate))
		return nil
	}
	fmt.Printf("Scheduled next occurrence of task %s\n", ui.HighlightID(id))
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	ids, err := parseTaskIDs(args)
	if err != nil {
		return err
	}
	tasks := make([]task.Task, 0, len(ids))
	for _, id := range ids {
		t, err := app.svc.Get(id)
		if err != nil {
			return fmt.Errorf("task %d: %w", id, err)
		}
		tasks = append(tasks, t)
	}

	if showJSON {
		return encodeJSONToStdout(tasks)
	}
	now := time.Now()
	for i, t := range tasks {
		if i > 0 {
			fmt.Println("---")
		}
		printTaskDetail(t, now)
	}
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	tasks, err := app.svc.List()
	if err != nil {
		return err
	}
	filtered := tasks[:0]
	for _, t := range tasks {
		if t.Deleted && !listDeleted {
			continue
		}
		if t.Status && !listAll && !listDeleted {
			continue
		}
		filtered = append(filtered, t)
	}

	if listJSON {
		return encodeJSONToStdout(filtered)
	}
	printTaskTable(filtered, time.Now())
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	opts := task.SearchOptions{
		Priority: task.Priority(searchPriority),
		Tags:     internalstrings.SplitList(searchTags),
		SortBy:   task.SortKey(searchSort),
	}
	if len(args) > 0 {
		opts.Keyword = args[0]
	}
	if searchStatus != "" {
		status, err := parseStatus(searchStatus)
		if err != nil {
			return err
		}
		opts.Status = &status
	}

	tasks, err := app.svc.Search(opts)
	if err != nil {
		return err
	}
	if searchJSON {
		return encodeJSONToStdout(tasks)
	}
	printTaskTable(tasks, time.Now())
	return nil
}

func recurringFromFlags(interval string, count int) (*task.Recurring, error) {
	if interval == "" {
		if count != 0 {
			return nil, fmt.Errorf("--count requires --recurring")
		}
		return nil, nil
	}
	r := &task.Recurring{Interval: task.Interval(internalstrings.NormalizeLowerTrimSpace(interval))}
	if count != 0 {
		r.Count = &count
	}
	return r, nil
}

func parseStatus(value string) (bool, error) {
	switch internalstrings.NormalizeLowerTrimSpace(value) {
	case "done", "completed", "true":
		return true, nil
	case "pending", "open", "false":
		return false, nil
	default:
		return false, fmt.Errorf("invalid status %q (must be pending or done)", value)
	}
}

func parseTaskID(value string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", task.ErrInvalidID, value)
	}
	return id, nil
}

func parseTaskIDs(args []string) ([]int, error) {
	ids := make([]int, 0, len(args))
	for _, arg := range args {
		id, err := parseTaskID(arg)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// newestTask returns the task present in after but not in before.
func newestTask(before, after []task.Task) (task.Task, bool) {
	seen := make(map[int]bool, len(before))
	for _, t := range before {
		seen[t.ID] = true
	}
	for _, t := range after {
		if !seen[t.ID] {
			return t, true
		}
	}
	return task.Task{}, false
}

func resolveDescriptionFromStdin(description string, reader io.Reader) (string, error) {
	if description != "-" {
		return description, nil
	}

	input, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read description from stdin: %w", err)
	}

	return internalstrings.TrimTrailingNewlines(string(input)), nil
}

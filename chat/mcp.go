package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	internalstrings "github.com/amonks/tasks/internal/strings"
	"github.com/amonks/tasks/task"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer exposes the task operations and the chat bot as MCP tools.
func NewMCPServer(svc *task.Service, bot *Bot, version string) *server.MCPServer {
	s := server.NewMCPServer("tasks", version)

	s.AddTool(mcp.NewTool("add_task",
		mcp.WithDescription("Create a new pending task. Returns the new task."),
		mcp.WithString("title", mcp.Description("Task title"), mcp.Required()),
		mcp.WithString("description", mcp.Description("Task description (max 1000 chars)")),
		mcp.WithString("priority", mcp.Description("Priority (high|medium|low, default medium)")),
		mcp.WithString("tags", mcp.Description("Comma-separated tags")),
		mcp.WithString("due_date", mcp.Description("Due date (ISO-8601 date or datetime)")),
		mcp.WithString("reminder", mcp.Description("Reminder time (ISO-8601 date or datetime)")),
		mcp.WithString("recurring", mcp.Description("Repeat interval (daily|weekly|monthly)")),
		mcp.WithNumber("count", mcp.Description("Number of occurrences to generate (omit for unlimited)")),
	), addTaskHandler(svc))

	s.AddTool(mcp.NewTool("update_task",
		mcp.WithDescription("Update fields of an existing task. Pass null or an empty string to clear due_date, reminder, or recurring."),
		mcp.WithNumber("id", mcp.Description("Task ID"), mcp.Required()),
		mcp.WithString("title", mcp.Description("New title")),
		mcp.WithString("description", mcp.Description("New description")),
		mcp.WithString("priority", mcp.Description("New priority (high|medium|low)")),
		mcp.WithString("tags", mcp.Description("Comma-separated tags, replacing the current ones")),
		mcp.WithString("due_date", mcp.Description("New due date")),
		mcp.WithString("reminder", mcp.Description("New reminder time")),
		mcp.WithString("recurring", mcp.Description("New repeat interval (daily|weekly|monthly)")),
		mcp.WithNumber("count", mcp.Description("Occurrences to generate, used with recurring")),
	), updateTaskHandler(svc))

	s.AddTool(mcp.NewTool("complete_task",
		mcp.WithDescription("Mark a task as completed. Recurring tasks schedule their next occurrence."),
		mcp.WithNumber("id", mcp.Description("Task ID"), mcp.Required()),
	), idHandler(svc.Complete, "completed"))

	s.AddTool(mcp.NewTool("delete_task",
		mcp.WithDescription("Soft-delete a task. Deleted tasks can be restored."),
		mcp.WithNumber("id", mcp.Description("Task ID"), mcp.Required()),
	), idHandler(svc.Delete, "deleted"))

	s.AddTool(mcp.NewTool("restore_task",
		mcp.WithDescription("Restore a deleted task."),
		mcp.WithNumber("id", mcp.Description("Task ID"), mcp.Required()),
	), idHandler(svc.Restore, "restored"))

	s.AddTool(mcp.NewTool("list_tasks",
		mcp.WithDescription("List all tasks that are not deleted."),
	), listTasksHandler(svc))

	s.AddTool(mcp.NewTool("search_tasks",
		mcp.WithDescription("Search tasks by keyword, status, priority, and tags."),
		mcp.WithString("keyword", mcp.Description("Case-insensitive text to find in title or description")),
		mcp.WithBoolean("status", mcp.Description("true for completed, false for pending")),
		mcp.WithString("priority", mcp.Description("Priority filter (high|medium|low)")),
		mcp.WithString("tags", mcp.Description("Comma-separated tags; tasks must carry all of them")),
		mcp.WithString("sort_by", mcp.Description("Sort key (priority|due_date|title|created_at|status|reminder)")),
	), searchTasksHandler(svc))

	s.AddTool(mcp.NewTool("check_reminders",
		mcp.WithDescription("List tasks whose reminder time has passed."),
	), checkRemindersHandler(svc))

	s.AddTool(mcp.NewTool("chat",
		mcp.WithDescription("Send a natural-language message such as \"add buy milk due tomorrow\"."),
		mcp.WithString("message", mcp.Description("Message text"), mcp.Required()),
	), chatHandler(bot))

	return s
}

// Serve runs the MCP server on stdio.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func addTaskHandler(svc *task.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		opts := task.AddOptions{
			Description: mcp.ParseString(request, "description", ""),
			Priority:    task.Priority(mcp.ParseString(request, "priority", "")),
			Tags:        internalstrings.SplitList(mcp.ParseString(request, "tags", "")),
			DueDate:     mcp.ParseString(request, "due_date", ""),
			Reminder:    mcp.ParseString(request, "reminder", ""),
		}
		args, _ := request.Params.Arguments.(map[string]any)
		rec, err := parseRecurring(request, args)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		opts.Recurring = rec

		id, err := svc.Add(mcp.ParseString(request, "title", ""), opts)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return taskResult(svc, id)
	}
}

func updateTaskHandler(svc *task.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := mcp.ParseInt(request, "id", 0)
		args, _ := request.Params.Arguments.(map[string]any)

		var opts task.UpdateOptions
		if title, ok := args["title"].(string); ok {
			opts.Title = &title
		}
		if description, ok := args["description"].(string); ok {
			opts.Description = &description
		}
		if priority, ok := args["priority"].(string); ok {
			p := task.Priority(priority)
			opts.Priority = &p
		}
		if tags, ok := args["tags"].(string); ok {
			split := internalstrings.SplitList(tags)
			opts.Tags = &split
		}
		opts.DueDate = stringField(args, "due_date")
		opts.Reminder = stringField(args, "reminder")
		if v, present := args["recurring"]; present {
			if s, _ := v.(string); strings.TrimSpace(s) == "" {
				opts.Recurring = task.Clear[task.Recurring]()
			} else {
				rec, err := parseRecurring(request, args)
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				opts.Recurring = task.Set(*rec)
			}
		}

		ok, err := svc.Update(id, opts)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("task %d not found", id)), nil
		}
		return taskResult(svc, id)
	}
}

func idHandler(op func(int) (bool, error), verb string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := mcp.ParseInt(request, "id", 0)
		ok, err := op(id)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("task %d was not %s", id, verb)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Task %d %s", id, verb)), nil
	}
}

func listTasksHandler(svc *task.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tasks, err := svc.List()
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return tasksResult(tasks)
	}
}

func searchTasksHandler(svc *task.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := request.Params.Arguments.(map[string]any)
		opts := task.SearchOptions{
			Keyword:  mcp.ParseString(request, "keyword", ""),
			Priority: task.Priority(mcp.ParseString(request, "priority", "")),
			Tags:     internalstrings.SplitList(mcp.ParseString(request, "tags", "")),
			SortBy:   task.SortKey(mcp.ParseString(request, "sort_by", "")),
		}
		if _, ok := args["status"]; ok {
			status := mcp.ParseBoolean(request, "status", false)
			opts.Status = &status
		}
		tasks, err := svc.Search(opts)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return tasksResult(tasks)
	}
}

func checkRemindersHandler(svc *task.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tasks, err := svc.CheckReminders()
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return tasksResult(tasks)
	}
}

func chatHandler(bot *Bot) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		reply, err := bot.Respond(mcp.ParseString(request, "message", ""))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(reply.Text), nil
	}
}

func parseRecurring(request mcp.CallToolRequest, args map[string]any) (*task.Recurring, error) {
	interval := internalstrings.NormalizeLowerTrimSpace(mcp.ParseString(request, "recurring", ""))
	if interval == "" {
		return nil, nil
	}
	rec := &task.Recurring{Interval: task.Interval(interval)}
	if _, ok := args["count"]; ok {
		count := mcp.ParseInt(request, "count", 0)
		rec.Count = &count
	}
	if err := task.ValidateRecurring(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// stringField reads a clearable string argument. An absent key leaves the
// field unchanged; null or "" clears it.
func stringField(args map[string]any, key string) task.Field[string] {
	v, present := args[key]
	if !present {
		return task.Field[string]{}
	}
	s, _ := v.(string)
	if strings.TrimSpace(s) == "" {
		return task.Clear[string]()
	}
	return task.Set(s)
}

func taskResult(svc *task.Service, id int) (*mcp.CallToolResult, error) {
	t, err := svc.Get(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := json.Marshal(map[string]any{"task": t})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func tasksResult(tasks []task.Task) (*mcp.CallToolResult, error) {
	if tasks == nil {
		tasks = []task.Task{}
	}
	data, err := json.Marshal(map[string]any{"tasks": tasks})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

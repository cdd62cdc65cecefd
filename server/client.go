package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/amonks/tasks/chat"
	"github.com/amonks/tasks/task"
)

// Client calls the task HTTP API.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client for the given address or URL.
func NewClient(addr string) *Client {
	baseURL := strings.TrimRight(addr, "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	return &Client{baseURL: baseURL, client: &http.Client{}}
}

// List returns every non-deleted task.
func (c *Client) List(ctx context.Context) ([]task.Task, error) {
	var tasks []task.Task
	err := c.do(ctx, http.MethodGet, "/api/tasks", nil, &tasks)
	return tasks, err
}

// Get returns a task by ID.
func (c *Client) Get(ctx context.Context, id int) (task.Task, error) {
	var t task.Task
	err := c.do(ctx, http.MethodGet, taskPath(id, ""), nil, &t)
	return t, err
}

// Add creates a task and returns its ID.
func (c *Client) Add(ctx context.Context, req AddRequest) (int, error) {
	var response addResponse
	if err := c.do(ctx, http.MethodPost, "/api/tasks", req, &response); err != nil {
		return 0, err
	}
	return response.ID, nil
}

// Complete marks a task as completed and returns it.
func (c *Client) Complete(ctx context.Context, id int) (task.Task, error) {
	var t task.Task
	err := c.do(ctx, http.MethodPost, taskPath(id, "/complete"), nil, &t)
	return t, err
}

// Delete soft-deletes a task.
func (c *Client) Delete(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, taskPath(id, ""), nil, nil)
}

// Restore undeletes a task and returns it.
func (c *Client) Restore(ctx context.Context, id int) (task.Task, error) {
	var t task.Task
	err := c.do(ctx, http.MethodPost, taskPath(id, "/restore"), nil, &t)
	return t, err
}

// Search returns the tasks matching opts.
func (c *Client) Search(ctx context.Context, opts task.SearchOptions) ([]task.Task, error) {
	query := url.Values{}
	if opts.Keyword != "" {
		query.Set("keyword", opts.Keyword)
	}
	if opts.Status != nil {
		query.Set("status", strconv.FormatBool(*opts.Status))
	}
	if opts.Priority != "" {
		query.Set("priority", string(opts.Priority))
	}
	for _, tag := range opts.Tags {
		query.Add("tag", tag)
	}
	if opts.SortBy != "" {
		query.Set("sort_by", string(opts.SortBy))
	}
	var tasks []task.Task
	err := c.do(ctx, http.MethodGet, "/api/tasks/search?"+query.Encode(), nil, &tasks)
	return tasks, err
}

// Reminders returns the tasks whose reminder is due.
func (c *Client) Reminders(ctx context.Context) ([]task.Task, error) {
	var tasks []task.Task
	err := c.do(ctx, http.MethodGet, "/api/reminders", nil, &tasks)
	return tasks, err
}

// Chat sends a free-text message to the bot.
func (c *Client) Chat(ctx context.Context, message string) (chat.Reply, error) {
	var reply chat.Reply
	err := c.do(ctx, http.MethodPost, "/api/chat", chatRequest{Message: message}, &reply)
	return reply, err
}

func taskPath(id int, suffix string) string {
	return "/api/tasks/" + strconv.Itoa(id) + suffix
}

func (c *Client) do(ctx context.Context, method, path string, payload any, dest any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readErrorResponse(resp)
	}
	if dest == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

func readErrorResponse(resp *http.Response) error {
	var payload errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
		return fmt.Errorf("tasks api error (%d): %s", resp.StatusCode, payload.Error)
	}
	return fmt.Errorf("tasks api error: %s", resp.Status)
}

package server

import "github.com/amonks/tasks/task"

// AddRequest is the body of POST /api/tasks.
type AddRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Priority    task.Priority   `json:"priority,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
	DueDate     string          `json:"due_date,omitempty"`
	Reminder    string          `json:"reminder,omitempty"`
	Recurring   *task.Recurring `json:"recurring,omitempty"`
}

type addResponse struct {
	ID int `json:"id"`
}

type chatRequest struct {
	Message string `json:"message"`
}

type scheduleResponse struct {
	Scheduled bool `json:"scheduled"`
}

type healthResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
}

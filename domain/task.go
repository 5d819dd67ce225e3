package domain

import (
	"fmt"
	"time"
)

// Status is the workflow state of a task. The set is closed; any other value
// is rejected at the API boundary.
type Status string

const (
	StatusToDo       Status = "todo"
	StatusInProgress Status = "inProgress"
	StatusCompleted  Status = "completed"
)

// StatusOrder lists the statuses in board display order.
var StatusOrder = []Status{StatusToDo, StatusInProgress, StatusCompleted}

// ParseStatus converts a raw form value into a Status.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusToDo, StatusInProgress, StatusCompleted:
		return Status(s), nil
	}
	return "", fmt.Errorf("invalid status %q", s)
}

// Label returns the human readable column heading for the status.
func (s Status) Label() string {
	switch s {
	case StatusToDo:
		return "To Do"
	case StatusInProgress:
		return "In Progress"
	case StatusCompleted:
		return "Completed"
	}
	return string(s)
}

// Task represents a single board item.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	FilePath    string    `json:"filePath"`
	FileName    string    `json:"fileName"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// HasFile reports whether the task carries a stored attachment.
func (t Task) HasFile() bool {
	return t.FilePath != ""
}

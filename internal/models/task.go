// internal/models/task.go
package models

import "time"

type TaskPriority string

const (
	TaskPriorityNormal TaskPriority = "normal"
	TaskPriorityUrgent TaskPriority = "urgent"
)

// Task is a follow-up item assigned to sales for a lead.
type Task struct {
	ID          string       `json:"id"`
	LeadID      string       `json:"leadId"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	DueDate     time.Time    `json:"dueDate"`
	Priority    TaskPriority `json:"priority"`
	Status      string       `json:"status"` // "open" on insert
	CreatedAt   time.Time    `json:"createdAt"`
}

// Package task defines the task record model consumed by the analytics
// pipeline. Records are snapshots owned by the caller; the analytics core
// never mutates or persists them.
package task

import (
	"encoding/json"
	"time"
)

type (
	Status   string
	Priority string
)

type Record struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	Title          string     `json:"title,omitempty"`
	Status         Status     `json:"status"`
	Priority       Priority   `json:"priority"`
	Tags           []string   `json:"tags,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	EstimatedHours *float64   `json:"estimated_hours,omitempty"`
	ActualHours    *float64   `json:"actual_hours,omitempty"`
}

const (
	StatusTodo       Status = "TODO"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

func (r *Record) IsCompleted() bool {
	return r.Status == StatusCompleted && r.CompletedAt != nil
}

func (r *Record) IsPending() bool {
	return r.Status == StatusTodo || r.Status == StatusInProgress
}

// IsOverdue reports whether the task's due date has passed without the task
// reaching a terminal status.
func (r *Record) IsOverdue(now time.Time) bool {
	return r.DueDate != nil &&
		now.After(*r.DueDate) &&
		r.Status != StatusCompleted &&
		r.Status != StatusCancelled
}

func (r *Record) IsHighPriority() bool {
	return r.Priority == PriorityHigh || r.Priority == PriorityCritical
}

// CompletionHours returns the hours between creation and completion.
// The second return is false for tasks without a completion timestamp.
func (r *Record) CompletionHours() (float64, bool) {
	if !r.IsCompleted() {
		return 0, false
	}
	return r.CompletedAt.Sub(r.CreatedAt).Hours(), true
}

// CompletionMinutes returns the minutes between creation and completion.
func (r *Record) CompletionMinutes() (float64, bool) {
	if !r.IsCompleted() {
		return 0, false
	}
	return r.CompletedAt.Sub(r.CreatedAt).Minutes(), true
}

func (r *Record) ToJSON() (string, error) {
	data, err := json.Marshal(r)
	return string(data), err
}

func FromJSON(data string) (*Record, error) {
	var r Record
	err := json.Unmarshal([]byte(data), &r)
	return &r, err
}

// CreatedAfter filters records to those created strictly after the cutoff.
func CreatedAfter(records []Record, cutoff time.Time) []Record {
	filtered := make([]Record, 0, len(records))
	for _, r := range records {
		if r.CreatedAt.After(cutoff) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

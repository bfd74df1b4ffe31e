package models

import (
	"time"

	"gorm.io/gorm"
)

// TaskStatus enumerates the task workflow states.
type TaskStatus string

const (
	TaskStatusNew    TaskStatus = "new"
	TaskStatusReview TaskStatus = "review"
	TaskStatusDone   TaskStatus = "done"
)

// taskTransitions is the explicit transition table. The workflow only moves
// forward; done is terminal. Self-transitions are idempotent no-ops.
var taskTransitions = map[TaskStatus]map[TaskStatus]bool{
	TaskStatusNew:    {TaskStatusReview: true, TaskStatusDone: true},
	TaskStatusReview: {TaskStatusReview: true, TaskStatusDone: true},
	TaskStatusDone:   {TaskStatusDone: true},
}

// Valid reports whether the status is a known workflow state.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusNew, TaskStatusReview, TaskStatusDone:
		return true
	}
	return false
}

// CanTransition reports whether moving to the target state is allowed.
func (s TaskStatus) CanTransition(target TaskStatus) bool {
	return taskTransitions[s][target]
}

// Task belongs to exactly one event. ReviewedAt is set once, on the first
// transition into review, and never cleared.
type Task struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	EventID string `gorm:"type:uuid;not null;index" json:"event_id"`
	Event   *Event `gorm:"constraint:OnDelete:CASCADE" json:"-"`

	Name        string     `gorm:"not null" json:"name"`
	Description string     `json:"description"`
	Status      TaskStatus `gorm:"type:varchar(16);not null;default:new;index" json:"status"`

	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	ReviewedAt *time.Time `json:"reviewed_at"`
}

// BeforeSave rejects unknown status values before they reach the store.
func (t *Task) BeforeSave(tx *gorm.DB) error {
	if !t.Status.Valid() {
		return gorm.ErrInvalidValue
	}
	return nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/eventplaza/eventplaza/internal/models"
	apperrors "github.com/eventplaza/eventplaza/pkg/errors"
	"github.com/eventplaza/eventplaza/pkg/metrics"
)

var (
	// ErrTaskNotFound covers both missing tasks and tasks that belong to a
	// different event, so task ids cannot be probed across events.
	ErrTaskNotFound = apperrors.New("TASK_NOT_FOUND",
		"There is no such task", http.StatusNotFound)
	// ErrInvalidTransition rejects moves the workflow table does not allow.
	ErrInvalidTransition = apperrors.New("INVALID_TRANSITION",
		"That task cannot be moved to the requested state", http.StatusBadRequest)
)

// CreateTaskInput carries the fields for a new task.
type CreateTaskInput struct {
	Name        string
	Description string
}

// TaskService owns the task workflow within a single event.
type TaskService struct {
	db *gorm.DB
}

// NewTaskService constructs a TaskService instance.
func NewTaskService(db *gorm.DB) (*TaskService, error) {
	if db == nil {
		return nil, errors.New("task service: db is required")
	}
	return &TaskService{db: db}, nil
}

// Create stores a new task in the new state.
func (s *TaskService) Create(ctx context.Context, eventID string, input CreateTaskInput) (*models.Task, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewBadRequest("task name is required")
	}

	task := &models.Task{
		EventID:     eventID,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Status:      models.TaskStatusNew,
	}

	if err := s.db.WithContext(ctx).Create(task).Error; err != nil {
		return nil, fmt.Errorf("task service: create task: %w", err)
	}

	return task, nil
}

// Get loads a task scoped to its event.
func (s *TaskService) Get(ctx context.Context, eventID string, taskID uint) (*models.Task, error) {
	ctx = ensureContext(ctx)

	var task models.Task
	err := s.db.WithContext(ctx).
		Where("id = ? AND event_id = ?", taskID, eventID).
		Take(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("task service: load task: %w", err)
	}

	return &task, nil
}

// Transition moves a task to the target state, enforcing the workflow table.
// ReviewedAt is stamped on the first entry into review and never changes
// afterwards.
func (s *TaskService) Transition(ctx context.Context, eventID string, taskID uint, target models.TaskStatus) (*models.Task, error) {
	ctx = ensureContext(ctx)

	if !target.Valid() {
		return nil, ErrInvalidTransition
	}

	task, err := s.Get(ctx, eventID, taskID)
	if err != nil {
		return nil, err
	}

	if !task.Status.CanTransition(target) {
		return nil, ErrInvalidTransition
	}
	if task.Status == target {
		return task, nil
	}

	updates := map[string]any{"status": target}
	if target == models.TaskStatusReview && task.ReviewedAt == nil {
		now := s.db.NowFunc()
		updates["reviewed_at"] = now
		task.ReviewedAt = &now
	}

	if err := s.db.WithContext(ctx).Model(task).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("task service: update task: %w", err)
	}
	task.Status = target

	metrics.TaskTransitions.WithLabelValues(string(target)).Inc()

	return task, nil
}

// Delete removes a task scoped to its event.
func (s *TaskService) Delete(ctx context.Context, eventID string, taskID uint) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).
		Where("id = ? AND event_id = ?", taskID, eventID).
		Delete(&models.Task{})
	if result.Error != nil {
		return fmt.Errorf("task service: delete task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}

	return nil
}

// ListByStatus returns an event's tasks in a given state, oldest first so
// the dashboards read top to bottom in creation order.
func (s *TaskService) ListByStatus(ctx context.Context, eventID string, status models.TaskStatus) ([]models.Task, error) {
	ctx = ensureContext(ctx)

	var tasks []models.Task
	err := s.db.WithContext(ctx).
		Where("event_id = ? AND status = ?", eventID, status).
		Order("created_at ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("task service: list tasks: %w", err)
	}

	return tasks, nil
}

package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/eventplaza/eventplaza/internal/flash"
	"github.com/eventplaza/eventplaza/internal/middleware"
	"github.com/eventplaza/eventplaza/internal/models"
	"github.com/eventplaza/eventplaza/internal/services"
)

// TaskHandler serves the task workflow actions inside an event dashboard.
type TaskHandler struct {
	events *services.EventService
	tasks  *services.TaskService
}

func NewTaskHandler(events *services.EventService, tasks *services.TaskService) *TaskHandler {
	return &TaskHandler{events: events, tasks: tasks}
}

type createTaskForm struct {
	Name        string `form:"name" validate:"required,max=120"`
	Description string `form:"description"`
}

// POST /:event/dashboard/create_task
func (h *TaskHandler) Create(c *gin.Context) {
	event, ok := h.authorizeEvent(c)
	if !ok {
		return
	}

	var form createTaskForm
	if !bindAndValidate(c, &form) {
		return
	}

	_, err := h.tasks.Create(requestContext(c), event.ID, services.CreateTaskInput{
		Name:        form.Name,
		Description: form.Description,
	})
	if err != nil {
		failSoft(c, err, dashboardPath(event.Name))
		return
	}

	flash.Redirect(c, dashboardPath(event.Name), flash.LevelSuccess, "Task has been created")
}

// GET /:event/dashboard/task/:id/review
func (h *TaskHandler) MarkReview(c *gin.Context) {
	h.transition(c, models.TaskStatusReview, "Task has been sent for review")
}

// GET /:event/dashboard/task/:id/done
func (h *TaskHandler) MarkDone(c *gin.Context) {
	h.transition(c, models.TaskStatusDone, "Task has been completed")
}

// GET /:event/dashboard/task/:id/delete
func (h *TaskHandler) Delete(c *gin.Context) {
	event, ok := h.authorizeEvent(c)
	if !ok {
		return
	}

	taskID, ok := h.taskID(c, event)
	if !ok {
		return
	}

	if err := h.tasks.Delete(requestContext(c), event.ID, taskID); err != nil {
		failSoft(c, err, dashboardPath(event.Name))
		return
	}

	flash.Redirect(c, dashboardPath(event.Name), flash.LevelSuccess, "Task has been deleted")
}

func (h *TaskHandler) transition(c *gin.Context, target models.TaskStatus, notice string) {
	event, ok := h.authorizeEvent(c)
	if !ok {
		return
	}

	taskID, ok := h.taskID(c, event)
	if !ok {
		return
	}

	if _, err := h.tasks.Transition(requestContext(c), event.ID, taskID, target); err != nil {
		failSoft(c, err, dashboardPath(event.Name))
		return
	}

	flash.Redirect(c, dashboardPath(event.Name), flash.LevelSuccess, notice)
}

func (h *TaskHandler) authorizeEvent(c *gin.Context) (*models.Event, bool) {
	user := middleware.CurrentUser(c)

	event, err := h.events.Authorize(requestContext(c), c.Param("event"), user.ID)
	if err != nil {
		failSoft(c, err, "/home")
		return nil, false
	}
	return event, true
}

func (h *TaskHandler) taskID(c *gin.Context, event *models.Event) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		failSoft(c, services.ErrTaskNotFound, dashboardPath(event.Name))
		return 0, false
	}
	return uint(id), true
}

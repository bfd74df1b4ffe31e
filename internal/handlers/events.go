package handlers

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eventplaza/eventplaza/internal/flash"
	"github.com/eventplaza/eventplaza/internal/middleware"
	"github.com/eventplaza/eventplaza/internal/models"
	"github.com/eventplaza/eventplaza/internal/services"
	"github.com/eventplaza/eventplaza/pkg/response"
)

// EventHandler serves the event pages: the home listing, event creation,
// the per-event dashboards, and member management.
type EventHandler struct {
	events *services.EventService
	tasks  *services.TaskService
}

func NewEventHandler(events *services.EventService, tasks *services.TaskService) *EventHandler {
	return &EventHandler{events: events, tasks: tasks}
}

type createEventForm struct {
	Name        string    `form:"name" validate:"required,max=120"`
	Description string    `form:"description" validate:"required"`
	Location    string    `form:"location" validate:"max=200"`
	StartsAt    time.Time `form:"starts_at" time_format:"2006-01-02T15:04"`
	Image       string    `form:"image"`
}

type addMemberForm struct {
	Email string `form:"email" validate:"required,email"`
	Role  string `form:"role" validate:"required,oneof=organizer manager"`
}

// GET /home
func (h *EventHandler) Home(c *gin.Context) {
	user := middleware.CurrentUser(c)

	events, err := h.events.ListOrganizing(requestContext(c), user.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Page(c, gin.H{
		"page":   "home",
		"user":   user,
		"events": events,
	}, flash.Take(c))
}

// GET /create_event
func (h *EventHandler) CreatePage(c *gin.Context) {
	response.Page(c, gin.H{"page": "create_event"}, flash.Take(c))
}

// POST /create_event
func (h *EventHandler) Create(c *gin.Context) {
	var form createEventForm
	if !bindAndValidate(c, &form) {
		return
	}

	user := middleware.CurrentUser(c)
	event, err := h.events.Create(requestContext(c), user, services.CreateEventInput{
		Name:        form.Name,
		Description: form.Description,
		Location:    form.Location,
		StartsAt:    form.StartsAt,
		Image:       form.Image,
	})
	if err != nil {
		failSoft(c, err, "/create_event")
		return
	}

	flash.Redirect(c, dashboardPath(event.Name), flash.LevelSuccess, "Your event has been created!")
}

// GET /:event/dashboard
func (h *EventHandler) Dashboard(c *gin.Context) {
	h.taskBoard(c, "dashboard", models.TaskStatusNew)
}

// GET /:event/dashboard/pendingreview
func (h *EventHandler) PendingReview(c *gin.Context) {
	h.taskBoard(c, "pendingreview", models.TaskStatusReview)
}

// GET /:event/dashboard/done
func (h *EventHandler) Done(c *gin.Context) {
	h.taskBoard(c, "done", models.TaskStatusDone)
}

// POST /:event/dashboard/add_member
func (h *EventHandler) AddMember(c *gin.Context) {
	event, ok := h.authorizeEvent(c)
	if !ok {
		return
	}

	var form addMemberForm
	if !bindAndValidate(c, &form) {
		return
	}

	member, err := h.events.AddMember(requestContext(c), event, form.Email, services.MemberRole(form.Role))
	if err != nil {
		failSoft(c, err, dashboardPath(event.Name))
		return
	}

	flash.Redirect(c, dashboardPath(event.Name), flash.LevelSuccess,
		fmt.Sprintf("%s has been added to the event", member.FullName()))
}

func (h *EventHandler) taskBoard(c *gin.Context, page string, status models.TaskStatus) {
	event, ok := h.authorizeEvent(c)
	if !ok {
		return
	}

	tasks, err := h.tasks.ListByStatus(requestContext(c), event.ID, status)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Page(c, gin.H{
		"page":  page,
		"event": event,
		"tasks": tasks,
	}, flash.Take(c))
}

// authorizeEvent resolves the :event route param and enforces organizer
// membership. On failure it writes the response and returns false.
func (h *EventHandler) authorizeEvent(c *gin.Context) (*models.Event, bool) {
	user := middleware.CurrentUser(c)

	event, err := h.events.Authorize(requestContext(c), c.Param("event"), user.ID)
	if err != nil {
		failSoft(c, err, "/home")
		return nil, false
	}
	return event, true
}

func dashboardPath(eventName string) string {
	return "/" + eventName + "/dashboard"
}

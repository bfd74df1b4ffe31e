package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/eventplaza/eventplaza/internal/models"
	apperrors "github.com/eventplaza/eventplaza/pkg/errors"
)

// MemberRole selects which membership set an invited user joins.
type MemberRole string

const (
	MemberRoleOrganizer MemberRole = "organizer"
	MemberRoleManager   MemberRole = "manager"
)

var (
	// ErrEventNotFound indicates no event with the requested name exists.
	ErrEventNotFound = apperrors.New("EVENT_NOT_FOUND",
		"Event not found", http.StatusNotFound)
	// ErrEventNameTaken signals a clash with the unique event name.
	ErrEventNameTaken = apperrors.New("EVENT_NAME_TAKEN",
		"An event with that name already exists", http.StatusBadRequest)
	// ErrNotOrganizer rejects dashboard access for users outside the organizer set.
	ErrNotOrganizer = apperrors.New("NOT_ORGANIZER",
		"You are not authorized to view this page", http.StatusForbidden)
	// ErrMemberExists signals the invited user already holds the role.
	ErrMemberExists = apperrors.New("MEMBER_EXISTS",
		"User is already in the event", http.StatusBadRequest)
	// ErrMemberNotFound signals that no account matches the invited email.
	ErrMemberNotFound = apperrors.New("MEMBER_NOT_FOUND",
		"No account with that email exists", http.StatusBadRequest)
	// ErrInvalidMemberRole rejects roles outside organizer and manager.
	ErrInvalidMemberRole = apperrors.New("INVALID_MEMBER_ROLE",
		"Unknown member role", http.StatusBadRequest)
)

// CreateEventInput carries the fields for a new event.
type CreateEventInput struct {
	Name        string
	Description string
	Location    string
	StartsAt    time.Time
	Image       string
}

// EventService owns event records and their organizer and manager sets.
type EventService struct {
	db *gorm.DB
}

// NewEventService constructs an EventService instance.
func NewEventService(db *gorm.DB) (*EventService, error) {
	if db == nil {
		return nil, errors.New("event service: db is required")
	}
	return &EventService{db: db}, nil
}

// Create stores a new event and seeds the creator into both the organizer
// and manager sets inside one transaction.
func (s *EventService) Create(ctx context.Context, creator *models.User, input CreateEventInput) (*models.Event, error) {
	ctx = ensureContext(ctx)
	if creator == nil {
		return nil, ErrUserNotFound
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewBadRequest("event name is required")
	}

	image := strings.TrimSpace(input.Image)
	if image == "" {
		image = models.DefaultEventImage
	}

	event := &models.Event{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Location:    strings.TrimSpace(input.Location),
		StartsAt:    input.StartsAt,
		Image:       image,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(event).Error; err != nil {
			return err
		}
		if err := tx.Model(event).Association("Organizers").Append(creator); err != nil {
			return err
		}
		return tx.Model(event).Association("Managers").Append(creator)
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrEventNameTaken
		}
		return nil, fmt.Errorf("event service: create event: %w", err)
	}

	return event, nil
}

// GetByName loads an event with its membership sets. The unique name is the
// routing key for all dashboard URLs.
func (s *EventService) GetByName(ctx context.Context, name string) (*models.Event, error) {
	ctx = ensureContext(ctx)

	var event models.Event
	err := s.db.WithContext(ctx).
		Preload("Organizers").
		Preload("Managers").
		Where("name = ?", strings.TrimSpace(name)).
		Take(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("event service: load event: %w", err)
	}

	return &event, nil
}

// Authorize loads the event and checks the user against its organizer set.
// Manager membership alone never grants access.
func (s *EventService) Authorize(ctx context.Context, name, userID string) (*models.Event, error) {
	event, err := s.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if !event.HasOrganizer(userID) {
		return nil, ErrNotOrganizer
	}
	return event, nil
}

// ListOrganizing returns the events where the user is an organizer, newest
// start date first.
func (s *EventService) ListOrganizing(ctx context.Context, userID string) ([]models.Event, error) {
	ctx = ensureContext(ctx)

	var events []models.Event
	err := s.db.WithContext(ctx).
		Joins("JOIN event_organizers eo ON eo.event_id = events.id").
		Where("eo.user_id = ?", userID).
		Order("events.starts_at DESC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("event service: list events: %w", err)
	}

	return events, nil
}

// AddMember invites the account behind an email into the event. Organizers
// gain dashboard access; managers are recorded in the manager set only.
func (s *EventService) AddMember(ctx context.Context, event *models.Event, email string, role MemberRole) (*models.User, error) {
	ctx = ensureContext(ctx)
	if event == nil {
		return nil, ErrEventNotFound
	}
	if role != MemberRoleOrganizer && role != MemberRoleManager {
		return nil, ErrInvalidMemberRole
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normaliseEmail(email)).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("event service: find member: %w", err)
	}

	switch role {
	case MemberRoleOrganizer:
		if event.HasOrganizer(user.ID) {
			return nil, ErrMemberExists
		}
		if err := s.db.WithContext(ctx).Model(event).Association("Organizers").Append(&user); err != nil {
			return nil, fmt.Errorf("event service: add organizer: %w", err)
		}
		event.Organizers = append(event.Organizers, user)
	case MemberRoleManager:
		if event.HasManager(user.ID) {
			return nil, ErrMemberExists
		}
		if err := s.db.WithContext(ctx).Model(event).Association("Managers").Append(&user); err != nil {
			return nil, fmt.Errorf("event service: add manager: %w", err)
		}
		event.Managers = append(event.Managers, user)
	}

	return &user, nil
}

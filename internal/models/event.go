package models

import "time"

// DefaultEventImage is the placeholder shown until an organizer uploads one.
const DefaultEventImage = "default_event.jpg"

// Event is the unit of organisation. The unique name doubles as the routing
// key for dashboard URLs. Organizers have full control; managers are an
// elevated role that does not by itself grant dashboard access.
type Event struct {
	BaseModel

	Name        string    `gorm:"uniqueIndex;not null" json:"name"`
	Description string    `gorm:"not null" json:"description"`
	Location    string    `json:"location"`
	StartsAt    time.Time `json:"starts_at"`
	Image       string    `gorm:"default:default_event.jpg" json:"image"`

	Organizers []User `gorm:"many2many:event_organizers;" json:"organizers,omitempty"`
	Managers   []User `gorm:"many2many:event_managers;" json:"managers,omitempty"`
	Tasks      []Task `gorm:"foreignKey:EventID" json:"-"`
}

// HasOrganizer reports whether the given user belongs to the organizer set.
// Organizer membership is the only check that grants dashboard access.
func (e *Event) HasOrganizer(userID string) bool {
	for _, u := range e.Organizers {
		if u.ID == userID {
			return true
		}
	}
	return false
}

// HasManager reports whether the given user belongs to the manager set.
func (e *Event) HasManager(userID string) bool {
	for _, u := range e.Managers {
		if u.ID == userID {
			return true
		}
	}
	return false
}

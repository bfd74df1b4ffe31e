package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Session is a server-side login session. The browser carries only the
// opaque Token in a cookie; Remember extends the lifetime beyond the
// browser session.
type Session struct {
	ID         string     `gorm:"primaryKey;type:uuid" json:"id"`
	UserID     string     `gorm:"type:uuid;not null;index" json:"user_id"`
	User       *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Token      string     `gorm:"uniqueIndex;not null" json:"-"`
	Remember   bool       `gorm:"default:false" json:"remember"`
	IPAddress  string     `json:"ip_address"`
	UserAgent  string     `json:"user_agent"`
	ExpiresAt  time.Time  `gorm:"index" json:"expires_at"`
	LastUsedAt time.Time  `json:"last_used_at"`
	CreatedAt  time.Time  `json:"created_at"`
	RevokedAt  *time.Time `json:"revoked_at"`
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

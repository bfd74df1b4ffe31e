package models

// DefaultAvatar is the placeholder image reference assigned at signup.
const DefaultAvatar = "default.jpg"

// User describes an account with credentials, profile data, and email
// verification state. EmailToken holds the current opaque verification
// token; it is regenerated whenever the email changes or verification is
// reissued, never reused.
type User struct {
	BaseModel

	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`

	FirstName string `gorm:"not null" json:"first_name"`
	LastName  string `gorm:"not null" json:"last_name"`
	Avatar    string `gorm:"default:default.jpg" json:"avatar"`

	IsConfirmed bool   `gorm:"default:false" json:"is_confirmed"`
	EmailToken  string `gorm:"index" json:"-"`

	OrganizedEvents []Event   `gorm:"many2many:event_organizers;" json:"-"`
	ManagedEvents   []Event   `gorm:"many2many:event_managers;" json:"-"`
	Sessions        []Session `gorm:"foreignKey:UserID" json:"-"`
}

// FullName joins the profile names for display and email greetings.
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

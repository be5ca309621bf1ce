package users

import (
	"strings"
	"time"
)

// ID tipe untuk User
type UserID string

// Aggregate Root: User
type User struct {
	ID           UserID    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"password"`
	Token        string    `json:"token,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Public is the wire representation without credentials.
type Public struct {
	ID        UserID    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) Public() Public {
	return Public{ID: u.ID, Email: u.Email, Name: u.Name, CreatedAt: u.CreatedAt}
}

// CanAccess reports whether a report id belongs to the given user.
// Report ids are formatted "{user_id}_{short}", so ownership is the id
// prefix plus the owner column carried on the record itself.
func CanAccess(id UserID, reportID string) bool {
	return strings.HasPrefix(reportID, string(id)+"_")
}

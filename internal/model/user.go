// Package model contain gorm model for recording data to database
package model

import (
	"time"

	"github.com/google/uuid"
)

// User roles
const (
	RoleCandidate = "candidate"
	RoleRecruiter = "recruiter"
	RoleAdmin     = "admin"
)

// User is the account record shared by candidates, recruiters and admins.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	Username  string    `gorm:"type:text;uniqueIndex;not null" json:"username"`
	Name      string    `gorm:"type:text" json:"name"`
	Email     *string   `gorm:"type:text" json:"email"`
	Image     string    `gorm:"type:text" json:"image"`
	Password  string    `gorm:"type:text" json:"-"`
	Role      string    `gorm:"type:text;not null" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// DisplayEmail returns the e-mail or an empty string when none is set.
func (u User) DisplayEmail() string {
	if u.Email == nil {
		return ""
	}
	return *u.Email
}

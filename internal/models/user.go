// Package models contains data structures for the application's domain models.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AnonymousPrefix starts the username of every implicitly created user.
const AnonymousPrefix = "anonymous"

// User is a registered or anonymous author of answers.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"column:password_hash" json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// BeforeCreate assigns a fresh identifier when none is set.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// IsAnonymous reports whether the user was synthesised for an unauthenticated answer.
func (u *User) IsAnonymous() bool {
	return u.PasswordHash == "" && strings.HasPrefix(u.Username, AnonymousPrefix+" ")
}

// PublicUser is the externally visible projection of a User.
type PublicUser struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

// Public returns the view of u that is safe to serialize.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		CreatedAt: u.CreatedAt,
	}
}

// UserRef is the populated author attached to an answer.
type UserRef struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}

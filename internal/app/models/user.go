package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents an account that collaborates on projects
type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	Password     string     `json:"-" db:"password"`
	FirstName    string     `json:"firstName" db:"first_name"`
	LastName     string     `json:"lastName" db:"last_name"`
	IsSuperadmin bool       `json:"isSuperadmin" db:"is_superadmin"`
	IsVerified   bool       `json:"isVerified" db:"is_verified"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time  `json:"updatedAt" db:"updated_at"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// RedcapServer is a registered external REDCap instance. The supertoken allows
// project creation; per-project tokens live on Project.RedcapToken.
type RedcapServer struct {
	ID         uuid.UUID `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	ServerURL  string    `json:"serverUrl" db:"server_url"`
	Supertoken string    `json:"-" db:"supertoken"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`
}

// RedcapTemplate is a REDCap project whose metadata seeds newly created
// projects on the same server.
type RedcapTemplate struct {
	ID             uuid.UUID `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	RedcapServerID uuid.UUID `json:"redcapServerId" db:"redcap_server_id"`
	Token          string    `json:"-" db:"token"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
}

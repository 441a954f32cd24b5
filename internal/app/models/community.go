package models

import (
	"time"

	"github.com/google/uuid"
)

// CommunityStatus is the lifecycle state of a community license
type CommunityStatus string

const (
	CommunityStatusDraft   CommunityStatus = "Draft"
	CommunityStatusPending CommunityStatus = "Pending"
	CommunityStatusActive  CommunityStatus = "Active"
	CommunityStatusExpired CommunityStatus = "Expired"
)

// Community is the top-level tenant grouping one or more projects
type Community struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	Name           string          `json:"name" db:"name"`
	Area           string          `json:"area" db:"area"`
	Type           *string         `json:"type,omitempty" db:"type"`
	Status         CommunityStatus `json:"status" db:"status"`
	ShareName      bool            `json:"shareName" db:"share_name"`
	LicenseExpiry  *time.Time      `json:"licenseExpiry,omitempty" db:"license_expiry"`
	ContactID      *uuid.UUID      `json:"contactId,omitempty" db:"contact_id"`
	RedcapServerID *uuid.UUID      `json:"redcapServerId,omitempty" db:"redcap_server_id"`
	CreatedAt      time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time       `json:"updatedAt" db:"updated_at"`
}

// CommunityAdmin records that a user administers a community. Holding one of
// these is equivalent to holding an Admin membership on every project in the
// community; the sync engine maintains that equivalence.
type CommunityAdmin struct {
	ID           uuid.UUID `json:"id" db:"id"`
	UserID       uuid.UUID `json:"userId" db:"user_id"`
	CommunityID  uuid.UUID `json:"communityId" db:"community_id"`
	IsFirstLogin bool      `json:"isFirstLogin" db:"is_first_login"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

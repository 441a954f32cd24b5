package models

import (
	"time"

	"github.com/google/uuid"
)

// ProjectStatus is the lifecycle state of a project
type ProjectStatus string

const (
	ProjectStatusActive   ProjectStatus = "Active"
	ProjectStatusInactive ProjectStatus = "Inactive"
)

// Project is a survey-data collection effort belonging to exactly one community
type Project struct {
	ID                   uuid.UUID     `json:"id" db:"id"`
	CommunityID          uuid.UUID     `json:"communityId" db:"community_id"`
	Name                 string        `json:"name" db:"name"`
	Description          string        `json:"description" db:"description"`
	Purpose              []string      `json:"purpose" db:"purpose"`
	NumberOfParticipants string        `json:"numberOfParticipants" db:"number_of_participants"`
	Status               ProjectStatus `json:"status" db:"status"`
	RedcapToken          *string       `json:"-" db:"redcap_token"`
	RedcapTemplateID     *uuid.UUID    `json:"redcapTemplateId,omitempty" db:"redcap_template_id"`
	CreatedAt            time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt            time.Time     `json:"updatedAt" db:"updated_at"`
}

// ProjectMembership ties a user to a project with a role and an optional
// facilitator pin. (user_id, project_id) is unique; a non-null pin is unique
// within its project.
type ProjectMembership struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"userId" db:"user_id"`
	ProjectID uuid.UUID `json:"projectId" db:"project_id"`
	Role      Role      `json:"projectRole" db:"project_role"`
	Pin       *string   `json:"projectPin,omitempty" db:"project_pin"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	// Related entities
	User *User `json:"user,omitempty"`
}

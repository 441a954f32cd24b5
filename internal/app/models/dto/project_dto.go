package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/cedarwell/wellspring/internal/app/models"
)

// CreateProjectRequest represents a project creation request
type CreateProjectRequest struct {
	CommunityID          uuid.UUID  `json:"communityId" binding:"required"`
	Name                 string     `json:"name" binding:"required,min=2,max=200"`
	Description          string     `json:"description" binding:"required"`
	Purpose              []string   `json:"purpose" binding:"required,min=1"`
	NumberOfParticipants string     `json:"numberOfParticipants" binding:"required"`
	RedcapTemplateID     *uuid.UUID `json:"redcapTemplateId,omitempty"`
	Pin                  *string    `json:"projectPin,omitempty"`
}

// UpdateProjectRequest represents a project patch; nil fields are untouched
type UpdateProjectRequest struct {
	Name                 *string               `json:"name,omitempty" binding:"omitempty,min=2,max=200"`
	Description          *string               `json:"description,omitempty"`
	Purpose              []string              `json:"purpose,omitempty"`
	NumberOfParticipants *string               `json:"numberOfParticipants,omitempty"`
	Status               *models.ProjectStatus `json:"status,omitempty"`
}

// ProjectResponse is the public projection of a project
type ProjectResponse struct {
	ID                   uuid.UUID            `json:"id"`
	CommunityID          uuid.UUID            `json:"communityId"`
	Name                 string               `json:"name"`
	Description          string               `json:"description"`
	Purpose              []string             `json:"purpose"`
	NumberOfParticipants string               `json:"numberOfParticipants"`
	Status               models.ProjectStatus `json:"status"`
	RedcapTemplateID     *uuid.UUID           `json:"redcapTemplateId,omitempty"`
	CreatedAt            time.Time            `json:"createdAt"`
}

// ProjectListResponse is the paginated project list
type ProjectListResponse struct {
	Projects       []ProjectResponse `json:"projects"`
	PaginationInfo PaginationInfo    `json:"pagination"`
}

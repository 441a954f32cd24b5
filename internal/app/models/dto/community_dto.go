package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/cedarwell/wellspring/internal/app/models"
)

// CreateCommunityRequest represents a community creation request
type CreateCommunityRequest struct {
	Name           string     `json:"name" binding:"required,min=2,max=200"`
	Area           string     `json:"area" binding:"required"`
	Type           *string    `json:"type,omitempty"`
	ShareName      bool       `json:"shareName"`
	LicenseExpiry  *time.Time `json:"licenseExpiry,omitempty"`
	ContactID      *uuid.UUID `json:"contactId,omitempty"`
	RedcapServerID *uuid.UUID `json:"redcapServerId,omitempty"`
}

// UpdateCommunityRequest represents a community patch; nil fields are untouched
type UpdateCommunityRequest struct {
	Name           *string                 `json:"name,omitempty" binding:"omitempty,min=2,max=200"`
	Area           *string                 `json:"area,omitempty"`
	Type           *string                 `json:"type,omitempty"`
	Status         *models.CommunityStatus `json:"status,omitempty"`
	ShareName      *bool                   `json:"shareName,omitempty"`
	LicenseExpiry  *time.Time              `json:"licenseExpiry,omitempty"`
	ContactID      *uuid.UUID              `json:"contactId,omitempty"`
	RedcapServerID *uuid.UUID              `json:"redcapServerId,omitempty"`
}

// CommunityResponse is the public projection of a community
type CommunityResponse struct {
	ID             uuid.UUID              `json:"id"`
	Name           string                 `json:"name"`
	Area           string                 `json:"area"`
	Type           *string                `json:"type,omitempty"`
	Status         models.CommunityStatus `json:"status"`
	ShareName      bool                   `json:"shareName"`
	LicenseExpiry  *time.Time             `json:"licenseExpiry,omitempty"`
	ContactID      *uuid.UUID             `json:"contactId,omitempty"`
	RedcapServerID *uuid.UUID             `json:"redcapServerId,omitempty"`
	ProjectCount   int                    `json:"projectCount"`
	CreatedAt      time.Time              `json:"createdAt"`
}

// CommunityListResponse is the paginated community list
type CommunityListResponse struct {
	Communities    []CommunityResponse `json:"communities"`
	PaginationInfo PaginationInfo      `json:"pagination"`
}

// CommunityAdminResponse is the projection of an admin-community record
type CommunityAdminResponse struct {
	ID           uuid.UUID          `json:"id"`
	UserID       uuid.UUID          `json:"userId"`
	CommunityID  uuid.UUID          `json:"communityId"`
	IsFirstLogin bool               `json:"isFirstLogin"`
	User         *UserBasicResponse `json:"user,omitempty"`
}

// CreateCommunityAdminRequest promotes a user to community admin
type CreateCommunityAdminRequest struct {
	UserID      uuid.UUID `json:"userId" binding:"required"`
	CommunityID uuid.UUID `json:"communityId" binding:"required"`
}

// UpdateCommunityAdminRequest patches the first-login flag
type UpdateCommunityAdminRequest struct {
	IsFirstLogin *bool `json:"isFirstLogin" binding:"required"`
}

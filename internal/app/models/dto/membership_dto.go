package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/cedarwell/wellspring/internal/app/models"
)

// CreateMembershipRequest adds a user to a project
type CreateMembershipRequest struct {
	UserID    uuid.UUID   `json:"userId" binding:"required"`
	ProjectID uuid.UUID   `json:"projectId" binding:"required"`
	Role      models.Role `json:"projectRole" binding:"required"`
	Pin       *string     `json:"projectPin,omitempty"`
}

// UpdateMembershipRequest patches a membership; only role and pin are patchable
type UpdateMembershipRequest struct {
	Role *models.Role `json:"projectRole,omitempty"`
	Pin  *string      `json:"projectPin,omitempty"`
}

// MembershipResponse is the projection of a project membership
type MembershipResponse struct {
	ID        uuid.UUID          `json:"id"`
	UserID    uuid.UUID          `json:"userId"`
	ProjectID uuid.UUID          `json:"projectId"`
	Role      models.Role        `json:"projectRole"`
	RoleName  string             `json:"projectRoleName"`
	Pin       *string            `json:"projectPin,omitempty"`
	User      *UserBasicResponse `json:"user,omitempty"`
	CreatedAt time.Time          `json:"createdAt"`
}

// MembershipListResponse is the list of memberships for a project or user
type MembershipListResponse struct {
	Memberships []MembershipResponse `json:"memberships"`
}

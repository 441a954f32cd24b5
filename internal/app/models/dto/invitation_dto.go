package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/cedarwell/wellspring/internal/app/models"
)

// CreateInvitationRequest invites an email to a project. The community is
// derived from the project server-side.
type CreateInvitationRequest struct {
	Email     string      `json:"email" binding:"required,email"`
	ProjectID uuid.UUID   `json:"projectId" binding:"required"`
	Role      models.Role `json:"projectRole" binding:"required"`
}

// UpdateInvitationRequest patches an invitation. Setting Accept transitions the
// invitation to accepted; otherwise only the role may change.
type UpdateInvitationRequest struct {
	Role   *models.Role `json:"projectRole,omitempty"`
	Accept bool         `json:"accept,omitempty"`
}

// InvitationResponse is the projection of an invitation
type InvitationResponse struct {
	ID            uuid.UUID   `json:"id"`
	Email         string      `json:"email"`
	Role          models.Role `json:"projectRole"`
	RoleName      string      `json:"projectRoleName"`
	InvitedUserID *uuid.UUID  `json:"invitedUserId,omitempty"`
	InvitedBy     uuid.UUID   `json:"invitedBy"`
	ProjectID     uuid.UUID   `json:"projectId"`
	CommunityID   uuid.UUID   `json:"communityId"`
	AcceptedAt    *time.Time  `json:"acceptedAt,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
}

// InvitationListResponse is the list of invitations visible to the caller
type InvitationListResponse struct {
	Invitations []InvitationResponse `json:"invitations"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Invitation is a pending offer of a project role, or of community-admin status
// when Role >= MinAdminSyncRole, addressed to an email. Pending invitations are
// either accepted (terminal) or removed (withdrawn or superseded, terminal).
type Invitation struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	Email         string     `json:"email" db:"email"`
	Role          Role       `json:"projectRole" db:"project_role"`
	InvitedUserID *uuid.UUID `json:"invitedUserId,omitempty" db:"invited_user_id"`
	InvitedBy     uuid.UUID  `json:"invitedBy" db:"invited_by"`
	ProjectID     uuid.UUID  `json:"projectId" db:"project_id"`
	CommunityID   uuid.UUID  `json:"communityId" db:"community_id"`
	AcceptedAt    *time.Time `json:"acceptedAt,omitempty" db:"accepted_at"`
	CreatedAt     time.Time  `json:"createdAt" db:"created_at"`
}

// Pending reports whether the invitation is still open.
func (i *Invitation) Pending() bool {
	return i.AcceptedAt == nil
}

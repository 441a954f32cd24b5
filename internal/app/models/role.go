package models

// Role is the ordered project privilege level. Comparisons between roles encode
// every privilege check in the collaboration layer, so the ordinal values matter.
type Role int

const (
	RoleFacilitator Role = 1
	RoleCoordinator Role = 2
	RoleAdmin       Role = 3
)

// MinAdminSyncRole is the threshold at which a project role implies
// community-admin status and triggers cross-project synchronization.
const MinAdminSyncRole = RoleAdmin

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	return r >= RoleFacilitator && r <= RoleAdmin
}

// AtLeast reports whether r grants at least the privilege of other.
func (r Role) AtLeast(other Role) bool {
	return r >= other
}

// String returns the display name used in invitations and emails.
func (r Role) String() string {
	switch r {
	case RoleFacilitator:
		return "Facilitator"
	case RoleCoordinator:
		return "Clinician/Coordinator"
	case RoleAdmin:
		return "Admin"
	default:
		return "Unknown"
	}
}

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleFacilitator.Valid())
	assert.True(t, RoleCoordinator.Valid())
	assert.True(t, RoleAdmin.Valid())

	assert.False(t, Role(0).Valid())
	assert.False(t, Role(4).Valid())
	assert.False(t, Role(-1).Valid())
}

func TestRoleOrdering(t *testing.T) {
	assert.True(t, RoleAdmin.AtLeast(RoleCoordinator))
	assert.True(t, RoleAdmin.AtLeast(RoleAdmin))
	assert.True(t, RoleCoordinator.AtLeast(RoleFacilitator))

	assert.False(t, RoleFacilitator.AtLeast(RoleCoordinator))
	assert.False(t, RoleCoordinator.AtLeast(RoleAdmin))
}

func TestMinAdminSyncRole(t *testing.T) {
	assert.True(t, RoleAdmin.AtLeast(MinAdminSyncRole))
	assert.False(t, RoleCoordinator.AtLeast(MinAdminSyncRole))
}

func TestRoleString(t *testing.T) {
	assert.Equal(t, "Facilitator", RoleFacilitator.String())
	assert.Equal(t, "Clinician/Coordinator", RoleCoordinator.String())
	assert.Equal(t, "Admin", RoleAdmin.String())
	assert.Equal(t, "Unknown", Role(9).String())
}

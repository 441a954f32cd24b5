package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cedarwell/wellspring/internal/app/models"
	"github.com/cedarwell/wellspring/internal/app/repositories"
	"github.com/cedarwell/wellspring/internal/pkg/apperrors"
)

// The remaining membershipStore methods on the shared fake.

func (f *fakeMembershipStore) FindByID(_ context.Context, _ repositories.DBTX, id uuid.UUID) (*models.ProjectMembership, error) {
	return f.memberships[id], nil
}

func (f *fakeMembershipStore) UpdatePin(_ context.Context, _ repositories.DBTX, id uuid.UUID, pin *string) error {
	f.memberships[id].Pin = pin
	return nil
}

func (f *fakeMembershipStore) CountPinInProject(_ context.Context, _ repositories.DBTX, projectID uuid.UUID, pin string, excludeID uuid.UUID) (int64, error) {
	var count int64
	for _, m := range f.memberships {
		if m.ProjectID == projectID && m.ID != excludeID && m.Pin != nil && *m.Pin == pin {
			count++
		}
	}
	return count, nil
}

func (f *fakeMembershipStore) ListByProject(_ context.Context, _ repositories.DBTX, projectID uuid.UUID) ([]*models.ProjectMembership, error) {
	var result []*models.ProjectMembership
	for _, m := range f.memberships {
		if m.ProjectID == projectID {
			result = append(result, m)
		}
	}
	return result, nil
}

func (f *fakeMembershipStore) ListByUser(_ context.Context, _ repositories.DBTX, userID uuid.UUID) ([]*models.ProjectMembership, error) {
	var result []*models.ProjectMembership
	for _, m := range f.memberships {
		if m.UserID == userID {
			result = append(result, m)
		}
	}
	return result, nil
}

func (f *fakeMembershipStore) Delete(_ context.Context, _ repositories.DBTX, id uuid.UUID) error {
	delete(f.memberships, id)
	return nil
}

func membershipFixture(t *testing.T) (*MembershipService, *fakeProjectStore, *fakeMembershipStore) {
	t.Helper()
	projects := newFakeProjectStore()
	memberships := newFakeMembershipStore()
	svc := &MembershipService{
		memberships: memberships,
		projects:    projects,
		logger:      zerolog.Nop(),
	}
	return svc, projects, memberships
}

func TestValidatePin(t *testing.T) {
	ctx := context.Background()
	svc, projects, memberships := membershipFixture(t)

	communityID := uuid.New()
	projectID := projects.add(communityID)
	otherProjectID := projects.add(communityID)

	pin := "AB123456"
	holder := memberships.add(uuid.New(), projectID, models.RoleFacilitator)
	holder.Pin = &pin

	t.Run("malformed pin", func(t *testing.T) {
		err := svc.validatePin(ctx, nil, projectID, "1234", uuid.New())
		assert.ErrorIs(t, err, apperrors.ErrInvalidPin)
	})

	t.Run("pin taken within project", func(t *testing.T) {
		err := svc.validatePin(ctx, nil, projectID, pin, uuid.New())
		assert.ErrorIs(t, err, apperrors.ErrDuplicatePin)
	})

	t.Run("member resubmits own pin", func(t *testing.T) {
		err := svc.validatePin(ctx, nil, projectID, pin, holder.ID)
		require.NoError(t, err)
	})

	t.Run("same pin on another project", func(t *testing.T) {
		err := svc.validatePin(ctx, nil, otherProjectID, pin, uuid.New())
		require.NoError(t, err)
	})
}

func TestActorRoleOnProject(t *testing.T) {
	ctx := context.Background()
	svc, projects, memberships := membershipFixture(t)

	projectID := projects.add(uuid.New())
	userID := uuid.New()
	memberships.add(userID, projectID, models.RoleCoordinator)

	role, err := svc.actorRoleOnProject(ctx, nil, userID, projectID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleCoordinator, role)

	_, err = svc.actorRoleOnProject(ctx, nil, uuid.New(), projectID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

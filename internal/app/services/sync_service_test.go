package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cedarwell/wellspring/internal/app/models"
	"github.com/cedarwell/wellspring/internal/app/repositories"
)

// In-memory fakes over the narrow store interfaces. DBTX is ignored; tests
// pass nil.

type fakeProjectStore struct {
	projects map[uuid.UUID]*models.Project
}

func newFakeProjectStore() *fakeProjectStore {
	return &fakeProjectStore{projects: make(map[uuid.UUID]*models.Project)}
}

func (f *fakeProjectStore) add(communityID uuid.UUID) uuid.UUID {
	id := uuid.New()
	f.projects[id] = &models.Project{ID: id, CommunityID: communityID}
	return id
}

func (f *fakeProjectStore) FindByID(_ context.Context, _ repositories.DBTX, id uuid.UUID) (*models.Project, error) {
	return f.projects[id], nil
}

func (f *fakeProjectStore) ListIDsByCommunity(_ context.Context, _ repositories.DBTX, communityID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for id, p := range f.projects {
		if p.CommunityID == communityID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

type fakeMembershipStore struct {
	memberships map[uuid.UUID]*models.ProjectMembership
}

func newFakeMembershipStore() *fakeMembershipStore {
	return &fakeMembershipStore{memberships: make(map[uuid.UUID]*models.ProjectMembership)}
}

func (f *fakeMembershipStore) add(userID, projectID uuid.UUID, role models.Role) *models.ProjectMembership {
	m := &models.ProjectMembership{ID: uuid.New(), UserID: userID, ProjectID: projectID, Role: role}
	f.memberships[m.ID] = m
	return m
}

func (f *fakeMembershipStore) FindByUserAndProject(_ context.Context, _ repositories.DBTX, userID, projectID uuid.UUID) (*models.ProjectMembership, error) {
	for _, m := range f.memberships {
		if m.UserID == userID && m.ProjectID == projectID {
			return m, nil
		}
	}
	return nil, nil
}

func (f *fakeMembershipStore) Create(_ context.Context, _ repositories.DBTX, m *models.ProjectMembership) error {
	f.memberships[m.ID] = m
	return nil
}

func (f *fakeMembershipStore) UpdateRole(_ context.Context, _ repositories.DBTX, id uuid.UUID, role models.Role) error {
	f.memberships[id].Role = role
	return nil
}

func (f *fakeMembershipStore) DeleteByUserAndProject(_ context.Context, _ repositories.DBTX, userID, projectID uuid.UUID) (int64, error) {
	for id, m := range f.memberships {
		if m.UserID == userID && m.ProjectID == projectID {
			delete(f.memberships, id)
			return 1, nil
		}
	}
	return 0, nil
}

func (f *fakeMembershipStore) roleOn(userID, projectID uuid.UUID) (models.Role, bool) {
	for _, m := range f.memberships {
		if m.UserID == userID && m.ProjectID == projectID {
			return m.Role, true
		}
	}
	return 0, false
}

type fakeAdminStore struct {
	admins map[uuid.UUID]*models.CommunityAdmin
}

func newFakeAdminStore() *fakeAdminStore {
	return &fakeAdminStore{admins: make(map[uuid.UUID]*models.CommunityAdmin)}
}

func (f *fakeAdminStore) add(userID, communityID uuid.UUID) *models.CommunityAdmin {
	a := &models.CommunityAdmin{ID: uuid.New(), UserID: userID, CommunityID: communityID}
	f.admins[a.ID] = a
	return a
}

func (f *fakeAdminStore) FindByUser(_ context.Context, _ repositories.DBTX, userID uuid.UUID) (*models.CommunityAdmin, error) {
	for _, a := range f.admins {
		if a.UserID == userID {
			return a, nil
		}
	}
	return nil, nil
}

func (f *fakeAdminStore) Create(_ context.Context, _ repositories.DBTX, a *models.CommunityAdmin) error {
	f.admins[a.ID] = a
	return nil
}

func (f *fakeAdminStore) Delete(_ context.Context, _ repositories.DBTX, id uuid.UUID) error {
	delete(f.admins, id)
	return nil
}

func (f *fakeAdminStore) has(userID, communityID uuid.UUID) bool {
	for _, a := range f.admins {
		if a.UserID == userID && a.CommunityID == communityID {
			return true
		}
	}
	return false
}

type fakeInvitationLedger struct {
	invitations map[uuid.UUID]*models.Invitation
}

func newFakeInvitationLedger() *fakeInvitationLedger {
	return &fakeInvitationLedger{invitations: make(map[uuid.UUID]*models.Invitation)}
}

func (f *fakeInvitationLedger) add(email string, role models.Role, projectID, communityID uuid.UUID) *models.Invitation {
	i := &models.Invitation{
		ID:          uuid.New(),
		Email:       email,
		Role:        role,
		InvitedBy:   uuid.New(),
		ProjectID:   projectID,
		CommunityID: communityID,
	}
	f.invitations[i.ID] = i
	return i
}

func (f *fakeInvitationLedger) ListPendingByEmailAndCommunity(_ context.Context, _ repositories.DBTX, email string, communityID uuid.UUID) ([]*models.Invitation, error) {
	var out []*models.Invitation
	for _, i := range f.invitations {
		if i.Email == email && i.CommunityID == communityID && i.Pending() {
			out = append(out, i)
		}
	}
	return out, nil
}

func (f *fakeInvitationLedger) MarkAccepted(_ context.Context, _ repositories.DBTX, id, userID uuid.UUID, at time.Time) error {
	i := f.invitations[id]
	i.AcceptedAt = &at
	i.InvitedUserID = &userID
	return nil
}

type syncFixture struct {
	engine      *SyncEngine
	projects    *fakeProjectStore
	memberships *fakeMembershipStore
	admins      *fakeAdminStore
	invitations *fakeInvitationLedger
}

func newSyncFixture() *syncFixture {
	f := &syncFixture{
		projects:    newFakeProjectStore(),
		memberships: newFakeMembershipStore(),
		admins:      newFakeAdminStore(),
		invitations: newFakeInvitationLedger(),
	}
	f.engine = NewSyncEngine(f.projects, f.memberships, f.admins, f.invitations, zerolog.Nop())
	return f
}

func TestMembershipChangedPromotion(t *testing.T) {
	f := newSyncFixture()
	ctx := context.Background()

	communityID := uuid.New()
	p1 := f.projects.add(communityID)
	p2 := f.projects.add(communityID)
	userID := uuid.New()

	// Direct Admin membership created on p1
	f.memberships.add(userID, p1, models.RoleAdmin)
	err := f.engine.MembershipChanged(ctx, nil, MembershipEvent{
		Method:    SyncCreate,
		UserID:    userID,
		ProjectID: p1,
		Role:      models.RoleAdmin,
	})
	require.NoError(t, err)

	assert.True(t, f.admins.has(userID, communityID), "promotion should create an admin entry")

	role, ok := f.memberships.roleOn(userID, p2)
	require.True(t, ok, "sibling project should gain a membership")
	assert.Equal(t, models.RoleAdmin, role)
}

func TestMembershipChangedPromotionRaisesExistingSibling(t *testing.T) {
	f := newSyncFixture()
	ctx := context.Background()

	communityID := uuid.New()
	p1 := f.projects.add(communityID)
	p2 := f.projects.add(communityID)
	userID := uuid.New()

	f.memberships.add(userID, p2, models.RoleFacilitator)
	f.memberships.add(userID, p1, models.RoleAdmin)

	err := f.engine.MembershipChanged(ctx, nil, MembershipEvent{
		Method:    SyncPatch,
		UserID:    userID,
		ProjectID: p1,
		Role:      models.RoleAdmin,
	})
	require.NoError(t, err)

	role, ok := f.memberships.roleOn(userID, p2)
	require.True(t, ok)
	assert.Equal(t, models.RoleAdmin, role, "existing sibling membership should be raised, not duplicated")
	assert.Len(t, f.memberships.memberships, 2)
}

func TestMembershipChangedDemotionByPatch(t *testing.T) {
	f := newSyncFixture()
	ctx := context.Background()

	communityID := uuid.New()
	p1 := f.projects.add(communityID)
	p2 := f.projects.add(communityID)
	userID := uuid.New()

	f.admins.add(userID, communityID)
	m1 := f.memberships.add(userID, p1, models.RoleAdmin)
	f.memberships.add(userID, p2, models.RoleAdmin)

	// Role on p1 lowered below the admin threshold
	m1.Role = models.RoleCoordinator
	err := f.engine.MembershipChanged(ctx, nil, MembershipEvent{
		Method:    SyncPatch,
		UserID:    userID,
		ProjectID: p1,
		Role:      models.RoleCoordinator,
	})
	require.NoError(t, err)

	assert.False(t, f.admins.has(userID, communityID), "demotion should delete the admin entry")

	// The patch is mirrored: the sibling role is lowered, the membership stays
	role, ok := f.memberships.roleOn(userID, p2)
	require.True(t, ok, "sibling membership should survive a demotion by patch")
	assert.Equal(t, models.RoleCoordinator, role)
}

func TestMembershipChangedDemotionByRemoval(t *testing.T) {
	f := newSyncFixture()
	ctx := context.Background()

	communityID := uuid.New()
	p1 := f.projects.add(communityID)
	p2 := f.projects.add(communityID)
	userID := uuid.New()

	f.admins.add(userID, communityID)
	f.memberships.add(userID, p2, models.RoleAdmin)

	// Membership on p1 already deleted; Role carries the prior role
	err := f.engine.MembershipChanged(ctx, nil, MembershipEvent{
		Method:    SyncRemove,
		UserID:    userID,
		ProjectID: p1,
		Role:      models.RoleAdmin,
	})
	require.NoError(t, err)

	assert.False(t, f.admins.has(userID, communityID))

	_, ok := f.memberships.roleOn(userID, p2)
	assert.False(t, ok, "removal should be mirrored onto sibling projects")
}

func TestMembershipChangedNoTransition(t *testing.T) {
	f := newSyncFixture()
	ctx := context.Background()

	communityID := uuid.New()
	p1 := f.projects.add(communityID)
	p2 := f.projects.add(communityID)
	userID := uuid.New()

	// Coordinator stays below the threshold and no admin entry exists
	f.memberships.add(userID, p1, models.RoleCoordinator)
	err := f.engine.MembershipChanged(ctx, nil, MembershipEvent{
		Method:    SyncCreate,
		UserID:    userID,
		ProjectID: p1,
		Role:      models.RoleCoordinator,
	})
	require.NoError(t, err)

	assert.False(t, f.admins.has(userID, communityID))
	_, ok := f.memberships.roleOn(userID, p2)
	assert.False(t, ok, "sub-admin mutations must not touch sibling projects")
}

func TestMembershipChangedAlreadyAdminIsStable(t *testing.T) {
	f := newSyncFixture()
	ctx := context.Background()

	communityID := uuid.New()
	p1 := f.projects.add(communityID)
	p2 := f.projects.add(communityID)
	userID := uuid.New()

	f.admins.add(userID, communityID)
	f.memberships.add(userID, p1, models.RoleAdmin)
	f.memberships.add(userID, p2, models.RoleAdmin)

	// Re-running an admin-level event while the entry exists changes nothing
	err := f.engine.MembershipChanged(ctx, nil, MembershipEvent{
		Method:    SyncPatch,
		UserID:    userID,
		ProjectID: p1,
		Role:      models.RoleAdmin,
	})
	require.NoError(t, err)

	assert.True(t, f.admins.has(userID, communityID))
	assert.Len(t, f.admins.admins, 1)
	assert.Len(t, f.memberships.memberships, 2)
}

func TestMembershipChangedAdminOfAnotherCommunity(t *testing.T) {
	f := newSyncFixture()
	ctx := context.Background()

	homeCommunityID := uuid.New()
	otherCommunityID := uuid.New()
	f.projects.add(homeCommunityID)
	p1 := f.projects.add(otherCommunityID)
	p2 := f.projects.add(otherCommunityID)
	userID := uuid.New()

	// A user holds at most one admin entry; here it belongs to home
	f.admins.add(userID, homeCommunityID)

	f.memberships.add(userID, p1, models.RoleAdmin)
	err := f.engine.MembershipChanged(ctx, nil, MembershipEvent{
		Method:    SyncCreate,
		UserID:    userID,
		ProjectID: p1,
		Role:      models.RoleAdmin,
	})
	require.NoError(t, err)

	assert.False(t, f.admins.has(userID, otherCommunityID), "no second admin entry may be created")
	assert.True(t, f.admins.has(userID, homeCommunityID), "the existing admin entry must survive")
	_, ok := f.memberships.roleOn(userID, p2)
	assert.False(t, ok, "skipped promotion must not touch sibling projects")

	// A sub-admin patch in the other community must not revoke the home entry
	err = f.engine.MembershipChanged(ctx, nil, MembershipEvent{
		Method:    SyncPatch,
		UserID:    userID,
		ProjectID: p1,
		Role:      models.RoleCoordinator,
	})
	require.NoError(t, err)
	assert.True(t, f.admins.has(userID, homeCommunityID))
}

func TestMembershipChangedUnknownProject(t *testing.T) {
	f := newSyncFixture()

	err := f.engine.MembershipChanged(context.Background(), nil, MembershipEvent{
		Method:    SyncCreate,
		UserID:    uuid.New(),
		ProjectID: uuid.New(),
		Role:      models.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Empty(t, f.admins.admins)
}

func TestAdminGranted(t *testing.T) {
	f := newSyncFixture()
	ctx := context.Background()

	communityID := uuid.New()
	p1 := f.projects.add(communityID)
	p2 := f.projects.add(communityID)
	p3 := f.projects.add(communityID)
	userID := uuid.New()

	f.memberships.add(userID, p1, models.RoleFacilitator)
	f.memberships.add(userID, p2, models.RoleAdmin)

	err := f.engine.AdminGranted(ctx, nil, userID, communityID)
	require.NoError(t, err)

	for _, projectID := range []uuid.UUID{p1, p2, p3} {
		role, ok := f.memberships.roleOn(userID, projectID)
		require.True(t, ok, "every project in the community should hold a membership")
		assert.Equal(t, models.RoleAdmin, role)
	}
	assert.Len(t, f.memberships.memberships, 3)
}

func TestAdminRevoked(t *testing.T) {
	f := newSyncFixture()
	ctx := context.Background()

	communityID := uuid.New()
	otherCommunityID := uuid.New()
	p1 := f.projects.add(communityID)
	p2 := f.projects.add(communityID)
	elsewhere := f.projects.add(otherCommunityID)
	userID := uuid.New()

	f.memberships.add(userID, p1, models.RoleAdmin)
	f.memberships.add(userID, p2, models.RoleAdmin)
	f.memberships.add(userID, elsewhere, models.RoleAdmin)

	err := f.engine.AdminRevoked(ctx, nil, userID, communityID)
	require.NoError(t, err)

	_, ok := f.memberships.roleOn(userID, p1)
	assert.False(t, ok)
	_, ok = f.memberships.roleOn(userID, p2)
	assert.False(t, ok)

	role, ok := f.memberships.roleOn(userID, elsewhere)
	require.True(t, ok, "memberships outside the community must be untouched")
	assert.Equal(t, models.RoleAdmin, role)
}

func TestResolveOutstanding(t *testing.T) {
	f := newSyncFixture()
	ctx := context.Background()

	communityID := uuid.New()
	otherCommunityID := uuid.New()
	projectID := f.projects.add(communityID)
	userID := uuid.New()
	now := time.Now()

	mine := f.invitations.add("casey@example.org", models.RoleFacilitator, projectID, communityID)
	otherEmail := f.invitations.add("sam@example.org", models.RoleFacilitator, projectID, communityID)
	otherCommunity := f.invitations.add("casey@example.org", models.RoleFacilitator, uuid.New(), otherCommunityID)

	err := f.engine.ResolveOutstanding(ctx, nil, "casey@example.org", userID, communityID, now)
	require.NoError(t, err)

	assert.False(t, mine.Pending(), "pending invitation for the email in the community should be resolved")
	require.NotNil(t, mine.InvitedUserID)
	assert.Equal(t, userID, *mine.InvitedUserID)

	assert.True(t, otherEmail.Pending(), "other addressees' invitations must stay open")
	assert.True(t, otherCommunity.Pending(), "invitations in other communities must stay open")
}

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
	"github.com/cedarwell/wellspring/internal/pkg/apperrors"
)

// Remaining ledger methods so fakeInvitationLedger satisfies invitationStore
// as well as the engine's narrower surface.

func (f *fakeInvitationLedger) Create(_ context.Context, _ repositories.DBTX, i *models.Invitation) error {
	f.invitations[i.ID] = i
	return nil
}

func (f *fakeInvitationLedger) FindByID(_ context.Context, _ repositories.DBTX, id uuid.UUID) (*models.Invitation, error) {
	return f.invitations[id], nil
}

func (f *fakeInvitationLedger) FindPendingByEmailAndProject(_ context.Context, _ repositories.DBTX, email string, projectID uuid.UUID) (*models.Invitation, error) {
	for _, i := range f.invitations {
		if i.Email == email && i.ProjectID == projectID && i.Pending() {
			return i, nil
		}
	}
	return nil, nil
}

func (f *fakeInvitationLedger) ListOpenForProjectScope(_ context.Context, _ repositories.DBTX, projectID, communityID uuid.UUID, adminRole models.Role) ([]*models.Invitation, error) {
	var out []*models.Invitation
	for _, i := range f.invitations {
		if !i.Pending() {
			continue
		}
		if i.ProjectID == projectID || (i.CommunityID == communityID && i.Role.AtLeast(adminRole)) {
			out = append(out, i)
		}
	}
	return out, nil
}

func (f *fakeInvitationLedger) UpdateRole(_ context.Context, _ repositories.DBTX, id uuid.UUID, role models.Role) error {
	f.invitations[id].Role = role
	return nil
}

func (f *fakeInvitationLedger) Delete(_ context.Context, _ repositories.DBTX, id uuid.UUID) error {
	delete(f.invitations, id)
	return nil
}

type fakeUserStore struct {
	users map[uuid.UUID]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[uuid.UUID]*models.User)}
}

func (f *fakeUserStore) add(email string) *models.User {
	u := &models.User{ID: uuid.New(), Email: email}
	f.users[u.ID] = u
	return u
}

func (f *fakeUserStore) FindByEmail(_ context.Context, _ repositories.DBTX, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) SetVerified(_ context.Context, _ repositories.DBTX, id uuid.UUID) error {
	if u, ok := f.users[id]; ok {
		u.IsVerified = true
	}
	return nil
}

type fakeCommunityStore struct {
	communities map[uuid.UUID]*models.Community
}

func (f *fakeCommunityStore) FindByID(_ context.Context, _ repositories.DBTX, id uuid.UUID) (*models.Community, error) {
	return f.communities[id], nil
}

type invitationFixture struct {
	*syncFixture
	service *InvitationService
	ledger  *fakeInvitationLedger
	users   *fakeUserStore
}

func newInvitationFixture() *invitationFixture {
	sf := newSyncFixture()
	users := newFakeUserStore()
	f := &invitationFixture{
		syncFixture: sf,
		ledger:      sf.invitations,
		users:       users,
	}
	f.service = &InvitationService{
		invitations: sf.invitations,
		memberships: sf.memberships,
		projects:    sf.projects,
		communities: &fakeCommunityStore{communities: make(map[uuid.UUID]*models.Community)},
		admins:      sf.admins,
		users:       users,
		sync:        sf.engine,
		baseURL:     "http://localhost:8080",
		logger:      zerolog.Nop(),
	}
	return f
}

func coordinatorOn(f *invitationFixture, projectID uuid.UUID) *models.User {
	actor := f.users.add("coordinator@example.org")
	f.memberships.add(actor.ID, projectID, models.RoleCoordinator)
	return actor
}

func TestCreateInvitationUnknownProject(t *testing.T) {
	f := newInvitationFixture()
	actor := &models.User{ID: uuid.New(), IsSuperadmin: true}

	_, err := f.service.createInvitation(context.Background(), nil, actor, "new@example.org", models.RoleFacilitator, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrProjectNotFound)
}

func TestCreateInvitationRequiresCoordinator(t *testing.T) {
	f := newInvitationFixture()
	projectID := f.projects.add(uuid.New())

	facilitator := f.users.add("facilitator@example.org")
	f.memberships.add(facilitator.ID, projectID, models.RoleFacilitator)

	_, err := f.service.createInvitation(context.Background(), nil, facilitator, "new@example.org", models.RoleFacilitator, projectID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	outsider := f.users.add("outsider@example.org")
	_, err = f.service.createInvitation(context.Background(), nil, outsider, "new@example.org", models.RoleFacilitator, projectID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestCreateInvitationDuplicatePending(t *testing.T) {
	f := newInvitationFixture()
	communityID := uuid.New()
	projectID := f.projects.add(communityID)
	actor := coordinatorOn(f, projectID)

	f.ledger.add("new@example.org", models.RoleFacilitator, projectID, communityID)

	_, err := f.service.createInvitation(context.Background(), nil, actor, "new@example.org", models.RoleCoordinator, projectID)
	assert.ErrorIs(t, err, apperrors.ErrDuplicateInvite)
}

func TestCreateInvitationAlreadyMember(t *testing.T) {
	f := newInvitationFixture()
	projectID := f.projects.add(uuid.New())
	actor := coordinatorOn(f, projectID)

	member := f.users.add("member@example.org")
	f.memberships.add(member.ID, projectID, models.RoleFacilitator)

	_, err := f.service.createInvitation(context.Background(), nil, actor, "member@example.org", models.RoleFacilitator, projectID)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyMember)
}

func TestCreateInvitationAdminSupersedes(t *testing.T) {
	f := newInvitationFixture()
	communityID := uuid.New()
	p1 := f.projects.add(communityID)
	p2 := f.projects.add(communityID)
	actor := &models.User{ID: uuid.New(), IsSuperadmin: true}

	narrower := f.ledger.add("new@example.org", models.RoleFacilitator, p2, communityID)

	invite, err := f.service.createInvitation(context.Background(), nil, actor, "new@example.org", models.RoleAdmin, p1)
	require.NoError(t, err)
	require.NotNil(t, invite)

	_, exists := f.ledger.invitations[narrower.ID]
	assert.False(t, exists, "admin-level offer should supersede the narrower pending invitation")
	_, exists = f.ledger.invitations[invite.ID]
	assert.True(t, exists)
	assert.Equal(t, communityID, invite.CommunityID, "the community is derived from the project")
}

func TestCreateInvitationFacilitatorDoesNotSupersede(t *testing.T) {
	f := newInvitationFixture()
	communityID := uuid.New()
	p1 := f.projects.add(communityID)
	p2 := f.projects.add(communityID)
	actor := &models.User{ID: uuid.New(), IsSuperadmin: true}

	other := f.ledger.add("new@example.org", models.RoleCoordinator, p2, communityID)

	_, err := f.service.createInvitation(context.Background(), nil, actor, "new@example.org", models.RoleFacilitator, p1)
	require.NoError(t, err)

	_, exists := f.ledger.invitations[other.ID]
	assert.True(t, exists, "sub-admin offers coexist across projects")
}

func TestSupersedeKeepsTheGivenInvitation(t *testing.T) {
	f := newInvitationFixture()
	communityID := uuid.New()
	projectID := f.projects.add(communityID)

	keep := f.ledger.add("new@example.org", models.RoleAdmin, projectID, communityID)
	drop := f.ledger.add("new@example.org", models.RoleFacilitator, f.projects.add(communityID), communityID)
	unrelated := f.ledger.add("sam@example.org", models.RoleFacilitator, projectID, communityID)

	err := f.service.supersede(context.Background(), nil, "new@example.org", communityID, keep.ID)
	require.NoError(t, err)

	_, exists := f.ledger.invitations[keep.ID]
	assert.True(t, exists)
	_, exists = f.ledger.invitations[drop.ID]
	assert.False(t, exists)
	_, exists = f.ledger.invitations[unrelated.ID]
	assert.True(t, exists, "other addressees are untouched")
}

func TestApplyAcceptanceMembership(t *testing.T) {
	f := newInvitationFixture()
	communityID := uuid.New()
	projectID := f.projects.add(communityID)

	actor := f.users.add("invitee@example.org")
	invite := f.ledger.add("invitee@example.org", models.RoleFacilitator, projectID, communityID)
	now := time.Now()

	err := f.service.applyAcceptance(context.Background(), nil, invite, actor, now)
	require.NoError(t, err)

	assert.False(t, invite.Pending())
	require.NotNil(t, invite.InvitedUserID)
	assert.Equal(t, actor.ID, *invite.InvitedUserID)

	role, ok := f.memberships.roleOn(actor.ID, projectID)
	require.True(t, ok)
	assert.Equal(t, models.RoleFacilitator, role)

	assert.False(t, f.admins.has(actor.ID, communityID), "a facilitator offer grants no admin status")
	assert.True(t, actor.IsVerified, "accepting an invitation verifies the account")
}

func TestApplyAcceptanceAdmin(t *testing.T) {
	f := newInvitationFixture()
	communityID := uuid.New()
	p1 := f.projects.add(communityID)
	p2 := f.projects.add(communityID)

	actor := f.users.add("invitee@example.org")
	invite := f.ledger.add("invitee@example.org", models.RoleAdmin, p1, communityID)
	outstanding := f.ledger.add("invitee@example.org", models.RoleFacilitator, p2, communityID)
	now := time.Now()

	err := f.service.applyAcceptance(context.Background(), nil, invite, actor, now)
	require.NoError(t, err)

	assert.True(t, f.admins.has(actor.ID, communityID))

	for _, projectID := range []uuid.UUID{p1, p2} {
		role, ok := f.memberships.roleOn(actor.ID, projectID)
		require.True(t, ok, "admin acceptance grants a membership on every project")
		assert.Equal(t, models.RoleAdmin, role)
	}

	assert.False(t, outstanding.Pending(), "other invitations for the user in the community resolve too")
	require.NotNil(t, outstanding.InvitedUserID)
	assert.Equal(t, actor.ID, *outstanding.InvitedUserID)
}

func TestApplyAcceptanceAdminOfAnotherCommunity(t *testing.T) {
	f := newInvitationFixture()
	homeCommunityID := uuid.New()
	otherCommunityID := uuid.New()
	projectID := f.projects.add(otherCommunityID)

	actor := f.users.add("invitee@example.org")
	f.admins.add(actor.ID, homeCommunityID)
	invite := f.ledger.add("invitee@example.org", models.RoleAdmin, projectID, otherCommunityID)

	err := f.service.applyAcceptance(context.Background(), nil, invite, actor, time.Now())
	require.Error(t, err, "a user holds at most one admin entry")
	assert.False(t, f.admins.has(actor.ID, otherCommunityID))
	assert.True(t, f.admins.has(actor.ID, homeCommunityID))
}

func TestApplyAcceptanceExistingMembershipIsKept(t *testing.T) {
	f := newInvitationFixture()
	communityID := uuid.New()
	projectID := f.projects.add(communityID)

	actor := f.users.add("invitee@example.org")
	f.memberships.add(actor.ID, projectID, models.RoleCoordinator)
	invite := f.ledger.add("invitee@example.org", models.RoleFacilitator, projectID, communityID)

	err := f.service.applyAcceptance(context.Background(), nil, invite, actor, time.Now())
	require.NoError(t, err)

	role, ok := f.memberships.roleOn(actor.ID, projectID)
	require.True(t, ok)
	assert.Equal(t, models.RoleCoordinator, role, "an existing membership is not overwritten")
	assert.Len(t, f.memberships.memberships, 1)
}

func TestListForProjectScope(t *testing.T) {
	f := newInvitationFixture()
	communityID := uuid.New()
	p1 := f.projects.add(communityID)
	p2 := f.projects.add(communityID)

	own := f.ledger.add("a@example.org", models.RoleFacilitator, p1, communityID)
	adminWide := f.ledger.add("b@example.org", models.RoleAdmin, p2, communityID)
	f.ledger.add("c@example.org", models.RoleFacilitator, p2, communityID)

	// ListForProject reads through the pool, so exercise the scope query shape
	// directly against the ledger here.
	invitations, err := f.ledger.ListOpenForProjectScope(context.Background(), nil, p1, communityID, models.MinAdminSyncRole)
	require.NoError(t, err)

	ids := make(map[uuid.UUID]bool, len(invitations))
	for _, i := range invitations {
		ids[i.ID] = true
	}
	assert.True(t, ids[own.ID], "the project's own invitations are visible")
	assert.True(t, ids[adminWide.ID], "community-wide admin offers are visible from every project")
	assert.Len(t, invitations, 2, "sub-admin offers on sibling projects are not")
}

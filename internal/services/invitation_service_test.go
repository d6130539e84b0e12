package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yukikurage/kanban-board-api/internal/audit"
	"github.com/yukikurage/kanban-board-api/internal/models"
	"github.com/yukikurage/kanban-board-api/internal/testutil"
)

const testInvitationTTL = 7 * 24 * time.Hour

func TestInvitationService_AcceptTwice(t *testing.T) {
	env := newTestEnv(t)
	svc := env.invitations()
	ctx := testutil.TestContext(t)
	invitee := testutil.CreateTestUser(t, env.db, "invitee")

	created, err := svc.CreateInvitation(ctx, env.admin.ID, env.project.ID, CreateInvitationInput{
		Email: invitee.Email,
		Role:  models.RoleAdmin,
	})
	require.NoError(t, err)
	require.Len(t, env.mailer.Invitations, 1)
	assert.Equal(t, created.PreviewURL, env.mailer.Invitations[0].AcceptURL)

	result, err := svc.AcceptInvitation(ctx, created.Invitation.Token)
	require.NoError(t, err)
	assert.Equal(t, env.project.ID, result.ProjectID)
	assert.Equal(t, invitee.ID, result.UserID)
	assert.Equal(t, models.RoleAdmin, result.Role)
	assert.False(t, result.AlreadyMember)

	result, err = svc.AcceptInvitation(ctx, created.Invitation.Token)
	require.ErrorIs(t, err, ErrInvitationAlreadyAccepted)
	assert.Equal(t, env.project.ID, result.ProjectID, "redirect target survives the error")

	assert.Equal(t, int64(1), testutil.Count(t, env.db, &models.ProjectMember{}, "project_id = ? AND user_id = ?", env.project.ID, invitee.ID))
	assert.Equal(t, int64(1), env.auditCount(t, audit.ActionInvitationAccepted))
	assert.Equal(t, int64(1), env.auditCount(t, audit.ActionMemberAdded))
}

func TestInvitationService_AcceptWhenAlreadyMember(t *testing.T) {
	env := newTestEnv(t)
	svc := env.invitations()
	ctx := testutil.TestContext(t)
	invitee := testutil.CreateTestUser(t, env.db, "invitee")

	created, err := svc.CreateInvitation(ctx, env.owner.ID, env.project.ID, CreateInvitationInput{
		Email: invitee.Email,
		Role:  models.RoleMember,
	})
	require.NoError(t, err)

	// Joined through another route while the invitation was pending.
	testutil.AddTestMember(t, env.db, env.project, invitee, models.RoleAdmin)

	result, err := svc.AcceptInvitation(ctx, created.Invitation.Token)
	require.NoError(t, err)
	assert.True(t, result.AlreadyMember)
	assert.Equal(t, models.RoleAdmin, result.Role, "existing role is kept")

	var invitation models.ProjectInvitation
	require.NoError(t, env.db.First(&invitation, created.Invitation.ID).Error)
	assert.Equal(t, models.InvitationAccepted, invitation.Status)
	assert.Zero(t, env.auditCount(t, audit.ActionMemberAdded))
}

func TestInvitationService_LazyExpiry(t *testing.T) {
	env := newTestEnv(t)
	svc := env.invitations()
	ctx := testutil.TestContext(t)
	invitee := testutil.CreateTestUser(t, env.db, "invitee")

	created, err := svc.CreateInvitation(ctx, env.owner.ID, env.project.ID, CreateInvitationInput{
		Email: invitee.Email,
		Role:  models.RoleMember,
	})
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(testInvitationTTL + time.Minute) }

	preview, err := svc.PreviewInvitation(ctx, created.Invitation.Token)
	require.NoError(t, err)
	assert.Equal(t, models.InvitationExpired, preview.Status)
	assert.Zero(t, env.auditCount(t, audit.ActionInvitationExpired), "preview does not write")

	_, err = svc.AcceptInvitation(ctx, created.Invitation.Token)
	require.ErrorIs(t, err, ErrInvitationExpired)

	var invitation models.ProjectInvitation
	require.NoError(t, env.db.First(&invitation, created.Invitation.ID).Error)
	assert.Equal(t, models.InvitationExpired, invitation.Status, "expiry is committed despite the error")
	assert.Zero(t, testutil.Count(t, env.db, &models.ProjectMember{}, "user_id = ?", invitee.ID))

	var event models.AuditLog
	require.NoError(t, env.db.Where("action = ?", audit.ActionInvitationExpired).First(&event).Error)
	assert.Nil(t, event.UserID, "expiry is a system event")

	_, err = svc.AcceptInvitation(ctx, created.Invitation.Token)
	require.ErrorIs(t, err, ErrInvitationExpired)
	assert.Equal(t, int64(1), env.auditCount(t, audit.ActionInvitationExpired), "expired once")
}

func TestInvitationService_AccountRequiredKeepsPending(t *testing.T) {
	env := newTestEnv(t)
	svc := env.invitations()
	ctx := testutil.TestContext(t)

	created, err := svc.CreateInvitation(ctx, env.owner.ID, env.project.ID, CreateInvitationInput{
		Email: "later@example.com",
		Role:  models.RoleMember,
	})
	require.NoError(t, err)

	_, err = svc.AcceptInvitation(ctx, created.Invitation.Token)
	require.ErrorIs(t, err, ErrInvitationAccountRequired)

	user := testutil.CreateTestUser(t, env.db, "later")
	require.NoError(t, env.db.Model(user).Update("email", "later@example.com").Error)

	result, err := svc.AcceptInvitation(ctx, created.Invitation.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, result.UserID)
}

func TestInvitationService_MailFailureRollsBack(t *testing.T) {
	env := newTestEnv(t)
	svc := env.invitations()
	ctx := testutil.TestContext(t)
	env.mailer.Err = errors.New("connection refused")

	_, err := svc.CreateInvitation(ctx, env.owner.ID, env.project.ID, CreateInvitationInput{
		Email: "someone@example.com",
		Role:  models.RoleMember,
	})
	require.ErrorIs(t, err, ErrInvitationDelivery)
	assert.Contains(t, err.Error(), "connection refused")

	assert.Zero(t, testutil.Count(t, env.db, &models.ProjectInvitation{}, "project_id = ?", env.project.ID))
	assert.Zero(t, env.auditCount(t, audit.ActionInvitationCreated))
}

func TestInvitationService_CreateReplacesStalePending(t *testing.T) {
	env := newTestEnv(t)
	svc := env.invitations()
	ctx := testutil.TestContext(t)

	first, err := svc.CreateInvitation(ctx, env.owner.ID, env.project.ID, CreateInvitationInput{Email: "x@example.com", Role: models.RoleMember})
	require.NoError(t, err)

	_, err = svc.CreateInvitation(ctx, env.owner.ID, env.project.ID, CreateInvitationInput{Email: "X@Example.com", Role: models.RoleMember})
	require.ErrorIs(t, err, ErrDuplicateInvitation)

	svc.now = func() time.Time { return time.Now().Add(testInvitationTTL + time.Hour) }

	second, err := svc.CreateInvitation(ctx, env.owner.ID, env.project.ID, CreateInvitationInput{Email: "x@example.com", Role: models.RoleMember})
	require.NoError(t, err)
	assert.NotEqual(t, first.Invitation.Token, second.Invitation.Token)

	var old models.ProjectInvitation
	require.NoError(t, env.db.First(&old, first.Invitation.ID).Error)
	assert.Equal(t, models.InvitationExpired, old.Status)
}

func TestInvitationService_CreateValidation(t *testing.T) {
	env := newTestEnv(t)
	svc := env.invitations()
	ctx := testutil.TestContext(t)

	_, err := svc.CreateInvitation(ctx, env.owner.ID, env.project.ID, CreateInvitationInput{Email: "nope", Role: models.RoleMember})
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = svc.CreateInvitation(ctx, env.owner.ID, env.project.ID, CreateInvitationInput{Email: "a@example.com", Role: models.RoleOwner})
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, err = svc.CreateInvitation(ctx, env.member.ID, env.project.ID, CreateInvitationInput{Email: "a@example.com", Role: models.RoleMember})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.CreateInvitation(ctx, env.owner.ID, env.project.ID, CreateInvitationInput{Email: env.member.Email, Role: models.RoleMember})
	assert.ErrorIs(t, err, ErrAlreadyProjectMember)

	_, err = svc.CreateInvitation(ctx, env.owner.ID, env.project.ID, CreateInvitationInput{Email: env.owner.Email, Role: models.RoleMember})
	assert.ErrorIs(t, err, ErrAlreadyProjectMember, "the owner counts as on the project")

	assert.Empty(t, env.mailer.Invitations)
}

func TestInvitationService_RejectAndCancel(t *testing.T) {
	env := newTestEnv(t)
	svc := env.invitations()
	ctx := testutil.TestContext(t)
	invitee := testutil.CreateTestUser(t, env.db, "invitee")

	rejected, err := svc.CreateInvitation(ctx, env.owner.ID, env.project.ID, CreateInvitationInput{Email: invitee.Email, Role: models.RoleMember})
	require.NoError(t, err)
	require.NoError(t, svc.RejectInvitation(ctx, rejected.Invitation.Token))

	_, err = svc.AcceptInvitation(ctx, rejected.Invitation.Token)
	assert.ErrorIs(t, err, ErrInvitationNotPending)

	var event models.AuditLog
	require.NoError(t, env.db.Where("action = ?", audit.ActionInvitationRejected).First(&event).Error)
	require.NotNil(t, event.UserID)
	assert.Equal(t, invitee.ID, *event.UserID)

	cancelled, err := svc.CreateInvitation(ctx, env.owner.ID, env.project.ID, CreateInvitationInput{Email: "c@example.com", Role: models.RoleMember})
	require.NoError(t, err)

	pending, err := svc.ListPendingInvitations(ctx, env.admin.ID, env.project.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, svc.CancelInvitation(ctx, env.admin.ID, env.project.ID, cancelled.Invitation.ID))
	_, err = svc.AcceptInvitation(ctx, cancelled.Invitation.Token)
	assert.ErrorIs(t, err, ErrInvitationNotFound)
	assert.Equal(t, int64(1), env.auditCount(t, audit.ActionInvitationCancelled))

	err = svc.CancelInvitation(ctx, env.admin.ID, env.project.ID+1000, cancelled.Invitation.ID)
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestInvitationService_ExpireStale(t *testing.T) {
	env := newTestEnv(t)
	svc := env.invitations()
	ctx := testutil.TestContext(t)

	for _, email := range []string{"a@example.com", "b@example.com"} {
		_, err := svc.CreateInvitation(ctx, env.owner.ID, env.project.ID, CreateInvitationInput{Email: email, Role: models.RoleMember})
		require.NoError(t, err)
	}

	n, err := svc.ExpireStale(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	svc.now = func() time.Time { return time.Now().Add(testInvitationTTL + time.Minute) }
	n, err = svc.ExpireStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, int64(2), env.auditCount(t, audit.ActionInvitationExpired))

	n, err = svc.ExpireStale(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestInvitationService_Links(t *testing.T) {
	env := newTestEnv(t)
	svc := env.invitations()
	ctx := testutil.TestContext(t)
	joiner := testutil.CreateTestUser(t, env.db, "joiner")

	_, err := svc.GetActiveLink(ctx, env.admin.ID, env.project.ID)
	require.ErrorIs(t, err, ErrInvitationLinkNotFound)

	first, err := svc.CreateLink(ctx, env.admin.ID, env.project.ID)
	require.NoError(t, err)
	second, err := svc.CreateLink(ctx, env.admin.ID, env.project.ID)
	require.NoError(t, err)

	active, err := svc.GetActiveLink(ctx, env.owner.ID, env.project.ID)
	require.NoError(t, err)
	assert.Equal(t, second.Link.ID, active.Link.ID, "creating a link replaces the active one")

	_, err = svc.AcceptLink(ctx, joiner.ID, first.Link.Token)
	require.ErrorIs(t, err, ErrInvitationLinkInactive)

	result, err := svc.AcceptLink(ctx, joiner.ID, second.Link.Token)
	require.NoError(t, err)
	assert.False(t, result.AlreadyMember)
	assert.Equal(t, models.RoleMember, result.Role)

	result, err = svc.AcceptLink(ctx, joiner.ID, second.Link.Token)
	require.NoError(t, err)
	assert.True(t, result.AlreadyMember)
	assert.Equal(t, int64(1), env.auditCount(t, audit.ActionMemberJoinedViaLink))

	svc.now = func() time.Time { return time.Now().Add(testInvitationTTL + time.Minute) }
	_, err = svc.AcceptLink(ctx, testutil.CreateTestUser(t, env.db, "late").ID, second.Link.Token)
	require.ErrorIs(t, err, ErrInvitationLinkExpired)

	_, err = svc.CreateLink(ctx, env.member.ID, env.project.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestInvitationService_AcceptRaceIsRetryable(t *testing.T) {
	env := newTestEnv(t)
	svc := env.invitations()
	ctx := testutil.TestContext(t)
	invitee := testutil.CreateTestUser(t, env.db, "invitee")

	created, err := svc.CreateInvitation(ctx, env.owner.ID, env.project.ID, CreateInvitationInput{Email: invitee.Email, Role: models.RoleAdmin})
	require.NoError(t, err)

	staged := testutil.RaceMemberInsert(t, env.db)

	result, err := svc.AcceptInvitation(ctx, created.Invitation.Token)
	require.True(t, staged())
	require.ErrorIs(t, err, ErrInvitationRetry)
	assert.Equal(t, env.project.ID, result.ProjectID)

	var invitation models.ProjectInvitation
	require.NoError(t, env.db.First(&invitation, created.Invitation.ID).Error)
	assert.Equal(t, models.InvitationPending, invitation.Status)
	assert.Zero(t, env.auditCount(t, audit.ActionInvitationAccepted))
	assert.Zero(t, testutil.Count(t, env.db, &models.ProjectMember{}, "user_id = ?", invitee.ID), "the staged row rolls back with the transaction")

	result, err = svc.AcceptInvitation(ctx, created.Invitation.Token)
	require.NoError(t, err)
	assert.False(t, result.AlreadyMember)
	assert.Equal(t, models.RoleAdmin, result.Role)
}

func TestInvitationService_LinkRaceIsRetryable(t *testing.T) {
	env := newTestEnv(t)
	svc := env.invitations()
	ctx := testutil.TestContext(t)
	joiner := testutil.CreateTestUser(t, env.db, "joiner")

	link, err := svc.CreateLink(ctx, env.owner.ID, env.project.ID)
	require.NoError(t, err)

	staged := testutil.RaceMemberInsert(t, env.db)

	_, err = svc.AcceptLink(ctx, joiner.ID, link.Link.Token)
	require.True(t, staged())
	require.ErrorIs(t, err, ErrInvitationRetry)
	assert.Zero(t, env.auditCount(t, audit.ActionMemberJoinedViaLink))
}

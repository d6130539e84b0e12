package services

import (
	"testing"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yukikurage/kanban-board-api/internal/audit"
	"github.com/yukikurage/kanban-board-api/internal/models"
	"github.com/yukikurage/kanban-board-api/internal/repository"
	"github.com/yukikurage/kanban-board-api/internal/testutil"
)

type testEnv struct {
	db       *gorm.DB
	store    *repository.Store
	recorder *audit.Recorder
	mailer   *testutil.FakeMailer

	owner   *models.User
	admin   *models.User
	member  *models.User
	project *models.Project
	columns []models.TaskColumn
}

// newTestEnv seeds a project with an owner, an admin and a member.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.SetupTestDB(t)
	env := &testEnv{
		db:       db,
		store:    repository.NewStore(db),
		recorder: audit.NewRecorder(),
		mailer:   &testutil.FakeMailer{},
		owner:    testutil.CreateTestUser(t, db, "owner"),
		admin:    testutil.CreateTestUser(t, db, "admin"),
		member:   testutil.CreateTestUser(t, db, "member"),
	}
	env.project, env.columns = testutil.CreateTestProject(t, db, env.owner)
	testutil.AddTestMember(t, db, env.project, env.admin, models.RoleAdmin)
	testutil.AddTestMember(t, db, env.project, env.member, models.RoleMember)
	return env
}

func (e *testEnv) auditCount(t *testing.T, action string) int64 {
	t.Helper()
	return testutil.Count(t, e.db, &models.AuditLog{}, "project_id = ? AND action = ?", e.project.ID, action)
}

func (e *testEnv) invitations() *InvitationService {
	return NewInvitationService(e.store, e.recorder, e.mailer, InvitationOptions{
		BaseURL: "http://board.test",
		TTL:     testInvitationTTL,
		LinkTTL: testInvitationTTL,
	}, zap.NewNop())
}

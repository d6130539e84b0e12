package permission

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yukikurage/kanban-board-api/internal/models"
	"github.com/yukikurage/kanban-board-api/internal/repository"
	"github.com/yukikurage/kanban-board-api/internal/testutil"
)

var allRoles = []models.ProjectRole{models.RoleOwner, models.RoleAdmin, models.RoleMember}

func TestRank_Ordering(t *testing.T) {
	assert.Greater(t, Rank(models.RoleOwner), Rank(models.RoleAdmin))
	assert.Greater(t, Rank(models.RoleAdmin), Rank(models.RoleMember))
	assert.Greater(t, Rank(models.RoleMember), Rank(""))
	assert.Equal(t, 0, Rank("superuser"))
}

func TestGrants_MatchesRank(t *testing.T) {
	for _, actual := range allRoles {
		for _, required := range allRoles {
			want := Rank(actual) >= Rank(required)
			assert.Equal(t, want, Grants(actual, required), "%s vs %s", actual, required)
		}
	}
	assert.False(t, Grants("", models.RoleMember))
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name       string
		ownerID    uint64
		userID     uint64
		memberRole models.ProjectRole
		required   models.ProjectRole
		want       Decision
	}{
		{"owner without membership", 1, 1, "", models.RoleOwner, Decision{HasAccess: true, Role: models.RoleOwner}},
		{"owner with stray member row", 1, 1, models.RoleMember, models.RoleOwner, Decision{HasAccess: true, Role: models.RoleOwner}},
		{"admin meets admin", 1, 2, models.RoleAdmin, models.RoleAdmin, Decision{HasAccess: true, Role: models.RoleAdmin}},
		{"member below admin", 1, 2, models.RoleMember, models.RoleAdmin, Decision{HasAccess: false, Role: models.RoleMember}},
		{"admin below owner", 1, 2, models.RoleAdmin, models.RoleOwner, Decision{HasAccess: false, Role: models.RoleAdmin}},
		{"stranger", 1, 3, "", models.RoleMember, Decision{}},
		{"stored owner role is ignored", 1, 3, models.RoleOwner, models.RoleMember, Decision{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.ownerID, tt.userID, tt.memberRole, tt.required)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got.Role != "", got.Known())
		})
	}
}

func TestEvaluator_Evaluate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	evaluator := NewEvaluator(repository.NewStore(db))
	ctx := context.Background()

	owner := testutil.CreateTestUser(t, db, "owner")
	admin := testutil.CreateTestUser(t, db, "admin")
	member := testutil.CreateTestUser(t, db, "member")
	stranger := testutil.CreateTestUser(t, db, "stranger")
	project, _ := testutil.CreateTestProject(t, db, owner)
	testutil.AddTestMember(t, db, project, admin, models.RoleAdmin)
	testutil.AddTestMember(t, db, project, member, models.RoleMember)

	t.Run("owner resolves to owner even with a membership row", func(t *testing.T) {
		testutil.AddTestMember(t, db, project, owner, models.RoleMember)

		d, err := evaluator.Evaluate(ctx, owner.ID, project.ID, models.RoleOwner)
		require.NoError(t, err)
		assert.Equal(t, Decision{HasAccess: true, Role: models.RoleOwner}, d)
	})

	t.Run("admin is denied owner-only operations", func(t *testing.T) {
		d, err := evaluator.Evaluate(ctx, admin.ID, project.ID, models.RoleOwner)
		require.NoError(t, err)
		assert.False(t, d.HasAccess)
		assert.Equal(t, models.RoleAdmin, d.Role)
	})

	t.Run("member passes default check", func(t *testing.T) {
		d, err := evaluator.CheckAccess(ctx, member.ID, project.ID)
		require.NoError(t, err)
		assert.Equal(t, Decision{HasAccess: true, Role: models.RoleMember}, d)
	})

	t.Run("stranger gets no role", func(t *testing.T) {
		d, err := evaluator.CheckAccess(ctx, stranger.ID, project.ID)
		require.NoError(t, err)
		assert.Equal(t, Decision{}, d)
	})

	t.Run("unknown project looks like no access", func(t *testing.T) {
		d, err := evaluator.CheckAccess(ctx, owner.ID, project.ID+1000)
		require.NoError(t, err)
		assert.Equal(t, Decision{}, d)
	})

	t.Run("infrastructure failure propagates", func(t *testing.T) {
		closed := testutil.SetupTestDB(t)
		sqlDB, err := closed.DB()
		require.NoError(t, err)
		require.NoError(t, sqlDB.Close())

		_, err = NewEvaluator(repository.NewStore(closed)).CheckAccess(ctx, owner.ID, project.ID)
		require.Error(t, err)
	})
}

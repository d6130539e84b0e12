package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yukikurage/kanban-board-api/internal/constants"
	"github.com/yukikurage/kanban-board-api/internal/models"
	"github.com/yukikurage/kanban-board-api/internal/permission"
	"github.com/yukikurage/kanban-board-api/internal/repository"
	"github.com/yukikurage/kanban-board-api/internal/testutil"
)

func TestRequireProjectRole(t *testing.T) {
	gin.SetMode(gin.TestMode)

	db := testutil.SetupTestDB(t)
	evaluator := permission.NewEvaluator(repository.NewStore(db))

	owner := testutil.CreateTestUser(t, db, "owner")
	member := testutil.CreateTestUser(t, db, "member")
	stranger := testutil.CreateTestUser(t, db, "stranger")
	project, _ := testutil.CreateTestProject(t, db, owner)
	testutil.AddTestMember(t, db, project, member, models.RoleMember)

	newRouter := func(userID uint64, minRole models.ProjectRole) *gin.Engine {
		r := gin.New()
		r.GET("/projects/:id", func(c *gin.Context) {
			if userID != 0 {
				c.Set(constants.ContextKeyUserID, userID)
			}
			c.Next()
		}, RequireProjectRole(evaluator, minRole), func(c *gin.Context) {
			role, ok := GetProjectRole(c)
			require.True(t, ok)
			c.String(http.StatusOK, string(role))
		})
		return r
	}

	tests := []struct {
		name    string
		userID  uint64
		minRole models.ProjectRole
		path    string
		status  int
		body    string
	}{
		{"owner passes admin check", owner.ID, models.RoleAdmin, fmt.Sprintf("/projects/%d", project.ID), http.StatusOK, "owner"},
		{"member passes member check", member.ID, models.RoleMember, fmt.Sprintf("/projects/%d", project.ID), http.StatusOK, "member"},
		{"member below admin", member.ID, models.RoleAdmin, fmt.Sprintf("/projects/%d", project.ID), http.StatusForbidden, ""},
		{"stranger sees not found", stranger.ID, models.RoleMember, fmt.Sprintf("/projects/%d", project.ID), http.StatusNotFound, ""},
		{"missing project", owner.ID, models.RoleMember, "/projects/999999", http.StatusNotFound, ""},
		{"bad id", owner.ID, models.RoleMember, "/projects/abc", http.StatusBadRequest, ""},
		{"no user", 0, models.RoleMember, fmt.Sprintf("/projects/%d", project.ID), http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			newRouter(tt.userID, tt.minRole).ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.status, w.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, w.Body.String())
			}
		})
	}
}

func TestGetUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name  string
		value interface{}
		want  uint64
		ok    bool
	}{
		{"uint64", uint64(7), 7, true},
		{"uint", uint(8), 8, true},
		{"int", 9, 9, true},
		{"negative int", -1, 0, false},
		{"string", "7", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Set(constants.ContextKeyUserID, tt.value)

			got, ok := GetUserID(c)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := GetUserID(c)
	assert.False(t, ok)
}

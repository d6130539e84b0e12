package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yukikurage/kanban-board-api/internal/dto"
	"github.com/yukikurage/kanban-board-api/internal/models"
	"github.com/yukikurage/kanban-board-api/internal/testutil"
)

func TestProjectHandler_CreateSeedsDefaultColumns(t *testing.T) {
	s := newTestServer(t)
	owner := testutil.CreateTestUser(t, s.db, "owner")

	w := s.do(http.MethodPost, "/api/projects", map[string]string{
		"name":  "  Launch  ",
		"color": "#10b981",
	}, owner)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created dto.ProjectWithRoleDTO
	testutil.ParseJSONResponse(t, w, &created)
	assert.Equal(t, "Launch", created.Name)
	assert.Equal(t, models.RoleOwner, created.Role)

	w = s.do(http.MethodGet, projectURL(created.ID, "/columns"), nil, owner)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Columns []dto.ColumnDTO `json:"columns"`
	}
	testutil.ParseJSONResponse(t, w, &resp)
	require.Len(t, resp.Columns, 3)
	assert.Equal(t, "To Do", resp.Columns[0].Name)
	assert.Equal(t, "Done", resp.Columns[2].Name)
}

func TestProjectHandler_RejectsBadColor(t *testing.T) {
	s := newTestServer(t)
	owner := testutil.CreateTestUser(t, s.db, "owner")

	w := s.do(http.MethodPost, "/api/projects", map[string]string{"name": "x", "color": "blue"}, owner)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProjectHandler_AccessControl(t *testing.T) {
	s := newTestServer(t)
	owner := testutil.CreateTestUser(t, s.db, "owner")
	admin := testutil.CreateTestUser(t, s.db, "admin")
	member := testutil.CreateTestUser(t, s.db, "member")
	stranger := testutil.CreateTestUser(t, s.db, "stranger")

	project := s.project(owner)
	testutil.AddTestMember(t, s.db, project, admin, models.RoleAdmin)
	testutil.AddTestMember(t, s.db, project, member, models.RoleMember)

	rename := map[string]string{"name": "Renamed"}

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		user   *models.User
		status int
	}{
		{"stranger cannot see project", http.MethodGet, projectURL(project.ID), nil, stranger, http.StatusNotFound},
		{"missing project looks the same", http.MethodGet, projectURL(project.ID + 1000), nil, owner, http.StatusNotFound},
		{"stranger update is hidden too", http.MethodPatch, projectURL(project.ID), rename, stranger, http.StatusNotFound},
		{"member can read", http.MethodGet, projectURL(project.ID), nil, member, http.StatusOK},
		{"member cannot rename", http.MethodPatch, projectURL(project.ID), rename, member, http.StatusForbidden},
		{"admin can rename", http.MethodPatch, projectURL(project.ID), rename, admin, http.StatusOK},
		{"admin cannot delete", http.MethodDelete, projectURL(project.ID), nil, admin, http.StatusForbidden},
		{"member cannot read audit", http.MethodGet, projectURL(project.ID, "/audit-logs"), nil, member, http.StatusForbidden},
		{"malformed id", http.MethodGet, "/api/projects/abc", nil, owner, http.StatusBadRequest},
		{"anonymous", http.MethodGet, projectURL(project.ID), nil, nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(tt.method, tt.path, tt.body, tt.user)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}

	w := s.do(http.MethodDelete, projectURL(project.ID), nil, owner)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, testutil.Count(t, s.db, &models.Project{}, "id = ?", project.ID))
	assert.Zero(t, testutil.Count(t, s.db, &models.TaskColumn{}, "project_id = ?", project.ID))
}

func TestProjectHandler_ListProjectsIncludesRole(t *testing.T) {
	s := newTestServer(t)
	owner := testutil.CreateTestUser(t, s.db, "owner")
	member := testutil.CreateTestUser(t, s.db, "member")

	project := s.project(owner)
	testutil.AddTestMember(t, s.db, project, member, models.RoleMember)
	s.project(testutil.CreateTestUser(t, s.db, "other"))

	w := s.do(http.MethodGet, "/api/projects", nil, member)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Projects []dto.ProjectWithRoleDTO `json:"projects"`
	}
	testutil.ParseJSONResponse(t, w, &resp)
	require.Len(t, resp.Projects, 1)
	assert.Equal(t, project.ID, resp.Projects[0].ID)
	assert.Equal(t, models.RoleMember, resp.Projects[0].Role)
}

func TestProjectHandler_MemberManagement(t *testing.T) {
	s := newTestServer(t)
	owner := testutil.CreateTestUser(t, s.db, "owner")
	admin := testutil.CreateTestUser(t, s.db, "admin")
	member := testutil.CreateTestUser(t, s.db, "member")

	project := s.project(owner)
	testutil.AddTestMember(t, s.db, project, admin, models.RoleAdmin)
	testutil.AddTestMember(t, s.db, project, member, models.RoleMember)

	t.Run("list has owner first", func(t *testing.T) {
		w := s.do(http.MethodGet, projectURL(project.ID, "/members"), nil, member)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Members []dto.MemberDTO `json:"members"`
		}
		testutil.ParseJSONResponse(t, w, &resp)
		require.Len(t, resp.Members, 3)
		assert.Equal(t, owner.ID, resp.Members[0].User.ID)
		assert.Equal(t, models.RoleOwner, resp.Members[0].Role)
	})

	t.Run("admin cannot change roles", func(t *testing.T) {
		w := s.do(http.MethodPatch, projectURL(project.ID, "/members/", itoa(member.ID)), map[string]string{"role": "admin"}, admin)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("owner role is not assignable", func(t *testing.T) {
		w := s.do(http.MethodPatch, projectURL(project.ID, "/members/", itoa(member.ID)), map[string]string{"role": "owner"}, owner)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("admin cannot remove an admin", func(t *testing.T) {
		other := testutil.CreateTestUser(t, s.db, "admin2")
		testutil.AddTestMember(t, s.db, project, other, models.RoleAdmin)

		w := s.do(http.MethodDelete, projectURL(project.ID, "/members/", itoa(other.ID)), nil, admin)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("owner cannot be removed", func(t *testing.T) {
		w := s.do(http.MethodDelete, projectURL(project.ID, "/members/", itoa(owner.ID)), nil, admin)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("owner cannot leave", func(t *testing.T) {
		w := s.do(http.MethodPost, projectURL(project.ID, "/leave"), nil, owner)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("admin removes member", func(t *testing.T) {
		w := s.do(http.MethodDelete, projectURL(project.ID, "/members/", itoa(member.ID)), nil, admin)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = s.do(http.MethodGet, projectURL(project.ID), nil, member)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

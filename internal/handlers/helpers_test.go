package handlers_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yukikurage/kanban-board-api/internal/app"
	"github.com/yukikurage/kanban-board-api/internal/config"
	"github.com/yukikurage/kanban-board-api/internal/models"
	"github.com/yukikurage/kanban-board-api/internal/testutil"
)

type testServer struct {
	t      *testing.T
	db     *gorm.DB
	app    *app.App
	mailer *testutil.FakeMailer
	engine *gin.Engine
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details struct {
		Redirect string `json:"redirect"`
		Retry    bool   `json:"retry"`
	} `json:"details"`
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.SetupTestDB(t)
	cfg := &config.Config{
		BaseURL:            "http://board.test",
		JWTSecret:          "test-secret-key-for-testing",
		JWTExpiryHours:     24,
		InvitationTTLHours: 24 * 7,
		AuditRetentionDays: 90,
	}
	fake := &testutil.FakeMailer{}
	application := app.New(cfg, zap.NewNop(), db, fake)
	store := cookie.NewStore([]byte("test-session-secret"))

	return &testServer{
		t:      t,
		db:     db,
		app:    application,
		mailer: fake,
		engine: application.Router(store, nil).Engine(),
	}
}

// do sends a JSON request, authenticated as user when user is not nil.
func (s *testServer) do(method, path string, body interface{}, user *models.User) *httptest.ResponseRecorder {
	s.t.Helper()

	token := ""
	if user != nil {
		token = testutil.GenerateTestToken(s.t, s.app.JWT, user)
	}
	return s.serve(testutil.AuthenticatedRequest(s.t, method, path, body, token))
}

func (s *testServer) serve(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

// project creates a project through the API so its audit trail is realistic.
func (s *testServer) project(owner *models.User) *models.Project {
	s.t.Helper()

	w := s.do(http.MethodPost, "/api/projects", map[string]string{"name": "Roadmap"}, owner)
	if w.Code != http.StatusCreated {
		s.t.Fatalf("create project: %d %s", w.Code, w.Body.String())
	}
	var resp struct {
		ID uint64 `json:"id"`
	}
	testutil.ParseJSONResponse(s.t, w, &resp)

	var project models.Project
	if err := s.db.First(&project, resp.ID).Error; err != nil {
		s.t.Fatalf("load project: %v", err)
	}
	return &project
}

func (s *testServer) columns(projectID uint64) []models.TaskColumn {
	s.t.Helper()

	var columns []models.TaskColumn
	if err := s.db.Where("project_id = ?", projectID).Order("position").Find(&columns).Error; err != nil {
		s.t.Fatalf("load columns: %v", err)
	}
	return columns
}

func projectURL(id uint64, rest ...string) string {
	return fmt.Sprintf("/api/projects/%d", id) + strings.Join(rest, "")
}

// tokenFrom returns the last path segment or query value of a mailed link.
func tokenFrom(link string) string {
	if i := strings.LastIndex(link, "token="); i >= 0 {
		return link[i+len("token="):]
	}
	return link[strings.LastIndex(link, "/")+1:]
}

func itoa(id uint64) string {
	return strconv.FormatUint(id, 10)
}

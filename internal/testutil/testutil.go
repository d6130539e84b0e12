package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yukikurage/kanban-board-api/internal/auth"
	"github.com/yukikurage/kanban-board-api/internal/database"
	"github.com/yukikurage/kanban-board-api/internal/mailer"
	"github.com/yukikurage/kanban-board-api/internal/models"
)

// TestPassword is the password of every fixture user.
const TestPassword = "testpassword123"

var seq atomic.Uint64

// SetupTestDB creates a migrated in-memory SQLite database with foreign keys
// enforced. One connection keeps the in-memory database alive and matches the
// single-writer behaviour of SQLite.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db, zap.NewNop()); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// CreateTestUser creates a verified user with a unique email and username
func CreateTestUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()

	hash, err := auth.HashPassword(TestPassword)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	n := seq.Add(1)
	user := &models.User{
		Email:         fmt.Sprintf("%s-%d@example.com", name, n),
		Username:      fmt.Sprintf("%s%d", name, n),
		Name:          name,
		PasswordHash:  hash,
		EmailVerified: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestProject creates a project owned by owner with the default columns
func CreateTestProject(t *testing.T, db *gorm.DB, owner *models.User) (*models.Project, []models.TaskColumn) {
	t.Helper()

	project := &models.Project{
		Name:    "Test Project",
		Color:   models.DefaultProjectColor,
		OwnerID: owner.ID,
	}
	if err := db.Omit("Owner").Create(project).Error; err != nil {
		t.Fatalf("failed to create test project: %v", err)
	}

	columns := []models.TaskColumn{
		{ProjectID: project.ID, Name: "To Do", Color: models.DefaultColumnColor, Position: 0},
		{ProjectID: project.ID, Name: "In Progress", Color: models.DefaultColumnColor, Position: 1},
		{ProjectID: project.ID, Name: "Done", Color: models.DefaultColumnColor, Position: 2},
	}
	if err := db.Create(&columns).Error; err != nil {
		t.Fatalf("failed to create test columns: %v", err)
	}
	return project, columns
}

// AddTestMember adds user to project with role
func AddTestMember(t *testing.T, db *gorm.DB, project *models.Project, user *models.User, role models.ProjectRole) {
	t.Helper()

	member := &models.ProjectMember{
		ProjectID: project.ID,
		UserID:    user.ID,
		Role:      role,
		JoinedAt:  time.Now(),
	}
	if err := db.Omit("Project", "User").Create(member).Error; err != nil {
		t.Fatalf("failed to add test member: %v", err)
	}
}

// CreateTestTask creates a task at the end of column
func CreateTestTask(t *testing.T, db *gorm.DB, column models.TaskColumn, creator *models.User, title string) *models.Task {
	t.Helper()

	var position int64
	db.Model(&models.Task{}).Where("column_id = ?", column.ID).Count(&position)

	task := &models.Task{
		ProjectID: column.ProjectID,
		ColumnID:  column.ID,
		Title:     title,
		Priority:  models.PriorityMedium,
		Position:  int(position),
		CreatorID: &creator.ID,
	}
	if err := db.Omit("Column", "Assignee", "Creator").Create(task).Error; err != nil {
		t.Fatalf("failed to create test task: %v", err)
	}
	return task
}

// CreateTestJWTService creates a JWT service for testing
func CreateTestJWTService() *auth.JWTService {
	return auth.NewJWTService("test-secret-key-for-testing", 24*time.Hour)
}

// GenerateTestToken generates a valid JWT token for the given user
func GenerateTestToken(t *testing.T, jwtService *auth.JWTService, user *models.User) string {
	t.Helper()

	token, err := jwtService.GenerateToken(user.ID, user.Email)
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}
	return token
}

// AuthenticatedRequest creates an HTTP request with a bearer token
func AuthenticatedRequest(t *testing.T, method, path string, body interface{}, token string) *http.Request {
	t.Helper()

	reqBody := bytes.NewBuffer(nil)
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

// ParseJSONResponse parses the response body into v
func ParseJSONResponse(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to parse response body: %v. Body: %s", err, rr.Body.String())
	}
}

// TestContext creates a context with a timeout for tests
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// FakeMailer records messages and optionally fails.
type FakeMailer struct {
	mu            sync.Mutex
	Err           error
	Invitations   []mailer.InvitationMessage
	Verifications []mailer.VerificationMessage
}

func (m *FakeMailer) SendInvitation(_ context.Context, msg mailer.InvitationMessage) (mailer.Delivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return mailer.Delivery{}, m.Err
	}
	m.Invitations = append(m.Invitations, msg)
	return mailer.Delivery{PreviewURL: msg.AcceptURL}, nil
}

func (m *FakeMailer) SendVerification(_ context.Context, msg mailer.VerificationMessage) (mailer.Delivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return mailer.Delivery{}, m.Err
	}
	m.Verifications = append(m.Verifications, msg)
	return mailer.Delivery{PreviewURL: msg.VerifyURL}, nil
}

// Count returns how many records of model match the query
func Count(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()

	var count int64
	if err := db.Model(model).Where(query, args...).Count(&count).Error; err != nil {
		t.Fatalf("failed to count: %v", err)
	}
	return count
}

// RaceMemberInsert makes the next project member insert collide with a row
// written just before it, as a concurrent accept would. The returned func
// reports whether the collision was staged.
func RaceMemberInsert(t *testing.T, db *gorm.DB) func() bool {
	t.Helper()

	var fired atomic.Bool
	err := db.Callback().Create().Before("gorm:create").Register("testutil:race_member", func(tx *gorm.DB) {
		member, ok := tx.Statement.Dest.(*models.ProjectMember)
		if !ok || !fired.CompareAndSwap(false, true) {
			return
		}
		if err := tx.Session(&gorm.Session{NewDB: true}).Exec(
			"INSERT INTO project_members (project_id, user_id, role, joined_at) VALUES (?, ?, ?, ?)",
			member.ProjectID, member.UserID, models.RoleMember, time.Now(),
		).Error; err != nil {
			t.Errorf("failed to stage conflicting member: %v", err)
		}
	})
	if err != nil {
		t.Fatalf("failed to register callback: %v", err)
	}
	return fired.Load
}

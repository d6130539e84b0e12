package repository

import (
	"time"

	"github.com/yukikurage/kanban-board-api/internal/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByIDs loads several users at once; unknown IDs are skipped
	FindByIDs(ids []uint64) ([]models.User, error)

	// FindByEmail finds a user by normalized email
	FindByEmail(email string) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(username string) (*models.User, error)

	// FindByVerificationToken finds the user holding an email verification token
	FindByVerificationToken(token string) (*models.User, error)

	// Update saves all user fields
	Update(user *models.User) error
}

// ProjectRepository defines the interface for projects and their memberships
type ProjectRepository interface {
	Create(project *models.Project) error
	FindByID(id uint64) (*models.Project, error)
	Update(project *models.Project) error

	// Delete removes the project; members, columns, tasks and invitations cascade
	Delete(id uint64) error

	// ListOwned lists projects owned by the user
	ListOwned(userID uint64) ([]models.Project, error)

	// AddMember adds a membership row
	AddMember(member *models.ProjectMember) error

	// FindMember finds a specific membership row
	FindMember(projectID, userID uint64) (*models.ProjectMember, error)

	// UpdateMemberRole changes the role stored on a membership row
	UpdateMemberRole(projectID, userID uint64, role models.ProjectRole) error

	// RemoveMember deletes a membership row
	RemoveMember(projectID, userID uint64) error

	// ListMembers lists membership rows of a project with users preloaded
	ListMembers(projectID uint64) ([]models.ProjectMember, error)

	// ListMemberships lists membership rows of a user with projects preloaded
	ListMemberships(userID uint64) ([]models.ProjectMember, error)
}

// ColumnRepository defines the interface for board columns
type ColumnRepository interface {
	Create(column *models.TaskColumn) error
	FindByID(id uint64) (*models.TaskColumn, error)

	// ListByProject lists columns ordered by position
	ListByProject(projectID uint64) ([]models.TaskColumn, error)

	Update(column *models.TaskColumn) error
	Delete(id uint64) error

	// CountByProject counts the columns of a project
	CountByProject(projectID uint64) (int64, error)

	// CountTasks counts the tasks still attached to a column
	CountTasks(columnID uint64) (int64, error)

	// NextPosition returns the position after the last column of a project
	NextPosition(projectID uint64) (int, error)

	// Reorder writes position = index for every column id in order
	Reorder(projectID uint64, orderedIDs []uint64) error
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// List retrieves tasks of a project with filtering
	List(filter TaskFilter) ([]models.Task, error)

	// ListByColumn lists the tasks of a column ordered by position
	ListByColumn(columnID uint64) ([]models.Task, error)

	// Update updates a task
	Update(task *models.Task) error

	// Delete deletes a task; comments and collaborators cascade
	Delete(id uint64) error

	// NextPosition returns the position after the last task of a column
	NextPosition(columnID uint64) (int, error)

	// Reorder moves every task id into the column with position = index
	Reorder(columnID uint64, orderedIDs []uint64) error
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	ProjectID  uint64
	ColumnID   *uint64
	AssigneeID *uint64
	Priority   *models.TaskPriority
}

// CommentRepository defines the interface for task comments
type CommentRepository interface {
	Create(comment *models.TaskComment) error
	FindByID(id uint64) (*models.TaskComment, error)

	// ListByTask lists comments oldest first with authors preloaded
	ListByTask(taskID uint64) ([]models.TaskComment, error)

	Update(comment *models.TaskComment) error

	// Delete deletes a comment and, by cascade, its replies
	Delete(id uint64) error
}

// CollaboratorRepository defines the interface for task collaborators
type CollaboratorRepository interface {
	Add(collaborator *models.TaskCollaborator) error
	Find(taskID, userID uint64) (*models.TaskCollaborator, error)
	ListByTask(taskID uint64) ([]models.TaskCollaborator, error)
	Remove(taskID, userID uint64) error
}

// InvitationRepository defines the interface for email invitations
type InvitationRepository interface {
	Create(invitation *models.ProjectInvitation) error
	FindByID(id uint64) (*models.ProjectInvitation, error)
	FindByToken(token string) (*models.ProjectInvitation, error)

	// FindByTokenForUpdate loads the invitation holding a row lock until the
	// surrounding transaction ends
	FindByTokenForUpdate(token string) (*models.ProjectInvitation, error)

	// FindPending finds the pending invitation for an email in a project
	FindPending(projectID uint64, email string) (*models.ProjectInvitation, error)

	// ListPending lists pending invitations of a project, newest first
	ListPending(projectID uint64) ([]models.ProjectInvitation, error)

	// ListStale lists pending invitations whose expiry is before now
	ListStale(now time.Time) ([]models.ProjectInvitation, error)

	Update(invitation *models.ProjectInvitation) error
	Delete(id uint64) error
}

// InvitationLinkRepository defines the interface for reusable invitation links
type InvitationLinkRepository interface {
	Create(link *models.ProjectInvitationLink) error
	FindByToken(token string) (*models.ProjectInvitationLink, error)

	// FindActive finds the active link of a project
	FindActive(projectID uint64) (*models.ProjectInvitationLink, error)

	// DeactivateAll flips is_active off for every link of a project
	DeactivateAll(projectID uint64) (int64, error)
}

// AuditLogRepository defines the interface for the audit trail
type AuditLogRepository interface {
	// Create appends audit records
	Create(logs ...*models.AuditLog) error

	// List retrieves records matching the filter, newest first, with users preloaded
	List(filter AuditFilter) ([]models.AuditLog, int64, error)

	// CountBy groups matching records by a text column (action or entity_type)
	CountBy(filter AuditFilter, column string) ([]GroupCount, error)

	// CountByUser groups matching records by actor; system events have a nil UserID
	CountByUser(filter AuditFilter) ([]UserCount, error)

	// Timestamps returns created_at of every matching record
	Timestamps(filter AuditFilter) ([]time.Time, error)

	// DeleteOlderThan purges records created before the cutoff
	DeleteOlderThan(cutoff time.Time) (int64, error)
}

// AuditFilter holds filtering options for audit queries
type AuditFilter struct {
	ProjectID  uint64
	Action     string
	EntityType string
	UserID     *uint64
	From       *time.Time
	To         *time.Time
	Offset     int
	Limit      int
}

// GroupCount is one bucket of a GROUP BY count
type GroupCount struct {
	Key   string `gorm:"column:group_key"`
	Count int64
}

// UserCount is one per-actor bucket of a GROUP BY count
type UserCount struct {
	UserID *uint64
	Count  int64
}

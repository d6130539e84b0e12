package repository

import (
	"github.com/yukikurage/kanban-board-api/internal/models"
	"gorm.io/gorm"
)

// GormProjectRepository is a GORM implementation of ProjectRepository
type GormProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &GormProjectRepository{db: db}
}

// Create creates a new project
func (r *GormProjectRepository) Create(project *models.Project) error {
	return r.db.Omit("Owner").Create(project).Error
}

// FindByID finds a project by ID with its owner preloaded
func (r *GormProjectRepository) FindByID(id uint64) (*models.Project, error) {
	var project models.Project
	if err := r.db.Preload("Owner").First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// Update updates a project
func (r *GormProjectRepository) Update(project *models.Project) error {
	return r.db.Omit("Owner").Save(project).Error
}

// Delete deletes a project. Dependent rows go first so dialects without
// enforced foreign keys end up in the same state.
func (r *GormProjectRepository) Delete(id uint64) error {
	taskIDs := r.db.Model(&models.Task{}).Select("id").Where("project_id = ?", id)

	if err := r.db.Where("task_id IN (?)", taskIDs).Delete(&models.TaskCollaborator{}).Error; err != nil {
		return err
	}
	if err := r.db.Where("task_id IN (?)", taskIDs).Delete(&models.TaskComment{}).Error; err != nil {
		return err
	}
	for _, model := range []interface{}{
		&models.Task{},
		&models.TaskColumn{},
		&models.ProjectMember{},
		&models.ProjectInvitation{},
		&models.ProjectInvitationLink{},
	} {
		if err := r.db.Where("project_id = ?", id).Delete(model).Error; err != nil {
			return err
		}
	}

	return r.db.Delete(&models.Project{}, id).Error
}

// ListOwned lists projects owned by the user
func (r *GormProjectRepository) ListOwned(userID uint64) ([]models.Project, error) {
	var projects []models.Project
	if err := r.db.Where("owner_id = ?", userID).
		Order("created_at DESC").
		Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// AddMember adds a member to a project
func (r *GormProjectRepository) AddMember(member *models.ProjectMember) error {
	return r.db.Omit("Project", "User").Create(member).Error
}

// FindMember finds a specific project member
func (r *GormProjectRepository) FindMember(projectID, userID uint64) (*models.ProjectMember, error) {
	var member models.ProjectMember
	if err := r.db.Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// UpdateMemberRole changes a member's role
func (r *GormProjectRepository) UpdateMemberRole(projectID, userID uint64, role models.ProjectRole) error {
	return r.db.Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Update("role", role).Error
}

// RemoveMember removes a member from a project
func (r *GormProjectRepository) RemoveMember(projectID, userID uint64) error {
	return r.db.Where("project_id = ? AND user_id = ?", projectID, userID).
		Delete(&models.ProjectMember{}).Error
}

// ListMembers lists all members of a project
func (r *GormProjectRepository) ListMembers(projectID uint64) ([]models.ProjectMember, error) {
	var members []models.ProjectMember
	if err := r.db.Preload("User").
		Where("project_id = ?", projectID).
		Order("joined_at ASC").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// ListMemberships lists all projects a user is a member of
func (r *GormProjectRepository) ListMemberships(userID uint64) ([]models.ProjectMember, error) {
	var memberships []models.ProjectMember
	if err := r.db.Preload("Project").
		Where("user_id = ?", userID).
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}

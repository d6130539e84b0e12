package repository

import (
	"github.com/yukikurage/kanban-board-api/internal/models"
	"gorm.io/gorm"
)

// GormInvitationLinkRepository is a GORM implementation of InvitationLinkRepository
type GormInvitationLinkRepository struct {
	db *gorm.DB
}

// NewInvitationLinkRepository creates a new InvitationLinkRepository
func NewInvitationLinkRepository(db *gorm.DB) InvitationLinkRepository {
	return &GormInvitationLinkRepository{db: db}
}

func (r *GormInvitationLinkRepository) Create(link *models.ProjectInvitationLink) error {
	return r.db.Omit("Project", "CreatedBy").Create(link).Error
}

func (r *GormInvitationLinkRepository) FindByToken(token string) (*models.ProjectInvitationLink, error) {
	var link models.ProjectInvitationLink
	if err := r.db.Preload("Project").
		Where("token = ?", token).
		First(&link).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *GormInvitationLinkRepository) FindActive(projectID uint64) (*models.ProjectInvitationLink, error) {
	var link models.ProjectInvitationLink
	if err := r.db.Where("project_id = ? AND is_active = ?", projectID, true).
		Order("created_at DESC").
		First(&link).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *GormInvitationLinkRepository) DeactivateAll(projectID uint64) (int64, error) {
	result := r.db.Model(&models.ProjectInvitationLink{}).
		Where("project_id = ? AND is_active = ?", projectID, true).
		Update("is_active", false)
	return result.RowsAffected, result.Error
}

package repository

import (
	"time"

	"github.com/yukikurage/kanban-board-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInvitationRepository is a GORM implementation of InvitationRepository
type GormInvitationRepository struct {
	db *gorm.DB
}

// NewInvitationRepository creates a new InvitationRepository
func NewInvitationRepository(db *gorm.DB) InvitationRepository {
	return &GormInvitationRepository{db: db}
}

// Create creates a new invitation
func (r *GormInvitationRepository) Create(invitation *models.ProjectInvitation) error {
	return r.db.Omit("Project", "InvitedBy").Create(invitation).Error
}

// FindByID finds an invitation by ID
func (r *GormInvitationRepository) FindByID(id uint64) (*models.ProjectInvitation, error) {
	var invitation models.ProjectInvitation
	if err := r.db.First(&invitation, id).Error; err != nil {
		return nil, err
	}
	return &invitation, nil
}

// FindByToken finds an invitation by token with project and inviter preloaded
func (r *GormInvitationRepository) FindByToken(token string) (*models.ProjectInvitation, error) {
	var invitation models.ProjectInvitation
	if err := r.db.Preload("Project").Preload("InvitedBy").
		Where("token = ?", token).
		First(&invitation).Error; err != nil {
		return nil, err
	}
	return &invitation, nil
}

// FindByTokenForUpdate locks the invitation row with SELECT ... FOR UPDATE.
// SQLite has no row locks and serializes writers instead.
func (r *GormInvitationRepository) FindByTokenForUpdate(token string) (*models.ProjectInvitation, error) {
	var invitation models.ProjectInvitation
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("token = ?", token).
		First(&invitation).Error; err != nil {
		return nil, err
	}
	return &invitation, nil
}

// FindPending finds the pending invitation for an email
func (r *GormInvitationRepository) FindPending(projectID uint64, email string) (*models.ProjectInvitation, error) {
	var invitation models.ProjectInvitation
	if err := r.db.Where("project_id = ? AND email = ? AND status = ?", projectID, email, models.InvitationPending).
		First(&invitation).Error; err != nil {
		return nil, err
	}
	return &invitation, nil
}

// ListPending lists the pending invitations of a project
func (r *GormInvitationRepository) ListPending(projectID uint64) ([]models.ProjectInvitation, error) {
	var invitations []models.ProjectInvitation
	if err := r.db.Preload("InvitedBy").
		Where("project_id = ? AND status = ?", projectID, models.InvitationPending).
		Order("created_at DESC").
		Find(&invitations).Error; err != nil {
		return nil, err
	}
	return invitations, nil
}

// ListStale lists pending invitations past their expiry
func (r *GormInvitationRepository) ListStale(now time.Time) ([]models.ProjectInvitation, error) {
	var invitations []models.ProjectInvitation
	if err := r.db.Where("status = ? AND expires_at < ?", models.InvitationPending, now).
		Find(&invitations).Error; err != nil {
		return nil, err
	}
	return invitations, nil
}

// Update updates an invitation
func (r *GormInvitationRepository) Update(invitation *models.ProjectInvitation) error {
	return r.db.Omit("Project", "InvitedBy").Save(invitation).Error
}

// Delete deletes an invitation
func (r *GormInvitationRepository) Delete(id uint64) error {
	return r.db.Delete(&models.ProjectInvitation{}, id).Error
}

package repository

import (
	"github.com/yukikurage/kanban-board-api/internal/models"
	"gorm.io/gorm"
)

type GormCollaboratorRepository struct {
	db *gorm.DB
}

func NewCollaboratorRepository(db *gorm.DB) CollaboratorRepository {
	return &GormCollaboratorRepository{db: db}
}

func (r *GormCollaboratorRepository) Add(collaborator *models.TaskCollaborator) error {
	return r.db.Omit("User").Create(collaborator).Error
}

func (r *GormCollaboratorRepository) Find(taskID, userID uint64) (*models.TaskCollaborator, error) {
	var collaborator models.TaskCollaborator
	if err := r.db.Where("task_id = ? AND user_id = ?", taskID, userID).
		First(&collaborator).Error; err != nil {
		return nil, err
	}
	return &collaborator, nil
}

func (r *GormCollaboratorRepository) ListByTask(taskID uint64) ([]models.TaskCollaborator, error) {
	var collaborators []models.TaskCollaborator
	if err := r.db.Preload("User").
		Where("task_id = ?", taskID).
		Order("created_at ASC").
		Find(&collaborators).Error; err != nil {
		return nil, err
	}
	return collaborators, nil
}

func (r *GormCollaboratorRepository) Remove(taskID, userID uint64) error {
	return r.db.Where("task_id = ? AND user_id = ?", taskID, userID).
		Delete(&models.TaskCollaborator{}).Error
}

package repository

import (
	"github.com/yukikurage/kanban-board-api/internal/models"
	"gorm.io/gorm"
)

type GormCommentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &GormCommentRepository{db: db}
}

func (r *GormCommentRepository) Create(comment *models.TaskComment) error {
	return r.db.Omit("User", "Parent").Create(comment).Error
}

func (r *GormCommentRepository) FindByID(id uint64) (*models.TaskComment, error) {
	var comment models.TaskComment
	if err := r.db.Preload("User").First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *GormCommentRepository) ListByTask(taskID uint64) ([]models.TaskComment, error) {
	var comments []models.TaskComment
	if err := r.db.Preload("User").
		Where("task_id = ?", taskID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *GormCommentRepository) Update(comment *models.TaskComment) error {
	return r.db.Omit("User", "Parent").Save(comment).Error
}

// Delete removes a comment. Replies are removed explicitly so the result is
// the same whether or not the dialect enforces the self-referencing cascade.
func (r *GormCommentRepository) Delete(id uint64) error {
	ids := []uint64{id}
	frontier := []uint64{id}
	for len(frontier) > 0 {
		var children []uint64
		if err := r.db.Model(&models.TaskComment{}).
			Where("parent_id IN ?", frontier).
			Pluck("id", &children).Error; err != nil {
			return err
		}
		ids = append(ids, children...)
		frontier = children
	}

	// Leaves first so no row is left pointing at a deleted parent.
	for i := len(ids) - 1; i >= 0; i-- {
		if err := r.db.Delete(&models.TaskComment{}, ids[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

package repository

import (
	"github.com/yukikurage/kanban-board-api/internal/models"
	"gorm.io/gorm"
)

// GormColumnRepository is a GORM implementation of ColumnRepository
type GormColumnRepository struct {
	db *gorm.DB
}

// NewColumnRepository creates a new ColumnRepository
func NewColumnRepository(db *gorm.DB) ColumnRepository {
	return &GormColumnRepository{db: db}
}

// Create creates a new column
func (r *GormColumnRepository) Create(column *models.TaskColumn) error {
	return r.db.Create(column).Error
}

// FindByID finds a column by ID
func (r *GormColumnRepository) FindByID(id uint64) (*models.TaskColumn, error) {
	var column models.TaskColumn
	if err := r.db.First(&column, id).Error; err != nil {
		return nil, err
	}
	return &column, nil
}

// ListByProject lists the columns of a project in board order
func (r *GormColumnRepository) ListByProject(projectID uint64) ([]models.TaskColumn, error) {
	var columns []models.TaskColumn
	if err := r.db.Where("project_id = ?", projectID).
		Order("position ASC, id ASC").
		Find(&columns).Error; err != nil {
		return nil, err
	}
	return columns, nil
}

// Update updates a column
func (r *GormColumnRepository) Update(column *models.TaskColumn) error {
	return r.db.Save(column).Error
}

// Delete deletes a column
func (r *GormColumnRepository) Delete(id uint64) error {
	return r.db.Delete(&models.TaskColumn{}, id).Error
}

// CountByProject counts the columns of a project
func (r *GormColumnRepository) CountByProject(projectID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.TaskColumn{}).Where("project_id = ?", projectID).Count(&count).Error
	return count, err
}

// CountTasks counts the tasks in a column
func (r *GormColumnRepository) CountTasks(columnID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.Task{}).Where("column_id = ?", columnID).Count(&count).Error
	return count, err
}

// NextPosition returns max(position)+1, or 0 for an empty project
func (r *GormColumnRepository) NextPosition(projectID uint64) (int, error) {
	var next int
	err := r.db.Model(&models.TaskColumn{}).
		Select("COALESCE(MAX(position) + 1, 0)").
		Where("project_id = ?", projectID).
		Scan(&next).Error
	return next, err
}

// Reorder rewrites positions to match orderedIDs. Callers run it inside a
// transaction so a partial rewrite is never observed.
func (r *GormColumnRepository) Reorder(projectID uint64, orderedIDs []uint64) error {
	for position, id := range orderedIDs {
		if err := r.db.Model(&models.TaskColumn{}).
			Where("project_id = ? AND id = ?", projectID, id).
			UpdateColumn("position", position).Error; err != nil {
			return err
		}
	}
	return nil
}

package repository

import (
	"github.com/yukikurage/kanban-board-api/internal/models"
	"gorm.io/gorm"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(task *models.Task) error {
	return r.db.Omit("Column", "Assignee", "Creator").Create(task).Error
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db

	// Apply preloading if specified
	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// List retrieves the tasks of a project in board order
func (r *GormTaskRepository) List(filter TaskFilter) ([]models.Task, error) {
	var tasks []models.Task

	query := r.db.Model(&models.Task{}).Where("tasks.project_id = ?", filter.ProjectID)

	// Apply filters
	if filter.ColumnID != nil {
		query = query.Where("tasks.column_id = ?", *filter.ColumnID)
	}
	if filter.AssigneeID != nil {
		query = query.Where("tasks.assignee_id = ?", *filter.AssigneeID)
	}
	if filter.Priority != nil {
		query = query.Where("tasks.priority = ?", *filter.Priority)
	}

	if err := query.
		Preload("Assignee").
		Preload("Creator").
		Order("tasks.column_id ASC, tasks.position ASC, tasks.id ASC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}

	return tasks, nil
}

// ListByColumn lists the tasks of a column in board order
func (r *GormTaskRepository) ListByColumn(columnID uint64) ([]models.Task, error) {
	var tasks []models.Task
	if err := r.db.Where("column_id = ?", columnID).
		Order("position ASC, id ASC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// Update updates a task
func (r *GormTaskRepository) Update(task *models.Task) error {
	return r.db.Omit("Column", "Assignee", "Creator").Save(task).Error
}

// Delete deletes a task together with its comments and collaborators
func (r *GormTaskRepository) Delete(id uint64) error {
	if err := r.db.Where("task_id = ?", id).Delete(&models.TaskCollaborator{}).Error; err != nil {
		return err
	}
	if err := r.db.Where("task_id = ?", id).Delete(&models.TaskComment{}).Error; err != nil {
		return err
	}
	return r.db.Delete(&models.Task{}, id).Error
}

// NextPosition returns max(position)+1, or 0 for an empty column
func (r *GormTaskRepository) NextPosition(columnID uint64) (int, error) {
	var next int
	err := r.db.Model(&models.Task{}).
		Select("COALESCE(MAX(position) + 1, 0)").
		Where("column_id = ?", columnID).
		Scan(&next).Error
	return next, err
}

// Reorder places every task into columnID with position = index. Callers
// run it inside a transaction.
func (r *GormTaskRepository) Reorder(columnID uint64, orderedIDs []uint64) error {
	for position, id := range orderedIDs {
		if err := r.db.Model(&models.Task{}).
			Where("id = ?", id).
			UpdateColumns(map[string]interface{}{
				"column_id": columnID,
				"position":  position,
			}).Error; err != nil {
			return err
		}
	}
	return nil
}

package repository

import (
	"fmt"
	"time"

	"github.com/yukikurage/kanban-board-api/internal/database"
	"github.com/yukikurage/kanban-board-api/internal/models"
	"github.com/yukikurage/kanban-board-api/internal/utils"
	"gorm.io/gorm"
)

// GormAuditLogRepository is a GORM implementation of AuditLogRepository
type GormAuditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository creates a new AuditLogRepository
func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &GormAuditLogRepository{db: db}
}

// Create appends one or more audit records
func (r *GormAuditLogRepository) Create(logs ...*models.AuditLog) error {
	if len(logs) == 0 {
		return nil
	}
	return r.db.Omit("User").Create(logs).Error
}

func (r *GormAuditLogRepository) filtered(filter AuditFilter) *gorm.DB {
	query := r.db.Model(&models.AuditLog{}).Where("audit_logs.project_id = ?", filter.ProjectID)

	if filter.Action != "" {
		query = query.Where("audit_logs.action = ?", filter.Action)
	}
	if filter.EntityType != "" {
		query = query.Where("audit_logs.entity_type = ?", filter.EntityType)
	}
	if filter.UserID != nil {
		query = query.Where("audit_logs.user_id = ?", *filter.UserID)
	}
	if filter.From != nil {
		query = query.Where("audit_logs.created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("audit_logs.created_at < ?", *filter.To)
	}
	return query
}

// List retrieves audit records with filtering and pagination
func (r *GormAuditLogRepository) List(filter AuditFilter) ([]models.AuditLog, int64, error) {
	var logs []models.AuditLog

	var total int64
	if err := r.filtered(filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := r.filtered(filter).Order("audit_logs.created_at DESC, audit_logs.id DESC")
	if filter.Limit > 0 {
		listQuery = listQuery.Scopes(database.Paginate(utils.PaginationParams{
			Offset: filter.Offset,
			Limit:  filter.Limit,
		}))
	}

	if err := listQuery.Preload("User").Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}

// CountBy groups matching records by action or entity_type
func (r *GormAuditLogRepository) CountBy(filter AuditFilter, column string) ([]GroupCount, error) {
	switch column {
	case "action", "entity_type":
	default:
		return nil, fmt.Errorf("unsupported audit grouping column %q", column)
	}

	var counts []GroupCount
	err := r.filtered(filter).
		Select(fmt.Sprintf("audit_logs.%s AS group_key, COUNT(*) AS count", column)).
		Group("audit_logs." + column).
		Order("count DESC").
		Scan(&counts).Error
	return counts, err
}

// CountByUser groups matching records by actor
func (r *GormAuditLogRepository) CountByUser(filter AuditFilter) ([]UserCount, error) {
	var counts []UserCount
	err := r.filtered(filter).
		Select("audit_logs.user_id AS user_id, COUNT(*) AS count").
		Group("audit_logs.user_id").
		Order("count DESC").
		Scan(&counts).Error
	return counts, err
}

// Timestamps returns the creation time of every matching record
func (r *GormAuditLogRepository) Timestamps(filter AuditFilter) ([]time.Time, error) {
	var stamps []time.Time
	err := r.filtered(filter).Pluck("audit_logs.created_at", &stamps).Error
	return stamps, err
}

// DeleteOlderThan purges audit records created before cutoff
func (r *GormAuditLogRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result := r.db.Where("created_at < ?", cutoff).Delete(&models.AuditLog{})
	return result.RowsAffected, result.Error
}

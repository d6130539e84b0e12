package dto

import (
	"encoding/json"
	"time"

	"github.com/yukikurage/kanban-board-api/internal/models"
	"github.com/yukikurage/kanban-board-api/internal/services"
	"github.com/yukikurage/kanban-board-api/internal/utils"
)

// AuditLogDTO represents one audit record
type AuditLogDTO struct {
	ID         uint64          `json:"id"`
	ProjectID  uint64          `json:"project_id"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   uint64          `json:"entity_id"`
	Details    json.RawMessage `json:"details"`
	UserID     *uint64         `json:"user_id"`
	User       *UserDTO        `json:"user,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// AuditLogListResponse represents a page of audit records
type AuditLogListResponse struct {
	Logs       []AuditLogDTO            `json:"logs"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

type CountDTO struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

type UserActivityDTO struct {
	UserID   *uint64 `json:"user_id"`
	Name     string  `json:"name"`
	Username string  `json:"username"`
	Count    int64   `json:"count"`
}

type DailyCountDTO struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// AuditStatsDTO summarises a project's audit trail
type AuditStatsDTO struct {
	Total        int64             `json:"total"`
	ByAction     []CountDTO        `json:"by_action"`
	ByEntityType []CountDTO        `json:"by_entity_type"`
	ByUser       []UserActivityDTO `json:"by_user"`
	Daily        []DailyCountDTO   `json:"daily"`
}

func ToAuditLogDTO(log models.AuditLog) AuditLogDTO {
	details := json.RawMessage(log.Details)
	if len(details) == 0 {
		details = json.RawMessage("{}")
	}
	return AuditLogDTO{
		ID:         log.ID,
		ProjectID:  log.ProjectID,
		Action:     log.Action,
		EntityType: log.EntityType,
		EntityID:   log.EntityID,
		Details:    details,
		UserID:     log.UserID,
		User:       toOptionalUserDTO(log.User),
		CreatedAt:  log.CreatedAt,
	}
}

func ToAuditLogListResponse(logs []models.AuditLog, pagination utils.PaginationResponse) AuditLogListResponse {
	items := make([]AuditLogDTO, len(logs))
	for i, l := range logs {
		items[i] = ToAuditLogDTO(l)
	}
	return AuditLogListResponse{Logs: items, Pagination: pagination}
}

func ToAuditStatsDTO(stats services.AuditStats) AuditStatsDTO {
	dto := AuditStatsDTO{
		Total:        stats.Total,
		ByAction:     make([]CountDTO, len(stats.ByAction)),
		ByEntityType: make([]CountDTO, len(stats.ByEntityType)),
		ByUser:       make([]UserActivityDTO, len(stats.ByUser)),
		Daily:        make([]DailyCountDTO, len(stats.Daily)),
	}
	for i, c := range stats.ByAction {
		dto.ByAction[i] = CountDTO{Key: c.Key, Count: c.Count}
	}
	for i, c := range stats.ByEntityType {
		dto.ByEntityType[i] = CountDTO{Key: c.Key, Count: c.Count}
	}
	for i, u := range stats.ByUser {
		dto.ByUser[i] = UserActivityDTO{UserID: u.UserID, Name: u.Name, Username: u.Username, Count: u.Count}
	}
	for i, d := range stats.Daily {
		dto.Daily[i] = DailyCountDTO{Date: d.Date, Count: d.Count}
	}
	return dto
}

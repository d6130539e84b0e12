package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/yukikurage/kanban-board-api/internal/audit"
	"github.com/yukikurage/kanban-board-api/internal/constants"
	"github.com/yukikurage/kanban-board-api/internal/models"
	"github.com/yukikurage/kanban-board-api/internal/repository"
)

var (
	ErrInvalidAuditFilter   = errors.New("invalid audit log filter")
	ErrInvalidRetentionDays = errors.New("retention days must be positive")
	ErrAuditExportTooLarge  = errors.New("too many audit records to export, narrow the filter")
)

const dayLayout = "2006-01-02"

// AuditService serves the read side of the audit trail and its retention.
type AuditService struct {
	store  *repository.Store
	logger *zap.Logger
	now    func() time.Time
}

func NewAuditService(store *repository.Store, logger *zap.Logger) *AuditService {
	return &AuditService{store: store, logger: logger, now: time.Now}
}

// AuditQuery is a caller-supplied filter. ProjectID comes from the route.
type AuditQuery struct {
	Action     string
	EntityType string
	UserID     *uint64
	From       *time.Time
	To         *time.Time
	Offset     int
	Limit      int
}

func (q AuditQuery) filter(projectID uint64) (repository.AuditFilter, error) {
	if q.Action != "" && !audit.IsAction(q.Action) {
		return repository.AuditFilter{}, fmt.Errorf("%w: unknown action %q", ErrInvalidAuditFilter, q.Action)
	}
	if q.EntityType != "" && !audit.IsEntityType(q.EntityType) {
		return repository.AuditFilter{}, fmt.Errorf("%w: unknown entity type %q", ErrInvalidAuditFilter, q.EntityType)
	}
	if q.From != nil && q.To != nil && !q.From.Before(*q.To) {
		return repository.AuditFilter{}, fmt.Errorf("%w: from must be before to", ErrInvalidAuditFilter)
	}
	return repository.AuditFilter{
		ProjectID:  projectID,
		Action:     q.Action,
		EntityType: q.EntityType,
		UserID:     q.UserID,
		From:       q.From,
		To:         q.To,
		Offset:     q.Offset,
		Limit:      q.Limit,
	}, nil
}

// List returns one page of audit records, newest first. Requires admin.
func (s *AuditService) List(ctx context.Context, actorID, projectID uint64, query AuditQuery) ([]models.AuditLog, int64, error) {
	store := s.store.WithContext(ctx)
	if _, err := authorize(store, actorID, projectID, models.RoleAdmin); err != nil {
		return nil, 0, err
	}

	filter, err := query.filter(projectID)
	if err != nil {
		return nil, 0, err
	}

	logs, total, err := store.AuditLogs.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return logs, total, nil
}

// UserActivity is the number of records attributed to one actor. A nil
// UserID counts system events and records of deleted users.
type UserActivity struct {
	UserID   *uint64
	Name     string
	Username string
	Count    int64
}

// DailyCount is the number of records on one UTC day.
type DailyCount struct {
	Date  string
	Count int64
}

// AuditStats summarises a project's audit trail.
type AuditStats struct {
	Total        int64
	ByAction     []repository.GroupCount
	ByEntityType []repository.GroupCount
	ByUser       []UserActivity
	Daily        []DailyCount
}

// Stats computes counts by action, entity type and user over the whole
// trail, plus per-day counts over the trailing window. Requires admin.
func (s *AuditService) Stats(ctx context.Context, actorID, projectID uint64) (*AuditStats, error) {
	store := s.store.WithContext(ctx)
	if _, err := authorize(store, actorID, projectID, models.RoleAdmin); err != nil {
		return nil, err
	}

	filter := repository.AuditFilter{ProjectID: projectID}
	stats := &AuditStats{}

	var err error
	if stats.ByAction, err = store.AuditLogs.CountBy(filter, "action"); err != nil {
		return nil, fmt.Errorf("failed to count audit logs by action: %w", err)
	}
	if stats.ByEntityType, err = store.AuditLogs.CountBy(filter, "entity_type"); err != nil {
		return nil, fmt.Errorf("failed to count audit logs by entity type: %w", err)
	}
	for _, c := range stats.ByAction {
		stats.Total += c.Count
	}

	byUser, err := store.AuditLogs.CountByUser(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count audit logs by user: %w", err)
	}
	if stats.ByUser, err = s.resolveUsers(store, byUser); err != nil {
		return nil, err
	}

	today := s.now().UTC().Truncate(24 * time.Hour)
	from := today.AddDate(0, 0, -(constants.AuditStatsWindowDays - 1))
	filter.From = &from
	stamps, err := store.AuditLogs.Timestamps(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load audit timestamps: %w", err)
	}
	stats.Daily = bucketByDay(stamps, from, constants.AuditStatsWindowDays)

	return stats, nil
}

func (s *AuditService) resolveUsers(store *repository.Store, counts []repository.UserCount) ([]UserActivity, error) {
	ids := make([]uint64, 0, len(counts))
	for _, c := range counts {
		if c.UserID != nil {
			ids = append(ids, *c.UserID)
		}
	}
	users, err := store.Users.FindByIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load audit actors: %w", err)
	}
	byID := make(map[uint64]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	activity := make([]UserActivity, 0, len(counts))
	for _, c := range counts {
		a := UserActivity{UserID: c.UserID, Count: c.Count}
		if c.UserID != nil {
			if u, ok := byID[*c.UserID]; ok {
				a.Name = u.DisplayName()
				a.Username = u.Username
			}
		}
		activity = append(activity, a)
	}
	return activity, nil
}

// bucketByDay counts stamps per UTC day starting at from. Days without
// records are present with a zero count.
func bucketByDay(stamps []time.Time, from time.Time, days int) []DailyCount {
	counts := make(map[string]int64, days)
	for _, ts := range stamps {
		counts[ts.UTC().Format(dayLayout)]++
	}

	daily := make([]DailyCount, days)
	for i := 0; i < days; i++ {
		day := from.AddDate(0, 0, i).Format(dayLayout)
		daily[i] = DailyCount{Date: day, Count: counts[day]}
	}
	return daily
}

// Export writes the matching records as CSV to w. Pagination in query is
// ignored; the export is capped at MaxAuditExportRows. Requires admin.
func (s *AuditService) Export(ctx context.Context, actorID, projectID uint64, query AuditQuery, w io.Writer) error {
	logs, err := s.ExportLogs(ctx, actorID, projectID, query)
	if err != nil {
		return err
	}
	return audit.WriteCSV(w, logs)
}

// ExportLogs loads the records an export would contain.
func (s *AuditService) ExportLogs(ctx context.Context, actorID, projectID uint64, query AuditQuery) ([]models.AuditLog, error) {
	query.Offset = 0
	query.Limit = constants.MaxAuditExportRows

	logs, total, err := s.List(ctx, actorID, projectID, query)
	if err != nil {
		return nil, err
	}
	if total > int64(constants.MaxAuditExportRows) {
		return nil, ErrAuditExportTooLarge
	}
	return logs, nil
}

// ExportProject exports a project's whole trail without a permission check.
// Used by the admin CLI.
func (s *AuditService) ExportProject(ctx context.Context, projectID uint64, w io.Writer) (int, error) {
	logs, _, err := s.store.WithContext(ctx).AuditLogs.List(repository.AuditFilter{ProjectID: projectID})
	if err != nil {
		return 0, fmt.Errorf("failed to load audit logs: %w", err)
	}
	return len(logs), audit.WriteCSV(w, logs)
}

// Cleanup deletes records older than days days and reports how many went.
func (s *AuditService) Cleanup(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, ErrInvalidRetentionDays
	}

	cutoff := s.now().AddDate(0, 0, -days)
	deleted, err := s.store.WithContext(ctx).AuditLogs.DeleteOlderThan(cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old audit logs: %w", err)
	}

	s.logger.Info("audit retention sweep",
		zap.Int("days", days),
		zap.Time("cutoff", cutoff),
		zap.Int64("deleted", deleted),
	)
	return deleted, nil
}

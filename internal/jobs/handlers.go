package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/yukikurage/kanban-board-api/internal/services"
)

// AuditCleaner deletes audit records older than a number of days.
type AuditCleaner interface {
	Cleanup(ctx context.Context, days int) (int64, error)
}

// InvitationExpirer moves overdue pending invitations to expired.
type InvitationExpirer interface {
	ExpireStale(ctx context.Context) (int, error)
}

var (
	_ AuditCleaner      = (*services.AuditService)(nil)
	_ InvitationExpirer = (*services.InvitationService)(nil)
)

type Handler struct {
	audit       AuditCleaner
	invitations InvitationExpirer
	logger      *zap.Logger
}

func NewHandler(audit AuditCleaner, invitations InvitationExpirer, logger *zap.Logger) *Handler {
	return &Handler{
		audit:       audit,
		invitations: invitations,
		logger:      logger,
	}
}

func (h *Handler) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeAuditCleanup, h.HandleAuditCleanup)
	mux.HandleFunc(TypeInvitationExpiry, h.HandleInvitationExpiry)
}

func (h *Handler) HandleAuditCleanup(ctx context.Context, t *asynq.Task) error {
	var payload AuditCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}
	if payload.Days <= 0 {
		return fmt.Errorf("retention days must be positive, got %d: %w", payload.Days, asynq.SkipRetry)
	}

	deleted, err := h.audit.Cleanup(ctx, payload.Days)
	if err != nil {
		h.logger.Error("audit cleanup failed", zap.Int("days", payload.Days), zap.Error(err))
		return err
	}

	h.logger.Info("audit cleanup finished", zap.Int("days", payload.Days), zap.Int64("deleted", deleted))
	return nil
}

func (h *Handler) HandleInvitationExpiry(ctx context.Context, _ *asynq.Task) error {
	expired, err := h.invitations.ExpireStale(ctx)
	if err != nil {
		h.logger.Error("invitation expiry sweep failed", zap.Error(err))
		return err
	}

	if expired > 0 {
		h.logger.Info("expired stale invitations", zap.Int("count", expired))
	}
	return nil
}

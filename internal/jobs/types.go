package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task type names
const (
	TypeAuditCleanup     = "audit:cleanup"
	TypeInvitationExpiry = "invitation:expire"
)

// QueueMaintenance is the only queue the worker consumes.
const QueueMaintenance = "maintenance"

// AuditCleanupPayload holds the retention window in days
type AuditCleanupPayload struct {
	Days int `json:"days"`
}

func NewAuditCleanupTask(days int) (*asynq.Task, error) {
	if days <= 0 {
		return nil, fmt.Errorf("retention days must be positive, got %d", days)
	}
	data, err := json.Marshal(AuditCleanupPayload{Days: days})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeAuditCleanup, data, asynq.Queue(QueueMaintenance)), nil
}

// NewInvitationExpiryTask has no payload; it sweeps every project
func NewInvitationExpiryTask() *asynq.Task {
	return asynq.NewTask(TypeInvitationExpiry, nil, asynq.Queue(QueueMaintenance))
}

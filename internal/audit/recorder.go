// Package audit records one immutable fact per logical change to a project
// and renders the trail for export.
package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/yukikurage/kanban-board-api/internal/models"
	"github.com/yukikurage/kanban-board-api/internal/repository"
)

// Details is the JSON payload stored with an event.
type Details map[string]interface{}

// Event describes one logical change. ActorID is nil only for system-originated
// events such as expiry sweeps.
type Event struct {
	ProjectID  uint64
	ActorID    *uint64
	Action     string
	EntityType string
	EntityID   uint64
	Details    Details
}

// Actor returns a pointer to id for Event.ActorID.
func Actor(id uint64) *uint64 {
	return &id
}

// System is the ActorID of events no user triggered.
var System *uint64

// Recorder appends events to the audit trail. It never opens its own
// transaction: callers pass the Store of the transaction that made the change.
type Recorder struct {
	now func() time.Time
}

func NewRecorder() *Recorder {
	return &Recorder{now: time.Now}
}

// Record appends events inside tx.
func (r *Recorder) Record(tx *repository.Store, events ...Event) error {
	if len(events) == 0 {
		return nil
	}

	now := r.now().UTC()
	logs := make([]*models.AuditLog, 0, len(events))
	for _, ev := range events {
		if ev.Action == "" || ev.EntityType == "" {
			return fmt.Errorf("audit event missing action or entity type: %+v", ev)
		}

		details := ev.Details
		if details == nil {
			details = Details{}
		}
		payload, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("failed to encode audit details for %s: %w", ev.Action, err)
		}

		logs = append(logs, &models.AuditLog{
			ProjectID:  ev.ProjectID,
			UserID:     ev.ActorID,
			Action:     ev.Action,
			EntityType: ev.EntityType,
			EntityID:   ev.EntityID,
			Details:    datatypes.JSON(payload),
			CreatedAt:  now,
		})
	}

	if err := tx.AuditLogs.Create(logs...); err != nil {
		return fmt.Errorf("failed to record audit events: %w", err)
	}
	return nil
}

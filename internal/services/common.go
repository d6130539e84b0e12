package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yukikurage/kanban-board-api/internal/models"
	"github.com/yukikurage/kanban-board-api/internal/permission"
	"github.com/yukikurage/kanban-board-api/internal/repository"
)

var (
	// ErrProjectNotFound covers both unknown projects and projects the caller
	// has no role on.
	ErrProjectNotFound = errors.New("project not found")
	// ErrForbidden means the caller has a role on the project but not a high enough one.
	ErrForbidden = errors.New("insufficient permissions")
)

// authorize checks actorID against minRole inside tx and maps the decision
// to the shared sentinel errors.
func authorize(tx *repository.Store, actorID, projectID uint64, minRole models.ProjectRole) (permission.Decision, error) {
	decision, err := permission.Evaluate(tx, actorID, projectID, minRole)
	if err != nil {
		return permission.Decision{}, err
	}
	if !decision.Known() {
		return decision, ErrProjectNotFound
	}
	if !decision.HasAccess {
		return decision, ErrForbidden
	}
	return decision, nil
}

// notFound maps gorm.ErrRecordNotFound to sentinel and wraps everything else.
func notFound(err error, sentinel error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return fmt.Errorf("failed to find %s: %w", what, err)
}

// uniqueUint64 removes duplicate values from a slice of uint64
func uniqueUint64(values []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(values))
	result := make([]uint64, 0, len(values))

	for _, v := range values {
		if _, exists := seen[v]; exists {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}

	return result
}

// isPermutation reports whether ids holds exactly the members of current.
func isPermutation(ids, current []uint64) bool {
	if len(ids) != len(current) || len(uniqueUint64(ids)) != len(ids) {
		return false
	}
	set := make(map[uint64]struct{}, len(current))
	for _, id := range current {
		set[id] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}

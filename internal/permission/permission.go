// Package permission resolves a user's effective role on a project and
// decides whether it satisfies a required minimum.
package permission

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yukikurage/kanban-board-api/internal/models"
	"github.com/yukikurage/kanban-board-api/internal/repository"
)

// Rank orders roles: owner > admin > member > none.
func Rank(role models.ProjectRole) int {
	switch role {
	case models.RoleOwner:
		return 3
	case models.RoleAdmin:
		return 2
	case models.RoleMember:
		return 1
	default:
		return 0
	}
}

// Decision is the outcome of a permission check. Role is empty when the user
// has no relationship with the project at all.
type Decision struct {
	HasAccess bool
	Role      models.ProjectRole
}

// Known reports whether the user holds any role on the project.
func (d Decision) Known() bool {
	return d.Role != ""
}

// Grants reports whether role satisfies required.
func Grants(role, required models.ProjectRole) bool {
	return Rank(role) > 0 && Rank(role) >= Rank(required)
}

// Decide resolves the effective role from the project owner and the user's
// membership row (empty if none) and checks it against required. Ownership
// wins over any membership row.
func Decide(ownerID, userID uint64, memberRole models.ProjectRole, required models.ProjectRole) Decision {
	role := memberRole
	if ownerID == userID {
		role = models.RoleOwner
	} else if !memberRole.IsAssignable() {
		role = ""
	}

	if role == "" {
		return Decision{}
	}
	return Decision{HasAccess: Grants(role, required), Role: role}
}

// Evaluator is the single place handlers and services ask for access.
type Evaluator struct {
	store *repository.Store
}

func NewEvaluator(store *repository.Store) *Evaluator {
	return &Evaluator{store: store}
}

// Evaluate checks userID against minRole on projectID. An unknown project is
// reported like any other project the user cannot see. Only infrastructure
// failures return an error.
func (e *Evaluator) Evaluate(ctx context.Context, userID, projectID uint64, minRole models.ProjectRole) (Decision, error) {
	return Evaluate(e.store.WithContext(ctx), userID, projectID, minRole)
}

// CheckAccess is Evaluate with the default requirement of member.
func (e *Evaluator) CheckAccess(ctx context.Context, userID, projectID uint64) (Decision, error) {
	return e.Evaluate(ctx, userID, projectID, models.RoleMember)
}

// Evaluate runs the check against an explicit store, typically one bound to
// an open transaction.
func Evaluate(store *repository.Store, userID, projectID uint64, minRole models.ProjectRole) (Decision, error) {
	project, err := store.Projects.FindByID(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Decision{}, nil
		}
		return Decision{}, fmt.Errorf("failed to load project %d: %w", projectID, err)
	}

	if project.OwnerID == userID {
		return Decide(project.OwnerID, userID, "", minRole), nil
	}

	var memberRole models.ProjectRole
	member, err := store.Projects.FindMember(projectID, userID)
	switch {
	case err == nil:
		memberRole = member.Role
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return Decision{}, fmt.Errorf("failed to load membership: %w", err)
	}

	return Decide(project.OwnerID, userID, memberRole, minRole), nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yukikurage/kanban-board-api/internal/audit"
	"github.com/yukikurage/kanban-board-api/internal/models"
	"github.com/yukikurage/kanban-board-api/internal/permission"
	"github.com/yukikurage/kanban-board-api/internal/repository"
)

var (
	ErrMemberNotFound       = errors.New("project member not found")
	ErrInvalidRole          = errors.New("role must be admin or member")
	ErrCannotChangeOwner    = errors.New("the project owner's role cannot be changed")
	ErrCannotRemoveOwner    = errors.New("the project owner cannot be removed")
	ErrCannotRemoveYourself = errors.New("use leave to remove yourself from the project")
	ErrOwnerCannotLeave     = errors.New("the project owner cannot leave the project")
	ErrOutrankedTarget      = errors.New("you can only remove members ranked below you")
)

// MemberService manages who belongs to a project.
type MemberService struct {
	store    *repository.Store
	recorder *audit.Recorder
}

func NewMemberService(store *repository.Store, recorder *audit.Recorder) *MemberService {
	return &MemberService{store: store, recorder: recorder}
}

// Member is one row of the member list, owner included.
type Member struct {
	User     models.User
	Role     models.ProjectRole
	JoinedAt time.Time
}

// ListMembers returns the owner followed by members in join order.
func (s *MemberService) ListMembers(ctx context.Context, actorID, projectID uint64) ([]Member, error) {
	store := s.store.WithContext(ctx)

	if _, err := authorize(store, actorID, projectID, models.RoleMember); err != nil {
		return nil, err
	}
	project, err := store.Projects.FindByID(projectID)
	if err != nil {
		return nil, notFound(err, ErrProjectNotFound, "project")
	}
	rows, err := store.Projects.ListMembers(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	members := make([]Member, 0, len(rows)+1)
	members = append(members, Member{User: project.Owner, Role: models.RoleOwner, JoinedAt: project.CreatedAt})
	for _, m := range rows {
		if m.UserID == project.OwnerID {
			continue
		}
		members = append(members, Member{User: m.User, Role: m.Role, JoinedAt: m.JoinedAt})
	}
	return members, nil
}

// UpdateRole changes a member's role. Only the owner may do this.
func (s *MemberService) UpdateRole(ctx context.Context, actorID, projectID, targetID uint64, role models.ProjectRole) error {
	if !role.IsAssignable() {
		return ErrInvalidRole
	}

	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := authorize(tx, actorID, projectID, models.RoleOwner); err != nil {
			return err
		}
		if targetID == actorID {
			return ErrCannotChangeOwner
		}

		member, err := tx.Projects.FindMember(projectID, targetID)
		if err != nil {
			return notFound(err, ErrMemberNotFound, "member")
		}
		if member.Role == role {
			return nil
		}

		if err := tx.Projects.UpdateMemberRole(projectID, targetID, role); err != nil {
			return fmt.Errorf("failed to update role: %w", err)
		}

		return s.recorder.Record(tx, audit.Event{
			ProjectID:  projectID,
			ActorID:    audit.Actor(actorID),
			Action:     audit.ActionMemberRoleChanged,
			EntityType: audit.EntityMember,
			EntityID:   targetID,
			Details:    audit.Details{"field": "role", "old": member.Role, "new": role},
		})
	})
}

// RemoveMember removes another member. Requires admin, and the target must
// rank strictly below the actor.
func (s *MemberService) RemoveMember(ctx context.Context, actorID, projectID, targetID uint64) error {
	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		decision, err := authorize(tx, actorID, projectID, models.RoleAdmin)
		if err != nil {
			return err
		}
		if targetID == actorID {
			return ErrCannotRemoveYourself
		}

		project, err := tx.Projects.FindByID(projectID)
		if err != nil {
			return notFound(err, ErrProjectNotFound, "project")
		}
		if project.OwnerID == targetID {
			return ErrCannotRemoveOwner
		}

		member, err := tx.Projects.FindMember(projectID, targetID)
		if err != nil {
			return notFound(err, ErrMemberNotFound, "member")
		}
		if permission.Rank(member.Role) >= permission.Rank(decision.Role) {
			return ErrOutrankedTarget
		}

		if err := tx.Projects.RemoveMember(projectID, targetID); err != nil {
			return fmt.Errorf("failed to remove member: %w", err)
		}

		return s.recorder.Record(tx, audit.Event{
			ProjectID:  projectID,
			ActorID:    audit.Actor(actorID),
			Action:     audit.ActionMemberRemoved,
			EntityType: audit.EntityMember,
			EntityID:   targetID,
			Details:    audit.Details{"role": member.Role},
		})
	})
}

// Leave removes the caller's own membership. The owner cannot leave.
func (s *MemberService) Leave(ctx context.Context, actorID, projectID uint64) error {
	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		decision, err := authorize(tx, actorID, projectID, models.RoleMember)
		if err != nil {
			return err
		}
		if decision.Role == models.RoleOwner {
			return ErrOwnerCannotLeave
		}

		if err := tx.Projects.RemoveMember(projectID, actorID); err != nil {
			return fmt.Errorf("failed to leave project: %w", err)
		}

		return s.recorder.Record(tx, audit.Event{
			ProjectID:  projectID,
			ActorID:    audit.Actor(actorID),
			Action:     audit.ActionMemberLeft,
			EntityType: audit.EntityMember,
			EntityID:   actorID,
			Details:    audit.Details{"role": decision.Role},
		})
	})
}

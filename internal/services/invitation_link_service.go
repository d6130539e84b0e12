package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yukikurage/kanban-board-api/internal/audit"
	"github.com/yukikurage/kanban-board-api/internal/models"
	"github.com/yukikurage/kanban-board-api/internal/permission"
	"github.com/yukikurage/kanban-board-api/internal/repository"
	"github.com/yukikurage/kanban-board-api/internal/utils"
)

var (
	ErrInvitationLinkNotFound = errors.New("invitation link not found")
	ErrInvitationLinkInactive = errors.New("invitation link is no longer active")
	ErrInvitationLinkExpired  = errors.New("invitation link has expired")
)

func (s *InvitationService) linkURL(token string) string {
	return fmt.Sprintf("%s/join/%s", s.opts.BaseURL, token)
}

// LinkResult pairs a link with the URL to share.
type LinkResult struct {
	Link *models.ProjectInvitationLink
	URL  string
}

// GetActiveLink returns the project's active link. Requires admin.
func (s *InvitationService) GetActiveLink(ctx context.Context, actorID, projectID uint64) (*LinkResult, error) {
	store := s.store.WithContext(ctx)
	if _, err := authorize(store, actorID, projectID, models.RoleAdmin); err != nil {
		return nil, err
	}

	link, err := store.InvitationLinks.FindActive(projectID)
	if err != nil {
		return nil, notFound(err, ErrInvitationLinkNotFound, "invitation link")
	}
	return &LinkResult{Link: link, URL: s.linkURL(link.Token)}, nil
}

// CreateLink issues a new link and deactivates any previous one. Requires admin.
func (s *InvitationService) CreateLink(ctx context.Context, actorID, projectID uint64) (*LinkResult, error) {
	result := &LinkResult{}

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := authorize(tx, actorID, projectID, models.RoleAdmin); err != nil {
			return err
		}

		replaced, err := tx.InvitationLinks.DeactivateAll(projectID)
		if err != nil {
			return fmt.Errorf("failed to deactivate links: %w", err)
		}

		token, err := utils.GenerateToken()
		if err != nil {
			return err
		}
		link := &models.ProjectInvitationLink{
			ProjectID:   projectID,
			Token:       token,
			IsActive:    true,
			CreatedByID: &actorID,
			ExpiresAt:   s.now().Add(s.opts.LinkTTL),
		}
		if err := tx.InvitationLinks.Create(link); err != nil {
			return fmt.Errorf("failed to create invitation link: %w", err)
		}

		result.Link = link
		result.URL = s.linkURL(token)

		return s.recorder.Record(tx, audit.Event{
			ProjectID:  projectID,
			ActorID:    audit.Actor(actorID),
			Action:     audit.ActionInvitationLinkCreated,
			EntityType: audit.EntityInvitationLink,
			EntityID:   link.ID,
			Details:    audit.Details{"expires_at": link.ExpiresAt, "replaced": replaced},
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RevokeLink deactivates the project's link. Requires admin.
func (s *InvitationService) RevokeLink(ctx context.Context, actorID, projectID uint64) error {
	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := authorize(tx, actorID, projectID, models.RoleAdmin); err != nil {
			return err
		}

		link, err := tx.InvitationLinks.FindActive(projectID)
		if err != nil {
			return notFound(err, ErrInvitationLinkNotFound, "invitation link")
		}
		if _, err := tx.InvitationLinks.DeactivateAll(projectID); err != nil {
			return fmt.Errorf("failed to revoke invitation link: %w", err)
		}

		return s.recorder.Record(tx, audit.Event{
			ProjectID:  projectID,
			ActorID:    audit.Actor(actorID),
			Action:     audit.ActionInvitationLinkRevoked,
			EntityType: audit.EntityInvitationLink,
			EntityID:   link.ID,
		})
	})
}

// LinkPreview describes a link's project without joining it.
type LinkPreview struct {
	ProjectID   uint64
	ProjectName string
	Usable      bool
}

// PreviewLink looks a link up by token.
func (s *InvitationService) PreviewLink(ctx context.Context, token string) (*LinkPreview, error) {
	link, err := s.store.WithContext(ctx).InvitationLinks.FindByToken(token)
	if err != nil {
		return nil, notFound(err, ErrInvitationLinkNotFound, "invitation link")
	}
	return &LinkPreview{
		ProjectID:   link.ProjectID,
		ProjectName: link.Project.Name,
		Usable:      link.IsUsable(s.now()),
	}, nil
}

// AcceptLink joins userID to the link's project as a member. Joining a
// project the user is already on succeeds without changes.
func (s *InvitationService) AcceptLink(ctx context.Context, userID uint64, token string) (*AcceptResult, error) {
	result := &AcceptResult{UserID: userID, Role: models.RoleMember}

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		link, err := tx.InvitationLinks.FindByToken(token)
		if err != nil {
			return notFound(err, ErrInvitationLinkNotFound, "invitation link")
		}
		result.ProjectID = link.ProjectID

		now := s.now()
		if !link.IsActive {
			return ErrInvitationLinkInactive
		}
		if !link.IsUsable(now) {
			return ErrInvitationLinkExpired
		}

		decision, err := permission.Evaluate(tx, userID, link.ProjectID, models.RoleMember)
		if err != nil {
			return err
		}
		if decision.Known() {
			result.AlreadyMember = true
			result.Role = decision.Role
			return nil
		}

		if err := tx.Projects.AddMember(&models.ProjectMember{
			ProjectID: link.ProjectID,
			UserID:    userID,
			Role:      models.RoleMember,
			JoinedAt:  now,
		}); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrInvitationRetry
			}
			return fmt.Errorf("failed to add member: %w", err)
		}

		return s.recorder.Record(tx, audit.Event{
			ProjectID:  link.ProjectID,
			ActorID:    audit.Actor(userID),
			Action:     audit.ActionMemberJoinedViaLink,
			EntityType: audit.EntityMember,
			EntityID:   userID,
			Details:    audit.Details{"role": models.RoleMember, "link_id": link.ID},
		})
	})
	if err != nil {
		return result, err
	}
	return result, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yukikurage/kanban-board-api/internal/audit"
	"github.com/yukikurage/kanban-board-api/internal/mailer"
	"github.com/yukikurage/kanban-board-api/internal/models"
	"github.com/yukikurage/kanban-board-api/internal/permission"
	"github.com/yukikurage/kanban-board-api/internal/repository"
	"github.com/yukikurage/kanban-board-api/internal/utils"
)

var (
	ErrInvitationNotFound        = errors.New("invitation not found")
	ErrInvitationAlreadyAccepted = errors.New("invitation has already been accepted")
	ErrInvitationExpired         = errors.New("invitation has expired")
	ErrInvitationNotPending      = errors.New("invitation is no longer pending")
	ErrInvitationAccountRequired = errors.New("no account exists for the invited email, register first")
	ErrInvitationRetry           = errors.New("invitation was processed concurrently, retry")
	ErrAlreadyProjectMember      = errors.New("user already owns or belongs to this project")
	ErrDuplicateInvitation       = errors.New("a pending invitation already exists for this email")
	ErrInvitationDelivery        = errors.New("failed to deliver invitation email")
)

// InvitationOptions configures invitation tokens and links.
type InvitationOptions struct {
	BaseURL string
	TTL     time.Duration
	LinkTTL time.Duration
}

// InvitationService runs the invitation lifecycle: pending invitations end
// up accepted, rejected or expired, and every transition is audited.
type InvitationService struct {
	store    *repository.Store
	recorder *audit.Recorder
	mailer   mailer.Mailer
	opts     InvitationOptions
	logger   *zap.Logger
	now      func() time.Time
}

func NewInvitationService(store *repository.Store, recorder *audit.Recorder, m mailer.Mailer, opts InvitationOptions, logger *zap.Logger) *InvitationService {
	return &InvitationService{
		store:    store,
		recorder: recorder,
		mailer:   m,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *InvitationService) acceptURL(token string) string {
	return fmt.Sprintf("%s/invitations/%s", s.opts.BaseURL, token)
}

// CreateInvitationInput represents an invitation request.
type CreateInvitationInput struct {
	Email string
	Role  models.ProjectRole
}

// CreateInvitationResult is the stored invitation and an optional preview link.
type CreateInvitationResult struct {
	Invitation *models.ProjectInvitation
	PreviewURL string
}

// CreateInvitation invites an email address to a project. The invitation
// email is sent inside the transaction: if delivery fails nothing is stored.
func (s *InvitationService) CreateInvitation(ctx context.Context, actorID, projectID uint64, input CreateInvitationInput) (*CreateInvitationResult, error) {
	email := utils.NormalizeEmail(input.Email)
	if !utils.IsValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if !input.Role.IsAssignable() {
		return nil, ErrInvalidRole
	}

	result := &CreateInvitationResult{}
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := authorize(tx, actorID, projectID, models.RoleAdmin); err != nil {
			return err
		}

		project, err := tx.Projects.FindByID(projectID)
		if err != nil {
			return notFound(err, ErrProjectNotFound, "project")
		}
		if err := s.ensureNotOnProject(tx, projectID, email); err != nil {
			return err
		}

		now := s.now()
		if existing, err := tx.Invitations.FindPending(projectID, email); err == nil {
			if !existing.IsExpired(now) {
				return ErrDuplicateInvitation
			}
			if err := s.expire(tx, existing); err != nil {
				return err
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check pending invitations: %w", err)
		}

		token, err := utils.GenerateToken()
		if err != nil {
			return err
		}
		invitation := &models.ProjectInvitation{
			ProjectID:   projectID,
			Email:       email,
			Role:        input.Role,
			Token:       token,
			Status:      models.InvitationPending,
			InvitedByID: &actorID,
			ExpiresAt:   now.Add(s.opts.TTL),
		}
		if err := tx.Invitations.Create(invitation); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateInvitation
			}
			return fmt.Errorf("failed to create invitation: %w", err)
		}

		if err := s.recorder.Record(tx, audit.Event{
			ProjectID:  projectID,
			ActorID:    audit.Actor(actorID),
			Action:     audit.ActionInvitationCreated,
			EntityType: audit.EntityInvitation,
			EntityID:   invitation.ID,
			Details:    audit.Details{"email": email, "role": input.Role},
		}); err != nil {
			return err
		}

		inviter, err := tx.Users.FindByID(actorID)
		if err != nil {
			return fmt.Errorf("failed to load inviter: %w", err)
		}
		delivery, err := s.mailer.SendInvitation(ctx, mailer.InvitationMessage{
			To:          email,
			ProjectName: project.Name,
			InviterName: inviter.DisplayName(),
			Role:        string(input.Role),
			AcceptURL:   s.acceptURL(token),
			ExpiresAt:   invitation.ExpiresAt,
		})
		if err != nil {
			s.logger.Warn("invitation email failed, rolling back",
				zap.Uint64("project_id", projectID),
				zap.String("email", email),
				zap.Error(err),
			)
			return fmt.Errorf("%w: %v", ErrInvitationDelivery, err)
		}

		result.Invitation = invitation
		result.PreviewURL = delivery.PreviewURL
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ensureNotOnProject rejects emails that already own or belong to the project.
func (s *InvitationService) ensureNotOnProject(tx *repository.Store, projectID uint64, email string) error {
	user, err := tx.Users.FindByEmail(email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up invitee: %w", err)
	}

	decision, err := permission.Evaluate(tx, user.ID, projectID, models.RoleMember)
	if err != nil {
		return err
	}
	if decision.Known() {
		return ErrAlreadyProjectMember
	}
	return nil
}

// expire moves a pending invitation to expired. The transition is a system
// event: nobody acted on the invitation.
func (s *InvitationService) expire(tx *repository.Store, invitation *models.ProjectInvitation) error {
	invitation.Status = models.InvitationExpired
	if err := tx.Invitations.Update(invitation); err != nil {
		return fmt.Errorf("failed to expire invitation: %w", err)
	}
	return s.recorder.Record(tx, audit.Event{
		ProjectID:  invitation.ProjectID,
		ActorID:    audit.System,
		Action:     audit.ActionInvitationExpired,
		EntityType: audit.EntityInvitation,
		EntityID:   invitation.ID,
		Details:    audit.Details{"email": invitation.Email, "expires_at": invitation.ExpiresAt},
	})
}

// InvitationPreview is what an invitee sees before accepting.
type InvitationPreview struct {
	ProjectID   uint64
	ProjectName string
	InviterName string
	Email       string
	Role        models.ProjectRole
	Status      models.InvitationStatus
	ExpiresAt   time.Time
}

// PreviewInvitation describes an invitation by token without changing it.
// A pending invitation past its expiry is reported as expired.
func (s *InvitationService) PreviewInvitation(ctx context.Context, token string) (*InvitationPreview, error) {
	invitation, err := s.store.WithContext(ctx).Invitations.FindByToken(token)
	if err != nil {
		return nil, notFound(err, ErrInvitationNotFound, "invitation")
	}

	status := invitation.Status
	if status == models.InvitationPending && invitation.IsExpired(s.now()) {
		status = models.InvitationExpired
	}

	preview := &InvitationPreview{
		ProjectID:   invitation.ProjectID,
		ProjectName: invitation.Project.Name,
		Email:       invitation.Email,
		Role:        invitation.Role,
		Status:      status,
		ExpiresAt:   invitation.ExpiresAt,
	}
	if invitation.InvitedBy != nil {
		preview.InviterName = invitation.InvitedBy.DisplayName()
	}
	return preview, nil
}

// AcceptResult reports the outcome of an accept call. ProjectID is also set
// when the call fails with ErrInvitationAlreadyAccepted so clients can redirect.
type AcceptResult struct {
	ProjectID     uint64
	UserID        uint64
	Role          models.ProjectRole
	AlreadyMember bool
}

// AcceptInvitation accepts an invitation by token. The invitation row is
// locked for the whole transaction so concurrent accepts serialize. Rules are
// applied in order:
//
//  1. unknown token: ErrInvitationNotFound
//  2. already accepted: ErrInvitationAlreadyAccepted, no change
//  3. expired by status or by time: stored as expired, ErrInvitationExpired
//  4. not pending: ErrInvitationNotPending
//  5. no account for the email: ErrInvitationAccountRequired, stays pending
//  6. already on the project: marked accepted, no new membership
//  7. otherwise: marked accepted and a membership is created
//
// A unique violation on the membership insert is reported as ErrInvitationRetry.
func (s *InvitationService) AcceptInvitation(ctx context.Context, token string) (*AcceptResult, error) {
	result := &AcceptResult{}
	var outcome error

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		invitation, err := tx.Invitations.FindByTokenForUpdate(token)
		if err != nil {
			return notFound(err, ErrInvitationNotFound, "invitation")
		}
		result.ProjectID = invitation.ProjectID
		result.Role = invitation.Role

		if invitation.Status == models.InvitationAccepted {
			return ErrInvitationAlreadyAccepted
		}

		now := s.now()
		if invitation.IsExpired(now) {
			// The expiry must stick even though the caller gets an error, so
			// commit and report afterwards.
			outcome = ErrInvitationExpired
			if invitation.Status == models.InvitationPending {
				return s.expire(tx, invitation)
			}
			return nil
		}

		if invitation.Status != models.InvitationPending {
			return ErrInvitationNotPending
		}

		user, err := tx.Users.FindByEmail(invitation.Email)
		if err != nil {
			return notFound(err, ErrInvitationAccountRequired, "invitee")
		}
		result.UserID = user.ID

		decision, err := permission.Evaluate(tx, user.ID, invitation.ProjectID, models.RoleMember)
		if err != nil {
			return err
		}

		invitation.Status = models.InvitationAccepted
		invitation.AcceptedAt = &now
		if err := tx.Invitations.Update(invitation); err != nil {
			return fmt.Errorf("failed to accept invitation: %w", err)
		}

		accepted := audit.Event{
			ProjectID:  invitation.ProjectID,
			ActorID:    audit.Actor(user.ID),
			Action:     audit.ActionInvitationAccepted,
			EntityType: audit.EntityInvitation,
			EntityID:   invitation.ID,
			Details:    audit.Details{"email": invitation.Email, "role": invitation.Role},
		}

		if decision.Known() {
			result.AlreadyMember = true
			result.Role = decision.Role
			accepted.Details["already_member"] = true
			return s.recorder.Record(tx, accepted)
		}

		member := &models.ProjectMember{
			ProjectID: invitation.ProjectID,
			UserID:    user.ID,
			Role:      invitation.Role,
			JoinedAt:  now,
		}
		if err := tx.Projects.AddMember(member); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrInvitationRetry
			}
			return fmt.Errorf("failed to add member: %w", err)
		}

		return s.recorder.Record(tx, accepted, audit.Event{
			ProjectID:  invitation.ProjectID,
			ActorID:    audit.Actor(user.ID),
			Action:     audit.ActionMemberAdded,
			EntityType: audit.EntityMember,
			EntityID:   user.ID,
			Details:    audit.Details{"role": invitation.Role, "via": "invitation", "invitation_id": invitation.ID},
		})
	})
	if err != nil {
		return result, err
	}
	if outcome != nil {
		return result, outcome
	}
	return result, nil
}

// RejectInvitation declines a pending invitation by token.
func (s *InvitationService) RejectInvitation(ctx context.Context, token string) error {
	var outcome error

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		invitation, err := tx.Invitations.FindByTokenForUpdate(token)
		if err != nil {
			return notFound(err, ErrInvitationNotFound, "invitation")
		}
		if invitation.Status == models.InvitationAccepted {
			return ErrInvitationAlreadyAccepted
		}
		if invitation.IsExpired(s.now()) {
			outcome = ErrInvitationExpired
			if invitation.Status == models.InvitationPending {
				return s.expire(tx, invitation)
			}
			return nil
		}
		if invitation.Status != models.InvitationPending {
			return ErrInvitationNotPending
		}

		invitation.Status = models.InvitationRejected
		if err := tx.Invitations.Update(invitation); err != nil {
			return fmt.Errorf("failed to reject invitation: %w", err)
		}

		actor := audit.System
		if user, err := tx.Users.FindByEmail(invitation.Email); err == nil {
			actor = audit.Actor(user.ID)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to look up invitee: %w", err)
		}

		return s.recorder.Record(tx, audit.Event{
			ProjectID:  invitation.ProjectID,
			ActorID:    actor,
			Action:     audit.ActionInvitationRejected,
			EntityType: audit.EntityInvitation,
			EntityID:   invitation.ID,
			Details:    audit.Details{"email": invitation.Email},
		})
	})
	if err != nil {
		return err
	}
	return outcome
}

// ListPendingInvitations lists pending invitations of a project. Requires admin.
func (s *InvitationService) ListPendingInvitations(ctx context.Context, actorID, projectID uint64) ([]models.ProjectInvitation, error) {
	store := s.store.WithContext(ctx)
	if _, err := authorize(store, actorID, projectID, models.RoleAdmin); err != nil {
		return nil, err
	}

	invitations, err := store.Invitations.ListPending(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	return invitations, nil
}

// CancelInvitation withdraws a pending invitation. Requires admin.
func (s *InvitationService) CancelInvitation(ctx context.Context, actorID, projectID, invitationID uint64) error {
	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := authorize(tx, actorID, projectID, models.RoleAdmin); err != nil {
			return err
		}
		invitation, err := s.findProjectInvitation(tx, projectID, invitationID)
		if err != nil {
			return err
		}
		if invitation.Status != models.InvitationPending {
			return ErrInvitationNotPending
		}

		if err := tx.Invitations.Delete(invitation.ID); err != nil {
			return fmt.Errorf("failed to cancel invitation: %w", err)
		}

		return s.recorder.Record(tx, audit.Event{
			ProjectID:  projectID,
			ActorID:    audit.Actor(actorID),
			Action:     audit.ActionInvitationCancelled,
			EntityType: audit.EntityInvitation,
			EntityID:   invitation.ID,
			Details:    audit.Details{"email": invitation.Email, "role": invitation.Role},
		})
	})
}

// ResendInvitation issues a fresh token and expiry for a pending invitation
// and mails it again. Requires admin.
func (s *InvitationService) ResendInvitation(ctx context.Context, actorID, projectID, invitationID uint64) (*CreateInvitationResult, error) {
	result := &CreateInvitationResult{}

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := authorize(tx, actorID, projectID, models.RoleAdmin); err != nil {
			return err
		}
		invitation, err := s.findProjectInvitation(tx, projectID, invitationID)
		if err != nil {
			return err
		}
		if invitation.Status != models.InvitationPending {
			return ErrInvitationNotPending
		}

		token, err := utils.GenerateToken()
		if err != nil {
			return err
		}
		invitation.Token = token
		invitation.ExpiresAt = s.now().Add(s.opts.TTL)
		if err := tx.Invitations.Update(invitation); err != nil {
			return fmt.Errorf("failed to refresh invitation: %w", err)
		}

		if err := s.recorder.Record(tx, audit.Event{
			ProjectID:  projectID,
			ActorID:    audit.Actor(actorID),
			Action:     audit.ActionInvitationResent,
			EntityType: audit.EntityInvitation,
			EntityID:   invitation.ID,
			Details:    audit.Details{"email": invitation.Email},
		}); err != nil {
			return err
		}

		project, err := tx.Projects.FindByID(projectID)
		if err != nil {
			return notFound(err, ErrProjectNotFound, "project")
		}
		inviter, err := tx.Users.FindByID(actorID)
		if err != nil {
			return fmt.Errorf("failed to load inviter: %w", err)
		}
		delivery, err := s.mailer.SendInvitation(ctx, mailer.InvitationMessage{
			To:          invitation.Email,
			ProjectName: project.Name,
			InviterName: inviter.DisplayName(),
			Role:        string(invitation.Role),
			AcceptURL:   s.acceptURL(token),
			ExpiresAt:   invitation.ExpiresAt,
		})
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvitationDelivery, err)
		}

		result.Invitation = invitation
		result.PreviewURL = delivery.PreviewURL
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ExpireStale moves every pending invitation past its expiry to expired.
// It runs from the maintenance worker.
func (s *InvitationService) ExpireStale(ctx context.Context) (int, error) {
	var expired int

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		stale, err := tx.Invitations.ListStale(s.now())
		if err != nil {
			return fmt.Errorf("failed to list stale invitations: %w", err)
		}
		for i := range stale {
			if err := s.expire(tx, &stale[i]); err != nil {
				return err
			}
		}
		expired = len(stale)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return expired, nil
}

func (s *InvitationService) findProjectInvitation(tx *repository.Store, projectID, invitationID uint64) (*models.ProjectInvitation, error) {
	invitation, err := tx.Invitations.FindByID(invitationID)
	if err != nil {
		return nil, notFound(err, ErrInvitationNotFound, "invitation")
	}
	if invitation.ProjectID != projectID {
		return nil, ErrInvitationNotFound
	}
	return invitation, nil
}

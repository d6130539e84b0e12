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
)

var (
	ErrNotTaskAssignee          = errors.New("only the task assignee can add collaborators")
	ErrCollaboratorNotFound     = errors.New("collaborator not found")
	ErrAlreadyCollaborator      = errors.New("user is already a collaborator on this task")
	ErrInvalidCollaborator      = errors.New("collaborator must be the owner or a member of the project")
	ErrCollaboratorRemoveDenied = errors.New("only the task assignee or the collaborator can remove a collaborator")
)

// CollaboratorService manages task watchers.
type CollaboratorService struct {
	store    *repository.Store
	recorder *audit.Recorder
}

func NewCollaboratorService(store *repository.Store, recorder *audit.Recorder) *CollaboratorService {
	return &CollaboratorService{store: store, recorder: recorder}
}

func (s *CollaboratorService) ListCollaborators(ctx context.Context, actorID, projectID, taskID uint64) ([]models.TaskCollaborator, error) {
	store := s.store.WithContext(ctx)
	if _, err := authorize(store, actorID, projectID, models.RoleMember); err != nil {
		return nil, err
	}
	if _, err := findTask(store, projectID, taskID); err != nil {
		return nil, err
	}

	collaborators, err := store.Collaborators.ListByTask(taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list collaborators: %w", err)
	}
	return collaborators, nil
}

// AddCollaborator adds userID as a watcher. Only the task's assignee may add.
func (s *CollaboratorService) AddCollaborator(ctx context.Context, actorID, projectID, taskID, userID uint64) (*models.TaskCollaborator, error) {
	var added *models.TaskCollaborator

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := authorize(tx, actorID, projectID, models.RoleMember); err != nil {
			return err
		}
		task, err := findTask(tx, projectID, taskID)
		if err != nil {
			return err
		}
		if task.AssigneeID == nil || *task.AssigneeID != actorID {
			return ErrNotTaskAssignee
		}

		decision, err := permission.Evaluate(tx, userID, projectID, models.RoleMember)
		if err != nil {
			return err
		}
		if !decision.HasAccess {
			return ErrInvalidCollaborator
		}

		if _, err := tx.Collaborators.Find(taskID, userID); err == nil {
			return ErrAlreadyCollaborator
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check collaborator: %w", err)
		}

		collaborator := &models.TaskCollaborator{TaskID: taskID, UserID: userID, AddedByID: &actorID}
		if err := tx.Collaborators.Add(collaborator); err != nil {
			return fmt.Errorf("failed to add collaborator: %w", err)
		}
		added = collaborator

		return s.recorder.Record(tx, audit.Event{
			ProjectID:  projectID,
			ActorID:    audit.Actor(actorID),
			Action:     audit.ActionCollaboratorAdded,
			EntityType: audit.EntityCollaborator,
			EntityID:   userID,
			Details:    audit.Details{"task_id": taskID, "task_title": task.Title},
		})
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// RemoveCollaborator removes a watcher. The assignee or the collaborator
// themself may remove.
func (s *CollaboratorService) RemoveCollaborator(ctx context.Context, actorID, projectID, taskID, userID uint64) error {
	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := authorize(tx, actorID, projectID, models.RoleMember); err != nil {
			return err
		}
		task, err := findTask(tx, projectID, taskID)
		if err != nil {
			return err
		}

		isAssignee := task.AssigneeID != nil && *task.AssigneeID == actorID
		if !isAssignee && actorID != userID {
			return ErrCollaboratorRemoveDenied
		}

		if _, err := tx.Collaborators.Find(taskID, userID); err != nil {
			return notFound(err, ErrCollaboratorNotFound, "collaborator")
		}
		if err := tx.Collaborators.Remove(taskID, userID); err != nil {
			return fmt.Errorf("failed to remove collaborator: %w", err)
		}

		return s.recorder.Record(tx, audit.Event{
			ProjectID:  projectID,
			ActorID:    audit.Actor(actorID),
			Action:     audit.ActionCollaboratorRemoved,
			EntityType: audit.EntityCollaborator,
			EntityID:   userID,
			Details:    audit.Details{"task_id": taskID, "task_title": task.Title},
		})
	})
}

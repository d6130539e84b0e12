package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/kanban-board-api/internal/audit"
	"github.com/yukikurage/kanban-board-api/internal/models"
	"github.com/yukikurage/kanban-board-api/internal/permission"
	"github.com/yukikurage/kanban-board-api/internal/repository"
)

var (
	ErrCommentNotFound      = errors.New("comment not found")
	ErrCommentEmpty         = errors.New("comment cannot be empty")
	ErrInvalidParentComment = errors.New("parent comment does not belong to this task")
	ErrNotCommentAuthor     = errors.New("only the author can change this comment")
)

// CommentService handles threaded task comments.
type CommentService struct {
	store    *repository.Store
	recorder *audit.Recorder
}

func NewCommentService(store *repository.Store, recorder *audit.Recorder) *CommentService {
	return &CommentService{store: store, recorder: recorder}
}

// CommentThread is a comment with its replies.
type CommentThread struct {
	Comment models.TaskComment
	Replies []*CommentThread
}

// ListComments returns the comments of a task as threads, oldest first.
func (s *CommentService) ListComments(ctx context.Context, actorID, projectID, taskID uint64) ([]*CommentThread, error) {
	store := s.store.WithContext(ctx)
	if _, err := authorize(store, actorID, projectID, models.RoleMember); err != nil {
		return nil, err
	}
	if _, err := findTask(store, projectID, taskID); err != nil {
		return nil, err
	}

	comments, err := store.Comments.ListByTask(taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return buildThreads(comments), nil
}

func buildThreads(comments []models.TaskComment) []*CommentThread {
	nodes := make(map[uint64]*CommentThread, len(comments))
	for _, c := range comments {
		nodes[c.ID] = &CommentThread{Comment: c, Replies: []*CommentThread{}}
	}

	roots := make([]*CommentThread, 0)
	for _, c := range comments {
		node := nodes[c.ID]
		if c.ParentID != nil {
			if parent, ok := nodes[*c.ParentID]; ok {
				parent.Replies = append(parent.Replies, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots
}

// AddCommentInput represents a new comment or reply.
type AddCommentInput struct {
	Content  string
	ParentID *uint64
}

// AddComment posts a comment on a task. Replies must target a comment on the same task.
func (s *CommentService) AddComment(ctx context.Context, actorID, projectID, taskID uint64, input AddCommentInput) (*models.TaskComment, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, ErrCommentEmpty
	}

	var created *models.TaskComment
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := authorize(tx, actorID, projectID, models.RoleMember); err != nil {
			return err
		}
		task, err := findTask(tx, projectID, taskID)
		if err != nil {
			return err
		}

		if input.ParentID != nil {
			parent, err := tx.Comments.FindByID(*input.ParentID)
			if err != nil {
				return notFound(err, ErrInvalidParentComment, "parent comment")
			}
			if parent.TaskID != task.ID {
				return ErrInvalidParentComment
			}
		}

		comment := &models.TaskComment{
			TaskID:   task.ID,
			UserID:   actorID,
			ParentID: input.ParentID,
			Content:  content,
		}
		if err := tx.Comments.Create(comment); err != nil {
			return fmt.Errorf("failed to create comment: %w", err)
		}

		details := audit.Details{"task_id": task.ID, "task_title": task.Title}
		if comment.ParentID != nil {
			details["parent_id"] = *comment.ParentID
		}
		if err := s.recorder.Record(tx, audit.Event{
			ProjectID:  projectID,
			ActorID:    audit.Actor(actorID),
			Action:     audit.ActionCommentAdded,
			EntityType: audit.EntityComment,
			EntityID:   comment.ID,
			Details:    details,
		}); err != nil {
			return err
		}

		created, err = tx.Comments.FindByID(comment.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// EditComment changes the content of the caller's own comment.
func (s *CommentService) EditComment(ctx context.Context, actorID, projectID, taskID, commentID uint64, content string) (*models.TaskComment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrCommentEmpty
	}

	var edited *models.TaskComment
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := authorize(tx, actorID, projectID, models.RoleMember); err != nil {
			return err
		}
		comment, err := s.findComment(tx, projectID, taskID, commentID)
		if err != nil {
			return err
		}
		if comment.UserID != actorID {
			return ErrNotCommentAuthor
		}
		if comment.Content == content {
			edited = comment
			return nil
		}

		comment.Content = content
		if err := tx.Comments.Update(comment); err != nil {
			return fmt.Errorf("failed to update comment: %w", err)
		}
		edited = comment

		return s.recorder.Record(tx, audit.Event{
			ProjectID:  projectID,
			ActorID:    audit.Actor(actorID),
			Action:     audit.ActionCommentEdited,
			EntityType: audit.EntityComment,
			EntityID:   comment.ID,
			Details:    audit.Details{"task_id": taskID},
		})
	})
	if err != nil {
		return nil, err
	}
	return edited, nil
}

// DeleteComment removes a comment and its replies. Authors may delete their
// own comments; admins may delete any.
func (s *CommentService) DeleteComment(ctx context.Context, actorID, projectID, taskID, commentID uint64) error {
	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		decision, err := authorize(tx, actorID, projectID, models.RoleMember)
		if err != nil {
			return err
		}
		comment, err := s.findComment(tx, projectID, taskID, commentID)
		if err != nil {
			return err
		}
		if comment.UserID != actorID && !permission.Grants(decision.Role, models.RoleAdmin) {
			return ErrNotCommentAuthor
		}

		if err := tx.Comments.Delete(comment.ID); err != nil {
			return fmt.Errorf("failed to delete comment: %w", err)
		}

		return s.recorder.Record(tx, audit.Event{
			ProjectID:  projectID,
			ActorID:    audit.Actor(actorID),
			Action:     audit.ActionCommentDeleted,
			EntityType: audit.EntityComment,
			EntityID:   comment.ID,
			Details:    audit.Details{"task_id": taskID, "author_id": comment.UserID},
		})
	})
}

func (s *CommentService) findComment(tx *repository.Store, projectID, taskID, commentID uint64) (*models.TaskComment, error) {
	if _, err := findTask(tx, projectID, taskID); err != nil {
		return nil, err
	}
	comment, err := tx.Comments.FindByID(commentID)
	if err != nil {
		return nil, notFound(err, ErrCommentNotFound, "comment")
	}
	if comment.TaskID != taskID {
		return nil, ErrCommentNotFound
	}
	return comment, nil
}

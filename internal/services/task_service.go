package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/yukikurage/kanban-board-api/internal/audit"
	"github.com/yukikurage/kanban-board-api/internal/models"
	"github.com/yukikurage/kanban-board-api/internal/permission"
	"github.com/yukikurage/kanban-board-api/internal/repository"
)

var (
	ErrTaskNotFound         = errors.New("task not found")
	ErrTitleRequired        = errors.New("title is required")
	ErrInvalidPriority      = errors.New("priority must be low, medium, high or urgent")
	ErrInvalidAssignee      = errors.New("assignee must be the owner or a member of the project")
	ErrInvalidPosition      = errors.New("position cannot be negative")
	ErrInvalidTaskOrder     = errors.New("task order must list every task of the column exactly once")
	ErrTaskPermissionDenied = errors.New("only the task creator or a project admin can delete this task")
)

var taskPreloads = []string{"Assignee", "Creator"}

// TaskService handles task business logic
type TaskService struct {
	store    *repository.Store
	recorder *audit.Recorder
}

// NewTaskService creates a new TaskService
func NewTaskService(store *repository.Store, recorder *audit.Recorder) *TaskService {
	return &TaskService{store: store, recorder: recorder}
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	ColumnID   *uint64
	AssigneeID *uint64
	Priority   *models.TaskPriority
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	ColumnID      uint64
	Title         string
	Description   string
	Priority      models.TaskPriority
	Tags          []string
	DueDate       *time.Time
	AssigneeID    *uint64
	CheckboxState datatypes.JSON
}

// UpdateTaskInput represents input for updating a task. Nil fields are left
// unchanged; the Clear flags null out optional fields.
type UpdateTaskInput struct {
	Title         *string
	Description   *string
	Priority      *models.TaskPriority
	Tags          *[]string
	DueDate       *time.Time
	ClearDueDate  bool
	AssigneeID    *uint64
	ClearAssignee bool
	CheckboxState datatypes.JSON
	ColumnID      *uint64
}

// MoveTaskInput places a task at Position within ColumnID.
type MoveTaskInput struct {
	ColumnID uint64
	Position int
}

// ListTasks returns the tasks of a project in board order
func (s *TaskService) ListTasks(ctx context.Context, actorID, projectID uint64, input ListTasksInput) ([]models.Task, error) {
	store := s.store.WithContext(ctx)
	if _, err := authorize(store, actorID, projectID, models.RoleMember); err != nil {
		return nil, err
	}
	if input.Priority != nil && !input.Priority.IsValid() {
		return nil, ErrInvalidPriority
	}

	tasks, err := store.Tasks.List(repository.TaskFilter{
		ProjectID:  projectID,
		ColumnID:   input.ColumnID,
		AssigneeID: input.AssigneeID,
		Priority:   input.Priority,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// GetTask returns a task with related data
func (s *TaskService) GetTask(ctx context.Context, actorID, projectID, taskID uint64) (*models.Task, error) {
	store := s.store.WithContext(ctx)
	if _, err := authorize(store, actorID, projectID, models.RoleMember); err != nil {
		return nil, err
	}
	return findTask(store, projectID, taskID, taskPreloads...)
}

// CreateTask appends a task to the end of a column
func (s *TaskService) CreateTask(ctx context.Context, actorID, projectID uint64, input CreateTaskInput) (*models.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if input.Priority == "" {
		input.Priority = models.PriorityMedium
	}
	if !input.Priority.IsValid() {
		return nil, ErrInvalidPriority
	}

	task := &models.Task{
		ProjectID:     projectID,
		ColumnID:      input.ColumnID,
		Title:         title,
		Description:   input.Description,
		Priority:      input.Priority,
		Tags:          normalizeTags(input.Tags),
		DueDate:       input.DueDate,
		AssigneeID:    input.AssigneeID,
		CheckboxState: input.CheckboxState,
		CreatorID:     &actorID,
	}

	var created *models.Task
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := authorize(tx, actorID, projectID, models.RoleMember); err != nil {
			return err
		}
		if _, err := findProjectColumn(tx, projectID, input.ColumnID); err != nil {
			return err
		}
		if err := ensureAssignable(tx, projectID, task.AssigneeID); err != nil {
			return err
		}

		position, err := tx.Tasks.NextPosition(input.ColumnID)
		if err != nil {
			return fmt.Errorf("failed to compute task position: %w", err)
		}
		task.Position = position

		if err := tx.Tasks.Create(task); err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}

		details := audit.Details{"title": task.Title, "column_id": task.ColumnID, "priority": task.Priority}
		if task.AssigneeID != nil {
			details["assignee_id"] = *task.AssigneeID
		}
		if err := s.recorder.Record(tx, audit.Event{
			ProjectID:  projectID,
			ActorID:    audit.Actor(actorID),
			Action:     audit.ActionTaskCreated,
			EntityType: audit.EntityTask,
			EntityID:   task.ID,
			Details:    details,
		}); err != nil {
			return err
		}

		created, err = tx.Tasks.FindByID(task.ID, taskPreloads...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateTask applies field changes and records one audit event per tracked field
func (s *TaskService) UpdateTask(ctx context.Context, actorID, projectID, taskID uint64, input UpdateTaskInput) (*models.Task, error) {
	var updated *models.Task

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := authorize(tx, actorID, projectID, models.RoleMember); err != nil {
			return err
		}

		task, err := findTask(tx, projectID, taskID)
		if err != nil {
			return err
		}
		before := *task

		if input.Title != nil {
			title := strings.TrimSpace(*input.Title)
			if title == "" {
				return ErrTitleRequired
			}
			task.Title = title
		}
		if input.Description != nil {
			task.Description = *input.Description
		}
		if input.Priority != nil {
			if !input.Priority.IsValid() {
				return ErrInvalidPriority
			}
			task.Priority = *input.Priority
		}
		if input.Tags != nil {
			task.Tags = normalizeTags(*input.Tags)
		}
		if input.ClearDueDate {
			task.DueDate = nil
		} else if input.DueDate != nil {
			task.DueDate = input.DueDate
		}
		if input.CheckboxState != nil {
			task.CheckboxState = input.CheckboxState
		}
		if input.ClearAssignee {
			task.AssigneeID = nil
		} else if input.AssigneeID != nil {
			if err := ensureAssignable(tx, projectID, input.AssigneeID); err != nil {
				return err
			}
			task.AssigneeID = input.AssigneeID
		}
		if input.ColumnID != nil && *input.ColumnID != task.ColumnID {
			if _, err := findProjectColumn(tx, projectID, *input.ColumnID); err != nil {
				return err
			}
			position, err := tx.Tasks.NextPosition(*input.ColumnID)
			if err != nil {
				return fmt.Errorf("failed to compute task position: %w", err)
			}
			task.ColumnID = *input.ColumnID
			task.Position = position
		}

		if err := tx.Tasks.Update(task); err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}
		if before.ColumnID != task.ColumnID {
			if err := compactColumn(tx, before.ColumnID); err != nil {
				return err
			}
		}

		if err := s.recorder.Record(tx, audit.TaskChanges(audit.Actor(actorID), before, *task)...); err != nil {
			return err
		}

		updated, err = tx.Tasks.FindByID(task.ID, taskPreloads...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// MoveTask moves a task to a position in a column, shifting its neighbours.
// Positions in both the source and the target column stay dense.
func (s *TaskService) MoveTask(ctx context.Context, actorID, projectID, taskID uint64, input MoveTaskInput) (*models.Task, error) {
	if input.Position < 0 {
		return nil, ErrInvalidPosition
	}

	var moved *models.Task
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := authorize(tx, actorID, projectID, models.RoleMember); err != nil {
			return err
		}

		task, err := findTask(tx, projectID, taskID)
		if err != nil {
			return err
		}
		if _, err := findProjectColumn(tx, projectID, input.ColumnID); err != nil {
			return err
		}
		before := *task

		siblings, err := tx.Tasks.ListByColumn(input.ColumnID)
		if err != nil {
			return fmt.Errorf("failed to list tasks: %w", err)
		}
		ids := make([]uint64, 0, len(siblings)+1)
		for _, t := range siblings {
			if t.ID != task.ID {
				ids = append(ids, t.ID)
			}
		}
		position := input.Position
		if position > len(ids) {
			position = len(ids)
		}
		ids = append(ids[:position], append([]uint64{task.ID}, ids[position:]...)...)

		if err := tx.Tasks.Reorder(input.ColumnID, ids); err != nil {
			return fmt.Errorf("failed to move task: %w", err)
		}
		if before.ColumnID != input.ColumnID {
			if err := compactColumn(tx, before.ColumnID); err != nil {
				return err
			}
		}

		moved, err = tx.Tasks.FindByID(task.ID, taskPreloads...)
		if err != nil {
			return err
		}

		events := audit.TaskChanges(audit.Actor(actorID), before, *moved)
		if before.ColumnID == moved.ColumnID && before.Position != moved.Position {
			events = append(events, audit.Event{
				ProjectID:  projectID,
				ActorID:    audit.Actor(actorID),
				Action:     audit.ActionTasksReordered,
				EntityType: audit.EntityTask,
				EntityID:   moved.ID,
				Details:    audit.Details{"column_id": moved.ColumnID, "field": "position", "old": before.Position, "new": moved.Position},
			})
		}
		return s.recorder.Record(tx, events...)
	})
	if err != nil {
		return nil, err
	}
	return moved, nil
}

// ReorderTasks rewrites the positions of a column's tasks in one transaction.
func (s *TaskService) ReorderTasks(ctx context.Context, actorID, projectID, columnID uint64, orderedIDs []uint64) ([]models.Task, error) {
	var tasks []models.Task

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := authorize(tx, actorID, projectID, models.RoleMember); err != nil {
			return err
		}
		if _, err := findProjectColumn(tx, projectID, columnID); err != nil {
			return err
		}

		current, err := tx.Tasks.ListByColumn(columnID)
		if err != nil {
			return fmt.Errorf("failed to list tasks: %w", err)
		}
		if !isPermutation(orderedIDs, taskIDs(current)) {
			return ErrInvalidTaskOrder
		}

		if err := tx.Tasks.Reorder(columnID, orderedIDs); err != nil {
			return fmt.Errorf("failed to reorder tasks: %w", err)
		}

		tasks, err = tx.Tasks.ListByColumn(columnID)
		if err != nil {
			return fmt.Errorf("failed to list tasks: %w", err)
		}

		return s.recorder.Record(tx, audit.Event{
			ProjectID:  projectID,
			ActorID:    audit.Actor(actorID),
			Action:     audit.ActionTasksReordered,
			EntityType: audit.EntityColumn,
			EntityID:   columnID,
			Details:    audit.Details{"old": taskIDs(current), "new": orderedIDs},
		})
	})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// DeleteTask deletes a task if the actor created it or is at least admin
func (s *TaskService) DeleteTask(ctx context.Context, actorID, projectID, taskID uint64) error {
	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		decision, err := authorize(tx, actorID, projectID, models.RoleMember)
		if err != nil {
			return err
		}

		task, err := findTask(tx, projectID, taskID)
		if err != nil {
			return err
		}

		isCreator := task.CreatorID != nil && *task.CreatorID == actorID
		if !isCreator && !permission.Grants(decision.Role, models.RoleAdmin) {
			return ErrTaskPermissionDenied
		}

		if err := tx.Tasks.Delete(task.ID); err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}
		if err := compactColumn(tx, task.ColumnID); err != nil {
			return err
		}

		return s.recorder.Record(tx, audit.Event{
			ProjectID:  projectID,
			ActorID:    audit.Actor(actorID),
			Action:     audit.ActionTaskDeleted,
			EntityType: audit.EntityTask,
			EntityID:   task.ID,
			Details:    audit.Details{"title": task.Title, "column_id": task.ColumnID},
		})
	})
}

func findTask(store *repository.Store, projectID, taskID uint64, preload ...string) (*models.Task, error) {
	task, err := store.Tasks.FindByID(taskID, preload...)
	if err != nil {
		return nil, notFound(err, ErrTaskNotFound, "task")
	}
	if task.ProjectID != projectID {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

func findProjectColumn(store *repository.Store, projectID, columnID uint64) (*models.TaskColumn, error) {
	column, err := store.Columns.FindByID(columnID)
	if err != nil {
		return nil, notFound(err, ErrColumnNotFound, "column")
	}
	if column.ProjectID != projectID {
		return nil, ErrColumnNotFound
	}
	return column, nil
}

// ensureAssignable checks that a prospective assignee can see the project.
func ensureAssignable(tx *repository.Store, projectID uint64, assigneeID *uint64) error {
	if assigneeID == nil {
		return nil
	}
	decision, err := permission.Evaluate(tx, *assigneeID, projectID, models.RoleMember)
	if err != nil {
		return err
	}
	if !decision.HasAccess {
		return ErrInvalidAssignee
	}
	return nil
}

// compactColumn closes gaps left behind when a task leaves a column.
func compactColumn(tx *repository.Store, columnID uint64) error {
	remaining, err := tx.Tasks.ListByColumn(columnID)
	if err != nil {
		return fmt.Errorf("failed to list tasks: %w", err)
	}
	if err := tx.Tasks.Reorder(columnID, taskIDs(remaining)); err != nil {
		return fmt.Errorf("failed to compact task positions: %w", err)
	}
	return nil
}

func taskIDs(tasks []models.Task) []uint64 {
	ids := make([]uint64, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return ids
}

func normalizeTags(tags []string) datatypes.JSONSlice[string] {
	seen := make(map[string]struct{}, len(tags))
	out := make(datatypes.JSONSlice[string], 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

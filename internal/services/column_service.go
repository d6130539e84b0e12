package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/kanban-board-api/internal/audit"
	"github.com/yukikurage/kanban-board-api/internal/models"
	"github.com/yukikurage/kanban-board-api/internal/repository"
	"github.com/yukikurage/kanban-board-api/internal/utils"
)

var (
	ErrColumnNotFound     = errors.New("column not found")
	ErrInvalidColumnName  = errors.New("column name cannot be empty")
	ErrColumnHasTasks     = errors.New("column still contains tasks")
	ErrLastColumn         = errors.New("a project must keep at least one column")
	ErrInvalidColumnOrder = errors.New("column order must list every column of the project exactly once")
)

// ColumnService manages the columns of a board.
type ColumnService struct {
	store    *repository.Store
	recorder *audit.Recorder
}

func NewColumnService(store *repository.Store, recorder *audit.Recorder) *ColumnService {
	return &ColumnService{store: store, recorder: recorder}
}

// ListColumns returns the columns of a project in board order.
func (s *ColumnService) ListColumns(ctx context.Context, actorID, projectID uint64) ([]models.TaskColumn, error) {
	store := s.store.WithContext(ctx)
	if _, err := authorize(store, actorID, projectID, models.RoleMember); err != nil {
		return nil, err
	}

	columns, err := store.Columns.ListByProject(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns: %w", err)
	}
	return columns, nil
}

// CreateColumnInput represents parameters to add a column.
type CreateColumnInput struct {
	Name  string
	Color string
}

// CreateColumn appends a column to the board. Requires admin.
func (s *ColumnService) CreateColumn(ctx context.Context, actorID, projectID uint64, input CreateColumnInput) (*models.TaskColumn, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrInvalidColumnName
	}
	color := input.Color
	if color == "" {
		color = models.DefaultColumnColor
	}
	if !utils.IsValidColor(color) {
		return nil, ErrInvalidColor
	}

	column := &models.TaskColumn{ProjectID: projectID, Name: name, Color: color}

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := authorize(tx, actorID, projectID, models.RoleAdmin); err != nil {
			return err
		}

		position, err := tx.Columns.NextPosition(projectID)
		if err != nil {
			return fmt.Errorf("failed to compute column position: %w", err)
		}
		column.Position = position

		if err := tx.Columns.Create(column); err != nil {
			return fmt.Errorf("failed to create column: %w", err)
		}

		return s.recorder.Record(tx, audit.Event{
			ProjectID:  projectID,
			ActorID:    audit.Actor(actorID),
			Action:     audit.ActionColumnCreated,
			EntityType: audit.EntityColumn,
			EntityID:   column.ID,
			Details:    audit.Details{"name": column.Name, "position": column.Position},
		})
	})
	if err != nil {
		return nil, err
	}
	return column, nil
}

// UpdateColumnInput holds optional column changes.
type UpdateColumnInput struct {
	Name  *string
	Color *string
}

// UpdateColumn renames or recolors a column. Requires admin.
func (s *ColumnService) UpdateColumn(ctx context.Context, actorID, projectID, columnID uint64, input UpdateColumnInput) (*models.TaskColumn, error) {
	var updated *models.TaskColumn

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := authorize(tx, actorID, projectID, models.RoleAdmin); err != nil {
			return err
		}

		column, err := s.findColumn(tx, projectID, columnID)
		if err != nil {
			return err
		}
		before := *column

		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				return ErrInvalidColumnName
			}
			column.Name = name
		}
		if input.Color != nil {
			if !utils.IsValidColor(*input.Color) {
				return ErrInvalidColor
			}
			column.Color = *input.Color
		}

		updated = column
		events := audit.ColumnChanges(audit.Actor(actorID), before, *column)
		if len(events) == 0 {
			return nil
		}

		if err := tx.Columns.Update(column); err != nil {
			return fmt.Errorf("failed to update column: %w", err)
		}
		return s.recorder.Record(tx, events...)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteColumn removes an empty column. The last column of a project cannot
// be removed. Requires admin.
func (s *ColumnService) DeleteColumn(ctx context.Context, actorID, projectID, columnID uint64) error {
	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := authorize(tx, actorID, projectID, models.RoleAdmin); err != nil {
			return err
		}

		column, err := s.findColumn(tx, projectID, columnID)
		if err != nil {
			return err
		}

		tasks, err := tx.Columns.CountTasks(column.ID)
		if err != nil {
			return fmt.Errorf("failed to count tasks: %w", err)
		}
		if tasks > 0 {
			return ErrColumnHasTasks
		}

		total, err := tx.Columns.CountByProject(projectID)
		if err != nil {
			return fmt.Errorf("failed to count columns: %w", err)
		}
		if total <= 1 {
			return ErrLastColumn
		}

		if err := tx.Columns.Delete(column.ID); err != nil {
			return fmt.Errorf("failed to delete column: %w", err)
		}

		// Close the gap left by the deleted column.
		remaining, err := tx.Columns.ListByProject(projectID)
		if err != nil {
			return fmt.Errorf("failed to list columns: %w", err)
		}
		if err := tx.Columns.Reorder(projectID, columnIDs(remaining)); err != nil {
			return fmt.Errorf("failed to compact column positions: %w", err)
		}

		return s.recorder.Record(tx, audit.Event{
			ProjectID:  projectID,
			ActorID:    audit.Actor(actorID),
			Action:     audit.ActionColumnDeleted,
			EntityType: audit.EntityColumn,
			EntityID:   column.ID,
			Details:    audit.Details{"name": column.Name},
		})
	})
}

// ReorderColumns rewrites column positions to match orderedIDs in one
// transaction. orderedIDs must be a permutation of the project's columns.
func (s *ColumnService) ReorderColumns(ctx context.Context, actorID, projectID uint64, orderedIDs []uint64) ([]models.TaskColumn, error) {
	var columns []models.TaskColumn

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := authorize(tx, actorID, projectID, models.RoleAdmin); err != nil {
			return err
		}

		current, err := tx.Columns.ListByProject(projectID)
		if err != nil {
			return fmt.Errorf("failed to list columns: %w", err)
		}
		if !isPermutation(orderedIDs, columnIDs(current)) {
			return ErrInvalidColumnOrder
		}

		if err := tx.Columns.Reorder(projectID, orderedIDs); err != nil {
			return fmt.Errorf("failed to reorder columns: %w", err)
		}

		columns, err = tx.Columns.ListByProject(projectID)
		if err != nil {
			return fmt.Errorf("failed to list columns: %w", err)
		}

		return s.recorder.Record(tx, audit.Event{
			ProjectID:  projectID,
			ActorID:    audit.Actor(actorID),
			Action:     audit.ActionColumnsReordered,
			EntityType: audit.EntityColumn,
			EntityID:   projectID,
			Details:    audit.Details{"old": columnIDs(current), "new": orderedIDs},
		})
	})
	if err != nil {
		return nil, err
	}
	return columns, nil
}

func (s *ColumnService) findColumn(tx *repository.Store, projectID, columnID uint64) (*models.TaskColumn, error) {
	column, err := tx.Columns.FindByID(columnID)
	if err != nil {
		return nil, notFound(err, ErrColumnNotFound, "column")
	}
	if column.ProjectID != projectID {
		return nil, ErrColumnNotFound
	}
	return column, nil
}

func columnIDs(columns []models.TaskColumn) []uint64 {
	ids := make([]uint64, len(columns))
	for i, c := range columns {
		ids[i] = c.ID
	}
	return ids
}

package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/yukikurage/kanban-board-api/internal/audit"
	"github.com/yukikurage/kanban-board-api/internal/constants"
	"github.com/yukikurage/kanban-board-api/internal/models"
	"github.com/yukikurage/kanban-board-api/internal/repository"
	"github.com/yukikurage/kanban-board-api/internal/utils"
)

var (
	ErrInvalidProjectName = errors.New("project name cannot be empty")
	ErrInvalidColor       = errors.New("color must be a hex value like #3b82f6")
)

// ProjectService provides business logic for projects.
type ProjectService struct {
	store    *repository.Store
	recorder *audit.Recorder
	logger   *zap.Logger
}

// NewProjectService creates a new ProjectService.
func NewProjectService(store *repository.Store, recorder *audit.Recorder, logger *zap.Logger) *ProjectService {
	return &ProjectService{
		store:    store,
		recorder: recorder,
		logger:   logger,
	}
}

// ProjectWithRole pairs a project with the caller's role on it.
type ProjectWithRole struct {
	Project models.Project
	Role    models.ProjectRole
}

// CreateProjectInput represents parameters to create a new project.
type CreateProjectInput struct {
	Name        string
	Description string
	Color       string
	OwnerID     uint64
}

// CreateProject creates a project owned by the caller with the default columns.
func (s *ProjectService) CreateProject(ctx context.Context, input CreateProjectInput) (*models.Project, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrInvalidProjectName
	}
	color := input.Color
	if color == "" {
		color = models.DefaultProjectColor
	}
	if !utils.IsValidColor(color) {
		return nil, ErrInvalidColor
	}

	project := &models.Project{
		Name:        name,
		Description: input.Description,
		Color:       color,
		OwnerID:     input.OwnerID,
	}

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Projects.Create(project); err != nil {
			return fmt.Errorf("failed to create project: %w", err)
		}

		for i, columnName := range constants.DefaultColumnNames {
			column := &models.TaskColumn{
				ProjectID: project.ID,
				Name:      columnName,
				Color:     models.DefaultColumnColor,
				Position:  i,
			}
			if err := tx.Columns.Create(column); err != nil {
				return fmt.Errorf("failed to create default column: %w", err)
			}
		}

		return s.recorder.Record(tx, audit.Event{
			ProjectID:  project.ID,
			ActorID:    audit.Actor(input.OwnerID),
			Action:     audit.ActionProjectCreated,
			EntityType: audit.EntityProject,
			EntityID:   project.ID,
			Details:    audit.Details{"name": project.Name, "columns": constants.DefaultColumnNames},
		})
	})
	if err != nil {
		return nil, err
	}

	return project, nil
}

// ListProjectsForUser returns owned and joined projects, newest first.
func (s *ProjectService) ListProjectsForUser(ctx context.Context, userID uint64) ([]ProjectWithRole, error) {
	store := s.store.WithContext(ctx)

	owned, err := store.Projects.ListOwned(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list owned projects: %w", err)
	}
	memberships, err := store.Projects.ListMemberships(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}

	result := make([]ProjectWithRole, 0, len(owned)+len(memberships))
	seen := make(map[uint64]struct{}, len(owned))
	for _, p := range owned {
		result = append(result, ProjectWithRole{Project: p, Role: models.RoleOwner})
		seen[p.ID] = struct{}{}
	}
	for _, m := range memberships {
		if _, ok := seen[m.ProjectID]; ok {
			continue
		}
		result = append(result, ProjectWithRole{Project: m.Project, Role: m.Role})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Project.CreatedAt.After(result[j].Project.CreatedAt)
	})
	return result, nil
}

// GetProject returns a project the caller can see.
func (s *ProjectService) GetProject(ctx context.Context, actorID, projectID uint64) (*ProjectWithRole, error) {
	store := s.store.WithContext(ctx)

	decision, err := authorize(store, actorID, projectID, models.RoleMember)
	if err != nil {
		return nil, err
	}
	project, err := store.Projects.FindByID(projectID)
	if err != nil {
		return nil, notFound(err, ErrProjectNotFound, "project")
	}
	return &ProjectWithRole{Project: *project, Role: decision.Role}, nil
}

// UpdateProjectInput holds optional project changes.
type UpdateProjectInput struct {
	Name        *string
	Description *string
	Color       *string
}

// UpdateProject changes name, description or color. Requires admin.
func (s *ProjectService) UpdateProject(ctx context.Context, actorID, projectID uint64, input UpdateProjectInput) (*models.Project, error) {
	var updated *models.Project

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := authorize(tx, actorID, projectID, models.RoleAdmin); err != nil {
			return err
		}

		project, err := tx.Projects.FindByID(projectID)
		if err != nil {
			return notFound(err, ErrProjectNotFound, "project")
		}
		before := *project

		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				return ErrInvalidProjectName
			}
			project.Name = name
		}
		if input.Description != nil {
			project.Description = *input.Description
		}
		if input.Color != nil {
			if !utils.IsValidColor(*input.Color) {
				return ErrInvalidColor
			}
			project.Color = *input.Color
		}

		events := audit.ProjectChanges(audit.Actor(actorID), before, *project)
		if len(events) == 0 {
			updated = project
			return nil
		}

		if err := tx.Projects.Update(project); err != nil {
			return fmt.Errorf("failed to update project: %w", err)
		}
		updated = project
		return s.recorder.Record(tx, events...)
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// DeleteProject removes a project and everything on it. Requires owner. The
// audit trail is kept.
func (s *ProjectService) DeleteProject(ctx context.Context, actorID, projectID uint64) error {
	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := authorize(tx, actorID, projectID, models.RoleOwner); err != nil {
			return err
		}

		project, err := tx.Projects.FindByID(projectID)
		if err != nil {
			return notFound(err, ErrProjectNotFound, "project")
		}

		if err := s.recorder.Record(tx, audit.Event{
			ProjectID:  project.ID,
			ActorID:    audit.Actor(actorID),
			Action:     audit.ActionProjectDeleted,
			EntityType: audit.EntityProject,
			EntityID:   project.ID,
			Details:    audit.Details{"name": project.Name},
		}); err != nil {
			return err
		}

		if err := tx.Projects.Delete(projectID); err != nil {
			return fmt.Errorf("failed to delete project: %w", err)
		}
		return nil
	})
}

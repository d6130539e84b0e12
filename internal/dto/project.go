package dto

import (
	"time"

	"github.com/yukikurage/kanban-board-api/internal/models"
	"github.com/yukikurage/kanban-board-api/internal/services"
)

// ProjectDTO represents a project in API responses
type ProjectDTO struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Color       string    `json:"color"`
	OwnerID     uint64    `json:"owner_id"`
	Owner       *UserDTO  `json:"owner,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProjectWithRoleDTO represents a project with the caller's role
type ProjectWithRoleDTO struct {
	ProjectDTO
	Role models.ProjectRole `json:"role"`
}

// MemberDTO represents a member of a project, owner included
type MemberDTO struct {
	User     UserDTO            `json:"user"`
	Role     models.ProjectRole `json:"role"`
	JoinedAt time.Time          `json:"joined_at"`
}

// ToProjectDTO converts a Project model to ProjectDTO
func ToProjectDTO(project models.Project) ProjectDTO {
	return ProjectDTO{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		Color:       project.Color,
		OwnerID:     project.OwnerID,
		Owner:       toOptionalUserDTO(&project.Owner),
		CreatedAt:   project.CreatedAt,
		UpdatedAt:   project.UpdatedAt,
	}
}

// ToProjectWithRoleDTO converts a project and role pair to DTO
func ToProjectWithRoleDTO(p services.ProjectWithRole) ProjectWithRoleDTO {
	return ProjectWithRoleDTO{
		ProjectDTO: ToProjectDTO(p.Project),
		Role:       p.Role,
	}
}

// ToProjectWithRoleDTOs converts a list of projects with roles
func ToProjectWithRoleDTOs(projects []services.ProjectWithRole) []ProjectWithRoleDTO {
	dtos := make([]ProjectWithRoleDTO, len(projects))
	for i, p := range projects {
		dtos[i] = ToProjectWithRoleDTO(p)
	}
	return dtos
}

// ToMemberDTOs converts the member list to DTOs
func ToMemberDTOs(members []services.Member) []MemberDTO {
	dtos := make([]MemberDTO, len(members))
	for i, m := range members {
		dtos[i] = MemberDTO{
			User:     ToUserDTO(m.User),
			Role:     m.Role,
			JoinedAt: m.JoinedAt,
		}
	}
	return dtos
}

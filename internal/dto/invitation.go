package dto

import (
	"time"

	"github.com/yukikurage/kanban-board-api/internal/models"
	"github.com/yukikurage/kanban-board-api/internal/services"
)

// InvitationDTO represents an invitation as seen by project admins. The
// token is never included.
type InvitationDTO struct {
	ID         uint64                  `json:"id"`
	ProjectID  uint64                  `json:"project_id"`
	Email      string                  `json:"email"`
	Role       models.ProjectRole      `json:"role"`
	Status     models.InvitationStatus `json:"status"`
	InvitedBy  *UserDTO                `json:"invited_by,omitempty"`
	ExpiresAt  time.Time               `json:"expires_at"`
	AcceptedAt *time.Time              `json:"accepted_at,omitempty"`
	CreatedAt  time.Time               `json:"created_at"`
	PreviewURL string                  `json:"preview_url,omitempty"`
}

// InvitationPreviewDTO is the public view of an invitation
type InvitationPreviewDTO struct {
	ProjectID   uint64                  `json:"project_id"`
	ProjectName string                  `json:"project_name"`
	InviterName string                  `json:"inviter_name"`
	Email       string                  `json:"email"`
	Role        models.ProjectRole      `json:"role"`
	Status      models.InvitationStatus `json:"status"`
	ExpiresAt   time.Time               `json:"expires_at"`
}

// InvitationLinkDTO represents a shareable join link
type InvitationLinkDTO struct {
	ID        uint64    `json:"id"`
	ProjectID uint64    `json:"project_id"`
	Token     string    `json:"token"`
	URL       string    `json:"url"`
	IsActive  bool      `json:"is_active"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// LinkPreviewDTO is the public view of a join link
type LinkPreviewDTO struct {
	ProjectID   uint64 `json:"project_id"`
	ProjectName string `json:"project_name"`
	Usable      bool   `json:"usable"`
}

// AcceptResultDTO reports where the user landed after joining
type AcceptResultDTO struct {
	ProjectID     uint64             `json:"project_id"`
	Role          models.ProjectRole `json:"role"`
	AlreadyMember bool               `json:"already_member"`
}

func ToInvitationDTO(invitation models.ProjectInvitation) InvitationDTO {
	return InvitationDTO{
		ID:         invitation.ID,
		ProjectID:  invitation.ProjectID,
		Email:      invitation.Email,
		Role:       invitation.Role,
		Status:     invitation.Status,
		InvitedBy:  toOptionalUserDTO(invitation.InvitedBy),
		ExpiresAt:  invitation.ExpiresAt,
		AcceptedAt: invitation.AcceptedAt,
		CreatedAt:  invitation.CreatedAt,
	}
}

func ToInvitationDTOs(invitations []models.ProjectInvitation) []InvitationDTO {
	dtos := make([]InvitationDTO, len(invitations))
	for i, inv := range invitations {
		dtos[i] = ToInvitationDTO(inv)
	}
	return dtos
}

func ToInvitationPreviewDTO(p services.InvitationPreview) InvitationPreviewDTO {
	return InvitationPreviewDTO{
		ProjectID:   p.ProjectID,
		ProjectName: p.ProjectName,
		InviterName: p.InviterName,
		Email:       p.Email,
		Role:        p.Role,
		Status:      p.Status,
		ExpiresAt:   p.ExpiresAt,
	}
}

func ToInvitationLinkDTO(r services.LinkResult) InvitationLinkDTO {
	return InvitationLinkDTO{
		ID:        r.Link.ID,
		ProjectID: r.Link.ProjectID,
		Token:     r.Link.Token,
		URL:       r.URL,
		IsActive:  r.Link.IsActive,
		ExpiresAt: r.Link.ExpiresAt,
		CreatedAt: r.Link.CreatedAt,
	}
}

func ToAcceptResultDTO(r services.AcceptResult) AcceptResultDTO {
	return AcceptResultDTO{
		ProjectID:     r.ProjectID,
		Role:          r.Role,
		AlreadyMember: r.AlreadyMember,
	}
}

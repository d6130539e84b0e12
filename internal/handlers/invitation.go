package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/kanban-board-api/internal/dto"
	apierrors "github.com/yukikurage/kanban-board-api/internal/errors"
	"github.com/yukikurage/kanban-board-api/internal/models"
	"github.com/yukikurage/kanban-board-api/internal/services"
)

type InvitationHandler struct {
	invitationService *services.InvitationService
}

func NewInvitationHandler(invitationService *services.InvitationService) *InvitationHandler {
	return &InvitationHandler{invitationService: invitationService}
}

// CreateInvitation invites an email address to the project.
func (h *InvitationHandler) CreateInvitation(c *gin.Context) {
	userID, projectID, ok := projectScope(c)
	if !ok {
		return
	}

	type CreateInvitationRequest struct {
		Email string             `json:"email" binding:"required"`
		Role  models.ProjectRole `json:"role"`
	}

	var req CreateInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}
	if req.Role == "" {
		req.Role = models.RoleMember
	}

	result, err := h.invitationService.CreateInvitation(c.Request.Context(), userID, projectID, services.CreateInvitationInput{
		Email: req.Email,
		Role:  req.Role,
	})
	if err != nil {
		respondInvitationError(c, err, nil)
		return
	}

	invitation := dto.ToInvitationDTO(*result.Invitation)
	invitation.PreviewURL = result.PreviewURL
	c.JSON(http.StatusCreated, invitation)
}

// ListInvitations returns the project's pending invitations.
func (h *InvitationHandler) ListInvitations(c *gin.Context) {
	userID, projectID, ok := projectScope(c)
	if !ok {
		return
	}

	invitations, err := h.invitationService.ListPendingInvitations(c.Request.Context(), userID, projectID)
	if err != nil {
		respondInvitationError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"invitations": dto.ToInvitationDTOs(invitations),
	})
}

// CancelInvitation withdraws a pending invitation.
func (h *InvitationHandler) CancelInvitation(c *gin.Context) {
	userID, projectID, ok := projectScope(c)
	if !ok {
		return
	}
	invitationID, ok := parseIDParam(c, "invitation_id", "invitation ID")
	if !ok {
		return
	}

	if err := h.invitationService.CancelInvitation(c.Request.Context(), userID, projectID, invitationID); err != nil {
		respondInvitationError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Invitation cancelled",
	})
}

// ResendInvitation mails a pending invitation again with a fresh token.
func (h *InvitationHandler) ResendInvitation(c *gin.Context) {
	userID, projectID, ok := projectScope(c)
	if !ok {
		return
	}
	invitationID, ok := parseIDParam(c, "invitation_id", "invitation ID")
	if !ok {
		return
	}

	result, err := h.invitationService.ResendInvitation(c.Request.Context(), userID, projectID, invitationID)
	if err != nil {
		respondInvitationError(c, err, nil)
		return
	}

	invitation := dto.ToInvitationDTO(*result.Invitation)
	invitation.PreviewURL = result.PreviewURL
	c.JSON(http.StatusOK, invitation)
}

// PreviewInvitation describes an invitation to whoever holds the token.
func (h *InvitationHandler) PreviewInvitation(c *gin.Context) {
	preview, err := h.invitationService.PreviewInvitation(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondInvitationError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, dto.ToInvitationPreviewDTO(*preview))
}

// AcceptInvitation accepts an invitation by token.
func (h *InvitationHandler) AcceptInvitation(c *gin.Context) {
	result, err := h.invitationService.AcceptInvitation(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondInvitationError(c, err, result)
		return
	}

	c.JSON(http.StatusOK, dto.ToAcceptResultDTO(*result))
}

// RejectInvitation declines an invitation by token.
func (h *InvitationHandler) RejectInvitation(c *gin.Context) {
	if err := h.invitationService.RejectInvitation(c.Request.Context(), c.Param("token")); err != nil {
		respondInvitationError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Invitation rejected",
	})
}

// GetLink returns the project's active join link.
func (h *InvitationHandler) GetLink(c *gin.Context) {
	userID, projectID, ok := projectScope(c)
	if !ok {
		return
	}

	link, err := h.invitationService.GetActiveLink(c.Request.Context(), userID, projectID)
	if err != nil {
		respondInvitationError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, dto.ToInvitationLinkDTO(*link))
}

// CreateLink issues a new join link, replacing the active one.
func (h *InvitationHandler) CreateLink(c *gin.Context) {
	userID, projectID, ok := projectScope(c)
	if !ok {
		return
	}

	link, err := h.invitationService.CreateLink(c.Request.Context(), userID, projectID)
	if err != nil {
		respondInvitationError(c, err, nil)
		return
	}

	c.JSON(http.StatusCreated, dto.ToInvitationLinkDTO(*link))
}

// RevokeLink deactivates the project's join link.
func (h *InvitationHandler) RevokeLink(c *gin.Context) {
	userID, projectID, ok := projectScope(c)
	if !ok {
		return
	}

	if err := h.invitationService.RevokeLink(c.Request.Context(), userID, projectID); err != nil {
		respondInvitationError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Invitation link revoked",
	})
}

// PreviewLink describes the project behind a join link.
func (h *InvitationHandler) PreviewLink(c *gin.Context) {
	preview, err := h.invitationService.PreviewLink(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondInvitationError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, dto.LinkPreviewDTO{
		ProjectID:   preview.ProjectID,
		ProjectName: preview.ProjectName,
		Usable:      preview.Usable,
	})
}

// AcceptLink joins the authenticated user to the link's project.
func (h *InvitationHandler) AcceptLink(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	result, err := h.invitationService.AcceptLink(c.Request.Context(), userID, c.Param("token"))
	if err != nil {
		respondInvitationError(c, err, result)
		return
	}

	c.JSON(http.StatusOK, dto.ToAcceptResultDTO(*result))
}

func projectPath(projectID uint64) string {
	return fmt.Sprintf("/projects/%d", projectID)
}

// respondInvitationError maps invitation outcomes; conflicts carry a hint
// telling the client whether to redirect or retry.
func respondInvitationError(c *gin.Context, err error, result *services.AcceptResult) {
	switch {
	case errors.Is(err, services.ErrInvitationNotFound),
		errors.Is(err, services.ErrInvitationLinkNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrInvitationAlreadyAccepted):
		hint := apierrors.ClientHint{}
		if result != nil && result.ProjectID != 0 {
			hint.Redirect = projectPath(result.ProjectID)
		}
		apierrors.ConflictWithHint(c, apierrors.ErrCodeAlreadyAccepted, err.Error(), hint)
	case errors.Is(err, services.ErrInvitationExpired),
		errors.Is(err, services.ErrInvitationLinkExpired),
		errors.Is(err, services.ErrInvitationLinkInactive):
		apierrors.Gone(c, apierrors.ErrCodeExpired, err.Error())
	case errors.Is(err, services.ErrInvitationAccountRequired):
		apierrors.ConflictWithHint(c, apierrors.ErrCodeAccountRequired, err.Error(), apierrors.ClientHint{Redirect: "/register"})
	case errors.Is(err, services.ErrInvitationRetry):
		apierrors.ConflictWithHint(c, apierrors.ErrCodeRetryable, err.Error(), apierrors.ClientHint{Retry: true})
	case errors.Is(err, services.ErrInvitationNotPending),
		errors.Is(err, services.ErrDuplicateInvitation),
		errors.Is(err, services.ErrAlreadyProjectMember):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrInvalidEmail),
		errors.Is(err, services.ErrInvalidRole):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrInvitationDelivery):
		_ = c.Error(err)
		apierrors.ServiceUnavailable(c, "Failed to send invitation email")
	default:
		respondCommonError(c, err)
	}
}

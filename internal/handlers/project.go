package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/kanban-board-api/internal/dto"
	apierrors "github.com/yukikurage/kanban-board-api/internal/errors"
	"github.com/yukikurage/kanban-board-api/internal/models"
	"github.com/yukikurage/kanban-board-api/internal/services"
)

// ProjectHandler serves projects and their members.
type ProjectHandler struct {
	projectService *services.ProjectService
	memberService  *services.MemberService
}

func NewProjectHandler(projectService *services.ProjectService, memberService *services.MemberService) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		memberService:  memberService,
	}
}

// ListProjects returns every project the user owns or belongs to, with the role.
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	projects, err := h.projectService.ListProjectsForUser(c.Request.Context(), userID)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"projects": dto.ToProjectWithRoleDTOs(projects),
	})
}

// CreateProject creates a project owned by the caller.
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	type CreateProjectRequest struct {
		Name        string `json:"name" binding:"required,max=255"`
		Description string `json:"description"`
		Color       string `json:"color"`
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	project, err := h.projectService.CreateProject(c.Request.Context(), services.CreateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		OwnerID:     userID,
	})
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ProjectWithRoleDTO{
		ProjectDTO: dto.ToProjectDTO(*project),
		Role:       models.RoleOwner,
	})
}

// GetProject returns one project with the caller's role.
func (h *ProjectHandler) GetProject(c *gin.Context) {
	userID, projectID, ok := projectScope(c)
	if !ok {
		return
	}

	project, err := h.projectService.GetProject(c.Request.Context(), userID, projectID)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectWithRoleDTO(*project))
}

// UpdateProject changes name, description or color.
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	userID, projectID, ok := projectScope(c)
	if !ok {
		return
	}

	type UpdateProjectRequest struct {
		Name        *string `json:"name" binding:"omitempty,max=255"`
		Description *string `json:"description"`
		Color       *string `json:"color"`
	}

	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	project, err := h.projectService.UpdateProject(c.Request.Context(), userID, projectID, services.UpdateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
	})
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTO(*project))
}

// DeleteProject removes a project and everything on it.
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	userID, projectID, ok := projectScope(c)
	if !ok {
		return
	}

	if err := h.projectService.DeleteProject(c.Request.Context(), userID, projectID); err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Project deleted successfully",
	})
}

// ListMembers returns the owner followed by the members.
func (h *ProjectHandler) ListMembers(c *gin.Context) {
	userID, projectID, ok := projectScope(c)
	if !ok {
		return
	}

	members, err := h.memberService.ListMembers(c.Request.Context(), userID, projectID)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"members": dto.ToMemberDTOs(members),
	})
}

// UpdateMemberRole switches a member between admin and member.
func (h *ProjectHandler) UpdateMemberRole(c *gin.Context) {
	userID, projectID, ok := projectScope(c)
	if !ok {
		return
	}
	targetID, ok := parseIDParam(c, "user_id", "user ID")
	if !ok {
		return
	}

	type UpdateRoleRequest struct {
		Role models.ProjectRole `json:"role" binding:"required"`
	}

	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.memberService.UpdateRole(c.Request.Context(), userID, projectID, targetID, req.Role); err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id": targetID,
		"role":    req.Role,
	})
}

// RemoveMember removes another member from the project.
func (h *ProjectHandler) RemoveMember(c *gin.Context) {
	userID, projectID, ok := projectScope(c)
	if !ok {
		return
	}
	targetID, ok := parseIDParam(c, "user_id", "user ID")
	if !ok {
		return
	}

	if err := h.memberService.RemoveMember(c.Request.Context(), userID, projectID, targetID); err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Member removed successfully",
	})
}

// LeaveProject removes the caller's own membership.
func (h *ProjectHandler) LeaveProject(c *gin.Context) {
	userID, projectID, ok := projectScope(c)
	if !ok {
		return
	}

	if err := h.memberService.Leave(c.Request.Context(), userID, projectID); err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Left project successfully",
	})
}

func respondProjectError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidProjectName),
		errors.Is(err, services.ErrInvalidColor),
		errors.Is(err, services.ErrInvalidRole):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrMemberNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrCannotChangeOwner),
		errors.Is(err, services.ErrCannotRemoveOwner),
		errors.Is(err, services.ErrCannotRemoveYourself),
		errors.Is(err, services.ErrOwnerCannotLeave):
		apierrors.RespondWithError(c, http.StatusBadRequest, apierrors.NewAPIError(apierrors.ErrCodeInvalidOperation, err.Error()))
	case errors.Is(err, services.ErrOutrankedTarget):
		apierrors.Forbidden(c, err.Error())
	default:
		respondCommonError(c, err)
	}
}

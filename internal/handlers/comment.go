package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/kanban-board-api/internal/dto"
	apierrors "github.com/yukikurage/kanban-board-api/internal/errors"
	"github.com/yukikurage/kanban-board-api/internal/services"
)

// CommentHandler serves the discussion around a task: comments and collaborators.
type CommentHandler struct {
	commentService      *services.CommentService
	collaboratorService *services.CollaboratorService
}

func NewCommentHandler(commentService *services.CommentService, collaboratorService *services.CollaboratorService) *CommentHandler {
	return &CommentHandler{
		commentService:      commentService,
		collaboratorService: collaboratorService,
	}
}

func taskScope(c *gin.Context) (userID, projectID, taskID uint64, ok bool) {
	if userID, projectID, ok = projectScope(c); !ok {
		return 0, 0, 0, false
	}
	if taskID, ok = parseIDParam(c, "task_id", "task ID"); !ok {
		return 0, 0, 0, false
	}
	return userID, projectID, taskID, true
}

// ListComments returns the task's comments as threads.
func (h *CommentHandler) ListComments(c *gin.Context) {
	userID, projectID, taskID, ok := taskScope(c)
	if !ok {
		return
	}

	threads, err := h.commentService.ListComments(c.Request.Context(), userID, projectID, taskID)
	if err != nil {
		respondCommentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"comments": dto.ToCommentThreadDTOs(threads),
	})
}

// AddComment posts a comment or a reply.
func (h *CommentHandler) AddComment(c *gin.Context) {
	userID, projectID, taskID, ok := taskScope(c)
	if !ok {
		return
	}

	type AddCommentRequest struct {
		Content  string  `json:"content" binding:"required"`
		ParentID *uint64 `json:"parent_id"`
	}

	var req AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	comment, err := h.commentService.AddComment(c.Request.Context(), userID, projectID, taskID, services.AddCommentInput{
		Content:  req.Content,
		ParentID: req.ParentID,
	})
	if err != nil {
		respondCommentError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToCommentDTO(*comment))
}

// EditComment changes the caller's own comment.
func (h *CommentHandler) EditComment(c *gin.Context) {
	userID, projectID, taskID, ok := taskScope(c)
	if !ok {
		return
	}
	commentID, ok := parseIDParam(c, "comment_id", "comment ID")
	if !ok {
		return
	}

	type EditCommentRequest struct {
		Content string `json:"content" binding:"required"`
	}

	var req EditCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	comment, err := h.commentService.EditComment(c.Request.Context(), userID, projectID, taskID, commentID, req.Content)
	if err != nil {
		respondCommentError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCommentDTO(*comment))
}

// DeleteComment removes a comment and its replies.
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	userID, projectID, taskID, ok := taskScope(c)
	if !ok {
		return
	}
	commentID, ok := parseIDParam(c, "comment_id", "comment ID")
	if !ok {
		return
	}

	if err := h.commentService.DeleteComment(c.Request.Context(), userID, projectID, taskID, commentID); err != nil {
		respondCommentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Comment deleted successfully",
	})
}

// ListCollaborators returns the task's collaborators.
func (h *CommentHandler) ListCollaborators(c *gin.Context) {
	userID, projectID, taskID, ok := taskScope(c)
	if !ok {
		return
	}

	collaborators, err := h.collaboratorService.ListCollaborators(c.Request.Context(), userID, projectID, taskID)
	if err != nil {
		respondCommentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"collaborators": dto.ToCollaboratorDTOs(collaborators),
	})
}

// AddCollaborator adds a project member to the task.
func (h *CommentHandler) AddCollaborator(c *gin.Context) {
	userID, projectID, taskID, ok := taskScope(c)
	if !ok {
		return
	}

	type AddCollaboratorRequest struct {
		UserID uint64 `json:"user_id" binding:"required"`
	}

	var req AddCollaboratorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	collaborator, err := h.collaboratorService.AddCollaborator(c.Request.Context(), userID, projectID, taskID, req.UserID)
	if err != nil {
		respondCommentError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToCollaboratorDTO(*collaborator))
}

// RemoveCollaborator removes a collaborator from the task.
func (h *CommentHandler) RemoveCollaborator(c *gin.Context) {
	userID, projectID, taskID, ok := taskScope(c)
	if !ok {
		return
	}
	targetID, ok := parseIDParam(c, "user_id", "user ID")
	if !ok {
		return
	}

	if err := h.collaboratorService.RemoveCollaborator(c.Request.Context(), userID, projectID, taskID, targetID); err != nil {
		respondCommentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Collaborator removed successfully",
	})
}

func respondCommentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrCommentNotFound),
		errors.Is(err, services.ErrCollaboratorNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrCommentEmpty),
		errors.Is(err, services.ErrInvalidParentComment),
		errors.Is(err, services.ErrInvalidCollaborator):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrNotCommentAuthor),
		errors.Is(err, services.ErrNotTaskAssignee),
		errors.Is(err, services.ErrCollaboratorRemoveDenied):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrAlreadyCollaborator):
		apierrors.Conflict(c, err.Error())
	default:
		respondCommonError(c, err)
	}
}

package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	apierrors "github.com/yukikurage/kanban-board-api/internal/errors"
	"github.com/yukikurage/kanban-board-api/internal/middleware"
	"github.com/yukikurage/kanban-board-api/internal/services"
)

// currentUserID reads the authenticated user, answering 401 when absent.
func currentUserID(c *gin.Context) (uint64, bool) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return 0, false
	}
	return userID, true
}

// parseIDParam parses a numeric path parameter, answering 400 when malformed.
func parseIDParam(c *gin.Context, name, label string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		apierrors.BadRequest(c, "Invalid "+label)
		return 0, false
	}
	return id, true
}

// projectScope resolves the caller and the :id project in one step.
func projectScope(c *gin.Context) (userID, projectID uint64, ok bool) {
	if userID, ok = currentUserID(c); !ok {
		return 0, 0, false
	}
	if projectID, ok = parseIDParam(c, "id", "project ID"); !ok {
		return 0, 0, false
	}
	return userID, projectID, true
}

// respondCommonError handles the errors every project-scoped service shares.
func respondCommonError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrProjectNotFound):
		apierrors.NotFound(c, "Project not found")
	case errors.Is(err, services.ErrForbidden):
		apierrors.Forbidden(c, err.Error())
	default:
		_ = c.Error(err)
		apierrors.InternalError(c, "")
	}
}

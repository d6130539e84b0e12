package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/kanban-board-api/internal/constants"
	apierrors "github.com/yukikurage/kanban-board-api/internal/errors"
	"github.com/yukikurage/kanban-board-api/internal/models"
	"github.com/yukikurage/kanban-board-api/internal/permission"
)

// RequireProjectRole checks that the user holds at least minRole on the
// project named by the :id parameter.
func RequireProjectRole(evaluator *permission.Evaluator, minRole models.ProjectRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid project ID")
			c.Abort()
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		decision, err := evaluator.Evaluate(c.Request.Context(), userID, projectID, minRole)
		if err != nil {
			// Surfaces in the request log entry
			_ = c.Error(err)
			apierrors.InternalError(c, "")
			c.Abort()
			return
		}

		// Return 404 instead of 403 to avoid leaking project existence
		if !decision.Known() {
			apierrors.NotFound(c, "Project not found")
			c.Abort()
			return
		}
		if !decision.HasAccess {
			apierrors.Forbidden(c, "Requires the "+string(minRole)+" role or higher")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyProject, projectID)
		c.Set(constants.ContextKeyProjectRole, decision.Role)
		c.Next()
	}
}

// GetProjectRole returns the role resolved by RequireProjectRole
func GetProjectRole(c *gin.Context) (models.ProjectRole, bool) {
	role, exists := c.Get(constants.ContextKeyProjectRole)
	if !exists {
		return "", false
	}
	r, ok := role.(models.ProjectRole)
	return r, ok
}

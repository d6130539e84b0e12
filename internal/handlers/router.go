package handlers

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yukikurage/kanban-board-api/internal/auth"
	"github.com/yukikurage/kanban-board-api/internal/constants"
	"github.com/yukikurage/kanban-board-api/internal/logging"
	"github.com/yukikurage/kanban-board-api/internal/middleware"
	"github.com/yukikurage/kanban-board-api/internal/models"
	"github.com/yukikurage/kanban-board-api/internal/permission"
)

// Router holds everything needed to build the HTTP engine.
type Router struct {
	Logger    *zap.Logger
	Sessions  sessions.Store
	JWT       *auth.JWTService
	Evaluator *permission.Evaluator

	Health      *HealthHandler
	Auth        *AuthHandler
	Projects    *ProjectHandler
	Columns     *ColumnHandler
	Tasks       *TaskHandler
	Comments    *CommentHandler
	Invitations *InvitationHandler
	Audit       *AuditHandler
}

// Engine registers every route.
func (rt Router) Engine() *gin.Engine {
	r := gin.New()
	r.Use(logging.GinLogger(rt.Logger), logging.GinRecovery(rt.Logger))
	r.Use(sessions.Sessions(constants.SessionCookieName, rt.Sessions))

	requireAuth := middleware.RequireAuth(rt.JWT)
	member := middleware.RequireProjectRole(rt.Evaluator, models.RoleMember)
	admin := middleware.RequireProjectRole(rt.Evaluator, models.RoleAdmin)
	owner := middleware.RequireProjectRole(rt.Evaluator, models.RoleOwner)

	api := r.Group("/api")
	{
		api.GET("/health", rt.Health.Check)

		// Auth routes (public)
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", rt.Auth.Register)
			authGroup.POST("/login", rt.Auth.Login)
			authGroup.POST("/logout", rt.Auth.Logout)
			authGroup.POST("/verify", rt.Auth.VerifyEmail)
			authGroup.GET("/me", requireAuth, rt.Auth.GetCurrentUser)
		}

		// Invitation tokens are public; link acceptance needs an account
		api.GET("/invitations/:token", rt.Invitations.PreviewInvitation)
		api.POST("/invitations/:token/accept", rt.Invitations.AcceptInvitation)
		api.POST("/invitations/:token/reject", rt.Invitations.RejectInvitation)
		api.GET("/invitation-links/:token", rt.Invitations.PreviewLink)
		api.POST("/invitation-links/:token/accept", requireAuth, rt.Invitations.AcceptLink)

		projects := api.Group("/projects")
		projects.Use(requireAuth)
		{
			projects.GET("", rt.Projects.ListProjects)
			projects.POST("", rt.Projects.CreateProject)
			projects.GET("/:id", member, rt.Projects.GetProject)
			projects.PATCH("/:id", admin, rt.Projects.UpdateProject)
			projects.DELETE("/:id", owner, rt.Projects.DeleteProject)

			projects.GET("/:id/members", member, rt.Projects.ListMembers)
			projects.PATCH("/:id/members/:user_id", owner, rt.Projects.UpdateMemberRole)
			projects.DELETE("/:id/members/:user_id", admin, rt.Projects.RemoveMember)
			projects.POST("/:id/leave", member, rt.Projects.LeaveProject)

			projects.GET("/:id/columns", member, rt.Columns.ListColumns)
			projects.POST("/:id/columns", admin, rt.Columns.CreateColumn)
			projects.PUT("/:id/columns/order", admin, rt.Columns.ReorderColumns)
			projects.PATCH("/:id/columns/:column_id", admin, rt.Columns.UpdateColumn)
			projects.DELETE("/:id/columns/:column_id", admin, rt.Columns.DeleteColumn)
			projects.PUT("/:id/columns/:column_id/tasks/order", member, rt.Tasks.ReorderTasks)

			projects.GET("/:id/tasks", member, rt.Tasks.ListTasks)
			projects.POST("/:id/tasks", member, rt.Tasks.CreateTask)
			projects.POST("/:id/tasks/suggest", member, rt.Tasks.SuggestTasks)
			projects.GET("/:id/tasks/:task_id", member, rt.Tasks.GetTask)
			projects.PATCH("/:id/tasks/:task_id", member, rt.Tasks.UpdateTask)
			projects.DELETE("/:id/tasks/:task_id", member, rt.Tasks.DeleteTask)
			projects.POST("/:id/tasks/:task_id/move", member, rt.Tasks.MoveTask)

			projects.GET("/:id/tasks/:task_id/comments", member, rt.Comments.ListComments)
			projects.POST("/:id/tasks/:task_id/comments", member, rt.Comments.AddComment)
			projects.PATCH("/:id/tasks/:task_id/comments/:comment_id", member, rt.Comments.EditComment)
			projects.DELETE("/:id/tasks/:task_id/comments/:comment_id", member, rt.Comments.DeleteComment)

			projects.GET("/:id/tasks/:task_id/collaborators", member, rt.Comments.ListCollaborators)
			projects.POST("/:id/tasks/:task_id/collaborators", member, rt.Comments.AddCollaborator)
			projects.DELETE("/:id/tasks/:task_id/collaborators/:user_id", member, rt.Comments.RemoveCollaborator)

			projects.GET("/:id/invitations", admin, rt.Invitations.ListInvitations)
			projects.POST("/:id/invitations", admin, rt.Invitations.CreateInvitation)
			projects.DELETE("/:id/invitations/:invitation_id", admin, rt.Invitations.CancelInvitation)
			projects.POST("/:id/invitations/:invitation_id/resend", admin, rt.Invitations.ResendInvitation)

			projects.GET("/:id/invitation-link", admin, rt.Invitations.GetLink)
			projects.POST("/:id/invitation-link", admin, rt.Invitations.CreateLink)
			projects.DELETE("/:id/invitation-link", admin, rt.Invitations.RevokeLink)

			projects.GET("/:id/audit-logs", admin, rt.Audit.ListAuditLogs)
			projects.GET("/:id/audit-logs/stats", admin, rt.Audit.GetStats)
			projects.GET("/:id/audit-logs/export", admin, rt.Audit.ExportAuditLogs)
		}
	}

	return r
}

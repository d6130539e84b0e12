package app

import (
	"github.com/gin-contrib/sessions"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yukikurage/kanban-board-api/internal/audit"
	"github.com/yukikurage/kanban-board-api/internal/auth"
	"github.com/yukikurage/kanban-board-api/internal/config"
	"github.com/yukikurage/kanban-board-api/internal/constants"
	"github.com/yukikurage/kanban-board-api/internal/handlers"
	"github.com/yukikurage/kanban-board-api/internal/mailer"
	"github.com/yukikurage/kanban-board-api/internal/permission"
	"github.com/yukikurage/kanban-board-api/internal/repository"
	"github.com/yukikurage/kanban-board-api/internal/services"
)

// App is the wired service graph shared by the server, the worker and the CLI.
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	DB        *gorm.DB
	Store     *repository.Store
	JWT       *auth.JWTService
	Evaluator *permission.Evaluator

	Auth          *services.AuthService
	Projects      *services.ProjectService
	Members       *services.MemberService
	Columns       *services.ColumnService
	Tasks         *services.TaskService
	Comments      *services.CommentService
	Collaborators *services.CollaboratorService
	Invitations   *services.InvitationService
	Audit         *services.AuditService
	Suggestions   *services.SuggestionService
}

// New wires every service over db. m may be nil to pick a mailer from cfg.
func New(cfg *config.Config, logger *zap.Logger, db *gorm.DB, m mailer.Mailer) *App {
	if m == nil {
		m = mailer.New(cfg, logger)
	}

	store := repository.NewStore(db)
	recorder := audit.NewRecorder()
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.JWTExpiry())
	invitationOpts := services.InvitationOptions{
		BaseURL: cfg.BaseURL,
		TTL:     cfg.InvitationTTL(),
		LinkTTL: constants.InvitationLinkTTL,
	}

	return &App{
		Config:    cfg,
		Logger:    logger,
		DB:        db,
		Store:     store,
		JWT:       jwtService,
		Evaluator: permission.NewEvaluator(store),

		Auth:          services.NewAuthService(store, jwtService, m, cfg.BaseURL, logger),
		Projects:      services.NewProjectService(store, recorder, logger),
		Members:       services.NewMemberService(store, recorder),
		Columns:       services.NewColumnService(store, recorder),
		Tasks:         services.NewTaskService(store, recorder),
		Comments:      services.NewCommentService(store, recorder),
		Collaborators: services.NewCollaboratorService(store, recorder),
		Invitations:   services.NewInvitationService(store, recorder, m, invitationOpts, logger),
		Audit:         services.NewAuditService(store, logger),
		Suggestions:   services.NewSuggestionService(store, cfg.OpenAIAPIKey),
	}
}

// Router builds the HTTP router. redisClient may be nil.
func (a *App) Router(sessionStore sessions.Store, redisClient *redis.Client) handlers.Router {
	return handlers.Router{
		Logger:    a.Logger,
		Sessions:  sessionStore,
		JWT:       a.JWT,
		Evaluator: a.Evaluator,

		Health:      handlers.NewHealthHandler(a.DB, redisClient),
		Auth:        handlers.NewAuthHandler(a.Auth),
		Projects:    handlers.NewProjectHandler(a.Projects, a.Members),
		Columns:     handlers.NewColumnHandler(a.Columns),
		Tasks:       handlers.NewTaskHandler(a.Tasks, a.Suggestions),
		Comments:    handlers.NewCommentHandler(a.Comments, a.Collaborators),
		Invitations: handlers.NewInvitationHandler(a.Invitations),
		Audit:       handlers.NewAuditHandler(a.Audit),
	}
}

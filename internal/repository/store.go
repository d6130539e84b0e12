package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store bundles the repositories bound to one connection or transaction.
type Store struct {
	db *gorm.DB

	Users           UserRepository
	Projects        ProjectRepository
	Columns         ColumnRepository
	Tasks           TaskRepository
	Comments        CommentRepository
	Collaborators   CollaboratorRepository
	Invitations     InvitationRepository
	InvitationLinks InvitationLinkRepository
	AuditLogs       AuditLogRepository
}

// NewStore creates a Store over db.
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:              db,
		Users:           NewUserRepository(db),
		Projects:        NewProjectRepository(db),
		Columns:         NewColumnRepository(db),
		Tasks:           NewTaskRepository(db),
		Comments:        NewCommentRepository(db),
		Collaborators:   NewCollaboratorRepository(db),
		Invitations:     NewInvitationRepository(db),
		InvitationLinks: NewInvitationLinkRepository(db),
		AuditLogs:       NewAuditLogRepository(db),
	}
}

// DB exposes the underlying handle for health checks and migrations.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// WithContext returns a Store whose queries carry ctx.
func (s *Store) WithContext(ctx context.Context) *Store {
	return NewStore(s.db.WithContext(ctx))
}

// Transaction runs fn against a Store bound to a single transaction. Any
// error returned by fn rolls the whole transaction back.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

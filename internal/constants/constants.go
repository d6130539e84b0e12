package constants

import "time"

// Context and session keys
const (
	ContextKeyUserID    = "user_id"
	ContextKeyRequestID = "request_id"
	SessionCookieName   = "board_session"
)

// Gin context keys set by project middleware
const (
	ContextKeyProject     = "project"
	ContextKeyProjectRole = "project_role"
)

// Account rules
const (
	MinPasswordLength = 8
	MaxPasswordLength = 128
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Invitations
const (
	InvitationTTL     = 7 * 24 * time.Hour
	InvitationLinkTTL = 7 * 24 * time.Hour
)

// Audit
const (
	DefaultAuditRetentionDays = 90
	AuditStatsWindowDays      = 30
	MaxAuditExportRows        = 10000
)

// Comments are stored at any depth; clients render up to this many levels.
const MaxCommentDisplayDepth = 3

// Default columns created with every new project
var DefaultColumnNames = []string{"To Do", "In Progress", "Done"}

const MaxSuggestedTasks = 20

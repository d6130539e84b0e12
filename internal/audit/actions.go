package audit

// Entity types
const (
	EntityProject        = "project"
	EntityMember         = "member"
	EntityColumn         = "column"
	EntityTask           = "task"
	EntityComment        = "comment"
	EntityCollaborator   = "collaborator"
	EntityInvitation     = "invitation"
	EntityInvitationLink = "invitation_link"
)

// Actions. Values are persisted and exported; never rename one.
const (
	ActionProjectCreated = "project_created"
	ActionProjectRenamed = "project_renamed"
	ActionProjectUpdated = "project_updated"
	ActionProjectDeleted = "project_deleted"

	ActionMemberAdded         = "member_added"
	ActionMemberRemoved       = "member_removed"
	ActionMemberRoleChanged   = "member_role_changed"
	ActionMemberLeft          = "member_left"
	ActionMemberJoinedViaLink = "member_joined_via_link"

	ActionColumnCreated    = "column_created"
	ActionColumnRenamed    = "column_renamed"
	ActionColumnUpdated    = "column_updated"
	ActionColumnDeleted    = "column_deleted"
	ActionColumnsReordered = "columns_reordered"

	ActionTaskCreated         = "task_created"
	ActionTaskRenamed         = "task_renamed"
	ActionTaskMoved           = "task_moved"
	ActionTaskPriorityChanged = "task_priority_changed"
	ActionTaskAssigned        = "task_assigned"
	ActionTaskUnassigned      = "task_unassigned"
	ActionTaskUpdated         = "task_updated"
	ActionTaskDeleted         = "task_deleted"
	ActionTasksReordered      = "tasks_reordered"

	ActionCommentAdded   = "comment_added"
	ActionCommentEdited  = "comment_edited"
	ActionCommentDeleted = "comment_deleted"

	ActionCollaboratorAdded   = "collaborator_added"
	ActionCollaboratorRemoved = "collaborator_removed"

	ActionInvitationCreated   = "invitation_created"
	ActionInvitationAccepted  = "invitation_accepted"
	ActionInvitationRejected  = "invitation_rejected"
	ActionInvitationExpired   = "invitation_expired"
	ActionInvitationCancelled = "invitation_cancelled"
	ActionInvitationResent    = "invitation_resent"

	ActionInvitationLinkCreated = "invitation_link_created"
	ActionInvitationLinkRevoked = "invitation_link_revoked"
)

// Actions lists the full vocabulary, used to validate query filters.
var Actions = []string{
	ActionProjectCreated, ActionProjectRenamed, ActionProjectUpdated, ActionProjectDeleted,
	ActionMemberAdded, ActionMemberRemoved, ActionMemberRoleChanged, ActionMemberLeft, ActionMemberJoinedViaLink,
	ActionColumnCreated, ActionColumnRenamed, ActionColumnUpdated, ActionColumnDeleted, ActionColumnsReordered,
	ActionTaskCreated, ActionTaskRenamed, ActionTaskMoved, ActionTaskPriorityChanged, ActionTaskAssigned,
	ActionTaskUnassigned, ActionTaskUpdated, ActionTaskDeleted, ActionTasksReordered,
	ActionCommentAdded, ActionCommentEdited, ActionCommentDeleted,
	ActionCollaboratorAdded, ActionCollaboratorRemoved,
	ActionInvitationCreated, ActionInvitationAccepted, ActionInvitationRejected, ActionInvitationExpired,
	ActionInvitationCancelled, ActionInvitationResent,
	ActionInvitationLinkCreated, ActionInvitationLinkRevoked,
}

// EntityTypes lists every entity type.
var EntityTypes = []string{
	EntityProject, EntityMember, EntityColumn, EntityTask, EntityComment,
	EntityCollaborator, EntityInvitation, EntityInvitationLink,
}

func IsAction(s string) bool {
	return contains(Actions, s)
}

func IsEntityType(s string) bool {
	return contains(EntityTypes, s)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

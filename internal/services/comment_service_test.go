package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yukikurage/kanban-board-api/internal/audit"
	"github.com/yukikurage/kanban-board-api/internal/models"
	"github.com/yukikurage/kanban-board-api/internal/testutil"
)

func TestCommentService_Threads(t *testing.T) {
	env := newTestEnv(t)
	svc := NewCommentService(env.store, env.recorder)
	ctx := testutil.TestContext(t)
	task := testutil.CreateTestTask(t, env.db, env.columns[0], env.member, "discuss")

	root, err := svc.AddComment(ctx, env.member.ID, env.project.ID, task.ID, AddCommentInput{Content: " first "})
	require.NoError(t, err)
	assert.Equal(t, "first", root.Content)

	reply, err := svc.AddComment(ctx, env.admin.ID, env.project.ID, task.ID, AddCommentInput{Content: "reply", ParentID: &root.ID})
	require.NoError(t, err)
	_, err = svc.AddComment(ctx, env.owner.ID, env.project.ID, task.ID, AddCommentInput{Content: "nested", ParentID: &reply.ID})
	require.NoError(t, err)
	_, err = svc.AddComment(ctx, env.owner.ID, env.project.ID, task.ID, AddCommentInput{Content: "second"})
	require.NoError(t, err)

	threads, err := svc.ListComments(ctx, env.member.ID, env.project.ID, task.ID)
	require.NoError(t, err)
	require.Len(t, threads, 2)
	assert.Equal(t, "first", threads[0].Comment.Content)
	require.Len(t, threads[0].Replies, 1)
	require.Len(t, threads[0].Replies[0].Replies, 1)
	assert.Equal(t, "nested", threads[0].Replies[0].Replies[0].Comment.Content)
	assert.Empty(t, threads[1].Replies)

	other := testutil.CreateTestTask(t, env.db, env.columns[0], env.member, "elsewhere")
	_, err = svc.AddComment(ctx, env.member.ID, env.project.ID, other.ID, AddCommentInput{Content: "x", ParentID: &root.ID})
	assert.ErrorIs(t, err, ErrInvalidParentComment)

	_, err = svc.AddComment(ctx, env.member.ID, env.project.ID, task.ID, AddCommentInput{Content: "\n"})
	assert.ErrorIs(t, err, ErrCommentEmpty)

	assert.Equal(t, int64(4), env.auditCount(t, audit.ActionCommentAdded))
}

func TestCommentService_EditAndDelete(t *testing.T) {
	env := newTestEnv(t)
	svc := NewCommentService(env.store, env.recorder)
	ctx := testutil.TestContext(t)
	task := testutil.CreateTestTask(t, env.db, env.columns[0], env.member, "discuss")

	root, err := svc.AddComment(ctx, env.member.ID, env.project.ID, task.ID, AddCommentInput{Content: "hello"})
	require.NoError(t, err)
	reply, err := svc.AddComment(ctx, env.admin.ID, env.project.ID, task.ID, AddCommentInput{Content: "hi", ParentID: &root.ID})
	require.NoError(t, err)

	_, err = svc.EditComment(ctx, env.admin.ID, env.project.ID, task.ID, root.ID, "hijacked")
	assert.ErrorIs(t, err, ErrNotCommentAuthor)

	edited, err := svc.EditComment(ctx, env.member.ID, env.project.ID, task.ID, root.ID, "hello there")
	require.NoError(t, err)
	assert.Equal(t, "hello there", edited.Content)

	_, err = svc.EditComment(ctx, env.member.ID, env.project.ID, task.ID, root.ID, "hello there")
	require.NoError(t, err)
	assert.Equal(t, int64(1), env.auditCount(t, audit.ActionCommentEdited), "unchanged content is not audited")

	err = svc.DeleteComment(ctx, env.member.ID, env.project.ID, task.ID, reply.ID)
	assert.ErrorIs(t, err, ErrNotCommentAuthor)

	require.NoError(t, svc.DeleteComment(ctx, env.admin.ID, env.project.ID, task.ID, root.ID))
	assert.Zero(t, testutil.Count(t, env.db, &models.TaskComment{}, "task_id = ?", task.ID), "replies go with their parent")

	err = svc.DeleteComment(ctx, env.admin.ID, env.project.ID, task.ID, root.ID)
	assert.ErrorIs(t, err, ErrCommentNotFound)
}

func TestCollaboratorService_AssigneeRules(t *testing.T) {
	env := newTestEnv(t)
	svc := NewCollaboratorService(env.store, env.recorder)
	ctx := testutil.TestContext(t)

	task := testutil.CreateTestTask(t, env.db, env.columns[0], env.owner, "pair on it")
	require.NoError(t, env.db.Model(task).Update("assignee_id", env.member.ID).Error)

	_, err := svc.AddCollaborator(ctx, env.owner.ID, env.project.ID, task.ID, env.admin.ID)
	assert.ErrorIs(t, err, ErrNotTaskAssignee, "even the owner must be the assignee")

	outsider := testutil.CreateTestUser(t, env.db, "outsider")
	_, err = svc.AddCollaborator(ctx, env.member.ID, env.project.ID, task.ID, outsider.ID)
	assert.ErrorIs(t, err, ErrInvalidCollaborator)

	added, err := svc.AddCollaborator(ctx, env.member.ID, env.project.ID, task.ID, env.admin.ID)
	require.NoError(t, err)
	require.NotNil(t, added.AddedByID)
	assert.Equal(t, env.member.ID, *added.AddedByID)

	_, err = svc.AddCollaborator(ctx, env.member.ID, env.project.ID, task.ID, env.admin.ID)
	assert.ErrorIs(t, err, ErrAlreadyCollaborator)

	_, err = svc.AddCollaborator(ctx, env.member.ID, env.project.ID, task.ID, env.owner.ID)
	require.NoError(t, err)

	list, err := svc.ListCollaborators(ctx, env.admin.ID, env.project.ID, task.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	err = svc.RemoveCollaborator(ctx, env.admin.ID, env.project.ID, task.ID, env.owner.ID)
	assert.ErrorIs(t, err, ErrCollaboratorRemoveDenied)

	require.NoError(t, svc.RemoveCollaborator(ctx, env.admin.ID, env.project.ID, task.ID, env.admin.ID), "collaborators may leave")
	require.NoError(t, svc.RemoveCollaborator(ctx, env.member.ID, env.project.ID, task.ID, env.owner.ID))

	err = svc.RemoveCollaborator(ctx, env.member.ID, env.project.ID, task.ID, env.owner.ID)
	assert.ErrorIs(t, err, ErrCollaboratorNotFound)

	assert.Equal(t, int64(2), env.auditCount(t, audit.ActionCollaboratorAdded))
	assert.Equal(t, int64(2), env.auditCount(t, audit.ActionCollaboratorRemoved))
}

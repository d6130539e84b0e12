package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yukikurage/kanban-board-api/internal/audit"
	"github.com/yukikurage/kanban-board-api/internal/models"
	"github.com/yukikurage/kanban-board-api/internal/testutil"
)

func columnOrder(t *testing.T, env *testEnv, columnID uint64) []string {
	t.Helper()
	var tasks []models.Task
	require.NoError(t, env.db.Where("column_id = ?", columnID).Order("position").Find(&tasks).Error)
	titles := make([]string, len(tasks))
	for i, task := range tasks {
		require.Equal(t, i, task.Position, "positions are dense")
		titles[i] = task.Title
	}
	return titles
}

func TestTaskService_CreateTask(t *testing.T) {
	env := newTestEnv(t)
	svc := NewTaskService(env.store, env.recorder)
	ctx := testutil.TestContext(t)

	first, err := svc.CreateTask(ctx, env.member.ID, env.project.ID, CreateTaskInput{
		ColumnID: env.columns[0].ID,
		Title:    "  write docs ",
		Tags:     []string{"docs", " docs", "", "api"},
	})
	require.NoError(t, err)
	assert.Equal(t, "write docs", first.Title)
	assert.Equal(t, models.PriorityMedium, first.Priority)
	assert.Equal(t, []string{"docs", "api"}, []string(first.Tags))
	assert.Zero(t, first.Position)

	second, err := svc.CreateTask(ctx, env.member.ID, env.project.ID, CreateTaskInput{
		ColumnID:   env.columns[0].ID,
		Title:      "review",
		AssigneeID: &env.admin.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, second.Position)
	assert.Equal(t, int64(2), env.auditCount(t, audit.ActionTaskCreated))

	outsider := testutil.CreateTestUser(t, env.db, "outsider")
	tests := []struct {
		name    string
		actor   uint64
		input   CreateTaskInput
		wantErr error
	}{
		{"blank title", env.member.ID, CreateTaskInput{ColumnID: env.columns[0].ID, Title: " "}, ErrTitleRequired},
		{"bad priority", env.member.ID, CreateTaskInput{ColumnID: env.columns[0].ID, Title: "x", Priority: "asap"}, ErrInvalidPriority},
		{"unknown column", env.member.ID, CreateTaskInput{ColumnID: 9999, Title: "x"}, ErrColumnNotFound},
		{"stranger assignee", env.member.ID, CreateTaskInput{ColumnID: env.columns[0].ID, Title: "x", AssigneeID: &outsider.ID}, ErrInvalidAssignee},
		{"not a member", outsider.ID, CreateTaskInput{ColumnID: env.columns[0].ID, Title: "x"}, ErrProjectNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateTask(ctx, tt.actor, env.project.ID, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTaskService_UpdateTaskAuditsPerField(t *testing.T) {
	env := newTestEnv(t)
	svc := NewTaskService(env.store, env.recorder)
	ctx := testutil.TestContext(t)
	task := testutil.CreateTestTask(t, env.db, env.columns[0], env.member, "draft")
	testutil.CreateTestTask(t, env.db, env.columns[0], env.member, "after")

	title := "final"
	priority := models.PriorityUrgent
	description := "details"
	updated, err := svc.UpdateTask(ctx, env.member.ID, env.project.ID, task.ID, UpdateTaskInput{
		Title:       &title,
		Priority:    &priority,
		Description: &description,
		AssigneeID:  &env.owner.ID,
		ColumnID:    &env.columns[1].ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Title)
	assert.Equal(t, env.columns[1].ID, updated.ColumnID)

	for _, action := range []string{
		audit.ActionTaskRenamed,
		audit.ActionTaskMoved,
		audit.ActionTaskPriorityChanged,
		audit.ActionTaskAssigned,
		audit.ActionTaskUpdated,
	} {
		assert.Equal(t, int64(1), env.auditCount(t, action), action)
	}
	assert.Equal(t, []string{"after"}, columnOrder(t, env, env.columns[0].ID), "source column is compacted")

	// No-op updates record nothing.
	_, err = svc.UpdateTask(ctx, env.member.ID, env.project.ID, task.ID, UpdateTaskInput{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, int64(1), env.auditCount(t, audit.ActionTaskRenamed))

	_, err = svc.UpdateTask(ctx, env.member.ID, env.project.ID, task.ID, UpdateTaskInput{ClearAssignee: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), env.auditCount(t, audit.ActionTaskUnassigned))

	blank := "  "
	_, err = svc.UpdateTask(ctx, env.member.ID, env.project.ID, task.ID, UpdateTaskInput{Title: &blank})
	assert.ErrorIs(t, err, ErrTitleRequired)
}

func TestTaskService_MoveTask(t *testing.T) {
	env := newTestEnv(t)
	svc := NewTaskService(env.store, env.recorder)
	ctx := testutil.TestContext(t)

	todo, doing := env.columns[0], env.columns[1]
	a := testutil.CreateTestTask(t, env.db, todo, env.member, "A")
	testutil.CreateTestTask(t, env.db, todo, env.member, "B")
	c := testutil.CreateTestTask(t, env.db, todo, env.member, "C")
	testutil.CreateTestTask(t, env.db, doing, env.member, "X")

	moved, err := svc.MoveTask(ctx, env.member.ID, env.project.ID, c.ID, MoveTaskInput{ColumnID: todo.ID, Position: 0})
	require.NoError(t, err)
	assert.Zero(t, moved.Position)
	assert.Equal(t, []string{"C", "A", "B"}, columnOrder(t, env, todo.ID))
	assert.Equal(t, int64(1), env.auditCount(t, audit.ActionTasksReordered))
	assert.Zero(t, env.auditCount(t, audit.ActionTaskMoved))

	moved, err = svc.MoveTask(ctx, env.member.ID, env.project.ID, a.ID, MoveTaskInput{ColumnID: doing.ID, Position: 50})
	require.NoError(t, err)
	assert.Equal(t, 1, moved.Position, "position is clamped to the end")
	assert.Equal(t, []string{"C", "B"}, columnOrder(t, env, todo.ID))
	assert.Equal(t, []string{"X", "A"}, columnOrder(t, env, doing.ID))
	assert.Equal(t, int64(1), env.auditCount(t, audit.ActionTaskMoved))

	_, err = svc.MoveTask(ctx, env.member.ID, env.project.ID, a.ID, MoveTaskInput{ColumnID: doing.ID, Position: -1})
	assert.ErrorIs(t, err, ErrInvalidPosition)

	other := testutil.CreateTestUser(t, env.db, "other")
	_, otherColumns := testutil.CreateTestProject(t, env.db, other)
	_, err = svc.MoveTask(ctx, env.member.ID, env.project.ID, a.ID, MoveTaskInput{ColumnID: otherColumns[0].ID})
	assert.ErrorIs(t, err, ErrColumnNotFound)
}

func TestTaskService_ReorderTasks(t *testing.T) {
	env := newTestEnv(t)
	svc := NewTaskService(env.store, env.recorder)
	ctx := testutil.TestContext(t)

	column := env.columns[0]
	a := testutil.CreateTestTask(t, env.db, column, env.member, "A")
	b := testutil.CreateTestTask(t, env.db, column, env.member, "B")
	c := testutil.CreateTestTask(t, env.db, column, env.member, "C")

	for name, ids := range map[string][]uint64{
		"missing":   {a.ID, b.ID},
		"duplicate": {a.ID, a.ID, b.ID},
		"foreign":   {a.ID, b.ID, 9999},
	} {
		_, err := svc.ReorderTasks(ctx, env.member.ID, env.project.ID, column.ID, ids)
		assert.ErrorIs(t, err, ErrInvalidTaskOrder, name)
	}
	assert.Equal(t, []string{"A", "B", "C"}, columnOrder(t, env, column.ID))

	tasks, err := svc.ReorderTasks(ctx, env.member.ID, env.project.ID, column.ID, []uint64{b.ID, c.ID, a.ID})
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, b.ID, tasks[0].ID)
	assert.Equal(t, []string{"B", "C", "A"}, columnOrder(t, env, column.ID))
}

func TestTaskService_DeleteTaskPermissions(t *testing.T) {
	env := newTestEnv(t)
	svc := NewTaskService(env.store, env.recorder)
	ctx := testutil.TestContext(t)

	byAdmin := testutil.CreateTestTask(t, env.db, env.columns[0], env.admin, "admin's")
	byMember := testutil.CreateTestTask(t, env.db, env.columns[0], env.member, "member's")
	last := testutil.CreateTestTask(t, env.db, env.columns[0], env.member, "last")

	err := svc.DeleteTask(ctx, env.member.ID, env.project.ID, byAdmin.ID)
	assert.ErrorIs(t, err, ErrTaskPermissionDenied)

	require.NoError(t, svc.DeleteTask(ctx, env.member.ID, env.project.ID, byMember.ID))
	require.NoError(t, svc.DeleteTask(ctx, env.admin.ID, env.project.ID, byAdmin.ID))
	assert.Equal(t, []string{"last"}, columnOrder(t, env, env.columns[0].ID))
	assert.Equal(t, int64(2), env.auditCount(t, audit.ActionTaskDeleted))

	err = svc.DeleteTask(ctx, env.owner.ID, env.project.ID+1, last.ID)
	assert.ErrorIs(t, err, ErrProjectNotFound)

	_, err = svc.GetTask(ctx, env.owner.ID, env.project.ID, byMember.ID)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestTaskService_ListTasksFilters(t *testing.T) {
	env := newTestEnv(t)
	svc := NewTaskService(env.store, env.recorder)
	ctx := testutil.TestContext(t)

	_, err := svc.CreateTask(ctx, env.member.ID, env.project.ID, CreateTaskInput{ColumnID: env.columns[0].ID, Title: "mine", AssigneeID: &env.member.ID, Priority: models.PriorityHigh})
	require.NoError(t, err)
	_, err = svc.CreateTask(ctx, env.member.ID, env.project.ID, CreateTaskInput{ColumnID: env.columns[1].ID, Title: "theirs"})
	require.NoError(t, err)

	all, err := svc.ListTasks(ctx, env.member.ID, env.project.ID, ListTasksInput{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := svc.ListTasks(ctx, env.member.ID, env.project.ID, ListTasksInput{AssigneeID: &env.member.ID})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "mine", mine[0].Title)

	high := models.PriorityHigh
	byPriority, err := svc.ListTasks(ctx, env.member.ID, env.project.ID, ListTasksInput{Priority: &high, ColumnID: &env.columns[0].ID})
	require.NoError(t, err)
	assert.Len(t, byPriority, 1)

	bogus := models.TaskPriority("whenever")
	_, err = svc.ListTasks(ctx, env.member.ID, env.project.ID, ListTasksInput{Priority: &bogus})
	assert.ErrorIs(t, err, ErrInvalidPriority)
}

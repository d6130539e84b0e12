package audit

import (
	"bytes"
	"time"

	"github.com/yukikurage/kanban-board-api/internal/models"
)

func change(field string, from, to interface{}) Details {
	return Details{"field": field, "old": from, "new": to}
}

// TaskChanges emits one event per independently tracked field that differs
// between before and after. Title, column, priority and assignee each get
// their own action; the remaining fields are folded into one task_updated
// event that lists them.
func TaskChanges(actor *uint64, before, after models.Task) []Event {
	base := Event{
		ProjectID:  after.ProjectID,
		ActorID:    actor,
		EntityType: EntityTask,
		EntityID:   after.ID,
	}
	with := func(action string, details Details) Event {
		ev := base
		ev.Action = action
		ev.Details = details
		return ev
	}

	var events []Event

	if before.Title != after.Title {
		events = append(events, with(ActionTaskRenamed, change("title", before.Title, after.Title)))
	}
	if before.ColumnID != after.ColumnID {
		d := change("column_id", before.ColumnID, after.ColumnID)
		d["title"] = after.Title
		events = append(events, with(ActionTaskMoved, d))
	}
	if before.Priority != after.Priority {
		d := change("priority", before.Priority, after.Priority)
		d["title"] = after.Title
		events = append(events, with(ActionTaskPriorityChanged, d))
	}
	if !equalID(before.AssigneeID, after.AssigneeID) {
		action := ActionTaskAssigned
		if after.AssigneeID == nil {
			action = ActionTaskUnassigned
		}
		d := change("assignee_id", before.AssigneeID, after.AssigneeID)
		d["title"] = after.Title
		events = append(events, with(action, d))
	}

	var fields []string
	changes := Details{}
	if before.Description != after.Description {
		fields = append(fields, "description")
	}
	if !equalTags(before.Tags, after.Tags) {
		fields = append(fields, "tags")
		changes["tags"] = Details{"old": []string(before.Tags), "new": []string(after.Tags)}
	}
	if !equalTime(before.DueDate, after.DueDate) {
		fields = append(fields, "due_date")
		changes["due_date"] = Details{"old": before.DueDate, "new": after.DueDate}
	}
	if !bytes.Equal(before.CheckboxState, after.CheckboxState) {
		fields = append(fields, "checkbox_state")
	}
	if len(fields) > 0 {
		events = append(events, with(ActionTaskUpdated, Details{
			"fields":  fields,
			"changes": changes,
			"title":   after.Title,
		}))
	}

	return events
}

// ColumnChanges emits column_renamed and column_updated (color) events.
func ColumnChanges(actor *uint64, before, after models.TaskColumn) []Event {
	var events []Event
	if before.Name != after.Name {
		events = append(events, Event{
			ProjectID:  after.ProjectID,
			ActorID:    actor,
			Action:     ActionColumnRenamed,
			EntityType: EntityColumn,
			EntityID:   after.ID,
			Details:    change("name", before.Name, after.Name),
		})
	}
	if before.Color != after.Color {
		d := change("color", before.Color, after.Color)
		d["name"] = after.Name
		events = append(events, Event{
			ProjectID:  after.ProjectID,
			ActorID:    actor,
			Action:     ActionColumnUpdated,
			EntityType: EntityColumn,
			EntityID:   after.ID,
			Details:    d,
		})
	}
	return events
}

// ProjectChanges emits project_renamed and a project_updated event covering
// description and color.
func ProjectChanges(actor *uint64, before, after models.Project) []Event {
	var events []Event
	if before.Name != after.Name {
		events = append(events, Event{
			ProjectID:  after.ID,
			ActorID:    actor,
			Action:     ActionProjectRenamed,
			EntityType: EntityProject,
			EntityID:   after.ID,
			Details:    change("name", before.Name, after.Name),
		})
	}

	var fields []string
	changes := Details{}
	if before.Description != after.Description {
		fields = append(fields, "description")
	}
	if before.Color != after.Color {
		fields = append(fields, "color")
		changes["color"] = Details{"old": before.Color, "new": after.Color}
	}
	if len(fields) > 0 {
		events = append(events, Event{
			ProjectID:  after.ID,
			ActorID:    actor,
			Action:     ActionProjectUpdated,
			EntityType: EntityProject,
			EntityID:   after.ID,
			Details:    Details{"fields": fields, "changes": changes},
		})
	}
	return events
}

func equalID(a, b *uint64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func equalTags(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

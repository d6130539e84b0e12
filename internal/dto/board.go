package dto

import (
	"time"

	"gorm.io/datatypes"

	"github.com/yukikurage/kanban-board-api/internal/models"
	"github.com/yukikurage/kanban-board-api/internal/services"
)

// ColumnDTO represents a board column in API responses
type ColumnDTO struct {
	ID        uint64    `json:"id"`
	ProjectID uint64    `json:"project_id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID            uint64              `json:"id"`
	ProjectID     uint64              `json:"project_id"`
	ColumnID      uint64              `json:"column_id"`
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	Priority      models.TaskPriority `json:"priority"`
	Tags          []string            `json:"tags"`
	Position      int                 `json:"position"`
	CheckboxState datatypes.JSON      `json:"checkbox_state,omitempty"`
	DueDate       *time.Time          `json:"due_date"`
	AssigneeID    *uint64             `json:"assignee_id"`
	CreatorID     *uint64             `json:"creator_id"`
	Assignee      *UserDTO            `json:"assignee,omitempty"`
	Creator       *UserDTO            `json:"creator,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// CommentDTO represents a comment and its replies
type CommentDTO struct {
	ID        uint64       `json:"id"`
	TaskID    uint64       `json:"task_id"`
	ParentID  *uint64      `json:"parent_id"`
	Content   string       `json:"content"`
	User      *UserDTO     `json:"user,omitempty"`
	Replies   []CommentDTO `json:"replies,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// CollaboratorDTO represents a task collaborator
type CollaboratorDTO struct {
	User      UserDTO   `json:"user"`
	AddedByID *uint64   `json:"added_by_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ToColumnDTO converts a TaskColumn model to ColumnDTO
func ToColumnDTO(column models.TaskColumn) ColumnDTO {
	return ColumnDTO{
		ID:        column.ID,
		ProjectID: column.ProjectID,
		Name:      column.Name,
		Color:     column.Color,
		Position:  column.Position,
		CreatedAt: column.CreatedAt,
		UpdatedAt: column.UpdatedAt,
	}
}

func ToColumnDTOs(columns []models.TaskColumn) []ColumnDTO {
	dtos := make([]ColumnDTO, len(columns))
	for i, c := range columns {
		dtos[i] = ToColumnDTO(c)
	}
	return dtos
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	tags := []string(task.Tags)
	if tags == nil {
		tags = []string{}
	}

	return TaskDTO{
		ID:            task.ID,
		ProjectID:     task.ProjectID,
		ColumnID:      task.ColumnID,
		Title:         task.Title,
		Description:   task.Description,
		Priority:      task.Priority,
		Tags:          tags,
		Position:      task.Position,
		CheckboxState: task.CheckboxState,
		DueDate:       task.DueDate,
		AssigneeID:    task.AssigneeID,
		CreatorID:     task.CreatorID,
		Assignee:      toOptionalUserDTO(task.Assignee),
		Creator:       toOptionalUserDTO(task.Creator),
		CreatedAt:     task.CreatedAt,
		UpdatedAt:     task.UpdatedAt,
	}
}

func ToTaskDTOs(tasks []models.Task) []TaskDTO {
	dtos := make([]TaskDTO, len(tasks))
	for i, t := range tasks {
		dtos[i] = ToTaskDTO(t)
	}
	return dtos
}

// ToCommentDTO converts a single comment without replies
func ToCommentDTO(comment models.TaskComment) CommentDTO {
	return CommentDTO{
		ID:        comment.ID,
		TaskID:    comment.TaskID,
		ParentID:  comment.ParentID,
		Content:   comment.Content,
		User:      toOptionalUserDTO(&comment.User),
		CreatedAt: comment.CreatedAt,
		UpdatedAt: comment.UpdatedAt,
	}
}

// ToCommentThreadDTOs converts comment threads recursively
func ToCommentThreadDTOs(threads []*services.CommentThread) []CommentDTO {
	dtos := make([]CommentDTO, len(threads))
	for i, t := range threads {
		dtos[i] = ToCommentDTO(t.Comment)
		if len(t.Replies) > 0 {
			dtos[i].Replies = ToCommentThreadDTOs(t.Replies)
		}
	}
	return dtos
}

func ToCollaboratorDTO(c models.TaskCollaborator) CollaboratorDTO {
	return CollaboratorDTO{
		User:      ToUserDTO(c.User),
		AddedByID: c.AddedByID,
		CreatedAt: c.CreatedAt,
	}
}

func ToCollaboratorDTOs(collaborators []models.TaskCollaborator) []CollaboratorDTO {
	dtos := make([]CollaboratorDTO, len(collaborators))
	for i, c := range collaborators {
		dtos[i] = ToCollaboratorDTO(c)
	}
	return dtos
}

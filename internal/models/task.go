package models

import (
	"time"

	"gorm.io/datatypes"
)

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

func (p TaskPriority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

type Task struct {
	ID            uint64                      `gorm:"primarykey" json:"id"`
	ProjectID     uint64                      `gorm:"not null;index" json:"project_id"`
	ColumnID      uint64                      `gorm:"not null;index" json:"column_id"`
	Title         string                      `gorm:"type:varchar(255);not null" json:"title"`
	Description   string                      `gorm:"type:text" json:"description"`
	Priority      TaskPriority                `gorm:"type:varchar(10);not null;default:'medium'" json:"priority"`
	Tags          datatypes.JSONSlice[string] `json:"tags"`
	Position      int                         `gorm:"not null;default:0" json:"position"`
	CheckboxState datatypes.JSON              `json:"checkbox_state"`
	DueDate       *time.Time                  `json:"due_date"`
	AssigneeID    *uint64                     `gorm:"index" json:"assignee_id"`
	CreatorID     *uint64                     `json:"creator_id"`
	CreatedAt     time.Time                   `json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`

	// Relations
	Column        TaskColumn         `gorm:"foreignKey:ColumnID" json:"-"`
	Assignee      *User              `gorm:"foreignKey:AssigneeID;constraint:OnDelete:SET NULL" json:"-"`
	Creator       *User              `gorm:"foreignKey:CreatorID;constraint:OnDelete:SET NULL" json:"-"`
	Comments      []TaskComment      `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE" json:"-"`
	Collaborators []TaskCollaborator `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE" json:"-"`
}

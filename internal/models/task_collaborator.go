package models

import "time"

// TaskCollaborator is a watcher on a task, distinct from its assignee.
type TaskCollaborator struct {
	TaskID    uint64    `gorm:"primarykey" json:"task_id"`
	UserID    uint64    `gorm:"primarykey;index" json:"user_id"`
	AddedByID *uint64   `json:"added_by_id"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

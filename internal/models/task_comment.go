package models

import "time"

type TaskComment struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	TaskID    uint64    `gorm:"not null;index" json:"task_id"`
	UserID    uint64    `gorm:"not null;index" json:"user_id"`
	ParentID  *uint64   `gorm:"index" json:"parent_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	User   User         `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Parent *TaskComment `gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE" json:"-"`
}

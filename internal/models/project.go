package models

import (
	"time"
)

const DefaultProjectColor = "#3b82f6"

type Project struct {
	ID          uint64    `gorm:"primarykey" json:"id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Color       string    `gorm:"type:varchar(20);not null;default:'#3b82f6'" json:"color"`
	OwnerID     uint64    `gorm:"not null;index" json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Owner   User            `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
	Members []ProjectMember `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
	Columns []TaskColumn    `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
	Tasks   []Task          `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
}

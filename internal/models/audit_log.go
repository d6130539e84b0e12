package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog is an append-only fact. ProjectID carries no foreign key so the
// trail outlives the project it describes.
type AuditLog struct {
	ID         uint64         `gorm:"primarykey" json:"id"`
	ProjectID  uint64         `gorm:"not null;index" json:"project_id"`
	UserID     *uint64        `gorm:"index" json:"user_id"`
	Action     string         `gorm:"type:varchar(64);not null;index" json:"action"`
	EntityType string         `gorm:"type:varchar(32);not null;index" json:"entity_type"`
	EntityID   uint64         `gorm:"not null" json:"entity_id"`
	Details    datatypes.JSON `json:"details"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`

	// Relations
	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"-"`
}

package models

import "time"

// ProjectInvitationLink is a reusable join token. At most one is active per project.
type ProjectInvitationLink struct {
	ID          uint64    `gorm:"primarykey" json:"id"`
	ProjectID   uint64    `gorm:"not null;index" json:"project_id"`
	Token       string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"token"`
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedByID *uint64   `json:"created_by_id"`
	ExpiresAt   time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Project   Project `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedBy *User   `gorm:"foreignKey:CreatedByID;constraint:OnDelete:SET NULL" json:"-"`
}

func (l ProjectInvitationLink) IsUsable(now time.Time) bool {
	return l.IsActive && now.Before(l.ExpiresAt)
}

package models

import "time"

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationExpired  InvitationStatus = "expired"
	InvitationRejected InvitationStatus = "rejected"
)

func (s InvitationStatus) IsValid() bool {
	switch s {
	case InvitationPending, InvitationAccepted, InvitationExpired, InvitationRejected:
		return true
	default:
		return false
	}
}

type ProjectInvitation struct {
	ID          uint64           `gorm:"primarykey" json:"id"`
	ProjectID   uint64           `gorm:"not null;index" json:"project_id"`
	Email       string           `gorm:"type:varchar(255);not null;index" json:"email"`
	Role        ProjectRole      `gorm:"type:varchar(20);not null" json:"role"`
	Token       string           `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"`
	Status      InvitationStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	InvitedByID *uint64          `json:"invited_by_id"`
	ExpiresAt   time.Time        `gorm:"not null" json:"expires_at"`
	AcceptedAt  *time.Time       `json:"accepted_at"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`

	// Relations
	Project   Project `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
	InvitedBy *User   `gorm:"foreignKey:InvitedByID;constraint:OnDelete:SET NULL" json:"-"`
}

// IsExpired reports whether the invitation is expired either by status or by time.
func (i ProjectInvitation) IsExpired(now time.Time) bool {
	return i.Status == InvitationExpired || now.After(i.ExpiresAt)
}

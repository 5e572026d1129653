package models

import (
	"time"

	"gorm.io/gorm"
)

type ProjectMembership struct {
	gorm.Model

	ProjectID uint `gorm:"not null;uniqueIndex:idx_user_project"`
	UserID    uint `gorm:"not null;uniqueIndex:idx_user_project"`

	// Role and status are independent axes: an invited manager exists but
	// cannot act until accepted.
	Role        string `gorm:"not null"`
	Status      string `gorm:"not null"`
	InvitedByID *uint
	JoinedAt    *time.Time

	// Relationships
	User      User    `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Project   Project `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	InvitedBy *User   `gorm:"foreignKey:InvitedByID"`
}

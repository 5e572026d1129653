package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Comment struct {
	gorm.Model

	TaskID uint   `gorm:"not null;index"`
	UserID uint   `gorm:"not null;index"`
	Text   string `gorm:"not null"`

	// Resolved mention targets, stored as [{"user_id": ..., "username": ...}].
	Mentions datatypes.JSON `gorm:"type:jsonb"`

	// Relationships
	Task Task `gorm:"foreignKey:TaskID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	User User `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}

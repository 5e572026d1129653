package models

import (
	"time"

	"gorm.io/gorm"
)

type Notification struct {
	gorm.Model

	UserID  uint   `gorm:"not null;index"`
	Type    string `gorm:"not null"` // "task_assigned", "comment_mention"
	Title   string `gorm:"not null"`
	Message string

	RelatedTaskID    *uint
	RelatedProjectID *uint

	IsRead bool `gorm:"default:false"`
	ReadAt *time.Time

	// Relationships
	User           User     `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	RelatedTask    *Task    `gorm:"foreignKey:RelatedTaskID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	RelatedProject *Project `gorm:"foreignKey:RelatedProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}

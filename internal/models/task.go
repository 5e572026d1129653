package models

import (
	"time"

	"gorm.io/gorm"
)

type Task struct {
	gorm.Model

	ProjectID   uint   `gorm:"not null;index"`
	Title       string `gorm:"not null"`
	Description string
	Status      string `gorm:"not null"` // "new", "in_progress", "review", "done"
	Priority    string `gorm:"not null"` // "low", "medium", "high", "critical"
	TaskType    string `gorm:"not null"`

	AssigneeID  *uint `gorm:"index"`
	CreatedByID uint  `gorm:"not null;index"`

	DueDate        *time.Time
	EstimatedHours *float64

	// Set exactly when Status becomes "done", cleared otherwise.
	CompletedAt *time.Time

	// Relationships
	Project   Project   `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Assignee  *User     `gorm:"foreignKey:AssigneeID;constraint:OnUpdate:Cascade,OnDelete:SET NULL"`
	CreatedBy User      `gorm:"foreignKey:CreatedByID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Comments  []Comment `gorm:"foreignKey:TaskID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}

package services

import (
	"errors"
	"fmt"
	"log"
	"regexp"

	"github.com/taskflow-dev/taskflow/internal/models"
	"gorm.io/gorm"
)

const (
	NotificationTaskAssigned   = "task_assigned"
	NotificationCommentMention = "comment_mention"
)

// Mention is one resolved mention target, stored on the comment.
type Mention struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
}

var mentionPattern = regexp.MustCompile(`@(\w+)`)

// ResolveMentions scans comment text for @name markers and resolves each
// to a user by case-insensitive name match. When several users share a
// name the lowest id wins; unresolvable names are skipped. The same name
// mentioned twice resolves twice.
func ResolveMentions(db *gorm.DB, text string) []Mention {
	var mentions []Mention

	for _, match := range mentionPattern.FindAllStringSubmatch(text, -1) {
		var user models.User

		err := db.Where("LOWER(name) = LOWER(?)", match[1]).Order("id ASC").First(&user).Error

		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				log.Printf("Failed to resolve mention %q: %v", match[1], err)
			}
			continue
		}

		mentions = append(mentions, Mention{UserID: user.ID, Username: user.Name})
	}

	return mentions
}

// NotifyMentions writes one comment_mention notification per resolved
// mention. Delivery is best-effort: a failed write is logged and the rest
// continue, the comment itself is never rolled back.
func NotifyMentions(db *gorm.DB, author models.User, mentions []Mention, taskID, projectID uint) {
	for _, mention := range mentions {
		notification := models.Notification{
			UserID:           mention.UserID,
			Type:             NotificationCommentMention,
			Title:            "You were mentioned in a comment",
			Message:          fmt.Sprintf("%s mentioned you in a comment", author.Name),
			RelatedTaskID:    &taskID,
			RelatedProjectID: &projectID,
		}

		if err := db.Create(&notification).Error; err != nil {
			log.Printf("Failed to create mention notification for user %d: %v", mention.UserID, err)
		}
	}
}

// NotifyTaskAssigned writes a task_assigned notification to the task's
// assignee. Self-assignment emits nothing. Best-effort like mentions:
// a failed write never surfaces as the triggering operation's error.
func NotifyTaskAssigned(db *gorm.DB, task models.Task, actorID uint) {
	if task.AssigneeID == nil || *task.AssigneeID == actorID {
		return
	}

	notification := models.Notification{
		UserID:           *task.AssigneeID,
		Type:             NotificationTaskAssigned,
		Title:            "Task assigned to you",
		Message:          fmt.Sprintf("Task %q has been assigned to you", task.Title),
		RelatedTaskID:    &task.ID,
		RelatedProjectID: &task.ProjectID,
	}

	if err := db.Create(&notification).Error; err != nil {
		log.Printf("Failed to create assignment notification for user %d: %v", *task.AssigneeID, err)
	}
}

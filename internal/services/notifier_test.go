package services

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/taskflow-dev/taskflow/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})

	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()

	if err != nil {
		t.Fatalf("Failed to get database handle: %v", err)
	}

	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.User{}, &models.Task{}, &models.Notification{}); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

func seedUser(t *testing.T, db *gorm.DB, name, email string) models.User {
	t.Helper()

	user := models.User{Name: name, Email: email, PasswordHash: "x", IsActive: true}

	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to seed user %s: %v", name, err)
	}

	return user
}

func TestResolveMentions(t *testing.T) {
	db := newTestDB(t)
	alice := seedUser(t, db, "alice", "alice@example.com")
	bob := seedUser(t, db, "Bob", "bob@example.com")

	mentions := ResolveMentions(db, "ping @alice and @bob about this")

	if len(mentions) != 2 {
		t.Fatalf("got %d mentions, want 2", len(mentions))
	}

	if mentions[0].UserID != alice.ID || mentions[0].Username != "alice" {
		t.Errorf("first mention = %+v, want alice", mentions[0])
	}

	// Matching is case-insensitive and keeps the stored name.
	if mentions[1].UserID != bob.ID || mentions[1].Username != "Bob" {
		t.Errorf("second mention = %+v, want Bob", mentions[1])
	}
}

func TestResolveMentionsSkipsUnknown(t *testing.T) {
	db := newTestDB(t)
	alice := seedUser(t, db, "alice", "alice@example.com")

	mentions := ResolveMentions(db, "@ghost please review, cc @alice")

	if len(mentions) != 1 {
		t.Fatalf("got %d mentions, want 1", len(mentions))
	}

	if mentions[0].UserID != alice.ID {
		t.Errorf("mention user id = %d, want %d", mentions[0].UserID, alice.ID)
	}
}

func TestResolveMentionsLowestIDWins(t *testing.T) {
	db := newTestDB(t)
	first := seedUser(t, db, "sam", "sam1@example.com")
	seedUser(t, db, "Sam", "sam2@example.com")

	mentions := ResolveMentions(db, "@sam take a look")

	if len(mentions) != 1 {
		t.Fatalf("got %d mentions, want 1", len(mentions))
	}

	if mentions[0].UserID != first.ID {
		t.Errorf("mention resolved to user %d, want lowest id %d", mentions[0].UserID, first.ID)
	}
}

func TestNotifyMentions(t *testing.T) {
	db := newTestDB(t)
	author := seedUser(t, db, "author", "author@example.com")
	alice := seedUser(t, db, "alice", "alice@example.com")
	bob := seedUser(t, db, "bob", "bob@example.com")

	mentions := []Mention{
		{UserID: alice.ID, Username: "alice"},
		{UserID: bob.ID, Username: "bob"},
	}

	NotifyMentions(db, author, mentions, 10, 20)

	var notifications []models.Notification

	if err := db.Order("user_id ASC").Find(&notifications).Error; err != nil {
		t.Fatalf("Failed to load notifications: %v", err)
	}

	if len(notifications) != 2 {
		t.Fatalf("got %d notifications, want 2", len(notifications))
	}

	for _, n := range notifications {
		if n.Type != NotificationCommentMention {
			t.Errorf("notification type = %q, want %q", n.Type, NotificationCommentMention)
		}

		if n.RelatedTaskID == nil || *n.RelatedTaskID != 10 {
			t.Error("notification should reference the task")
		}

		if n.RelatedProjectID == nil || *n.RelatedProjectID != 20 {
			t.Error("notification should reference the project")
		}

		if n.IsRead {
			t.Error("new notification should be unread")
		}
	}
}

func TestNotifyTaskAssigned(t *testing.T) {
	db := newTestDB(t)
	actor := seedUser(t, db, "actor", "actor@example.com")
	assignee := seedUser(t, db, "assignee", "assignee@example.com")

	task := models.Task{Title: "Fix login", ProjectID: 7, CreatedByID: actor.ID, AssigneeID: &assignee.ID}
	task.ID = 42

	NotifyTaskAssigned(db, task, actor.ID)

	var notification models.Notification

	if err := db.First(&notification).Error; err != nil {
		t.Fatalf("expected an assignment notification: %v", err)
	}

	if notification.UserID != assignee.ID {
		t.Errorf("notification user = %d, want assignee %d", notification.UserID, assignee.ID)
	}

	if notification.Type != NotificationTaskAssigned {
		t.Errorf("notification type = %q, want %q", notification.Type, NotificationTaskAssigned)
	}
}

func TestNotifyTaskAssignedSelfAssignment(t *testing.T) {
	db := newTestDB(t)
	actor := seedUser(t, db, "actor", "actor@example.com")

	task := models.Task{Title: "Fix login", ProjectID: 7, CreatedByID: actor.ID, AssigneeID: &actor.ID}

	NotifyTaskAssigned(db, task, actor.ID)

	var count int64

	if err := db.Model(&models.Notification{}).Count(&count).Error; err != nil {
		t.Fatalf("Failed to count notifications: %v", err)
	}

	if count != 0 {
		t.Errorf("self-assignment created %d notifications, want 0", count)
	}
}

func TestNotifyTaskAssignedUnassigned(t *testing.T) {
	db := newTestDB(t)
	actor := seedUser(t, db, "actor", "actor@example.com")

	task := models.Task{Title: "Fix login", ProjectID: 7, CreatedByID: actor.ID}

	NotifyTaskAssigned(db, task, actor.ID)

	var count int64

	if err := db.Model(&models.Notification{}).Count(&count).Error; err != nil {
		t.Fatalf("Failed to count notifications: %v", err)
	}

	if count != 0 {
		t.Errorf("nil assignee created %d notifications, want 0", count)
	}
}

package handlers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/taskflow-dev/taskflow/internal/authz"
)

func addComment(t *testing.T, r *gin.Engine, u testUser, taskID uint, text string) uint {
	t.Helper()

	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/tasks/%d/comments", taskID), u.token, gin.H{"text": text})

	if w.Code != http.StatusCreated {
		t.Fatalf("add comment = %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		ID uint `json:"id"`
	}

	decodeJSON(t, w, &resp)

	return resp.ID
}

func TestAddCommentWithMentions(t *testing.T) {
	r := setupRouter(t)
	owner := registerUser(t, r, "owner")
	alice := registerUser(t, r, "alice")
	projectID := createProject(t, r, owner, "Apollo")
	addMember(t, projectID, alice.id, authz.RoleParticipant)
	taskID := createTask(t, r, owner, projectID, gin.H{"title": "Discuss"})

	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/tasks/%d/comments", taskID), owner.token, gin.H{
		"text": "@alice please take a look, @ghost too",
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("add comment = %d: %s", w.Code, w.Body.String())
	}

	var comment struct {
		Text     string `json:"text"`
		Mentions []struct {
			UserID   uint   `json:"user_id"`
			Username string `json:"username"`
		} `json:"mentions"`
	}

	decodeJSON(t, w, &comment)

	if len(comment.Mentions) != 1 {
		t.Fatalf("got %d mentions, want 1 (unresolvable skipped)", len(comment.Mentions))
	}

	if comment.Mentions[0].UserID != alice.id || comment.Mentions[0].Username != "alice" {
		t.Errorf("mention = %+v", comment.Mentions[0])
	}

	// The mentioned member got a notification
	nw := doJSON(t, r, http.MethodGet, "/api/notifications", alice.token, nil)

	var notifications struct {
		Unread        int64 `json:"unread"`
		Notifications []struct {
			Type          string `json:"type"`
			RelatedTaskID *uint  `json:"related_task_id"`
		} `json:"notifications"`
	}

	decodeJSON(t, nw, &notifications)

	if notifications.Unread != 1 || len(notifications.Notifications) != 1 {
		t.Fatalf("mention notifications = %+v", notifications)
	}

	n := notifications.Notifications[0]

	if n.Type != "comment_mention" || n.RelatedTaskID == nil || *n.RelatedTaskID != taskID {
		t.Errorf("notification = %+v", n)
	}
}

func TestCommentRequiresText(t *testing.T) {
	r := setupRouter(t)
	owner := registerUser(t, r, "owner")
	projectID := createProject(t, r, owner, "Apollo")
	taskID := createTask(t, r, owner, projectID, gin.H{"title": "Discuss"})

	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/tasks/%d/comments", taskID), owner.token, gin.H{"text": "   "})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("blank comment = %d, want 400", w.Code)
	}
}

func TestUpdateCommentAuthorOnly(t *testing.T) {
	r := setupRouter(t)
	owner := registerUser(t, r, "owner")
	author := registerUser(t, r, "author")
	projectID := createProject(t, r, owner, "Apollo")
	addMember(t, projectID, author.id, authz.RoleParticipant)
	taskID := createTask(t, r, owner, projectID, gin.H{"title": "Discuss"})
	commentID := addComment(t, r, author, taskID, "my words")

	path := fmt.Sprintf("/api/comments/%d", commentID)

	// Not even the project owner may edit another's comment
	if w := doJSON(t, r, http.MethodPatch, path, owner.token, gin.H{"text": "rewritten"}); w.Code != http.StatusForbidden {
		t.Fatalf("owner edit of foreign comment = %d, want 403", w.Code)
	}

	w := doJSON(t, r, http.MethodPatch, path, author.token, gin.H{"text": "edited"})

	if w.Code != http.StatusOK {
		t.Fatalf("author edit = %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Text string `json:"text"`
	}

	decodeJSON(t, w, &resp)

	if resp.Text != "edited" {
		t.Errorf("comment text = %q, want edited", resp.Text)
	}
}

func TestDeleteCommentAuthorOrManager(t *testing.T) {
	r := setupRouter(t)
	owner := registerUser(t, r, "owner")
	author := registerUser(t, r, "author")
	bystander := registerUser(t, r, "bystander")
	projectID := createProject(t, r, owner, "Apollo")
	addMember(t, projectID, author.id, authz.RoleParticipant)
	addMember(t, projectID, bystander.id, authz.RoleParticipant)
	taskID := createTask(t, r, owner, projectID, gin.H{"title": "Discuss"})

	first := addComment(t, r, author, taskID, "first")
	second := addComment(t, r, author, taskID, "second")

	if w := doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/comments/%d", first), bystander.token, nil); w.Code != http.StatusForbidden {
		t.Fatalf("bystander delete = %d, want 403", w.Code)
	}

	if w := doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/comments/%d", first), author.token, nil); w.Code != http.StatusOK {
		t.Fatalf("author delete = %d", w.Code)
	}

	// Moderation: the owner may remove anyone's comment
	if w := doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/comments/%d", second), owner.token, nil); w.Code != http.StatusOK {
		t.Fatalf("owner delete = %d", w.Code)
	}

	w := doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/tasks/%d/comments", taskID), owner.token, nil)

	var comments []struct {
		ID uint `json:"id"`
	}

	decodeJSON(t, w, &comments)

	if len(comments) != 0 {
		t.Errorf("got %d comments after deletes, want 0", len(comments))
	}
}

func TestCommentsRequireMembership(t *testing.T) {
	r := setupRouter(t)
	owner := registerUser(t, r, "owner")
	stranger := registerUser(t, r, "stranger")
	projectID := createProject(t, r, owner, "Apollo")
	taskID := createTask(t, r, owner, projectID, gin.H{"title": "Discuss"})

	path := fmt.Sprintf("/api/tasks/%d/comments", taskID)

	if w := doJSON(t, r, http.MethodPost, path, stranger.token, gin.H{"text": "hi"}); w.Code != http.StatusForbidden {
		t.Fatalf("stranger comment = %d, want 403", w.Code)
	}

	if w := doJSON(t, r, http.MethodGet, path, stranger.token, nil); w.Code != http.StatusForbidden {
		t.Fatalf("stranger read comments = %d, want 403", w.Code)
	}
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskflow-dev/taskflow/db"
	"github.com/taskflow-dev/taskflow/internal/authz"
	"github.com/taskflow-dev/taskflow/internal/models"
	"github.com/taskflow-dev/taskflow/internal/services"
	"github.com/taskflow-dev/taskflow/internal/utils"
	"gorm.io/gorm"
)

type CommentRequest struct {
	Text string `json:"text" binding:"required"`
}

type CommentResponse struct {
	ID        uint               `json:"id"`
	TaskID    uint               `json:"task_id"`
	UserID    uint               `json:"user_id"`
	UserName  string             `json:"user_name,omitempty"`
	AvatarURL string             `json:"avatar_url,omitempty"`
	Text      string             `json:"text"`
	Mentions  []services.Mention `json:"mentions"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

func buildCommentResponse(comment models.Comment) CommentResponse {
	var mentions []services.Mention

	if len(comment.Mentions) > 0 {
		// Mentions were marshaled by us, a decode failure means a
		// corrupted row; respond with an empty list rather than fail
		_ = json.Unmarshal(comment.Mentions, &mentions)
	}

	if mentions == nil {
		mentions = []services.Mention{}
	}

	return CommentResponse{
		ID:        comment.ID,
		TaskID:    comment.TaskID,
		UserID:    comment.UserID,
		UserName:  comment.User.Name,
		AvatarURL: comment.User.AvatarURL,
		Text:      comment.Text,
		Mentions:  mentions,
		CreatedAt: comment.CreatedAt,
		UpdatedAt: comment.UpdatedAt,
	}
}

func AddComment(ctx *gin.Context) {
	task, _, ok := loadTaskForMember(ctx)

	if !ok {
		return
	}

	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req CommentRequest

	if err := ctx.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Comment text is required"})
		return
	}

	mentions := services.ResolveMentions(db.DB, req.Text)

	mentionsJSON, err := json.Marshal(mentions)

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add comment"})
		return
	}

	comment := models.Comment{
		TaskID:   task.ID,
		UserID:   currentUser.ID,
		Text:     req.Text,
		Mentions: mentionsJSON,
	}

	if err := db.DB.Create(&comment).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add comment"})
		return
	}

	// Notifications are queued after the comment write and never roll
	// it back
	author := models.User{Name: currentUser.Name}
	author.ID = currentUser.ID
	services.NotifyMentions(db.DB, author, mentions, task.ID, task.ProjectID)

	if err := db.DB.Preload("User").First(&comment, comment.ID).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add comment"})
		return
	}

	ctx.JSON(http.StatusCreated, buildCommentResponse(comment))
}

func GetComments(ctx *gin.Context) {
	task, _, ok := loadTaskForMember(ctx)

	if !ok {
		return
	}

	var comments []models.Comment

	if err := db.DB.Preload("User").
		Where("task_id = ?", task.ID).
		Order("created_at DESC").
		Find(&comments).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get comments"})
		return
	}

	response := make([]CommentResponse, 0, len(comments))

	for _, comment := range comments {
		response = append(response, buildCommentResponse(comment))
	}

	ctx.JSON(http.StatusOK, response)
}

func UpdateComment(ctx *gin.Context) {
	comment, _, ok := loadCommentForMember(ctx)

	if !ok {
		return
	}

	userID, _ := utils.GetCurrentUserID(ctx)

	// Strictly the author: not even an owner may edit another's words
	if !authz.CanEditComment(comment, userID) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Only comment author can update it"})
		return
	}

	var req CommentRequest

	if err := ctx.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Comment text is required"})
		return
	}

	if err := db.DB.Model(&comment).Update("text", req.Text).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update comment"})
		return
	}

	if err := db.DB.Preload("User").First(&comment, comment.ID).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update comment"})
		return
	}

	ctx.JSON(http.StatusOK, buildCommentResponse(comment))
}

func DeleteComment(ctx *gin.Context) {
	comment, decision, ok := loadCommentForMember(ctx)

	if !ok {
		return
	}

	userID, _ := utils.GetCurrentUserID(ctx)

	if !authz.CanDeleteComment(decision, comment, userID) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Only comment author or project manager can delete it"})
		return
	}

	if err := db.DB.Delete(&comment).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete comment"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully"})
}

// loadCommentForMember resolves the comment from the path and gates the
// caller through the owning project of the comment's task.
func loadCommentForMember(ctx *gin.Context) (models.Comment, authz.Decision, bool) {
	commentID, err := utils.GetCommentID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return models.Comment{}, authz.Decision{}, false
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return models.Comment{}, authz.Decision{}, false
	}

	var comment models.Comment

	if err := db.DB.Preload("Task").First(&comment, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve comment"})
		}
		return models.Comment{}, authz.Decision{}, false
	}

	decision, err := authz.RequireMember(db.DB, userID, comment.Task.ProjectID)

	if err != nil {
		respondAuthzError(ctx, err)
		return models.Comment{}, authz.Decision{}, false
	}

	return comment, decision, true
}

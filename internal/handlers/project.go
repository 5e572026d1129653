package handlers

import (
	"errors"
	"log"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskflow-dev/taskflow/db"
	"github.com/taskflow-dev/taskflow/internal/authz"
	"github.com/taskflow-dev/taskflow/internal/config"
	"github.com/taskflow-dev/taskflow/internal/models"
	"github.com/taskflow-dev/taskflow/internal/services"
	"github.com/taskflow-dev/taskflow/internal/utils"
	"gorm.io/gorm"
)

type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required,max=200"`
	Description string `json:"description"`
}

type UpdateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type ProjectResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	OwnerID     uint   `json:"owner_id"`
	OwnerName   string `json:"owner_name,omitempty"`
	Role        string `json:"role,omitempty"`
	MemberCount int64  `json:"member_count,omitempty"`
	IsActive    bool   `json:"is_active"`
}

type MemberResponse struct {
	ID       uint       `json:"id"`
	UserID   uint       `json:"user_id"`
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	Role     string     `json:"role"`
	Status   string     `json:"status"`
	JoinedAt *time.Time `json:"joined_at"`
}

type InviteMemberRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role"`
}

type JoinQRRequest struct {
	QRCodeToken string `json:"qr_code_token" binding:"required"`
}

func CreateProject(ctx *gin.Context) {
	var body CreateProjectRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	project := models.Project{
		Name:        body.Name,
		Description: body.Description,
		OwnerID:     userID,
		IsActive:    true,
	}

	if err := authz.CreateProjectWithOwner(db.DB, &project); err != nil {
		log.Printf("Failed to create project: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create project"})
		return
	}

	ctx.JSON(http.StatusCreated, ProjectResponse{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		OwnerID:     project.OwnerID,
		IsActive:    project.IsActive,
	})
}

func ListProjects(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var memberships []models.ProjectMembership

	if err := db.DB.Preload("Project").Preload("Project.Owner").
		Where("user_id = ? AND status = ?", userID, authz.StatusAccepted).
		Find(&memberships).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve projects"})
		return
	}

	sort.Slice(memberships, func(i, j int) bool {
		return memberships[i].Project.CreatedAt.After(memberships[j].Project.CreatedAt)
	})

	response := make([]ProjectResponse, 0, len(memberships))

	for _, membership := range memberships {
		response = append(response, ProjectResponse{
			ID:          membership.Project.ID,
			Name:        membership.Project.Name,
			Description: membership.Project.Description,
			OwnerID:     membership.Project.OwnerID,
			OwnerName:   membership.Project.Owner.Name,
			Role:        membership.Role,
			IsActive:    membership.Project.IsActive,
		})
	}

	ctx.JSON(http.StatusOK, response)
}

func GetProject(ctx *gin.Context) {
	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	decision, err := authz.RequireMember(db.DB, userID, projectID)

	if err != nil {
		respondAuthzError(ctx, err)
		return
	}

	var project models.Project

	if err := db.DB.Preload("Owner").First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		}
		return
	}

	memberCount, err := authz.CountAcceptedMembers(db.DB, projectID)

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		return
	}

	ctx.JSON(http.StatusOK, ProjectResponse{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		OwnerID:     project.OwnerID,
		OwnerName:   project.Owner.Name,
		Role:        decision.Membership.Role,
		MemberCount: memberCount,
		IsActive:    project.IsActive,
	})
}

func UpdateProject(ctx *gin.Context) {
	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body UpdateProjectRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	project, ok := requireProjectOwner(ctx, projectID, userID)

	if !ok {
		return
	}

	updates := make(map[string]interface{})

	if body.Name != nil {
		updates["name"] = *body.Name
	}

	if body.Description != nil {
		updates["description"] = *body.Description
	}

	if len(updates) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}

	if err := db.DB.Model(&project).Updates(updates).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update project"})
		return
	}

	ctx.JSON(http.StatusOK, ProjectResponse{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		OwnerID:     project.OwnerID,
		IsActive:    project.IsActive,
	})
}

func GenerateQRCode(ctx *gin.Context) {
	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	project, ok := requireProjectOwner(ctx, projectID, userID)

	if !ok {
		return
	}

	token, err := services.GenerateJoinToken()

	if err != nil {
		log.Printf("Failed to generate join token: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate QR code"})
		return
	}

	// Single slot: writing the new token invalidates the previous one.
	// The expiry is advisory, returned to the client but never enforced.
	expiresAt := time.Now().AddDate(0, 0, config.App.QRExpiryDays)

	updates := map[string]interface{}{
		"qr_code_token":      token,
		"qr_code_expires_at": expiresAt,
	}

	if err := db.DB.Model(&project).Updates(updates).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate QR code"})
		return
	}

	qrCodeURL, err := services.RenderTokenQR(token)

	if err != nil {
		log.Printf("Failed to render QR code: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate QR code"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"project_id":    project.ID,
		"qr_code_token": token,
		"qr_code_url":   qrCodeURL,
		"expires_at":    expiresAt.Format(time.RFC3339),
	})
}

func JoinProjectViaQR(ctx *gin.Context) {
	var body JoinQRRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "QR code token is required"})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	project, membership, err := authz.JoinProjectByToken(db.DB, body.QRCodeToken, userID)

	if err != nil {
		respondAuthzError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"project_id":   project.ID,
		"project_name": project.Name,
		"user_id":      userID,
		"role":         membership.Role,
		"joined_at":    membership.JoinedAt,
	})
}

func ListProjectMembers(ctx *gin.Context) {
	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if _, err := authz.RequireMember(db.DB, userID, projectID); err != nil {
		respondAuthzError(ctx, err)
		return
	}

	members, err := authz.ListAcceptedMembers(db.DB, projectID)

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list project members"})
		return
	}

	response := make([]MemberResponse, 0, len(members))

	for _, member := range members {
		response = append(response, MemberResponse{
			ID:       member.ID,
			UserID:   member.UserID,
			Name:     member.User.Name,
			Email:    member.User.Email,
			Role:     member.Role,
			Status:   member.Status,
			JoinedAt: member.JoinedAt,
		})
	}

	ctx.JSON(http.StatusOK, response)
}

func InviteMember(ctx *gin.Context) {
	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body InviteMemberRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Email is required"})
		return
	}

	role := authz.Role(body.Role)

	if role == "" {
		role = authz.RoleParticipant
	}

	if role != authz.RoleManager && role != authz.RoleParticipant {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Role must be manager or participant"})
		return
	}

	if _, err := authz.InviteMember(db.DB, projectID, userID, body.Email, role); err != nil {
		if errors.Is(err, authz.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		respondAuthzError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"message": "Invitation sent successfully"})
}

// requireProjectOwner loads the project and enforces both owner predicates:
// the role policy for manage_project and the literal owner_id comparison.
func requireProjectOwner(ctx *gin.Context, projectID, userID uint) (models.Project, bool) {
	var project models.Project

	if err := db.DB.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		}
		return models.Project{}, false
	}

	if _, err := authz.Authorize(db.DB, userID, projectID, authz.OpManageProject); err != nil {
		respondAuthzError(ctx, err)
		return models.Project{}, false
	}

	if !authz.IsProjectOwner(project, userID) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Only project owner can perform this action"})
		return models.Project{}, false
	}

	return project, true
}

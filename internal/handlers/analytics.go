package handlers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskflow-dev/taskflow/db"
	"github.com/taskflow-dev/taskflow/internal/authz"
	"github.com/taskflow-dev/taskflow/internal/models"
	"github.com/taskflow-dev/taskflow/internal/types"
	"github.com/taskflow-dev/taskflow/internal/utils"
)

type TeamProductivity struct {
	UserID                uint    `json:"user_id"`
	Name                  string  `json:"name"`
	CompletedTasks        int     `json:"completed_tasks"`
	AverageTimeToComplete float64 `json:"average_time_to_complete"`
}

type DashboardResponse struct {
	ProjectID             uint               `json:"project_id"`
	TotalTasks            int                `json:"total_tasks"`
	CompletedTasks        int                `json:"completed_tasks"`
	CompletionRate        float64            `json:"completion_rate"`
	TasksByStatus         map[string]int     `json:"tasks_by_status"`
	TasksByPriority       map[string]int     `json:"tasks_by_priority"`
	TasksByType           map[string]int     `json:"tasks_by_type"`
	TeamProductivity      []TeamProductivity `json:"team_productivity"`
	AverageCompletionTime float64            `json:"average_completion_time"`
	Velocity              int                `json:"velocity"`
}

type BurndownPoint struct {
	Date           string `json:"date"`
	TasksCreated   int    `json:"tasks_created"`
	TasksCompleted int    `json:"tasks_completed"`
}

type ExportRequest struct {
	Format string `json:"format"`
}

// requireAnalyticsAccess gates the aggregate endpoints: participants are
// denied even read access.
func requireAnalyticsAccess(ctx *gin.Context) (uint, bool) {
	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return 0, false
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return 0, false
	}

	if _, err := authz.Authorize(db.DB, userID, projectID, authz.OpViewDashboard); err != nil {
		respondAuthzError(ctx, err)
		return 0, false
	}

	return projectID, true
}

func GetProjectDashboard(ctx *gin.Context) {
	projectID, ok := requireAnalyticsAccess(ctx)

	if !ok {
		return
	}

	var tasks []models.Task

	if err := db.DB.Where("project_id = ?", projectID).Find(&tasks).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get project dashboard"})
		return
	}

	members, err := authz.ListAcceptedMembers(db.DB, projectID)

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get project dashboard"})
		return
	}

	response := DashboardResponse{
		ProjectID:       projectID,
		TasksByStatus:   make(map[string]int),
		TasksByPriority: make(map[string]int),
		TasksByType:     make(map[string]int),
	}

	var totalCompletionHours float64
	weekAgo := time.Now().Add(-7 * 24 * time.Hour)

	for _, task := range tasks {
		response.TotalTasks++
		response.TasksByStatus[task.Status]++
		response.TasksByPriority[task.Priority]++
		response.TasksByType[task.TaskType]++

		if task.Status == types.TaskStatusDone {
			response.CompletedTasks++

			if task.CompletedAt != nil {
				totalCompletionHours += task.CompletedAt.Sub(task.CreatedAt).Hours()

				if task.CompletedAt.After(weekAgo) {
					response.Velocity++
				}
			}
		}
	}

	if response.TotalTasks > 0 {
		rate := float64(response.CompletedTasks) / float64(response.TotalTasks) * 100
		response.CompletionRate = math.Round(rate*10) / 10
	}

	if response.CompletedTasks > 0 {
		avg := totalCompletionHours / float64(response.CompletedTasks)
		response.AverageCompletionTime = math.Round(avg*10) / 10
	}

	response.TeamProductivity = buildTeamProductivity(members, tasks)

	ctx.JSON(http.StatusOK, response)
}

func buildTeamProductivity(members []models.ProjectMembership, tasks []models.Task) []TeamProductivity {
	productivity := make([]TeamProductivity, 0, len(members))

	for _, member := range members {
		entry := TeamProductivity{
			UserID: member.UserID,
			Name:   member.User.Name,
		}

		var hours float64

		for _, task := range tasks {
			if task.AssigneeID == nil || *task.AssigneeID != member.UserID {
				continue
			}

			if task.Status == types.TaskStatusDone {
				entry.CompletedTasks++

				if task.CompletedAt != nil {
					hours += task.CompletedAt.Sub(task.CreatedAt).Hours()
				}
			}
		}

		if entry.CompletedTasks > 0 {
			avg := hours / float64(entry.CompletedTasks)
			entry.AverageTimeToComplete = math.Round(avg*10) / 10
		}

		productivity = append(productivity, entry)
	}

	// Most productive first
	sort.SliceStable(productivity, func(i, j int) bool {
		return productivity[i].CompletedTasks > productivity[j].CompletedTasks
	})

	return productivity
}

func GetBurndownChart(ctx *gin.Context) {
	projectID, ok := requireAnalyticsAccess(ctx)

	if !ok {
		return
	}

	cutoff := time.Now().AddDate(0, 0, -30)

	var tasks []models.Task

	if err := db.DB.Where("project_id = ? AND created_at >= ?", projectID, cutoff).
		Order("created_at ASC").
		Find(&tasks).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get burndown chart"})
		return
	}

	byDate := make(map[string]*BurndownPoint)
	var dates []string

	for _, task := range tasks {
		date := task.CreatedAt.Format("2006-01-02")

		point, exists := byDate[date]

		if !exists {
			point = &BurndownPoint{Date: date}
			byDate[date] = point
			dates = append(dates, date)
		}

		point.TasksCreated++

		if task.Status == types.TaskStatusDone {
			point.TasksCompleted++
		}
	}

	response := make([]BurndownPoint, 0, len(dates))

	for _, date := range dates {
		response = append(response, *byDate[date])
	}

	ctx.JSON(http.StatusOK, response)
}

func ExportReport(ctx *gin.Context) {
	projectID, ok := requireAnalyticsAccess(ctx)

	if !ok {
		return
	}

	var req ExportRequest

	if err := ctx.ShouldBindJSON(&req); err != nil || req.Format == "" {
		req.Format = "json"
	}

	var tasks []models.Task

	if err := db.DB.Preload("Assignee").Preload("CreatedBy").
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&tasks).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export report"})
		return
	}

	switch req.Format {
	case "json":
		response := make([]TaskResponse, 0, len(tasks))

		for _, task := range tasks {
			response = append(response, buildTaskResponse(task))
		}

		ctx.JSON(http.StatusOK, gin.H{
			"exported_at": time.Now().Format(time.RFC3339),
			"project_id":  projectID,
			"tasks":       response,
		})
	case "csv":
		var buf bytes.Buffer
		writer := csv.NewWriter(&buf)

		_ = writer.Write([]string{"ID", "Title", "Status", "Priority", "Type", "Assignee", "Created By", "Created At", "Due Date"})

		for _, task := range tasks {
			assignee := "Unassigned"

			if task.Assignee != nil {
				assignee = task.Assignee.Name
			}

			dueDate := "No deadline"

			if task.DueDate != nil {
				dueDate = task.DueDate.Format(time.RFC3339)
			}

			_ = writer.Write([]string{
				strconv.FormatUint(uint64(task.ID), 10),
				task.Title,
				task.Status,
				task.Priority,
				task.TaskType,
				assignee,
				task.CreatedBy.Name,
				task.CreatedAt.Format(time.RFC3339),
				dueDate,
			})
		}

		writer.Flush()

		ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"project_%d_export.csv\"", projectID))
		ctx.Data(http.StatusOK, "text/csv", buf.Bytes())
	default:
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported format. Use json or csv"})
	}
}

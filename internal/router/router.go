package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/taskflow-dev/taskflow/internal/config"
	"github.com/taskflow-dev/taskflow/internal/handlers"
	"github.com/taskflow-dev/taskflow/internal/middleware"
)

func NewRouter() *gin.Engine {
	r := gin.Default()

	// Add CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     config.App.CORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)

		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.CreateUser)
			auth.POST("/login", handlers.LoginUser)
			auth.POST("/forgot-password", handlers.ForgotPassword)
			auth.POST("/reset-password", handlers.ResetPassword)
			auth.GET("/me", middleware.AuthMiddleware(), handlers.Me)
			auth.PATCH("/profile", middleware.AuthMiddleware(), handlers.UpdateUser)
		}

		projects := api.Group("/projects", middleware.AuthMiddleware())
		{
			projects.POST("", handlers.CreateProject)
			projects.GET("", handlers.ListProjects)
			projects.GET("/:project_id", handlers.GetProject)
			projects.PATCH("/:project_id", handlers.UpdateProject)

			// Membership endpoints
			projects.GET("/:project_id/members", handlers.ListProjectMembers)
			projects.POST("/:project_id/invite", handlers.InviteMember)
			projects.POST("/:project_id/generate-qr", handlers.GenerateQRCode)

			// Task endpoints scoped to a project
			projects.GET("/:project_id/tasks", handlers.ListProjectTasks)
			projects.GET("/:project_id/kanban", handlers.GetKanbanBoard)

			// Analytics endpoints
			projects.GET("/:project_id/dashboard", handlers.GetProjectDashboard)
			projects.GET("/:project_id/burndown", handlers.GetBurndownChart)
			projects.POST("/:project_id/export", handlers.ExportReport)
		}

		// Joining by QR token does not reference a project id directly,
		// the token locates the project.
		api.POST("/qr/join", middleware.AuthMiddleware(), handlers.JoinProjectViaQR)

		tasks := api.Group("/tasks", middleware.AuthMiddleware())
		{
			tasks.POST("", handlers.CreateTask)
			tasks.GET("", handlers.ListTasks)
			tasks.GET("/:task_id", handlers.GetTask)
			tasks.PATCH("/:task_id", handlers.UpdateTask)
			tasks.DELETE("/:task_id", handlers.DeleteTask)
			tasks.PATCH("/:task_id/status", handlers.ChangeTaskStatus)
			tasks.PATCH("/:task_id/assign", handlers.AssignTask)

			tasks.POST("/:task_id/comments", handlers.AddComment)
			tasks.GET("/:task_id/comments", handlers.GetComments)
		}

		api.GET("/my-tasks", middleware.AuthMiddleware(), handlers.ListMyTasks)

		comments := api.Group("/comments", middleware.AuthMiddleware())
		{
			comments.PATCH("/:comment_id", handlers.UpdateComment)
			comments.DELETE("/:comment_id", handlers.DeleteComment)
		}

		notifications := api.Group("/notifications", middleware.AuthMiddleware())
		{
			notifications.GET("", handlers.ListNotifications)
			notifications.POST("/mark-all-read", handlers.MarkAllNotificationsAsRead)
			notifications.PATCH("/:notification_id", handlers.MarkNotificationAsRead)
			notifications.DELETE("/:notification_id", handlers.DeleteNotification)
		}
	}

	return r
}

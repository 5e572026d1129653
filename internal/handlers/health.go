package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskflow-dev/taskflow/db"
)

func HealthCheck(c *gin.Context) {
	sqlDB, err := db.DB.DB()

	if err != nil || sqlDB.Ping() != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status": "error",
			"db":     "disconnected",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"db":        "connected",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

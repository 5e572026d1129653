package utils

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
)

func idParam(ctx *gin.Context, name string) (uint, error) {
	raw := ctx.Param(name)

	if raw == "" {
		return 0, errors.New("missing " + name)
	}

	id, err := strconv.ParseUint(raw, 10, 32)

	if err != nil {
		return 0, errors.New("invalid " + name)
	}

	return uint(id), nil
}

func GetProjectID(ctx *gin.Context) (uint, error) {
	return idParam(ctx, "project_id")
}

func GetTaskID(ctx *gin.Context) (uint, error) {
	return idParam(ctx, "task_id")
}

func GetCommentID(ctx *gin.Context) (uint, error) {
	return idParam(ctx, "comment_id")
}

func GetNotificationID(ctx *gin.Context) (uint, error) {
	return idParam(ctx, "notification_id")
}

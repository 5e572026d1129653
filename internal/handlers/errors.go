package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskflow-dev/taskflow/internal/authz"
)

// respondAuthzError translates the engine's typed failures into HTTP
// responses. Anything unrecognized is a server error.
func respondAuthzError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, authz.ErrNotAMember):
		ctx.JSON(http.StatusForbidden, gin.H{"error": "You are not a member of this project"})
	case errors.Is(err, authz.ErrForbidden):
		ctx.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to perform this action"})
	case errors.Is(err, authz.ErrNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, authz.ErrConflict):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "User is already invited or a member"})
	case errors.Is(err, authz.ErrInvalidAssignee):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Assignee is not a member of this project"})
	case errors.Is(err, authz.ErrInvalidToken):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Invalid or expired QR code"})
	default:
		log.Printf("Unexpected authorization error: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

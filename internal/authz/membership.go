package authz

import (
	"errors"
	"strings"

	"github.com/lib/pq"
	"github.com/taskflow-dev/taskflow/internal/models"
	"gorm.io/gorm"
)

// FindMembership returns the membership row for (project, user). The
// composite unique index guarantees at most one row per pair.
func FindMembership(db *gorm.DB, projectID, userID uint) (models.ProjectMembership, error) {
	var membership models.ProjectMembership

	err := db.Where("project_id = ? AND user_id = ?", projectID, userID).First(&membership).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ProjectMembership{}, ErrNotFound
		}
		return models.ProjectMembership{}, err
	}

	return membership, nil
}

// CreateMembership inserts a membership row. Concurrent writers racing on
// the same (project, user) pair, such as a simultaneous invite and QR join,
// are settled by the unique index: exactly one insert wins and the other
// observes ErrConflict.
func CreateMembership(db *gorm.DB, membership *models.ProjectMembership) error {
	if err := db.Create(membership).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}

	return nil
}

// ListAcceptedMembers returns the accepted memberships of a project with
// their users preloaded, ordered by join time ascending.
func ListAcceptedMembers(db *gorm.DB, projectID uint) ([]models.ProjectMembership, error) {
	var members []models.ProjectMembership

	err := db.Preload("User").
		Where("project_id = ? AND status = ?", projectID, StatusAccepted).
		Order("joined_at ASC").
		Find(&members).Error

	return members, err
}

// CountAcceptedMembers returns the number of accepted memberships.
func CountAcceptedMembers(db *gorm.DB, projectID uint) (int64, error) {
	var count int64

	err := db.Model(&models.ProjectMembership{}).
		Where("project_id = ? AND status = ?", projectID, StatusAccepted).
		Count(&count).Error

	return count, err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}

	// sqlite surfaces constraint violations by message only
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

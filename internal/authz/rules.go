package authz

import (
	"errors"

	"github.com/taskflow-dev/taskflow/internal/models"
	"gorm.io/gorm"
)

// Entity-level rules layered on top of a Gate decision. Handlers apply the
// Gate first (cheapest check, closes most unauthorized requests), then the
// predicate for the entity at hand. All predicates are deterministic over
// the already-loaded rows.

// IsProjectOwner compares the literal owner_id. Project mutation requires
// this on top of the owner role: the role says what a member may do, the
// owner_id says whose project it is.
func IsProjectOwner(project models.Project, userID uint) bool {
	return project.OwnerID == userID
}

func IsTaskCreator(task models.Task, userID uint) bool {
	return task.CreatedByID == userID
}

func IsTaskAssignee(task models.Task, userID uint) bool {
	return task.AssigneeID != nil && *task.AssigneeID == userID
}

func IsCommentAuthor(comment models.Comment, userID uint) bool {
	return comment.UserID == userID
}

// CanModifyTask covers task update and delete: the creator keeps control
// of their own tasks, managers and owners of any task.
func CanModifyTask(d Decision, task models.Task, callerID uint) bool {
	return IsTaskCreator(task, callerID) || IsManagerOrOwner(Role(d.Membership.Role))
}

// CanChangeTaskStatus additionally admits the assignee.
func CanChangeTaskStatus(d Decision, task models.Task, callerID uint) bool {
	return IsTaskAssignee(task, callerID) || CanModifyTask(d, task, callerID)
}

// CanAssignTask: choosing who works on a task is a manager decision.
func CanAssignTask(d Decision) bool {
	return IsManagerOrOwner(Role(d.Membership.Role))
}

// CanEditComment is strict: only the author, with no manager override.
func CanEditComment(comment models.Comment, callerID uint) bool {
	return IsCommentAuthor(comment, callerID)
}

func CanDeleteComment(d Decision, comment models.Comment, callerID uint) bool {
	return IsCommentAuthor(comment, callerID) || IsManagerOrOwner(Role(d.Membership.Role))
}

// CanViewAnalytics gates the dashboard, burndown and export endpoints.
// Participants are denied even read access to aggregates.
func CanViewAnalytics(d Decision) bool {
	return IsManagerOrOwner(Role(d.Membership.Role))
}

// ValidateAssignee confirms the chosen assignee holds an accepted
// membership in the project. A nil assignee (unassigning) is valid.
func ValidateAssignee(db *gorm.DB, projectID uint, assigneeID *uint) error {
	if assigneeID == nil {
		return nil
	}

	membership, err := FindMembership(db, projectID, *assigneeID)

	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidAssignee
		}
		return err
	}

	if Status(membership.Status) != StatusAccepted {
		return ErrInvalidAssignee
	}

	return nil
}

package authz

import (
	"errors"

	"github.com/taskflow-dev/taskflow/internal/models"
	"gorm.io/gorm"
)

// Decision is the outcome of an authorization check. It carries the
// caller's resolved membership so entity-level rules (creator, assignee,
// author checks) can be applied without a second store round-trip.
type Decision struct {
	Membership models.ProjectMembership
	Allowed    bool
}

// Authorize resolves the caller's membership for a project and applies the
// role policy to the requested operation. It must run before any mutating
// statement executes and a failure must short-circuit the handler with no
// partial writes. Read-only; every call re-reads the current membership
// row, there is no in-process caching of role or status.
func Authorize(db *gorm.DB, callerID, projectID uint, op Operation) (Decision, error) {
	membership, err := FindMembership(db, projectID, callerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Decision{}, ErrNotAMember
		}
		return Decision{}, err
	}

	if Status(membership.Status) != StatusAccepted {
		return Decision{}, ErrNotAMember
	}

	if !RoleAllows(Role(membership.Role), op) {
		return Decision{Membership: membership}, ErrForbidden
	}

	return Decision{Membership: membership, Allowed: true}, nil
}

// RequireMember checks only that the caller holds an accepted membership,
// the default gate for untagged operations like reading tasks or adding
// comments.
func RequireMember(db *gorm.DB, callerID, projectID uint) (Decision, error) {
	return Authorize(db, callerID, projectID, OpMemberAccess)
}

package authz

import "errors"

// Typed failures for handlers to translate into HTTP responses. All of
// them are locally recoverable; none is fatal to the process. Checks fail
// closed: a missing or ambiguous membership row is a denial, never access.
var (
	ErrNotAMember      = errors.New("no accepted membership for this project")
	ErrForbidden       = errors.New("role does not permit this operation")
	ErrNotFound        = errors.New("record not found")
	ErrConflict        = errors.New("membership already exists")
	ErrInvalidAssignee = errors.New("assignee is not an accepted project member")
	ErrInvalidToken    = errors.New("token does not match an active project")
)

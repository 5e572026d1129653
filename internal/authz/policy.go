package authz

// Role controls privileged operations within a project.
type Role string

const (
	RoleOwner       Role = "owner"
	RoleManager     Role = "manager"
	RoleParticipant Role = "participant"
)

// Status controls whether a role is currently operative. An invited
// membership exists but grants nothing until accepted.
type Status string

const (
	StatusInvited  Status = "invited"
	StatusAccepted Status = "accepted"
)

// Operation tags the privileged operations the role policy knows about.
type Operation string

const (
	OpManageProject    Operation = "manage_project"
	OpInviteMember     Operation = "invite_member"
	OpViewDashboard    Operation = "view_dashboard"
	OpAssignTask       Operation = "assign_task"
	OpDeleteAnyTask    Operation = "delete_any_task"
	OpDeleteAnyComment Operation = "delete_any_comment"

	// OpMemberAccess is the untagged default: reading tasks, adding
	// comments and anything else open to every accepted member.
	OpMemberAccess Operation = ""
)

// IsManagerOrOwner reports whether the role carries manager-level rights.
func IsManagerOrOwner(role Role) bool {
	return role == RoleOwner || role == RoleManager
}

// RoleAllows evaluates the role policy for an operation tag. The policy is
// permissive by default: operations it does not recognize are open to any
// accepted member, and only the tagged privileged operations require
// manager-level rights. Project mutation additionally requires the literal
// owner_id match, checked separately by IsProjectOwner.
func RoleAllows(role Role, op Operation) bool {
	switch op {
	case OpManageProject, OpInviteMember, OpViewDashboard, OpAssignTask,
		OpDeleteAnyTask, OpDeleteAnyComment:
		return IsManagerOrOwner(role)
	default:
		return true
	}
}

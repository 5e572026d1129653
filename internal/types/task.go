package types

// Workflow statuses, ordered but with no enforced transition graph: any
// member with rights may set any status.
var TaskStatuses = []string{"new", "in_progress", "review", "done"}

var TaskPriorities = []string{"low", "medium", "high", "critical"}

const (
	TaskStatusNew        = "new"
	TaskStatusInProgress = "in_progress"
	TaskStatusReview     = "review"
	TaskStatusDone       = "done"

	DefaultTaskType = "task"
)

func IsValidTaskStatus(status string) bool {
	for _, s := range TaskStatuses {
		if s == status {
			return true
		}
	}
	return false
}

func IsValidTaskPriority(priority string) bool {
	for _, p := range TaskPriorities {
		if p == priority {
			return true
		}
	}
	return false
}

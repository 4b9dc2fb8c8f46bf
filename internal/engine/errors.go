package engine

import (
	"fmt"

	"taskdesk/internal/domain"
)

// InvalidStateError means the requested action is not legal from the task's
// current status.
type InvalidStateError struct {
	Action string
	Status domain.TaskStatus
}

func (e InvalidStateError) Error() string {
	return fmt.Sprintf("invalid action: cannot %s a task in %s state", e.Action, e.Status)
}

// ValidationError covers malformed or missing input, including duplicate
// unique fields on create and a missing proof on submit.
type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string {
	return e.Reason
}

// ConflictError reports an operation blocked by another record's state, such
// as deleting an acting department head.
type ConflictError struct {
	Reason string
}

func (e ConflictError) Error() string {
	return e.Reason
}

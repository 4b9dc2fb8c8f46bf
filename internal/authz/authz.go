// Package authz decides whether an actor may perform an action on a task or
// another user. Every function is a pure check over already-loaded records;
// nothing here touches the store.
package authz

import (
	"fmt"
	"time"

	"taskdesk/internal/domain"
)

// EditWindowMinutes is how long after creation the creator may edit or delete
// a task. The boundary is inclusive: a whole-minute difference of exactly
// EditWindowMinutes still passes.
const EditWindowMinutes = 5

// ForbiddenError is an authorization denial. The reason is user-visible.
type ForbiddenError struct {
	Reason string
}

func (e ForbiddenError) Error() string {
	return "access denied: " + e.Reason
}

// WindowExpiredError is returned when the edit/delete window has closed.
type WindowExpiredError struct {
	Minutes int
}

func (e WindowExpiredError) Error() string {
	return fmt.Sprintf("the %d-minute edit window for this task has expired", e.Minutes)
}

// Scope describes which tasks an actor may list. Empty fields mean
// unrestricted on that side; All short-circuits both.
type Scope struct {
	All        bool
	CreatorID  string
	AssigneeID string
}

// VisibleScope returns the task-list visibility for an actor. A department
// head sees tasks they created or are assigned to; tasks an admin assigned to
// the head's subordinates stay out of the head's view on purpose.
func VisibleScope(actor domain.User) Scope {
	switch actor.Role {
	case domain.RoleSuperAdmin:
		return Scope{All: true}
	case domain.RoleDeptHead:
		return Scope{CreatorID: actor.ID, AssigneeID: actor.ID}
	default:
		return Scope{AssigneeID: actor.ID}
	}
}

// CanView reports whether the actor may read a single task and its history.
// Mirrors VisibleScope.
func CanView(actor domain.User, task domain.Task) error {
	switch actor.Role {
	case domain.RoleSuperAdmin:
		return nil
	case domain.RoleDeptHead:
		if task.CreatorID == actor.ID || task.AssigneeID == actor.ID {
			return nil
		}
	default:
		if task.AssigneeID == actor.ID {
			return nil
		}
	}
	return ForbiddenError{Reason: "you do not have access to this task"}
}

// CanCreate checks the creation rules: only admins and department heads may
// create, and a head may only assign within their own department. Department
// equality is strict; a creator or assignee without a department never
// matches.
func CanCreate(creator, assignee domain.User) error {
	switch creator.Role {
	case domain.RoleSuperAdmin:
		return nil
	case domain.RoleDeptHead:
		if creator.DepartmentID == nil {
			return ForbiddenError{Reason: "you are not assigned to any department"}
		}
		if !SameDepartment(creator, assignee) {
			return ForbiddenError{Reason: "you can only assign tasks to employees within your own department"}
		}
		return nil
	default:
		return ForbiddenError{Reason: "employees cannot create tasks"}
	}
}

// SameDepartment reports whether both users carry the same non-empty
// department reference. Two missing departments are not equal.
func SameDepartment(a, b domain.User) bool {
	if a.DepartmentID == nil || b.DepartmentID == nil {
		return false
	}
	return *a.DepartmentID == *b.DepartmentID
}

// CanStart allows only the task's current assignee.
func CanStart(actor domain.User, task domain.Task) error {
	if task.AssigneeID != actor.ID {
		return ForbiddenError{Reason: "you are not the assignee of this task"}
	}
	return nil
}

// CanSubmit allows only the task's current assignee.
func CanSubmit(actor domain.User, task domain.Task) error {
	if task.AssigneeID != actor.ID {
		return ForbiddenError{Reason: "you are not the assignee of this task"}
	}
	return nil
}

// CanReview allows only the task's creator.
func CanReview(actor domain.User, task domain.Task) error {
	if task.CreatorID != actor.ID {
		return ForbiddenError{Reason: "only the task creator can review this task"}
	}
	return nil
}

// CanModify allows only the task's creator; edit and delete share it.
func CanModify(actor domain.User, task domain.Task) error {
	if task.CreatorID != actor.ID {
		return ForbiddenError{Reason: "only the task creator can modify this task"}
	}
	return nil
}

// CheckEditWindow enforces the edit/delete window against the task creation
// timestamp. The difference is taken in whole minutes; more than
// EditWindowMinutes fails.
func CheckEditWindow(now time.Time, createdAt string) error {
	created, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return fmt.Errorf("parse created_at: %w", err)
	}
	if now.Sub(created)/time.Minute > EditWindowMinutes {
		return WindowExpiredError{Minutes: EditWindowMinutes}
	}
	return nil
}

// CanViewStats governs cross-user statistics access: self always, admins
// always, department heads only for users in their own department.
func CanViewStats(actor, target domain.User) error {
	if actor.ID == target.ID {
		return nil
	}
	switch actor.Role {
	case domain.RoleSuperAdmin:
		return nil
	case domain.RoleDeptHead:
		if SameDepartment(actor, target) {
			return nil
		}
		return ForbiddenError{Reason: "you can only view statistics for users in your own department"}
	default:
		return ForbiddenError{Reason: "you cannot view statistics for other users"}
	}
}

// CanCreateUser checks the directory hierarchy rules for creating a user on
// behalf of the requester. Heads are restricted to employees in their own
// department; the caller supplies the requested role.
func CanCreateUser(requester domain.User, requestedRole domain.Role) error {
	switch requester.Role {
	case domain.RoleSuperAdmin:
		return nil
	case domain.RoleDeptHead:
		if requestedRole != "" && requestedRole != domain.RoleEmployee {
			return ForbiddenError{Reason: "department heads can only create employees"}
		}
		if requester.DepartmentID == nil {
			return ForbiddenError{Reason: "you are not assigned to any department"}
		}
		return nil
	default:
		return ForbiddenError{Reason: "employees cannot create users"}
	}
}

// RequireAdmin gates admin-only directory operations.
func RequireAdmin(actor domain.User) error {
	if actor.Role != domain.RoleSuperAdmin {
		return ForbiddenError{Reason: "administrator access required"}
	}
	return nil
}

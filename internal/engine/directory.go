package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"taskdesk/internal/authz"
	"taskdesk/internal/domain"
	"taskdesk/internal/repo"
)

// UserCreateOptions are parameters for adding a user to the directory.
type UserCreateOptions struct {
	ActorID      string
	Username     string
	Email        string
	Role         domain.Role
	DepartmentID string
}

// CreateUser adds a directory entry, enforcing the creation hierarchy: admins
// create anyone, department heads create employees in their own department,
// employees create nobody. Creating a DEPT_HEAD with a department atomically
// links the department's head pointer and demotes any previous head.
func (e Engine) CreateUser(ctx context.Context, opts UserCreateOptions) (domain.User, error) {
	if opts.Username == "" {
		return domain.User{}, ValidationError{Reason: "username is required"}
	}
	if opts.Email == "" {
		return domain.User{}, ValidationError{Reason: "email is required"}
	}
	if !domain.ValidRole(opts.Role) {
		return domain.User{}, ValidationError{Reason: fmt.Sprintf("unknown role %q", opts.Role)}
	}
	actor, err := e.actor(ctx, opts.ActorID)
	if err != nil {
		return domain.User{}, err
	}
	if err := authz.CanCreateUser(actor, opts.Role); err != nil {
		return domain.User{}, err
	}

	deptID := opts.DepartmentID
	if actor.Role == domain.RoleDeptHead {
		// Heads can only hire into their own department.
		if actor.DepartmentID == nil {
			return domain.User{}, authz.ForbiddenError{Reason: "department head has no department"}
		}
		if deptID != "" && deptID != *actor.DepartmentID {
			return domain.User{}, authz.ForbiddenError{Reason: "department heads can only add employees to their own department"}
		}
		deptID = *actor.DepartmentID
	}
	var dept domain.Department
	if deptID != "" {
		dept, err = e.Repo.GetDepartment(ctx, deptID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return domain.User{}, fmt.Errorf("department %s: %w", deptID, err)
			}
			return domain.User{}, err
		}
	} else if opts.Role == domain.RoleEmployee {
		return domain.User{}, ValidationError{Reason: "employees must belong to a department"}
	}

	u := domain.User{
		ID:                 uuid.New().String(),
		Username:           opts.Username,
		Email:              opts.Email,
		Role:               opts.Role,
		Active:             true,
		EmailNotifications: true,
		CreatedAt:          e.now().UTC().Format(time.RFC3339),
	}
	if deptID != "" {
		u.DepartmentID = &deptID
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.User{}, err
	}
	defer tx.Rollback()
	// Uniqueness is checked under the insert's own write transaction; a
	// concurrent duplicate fails validation instead of tripping the
	// constraint.
	if taken, err := e.Repo.UserExistsByEmail(ctx, tx, opts.Email); err != nil {
		return domain.User{}, err
	} else if taken {
		return domain.User{}, ValidationError{Reason: "email already in use"}
	}
	if taken, err := e.Repo.UserExistsByUsername(ctx, tx, opts.Username); err != nil {
		return domain.User{}, err
	} else if taken {
		return domain.User{}, ValidationError{Reason: "username already in use"}
	}
	if err := e.Repo.InsertUser(ctx, tx, u); err != nil {
		return domain.User{}, err
	}
	if opts.Role == domain.RoleDeptHead && deptID != "" {
		if dept.HeadUserID != nil {
			old, err := e.Repo.GetUserTx(ctx, tx, *dept.HeadUserID)
			if err != nil {
				return domain.User{}, err
			}
			if err := e.Repo.SetUserRoleDept(ctx, tx, old.ID, domain.RoleEmployee, old.DepartmentID); err != nil {
				return domain.User{}, err
			}
		}
		dept.HeadUserID = &u.ID
		if err := e.Repo.UpdateDepartment(ctx, tx, dept); err != nil {
			return domain.User{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

// DeleteUser removes a directory entry. Only admins may delete users, and a
// user who currently heads a department must be replaced first.
func (e Engine) DeleteUser(ctx context.Context, actorID, userID string) error {
	actor, err := e.actor(ctx, actorID)
	if err != nil {
		return err
	}
	if err := authz.RequireAdmin(actor); err != nil {
		return err
	}
	u, err := e.Repo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("user %s: %w", userID, err)
		}
		return err
	}
	if dept, err := e.Repo.GetDepartmentByHead(ctx, u.ID); err == nil {
		return ConflictError{Reason: fmt.Sprintf("user %s is head of department %s; assign a new head first", u.Username, dept.Name)}
	} else if !errors.Is(err, repo.ErrNotFound) {
		return err
	}
	// Tasks keep referencing their creator and assignee; a user with any is
	// not deletable.
	tasks, err := e.Repo.ListTasks(ctx, repo.TaskFilters{VisibleToCreator: u.ID, VisibleToAssignee: u.ID, Limit: 1})
	if err != nil {
		return err
	}
	if len(tasks) > 0 {
		return ConflictError{Reason: fmt.Sprintf("user %s still has tasks", u.Username)}
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Repo.DeleteAPIKeysForUser(ctx, tx, u.ID); err != nil {
		return err
	}
	if err := e.Repo.DeleteUser(ctx, tx, u.ID); err != nil {
		return err
	}
	return tx.Commit()
}

// GetUser returns one directory entry.
func (e Engine) GetUser(ctx context.Context, userID string) (domain.User, error) {
	u, err := e.Repo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return u, fmt.Errorf("user %s: %w", userID, err)
		}
		return u, err
	}
	return u, nil
}

// ListUsers returns directory entries, optionally filtered by role or
// department. Heads are restricted to their own department.
func (e Engine) ListUsers(ctx context.Context, actorID string, role domain.Role, departmentID string) ([]domain.User, error) {
	actor, err := e.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role == domain.RoleDeptHead {
		if actor.DepartmentID == nil {
			return nil, authz.ForbiddenError{Reason: "department head has no department"}
		}
		departmentID = *actor.DepartmentID
	} else if actor.Role == domain.RoleEmployee {
		return nil, authz.ForbiddenError{Reason: "employees cannot list users"}
	}
	return e.Repo.ListUsers(ctx, repo.UserFilters{Role: role, DepartmentID: departmentID})
}

// SetNotificationPreference toggles email notifications. Users change their
// own preference; admins may change anyone's.
func (e Engine) SetNotificationPreference(ctx context.Context, actorID, userID string, enabled bool) error {
	actor, err := e.actor(ctx, actorID)
	if err != nil {
		return err
	}
	if actor.ID != userID && actor.Role != domain.RoleSuperAdmin {
		return authz.ForbiddenError{Reason: "cannot change another user's notification preference"}
	}
	if _, err := e.GetUser(ctx, userID); err != nil {
		return err
	}
	return e.Repo.SetUserNotifications(ctx, userID, enabled)
}

// SetUserActive activates or deactivates an account. Admin only; a
// deactivated user stays in the directory and keeps their task references but
// can no longer act. Admins cannot deactivate themselves.
func (e Engine) SetUserActive(ctx context.Context, actorID, userID string, active bool) error {
	actor, err := e.actor(ctx, actorID)
	if err != nil {
		return err
	}
	if err := authz.RequireAdmin(actor); err != nil {
		return err
	}
	if !active && actor.ID == userID {
		return ValidationError{Reason: "cannot deactivate your own account"}
	}
	if _, err := e.GetUser(ctx, userID); err != nil {
		return err
	}
	return e.Repo.SetUserActive(ctx, userID, active)
}

// DepartmentCreateOptions are parameters for creating a department.
type DepartmentCreateOptions struct {
	ActorID     string
	Name        string
	Description string
	HeadUserID  string
}

// CreateDepartment adds a department. Admin only. An optional head is linked
// and promoted in the same transaction.
func (e Engine) CreateDepartment(ctx context.Context, opts DepartmentCreateOptions) (domain.Department, error) {
	if opts.Name == "" {
		return domain.Department{}, ValidationError{Reason: "name is required"}
	}
	actor, err := e.actor(ctx, opts.ActorID)
	if err != nil {
		return domain.Department{}, err
	}
	if err := authz.RequireAdmin(actor); err != nil {
		return domain.Department{}, err
	}
	d := domain.Department{
		ID:          uuid.New().String(),
		Name:        opts.Name,
		Description: opts.Description,
		CreatedAt:   e.now().UTC().Format(time.RFC3339),
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Department{}, err
	}
	defer tx.Rollback()
	if taken, err := e.Repo.DepartmentExistsByName(ctx, tx, opts.Name); err != nil {
		return domain.Department{}, err
	} else if taken {
		return domain.Department{}, ValidationError{Reason: "department name already in use"}
	}
	if opts.HeadUserID != "" {
		head, err := e.Repo.GetUserTx(ctx, tx, opts.HeadUserID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return domain.Department{}, fmt.Errorf("user %s: %w", opts.HeadUserID, err)
			}
			return domain.Department{}, err
		}
		if other, err := e.Repo.GetDepartmentByHeadTx(ctx, tx, head.ID); err == nil {
			return domain.Department{}, ConflictError{Reason: fmt.Sprintf("user %s already heads department %s", head.Username, other.Name)}
		} else if !errors.Is(err, repo.ErrNotFound) {
			return domain.Department{}, err
		}
		d.HeadUserID = &head.ID
	}
	if err := e.Repo.InsertDepartment(ctx, tx, d); err != nil {
		return domain.Department{}, err
	}
	if d.HeadUserID != nil {
		if err := e.Repo.SetUserRoleDept(ctx, tx, *d.HeadUserID, domain.RoleDeptHead, &d.ID); err != nil {
			return domain.Department{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return domain.Department{}, err
	}
	return d, nil
}

// GetDepartment returns one department.
func (e Engine) GetDepartment(ctx context.Context, departmentID string) (domain.Department, error) {
	d, err := e.Repo.GetDepartment(ctx, departmentID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return d, fmt.Errorf("department %s: %w", departmentID, err)
		}
		return d, err
	}
	return d, nil
}

// ListDepartments returns all departments.
func (e Engine) ListDepartments(ctx context.Context) ([]domain.Department, error) {
	return e.Repo.ListDepartments(ctx)
}

// DepartmentUpdateOptions carries changes to a department. Nil pointers
// leave the field untouched; HeadUserID set to a new user performs a head
// swap.
type DepartmentUpdateOptions struct {
	ActorID     string
	ID          string
	Name        *string
	Description *string
	HeadUserID  *string
}

// UpdateDepartment renames a department and, when HeadUserID is given,
// performs an atomic head swap: the old head is demoted to EMPLOYEE (keeping
// its department link), the new head is promoted to DEPT_HEAD and moved into
// the department, and the department's pointer is repointed, all in one
// transaction. A candidate who already heads another department is a
// conflict, and so is a swap that loses the race to a concurrent swap on the
// same department.
func (e Engine) UpdateDepartment(ctx context.Context, opts DepartmentUpdateOptions) (domain.Department, error) {
	actor, err := e.actor(ctx, opts.ActorID)
	if err != nil {
		return domain.Department{}, err
	}
	if err := authz.RequireAdmin(actor); err != nil {
		return domain.Department{}, err
	}
	// A head swap is a compare-and-swap on the head pointer: record the head
	// observed before the write transaction, and fail the swap if another
	// writer moved the pointer in between.
	var observedHead *string
	if opts.HeadUserID != nil {
		before, err := e.Repo.GetDepartment(ctx, opts.ID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return domain.Department{}, fmt.Errorf("department %s: %w", opts.ID, err)
			}
			return domain.Department{}, err
		}
		observedHead = before.HeadUserID
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Department{}, err
	}
	defer tx.Rollback()
	d, err := e.Repo.GetDepartmentTx(ctx, tx, opts.ID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return d, fmt.Errorf("department %s: %w", opts.ID, err)
		}
		return d, err
	}
	if opts.Name != nil && *opts.Name != d.Name {
		if *opts.Name == "" {
			return d, ValidationError{Reason: "name is required"}
		}
		if taken, err := e.Repo.DepartmentExistsByName(ctx, tx, *opts.Name); err != nil {
			return d, err
		} else if taken {
			return d, ValidationError{Reason: "department name already in use"}
		}
		d.Name = *opts.Name
	}
	if opts.Description != nil {
		d.Description = *opts.Description
	}
	if opts.HeadUserID != nil {
		if !sameHead(observedHead, d.HeadUserID) {
			return d, ConflictError{Reason: "department head changed concurrently"}
		}
		if d.HeadUserID != nil && *d.HeadUserID == *opts.HeadUserID {
			return d, ConflictError{Reason: "user already heads this department"}
		}
		candidate, err := e.Repo.GetUserTx(ctx, tx, *opts.HeadUserID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return d, fmt.Errorf("user %s: %w", *opts.HeadUserID, err)
			}
			return d, err
		}
		if other, err := e.Repo.GetDepartmentByHeadTx(ctx, tx, candidate.ID); err == nil {
			return d, ConflictError{Reason: fmt.Sprintf("user %s already heads department %s", candidate.Username, other.Name)}
		} else if !errors.Is(err, repo.ErrNotFound) {
			return d, err
		}
		if d.HeadUserID != nil {
			old, err := e.Repo.GetUserTx(ctx, tx, *d.HeadUserID)
			if err != nil {
				return d, err
			}
			if err := e.Repo.SetUserRoleDept(ctx, tx, old.ID, domain.RoleEmployee, old.DepartmentID); err != nil {
				return d, err
			}
		}
		if err := e.Repo.SetUserRoleDept(ctx, tx, candidate.ID, domain.RoleDeptHead, &d.ID); err != nil {
			return d, err
		}
		d.HeadUserID = &candidate.ID
	}
	if err := e.Repo.UpdateDepartment(ctx, tx, d); err != nil {
		return d, err
	}
	if err := tx.Commit(); err != nil {
		return d, err
	}
	return d, nil
}

func sameHead(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// DeleteDepartment removes an empty department. Admin only; a department
// with members is a conflict.
func (e Engine) DeleteDepartment(ctx context.Context, actorID, departmentID string) error {
	actor, err := e.actor(ctx, actorID)
	if err != nil {
		return err
	}
	if err := authz.RequireAdmin(actor); err != nil {
		return err
	}
	d, err := e.Repo.GetDepartment(ctx, departmentID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("department %s: %w", departmentID, err)
		}
		return err
	}
	members, err := e.Repo.ListUsers(ctx, repo.UserFilters{DepartmentID: d.ID})
	if err != nil {
		return err
	}
	if len(members) > 0 {
		return ConflictError{Reason: fmt.Sprintf("department %s still has %d members", d.Name, len(members))}
	}
	return e.Repo.DeleteDepartment(ctx, d.ID)
}

package engine_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"taskdesk/internal/domain"
	"taskdesk/internal/engine"
	"taskdesk/internal/repo"
)

func TestCreateUserHierarchy(t *testing.T) {
	env := newTestEnv(t)

	// a head hires employees into their own department without naming it
	u, err := env.Engine.CreateUser(env.Ctx, engine.UserCreateOptions{
		ActorID:  env.HeadA.ID,
		Username: "new-hire",
		Email:    "new-hire@example.com",
		Role:     domain.RoleEmployee,
	})
	if err != nil {
		t.Fatalf("head hires employee: %v", err)
	}
	if u.DepartmentID == nil || *u.DepartmentID != env.DeptA.ID {
		t.Fatalf("hire department = %v, want %s", u.DepartmentID, env.DeptA.ID)
	}

	// heads cannot hire into another department
	_, err = env.Engine.CreateUser(env.Ctx, engine.UserCreateOptions{
		ActorID:      env.HeadA.ID,
		Username:     "stray",
		Email:        "stray@example.com",
		Role:         domain.RoleEmployee,
		DepartmentID: env.DeptB.ID,
	})
	if !isForbidden(err) {
		t.Fatalf("head hires cross-department: %v, want forbidden", err)
	}

	// heads cannot mint heads or admins
	_, err = env.Engine.CreateUser(env.Ctx, engine.UserCreateOptions{
		ActorID:  env.HeadA.ID,
		Username: "usurper",
		Email:    "usurper@example.com",
		Role:     domain.RoleDeptHead,
	})
	if !isForbidden(err) {
		t.Fatalf("head creates head: %v, want forbidden", err)
	}

	// employees create nobody
	_, err = env.Engine.CreateUser(env.Ctx, engine.UserCreateOptions{
		ActorID:  env.EmpA1.ID,
		Username: "minion",
		Email:    "minion@example.com",
		Role:     domain.RoleEmployee,
	})
	if !isForbidden(err) {
		t.Fatalf("employee creates user: %v, want forbidden", err)
	}

	// duplicate email and username are validation failures
	var ve engine.ValidationError
	_, err = env.Engine.CreateUser(env.Ctx, engine.UserCreateOptions{
		ActorID:      env.Admin.ID,
		Username:     "someone-else",
		Email:        env.EmpA1.Email,
		Role:         domain.RoleEmployee,
		DepartmentID: env.DeptA.ID,
	})
	if !errors.As(err, &ve) {
		t.Fatalf("duplicate email: %v, want ValidationError", err)
	}
	_, err = env.Engine.CreateUser(env.Ctx, engine.UserCreateOptions{
		ActorID:      env.Admin.ID,
		Username:     env.EmpA1.Username,
		Email:        "fresh@example.com",
		Role:         domain.RoleEmployee,
		DepartmentID: env.DeptA.ID,
	})
	if !errors.As(err, &ve) {
		t.Fatalf("duplicate username: %v, want ValidationError", err)
	}
}

func TestCreateHeadLinksDepartment(t *testing.T) {
	env := newTestEnv(t)

	// creating a DEPT_HEAD for a headed department demotes the old head in
	// the same transaction
	u, err := env.Engine.CreateUser(env.Ctx, engine.UserCreateOptions{
		ActorID:      env.Admin.ID,
		Username:     "head-a2",
		Email:        "head-a2@example.com",
		Role:         domain.RoleDeptHead,
		DepartmentID: env.DeptA.ID,
	})
	if err != nil {
		t.Fatalf("create replacement head: %v", err)
	}
	dept, err := env.Engine.GetDepartment(env.Ctx, env.DeptA.ID)
	if err != nil {
		t.Fatal(err)
	}
	if dept.HeadUserID == nil || *dept.HeadUserID != u.ID {
		t.Fatalf("department head = %v, want %s", dept.HeadUserID, u.ID)
	}
	old, err := env.Engine.GetUser(env.Ctx, env.HeadA.ID)
	if err != nil {
		t.Fatal(err)
	}
	if old.Role != domain.RoleEmployee {
		t.Fatalf("old head role = %s, want EMPLOYEE", old.Role)
	}
	if old.DepartmentID == nil || *old.DepartmentID != env.DeptA.ID {
		t.Fatalf("old head lost department: %v", old.DepartmentID)
	}
}

func TestHeadSwap(t *testing.T) {
	env := newTestEnv(t)

	d, err := env.Engine.UpdateDepartment(env.Ctx, engine.DepartmentUpdateOptions{
		ActorID:    env.Admin.ID,
		ID:         env.DeptA.ID,
		HeadUserID: &env.EmpA1.ID,
	})
	if err != nil {
		t.Fatalf("swap head: %v", err)
	}
	if d.HeadUserID == nil || *d.HeadUserID != env.EmpA1.ID {
		t.Fatalf("department head = %v", d.HeadUserID)
	}
	promoted, err := env.Engine.GetUser(env.Ctx, env.EmpA1.ID)
	if err != nil {
		t.Fatal(err)
	}
	if promoted.Role != domain.RoleDeptHead {
		t.Fatalf("promoted role = %s", promoted.Role)
	}
	demoted, err := env.Engine.GetUser(env.Ctx, env.HeadA.ID)
	if err != nil {
		t.Fatal(err)
	}
	if demoted.Role != domain.RoleEmployee {
		t.Fatalf("demoted role = %s", demoted.Role)
	}

	// the acting head of another department cannot be pulled over
	var ce engine.ConflictError
	_, err = env.Engine.UpdateDepartment(env.Ctx, engine.DepartmentUpdateOptions{
		ActorID:    env.Admin.ID,
		ID:         env.DeptA.ID,
		HeadUserID: &env.HeadB.ID,
	})
	if !errors.As(err, &ce) {
		t.Fatalf("steal head: %v, want ConflictError", err)
	}

	// re-appointing the current head is a conflict, not a no-op
	_, err = env.Engine.UpdateDepartment(env.Ctx, engine.DepartmentUpdateOptions{
		ActorID:    env.Admin.ID,
		ID:         env.DeptA.ID,
		HeadUserID: &env.EmpA1.ID,
	})
	if !errors.As(err, &ce) {
		t.Fatalf("re-appoint head: %v, want ConflictError", err)
	}

	// only admins swap heads
	_, err = env.Engine.UpdateDepartment(env.Ctx, engine.DepartmentUpdateOptions{
		ActorID:    env.HeadB.ID,
		ID:         env.DeptB.ID,
		HeadUserID: &env.EmpB1.ID,
	})
	if !isForbidden(err) {
		t.Fatalf("head swaps own department: %v, want forbidden", err)
	}
}

func TestConcurrentHeadSwap(t *testing.T) {
	env := newTestEnv(t)

	// two simultaneous swaps on the same department: whichever commits
	// second finds the head pointer moved and must conflict, not overwrite
	candidates := []string{env.EmpA1.ID, env.EmpA2.ID}
	errs := make([]error, len(candidates))
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i, candidate := range candidates {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, errs[i] = env.Engine.UpdateDepartment(env.Ctx, engine.DepartmentUpdateOptions{
				ActorID:    env.Admin.ID,
				ID:         env.DeptA.ID,
				HeadUserID: &candidate,
			})
		}()
	}
	close(start)
	wg.Wait()

	var wins, conflicts int
	for _, err := range errs {
		var ce engine.ConflictError
		switch {
		case err == nil:
			wins++
		case errors.As(err, &ce):
			conflicts++
		default:
			t.Fatalf("losing swap: %v, want ConflictError", err)
		}
	}
	if wins != 1 || conflicts != 1 {
		t.Fatalf("wins = %d, conflicts = %d, want exactly one of each", wins, conflicts)
	}

	// the winner's candidate holds the role and the loser's is untouched
	d, err := env.Engine.GetDepartment(env.Ctx, env.DeptA.ID)
	if err != nil {
		t.Fatal(err)
	}
	if d.HeadUserID == nil {
		t.Fatalf("department lost its head")
	}
	heads, err := env.Engine.ListUsers(env.Ctx, env.Admin.ID, domain.RoleDeptHead, env.DeptA.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(heads) != 1 || heads[0].ID != *d.HeadUserID {
		t.Fatalf("department heads = %v, want only %s", heads, *d.HeadUserID)
	}
}

func TestConcurrentDuplicateUser(t *testing.T) {
	env := newTestEnv(t)

	// duplicate email raced through two creates: the check runs under the
	// insert's transaction, so the loser fails validation either way
	errs := make([]error, 2)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, errs[i] = env.Engine.CreateUser(env.Ctx, engine.UserCreateOptions{
				ActorID:      env.Admin.ID,
				Username:     fmt.Sprintf("twin-%d", i),
				Email:        "twin@example.com",
				Role:         domain.RoleEmployee,
				DepartmentID: env.DeptA.ID,
			})
		}()
	}
	close(start)
	wg.Wait()

	var wins int
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		var ve engine.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("losing create: %v, want ValidationError", err)
		}
	}
	if wins != 1 {
		t.Fatalf("wins = %d, want exactly one", wins)
	}
}

func TestDeleteUser(t *testing.T) {
	env := newTestEnv(t)

	// an acting head cannot be deleted
	var ce engine.ConflictError
	if err := env.Engine.DeleteUser(env.Ctx, env.Admin.ID, env.HeadA.ID); !errors.As(err, &ce) {
		t.Fatalf("delete acting head: %v, want ConflictError", err)
	}

	// only admins delete
	if err := env.Engine.DeleteUser(env.Ctx, env.HeadA.ID, env.EmpA1.ID); !isForbidden(err) {
		t.Fatalf("head deletes user: %v, want forbidden", err)
	}

	if err := env.Engine.DeleteUser(env.Ctx, env.Admin.ID, env.EmpA2.ID); err != nil {
		t.Fatalf("delete employee: %v", err)
	}
	if _, err := env.Engine.GetUser(env.Ctx, env.EmpA2.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("user still present: %v", err)
	}
}

func TestDepartments(t *testing.T) {
	env := newTestEnv(t)

	// duplicate names are rejected
	var ve engine.ValidationError
	_, err := env.Engine.CreateDepartment(env.Ctx, engine.DepartmentCreateOptions{
		ActorID: env.Admin.ID,
		Name:    "Engineering",
	})
	if !errors.As(err, &ve) {
		t.Fatalf("duplicate department: %v, want ValidationError", err)
	}

	// non-admins cannot create departments
	_, err = env.Engine.CreateDepartment(env.Ctx, engine.DepartmentCreateOptions{
		ActorID: env.HeadA.ID,
		Name:    "Skunkworks",
	})
	if !isForbidden(err) {
		t.Fatalf("head creates department: %v, want forbidden", err)
	}

	// a populated department cannot be deleted
	var ce engine.ConflictError
	if err := env.Engine.DeleteDepartment(env.Ctx, env.Admin.ID, env.DeptA.ID); !errors.As(err, &ce) {
		t.Fatalf("delete populated department: %v, want ConflictError", err)
	}

	// an empty one can
	empty, err := env.Engine.CreateDepartment(env.Ctx, engine.DepartmentCreateOptions{
		ActorID: env.Admin.ID,
		Name:    "Empty",
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := env.Engine.DeleteDepartment(env.Ctx, env.Admin.ID, empty.ID); err != nil {
		t.Fatalf("delete empty department: %v", err)
	}
}

func TestNotificationPreference(t *testing.T) {
	env := newTestEnv(t)

	if err := env.Engine.SetNotificationPreference(env.Ctx, env.EmpA1.ID, env.EmpA1.ID, false); err != nil {
		t.Fatalf("self preference: %v", err)
	}
	u, err := env.Engine.GetUser(env.Ctx, env.EmpA1.ID)
	if err != nil {
		t.Fatal(err)
	}
	if u.EmailNotifications {
		t.Fatalf("preference not persisted")
	}

	// peers cannot flip each other's preference, admins can
	if err := env.Engine.SetNotificationPreference(env.Ctx, env.EmpA2.ID, env.EmpA1.ID, true); !isForbidden(err) {
		t.Fatalf("peer preference: %v, want forbidden", err)
	}
	if err := env.Engine.SetNotificationPreference(env.Ctx, env.Admin.ID, env.EmpA1.ID, true); err != nil {
		t.Fatalf("admin preference: %v", err)
	}
}

func TestUserDeactivation(t *testing.T) {
	env := newTestEnv(t)

	// only admins flip the active flag
	if err := env.Engine.SetUserActive(env.Ctx, env.HeadA.ID, env.EmpA1.ID, false); !isForbidden(err) {
		t.Fatalf("head deactivates: %v, want forbidden", err)
	}
	var ve engine.ValidationError
	if err := env.Engine.SetUserActive(env.Ctx, env.Admin.ID, env.Admin.ID, false); !errors.As(err, &ve) {
		t.Fatalf("self deactivation: %v, want ValidationError", err)
	}
	if err := env.Engine.SetUserActive(env.Ctx, env.Admin.ID, env.EmpA1.ID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	// a deactivated account cannot act
	_, err := env.Engine.ListTasksFor(env.Ctx, env.EmpA1.ID, engine.ListTasksOptions{})
	if !isForbidden(err) {
		t.Fatalf("deactivated actor: %v, want forbidden", err)
	}

	if err := env.Engine.SetUserActive(env.Ctx, env.Admin.ID, env.EmpA1.ID, true); err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	if _, err := env.Engine.ListTasksFor(env.Ctx, env.EmpA1.ID, engine.ListTasksOptions{}); err != nil {
		t.Fatalf("reactivated actor: %v", err)
	}
}

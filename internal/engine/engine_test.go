package engine_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"taskdesk/internal/app"
	"taskdesk/internal/authz"
	"taskdesk/internal/config"
	"taskdesk/internal/db"
	"taskdesk/internal/domain"
	"taskdesk/internal/engine"
	"taskdesk/internal/migrate"
	"taskdesk/internal/notify"
	"taskdesk/internal/repo"
)

var baseTime = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	Engine engine.Engine
	Ctx    context.Context

	Admin domain.User
	DeptA domain.Department
	DeptB domain.Department
	HeadA domain.User
	HeadB domain.User
	EmpA1 domain.User
	EmpA2 domain.User
	EmpB1 domain.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	cfg := config.Default()
	ctx := context.Background()
	if err := app.EnsureAdmin(ctx, conn, cfg); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	eng := engine.New(conn, cfg)
	eng.Now = func() time.Time { return baseTime }
	eng.Notifier = notify.Discard{}

	env := &testEnv{Engine: eng, Ctx: ctx}
	env.Admin, err = eng.Repo.GetUserByUsername(ctx, cfg.Seed.AdminUsername)
	if err != nil {
		t.Fatalf("get admin: %v", err)
	}
	env.DeptA = env.mustCreateDept(t, "Engineering")
	env.DeptB = env.mustCreateDept(t, "Marketing")
	env.HeadA = env.mustCreateUser(t, env.Admin.ID, "head-a", domain.RoleDeptHead, env.DeptA.ID)
	env.HeadB = env.mustCreateUser(t, env.Admin.ID, "head-b", domain.RoleDeptHead, env.DeptB.ID)
	env.EmpA1 = env.mustCreateUser(t, env.Admin.ID, "emp-a1", domain.RoleEmployee, env.DeptA.ID)
	env.EmpA2 = env.mustCreateUser(t, env.Admin.ID, "emp-a2", domain.RoleEmployee, env.DeptA.ID)
	env.EmpB1 = env.mustCreateUser(t, env.Admin.ID, "emp-b1", domain.RoleEmployee, env.DeptB.ID)
	return env
}

func (env *testEnv) mustCreateDept(t *testing.T, name string) domain.Department {
	t.Helper()
	d, err := env.Engine.CreateDepartment(env.Ctx, engine.DepartmentCreateOptions{
		ActorID: env.Admin.ID,
		Name:    name,
	})
	if err != nil {
		t.Fatalf("create department %s: %v", name, err)
	}
	return d
}

func (env *testEnv) mustCreateUser(t *testing.T, actorID, username string, role domain.Role, deptID string) domain.User {
	t.Helper()
	u, err := env.Engine.CreateUser(env.Ctx, engine.UserCreateOptions{
		ActorID:      actorID,
		Username:     username,
		Email:        username + "@example.com",
		Role:         role,
		DepartmentID: deptID,
	})
	if err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

func (env *testEnv) mustCreateTask(t *testing.T, creatorID, assigneeID, title string) domain.Task {
	t.Helper()
	task, err := env.Engine.CreateTask(env.Ctx, engine.TaskCreateOptions{
		CreatorID:  creatorID,
		Title:      title,
		AssigneeID: assigneeID,
	})
	if err != nil {
		t.Fatalf("create task %s: %v", title, err)
	}
	return task
}

func TestLifecycleHappyPath(t *testing.T) {
	env := newTestEnv(t)
	task := env.mustCreateTask(t, env.HeadA.ID, env.EmpA1.ID, "Write report")
	if task.Status != domain.StatusPending {
		t.Fatalf("new task status = %s, want PENDING", task.Status)
	}

	task, err := env.Engine.StartTask(env.Ctx, task.ID, env.EmpA1.ID)
	if err != nil || task.Status != domain.StatusInProgress {
		t.Fatalf("start: %v (status %s)", err, task.Status)
	}
	task, err = env.Engine.SubmitTask(env.Ctx, task.ID, env.EmpA1.ID, "report.pdf", "")
	if err != nil || task.Status != domain.StatusSubmitted {
		t.Fatalf("submit: %v (status %s)", err, task.Status)
	}
	if task.ProofRef == nil || *task.ProofRef != "report.pdf" {
		t.Fatalf("proof ref not recorded: %v", task.ProofRef)
	}
	task, err = env.Engine.ReviewTask(env.Ctx, task.ID, env.HeadA.ID, engine.DecisionAccept, "good work")
	if err != nil || task.Status != domain.StatusCompleted {
		t.Fatalf("accept: %v (status %s)", err, task.Status)
	}

	history, err := env.Engine.GetHistory(env.Ctx, task.ID, env.HeadA.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	wantActions := []domain.HistoryAction{
		domain.ActionAccepted,
		domain.ActionSubmitted,
		domain.ActionStarted,
		domain.ActionCreated,
	}
	if len(history) != len(wantActions) {
		t.Fatalf("history length = %d, want %d", len(history), len(wantActions))
	}
	for i, want := range wantActions {
		if history[i].Action != want {
			t.Fatalf("history[%d].Action = %s, want %s", i, history[i].Action, want)
		}
	}
	if history[3].Comment != "Task assigned to emp-a1" {
		t.Fatalf("creation comment = %q", history[3].Comment)
	}
	if history[2].Comment != "Task status changed to In Progress" {
		t.Fatalf("start comment = %q", history[2].Comment)
	}
	if history[1].Comment != "Task submitted for review" {
		t.Fatalf("submit default comment = %q", history[1].Comment)
	}
}

func TestStartRules(t *testing.T) {
	env := newTestEnv(t)
	task := env.mustCreateTask(t, env.HeadA.ID, env.EmpA1.ID, "task")

	// only the assignee may start
	if _, err := env.Engine.StartTask(env.Ctx, task.ID, env.EmpA2.ID); !isForbidden(err) {
		t.Fatalf("non-assignee start: %v, want forbidden", err)
	}
	// creator is not the assignee either
	if _, err := env.Engine.StartTask(env.Ctx, task.ID, env.HeadA.ID); !isForbidden(err) {
		t.Fatalf("creator start: %v, want forbidden", err)
	}
	if _, err := env.Engine.StartTask(env.Ctx, task.ID, env.EmpA1.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	// double start
	var ise engine.InvalidStateError
	_, err := env.Engine.StartTask(env.Ctx, task.ID, env.EmpA1.ID)
	if !errors.As(err, &ise) {
		t.Fatalf("double start: %v, want InvalidStateError", err)
	}
	if ise.Status != domain.StatusInProgress {
		t.Fatalf("invalid state status = %s", ise.Status)
	}
}

func TestSubmitRules(t *testing.T) {
	env := newTestEnv(t)
	task := env.mustCreateTask(t, env.HeadA.ID, env.EmpA1.ID, "task")

	// proof is mandatory
	var ve engine.ValidationError
	if _, err := env.Engine.SubmitTask(env.Ctx, task.ID, env.EmpA1.ID, "", ""); !errors.As(err, &ve) {
		t.Fatalf("submit without proof: %v, want ValidationError", err)
	}
	// submitting straight from PENDING is allowed
	task, err := env.Engine.SubmitTask(env.Ctx, task.ID, env.EmpA1.ID, "out.zip", "done early")
	if err != nil || task.Status != domain.StatusSubmitted {
		t.Fatalf("submit from PENDING: %v (status %s)", err, task.Status)
	}
	// a submitted task cannot be submitted again
	var ise engine.InvalidStateError
	if _, err := env.Engine.SubmitTask(env.Ctx, task.ID, env.EmpA1.ID, "out.zip", ""); !errors.As(err, &ise) {
		t.Fatalf("double submit: %v, want InvalidStateError", err)
	}

	history, err := env.Engine.GetHistory(env.Ctx, task.ID, env.EmpA1.ID)
	if err != nil {
		t.Fatal(err)
	}
	if history[0].Comment != "done early" {
		t.Fatalf("submit message = %q", history[0].Comment)
	}
	if history[0].FileRef == nil || *history[0].FileRef != "out.zip" {
		t.Fatalf("submit file ref = %v", history[0].FileRef)
	}
}

func TestConcurrentSubmit(t *testing.T) {
	env := newTestEnv(t)
	task := env.mustCreateTask(t, env.HeadA.ID, env.EmpA1.ID, "contested")
	if _, err := env.Engine.StartTask(env.Ctx, task.ID, env.EmpA1.ID); err != nil {
		t.Fatal(err)
	}

	// two simultaneous submissions: exactly one lands, the other re-reads
	// SUBMITTED inside its transaction and fails the state check
	errs := make([]error, 2)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, errs[i] = env.Engine.SubmitTask(env.Ctx, task.ID, env.EmpA1.ID, fmt.Sprintf("proof-%d.pdf", i), "")
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
		var ise engine.InvalidStateError
		if !errors.As(err, &ise) {
			t.Fatalf("losing submit: %v, want InvalidStateError", err)
		}
	}
	if wins != 1 {
		t.Fatalf("wins = %d, want exactly one", wins)
	}

	// the ledger records a single submission
	history, err := env.Engine.GetHistory(env.Ctx, task.ID, env.HeadA.ID)
	if err != nil {
		t.Fatal(err)
	}
	var submitted int
	for _, entry := range history {
		if entry.Action == domain.ActionSubmitted {
			submitted++
		}
	}
	if submitted != 1 {
		t.Fatalf("SUBMITTED entries = %d, want 1", submitted)
	}
}

func TestReviewRules(t *testing.T) {
	env := newTestEnv(t)
	task := env.mustCreateTask(t, env.HeadA.ID, env.EmpA1.ID, "task")
	if _, err := env.Engine.StartTask(env.Ctx, task.ID, env.EmpA1.ID); err != nil {
		t.Fatal(err)
	}

	// reviewing before submission is an invalid state
	var ise engine.InvalidStateError
	if _, err := env.Engine.ReviewTask(env.Ctx, task.ID, env.HeadA.ID, engine.DecisionAccept, ""); !errors.As(err, &ise) {
		t.Fatalf("review in progress: %v, want InvalidStateError", err)
	}
	if _, err := env.Engine.SubmitTask(env.Ctx, task.ID, env.EmpA1.ID, "v1.pdf", ""); err != nil {
		t.Fatal(err)
	}
	// only the creator reviews, even the assignee cannot
	if _, err := env.Engine.ReviewTask(env.Ctx, task.ID, env.EmpA1.ID, engine.DecisionAccept, ""); !isForbidden(err) {
		t.Fatalf("assignee review: %v, want forbidden", err)
	}
	// bad decision
	var ve engine.ValidationError
	if _, err := env.Engine.ReviewTask(env.Ctx, task.ID, env.HeadA.ID, "MAYBE", ""); !errors.As(err, &ve) {
		t.Fatalf("bad decision: %v, want ValidationError", err)
	}

	// reject returns the task to PENDING with the default comment
	task, err := env.Engine.ReviewTask(env.Ctx, task.ID, env.HeadA.ID, engine.DecisionReject, "")
	if err != nil || task.Status != domain.StatusPending {
		t.Fatalf("reject: %v (status %s)", err, task.Status)
	}
	history, err := env.Engine.GetHistory(env.Ctx, task.ID, env.HeadA.ID)
	if err != nil {
		t.Fatal(err)
	}
	if history[0].Action != domain.ActionRejected || history[0].Comment != "No comments" {
		t.Fatalf("reject entry = %s %q", history[0].Action, history[0].Comment)
	}

	// second round after rejection
	if _, err := env.Engine.StartTask(env.Ctx, task.ID, env.EmpA1.ID); err != nil {
		t.Fatalf("restart after reject: %v", err)
	}
	if _, err := env.Engine.SubmitTask(env.Ctx, task.ID, env.EmpA1.ID, "v2.pdf", ""); err != nil {
		t.Fatal(err)
	}
	task, err = env.Engine.ReviewTask(env.Ctx, task.ID, env.HeadA.ID, engine.DecisionAccept, "ship it")
	if err != nil || task.Status != domain.StatusCompleted {
		t.Fatalf("accept second round: %v (status %s)", err, task.Status)
	}
}

func TestCreateTaskAuthorization(t *testing.T) {
	env := newTestEnv(t)

	// employees never create tasks
	_, err := env.Engine.CreateTask(env.Ctx, engine.TaskCreateOptions{
		CreatorID: env.EmpA1.ID, Title: "x", AssigneeID: env.EmpA2.ID,
	})
	if !isForbidden(err) {
		t.Fatalf("employee create: %v, want forbidden", err)
	}
	// heads stay inside their department
	_, err = env.Engine.CreateTask(env.Ctx, engine.TaskCreateOptions{
		CreatorID: env.HeadA.ID, Title: "x", AssigneeID: env.EmpB1.ID,
	})
	if !isForbidden(err) {
		t.Fatalf("cross-department create: %v, want forbidden", err)
	}
	// the admin has no department, so a head cannot assign to them
	_, err = env.Engine.CreateTask(env.Ctx, engine.TaskCreateOptions{
		CreatorID: env.HeadA.ID, Title: "x", AssigneeID: env.Admin.ID,
	})
	if !isForbidden(err) {
		t.Fatalf("head assigns to admin: %v, want forbidden", err)
	}
	// admins cross department lines freely
	if _, err := env.Engine.CreateTask(env.Ctx, engine.TaskCreateOptions{
		CreatorID: env.Admin.ID, Title: "x", AssigneeID: env.EmpB1.ID,
	}); err != nil {
		t.Fatalf("admin create: %v", err)
	}
	// unknown assignee is not found, not forbidden
	_, err = env.Engine.CreateTask(env.Ctx, engine.TaskCreateOptions{
		CreatorID: env.Admin.ID, Title: "x", AssigneeID: "nope",
	})
	if !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("missing assignee: %v, want ErrNotFound", err)
	}
}

func TestEditWindow(t *testing.T) {
	env := newTestEnv(t)
	task := env.mustCreateTask(t, env.HeadA.ID, env.EmpA1.ID, "original")

	// only the creator edits
	title := "nope"
	_, err := env.Engine.EditTask(env.Ctx, engine.TaskEditOptions{ID: task.ID, ActorID: env.EmpA1.ID, Title: &title})
	if !isForbidden(err) {
		t.Fatalf("assignee edit: %v, want forbidden", err)
	}

	// exactly five minutes in is still inside the window
	env.Engine.Now = func() time.Time { return baseTime.Add(5*time.Minute + 59*time.Second) }
	title = "updated"
	edited, err := env.Engine.EditTask(env.Ctx, engine.TaskEditOptions{ID: task.ID, ActorID: env.HeadA.ID, Title: &title})
	if err != nil {
		t.Fatalf("edit at minute five: %v", err)
	}
	if edited.Title != "updated" {
		t.Fatalf("title = %q", edited.Title)
	}

	// the sixth minute is out
	env.Engine.Now = func() time.Time { return baseTime.Add(6 * time.Minute) }
	var we authz.WindowExpiredError
	_, err = env.Engine.EditTask(env.Ctx, engine.TaskEditOptions{ID: task.ID, ActorID: env.HeadA.ID, Title: &title})
	if !errors.As(err, &we) {
		t.Fatalf("edit at minute six: %v, want WindowExpiredError", err)
	}

	// edits leave no trace in the ledger
	history, err := env.Engine.GetHistory(env.Ctx, task.ID, env.HeadA.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 || history[0].Action != domain.ActionCreated {
		t.Fatalf("history after edit = %v", history)
	}
}

func TestEditReassignmentAuthorization(t *testing.T) {
	env := newTestEnv(t)
	task := env.mustCreateTask(t, env.HeadA.ID, env.EmpA1.ID, "task")

	// reassignment re-runs the department rule
	_, err := env.Engine.EditTask(env.Ctx, engine.TaskEditOptions{ID: task.ID, ActorID: env.HeadA.ID, AssigneeID: &env.EmpB1.ID})
	if !isForbidden(err) {
		t.Fatalf("cross-department reassign: %v, want forbidden", err)
	}
	edited, err := env.Engine.EditTask(env.Ctx, engine.TaskEditOptions{ID: task.ID, ActorID: env.HeadA.ID, AssigneeID: &env.EmpA2.ID})
	if err != nil {
		t.Fatalf("reassign in department: %v", err)
	}
	if edited.AssigneeID != env.EmpA2.ID {
		t.Fatalf("assignee = %s", edited.AssigneeID)
	}
}

func TestDeleteRules(t *testing.T) {
	env := newTestEnv(t)

	// untouched pending task inside the window deletes cleanly
	task := env.mustCreateTask(t, env.HeadA.ID, env.EmpA1.ID, "short lived")
	if err := env.Engine.DeleteTask(env.Ctx, task.ID, env.HeadA.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := env.Engine.Repo.GetTask(env.Ctx, task.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("task still present: %v", err)
	}

	// a started task cannot be deleted
	task = env.mustCreateTask(t, env.HeadA.ID, env.EmpA1.ID, "started")
	if _, err := env.Engine.StartTask(env.Ctx, task.ID, env.EmpA1.ID); err != nil {
		t.Fatal(err)
	}
	var ise engine.InvalidStateError
	if err := env.Engine.DeleteTask(env.Ctx, task.ID, env.HeadA.ID); !errors.As(err, &ise) {
		t.Fatalf("delete started: %v, want InvalidStateError", err)
	}

	// a rejected task is PENDING again, but its ledger shows movement
	if _, err := env.Engine.SubmitTask(env.Ctx, task.ID, env.EmpA1.ID, "p.txt", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.ReviewTask(env.Ctx, task.ID, env.HeadA.ID, engine.DecisionReject, "redo"); err != nil {
		t.Fatal(err)
	}
	if err := env.Engine.DeleteTask(env.Ctx, task.ID, env.HeadA.ID); !errors.As(err, &ise) {
		t.Fatalf("delete rejected: %v, want InvalidStateError", err)
	}

	// outside the window the state checks still run first, then the clock
	task = env.mustCreateTask(t, env.HeadA.ID, env.EmpA1.ID, "stale")
	env.Engine.Now = func() time.Time { return baseTime.Add(10 * time.Minute) }
	var we authz.WindowExpiredError
	if err := env.Engine.DeleteTask(env.Ctx, task.ID, env.HeadA.ID); !errors.As(err, &we) {
		t.Fatalf("delete stale: %v, want WindowExpiredError", err)
	}
}

func TestVisibility(t *testing.T) {
	env := newTestEnv(t)
	headTask := env.mustCreateTask(t, env.HeadA.ID, env.EmpA1.ID, "from head")
	adminTask := env.mustCreateTask(t, env.Admin.ID, env.EmpA2.ID, "from admin")
	otherTask := env.mustCreateTask(t, env.HeadB.ID, env.EmpB1.ID, "other dept")

	ids := func(tasks []domain.Task) map[string]bool {
		m := make(map[string]bool, len(tasks))
		for _, t := range tasks {
			m[t.ID] = true
		}
		return m
	}

	all, err := env.Engine.ListTasksFor(env.Ctx, env.Admin.ID, engine.ListTasksOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(all); !got[headTask.ID] || !got[adminTask.ID] || !got[otherTask.ID] {
		t.Fatalf("admin does not see all tasks: %v", got)
	}

	// a head sees tasks they created or hold, not what an admin handed to
	// their subordinates
	headView, err := env.Engine.ListTasksFor(env.Ctx, env.HeadA.ID, engine.ListTasksOptions{})
	if err != nil {
		t.Fatal(err)
	}
	got := ids(headView)
	if !got[headTask.ID] {
		t.Fatalf("head missing own task")
	}
	if got[adminTask.ID] || got[otherTask.ID] {
		t.Fatalf("head sees tasks outside their scope: %v", got)
	}
	if err := func() error {
		_, err := env.Engine.GetTask(env.Ctx, adminTask.ID, env.HeadA.ID)
		return err
	}(); !isForbidden(err) {
		t.Fatalf("head reads admin task: %v, want forbidden", err)
	}

	// employees see their own assignments only
	empView, err := env.Engine.ListTasksFor(env.Ctx, env.EmpA1.ID, engine.ListTasksOptions{})
	if err != nil {
		t.Fatal(err)
	}
	got = ids(empView)
	if !got[headTask.ID] || got[adminTask.ID] || got[otherTask.ID] {
		t.Fatalf("employee view wrong: %v", got)
	}
	// but the assignee on the admin task does see it
	if _, err := env.Engine.GetTask(env.Ctx, adminTask.ID, env.EmpA2.ID); err != nil {
		t.Fatalf("assignee blocked from own task: %v", err)
	}
}

func TestStats(t *testing.T) {
	env := newTestEnv(t)
	t1 := env.mustCreateTask(t, env.HeadA.ID, env.EmpA1.ID, "one")
	env.mustCreateTask(t, env.HeadA.ID, env.EmpA1.ID, "two")
	t3 := env.mustCreateTask(t, env.HeadA.ID, env.EmpA1.ID, "three")
	env.mustCreateTask(t, env.HeadA.ID, env.EmpA2.ID, "for someone else")

	if _, err := env.Engine.StartTask(env.Ctx, t1.ID, env.EmpA1.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.StartTask(env.Ctx, t3.ID, env.EmpA1.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.SubmitTask(env.Ctx, t3.ID, env.EmpA1.ID, "p", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.ReviewTask(env.Ctx, t3.ID, env.HeadA.ID, engine.DecisionAccept, ""); err != nil {
		t.Fatal(err)
	}

	stats, err := env.Engine.GetStats(env.Ctx, env.HeadA.ID, env.EmpA1.ID, "", "")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	want := domain.TaskStats{Pending: 1, InProgress: 1, Completed: 1, Total: 3}
	if stats != want {
		t.Fatalf("stats = %+v, want %+v", stats, want)
	}

	// date range excludes everything outside it
	empty, err := env.Engine.GetStats(env.Ctx, env.HeadA.ID, env.EmpA1.ID, "2025-01-01T00:00:00Z", "")
	if err != nil {
		t.Fatal(err)
	}
	if empty.Total != 0 {
		t.Fatalf("range stats = %+v, want empty", empty)
	}

	// an offset-formatted bound counts the same instant as its UTC form;
	// 17:29+05:30 is 11:59Z, just before the tasks were created
	offset, err := env.Engine.GetStats(env.Ctx, env.HeadA.ID, env.EmpA1.ID, "2024-01-01T17:29:00+05:30", "")
	if err != nil {
		t.Fatal(err)
	}
	if offset != want {
		t.Fatalf("offset bound stats = %+v, want %+v", offset, want)
	}
	listed, err := env.Engine.ListTasksFor(env.Ctx, env.HeadA.ID, engine.ListTasksOptions{CreatedFrom: "2024-01-01T17:29:00+05:30"})
	if err != nil {
		t.Fatal(err)
	}
	if len(listed) != 4 {
		t.Fatalf("offset bound list = %d tasks, want 4", len(listed))
	}

	// employees read their own numbers, nobody else's
	if _, err := env.Engine.GetStats(env.Ctx, env.EmpA1.ID, env.EmpA1.ID, "", ""); err != nil {
		t.Fatalf("self stats: %v", err)
	}
	if _, err := env.Engine.GetStats(env.Ctx, env.EmpA1.ID, env.EmpA2.ID, "", ""); !isForbidden(err) {
		t.Fatalf("peer stats: %v, want forbidden", err)
	}
	// heads stop at their department line
	if _, err := env.Engine.GetStats(env.Ctx, env.HeadA.ID, env.EmpB1.ID, "", ""); !isForbidden(err) {
		t.Fatalf("cross-department stats: %v, want forbidden", err)
	}
}

func isForbidden(err error) bool {
	var fe authz.ForbiddenError
	return errors.As(err, &fe)
}

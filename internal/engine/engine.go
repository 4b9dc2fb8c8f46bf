package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"taskdesk/internal/authz"
	"taskdesk/internal/config"
	"taskdesk/internal/domain"
	"taskdesk/internal/history"
	"taskdesk/internal/notify"
	"taskdesk/internal/repo"
)

// Engine owns every task lifecycle transition and directory mutation. Each
// accepted transition commits the task update and its ledger entry in one
// transaction; per-task serialization comes from re-reading the task inside
// that transaction before the precondition check.
type Engine struct {
	DB       *sql.DB
	Repo     repo.Repo
	History  history.Writer
	Notifier notify.Notifier
	Config   *config.Config
	Now      func() time.Time
}

func New(db *sql.DB, cfg *config.Config) Engine {
	return Engine{
		DB:       db,
		Repo:     repo.Repo{DB: db},
		History:  history.Writer{DB: db},
		Notifier: notify.LogNotifier{From: cfg.Notifications.From},
		Config:   cfg,
		Now:      time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// actor resolves the acting user; a missing actor is always reported and a
// deactivated account may not act at all.
func (e Engine) actor(ctx context.Context, actorID string) (domain.User, error) {
	u, err := e.Repo.GetUser(ctx, actorID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return u, fmt.Errorf("user %s: %w", actorID, err)
		}
		return u, err
	}
	if !u.Active {
		return u, authz.ForbiddenError{Reason: "user account is deactivated"}
	}
	return u, nil
}

// TaskCreateOptions are parameters for creating a task.
type TaskCreateOptions struct {
	CreatorID     string
	Title         string
	Description   string
	AssigneeID    string
	AttachmentRef string
}

func (e Engine) CreateTask(ctx context.Context, opts TaskCreateOptions) (domain.Task, error) {
	if opts.Title == "" {
		return domain.Task{}, ValidationError{Reason: "title is required"}
	}
	if opts.AssigneeID == "" {
		return domain.Task{}, ValidationError{Reason: "assignee is required"}
	}
	creator, err := e.actor(ctx, opts.CreatorID)
	if err != nil {
		return domain.Task{}, err
	}
	assignee, err := e.Repo.GetUser(ctx, opts.AssigneeID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return domain.Task{}, fmt.Errorf("assignee %s: %w", opts.AssigneeID, err)
		}
		return domain.Task{}, err
	}
	if err := authz.CanCreate(creator, assignee); err != nil {
		return domain.Task{}, err
	}
	now := e.now().UTC().Format(time.RFC3339)
	t := domain.Task{
		ID:          uuid.New().String(),
		Title:       opts.Title,
		Description: opts.Description,
		Status:      domain.StatusPending,
		CreatorID:   creator.ID,
		AssigneeID:  assignee.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if opts.AttachmentRef != "" {
		t.AttachmentRef = &opts.AttachmentRef
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Task{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertTask(ctx, tx, t); err != nil {
		return domain.Task{}, err
	}
	if err := e.History.Append(ctx, tx, t.ID, creator.ID, domain.ActionCreated, "Task assigned to "+assignee.Username, t.AttachmentRef); err != nil {
		return domain.Task{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Task{}, err
	}
	if e.Notifier != nil {
		go e.Notifier.TaskAssigned(context.WithoutCancel(ctx), assignee, t, creator)
	}
	return t, nil
}

func (e Engine) StartTask(ctx context.Context, taskID, actorID string) (domain.Task, error) {
	actor, err := e.actor(ctx, actorID)
	if err != nil {
		return domain.Task{}, err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Task{}, err
	}
	defer tx.Rollback()
	t, err := e.Repo.GetTaskTx(ctx, tx, taskID)
	if err != nil {
		return t, err
	}
	if err := authz.CanStart(actor, t); err != nil {
		return t, err
	}
	if t.Status != domain.StatusPending {
		return t, InvalidStateError{Action: "start", Status: t.Status}
	}
	t.Status = domain.StatusInProgress
	t.UpdatedAt = e.now().UTC().Format(time.RFC3339)
	if err := e.Repo.UpdateTask(ctx, tx, t); err != nil {
		return t, err
	}
	if err := e.History.Append(ctx, tx, t.ID, actor.ID, domain.ActionStarted, "Task status changed to In Progress", nil); err != nil {
		return t, err
	}
	if err := tx.Commit(); err != nil {
		return t, err
	}
	return t, nil
}

func (e Engine) SubmitTask(ctx context.Context, taskID, actorID, proofRef, message string) (domain.Task, error) {
	actor, err := e.actor(ctx, actorID)
	if err != nil {
		return domain.Task{}, err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Task{}, err
	}
	defer tx.Rollback()
	t, err := e.Repo.GetTaskTx(ctx, tx, taskID)
	if err != nil {
		return t, err
	}
	if err := authz.CanSubmit(actor, t); err != nil {
		return t, err
	}
	if t.Status != domain.StatusInProgress && t.Status != domain.StatusPending {
		return t, InvalidStateError{Action: "submit", Status: t.Status}
	}
	if proofRef == "" {
		return t, ValidationError{Reason: "a proof file is required to submit the task"}
	}
	t.ProofRef = &proofRef
	t.Status = domain.StatusSubmitted
	t.UpdatedAt = e.now().UTC().Format(time.RFC3339)
	comment := message
	if comment == "" {
		comment = "Task submitted for review"
	}
	if err := e.Repo.UpdateTask(ctx, tx, t); err != nil {
		return t, err
	}
	if err := e.History.Append(ctx, tx, t.ID, actor.ID, domain.ActionSubmitted, comment, t.ProofRef); err != nil {
		return t, err
	}
	if err := tx.Commit(); err != nil {
		return t, err
	}
	if e.Notifier != nil {
		if creator, err := e.Repo.GetUser(ctx, t.CreatorID); err == nil {
			go e.Notifier.TaskSubmitted(context.WithoutCancel(ctx), creator, t, actor)
		}
	}
	return t, nil
}

// ReviewDecision is the creator's verdict on a submitted task.
type ReviewDecision string

const (
	DecisionAccept ReviewDecision = "ACCEPT"
	DecisionReject ReviewDecision = "REJECT"
)

func (e Engine) ReviewTask(ctx context.Context, taskID, actorID string, decision ReviewDecision, comment string) (domain.Task, error) {
	if decision != DecisionAccept && decision != DecisionReject {
		return domain.Task{}, ValidationError{Reason: "decision must be ACCEPT or REJECT"}
	}
	actor, err := e.actor(ctx, actorID)
	if err != nil {
		return domain.Task{}, err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Task{}, err
	}
	defer tx.Rollback()
	t, err := e.Repo.GetTaskTx(ctx, tx, taskID)
	if err != nil {
		return t, err
	}
	if err := authz.CanReview(actor, t); err != nil {
		return t, err
	}
	if t.Status != domain.StatusSubmitted {
		return t, InvalidStateError{Action: "review", Status: t.Status}
	}
	action := domain.ActionAccepted
	if decision == DecisionAccept {
		t.Status = domain.StatusCompleted
	} else {
		// Rejection re-opens the task for the assignee.
		t.Status = domain.StatusPending
		action = domain.ActionRejected
	}
	if comment == "" {
		comment = "No comments"
	}
	t.UpdatedAt = e.now().UTC().Format(time.RFC3339)
	if err := e.Repo.UpdateTask(ctx, tx, t); err != nil {
		return t, err
	}
	if err := e.History.Append(ctx, tx, t.ID, actor.ID, action, comment, nil); err != nil {
		return t, err
	}
	if err := tx.Commit(); err != nil {
		return t, err
	}
	return t, nil
}

// TaskEditOptions carries the fields a creator may change inside the edit
// window. Nil pointers leave the field untouched.
type TaskEditOptions struct {
	ID            string
	ActorID       string
	Title         *string
	Description   *string
	AssigneeID    *string
	AttachmentRef *string
}

func (e Engine) EditTask(ctx context.Context, opts TaskEditOptions) (domain.Task, error) {
	actor, err := e.actor(ctx, opts.ActorID)
	if err != nil {
		return domain.Task{}, err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Task{}, err
	}
	defer tx.Rollback()
	t, err := e.Repo.GetTaskTx(ctx, tx, opts.ID)
	if err != nil {
		return t, err
	}
	if err := authz.CanModify(actor, t); err != nil {
		return t, err
	}
	if err := authz.CheckEditWindow(e.now(), t.CreatedAt); err != nil {
		return t, err
	}
	if opts.Title != nil {
		if *opts.Title == "" {
			return t, ValidationError{Reason: "title is required"}
		}
		t.Title = *opts.Title
	}
	if opts.Description != nil {
		t.Description = *opts.Description
	}
	if opts.AssigneeID != nil && *opts.AssigneeID != t.AssigneeID {
		assignee, err := e.Repo.GetUserTx(ctx, tx, *opts.AssigneeID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return t, fmt.Errorf("assignee %s: %w", *opts.AssigneeID, err)
			}
			return t, err
		}
		// Reassignment re-runs the department rule against the new assignee.
		if err := authz.CanCreate(actor, assignee); err != nil {
			return t, err
		}
		t.AssigneeID = assignee.ID
	}
	if opts.AttachmentRef != nil {
		if *opts.AttachmentRef == "" {
			t.AttachmentRef = nil
		} else {
			t.AttachmentRef = opts.AttachmentRef
		}
	}
	t.UpdatedAt = e.now().UTC().Format(time.RFC3339)
	if err := e.Repo.UpdateTask(ctx, tx, t); err != nil {
		return t, err
	}
	if err := tx.Commit(); err != nil {
		return t, err
	}
	return t, nil
}

func (e Engine) DeleteTask(ctx context.Context, taskID, actorID string) error {
	actor, err := e.actor(ctx, actorID)
	if err != nil {
		return err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	t, err := e.Repo.GetTaskTx(ctx, tx, taskID)
	if err != nil {
		return err
	}
	if err := authz.CanModify(actor, t); err != nil {
		return err
	}
	if t.Status != domain.StatusPending {
		return InvalidStateError{Action: "delete", Status: t.Status}
	}
	// A rejected task is PENDING again but has left PENDING before; its
	// ledger shows it, and such tasks may no longer be deleted.
	moved, err := e.Repo.CountHistoryBeyondCreation(ctx, tx, t.ID)
	if err != nil {
		return err
	}
	if moved > 0 {
		return InvalidStateError{Action: "delete", Status: t.Status}
	}
	if err := authz.CheckEditWindow(e.now(), t.CreatedAt); err != nil {
		return err
	}
	if err := e.Repo.DeleteTask(ctx, tx, t.ID); err != nil {
		return err
	}
	return tx.Commit()
}

// ListTasksOptions narrows ListTasksFor. Date bounds are inclusive RFC3339
// timestamps applied to the task creation time.
type ListTasksOptions struct {
	Status          domain.TaskStatus
	CreatedFrom     string
	CreatedTo       string
	Limit           int
	CursorCreatedAt string
	CursorID        string
}

// ListTasksFor returns the tasks visible to the actor: admins see all,
// department heads see tasks they created or are assigned to, employees see
// their own assignments.
func (e Engine) ListTasksFor(ctx context.Context, actorID string, opts ListTasksOptions) ([]domain.Task, error) {
	actor, err := e.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	scope := authz.VisibleScope(actor)
	return e.Repo.ListTasks(ctx, repo.TaskFilters{
		VisibleToCreator:  scope.CreatorID,
		VisibleToAssignee: scope.AssigneeID,
		Status:            opts.Status,
		CreatedFrom:       opts.CreatedFrom,
		CreatedTo:         opts.CreatedTo,
		Limit:             opts.Limit,
		CursorCreatedAt:   opts.CursorCreatedAt,
		CursorID:          opts.CursorID,
	})
}

// GetTask returns one task if the actor may see it.
func (e Engine) GetTask(ctx context.Context, taskID, actorID string) (domain.Task, error) {
	actor, err := e.actor(ctx, actorID)
	if err != nil {
		return domain.Task{}, err
	}
	t, err := e.Repo.GetTask(ctx, taskID)
	if err != nil {
		return t, err
	}
	if err := authz.CanView(actor, t); err != nil {
		return t, err
	}
	return t, nil
}

// GetHistory returns the task's ledger, newest first.
func (e Engine) GetHistory(ctx context.Context, taskID, actorID string) ([]domain.HistoryEntry, error) {
	actor, err := e.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	t, err := e.Repo.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := authz.CanView(actor, t); err != nil {
		return nil, err
	}
	return e.Repo.ListHistoryByTask(ctx, t.ID)
}

// GetStats returns per-status counts for the target user's assignments over
// an inclusive date range.
func (e Engine) GetStats(ctx context.Context, actorID, targetUserID, from, to string) (domain.TaskStats, error) {
	actor, err := e.actor(ctx, actorID)
	if err != nil {
		return domain.TaskStats{}, err
	}
	target, err := e.Repo.GetUser(ctx, targetUserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return domain.TaskStats{}, fmt.Errorf("user %s: %w", targetUserID, err)
		}
		return domain.TaskStats{}, err
	}
	if err := authz.CanViewStats(actor, target); err != nil {
		return domain.TaskStats{}, err
	}
	counts, err := e.Repo.CountTasksByStatusForAssignee(ctx, target.ID, from, to)
	if err != nil {
		return domain.TaskStats{}, err
	}
	var stats domain.TaskStats
	stats.Pending = counts[domain.StatusPending]
	stats.InProgress = counts[domain.StatusInProgress]
	stats.Submitted = counts[domain.StatusSubmitted]
	stats.Completed = counts[domain.StatusCompleted]
	stats.Total = stats.Pending + stats.InProgress + stats.Submitted + stats.Completed
	return stats, nil
}

// Package notify dispatches best-effort notifications for task transitions.
// Delivery is fire-and-forget; outcomes never affect the transition that
// triggered them.
package notify

import (
	"context"
	"log"

	"taskdesk/internal/domain"
)

type Notifier interface {
	TaskAssigned(ctx context.Context, assignee domain.User, task domain.Task, creator domain.User)
	TaskSubmitted(ctx context.Context, creator domain.User, task domain.Task, assignee domain.User)
}

// LogNotifier writes notification lines to a logger. It stands in for a real
// mail sender; the message shape matches what an SMTP backend would send.
type LogNotifier struct {
	Logger *log.Logger
	From   string
}

func (n LogNotifier) logger() *log.Logger {
	if n.Logger != nil {
		return n.Logger
	}
	return log.Default()
}

func (n LogNotifier) TaskAssigned(_ context.Context, assignee domain.User, task domain.Task, creator domain.User) {
	if !assignee.EmailNotifications {
		return
	}
	n.logger().Printf("notify: to=%s from=%s subject=%q task=%s creator=%s",
		assignee.Email, n.From, "New Task Assigned: "+task.Title, task.ID, creator.Username)
}

func (n LogNotifier) TaskSubmitted(_ context.Context, creator domain.User, task domain.Task, assignee domain.User) {
	if !creator.EmailNotifications {
		return
	}
	n.logger().Printf("notify: to=%s from=%s subject=%q task=%s assignee=%s",
		creator.Email, n.From, "Task Submitted for Review: "+task.Title, task.ID, assignee.Username)
}

// Discard drops every notification. Used in tests.
type Discard struct{}

func (Discard) TaskAssigned(context.Context, domain.User, domain.Task, domain.User)  {}
func (Discard) TaskSubmitted(context.Context, domain.User, domain.Task, domain.User) {}

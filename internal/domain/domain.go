package domain

// Role is the authority tier of a user.
type Role string

const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleDeptHead   Role = "DEPT_HEAD"
	RoleEmployee   Role = "EMPLOYEE"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleSuperAdmin, RoleDeptHead, RoleEmployee:
		return true
	}
	return false
}

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	StatusPending    TaskStatus = "PENDING"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusSubmitted  TaskStatus = "SUBMITTED"
	StatusCompleted  TaskStatus = "COMPLETED"
)

// HistoryAction tags a ledger entry with the transition it records.
type HistoryAction string

const (
	ActionCreated   HistoryAction = "CREATED"
	ActionStarted   HistoryAction = "STARTED"
	ActionSubmitted HistoryAction = "SUBMITTED"
	ActionAccepted  HistoryAction = "ACCEPTED"
	ActionRejected  HistoryAction = "REJECTED"
)

type User struct {
	ID                 string  `json:"id"`
	Username           string  `json:"username"`
	Email              string  `json:"email"`
	Role               Role    `json:"role" enum:"SUPER_ADMIN,DEPT_HEAD,EMPLOYEE"`
	DepartmentID       *string `json:"department_id,omitempty"`
	Active             bool    `json:"active"`
	EmailNotifications bool    `json:"email_notifications"`
	CreatedAt          string  `json:"created_at" format:"date-time"`
}

type Department struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	HeadUserID  *string `json:"head_user_id,omitempty"`
	CreatedAt   string  `json:"created_at" format:"date-time"`
}

type Task struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	Status        TaskStatus `json:"status" enum:"PENDING,IN_PROGRESS,SUBMITTED,COMPLETED"`
	CreatorID     string     `json:"creator_id"`
	AssigneeID    string     `json:"assignee_id"`
	AttachmentRef *string    `json:"attachment_ref,omitempty"`
	ProofRef      *string    `json:"proof_ref,omitempty"`
	CreatedAt     string     `json:"created_at" format:"date-time"`
	UpdatedAt     string     `json:"updated_at" format:"date-time"`
}

// HistoryEntry is one row of the append-only task ledger. Entries are never
// mutated or deleted once written.
type HistoryEntry struct {
	ID      int64         `json:"id"`
	TaskID  string        `json:"task_id"`
	ActorID string        `json:"actor_id"`
	Action  HistoryAction `json:"action" enum:"CREATED,STARTED,SUBMITTED,ACCEPTED,REJECTED"`
	Comment string        `json:"comment,omitempty"`
	FileRef *string       `json:"file_ref,omitempty"`
	TS      string        `json:"ts" format:"date-time"`
}

// TaskStats are per-status counts for one assignee over a date range.
type TaskStats struct {
	Pending    int64 `json:"pending"`
	InProgress int64 `json:"in_progress"`
	Submitted  int64 `json:"submitted"`
	Completed  int64 `json:"completed"`
	Total      int64 `json:"total"`
}

type APIKey struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Name      string `json:"name,omitempty"`
	KeyHash   string `json:"key_hash"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

package server

import (
	"taskdesk/internal/domain"
)

// Request payloads

type CreateUserRequest struct {
	Username     string      `json:"username"`
	Email        string      `json:"email" format:"email"`
	Role         domain.Role `json:"role" enum:"SUPER_ADMIN,DEPT_HEAD,EMPLOYEE"`
	DepartmentID *string     `json:"department_id,omitempty"`
}

type UpdateNotificationsRequest struct {
	Enabled bool `json:"enabled"`
}

type UpdateActiveRequest struct {
	Active bool `json:"active"`
}

type CreateDepartmentRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	HeadUserID  *string `json:"head_user_id,omitempty"`
}

type UpdateDepartmentRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	HeadUserID  *string `json:"head_user_id,omitempty"`
}

type CreateTaskRequest struct {
	Title         string  `json:"title"`
	Description   *string `json:"description,omitempty"`
	AssigneeID    string  `json:"assignee_id"`
	AttachmentRef *string `json:"attachment_ref,omitempty"`
}

type UpdateTaskRequest struct {
	Title         *string `json:"title,omitempty"`
	Description   *string `json:"description,omitempty"`
	AssigneeID    *string `json:"assignee_id,omitempty"`
	AttachmentRef *string `json:"attachment_ref,omitempty"`
}

type SubmitTaskRequest struct {
	ProofRef string `json:"proof_ref"`
	Message  string `json:"message,omitempty"`
}

type ReviewTaskRequest struct {
	Decision string `json:"decision" enum:"ACCEPT,REJECT"`
	Comment  string `json:"comment,omitempty"`
}

type CreateAPIKeyRequest struct {
	Name string `json:"name"`
}

type DevLoginRequest struct {
	UserID string `json:"user_id"`
}

// Response payloads

type UserResponse struct {
	ID                 string      `json:"id"`
	Username           string      `json:"username"`
	Email              string      `json:"email"`
	Role               domain.Role `json:"role" enum:"SUPER_ADMIN,DEPT_HEAD,EMPLOYEE"`
	DepartmentID       *string     `json:"department_id,omitempty"`
	Active             bool        `json:"active"`
	EmailNotifications bool        `json:"email_notifications"`
	CreatedAt          string      `json:"created_at"`
}

type DepartmentResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	HeadUserID  *string `json:"head_user_id,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

type TaskResponse struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	Description   string            `json:"description,omitempty"`
	Status        domain.TaskStatus `json:"status" enum:"PENDING,IN_PROGRESS,SUBMITTED,COMPLETED"`
	CreatorID     string            `json:"creator_id"`
	AssigneeID    string            `json:"assignee_id"`
	AttachmentRef *string           `json:"attachment_ref,omitempty"`
	ProofRef      *string           `json:"proof_ref,omitempty"`
	CreatedAt     string            `json:"created_at"`
	UpdatedAt     string            `json:"updated_at"`
}

type HistoryEntryResponse struct {
	ID      int64                `json:"id"`
	TaskID  string               `json:"task_id"`
	ActorID string               `json:"actor_id"`
	Action  domain.HistoryAction `json:"action" enum:"CREATED,STARTED,SUBMITTED,ACCEPTED,REJECTED"`
	Comment string               `json:"comment"`
	FileRef *string              `json:"file_ref,omitempty"`
	TS      string               `json:"ts"`
}

type StatsResponse struct {
	Pending    int64 `json:"pending"`
	InProgress int64 `json:"in_progress"`
	Submitted  int64 `json:"submitted"`
	Completed  int64 `json:"completed"`
	Total      int64 `json:"total"`
}

type APIKeyResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
	// Key is only returned once, at creation time.
	Key string `json:"key,omitempty"`
}

type DevLoginResponse struct {
	Token string `json:"token"`
}

type paginatedTasks struct {
	Items      []TaskResponse `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// Conversion helpers

func userResponse(u domain.User) UserResponse {
	return UserResponse(u)
}

func departmentResponse(d domain.Department) DepartmentResponse {
	return DepartmentResponse(d)
}

func taskResponse(t domain.Task) TaskResponse {
	return TaskResponse(t)
}

func historyResponse(h domain.HistoryEntry) HistoryEntryResponse {
	return HistoryEntryResponse(h)
}

func statsResponse(s domain.TaskStats) StatsResponse {
	return StatsResponse(s)
}

func mapUsers(items []domain.User) []UserResponse {
	res := make([]UserResponse, 0, len(items))
	for _, u := range items {
		res = append(res, userResponse(u))
	}
	return res
}

func mapDepartments(items []domain.Department) []DepartmentResponse {
	res := make([]DepartmentResponse, 0, len(items))
	for _, d := range items {
		res = append(res, departmentResponse(d))
	}
	return res
}

func mapTasks(items []domain.Task) []TaskResponse {
	res := make([]TaskResponse, 0, len(items))
	for _, t := range items {
		res = append(res, taskResponse(t))
	}
	return res
}

func mapHistory(items []domain.HistoryEntry) []HistoryEntryResponse {
	res := make([]HistoryEntryResponse, 0, len(items))
	for _, h := range items {
		res = append(res, historyResponse(h))
	}
	return res
}

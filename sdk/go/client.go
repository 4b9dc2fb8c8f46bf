package taskdesksdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Taskdesk HTTP API client.
type Client struct {
	BaseURL     string
	APIKey      string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// Task represents the API task model.
type Task struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Description   string  `json:"description,omitempty"`
	Status        string  `json:"status"`
	CreatorID     string  `json:"creator_id"`
	AssigneeID    string  `json:"assignee_id"`
	AttachmentRef *string `json:"attachment_ref,omitempty"`
	ProofRef      *string `json:"proof_ref,omitempty"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

// User represents a directory entry.
type User struct {
	ID           string  `json:"id"`
	Username     string  `json:"username"`
	Email        string  `json:"email"`
	Role         string  `json:"role"`
	DepartmentID *string `json:"department_id,omitempty"`
}

// HistoryEntry represents one row of a task's ledger.
type HistoryEntry struct {
	ID      int64   `json:"id"`
	TaskID  string  `json:"task_id"`
	ActorID string  `json:"actor_id"`
	Action  string  `json:"action"`
	Comment string  `json:"comment"`
	FileRef *string `json:"file_ref,omitempty"`
	TS      string  `json:"ts"`
}

// Stats represents per-status task counts.
type Stats struct {
	Pending    int64 `json:"pending"`
	InProgress int64 `json:"in_progress"`
	Submitted  int64 `json:"submitted"`
	Completed  int64 `json:"completed"`
	Total      int64 `json:"total"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// PaginatedTasks wraps list responses with cursors.
type PaginatedTasks struct {
	Items      []Task `json:"items"`
	NextCursor string `json:"next_cursor"`
}

// CreateTask creates and assigns a task.
func (c *Client) CreateTask(ctx context.Context, title, assigneeID string) (Task, error) {
	body := map[string]any{
		"title":       title,
		"assignee_id": assigneeID,
	}
	var resp Task
	err := c.do(ctx, http.MethodPost, "v1/tasks", body, &resp)
	return resp, err
}

// StartTask moves a pending task to IN_PROGRESS.
func (c *Client) StartTask(ctx context.Context, taskID string) (Task, error) {
	var resp Task
	endpoint := fmt.Sprintf("v1/tasks/%s/start", url.PathEscape(taskID))
	err := c.do(ctx, http.MethodPost, endpoint, nil, &resp)
	return resp, err
}

// SubmitTask submits a task for review with a proof reference.
func (c *Client) SubmitTask(ctx context.Context, taskID, proofRef, message string) (Task, error) {
	body := map[string]any{
		"proof_ref": proofRef,
		"message":   message,
	}
	var resp Task
	endpoint := fmt.Sprintf("v1/tasks/%s/submit", url.PathEscape(taskID))
	err := c.do(ctx, http.MethodPost, endpoint, body, &resp)
	return resp, err
}

// ReviewTask accepts or rejects a submitted task.
func (c *Client) ReviewTask(ctx context.Context, taskID, decision, comment string) (Task, error) {
	body := map[string]any{
		"decision": decision,
		"comment":  comment,
	}
	var resp Task
	endpoint := fmt.Sprintf("v1/tasks/%s/review", url.PathEscape(taskID))
	err := c.do(ctx, http.MethodPost, endpoint, body, &resp)
	return resp, err
}

// Tasks returns visible tasks.
func (c *Client) Tasks(ctx context.Context, limit int) ([]Task, error) {
	page, err := c.TasksPage(ctx, limit, "")
	return page.Items, err
}

// TasksPage returns a paginated task listing.
func (c *Client) TasksPage(ctx context.Context, limit int, cursor string) (PaginatedTasks, error) {
	endpoint := "v1/tasks"
	if limit > 0 {
		endpoint = fmt.Sprintf("%s?limit=%d", endpoint, limit)
	}
	if cursor != "" {
		sep := "?"
		if strings.Contains(endpoint, "?") {
			sep = "&"
		}
		endpoint = fmt.Sprintf("%s%scursor=%s", endpoint, sep, url.QueryEscape(cursor))
	}
	var resp PaginatedTasks
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// History returns a task's ledger, newest first.
func (c *Client) History(ctx context.Context, taskID string) ([]HistoryEntry, error) {
	var resp []HistoryEntry
	endpoint := fmt.Sprintf("v1/tasks/%s/history", url.PathEscape(taskID))
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// UserStats returns per-status task counts for a user.
func (c *Client) UserStats(ctx context.Context, userID, from, to string) (Stats, error) {
	endpoint := fmt.Sprintf("v1/users/%s/stats", url.PathEscape(userID))
	params := url.Values{}
	if from != "" {
		params.Set("from", from)
	}
	if to != "" {
		params.Set("to", to)
	}
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	var resp Stats
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// CreateUser adds a directory entry.
func (c *Client) CreateUser(ctx context.Context, username, email, role string, departmentID string) (User, error) {
	body := map[string]any{
		"username": username,
		"email":    email,
		"role":     role,
	}
	if departmentID != "" {
		body["department_id"] = departmentID
	}
	var resp User
	err := c.do(ctx, http.MethodPost, "v1/users", body, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}

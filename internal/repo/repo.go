package repo

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"taskdesk/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

const taskColumns = `id,title,description,status,creator_id,assignee_id,attachment_ref,proof_ref,created_at,updated_at`

func scanTask(scan func(dest ...any) error) (domain.Task, error) {
	var t domain.Task
	var description, attachment, proof sql.NullString
	err := scan(&t.ID, &t.Title, &description, &t.Status, &t.CreatorID, &t.AssigneeID, &attachment, &proof, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return t, ErrNotFound
	}
	if err != nil {
		return t, err
	}
	if description.Valid {
		t.Description = description.String
	}
	if attachment.Valid {
		t.AttachmentRef = &attachment.String
	}
	if proof.Valid {
		t.ProofRef = &proof.String
	}
	return t, nil
}

func (r Repo) InsertTask(ctx context.Context, tx *sql.Tx, t domain.Task) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO tasks(`+taskColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?)`,
		t.ID, t.Title, nullable(t.Description), t.Status, t.CreatorID, t.AssigneeID,
		nullableStringPtr(t.AttachmentRef), nullableStringPtr(t.ProofRef), t.CreatedAt, t.UpdatedAt)
	return err
}

func (r Repo) UpdateTask(ctx context.Context, tx *sql.Tx, t domain.Task) error {
	_, err := tx.ExecContext(ctx, `UPDATE tasks SET title=?, description=?, status=?, assignee_id=?, attachment_ref=?, proof_ref=?, updated_at=? WHERE id=?`,
		t.Title, nullable(t.Description), t.Status, t.AssigneeID,
		nullableStringPtr(t.AttachmentRef), nullableStringPtr(t.ProofRef), t.UpdatedAt, t.ID)
	return err
}

func (r Repo) DeleteTask(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) GetTask(ctx context.Context, id string) (domain.Task, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id=?`, id)
	return scanTask(row.Scan)
}

// GetTaskTx reads a task inside the caller's transaction. Lifecycle
// transitions use it so the precondition check and the status update happen
// under the same write transaction.
func (r Repo) GetTaskTx(ctx context.Context, tx *sql.Tx, id string) (domain.Task, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id=?`, id)
	return scanTask(row.Scan)
}

// TaskFilters narrows ListTasks. VisibleToCreator/VisibleToAssignee combine
// as OR when both are set; exactly-one means only that side.
type TaskFilters struct {
	VisibleToCreator  string
	VisibleToAssignee string
	Status            domain.TaskStatus
	CreatedFrom       string
	CreatedTo         string
	Limit             int
	CursorCreatedAt   string
	CursorID          string
}

func (r Repo) ListTasks(ctx context.Context, f TaskFilters) ([]domain.Task, error) {
	var clauses []string
	var args []any
	switch {
	case f.VisibleToCreator != "" && f.VisibleToAssignee != "":
		clauses = append(clauses, "(creator_id=? OR assignee_id=?)")
		args = append(args, f.VisibleToCreator, f.VisibleToAssignee)
	case f.VisibleToCreator != "":
		clauses = append(clauses, "creator_id=?")
		args = append(args, f.VisibleToCreator)
	case f.VisibleToAssignee != "":
		clauses = append(clauses, "assignee_id=?")
		args = append(args, f.VisibleToAssignee)
	}
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	if f.CreatedFrom != "" {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, utcBound(f.CreatedFrom))
	}
	if f.CreatedTo != "" {
		clauses = append(clauses, "created_at <= ?")
		args = append(args, utcBound(f.CreatedTo))
	}
	if f.CursorCreatedAt != "" && f.CursorID != "" {
		clauses = append(clauses, "(created_at < ? OR (created_at = ? AND id < ?))")
		args = append(args, f.CursorCreatedAt, f.CursorCreatedAt, f.CursorID)
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	query := `SELECT ` + taskColumns + ` FROM tasks ` + where + ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Task
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

// CountTasksByStatusForAssignee aggregates task counts per status for one
// assignee, bounded by inclusive created_at timestamps.
func (r Repo) CountTasksByStatusForAssignee(ctx context.Context, assigneeID, from, to string) (map[domain.TaskStatus]int64, error) {
	clauses := []string{"assignee_id=?"}
	args := []any{assigneeID}
	if from != "" {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, utcBound(from))
	}
	if to != "" {
		clauses = append(clauses, "created_at <= ?")
		args = append(args, utcBound(to))
	}
	query := `SELECT status, count(*) FROM tasks WHERE ` + strings.Join(clauses, " AND ") + ` GROUP BY status`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := map[domain.TaskStatus]int64{}
	for rows.Next() {
		var status domain.TaskStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		res[status] = count
	}
	return res, rows.Err()
}

// utcBound re-encodes an RFC3339 bound in UTC. Stored timestamps are UTC and
// compared lexicographically, so an offset-formatted bound would otherwise
// compare by its text, not its instant. Unparseable input is bound as given.
func utcBound(v string) string {
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return v
	}
	return t.UTC().Format(time.RFC3339)
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullableStringPtr(v *string) any {
	if v == nil {
		return nil
	}
	if *v == "" {
		return nil
	}
	return *v
}

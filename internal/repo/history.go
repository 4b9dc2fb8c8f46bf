package repo

import (
	"context"
	"database/sql"

	"taskdesk/internal/domain"
)

const historyColumns = `id,task_id,actor_id,action,comment,file_ref,ts`

func scanHistory(scan func(dest ...any) error) (domain.HistoryEntry, error) {
	var h domain.HistoryEntry
	var comment, fileRef sql.NullString
	err := scan(&h.ID, &h.TaskID, &h.ActorID, &h.Action, &comment, &fileRef, &h.TS)
	if err == sql.ErrNoRows {
		return h, ErrNotFound
	}
	if err != nil {
		return h, err
	}
	if comment.Valid {
		h.Comment = comment.String
	}
	if fileRef.Valid {
		h.FileRef = &fileRef.String
	}
	return h, nil
}

// ListHistoryByTask returns the ledger for one task, newest entry first.
// The id sequence is the insertion order, so id DESC matches timestamp DESC
// even when entries share a timestamp.
func (r Repo) ListHistoryByTask(ctx context.Context, taskID string) ([]domain.HistoryEntry, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+historyColumns+` FROM task_history WHERE task_id=? ORDER BY id DESC`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.HistoryEntry
	for rows.Next() {
		h, err := scanHistory(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, h)
	}
	return res, rows.Err()
}

// LatestHistoryEntry returns the most recent ledger entry for a task.
func (r Repo) LatestHistoryEntry(ctx context.Context, taskID string) (domain.HistoryEntry, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+historyColumns+` FROM task_history WHERE task_id=? ORDER BY id DESC LIMIT 1`, taskID)
	return scanHistory(row.Scan)
}

// CountHistoryBeyondCreation reports how many ledger entries a task has other
// than its CREATED entry. Used by delete to tell whether the task ever left
// PENDING.
func (r Repo) CountHistoryBeyondCreation(ctx context.Context, tx *sql.Tx, taskID string) (int64, error) {
	var n int64
	err := tx.QueryRowContext(ctx, `SELECT count(*) FROM task_history WHERE task_id=? AND action != ?`, taskID, domain.ActionCreated).Scan(&n)
	return n, err
}

// HistoryAfter returns ledger entries with IDs greater than the cursor in
// ascending order, across all tasks. Feeds the webhook dispatcher.
func (r Repo) HistoryAfter(ctx context.Context, limit int, cursor int64) ([]domain.HistoryEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT `+historyColumns+` FROM task_history WHERE id>? ORDER BY id ASC LIMIT ?`, cursor, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.HistoryEntry
	for rows.Next() {
		h, err := scanHistory(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, h)
	}
	return res, rows.Err()
}

// LatestHistoryID returns the most recent ledger entry ID.
func (r Repo) LatestHistoryID(ctx context.Context) (int64, error) {
	var id int64
	err := r.DB.QueryRowContext(ctx, `SELECT COALESCE(MAX(id),0) FROM task_history`).Scan(&id)
	return id, err
}

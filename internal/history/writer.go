package history

import (
	"context"
	"database/sql"
	"time"

	"taskdesk/internal/domain"
)

// Writer appends ledger entries. Append always runs inside the caller's
// transaction so a task mutation and its ledger entry commit together or not
// at all.
type Writer struct {
	DB  *sql.DB
	Now func() time.Time
}

func (w Writer) Append(ctx context.Context, tx *sql.Tx, taskID, actorID string, action domain.HistoryAction, comment string, fileRef *string) error {
	if w.Now == nil {
		w.Now = time.Now
	}
	ts := w.Now().UTC().Format(time.RFC3339)
	_, err := tx.ExecContext(ctx, `INSERT INTO task_history(task_id,actor_id,action,comment,file_ref,ts) VALUES (?,?,?,?,?,?)`,
		taskID, actorID, action, nullable(comment), nullableStringPtr(fileRef), ts)
	return err
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullableStringPtr(v *string) any {
	if v == nil || *v == "" {
		return nil
	}
	return *v
}

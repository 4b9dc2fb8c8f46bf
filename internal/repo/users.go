package repo

import (
	"context"
	"database/sql"
	"strings"

	"taskdesk/internal/domain"
)

const userColumns = `id,username,email,role,department_id,active,email_notifications,created_at`

func scanUser(scan func(dest ...any) error) (domain.User, error) {
	var u domain.User
	var dept sql.NullString
	var active, notify int
	err := scan(&u.ID, &u.Username, &u.Email, &u.Role, &dept, &active, &notify, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return u, ErrNotFound
	}
	if err != nil {
		return u, err
	}
	if dept.Valid {
		u.DepartmentID = &dept.String
	}
	u.Active = active != 0
	u.EmailNotifications = notify != 0
	return u, nil
}

func (r Repo) InsertUser(ctx context.Context, tx *sql.Tx, u domain.User) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO users(`+userColumns+`) VALUES (?,?,?,?,?,?,?,?)`,
		u.ID, u.Username, u.Email, u.Role, nullableStringPtr(u.DepartmentID),
		boolInt(u.Active), boolInt(u.EmailNotifications), u.CreatedAt)
	return err
}

func (r Repo) GetUser(ctx context.Context, id string) (domain.User, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id=?`, id)
	return scanUser(row.Scan)
}

func (r Repo) GetUserTx(ctx context.Context, tx *sql.Tx, id string) (domain.User, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id=?`, id)
	return scanUser(row.Scan)
}

func (r Repo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username=?`, username)
	return scanUser(row.Scan)
}

// Uniqueness checks run in the caller's transaction so the check and the
// insert it guards commit under the same write lock.
func (r Repo) UserExistsByEmail(ctx context.Context, tx *sql.Tx, email string) (bool, error) {
	return exists(ctx, tx, `SELECT 1 FROM users WHERE email=? LIMIT 1`, email)
}

func (r Repo) UserExistsByUsername(ctx context.Context, tx *sql.Tx, username string) (bool, error) {
	return exists(ctx, tx, `SELECT 1 FROM users WHERE username=? LIMIT 1`, username)
}

func exists(ctx context.Context, tx *sql.Tx, query string, args ...any) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx, query, args...).Scan(&n)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

func (r Repo) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx, `SELECT count(*) FROM users`).Scan(&n)
	return n, err
}

type UserFilters struct {
	Role         domain.Role
	DepartmentID string
}

func (r Repo) ListUsers(ctx context.Context, f UserFilters) ([]domain.User, error) {
	var clauses []string
	var args []any
	if f.Role != "" {
		clauses = append(clauses, "role=?")
		args = append(args, f.Role)
	}
	if f.DepartmentID != "" {
		clauses = append(clauses, "department_id=?")
		args = append(args, f.DepartmentID)
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT `+userColumns+` FROM users `+where+` ORDER BY created_at DESC, id DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.User
	for rows.Next() {
		u, err := scanUser(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, u)
	}
	return res, rows.Err()
}

// SetUserRoleDept updates role and department together; head swaps rely on
// this being called for both sides inside one transaction.
func (r Repo) SetUserRoleDept(ctx context.Context, tx *sql.Tx, userID string, role domain.Role, departmentID *string) error {
	res, err := tx.ExecContext(ctx, `UPDATE users SET role=?, department_id=? WHERE id=?`,
		role, nullableStringPtr(departmentID), userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) SetUserNotifications(ctx context.Context, userID string, enabled bool) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE users SET email_notifications=? WHERE id=?`, boolInt(enabled), userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) SetUserActive(ctx context.Context, userID string, active bool) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE users SET active=? WHERE id=?`, boolInt(active), userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteUser(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

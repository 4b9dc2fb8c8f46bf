package repo

import (
	"context"
	"database/sql"

	"taskdesk/internal/domain"
)

const deptColumns = `id,name,description,head_user_id,created_at`

func scanDepartment(scan func(dest ...any) error) (domain.Department, error) {
	var d domain.Department
	var desc, head sql.NullString
	err := scan(&d.ID, &d.Name, &desc, &head, &d.CreatedAt)
	if err == sql.ErrNoRows {
		return d, ErrNotFound
	}
	if err != nil {
		return d, err
	}
	if desc.Valid {
		d.Description = desc.String
	}
	if head.Valid {
		d.HeadUserID = &head.String
	}
	return d, nil
}

func (r Repo) InsertDepartment(ctx context.Context, tx *sql.Tx, d domain.Department) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO departments(`+deptColumns+`) VALUES (?,?,?,?,?)`,
		d.ID, d.Name, nullable(d.Description), nullableStringPtr(d.HeadUserID), d.CreatedAt)
	return err
}

func (r Repo) GetDepartment(ctx context.Context, id string) (domain.Department, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+deptColumns+` FROM departments WHERE id=?`, id)
	return scanDepartment(row.Scan)
}

func (r Repo) GetDepartmentTx(ctx context.Context, tx *sql.Tx, id string) (domain.Department, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+deptColumns+` FROM departments WHERE id=?`, id)
	return scanDepartment(row.Scan)
}

func (r Repo) GetDepartmentByHead(ctx context.Context, headUserID string) (domain.Department, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+deptColumns+` FROM departments WHERE head_user_id=?`, headUserID)
	return scanDepartment(row.Scan)
}

func (r Repo) GetDepartmentByHeadTx(ctx context.Context, tx *sql.Tx, headUserID string) (domain.Department, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+deptColumns+` FROM departments WHERE head_user_id=?`, headUserID)
	return scanDepartment(row.Scan)
}

func (r Repo) DepartmentExistsByName(ctx context.Context, tx *sql.Tx, name string) (bool, error) {
	return exists(ctx, tx, `SELECT 1 FROM departments WHERE name=? LIMIT 1`, name)
}

func (r Repo) ListDepartments(ctx context.Context) ([]domain.Department, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+deptColumns+` FROM departments ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Department
	for rows.Next() {
		d, err := scanDepartment(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, d)
	}
	return res, rows.Err()
}

func (r Repo) UpdateDepartment(ctx context.Context, tx *sql.Tx, d domain.Department) error {
	res, err := tx.ExecContext(ctx, `UPDATE departments SET name=?, description=?, head_user_id=? WHERE id=?`,
		d.Name, nullable(d.Description), nullableStringPtr(d.HeadUserID), d.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteDepartment(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM departments WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/student-profiles/internal/apperror"
	"github.com/sakif/student-profiles/internal/model"
	"github.com/sakif/student-profiles/internal/repository"
)

var _ repository.AdminRepository = (*AdminStore)(nil)

// adminID is the only primary key the admin table accepts.
const adminID = 1

// AdminStore is the admin singleton view of the database. It shares the
// connection owned by DB.
type AdminStore struct {
	conn *sql.DB
}

// Admin returns the admin singleton store.
func (db *DB) Admin() *AdminStore {
	return &AdminStore{conn: db.conn}
}

func (st *AdminStore) Get(ctx context.Context) (*model.Admin, error) {
	var a model.Admin
	err := st.conn.QueryRowContext(ctx,
		`SELECT password_hash, created_at, updated_at FROM admin WHERE id = ?`, adminID,
	).Scan(&a.PasswordHash, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("Admin")
		}
		return nil, fmt.Errorf("sqlite: getting admin: %w", err)
	}
	return &a, nil
}

// CreateIfAbsent relies on the fixed primary key: ON CONFLICT DO NOTHING turns
// a second bootstrap, even a concurrent one, into a no-op.
func (st *AdminStore) CreateIfAbsent(ctx context.Context, a *model.Admin) (bool, error) {
	now := time.Now().UTC()
	result, err := st.conn.ExecContext(ctx,
		`INSERT INTO admin (id, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		adminID, a.PasswordHash, now, now,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: creating admin: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	a.CreatedAt = now
	a.UpdatedAt = now
	return true, nil
}

func (st *AdminStore) UpdatePassword(ctx context.Context, hash string) error {
	result, err := st.conn.ExecContext(ctx,
		`UPDATE admin SET password_hash = ?, updated_at = ? WHERE id = ?`,
		hash, time.Now().UTC(), adminID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating admin password: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("Admin")
	}
	return nil
}

// Package users stores accounts: credentials, role and the failed-login
// throttle state.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lostify/lostify/internal/common"
	"github.com/lostify/lostify/internal/dbx"
	"github.com/lostify/lostify/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (username, password, role)
		 VALUES ($1, $2, $3)
		 RETURNING id`

	err := r.db.QueryRowContext(ctx, query, user.Username, user.PasswordHash, int16(user.Role)).Scan(&user.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query :=
		`SELECT id, username, password, role, counter, last_attempt FROM users
		 WHERE username = $1`

	return r.scanUser(r.db.QueryRowContext(ctx, query, username))
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query :=
		`SELECT id, username, password, role, counter, last_attempt FROM users
		 WHERE id = $1`

	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) scanUser(row *sql.Row) (*models.User, error) {
	var (
		user        models.User
		role        int16
		lastAttempt sql.NullTime
	)

	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &role, &user.Counter, &lastAttempt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.Role = models.Role(role)
	if lastAttempt.Valid {
		t := lastAttempt.Time
		user.LastAttempt = &t
	}
	return &user, nil
}

func (r *PostgresRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) RecordFailedLogin(ctx context.Context, id int64, at, restartBefore time.Time, limit int) (int, error) {
	query :=
		`UPDATE users
		 SET counter = CASE WHEN counter >= $3 AND last_attempt <= $4 THEN 1 ELSE counter + 1 END,
		     last_attempt = $2
		 WHERE id = $1
		 RETURNING counter`

	var counter int
	err := r.db.QueryRowContext(ctx, query, id, at, limit, restartBefore).Scan(&counter)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return counter, nil
}

func (r *PostgresRepository) ResetFailedLogins(ctx context.Context, id int64) error {
	return r.execOne(ctx, `UPDATE users SET counter = 0 WHERE id = $1`, id)
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	return r.execOne(ctx, `UPDATE users SET password = $2 WHERE id = $1`, id, hash)
}

func (r *PostgresRepository) SetRole(ctx context.Context, username string, role models.Role) error {
	return r.execOne(ctx, `UPDATE users SET role = $2 WHERE username = $1`, username, int16(role))
}

// execOne runs an UPDATE expected to touch exactly one row.
func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// Package pendingsignups keeps signups that are waiting for their OTP.
package pendingsignups

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

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

// Upsert stores p, replacing any earlier pending signup for the username.
func (r *PostgresRepository) Upsert(ctx context.Context, p *models.PendingSignup) error {
	profile, err := json.Marshal(p.Profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	query :=
		`INSERT INTO await_otp (username, password, otp, created, profile)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (username) DO UPDATE
		 SET password = EXCLUDED.password,
		     otp = EXCLUDED.otp,
		     created = EXCLUDED.created,
		     profile = EXCLUDED.profile`

	if _, err := r.db.ExecContext(ctx, query, p.Username, p.PasswordHash, p.OTP, p.Created, string(profile)); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

const selectPending = `SELECT username, password, otp, created, profile
		 FROM await_otp WHERE username = $1`

func (r *PostgresRepository) Get(ctx context.Context, username string) (*models.PendingSignup, error) {
	return r.get(ctx, selectPending, username)
}

func (r *PostgresRepository) GetForUpdate(ctx context.Context, username string) (*models.PendingSignup, error) {
	return r.get(ctx, selectPending+" FOR UPDATE", username)
}

func (r *PostgresRepository) get(ctx context.Context, query, username string) (*models.PendingSignup, error) {
	var (
		p       models.PendingSignup
		profile []byte
	)
	err := r.db.QueryRowContext(ctx, query, username).Scan(&p.Username, &p.PasswordHash, &p.OTP, &p.Created, &profile)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if err := json.Unmarshal(profile, &p.Profile); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &p, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, username string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM await_otp WHERE username = $1`, username); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

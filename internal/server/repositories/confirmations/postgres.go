// Package confirmations stores pending claim offers keyed by (post, initiator).
package confirmations

import (
	"context"
	"fmt"

	"github.com/lostify/lostify/internal/dbx"
	"github.com/lostify/lostify/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, c models.Confirmation) error {
	query :=
		`INSERT INTO confirmations (postid, initid, otherid)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (postid, initid) DO UPDATE SET otherid = EXCLUDED.otherid`

	if _, err := r.db.ExecContext(ctx, query, c.PostID, c.InitID, c.OtherID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Exists(ctx context.Context, c models.Confirmation) (bool, error) {
	query :=
		`SELECT EXISTS (
		   SELECT 1 FROM confirmations WHERE postid = $1 AND initid = $2 AND otherid = $3
		 )`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, c.PostID, c.InitID, c.OtherID).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) DeleteForPost(ctx context.Context, postID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM confirmations WHERE postid = $1`, postID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

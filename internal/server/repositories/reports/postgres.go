// Package reports stores one abuse report per (post, user) pair.
package reports

import (
	"context"
	"fmt"

	"github.com/lostify/lostify/internal/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Add(ctx context.Context, postID, userID int64) (bool, error) {
	return r.changed(ctx,
		`INSERT INTO reports (postid, userid) VALUES ($1, $2) ON CONFLICT (postid, userid) DO NOTHING`,
		postID, userID)
}

func (r *PostgresRepository) Remove(ctx context.Context, postID, userID int64) (bool, error) {
	return r.changed(ctx, `DELETE FROM reports WHERE postid = $1 AND userid = $2`, postID, userID)
}

func (r *PostgresRepository) changed(ctx context.Context, query string, args ...any) (bool, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n == 1, nil
}

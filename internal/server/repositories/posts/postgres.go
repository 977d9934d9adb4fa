// Package posts stores lost and found item posts.
package posts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/lostify/lostify/internal/common"
	"github.com/lostify/lostify/internal/dbx"
	"github.com/lostify/lostify/internal/server/models"
)

const postColumns = `id, title, creator, description, image, type, location1, location2, date, closed_by, closed_date, report_count`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*models.Post, error) {
	var (
		p          models.Post
		postType   int16
		closedBy   sql.NullInt64
		closedDate sql.NullTime
	)
	err := row.Scan(&p.ID, &p.Title, &p.Creator, &p.Description, (*[]byte)(&p.Image), &postType,
		&p.Location1, &p.Location2, &p.Date, &closedBy, &closedDate, &p.ReportCount)
	if err != nil {
		return nil, err
	}

	p.Type = models.PostType(postType)
	if closedBy.Valid {
		p.ClosedBy = &closedBy.Int64
	}
	if closedDate.Valid {
		p.ClosedDate = &closedDate.Time
	}
	return &p, nil
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.Post) (int64, error) {
	query :=
		`INSERT INTO posts (title, creator, description, image, type, location1, location2, date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		p.Title, p.Creator, p.Description, []byte(p.Image), int16(p.Type), p.Location1, p.Location2, p.Date,
	).Scan(&p.ID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return p.ID, nil
}

func (r *PostgresRepository) get(ctx context.Context, query string, id int64) (*models.Post, error) {
	p, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (*models.Post, error) {
	return r.get(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1`, id)
}

func (r *PostgresRepository) GetForUpdate(ctx context.Context, id int64) (*models.Post, error) {
	return r.get(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1 FOR UPDATE`, id)
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Post, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+postColumns+` FROM posts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Post, 0)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func assignments(patch models.PostPatch) []dbx.Assignment {
	var out []dbx.Assignment
	if patch.Title != nil {
		out = append(out, dbx.Assignment{Column: "title", Value: *patch.Title})
	}
	if patch.Description != nil {
		out = append(out, dbx.Assignment{Column: "description", Value: *patch.Description})
	}
	if patch.Image != nil {
		out = append(out, dbx.Assignment{Column: "image", Value: []byte(*patch.Image)})
	}
	if patch.Location1 != nil {
		out = append(out, dbx.Assignment{Column: "location1", Value: *patch.Location1})
	}
	if patch.Location2 != nil {
		out = append(out, dbx.Assignment{Column: "location2", Value: *patch.Location2})
	}
	return out
}

func (r *PostgresRepository) Update(ctx context.Context, id int64, patch models.PostPatch) error {
	set := assignments(patch)
	if len(set) == 0 {
		return common.NewError(common.ErrorBadRequest, "No fields to update.")
	}

	clause, args := dbx.SetClause(set, 1)
	query := `UPDATE posts SET ` + clause + ` WHERE id = $` + strconv.Itoa(len(args)+1)

	return r.execOne(ctx, query, append(args, id)...)
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	return r.execOne(ctx, `DELETE FROM posts WHERE id = $1`, id)
}

// Close sets closed_by once; a post that is already closed yields ErrorConflict.
func (r *PostgresRepository) Close(ctx context.Context, id, closedBy int64, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE posts SET closed_by = $2, closed_date = $3 WHERE id = $1 AND closed_by IS NULL`,
		id, closedBy, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorConflict
	}
	return nil
}

func (r *PostgresRepository) AdjustReportCount(ctx context.Context, id int64, delta int) error {
	return r.execOne(ctx, `UPDATE posts SET report_count = report_count + $2 WHERE id = $1`, id, delta)
}

func (r *PostgresRepository) ReportCount(ctx context.Context, id int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT report_count FROM posts WHERE id = $1`, id).Scan(&count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return count, nil
}

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

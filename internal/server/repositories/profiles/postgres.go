// Package profiles stores the public profile and presence flag of each user.
package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

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

func (r *PostgresRepository) Create(ctx context.Context, p *models.Profile) error {
	query :=
		`INSERT INTO profiles (userid, name, phone, email, address, designation, roll, image)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		p.UserID, p.Name, p.Phone, p.Email, p.Address, p.Designation, p.Roll, []byte(p.Image))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID int64) (*models.Profile, error) {
	query :=
		`SELECT userid, name, phone, email, address, designation, roll, image, online
		 FROM profiles WHERE userid = $1`

	var p models.Profile
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID, &p.Name, &p.Phone, &p.Email, &p.Address, &p.Designation, &p.Roll, (*[]byte)(&p.Image), &p.Online)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &p, nil
}

// assignments maps the set fields of patch to columns, in a fixed order.
func assignments(patch models.ProfilePatch) []dbx.Assignment {
	var out []dbx.Assignment
	if patch.Name != nil {
		out = append(out, dbx.Assignment{Column: "name", Value: *patch.Name})
	}
	if patch.Phone != nil {
		out = append(out, dbx.Assignment{Column: "phone", Value: *patch.Phone})
	}
	if patch.Email != nil {
		out = append(out, dbx.Assignment{Column: "email", Value: *patch.Email})
	}
	if patch.Address != nil {
		out = append(out, dbx.Assignment{Column: "address", Value: *patch.Address})
	}
	if patch.Designation != nil {
		out = append(out, dbx.Assignment{Column: "designation", Value: *patch.Designation})
	}
	if patch.Roll != nil {
		out = append(out, dbx.Assignment{Column: "roll", Value: *patch.Roll})
	}
	if patch.Image != nil {
		out = append(out, dbx.Assignment{Column: "image", Value: []byte(*patch.Image)})
	}
	return out
}

func (r *PostgresRepository) Update(ctx context.Context, userID int64, patch models.ProfilePatch) error {
	set := assignments(patch)
	if len(set) == 0 {
		return common.NewError(common.ErrorBadRequest, "At least one field is required")
	}

	clause, args := dbx.SetClause(set, 1)
	query := `UPDATE profiles SET ` + clause + ` WHERE userid = $` + strconv.Itoa(len(args)+1)

	res, err := r.db.ExecContext(ctx, query, append(args, userID)...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireOne(res)
}

func (r *PostgresRepository) GetOnline(ctx context.Context, userID int64) (bool, error) {
	var online bool
	err := r.db.QueryRowContext(ctx, `SELECT online FROM profiles WHERE userid = $1`, userID).Scan(&online)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, common.ErrorNotFound
		}
		return false, fmt.Errorf("db error: %w", err)
	}
	return online, nil
}

func (r *PostgresRepository) SetOnline(ctx context.Context, userID int64, online bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE profiles SET online = $2 WHERE userid = $1`, userID, online)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireOne(res)
}

func requireOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

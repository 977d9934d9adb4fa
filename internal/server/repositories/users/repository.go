package users

import (
	"context"
	"time"

	"github.com/lostify/lostify/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	Exists(ctx context.Context, id int64) (bool, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)
	// RecordFailedLogin bumps the failed-login counter and stamps at. A user
	// sitting at limit or above whose last failure is not after restartBefore
	// starts over at 1. It returns the stored counter.
	RecordFailedLogin(ctx context.Context, id int64, at, restartBefore time.Time, limit int) (int, error)
	ResetFailedLogins(ctx context.Context, id int64) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
	SetRole(ctx context.Context, username string, role models.Role) error
}

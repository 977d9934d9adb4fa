package pendingsignups

import (
	"context"

	"github.com/lostify/lostify/internal/server/models"
)

type Repository interface {
	Upsert(ctx context.Context, p *models.PendingSignup) error
	Get(ctx context.Context, username string) (*models.PendingSignup, error)
	// GetForUpdate is Get holding a row lock until the transaction ends.
	GetForUpdate(ctx context.Context, username string) (*models.PendingSignup, error)
	Delete(ctx context.Context, username string) error
}

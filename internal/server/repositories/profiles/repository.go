package profiles

import (
	"context"

	"github.com/lostify/lostify/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, p *models.Profile) error
	Get(ctx context.Context, userID int64) (*models.Profile, error)
	Update(ctx context.Context, userID int64, patch models.ProfilePatch) error
	GetOnline(ctx context.Context, userID int64) (bool, error)
	SetOnline(ctx context.Context, userID int64, online bool) error
}

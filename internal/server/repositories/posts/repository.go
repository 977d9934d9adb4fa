package posts

import (
	"context"
	"time"

	"github.com/lostify/lostify/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, p *models.Post) (int64, error)
	Get(ctx context.Context, id int64) (*models.Post, error)
	List(ctx context.Context) ([]*models.Post, error)
	// GetForUpdate reads the post and row-locks it until the enclosing
	// transaction ends.
	GetForUpdate(ctx context.Context, id int64) (*models.Post, error)
	Update(ctx context.Context, id int64, patch models.PostPatch) error
	Delete(ctx context.Context, id int64) error
	Close(ctx context.Context, id, closedBy int64, at time.Time) error
	AdjustReportCount(ctx context.Context, id int64, delta int) error
	ReportCount(ctx context.Context, id int64) (int, error)
}

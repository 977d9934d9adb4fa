package confirmations

import (
	"context"

	"github.com/lostify/lostify/internal/server/models"
)

// Repository keeps the directed close offers of the claim handshake.
type Repository interface {
	// Upsert records c, replacing any earlier offer by the same initiator on the same post.
	Upsert(ctx context.Context, c models.Confirmation) error
	Exists(ctx context.Context, c models.Confirmation) (bool, error)
	DeleteForPost(ctx context.Context, postID int64) error
}

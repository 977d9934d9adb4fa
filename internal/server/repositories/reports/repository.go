package reports

import "context"

type Repository interface {
	// Add returns true when a new report row was inserted.
	Add(ctx context.Context, postID, userID int64) (bool, error)
	// Remove returns true when an existing report row was deleted.
	Remove(ctx context.Context, postID, userID int64) (bool, error)
}

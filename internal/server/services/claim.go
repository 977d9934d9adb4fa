package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/lostify/lostify/internal/common"
	"github.com/lostify/lostify/internal/dbx"
	"github.com/lostify/lostify/internal/logging"
	"github.com/lostify/lostify/internal/server/auth"
	"github.com/lostify/lostify/internal/server/models"
	"github.com/lostify/lostify/internal/server/repositories/repomanager"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ClaimResult tells the caller whether its offer closed the post.
type ClaimResult struct {
	Closed   bool   `json:"closed"`
	PostID   int64  `json:"postid"`
	Creator  int64  `json:"creator"`
	ClosedBy *int64 `json:"closedBy,omitempty"`
}

// ClaimService runs the two-party handshake that closes a post. The creator
// names the counterparty; anyone else implicitly names the creator. A post
// closes when both directed offers exist.
type ClaimService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

func NewClaimService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *ClaimService {
	return &ClaimService{
		db:          db,
		repomanager: m,
		logger:      logger.With("module", "claim"),
		tracer:      otel.Tracer("services.claim"),
		now:         time.Now,
	}
}

// Claim records actor's offer on postID, closing the post when the
// counterparty has already offered the mirror image. otherID is only read
// when actor is the creator. The post row stays locked for the whole call.
func (s *ClaimService) Claim(ctx context.Context, postID int64, actor auth.Identity, otherID *int64) (res *ClaimResult, err error) {
	ctx, span := s.tracer.Start(ctx, "claim.Claim",
		trace.WithAttributes(attribute.Int64("claim.post_id", postID), attribute.Int64("claim.actor", actor.UserID)))
	defer func() { endSpan(span, err) }()

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		posts := s.repomanager.Posts(tx)
		confirmations := s.repomanager.Confirmations(tx)

		post, err := posts.GetForUpdate(ctx, postID)
		if err != nil {
			return err
		}
		if post.IsClosed() {
			return common.NewError(common.ErrorConflict, "Post already claimed")
		}

		var (
			counterparty int64
			closedBy     int64
		)
		if actor.UserID == post.Creator {
			if otherID == nil {
				return common.NewError(common.ErrorBadRequest, "Id of second party is required")
			}
			if *otherID == post.Creator {
				return common.NewError(common.ErrorBadRequest, "otherid must differ from the creator")
			}
			exists, err := s.repomanager.Users(tx).Exists(ctx, *otherID)
			if err != nil {
				return err
			}
			if !exists {
				return common.NewError(common.ErrorNotFound, "Second party not found")
			}
			counterparty, closedBy = *otherID, *otherID
		} else {
			counterparty, closedBy = post.Creator, actor.UserID
		}

		res = &ClaimResult{PostID: postID, Creator: post.Creator}

		mirror := models.Confirmation{PostID: postID, InitID: counterparty, OtherID: actor.UserID}
		matched, err := confirmations.Exists(ctx, mirror)
		if err != nil {
			return err
		}
		if !matched {
			return confirmations.Upsert(ctx, models.Confirmation{PostID: postID, InitID: actor.UserID, OtherID: counterparty})
		}

		if err := posts.Close(ctx, postID, closedBy, s.now()); err != nil {
			return err
		}
		if err := confirmations.DeleteForPost(ctx, postID); err != nil {
			return err
		}
		res.Closed = true
		res.ClosedBy = &closedBy
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.Closed {
		s.logger.Info(ctx, "post closed", "post_id", postID, "closed_by", *res.ClosedBy)
	}
	return res, nil
}

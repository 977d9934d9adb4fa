package services

import (
	"context"
	"database/sql"

	"github.com/lostify/lostify/internal/common"
	"github.com/lostify/lostify/internal/dbx"
	"github.com/lostify/lostify/internal/server/auth"
	"github.com/lostify/lostify/internal/server/repositories/repomanager"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// ReportService keeps posts.report_count equal to the number of report rows.
type ReportService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tracer      trace.Tracer
}

func NewReportService(db *sql.DB, m repomanager.RepositoryManager) *ReportService {
	return &ReportService{db: db, repomanager: m, tracer: otel.Tracer("services.reports")}
}

func (s *ReportService) Report(ctx context.Context, postID int64, actor auth.Identity) (err error) {
	ctx, span := s.tracer.Start(ctx, "reports.Report")
	defer func() { endSpan(span, err) }()

	return s.apply(ctx, postID, actor, +1)
}

func (s *ReportService) Unreport(ctx context.Context, postID int64, actor auth.Identity) (err error) {
	ctx, span := s.tracer.Start(ctx, "reports.Unreport")
	defer func() { endSpan(span, err) }()

	return s.apply(ctx, postID, actor, -1)
}

// apply adds (delta > 0) or removes the actor's report and moves the
// counter only when a row actually changed.
func (s *ReportService) apply(ctx context.Context, postID int64, actor auth.Identity, delta int) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		posts := s.repomanager.Posts(tx)
		if _, err := posts.GetForUpdate(ctx, postID); err != nil {
			return err
		}

		reports := s.repomanager.Reports(tx)
		var (
			changed bool
			err     error
		)
		if delta > 0 {
			changed, err = reports.Add(ctx, postID, actor.UserID)
		} else {
			changed, err = reports.Remove(ctx, postID, actor.UserID)
		}
		if err != nil || !changed {
			return err
		}
		return posts.AdjustReportCount(ctx, postID, delta)
	})
}

// Count returns the report tally of a post. Admins only.
func (s *ReportService) Count(ctx context.Context, postID int64, actor auth.Identity) (n int, err error) {
	ctx, span := s.tracer.Start(ctx, "reports.Count")
	defer func() { endSpan(span, err) }()

	if !actor.IsAdmin() {
		return 0, common.NewError(common.ErrorForbidden, "User is not authorised to view report count")
	}
	return s.repomanager.Posts(s.db).ReportCount(ctx, postID)
}

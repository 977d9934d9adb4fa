package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/lostify/lostify/internal/common"
	"github.com/lostify/lostify/internal/logging"
	"github.com/lostify/lostify/internal/server/auth"
	"github.com/lostify/lostify/internal/server/models"
	"github.com/lostify/lostify/internal/server/repositories/repomanager"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ItemService is the catalogue of lost and found posts.
type ItemService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

func NewItemService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *ItemService {
	return &ItemService{
		db:          db,
		repomanager: m,
		logger:      logger.With("module", "items"),
		tracer:      otel.Tracer("services.items"),
		now:         time.Now,
	}
}

// Create stores p on behalf of actor and returns its id. Creator and date
// are assigned here.
func (s *ItemService) Create(ctx context.Context, actor auth.Identity, p *models.Post) (id int64, err error) {
	ctx, span := s.tracer.Start(ctx, "items.Create")
	defer func() { endSpan(span, err) }()

	if p.Title == "" {
		return 0, common.NewError(common.ErrorBadRequest, "Item name is required.")
	}
	if p.Location1 == "" {
		return 0, common.NewError(common.ErrorBadRequest, "Location 1 is required.")
	}
	if !p.Type.Valid() {
		return 0, common.NewError(common.ErrorBadRequest, "Type must be either 0 or 1.")
	}

	p.Creator = actor.UserID
	p.Date = s.now()
	p.ClosedBy, p.ClosedDate, p.ReportCount = nil, nil, 0

	id, err = s.repomanager.Posts(s.db).Create(ctx, p)
	if err != nil {
		return 0, err
	}

	span.SetAttributes(attribute.Int64("items.post_id", id))
	s.logger.Info(ctx, "post created", "post_id", id, "creator", actor.UserID)
	return id, nil
}

func (s *ItemService) Get(ctx context.Context, id int64) (p *models.Post, err error) {
	ctx, span := s.tracer.Start(ctx, "items.Get")
	defer func() { endSpan(span, err) }()

	return s.repomanager.Posts(s.db).Get(ctx, id)
}

func (s *ItemService) List(ctx context.Context) (list []*models.Post, err error) {
	ctx, span := s.tracer.Start(ctx, "items.List")
	defer func() { endSpan(span, err) }()

	return s.repomanager.Posts(s.db).List(ctx)
}

// CheckEditable reports NotFound for a missing post and Forbidden unless
// actor created it.
func (s *ItemService) CheckEditable(ctx context.Context, id int64, actor auth.Identity) error {
	p, err := s.repomanager.Posts(s.db).Get(ctx, id)
	if err != nil {
		return err
	}
	if p.Creator != actor.UserID {
		return common.NewError(common.ErrorForbidden, "User is not creator of post")
	}
	return nil
}

// Update applies patch to a post of actor.
func (s *ItemService) Update(ctx context.Context, id int64, actor auth.Identity, patch models.PostPatch) (err error) {
	ctx, span := s.tracer.Start(ctx, "items.Update")
	defer func() { endSpan(span, err) }()

	if err := s.CheckEditable(ctx, id, actor); err != nil {
		return err
	}
	if patch.IsEmpty() {
		return common.NewError(common.ErrorBadRequest, "No fields to update.")
	}
	if patch.Title != nil && *patch.Title == "" {
		return common.NewError(common.ErrorBadRequest, "Item name is required.")
	}
	if patch.Location1 != nil && *patch.Location1 == "" {
		return common.NewError(common.ErrorBadRequest, "Location 1 is required.")
	}

	return s.repomanager.Posts(s.db).Update(ctx, id, patch)
}

// Delete removes a post; its confirmations and reports go with it.
func (s *ItemService) Delete(ctx context.Context, id int64, actor auth.Identity) (err error) {
	ctx, span := s.tracer.Start(ctx, "items.Delete")
	defer func() { endSpan(span, err) }()

	posts := s.repomanager.Posts(s.db)
	p, err := posts.Get(ctx, id)
	if err != nil {
		return err
	}
	if p.Creator != actor.UserID && !actor.IsAdmin() {
		return common.NewError(common.ErrorForbidden, "User is not authorised to delete post")
	}

	if err := posts.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info(ctx, "post deleted", "post_id", id, "by", actor.UserID)
	return nil
}

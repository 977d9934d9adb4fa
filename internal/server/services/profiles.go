package services

import (
	"context"
	"database/sql"

	"github.com/lostify/lostify/internal/common"
	"github.com/lostify/lostify/internal/server/auth"
	"github.com/lostify/lostify/internal/server/models"
	"github.com/lostify/lostify/internal/server/repositories/repomanager"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

type ProfileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tracer      trace.Tracer
}

func NewProfileService(db *sql.DB, m repomanager.RepositoryManager) *ProfileService {
	return &ProfileService{db: db, repomanager: m, tracer: otel.Tracer("services.profiles")}
}

func (s *ProfileService) Get(ctx context.Context, userID int64) (p *models.Profile, err error) {
	ctx, span := s.tracer.Start(ctx, "profiles.Get")
	defer func() { endSpan(span, err) }()

	return s.repomanager.Profiles(s.db).Get(ctx, userID)
}

func (s *ProfileService) Update(ctx context.Context, owner int64, actor auth.Identity, patch models.ProfilePatch) (err error) {
	ctx, span := s.tracer.Start(ctx, "profiles.Update")
	defer func() { endSpan(span, err) }()

	if err := RequireOwner(owner, actor); err != nil {
		return err
	}
	if patch.IsEmpty() {
		return common.NewError(common.ErrorBadRequest, "At least one field is required")
	}
	if patch.Name != nil && *patch.Name == "" {
		return common.NewError(common.ErrorBadRequest, "Name is required")
	}
	return s.repomanager.Profiles(s.db).Update(ctx, owner, patch)
}

func (s *ProfileService) GetOnline(ctx context.Context, userID int64) (online bool, err error) {
	ctx, span := s.tracer.Start(ctx, "profiles.GetOnline")
	defer func() { endSpan(span, err) }()

	return s.repomanager.Profiles(s.db).GetOnline(ctx, userID)
}

func (s *ProfileService) SetOnline(ctx context.Context, owner int64, actor auth.Identity, online bool) (err error) {
	ctx, span := s.tracer.Start(ctx, "profiles.SetOnline")
	defer func() { endSpan(span, err) }()

	if err := RequireOwner(owner, actor); err != nil {
		return err
	}
	return s.repomanager.Profiles(s.db).SetOnline(ctx, owner, online)
}

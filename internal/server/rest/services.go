package rest

import (
	"context"

	"github.com/lostify/lostify/internal/server/auth"
	"github.com/lostify/lostify/internal/server/models"
	"github.com/lostify/lostify/internal/server/services"
)

// The interfaces below are the slices of the service layer the handlers use.

type AuthService interface {
	RequestSignup(ctx context.Context, username, password string, profile *models.SignupProfile) (string, error)
	VerifySignup(ctx context.Context, username string, otp int) (*models.User, *models.Profile, error)
	Login(ctx context.Context, username, password string) (*services.Session, error)
	Authenticate(token string) (auth.Identity, error)
	ChangePassword(ctx context.Context, actor auth.Identity, oldPassword, newPassword string) error
	ResetPassword(ctx context.Context, username string) error
}

type ItemService interface {
	Create(ctx context.Context, actor auth.Identity, p *models.Post) (int64, error)
	Get(ctx context.Context, id int64) (*models.Post, error)
	List(ctx context.Context) ([]*models.Post, error)
	CheckEditable(ctx context.Context, id int64, actor auth.Identity) error
	Update(ctx context.Context, id int64, actor auth.Identity, patch models.PostPatch) error
	Delete(ctx context.Context, id int64, actor auth.Identity) error
}

type ClaimService interface {
	Claim(ctx context.Context, postID int64, actor auth.Identity, otherID *int64) (*services.ClaimResult, error)
}

type ReportService interface {
	Report(ctx context.Context, postID int64, actor auth.Identity) error
	Unreport(ctx context.Context, postID int64, actor auth.Identity) error
	Count(ctx context.Context, postID int64, actor auth.Identity) (int, error)
}

type ProfileService interface {
	Get(ctx context.Context, userID int64) (*models.Profile, error)
	Update(ctx context.Context, owner int64, actor auth.Identity, patch models.ProfilePatch) error
	GetOnline(ctx context.Context, userID int64) (bool, error)
	SetOnline(ctx context.Context, owner int64, actor auth.Identity, online bool) error
}

// Pinger reports database reachability; *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Package services contains the server-side business logic. Each service
// holds the pool and a RepositoryManager; work that spans several rows runs
// in dbx.WithTx with repositories bound to the transaction.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/lostify/lostify/internal/common"
	"github.com/lostify/lostify/internal/dbx"
	"github.com/lostify/lostify/internal/logging"
	"github.com/lostify/lostify/internal/server/auth"
	"github.com/lostify/lostify/internal/server/config"
	"github.com/lostify/lostify/internal/server/models"
	"github.com/lostify/lostify/internal/server/notify"
	"github.com/lostify/lostify/internal/server/repositories/repomanager"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ThrottledError is returned by Login while the account is locked out.
type ThrottledError struct {
	RetryAfter int // seconds
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("too many failed attempts, retry after %d seconds", e.RetryAfter)
}

func (e *ThrottledError) Unwrap() error { return common.ErrorTooManyRequests }

// Session is a logged-in identity with its signed cookie value.
type Session struct {
	auth.Identity
	Token string
}

// AuthService implements signup with OTP, login throttling and password
// management.
type AuthService struct {
	db              *sql.DB
	repomanager     repomanager.RepositoryManager
	notifier        notify.Notifier
	hasher          auth.PasswordHasher
	logger          logging.Logger
	tracer          trace.Tracer
	emailDomain     string
	secretKey       []byte
	sessionValidity time.Duration
	now             func() time.Time
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, n notify.Notifier, h auth.PasswordHasher,
	cfg *config.Config, logger logging.Logger) *AuthService {
	return &AuthService{
		db:              db,
		repomanager:     m,
		notifier:        n,
		hasher:          h,
		logger:          logger.With("module", "auth"),
		tracer:          otel.Tracer("services.auth"),
		emailDomain:     cfg.EmailDomain,
		secretKey:       []byte(cfg.SecretKey),
		sessionValidity: cfg.SessionValidityDuration,
		now:             time.Now,
	}
}

// EmailFor derives the institutional address of username.
func (s *AuthService) EmailFor(username string) string {
	return username + "@" + s.emailDomain
}

// RequestSignup mails an OTP to the derived address of username and parks
// the signup until it is verified. Nothing is stored when mailing fails.
func (s *AuthService) RequestSignup(ctx context.Context, username, password string, profile *models.SignupProfile) (email string, err error) {
	ctx, span := s.tracer.Start(ctx, "auth.RequestSignup")
	defer func() { endSpan(span, err) }()

	if username == "" || password == "" {
		return "", common.NewError(common.ErrorBadRequest, "Username and password are required")
	}
	if err := checkPasswordLength(password); err != nil {
		return "", err
	}
	if !common.IsAlphanumeric(username) {
		return "", common.NewError(common.ErrorBadRequest, "Username must be alphanumeric")
	}
	if profile == nil {
		return "", common.NewError(common.ErrorBadRequest, "Profile is required")
	}

	taken, err := s.repomanager.Users(s.db).UsernameTaken(ctx, username)
	if err != nil {
		return "", err
	}
	if taken {
		return "", common.NewError(common.ErrorConflict, "User already exists")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	otp, err := common.RandomOTP()
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}

	email = s.EmailFor(username)
	if err := s.notifier.SendOTP(ctx, otp, email, profile.Name); err != nil {
		return "", err
	}

	pending := &models.PendingSignup{
		Username:     username,
		PasswordHash: hash,
		OTP:          otp,
		Created:      s.now(),
		Profile:      *profile,
	}
	if err := s.repomanager.PendingSignups(s.db).Upsert(ctx, pending); err != nil {
		return "", err
	}

	s.logger.Info(ctx, "otp issued", "username", username)
	return email, nil
}

// VerifySignup turns a pending signup into a user and profile. An expired
// OTP is indistinguishable from an unknown username.
func (s *AuthService) VerifySignup(ctx context.Context, username string, otp int) (user *models.User, profile *models.Profile, err error) {
	ctx, span := s.tracer.Start(ctx, "auth.VerifySignup")
	defer func() { endSpan(span, err) }()

	if username == "" {
		return nil, nil, common.NewError(common.ErrorBadRequest, "Username is required")
	}

	notFound := common.NewError(common.ErrorNotFound, "No pending signup for this username")

	pending, err := s.repomanager.PendingSignups(s.db).Get(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, notFound
		}
		return nil, nil, err
	}
	if pending.Expired(s.now(), common.OTPTimeout) {
		return nil, nil, notFound
	}
	if pending.OTP != otp {
		return nil, nil, common.NewError(common.ErrorUnauthorized, "Incorrect OTP")
	}

	// The row is read again under lock: a concurrent verification may have
	// consumed it, or a new OTP request replaced it, since the check above.
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		users := s.repomanager.Users(tx)
		conflict := common.NewError(common.ErrorConflict, "User already exists")

		locked, err := s.repomanager.PendingSignups(tx).GetForUpdate(ctx, username)
		if err != nil {
			if !errors.Is(err, common.ErrorNotFound) {
				return err
			}
			taken, err := users.UsernameTaken(ctx, username)
			if err != nil {
				return err
			}
			if taken {
				return conflict
			}
			return notFound
		}
		if locked.OTP != otp {
			return common.NewError(common.ErrorUnauthorized, "Incorrect OTP")
		}
		pending = locked

		taken, err := users.UsernameTaken(ctx, username)
		if err != nil {
			return err
		}
		if taken {
			return conflict
		}

		user, err = users.Create(ctx, &models.User{
			Username:     username,
			PasswordHash: pending.PasswordHash,
			Role:         models.RoleRegular,
		})
		if err != nil {
			return err
		}

		profile = pending.Profile.ToProfile(user.ID)
		if err := s.repomanager.Profiles(tx).Create(ctx, profile); err != nil {
			return err
		}

		return s.repomanager.PendingSignups(tx).Delete(ctx, username)
	})
	if err != nil {
		return nil, nil, err
	}

	span.SetAttributes(attribute.Int64("auth.user_id", user.ID))
	s.logger.Info(ctx, "user registered", "user_id", user.ID, "username", username)
	return user, profile, nil
}

// Login checks the password unless the account is throttled and returns a
// fresh session.
func (s *AuthService) Login(ctx context.Context, username, password string) (session *Session, err error) {
	ctx, span := s.tracer.Start(ctx, "auth.Login")
	defer func() { endSpan(span, err) }()

	if username == "" || password == "" {
		return nil, common.NewError(common.ErrorBadRequest, "Username and password are required")
	}

	users := s.repomanager.Users(s.db)
	user, err := users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewError(common.ErrorNotFound, "Username not found")
		}
		return nil, err
	}

	now := s.now()
	if user.Counter >= common.LoginAttemptLimit && user.LastAttempt != nil {
		if elapsed := now.Sub(*user.LastAttempt); elapsed < common.LoginThrottleWindow {
			retry := int(math.Ceil((common.LoginThrottleWindow - elapsed).Seconds()))
			return nil, &ThrottledError{RetryAfter: max(retry, 1)}
		}
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, err
		}
		counter, err := users.RecordFailedLogin(ctx, user.ID, now, now.Add(-common.LoginThrottleWindow), common.LoginAttemptLimit)
		if err != nil {
			return nil, err
		}
		s.logger.Warn(ctx, "failed login", "user_id", user.ID, "counter", counter)
		return nil, common.NewError(common.ErrorUnauthorized, "Incorrect password")
	}

	if err := users.ResetFailedLogins(ctx, user.ID); err != nil {
		return nil, err
	}

	id := auth.Identity{UserID: user.ID, Role: user.Role}
	token, err := auth.GenerateToken(id, s.secretKey, s.sessionValidity)
	if err != nil {
		return nil, fmt.Errorf("sign session: %w", err)
	}

	span.SetAttributes(attribute.Int64("auth.user_id", user.ID))
	return &Session{Identity: id, Token: token}, nil
}

// Authenticate resolves a session cookie value to its identity.
func (s *AuthService) Authenticate(token string) (auth.Identity, error) {
	return auth.ParseToken(token, s.secretKey)
}

func (s *AuthService) ChangePassword(ctx context.Context, actor auth.Identity, oldPassword, newPassword string) (err error) {
	ctx, span := s.tracer.Start(ctx, "auth.ChangePassword")
	defer func() { endSpan(span, err) }()

	if oldPassword == "" || newPassword == "" {
		return common.NewError(common.ErrorBadRequest, "Old and new passwords are required")
	}
	if err := checkPasswordLength(newPassword); err != nil {
		return err
	}

	users := s.repomanager.Users(s.db)
	user, err := users.GetByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.NewError(common.ErrorNotFound, "User not found")
		}
		return err
	}

	if err := s.hasher.Compare(user.PasswordHash, oldPassword); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return common.NewError(common.ErrorUnauthorized, "Incorrect password")
		}
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return users.UpdatePassword(ctx, user.ID, hash)
}

// ResetPassword replaces the password of username with a random one and
// mails it. The new hash is rolled back if mailing fails.
func (s *AuthService) ResetPassword(ctx context.Context, username string) (err error) {
	ctx, span := s.tracer.Start(ctx, "auth.ResetPassword")
	defer func() { endSpan(span, err) }()

	if username == "" {
		return common.NewError(common.ErrorBadRequest, "Username is required")
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		users := s.repomanager.Users(tx)

		user, err := users.GetByUsername(ctx, username)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.NewError(common.ErrorNotFound, "User not found")
			}
			return err
		}

		name := username
		if p, err := s.repomanager.Profiles(tx).Get(ctx, user.ID); err == nil && p.Name != "" {
			name = p.Name
		}

		password, err := common.MakeRandHexString(8)
		if err != nil {
			return fmt.Errorf("generate password: %w", err)
		}
		hash, err := s.hasher.Hash(password)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		if err := users.UpdatePassword(ctx, user.ID, hash); err != nil {
			return err
		}

		return s.notifier.SendPassword(ctx, password, s.EmailFor(username), name)
	})
}

// SetRole changes the role of username. Used by lostifyctl.
func (s *AuthService) SetRole(ctx context.Context, username string, role models.Role) (err error) {
	ctx, span := s.tracer.Start(ctx, "auth.SetRole")
	defer func() { endSpan(span, err) }()

	if username == "" {
		return common.NewError(common.ErrorBadRequest, "Username is required")
	}
	return s.repomanager.Users(s.db).SetRole(ctx, username, role)
}

// SetPassword overwrites the password of username without the old one.
// Used by lostifyctl.
func (s *AuthService) SetPassword(ctx context.Context, username, password string) (err error) {
	ctx, span := s.tracer.Start(ctx, "auth.SetPassword")
	defer func() { endSpan(span, err) }()

	if username == "" || password == "" {
		return common.NewError(common.ErrorBadRequest, "Username and password are required")
	}
	if err := checkPasswordLength(password); err != nil {
		return err
	}

	users := s.repomanager.Users(s.db)
	user, err := users.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return users.UpdatePassword(ctx, user.ID, hash)
}

// checkPasswordLength rejects passwords the hasher cannot take.
func checkPasswordLength(password string) error {
	if len(password) > auth.MaxPasswordBytes {
		return common.NewError(common.ErrorBadRequest,
			fmt.Sprintf("Password must be at most %d bytes", auth.MaxPasswordBytes))
	}
	return nil
}

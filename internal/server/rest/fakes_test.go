package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lostify/lostify/internal/common"
	"github.com/lostify/lostify/internal/logging"
	"github.com/lostify/lostify/internal/server/auth"
	"github.com/lostify/lostify/internal/server/models"
	"github.com/lostify/lostify/internal/server/services"
	"github.com/stretchr/testify/require"
)

// Tokens understood by fakeAuth look like "tok-<uid>-<role>".
func tokenFor(id auth.Identity) string {
	return fmt.Sprintf("tok-%d-%d", id.UserID, id.Role)
}

type fakeAuth struct {
	signupEmail string
	signupErr   error
	gotProfile  *models.SignupProfile

	verifyOTP int
	verifyErr error

	loginErr   error
	loginID    auth.Identity
	changeErr  error
	resetErr   error
	resetCalls []string
}

func (f *fakeAuth) RequestSignup(_ context.Context, username, _ string, profile *models.SignupProfile) (string, error) {
	f.gotProfile = profile
	if f.signupErr != nil {
		return "", f.signupErr
	}
	return username + "@iitk.ac.in", nil
}

func (f *fakeAuth) VerifySignup(_ context.Context, username string, otp int) (*models.User, *models.Profile, error) {
	if f.verifyErr != nil {
		return nil, nil, f.verifyErr
	}
	if otp != f.verifyOTP {
		return nil, nil, common.NewError(common.ErrorUnauthorized, "Incorrect OTP")
	}
	return &models.User{ID: 7, Username: username}, &models.Profile{UserID: 7, Name: "Ada", Roll: 1}, nil
}

func (f *fakeAuth) Login(_ context.Context, _, _ string) (*services.Session, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &services.Session{Identity: f.loginID, Token: tokenFor(f.loginID)}, nil
}

func (f *fakeAuth) Authenticate(token string) (auth.Identity, error) {
	var id auth.Identity
	if _, err := fmt.Sscanf(token, "tok-%d-%d", &id.UserID, &id.Role); err != nil {
		return auth.Identity{}, common.ErrInvalidToken
	}
	return id, nil
}

func (f *fakeAuth) ChangePassword(context.Context, auth.Identity, string, string) error {
	return f.changeErr
}

func (f *fakeAuth) ResetPassword(_ context.Context, username string) error {
	f.resetCalls = append(f.resetCalls, username)
	return f.resetErr
}

type fakeItems struct {
	posts   map[int64]*models.Post
	created *models.Post
	patched *models.PostPatch
	listErr error
}

func (f *fakeItems) Create(_ context.Context, actor auth.Identity, p *models.Post) (int64, error) {
	if !p.Type.Valid() {
		return 0, common.NewError(common.ErrorBadRequest, "Type must be either 0 or 1.")
	}
	p.ID = int64(len(f.posts) + 1)
	p.Creator = actor.UserID
	f.created = p
	f.posts[p.ID] = p
	return p.ID, nil
}

func (f *fakeItems) Get(_ context.Context, id int64) (*models.Post, error) {
	p, ok := f.posts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return p, nil
}

func (f *fakeItems) List(context.Context) ([]*models.Post, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*models.Post
	for id := int64(1); id <= int64(len(f.posts)); id++ {
		if p, ok := f.posts[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeItems) CheckEditable(_ context.Context, id int64, actor auth.Identity) error {
	p, ok := f.posts[id]
	if !ok {
		return common.ErrorNotFound
	}
	if p.Creator != actor.UserID {
		return common.NewError(common.ErrorForbidden, "User is not creator of post")
	}
	return nil
}

func (f *fakeItems) Update(ctx context.Context, id int64, actor auth.Identity, patch models.PostPatch) error {
	if err := f.CheckEditable(ctx, id, actor); err != nil {
		return err
	}
	if patch.IsEmpty() {
		return common.NewError(common.ErrorBadRequest, "No fields to update.")
	}
	f.patched = &patch
	if patch.Title != nil {
		f.posts[id].Title = *patch.Title
	}
	return nil
}

func (f *fakeItems) Delete(_ context.Context, id int64, actor auth.Identity) error {
	p, ok := f.posts[id]
	if !ok {
		return common.ErrorNotFound
	}
	if p.Creator != actor.UserID && !actor.IsAdmin() {
		return common.NewError(common.ErrorForbidden, "User is not authorised to delete post")
	}
	delete(f.posts, id)
	return nil
}

type fakeClaims struct {
	gotOther *int64
	result   *services.ClaimResult
	err      error
}

func (f *fakeClaims) Claim(_ context.Context, _ int64, _ auth.Identity, otherID *int64) (*services.ClaimResult, error) {
	f.gotOther = otherID
	return f.result, f.err
}

type fakeReports struct {
	count int
	err   error
}

func (f *fakeReports) Report(context.Context, int64, auth.Identity) error   { return f.err }
func (f *fakeReports) Unreport(context.Context, int64, auth.Identity) error { return f.err }

func (f *fakeReports) Count(_ context.Context, _ int64, actor auth.Identity) (int, error) {
	if !actor.IsAdmin() {
		return 0, common.NewError(common.ErrorForbidden, "User is not authorised to view report count")
	}
	return f.count, f.err
}

type fakeProfiles struct {
	profiles map[int64]*models.Profile
	patched  *models.ProfilePatch
}

func (f *fakeProfiles) Get(_ context.Context, id int64) (*models.Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return p, nil
}

func (f *fakeProfiles) Update(_ context.Context, owner int64, actor auth.Identity, patch models.ProfilePatch) error {
	if err := services.RequireOwner(owner, actor); err != nil {
		return err
	}
	if patch.IsEmpty() {
		return common.NewError(common.ErrorBadRequest, "At least one field is required")
	}
	f.patched = &patch
	return nil
}

func (f *fakeProfiles) GetOnline(ctx context.Context, id int64) (bool, error) {
	p, err := f.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return p.Online, nil
}

func (f *fakeProfiles) SetOnline(_ context.Context, owner int64, actor auth.Identity, online bool) error {
	if err := services.RequireOwner(owner, actor); err != nil {
		return err
	}
	p, ok := f.profiles[owner]
	if !ok {
		return common.ErrorNotFound
	}
	p.Online = online
	return nil
}

type fakePinger struct{ err error }

func (f fakePinger) PingContext(context.Context) error { return f.err }

type fixture struct {
	auth     *fakeAuth
	items    *fakeItems
	claims   *fakeClaims
	reports  *fakeReports
	profiles *fakeProfiles
	pinger   *fakePinger
	server   *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		auth:     &fakeAuth{},
		items:    &fakeItems{posts: map[int64]*models.Post{}},
		claims:   &fakeClaims{},
		reports:  &fakeReports{},
		profiles: &fakeProfiles{profiles: map[int64]*models.Profile{}},
		pinger:   &fakePinger{},
	}
	h := NewHandler(Services{
		Auth:     f.auth,
		Items:    f.items,
		Claims:   f.claims,
		Reports:  f.reports,
		Profiles: f.profiles,
		DB:       f.pinger,
	}, time.Hour, logging.Discard())
	f.server = httptest.NewServer(h.Router())
	t.Cleanup(f.server.Close)
	return f
}

var (
	alice = auth.Identity{UserID: 1}
	bob   = auth.Identity{UserID: 2}
	admin = auth.Identity{UserID: 9, Role: models.RoleAdmin}
)

// do sends a request, optionally as actor, and returns the response with
// its body already read.
func (f *fixture) do(t *testing.T, method, path, body string, actor *auth.Identity) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, f.server.URL+path, rd)
	require.NoError(t, err)
	if actor != nil {
		req.AddCookie(&http.Cookie{Name: common.SessionCookieName, Value: tokenFor(*actor)})
	}
	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decodeError(t *testing.T, data []byte) errorBody {
	t.Helper()
	var e errorBody
	require.NoError(t, json.Unmarshal(data, &e))
	return e
}

var errBoom = errors.New("boom")

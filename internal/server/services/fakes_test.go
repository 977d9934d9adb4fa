package services

import (
	"context"
	"database/sql"
	"sort"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lostify/lostify/internal/common"
	"github.com/lostify/lostify/internal/dbx"
	"github.com/lostify/lostify/internal/server/auth"
	"github.com/lostify/lostify/internal/server/models"
	"github.com/lostify/lostify/internal/server/repositories/confirmations"
	"github.com/lostify/lostify/internal/server/repositories/pendingsignups"
	"github.com/lostify/lostify/internal/server/repositories/posts"
	"github.com/lostify/lostify/internal/server/repositories/profiles"
	"github.com/lostify/lostify/internal/server/repositories/reports"
	"github.com/lostify/lostify/internal/server/repositories/users"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func int64p(v int64) *int64 { return &v }
func strp(v string) *string { return &v }

// plainHasher keeps tests fast; the stored "hash" is a prefixed copy.
type plainHasher struct{}

func (plainHasher) Hash(p string) (string, error) { return "h:" + p, nil }
func (plainHasher) Compare(hash, p string) error {
	if hash != "h:"+p {
		return auth.ErrPasswordMismatch
	}
	return nil
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) SendOTP(ctx context.Context, otp int, email, name string) error {
	return m.Called(ctx, otp, email, name).Error(0)
}

func (m *mockNotifier) SendPassword(ctx context.Context, password, email, name string) error {
	return m.Called(ctx, password, email, name).Error(0)
}

// --- in-memory store shared by the fake repositories ---

type pair struct{ a, b int64 }

type memStore struct {
	users      map[int64]*models.User
	nextUserID int64

	profiles map[int64]*models.Profile
	pending  map[string]*models.PendingSignup

	posts      map[int64]*models.Post
	nextPostID int64

	confirmations map[pair]int64 // (post, init) -> other
	reports       map[pair]bool  // (post, user)

	// fail makes the named method return errBoom.
	fail map[string]bool

	// beforePendingLock runs before GetForUpdate reads a pending signup,
	// standing in for a concurrent request.
	beforePendingLock func()
}

func newMemStore() *memStore {
	return &memStore{
		users:         map[int64]*models.User{},
		profiles:      map[int64]*models.Profile{},
		pending:       map[string]*models.PendingSignup{},
		posts:         map[int64]*models.Post{},
		confirmations: map[pair]int64{},
		reports:       map[pair]bool{},
		fail:          map[string]bool{},
	}
}

func (s *memStore) failing(name string) error {
	if s.fail[name] {
		return errBoom{}
	}
	return nil
}

func (s *memStore) addUser(username, password string, role models.Role) *models.User {
	s.nextUserID++
	u := &models.User{ID: s.nextUserID, Username: username, PasswordHash: "h:" + password, Role: role}
	s.users[u.ID] = u
	return u
}

func (s *memStore) addPost(creator int64) *models.Post {
	s.nextPostID++
	p := &models.Post{ID: s.nextPostID, Title: "Wallet", Creator: creator, Location1: "Library", Date: time.Now()}
	s.posts[p.ID] = p
	return p
}

func (s *memStore) confirmationsFor(postID int64) int {
	n := 0
	for k := range s.confirmations {
		if k.a == postID {
			n++
		}
	}
	return n
}

func (s *memStore) reportsFor(postID int64) int {
	n := 0
	for k := range s.reports {
		if k.a == postID {
			n++
		}
	}
	return n
}

// --- users ---

type fakeUsersRepo struct{ s *memStore }

var _ users.Repository = (*fakeUsersRepo)(nil)

func (r *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if err := r.s.failing("Users.Create"); err != nil {
		return nil, err
	}
	r.s.nextUserID++
	cp := *u
	cp.ID = r.s.nextUserID
	r.s.users[cp.ID] = &cp
	u.ID = cp.ID
	return u, nil
}

func (r *fakeUsersRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range r.s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeUsersRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUsersRepo) Exists(ctx context.Context, id int64) (bool, error) {
	_, ok := r.s.users[id]
	return ok, nil
}

func (r *fakeUsersRepo) UsernameTaken(ctx context.Context, username string) (bool, error) {
	if err := r.s.failing("Users.UsernameTaken"); err != nil {
		return false, err
	}
	_, err := r.GetByUsername(ctx, username)
	return err == nil, nil
}

func (r *fakeUsersRepo) RecordFailedLogin(ctx context.Context, id int64, at, restartBefore time.Time, limit int) (int, error) {
	u, ok := r.s.users[id]
	if !ok {
		return 0, common.ErrorNotFound
	}
	if u.Counter >= limit && u.LastAttempt != nil && !u.LastAttempt.After(restartBefore) {
		u.Counter = 1
	} else {
		u.Counter++
	}
	u.LastAttempt = &at
	return u.Counter, nil
}

func (r *fakeUsersRepo) ResetFailedLogins(ctx context.Context, id int64) error {
	u, ok := r.s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.Counter = 0
	return nil
}

func (r *fakeUsersRepo) UpdatePassword(ctx context.Context, id int64, hash string) error {
	if err := r.s.failing("Users.UpdatePassword"); err != nil {
		return err
	}
	u, ok := r.s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (r *fakeUsersRepo) SetRole(ctx context.Context, username string, role models.Role) error {
	for _, u := range r.s.users {
		if u.Username == username {
			u.Role = role
			return nil
		}
	}
	return common.ErrorNotFound
}

// --- profiles ---

type fakeProfilesRepo struct{ s *memStore }

var _ profiles.Repository = (*fakeProfilesRepo)(nil)

func (r *fakeProfilesRepo) Create(ctx context.Context, p *models.Profile) error {
	if err := r.s.failing("Profiles.Create"); err != nil {
		return err
	}
	cp := *p
	r.s.profiles[p.UserID] = &cp
	return nil
}

func (r *fakeProfilesRepo) Get(ctx context.Context, userID int64) (*models.Profile, error) {
	p, ok := r.s.profiles[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProfilesRepo) Update(ctx context.Context, userID int64, patch models.ProfilePatch) error {
	p, ok := r.s.profiles[userID]
	if !ok {
		return common.ErrorNotFound
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Phone != nil {
		p.Phone = *patch.Phone
	}
	if patch.Email != nil {
		p.Email = *patch.Email
	}
	if patch.Address != nil {
		p.Address = *patch.Address
	}
	if patch.Designation != nil {
		p.Designation = *patch.Designation
	}
	if patch.Roll != nil {
		p.Roll = *patch.Roll
	}
	if patch.Image != nil {
		p.Image = *patch.Image
	}
	return nil
}

func (r *fakeProfilesRepo) GetOnline(ctx context.Context, userID int64) (bool, error) {
	p, ok := r.s.profiles[userID]
	if !ok {
		return false, common.ErrorNotFound
	}
	return p.Online, nil
}

func (r *fakeProfilesRepo) SetOnline(ctx context.Context, userID int64, online bool) error {
	p, ok := r.s.profiles[userID]
	if !ok {
		return common.ErrorNotFound
	}
	p.Online = online
	return nil
}

// --- pending signups ---

type fakePendingRepo struct{ s *memStore }

var _ pendingsignups.Repository = (*fakePendingRepo)(nil)

func (r *fakePendingRepo) Upsert(ctx context.Context, p *models.PendingSignup) error {
	if err := r.s.failing("PendingSignups.Upsert"); err != nil {
		return err
	}
	cp := *p
	r.s.pending[p.Username] = &cp
	return nil
}

func (r *fakePendingRepo) Get(ctx context.Context, username string) (*models.PendingSignup, error) {
	p, ok := r.s.pending[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePendingRepo) GetForUpdate(ctx context.Context, username string) (*models.PendingSignup, error) {
	if r.s.beforePendingLock != nil {
		r.s.beforePendingLock()
	}
	return r.Get(ctx, username)
}

func (r *fakePendingRepo) Delete(ctx context.Context, username string) error {
	if _, ok := r.s.pending[username]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.pending, username)
	return nil
}

// --- posts ---

type fakePostsRepo struct{ s *memStore }

var _ posts.Repository = (*fakePostsRepo)(nil)

func (r *fakePostsRepo) Create(ctx context.Context, p *models.Post) (int64, error) {
	r.s.nextPostID++
	cp := *p
	cp.ID = r.s.nextPostID
	r.s.posts[cp.ID] = &cp
	return cp.ID, nil
}

func (r *fakePostsRepo) Get(ctx context.Context, id int64) (*models.Post, error) {
	p, ok := r.s.posts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePostsRepo) GetForUpdate(ctx context.Context, id int64) (*models.Post, error) {
	return r.Get(ctx, id)
}

func (r *fakePostsRepo) List(ctx context.Context) ([]*models.Post, error) {
	out := make([]*models.Post, 0, len(r.s.posts))
	for _, p := range r.s.posts {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakePostsRepo) Update(ctx context.Context, id int64, patch models.PostPatch) error {
	p, ok := r.s.posts[id]
	if !ok {
		return common.ErrorNotFound
	}
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Description != nil {
		p.Description = patch.Description
	}
	if patch.Image != nil {
		p.Image = *patch.Image
	}
	if patch.Location1 != nil {
		p.Location1 = *patch.Location1
	}
	if patch.Location2 != nil {
		p.Location2 = patch.Location2
	}
	return nil
}

func (r *fakePostsRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.s.posts[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.posts, id)
	for k := range r.s.confirmations {
		if k.a == id {
			delete(r.s.confirmations, k)
		}
	}
	for k := range r.s.reports {
		if k.a == id {
			delete(r.s.reports, k)
		}
	}
	return nil
}

func (r *fakePostsRepo) Close(ctx context.Context, id, closedBy int64, at time.Time) error {
	p, ok := r.s.posts[id]
	if !ok {
		return common.ErrorNotFound
	}
	if p.ClosedBy != nil {
		return common.ErrorConflict
	}
	p.ClosedBy = &closedBy
	p.ClosedDate = &at
	return nil
}

func (r *fakePostsRepo) AdjustReportCount(ctx context.Context, id int64, delta int) error {
	if err := r.s.failing("Posts.AdjustReportCount"); err != nil {
		return err
	}
	p, ok := r.s.posts[id]
	if !ok {
		return common.ErrorNotFound
	}
	p.ReportCount += delta
	return nil
}

func (r *fakePostsRepo) ReportCount(ctx context.Context, id int64) (int, error) {
	p, ok := r.s.posts[id]
	if !ok {
		return 0, common.ErrorNotFound
	}
	return p.ReportCount, nil
}

// --- confirmations ---

type fakeConfirmationsRepo struct{ s *memStore }

var _ confirmations.Repository = (*fakeConfirmationsRepo)(nil)

func (r *fakeConfirmationsRepo) Upsert(ctx context.Context, c models.Confirmation) error {
	r.s.confirmations[pair{c.PostID, c.InitID}] = c.OtherID
	return nil
}

func (r *fakeConfirmationsRepo) Exists(ctx context.Context, c models.Confirmation) (bool, error) {
	other, ok := r.s.confirmations[pair{c.PostID, c.InitID}]
	return ok && other == c.OtherID, nil
}

func (r *fakeConfirmationsRepo) DeleteForPost(ctx context.Context, postID int64) error {
	for k := range r.s.confirmations {
		if k.a == postID {
			delete(r.s.confirmations, k)
		}
	}
	return nil
}

// --- reports ---

type fakeReportsRepo struct{ s *memStore }

var _ reports.Repository = (*fakeReportsRepo)(nil)

func (r *fakeReportsRepo) Add(ctx context.Context, postID, userID int64) (bool, error) {
	k := pair{postID, userID}
	if r.s.reports[k] {
		return false, nil
	}
	r.s.reports[k] = true
	return true, nil
}

func (r *fakeReportsRepo) Remove(ctx context.Context, postID, userID int64) (bool, error) {
	k := pair{postID, userID}
	if !r.s.reports[k] {
		return false, nil
	}
	delete(r.s.reports, k)
	return true, nil
}

// --- manager ---

type fakeRepoManager struct{ s *memStore }

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}

func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository {
	return &fakeUsersRepo{m.s}
}

func (m *fakeRepoManager) Profiles(dbx.DBTX) profiles.Repository {
	return &fakeProfilesRepo{m.s}
}

func (m *fakeRepoManager) PendingSignups(dbx.DBTX) pendingsignups.Repository {
	return &fakePendingRepo{m.s}
}

func (m *fakeRepoManager) Posts(dbx.DBTX) posts.Repository {
	return &fakePostsRepo{m.s}
}

func (m *fakeRepoManager) Confirmations(dbx.DBTX) confirmations.Repository {
	return &fakeConfirmationsRepo{m.s}
}

func (m *fakeRepoManager) Reports(dbx.DBTX) reports.Repository {
	return &fakeReportsRepo{m.s}
}

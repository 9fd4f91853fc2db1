package state

import (
	"context"
	"sync"
	"testing"

	"github.com/chepyr/go-kanban/internal/rowstore"
	"github.com/chepyr/go-kanban/shared/models"
	"github.com/chepyr/go-kanban/tasks-service/db"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var (
	_ BoardRepository = (*db.BoardRepository)(nil)
	_ ListRepository  = (*db.ListRepository)(nil)
	_ CardRepository  = (*db.CardRepository)(nil)
	_ UserSource      = (*AuthStore)(nil)
)

type repos struct {
	boards *db.BoardRepository
	lists  *db.ListRepository
	cards  *db.CardRepository
}

func setupRepos(t *testing.T) repos {
	t.Helper()
	conn, err := rowstore.Connect("sqlite3", "file::memory:?_foreign_keys=on", rowstore.SQLiteConnectionConfig())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.Migrate(context.Background(), conn, "sqlite3"))

	store := rowstore.New(conn, "sqlite3")
	return repos{
		boards: db.NewBoardRepository(store),
		lists:  db.NewListRepository(store),
		cards:  db.NewCardRepository(store),
	}
}

type staticUser struct {
	mu sync.Mutex
	id uuid.UUID
}

func (s *staticUser) UserID() (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id, s.id != uuid.Nil
}

func (s *staticUser) set(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = id
}

// fakeIdentity accepts one email/password pair.
type fakeIdentity struct {
	mu        sync.Mutex
	user      models.User
	password  string
	token     string
	loginErr  error
	logoutErr error
	revoked   map[string]bool
	calls     int
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{
		user:     models.User{ID: uuid.New(), Email: "ada@example.com", DisplayName: "ada"},
		password: "strongpass",
		token:    "token-1",
		revoked:  make(map[string]bool),
	}
}

func (f *fakeIdentity) Login(ctx context.Context, in models.LoginInput) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	if in.Email != f.user.Email || in.Password != f.password {
		return nil, models.ErrUnauthorized
	}
	return &models.Session{User: f.user, Token: f.token}, nil
}

func (f *fakeIdentity) Register(ctx context.Context, in models.RegisterInput) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if in.Email == f.user.Email {
		return nil, models.ErrEmailTaken
	}
	user := models.User{ID: uuid.New(), Email: in.Email, DisplayName: in.DisplayName}
	return &models.Session{User: user, Token: "token-new"}, nil
}

func (f *fakeIdentity) Logout(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.revoked[token] = true
	return f.logoutErr
}

func (f *fakeIdentity) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if token != f.token || f.revoked[token] {
		return nil, models.ErrUnauthorized
	}
	u := f.user
	return &u, nil
}

func strPtr(s string) *string { return &s }

package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chepyr/go-kanban/internal/rowstore"
	"github.com/chepyr/go-kanban/shared/models"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *UserRepository {
	t.Helper()
	conn, err := rowstore.Connect("sqlite3", ":memory:", rowstore.SQLiteConnectionConfig())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, Migrate(context.Background(), conn, "sqlite3"))

	repo := NewUserRepository(rowstore.New(conn, "sqlite3"))
	repo.now = func() time.Time { return time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC) }
	return repo
}

func TestUserRepository_Create(t *testing.T) {
	repo := setupTestDB(t)
	user := &models.User{Email: "  Test_1@Example.com ", PasswordHash: "password"}

	require.NoError(t, repo.Create(context.Background(), user))
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, "test_1@example.com", user.Email)
	assert.Equal(t, "test_1", user.DisplayName)

	got, err := repo.GetByEmail(context.Background(), "TEST_1@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "password", got.PasswordHash)
	assert.Equal(t, time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC), got.CreatedAt)
}

func TestUserRepository_CreateKeepsDisplayName(t *testing.T) {
	repo := setupTestDB(t)
	user := &models.User{Email: "ada@example.com", DisplayName: "Ada L.", PasswordHash: "x"}
	require.NoError(t, repo.Create(context.Background(), user))

	got, err := repo.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", got.DisplayName)
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	repo := setupTestDB(t)
	require.NoError(t, repo.Create(context.Background(), &models.User{Email: "dup@example.com", PasswordHash: "a"}))

	err := repo.Create(context.Background(), &models.User{Email: "DUP@example.com", PasswordHash: "b"})
	assert.True(t, errors.Is(err, models.ErrEmailTaken), "got %v", err)
}

func TestUserRepository_NotFound(t *testing.T) {
	repo := setupTestDB(t)

	_, err := repo.GetByEmail(context.Background(), "nobody@example.com")
	assert.True(t, models.IsNotFound(err))

	_, err = repo.GetByID(context.Background(), uuid.New())
	assert.True(t, models.IsNotFound(err))
}

package db

import (
	"context"
	"testing"
	"time"

	"github.com/chepyr/go-kanban/internal/rowstore"
	"github.com/chepyr/go-kanban/shared/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type repos struct {
	store  rowstore.Store
	boards *BoardRepository
	lists  *ListRepository
	cards  *CardRepository
}

// setupKanbanDB opens a fresh in-memory database with the kanban schema.
// All repositories share one ticking clock so updated_at is strictly
// increasing across writes.
func setupKanbanDB(t *testing.T) repos {
	t.Helper()
	conn, err := rowstore.Connect("sqlite3", "file::memory:?_foreign_keys=on", rowstore.SQLiteConnectionConfig())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, Migrate(context.Background(), conn, "sqlite3"))

	store := rowstore.New(conn, "sqlite3")
	clock := tickingClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	return repos{
		store:  store,
		boards: &BoardRepository{store: store, now: clock},
		lists:  &ListRepository{store: store, now: clock},
		cards:  &CardRepository{store: store, now: clock},
	}
}

func tickingClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

func createBoard(t *testing.T, r repos, owner uuid.UUID, name string) *models.Board {
	t.Helper()
	board, err := r.boards.Create(context.Background(), models.CreateBoardInput{Name: name}, owner)
	require.NoError(t, err)
	return board
}

func createList(t *testing.T, r repos, boardID uuid.UUID, title string) *models.List {
	t.Helper()
	list, err := r.lists.Create(context.Background(), models.CreateListInput{Title: title, BoardID: boardID})
	require.NoError(t, err)
	return list
}

func createCard(t *testing.T, r repos, listID uuid.UUID, title string) *models.Card {
	t.Helper()
	card, err := r.cards.Create(context.Background(), models.CreateCardInput{Title: title, ListID: listID})
	require.NoError(t, err)
	return card
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

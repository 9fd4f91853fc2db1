package db

import (
	"context"
	"errors"
	"testing"

	"github.com/chepyr/go-kanban/shared/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoardRepository_CreateAndGetByID(t *testing.T) {
	r := setupKanbanDB(t)
	owner := uuid.New()

	board := createBoard(t, r, owner, "Roadmap")
	assert.NotEqual(t, uuid.Nil, board.ID)
	assert.Equal(t, "Roadmap", board.Name)
	assert.Equal(t, owner, board.OwnerID)
	assert.False(t, board.CreatedAt.IsZero())

	got, err := r.boards.GetByID(context.Background(), board.ID)
	require.NoError(t, err)
	assert.Equal(t, board.ID, got.ID)
	assert.Equal(t, board.Name, got.Name)
	assert.True(t, board.CreatedAt.Equal(got.CreatedAt))
}

func TestBoardRepository_GetByID_NotFound(t *testing.T) {
	r := setupKanbanDB(t)
	id := uuid.New()

	_, err := r.boards.GetByID(context.Background(), id)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNotFound))

	var nf *models.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "board", nf.Entity)
	assert.Equal(t, id.String(), nf.ID)
}

func TestBoardRepository_GetAllByUserID(t *testing.T) {
	r := setupKanbanDB(t)
	owner := uuid.New()
	alpha := createBoard(t, r, owner, "Alpha project")
	beta := createBoard(t, r, owner, "beta Tasks")
	gamma := createBoard(t, r, owner, "Gamma")
	createBoard(t, r, uuid.New(), "Someone else's alpha")

	tests := []struct {
		name   string
		filter models.BoardFilter
		want   []uuid.UUID
	}{
		{
			name:   "default is newest update first",
			filter: models.BoardFilter{},
			want:   []uuid.UUID{gamma.ID, beta.ID, alpha.ID},
		},
		{
			name:   "name ascending",
			filter: models.BoardFilter{SortBy: models.SortByName, SortOrder: models.SortAsc},
			want:   []uuid.UUID{alpha.ID, beta.ID, gamma.ID},
		},
		{
			name:   "search is case-insensitive",
			filter: models.BoardFilter{SearchQuery: "ALPHA"},
			want:   []uuid.UUID{alpha.ID},
		},
		{
			name:   "search matches substrings",
			filter: models.BoardFilter{SearchQuery: "a t", SortBy: models.SortByCreatedAt, SortOrder: models.SortAsc},
			want:   []uuid.UUID{beta.ID},
		},
		{
			name:   "no match",
			filter: models.BoardFilter{SearchQuery: "zzz"},
			want:   []uuid.UUID{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			boards, err := r.boards.GetAllByUserID(context.Background(), owner, tt.filter)
			require.NoError(t, err)
			got := make([]uuid.UUID, 0, len(boards))
			for _, b := range boards {
				got = append(got, b.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBoardRepository_GetSummaries(t *testing.T) {
	r := setupKanbanDB(t)
	owner := uuid.New()
	full := createBoard(t, r, owner, "Full board")
	empty := createBoard(t, r, owner, "Empty board")

	todo := createList(t, r, full.ID, "Todo")
	done := createList(t, r, full.ID, "Done")
	createCard(t, r, todo.ID, "Write docs")
	createCard(t, r, todo.ID, "Fix bug")
	createCard(t, r, done.ID, "Ship it")

	summaries, err := r.boards.GetSummaries(context.Background(), owner, models.BoardFilter{
		SortBy: models.SortByName, SortOrder: models.SortAsc,
	})
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	assert.Equal(t, empty.ID, summaries[0].ID)
	assert.Equal(t, 0, summaries[0].ListCount)
	assert.Equal(t, 0, summaries[0].CardCount)

	assert.Equal(t, full.ID, summaries[1].ID)
	assert.Equal(t, 2, summaries[1].ListCount)
	assert.Equal(t, 3, summaries[1].CardCount)
}

func TestBoardRepository_GetByIDWithData(t *testing.T) {
	r := setupKanbanDB(t)
	ctx := context.Background()
	board := createBoard(t, r, uuid.New(), "Sprint")
	first := createList(t, r, board.ID, "First")
	second := createList(t, r, board.ID, "Second")
	a := createCard(t, r, second.ID, "Card A")
	b := createCard(t, r, second.ID, "Card B")

	// put Second before First and B before A
	require.NoError(t, r.lists.UpdatePositions(ctx, []models.PositionUpdate{
		{ID: first.ID, Position: 5},
		{ID: second.ID, Position: 1},
	}))
	require.NoError(t, r.cards.UpdatePositions(ctx, []models.PositionUpdate{
		{ID: a.ID, Position: 3},
		{ID: b.ID, Position: 2},
	}))

	got, err := r.boards.GetByIDWithData(ctx, board.ID)
	require.NoError(t, err)
	require.Len(t, got.Lists, 2)
	assert.Equal(t, second.ID, got.Lists[0].ID)
	assert.Equal(t, first.ID, got.Lists[1].ID)
	assert.Empty(t, got.Lists[1].Cards)
	require.Len(t, got.Lists[0].Cards, 2)
	assert.Equal(t, b.ID, got.Lists[0].Cards[0].ID)
	assert.Equal(t, a.ID, got.Lists[0].Cards[1].ID)
}

func TestBoardRepository_GetByIDWithData_NotFound(t *testing.T) {
	r := setupKanbanDB(t)
	_, err := r.boards.GetByIDWithData(context.Background(), uuid.New())
	assert.True(t, models.IsNotFound(err))
}

func TestBoardRepository_Update(t *testing.T) {
	r := setupKanbanDB(t)
	ctx := context.Background()
	board := createBoard(t, r, uuid.New(), "Old name")

	updated, err := r.boards.Update(ctx, board.ID, models.UpdateBoardInput{Name: strPtr("New name")})
	require.NoError(t, err)
	assert.Equal(t, "New name", updated.Name)
	assert.True(t, updated.UpdatedAt.After(board.UpdatedAt))
	assert.True(t, updated.CreatedAt.Equal(board.CreatedAt))

	// an empty update only touches updated_at
	touched, err := r.boards.Update(ctx, board.ID, models.UpdateBoardInput{})
	require.NoError(t, err)
	assert.Equal(t, "New name", touched.Name)
	assert.True(t, touched.UpdatedAt.After(updated.UpdatedAt))

	_, err = r.boards.Update(ctx, uuid.New(), models.UpdateBoardInput{Name: strPtr("x")})
	assert.True(t, models.IsNotFound(err))
}

func TestBoardRepository_Delete_Cascades(t *testing.T) {
	r := setupKanbanDB(t)
	ctx := context.Background()
	board := createBoard(t, r, uuid.New(), "Doomed")
	list := createList(t, r, board.ID, "List")
	card := createCard(t, r, list.ID, "Card")
	other := createBoard(t, r, uuid.New(), "Survivor")
	otherList := createList(t, r, other.ID, "Kept")

	require.NoError(t, r.boards.Delete(ctx, board.ID))

	_, err := r.boards.GetByID(ctx, board.ID)
	assert.True(t, models.IsNotFound(err))
	_, err = r.lists.GetByID(ctx, list.ID)
	assert.True(t, models.IsNotFound(err))
	_, err = r.cards.GetByID(ctx, card.ID)
	assert.True(t, models.IsNotFound(err))

	_, err = r.lists.GetByID(ctx, otherList.ID)
	assert.NoError(t, err)

	err = r.boards.Delete(ctx, board.ID)
	assert.True(t, models.IsNotFound(err))
}

func TestBoardRepository_IsOwnerAndAuthorize(t *testing.T) {
	r := setupKanbanDB(t)
	ctx := context.Background()
	owner, stranger := uuid.New(), uuid.New()
	board := createBoard(t, r, owner, "Mine")

	ok, err := r.boards.IsOwner(ctx, board.ID, owner)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.boards.IsOwner(ctx, board.ID, stranger)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := r.boards.Authorize(ctx, board.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, board.ID, got.ID)

	_, err = r.boards.Authorize(ctx, board.ID, stranger)
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	_, err = r.boards.Authorize(ctx, uuid.New(), owner)
	assert.True(t, models.IsNotFound(err))
}

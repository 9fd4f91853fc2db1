package db

import (
	"context"
	"strings"
	"time"

	"github.com/chepyr/go-kanban/internal/mappers"
	"github.com/chepyr/go-kanban/internal/rowstore"
	"github.com/chepyr/go-kanban/shared/models"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const summaryConcurrency = 4

// defines methods for board db operations
type BoardRepositoryInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Board, error)
	GetAllByUserID(ctx context.Context, ownerID uuid.UUID, filter models.BoardFilter) ([]*models.Board, error)
	GetSummaries(ctx context.Context, ownerID uuid.UUID, filter models.BoardFilter) ([]*models.BoardSummary, error)
	GetByIDWithData(ctx context.Context, id uuid.UUID) (*models.Board, error)
	Create(ctx context.Context, input models.CreateBoardInput, ownerID uuid.UUID) (*models.Board, error)
	Update(ctx context.Context, id uuid.UUID, input models.UpdateBoardInput) (*models.Board, error)
	Delete(ctx context.Context, id uuid.UUID) error
	IsOwner(ctx context.Context, boardID, userID uuid.UUID) (bool, error)
	Authorize(ctx context.Context, boardID, userID uuid.UUID) (*models.Board, error)
}

var _ BoardRepositoryInterface = (*BoardRepository)(nil)

type BoardRepository struct {
	store rowstore.Store
	now   func() time.Time
}

func NewBoardRepository(store rowstore.Store) *BoardRepository {
	return &BoardRepository{store: store, now: utcNow}
}

func (r *BoardRepository) lists() *ListRepository {
	return &ListRepository{store: r.store, now: r.now}
}

func (r *BoardRepository) cards() *CardRepository {
	return &CardRepository{store: r.store, now: r.now}
}

func (r *BoardRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Board, error) {
	row, err := r.store.SelectOne(ctx, mappers.BoardsTable, byID(id))
	if err != nil {
		return nil, storeErr("boards.get", "board", id.String(), err)
	}
	return mappers.BoardToDomain(row), nil
}

// GetAllByUserID returns the owner's boards, optionally narrowed by a
// case-insensitive name match and sorted per filter.
func (r *BoardRepository) GetAllByUserID(ctx context.Context, ownerID uuid.UUID, filter models.BoardFilter) ([]*models.Board, error) {
	filter = filter.WithDefaults()
	q := rowstore.Query{
		Filters: []rowstore.Filter{rowstore.Eq(colOwnerID, ownerID)},
		Order: []rowstore.Order{
			{Column: string(filter.SortBy), Desc: filter.SortOrder == models.SortDesc},
			rowstore.Asc(colID),
		},
	}
	if search := strings.TrimSpace(filter.SearchQuery); search != "" {
		q.Filters = append(q.Filters, rowstore.Contains("name", search))
	}

	rows, err := r.store.Select(ctx, mappers.BoardsTable, q)
	if err != nil {
		return nil, storeErr("boards.list", "board", "", err)
	}
	boards := make([]*models.Board, 0, len(rows))
	for _, row := range rows {
		boards = append(boards, mappers.BoardToDomain(row))
	}
	return boards, nil
}

// GetSummaries is GetAllByUserID plus list and card counts per board.
func (r *BoardRepository) GetSummaries(ctx context.Context, ownerID uuid.UUID, filter models.BoardFilter) ([]*models.BoardSummary, error) {
	boards, err := r.GetAllByUserID(ctx, ownerID, filter)
	if err != nil {
		return nil, err
	}

	summaries := make([]*models.BoardSummary, len(boards))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(summaryConcurrency)
	for i, board := range boards {
		g.Go(func() error {
			listIDs, err := boardListIDs(gctx, r.store, board.ID)
			if err != nil {
				return storeErr("boards.summaries", "board", board.ID.String(), err)
			}
			cardCount, err := r.store.Count(gctx, mappers.CardsTable, rowstore.In(colListID, listIDs...))
			if err != nil {
				return storeErr("boards.summaries", "board", board.ID.String(), err)
			}
			summaries[i] = &models.BoardSummary{Board: *board, ListCount: len(listIDs), CardCount: cardCount}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summaries, nil
}

// GetByIDWithData loads the board with its lists and their cards, all sorted
// by position.
func (r *BoardRepository) GetByIDWithData(ctx context.Context, id uuid.UUID) (*models.Board, error) {
	var (
		board *models.Board
		lists []*models.List
		cards []*models.Card
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		board, err = r.GetByID(gctx, id)
		return err
	})
	g.Go(func() (err error) {
		lists, err = r.lists().GetAllByBoardID(gctx, id)
		return err
	})
	g.Go(func() (err error) {
		cards, err = r.cards().GetAllByBoardID(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	board.Lists = nestCards(lists, cards)
	return board, nil
}

func (r *BoardRepository) Create(ctx context.Context, input models.CreateBoardInput, ownerID uuid.UUID) (*models.Board, error) {
	row := newRow(mappers.BoardInsertRow(input, ownerID), r.now())
	inserted, err := r.store.Insert(ctx, mappers.BoardsTable, row)
	if err != nil {
		return nil, storeErr("boards.create", "board", "", err)
	}
	return mappers.BoardToDomain(inserted), nil
}

func (r *BoardRepository) Update(ctx context.Context, id uuid.UUID, input models.UpdateBoardInput) (*models.Board, error) {
	row := mappers.BoardUpdateRow(input)
	row[colUpdatedAt] = r.now()

	rows, err := r.store.Update(ctx, mappers.BoardsTable, row, rowstore.Eq(colID, id))
	if err != nil {
		return nil, storeErr("boards.update", "board", id.String(), err)
	}
	if len(rows) == 0 {
		return nil, &models.NotFoundError{Entity: "board", ID: id.String()}
	}
	return mappers.BoardToDomain(rows[0]), nil
}

// Delete removes the board's cards, then its lists, then the board itself.
func (r *BoardRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "boards.delete"
	return r.store.WithTx(ctx, func(tx rowstore.Store) error {
		if err := tx.Lock(ctx, mappers.BoardsTable, rowstore.Eq(colID, id)); err != nil {
			return storeErr(op, "board", id.String(), err)
		}
		listIDs, err := boardListIDs(ctx, tx, id)
		if err != nil {
			return storeErr(op, "board", id.String(), err)
		}
		if len(listIDs) > 0 {
			if _, err := tx.Delete(ctx, mappers.CardsTable, rowstore.In(colListID, listIDs...)); err != nil {
				return storeErr(op, "board", id.String(), err)
			}
			if _, err := tx.Delete(ctx, mappers.ListsTable, rowstore.Eq(colBoardID, id)); err != nil {
				return storeErr(op, "board", id.String(), err)
			}
		}
		n, err := tx.Delete(ctx, mappers.BoardsTable, rowstore.Eq(colID, id))
		if err != nil {
			return storeErr(op, "board", id.String(), err)
		}
		if n == 0 {
			return &models.NotFoundError{Entity: "board", ID: id.String()}
		}
		return nil
	})
}

func (r *BoardRepository) IsOwner(ctx context.Context, boardID, userID uuid.UUID) (bool, error) {
	n, err := r.store.Count(ctx, mappers.BoardsTable, rowstore.Eq(colID, boardID), rowstore.Eq(colOwnerID, userID))
	if err != nil {
		return false, storeErr("boards.is_owner", "board", boardID.String(), err)
	}
	return n > 0, nil
}

// Authorize reports NotFound for a missing board and ErrUnauthorized when
// userID does not own it.
func (r *BoardRepository) Authorize(ctx context.Context, boardID, userID uuid.UUID) (*models.Board, error) {
	board, err := r.GetByID(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if board.OwnerID != userID {
		return nil, models.ErrUnauthorized
	}
	return board, nil
}

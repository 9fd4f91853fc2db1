package db

import (
	"context"
	"errors"
	"time"

	"github.com/chepyr/go-kanban/internal/mappers"
	"github.com/chepyr/go-kanban/internal/ordering"
	"github.com/chepyr/go-kanban/internal/rowstore"
	"github.com/chepyr/go-kanban/shared/models"
	"github.com/google/uuid"
)

const (
	colID        = "id"
	colCreatedAt = "created_at"
	colUpdatedAt = "updated_at"
	colPosition  = "position"
	colOwnerID   = "owner_id"
	colBoardID   = "board_id"
	colListID    = "list_id"
)

func utcNow() time.Time {
	return time.Now().UTC()
}

// newRow adds the columns the store fills in for every insert.
func newRow(row rowstore.Row, now time.Time) rowstore.Row {
	row[colID] = uuid.New()
	row[colCreatedAt] = now
	row[colUpdatedAt] = now
	return row
}

func byID(id uuid.UUID) rowstore.Query {
	return rowstore.Query{Filters: []rowstore.Filter{rowstore.Eq(colID, id)}}
}

func byPosition() []rowstore.Order {
	return []rowstore.Order{rowstore.Asc(colPosition), rowstore.Asc(colID)}
}

// storeErr turns a row store failure into the domain error taxonomy.
// Errors that already belong to the taxonomy pass through.
func storeErr(op, entity, id string, err error) error {
	if err == nil {
		return nil
	}
	if rowstore.IsNoRows(err) {
		return &models.NotFoundError{Entity: entity, ID: id}
	}

	var (
		notFound *models.NotFoundError
		invalid  *models.ValidationError
		repoErr  *models.RepositoryError
	)
	if errors.As(err, &notFound) || errors.As(err, &invalid) || errors.As(err, &repoErr) ||
		errors.Is(err, models.ErrUnauthorized) {
		return err
	}

	var se *rowstore.Error
	if errors.As(err, &se) {
		return &models.RepositoryError{Op: op, Code: se.Code, Message: se.Message, Err: err}
	}
	return &models.RepositoryError{Op: op, Message: err.Error(), Err: err}
}

// nextPosition is the append position among rows of table sharing parent.
func nextPosition(ctx context.Context, store rowstore.Store, table, parentCol string, parentID uuid.UUID) (int, error) {
	max, ok, err := store.Max(ctx, table, colPosition, rowstore.Eq(parentCol, parentID))
	if err != nil {
		return 0, err
	}
	var positions []int
	if ok {
		positions = append(positions, max)
	}
	return ordering.NextPosition(positions), nil
}

// updatePositions writes every update in one transaction. A missing id rolls
// the whole batch back.
func updatePositions(ctx context.Context, store rowstore.Store, table, entity string, updates []models.PositionUpdate, now time.Time) error {
	if len(updates) == 0 {
		return nil
	}
	op := table + ".update_positions"
	return store.WithTx(ctx, func(tx rowstore.Store) error {
		for _, u := range updates {
			row := mappers.PositionRow(u.Position)
			row[colUpdatedAt] = now
			rows, err := tx.Update(ctx, table, row, rowstore.Eq(colID, u.ID))
			if err != nil {
				return storeErr(op, entity, u.ID.String(), err)
			}
			if len(rows) == 0 {
				return &models.NotFoundError{Entity: entity, ID: u.ID.String()}
			}
		}
		return nil
	})
}

// boardListIDs returns the ids of every list on a board, ready for an In filter.
func boardListIDs(ctx context.Context, store rowstore.Store, boardID uuid.UUID) ([]any, error) {
	rows, err := store.Select(ctx, mappers.ListsTable, rowstore.Query{
		Columns: []string{colID},
		Filters: []rowstore.Filter{rowstore.Eq(colBoardID, boardID)},
	})
	if err != nil {
		return nil, err
	}
	ids := make([]any, len(rows))
	for i, row := range rows {
		ids[i] = row[colID]
	}
	return ids, nil
}

// nestCards hangs each card off its list, both sorted by position.
func nestCards(lists []*models.List, cards []*models.Card) []*models.List {
	byList := make(map[uuid.UUID][]*models.Card, len(lists))
	for _, c := range cards {
		byList[c.ListID] = append(byList[c.ListID], c)
	}
	for _, l := range lists {
		l.Cards = byList[l.ID]
		ordering.SortCards(l.Cards)
	}
	ordering.SortLists(lists)
	return lists
}

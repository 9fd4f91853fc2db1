package db

import (
	"context"
	"fmt"
	"time"

	"github.com/chepyr/go-kanban/internal/mappers"
	"github.com/chepyr/go-kanban/internal/ordering"
	"github.com/chepyr/go-kanban/internal/rowstore"
	"github.com/chepyr/go-kanban/shared/models"
	"github.com/google/uuid"
)

type ListRepository struct {
	store rowstore.Store
	now   func() time.Time
}

func NewListRepository(store rowstore.Store) *ListRepository {
	return &ListRepository{store: store, now: utcNow}
}

func (r *ListRepository) withStore(store rowstore.Store) *ListRepository {
	return &ListRepository{store: store, now: r.now}
}

func (r *ListRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.List, error) {
	row, err := r.store.SelectOne(ctx, mappers.ListsTable, byID(id))
	if err != nil {
		return nil, storeErr("lists.get", "list", id.String(), err)
	}
	return mappers.ListToDomain(row), nil
}

func (r *ListRepository) GetAllByBoardID(ctx context.Context, boardID uuid.UUID) ([]*models.List, error) {
	rows, err := r.store.Select(ctx, mappers.ListsTable, rowstore.Query{
		Filters: []rowstore.Filter{rowstore.Eq(colBoardID, boardID)},
		Order:   byPosition(),
	})
	if err != nil {
		return nil, storeErr("lists.list", "board", boardID.String(), err)
	}
	lists := make([]*models.List, 0, len(rows))
	for _, row := range rows {
		lists = append(lists, mappers.ListToDomain(row))
	}
	return lists, nil
}

// Create appends the list to its board. The board row is locked first so
// concurrent appends get distinct positions.
func (r *ListRepository) Create(ctx context.Context, input models.CreateListInput) (*models.List, error) {
	const op = "lists.create"
	var created *models.List
	err := r.store.WithTx(ctx, func(tx rowstore.Store) error {
		if err := tx.Lock(ctx, mappers.BoardsTable, rowstore.Eq(colID, input.BoardID)); err != nil {
			return storeErr(op, "board", input.BoardID.String(), err)
		}

		count, err := tx.Count(ctx, mappers.ListsTable, rowstore.Eq(colBoardID, input.BoardID))
		if err != nil {
			return storeErr(op, "list", "", err)
		}
		if count >= models.MaxListsPerBoard {
			return models.NewValidationError("boardId",
				fmt.Sprintf("A board can have at most %d lists", models.MaxListsPerBoard))
		}

		position, err := nextPosition(ctx, tx, mappers.ListsTable, colBoardID, input.BoardID)
		if err != nil {
			return storeErr(op, "list", "", err)
		}
		inserted, err := tx.Insert(ctx, mappers.ListsTable, newRow(mappers.ListInsertRow(input, position), r.now()))
		if err != nil {
			return storeErr(op, "list", "", err)
		}
		created = mappers.ListToDomain(inserted)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *ListRepository) Update(ctx context.Context, id uuid.UUID, input models.UpdateListInput) (*models.List, error) {
	row := mappers.ListUpdateRow(input)
	row[colUpdatedAt] = r.now()

	rows, err := r.store.Update(ctx, mappers.ListsTable, row, rowstore.Eq(colID, id))
	if err != nil {
		return nil, storeErr("lists.update", "list", id.String(), err)
	}
	if len(rows) == 0 {
		return nil, &models.NotFoundError{Entity: "list", ID: id.String()}
	}
	return mappers.ListToDomain(rows[0]), nil
}

// Delete removes the list's cards and then the list.
func (r *ListRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "lists.delete"
	return r.store.WithTx(ctx, func(tx rowstore.Store) error {
		if err := tx.Lock(ctx, mappers.ListsTable, rowstore.Eq(colID, id)); err != nil {
			return storeErr(op, "list", id.String(), err)
		}
		if _, err := tx.Delete(ctx, mappers.CardsTable, rowstore.Eq(colListID, id)); err != nil {
			return storeErr(op, "list", id.String(), err)
		}
		n, err := tx.Delete(ctx, mappers.ListsTable, rowstore.Eq(colID, id))
		if err != nil {
			return storeErr(op, "list", id.String(), err)
		}
		if n == 0 {
			return &models.NotFoundError{Entity: "list", ID: id.String()}
		}
		return nil
	})
}

func (r *ListRepository) UpdatePositions(ctx context.Context, updates []models.PositionUpdate) error {
	return updatePositions(ctx, r.store, mappers.ListsTable, "list", updates, r.now())
}

// ReorderToIndex moves a list to toIndex among its board's lists and returns
// it with the new position.
func (r *ListRepository) ReorderToIndex(ctx context.Context, listID uuid.UUID, toIndex int) (*models.List, error) {
	var moved *models.List
	err := r.store.WithTx(ctx, func(tx rowstore.Store) error {
		repo := r.withStore(tx)
		list, err := repo.GetByID(ctx, listID)
		if err != nil {
			return err
		}
		if err := tx.Lock(ctx, mappers.BoardsTable, rowstore.Eq(colID, list.BoardID)); err != nil {
			return storeErr("lists.reorder", "board", list.BoardID.String(), err)
		}
		siblings, err := repo.GetAllByBoardID(ctx, list.BoardID)
		if err != nil {
			return err
		}

		plan, err := ordering.Reorder(ordering.ListItems(siblings), listID, toIndex)
		if err != nil {
			return &models.NotFoundError{Entity: "list", ID: listID.String()}
		}
		if err := repo.UpdatePositions(ctx, plan.Updates(listID)); err != nil {
			return err
		}
		moved, err = repo.GetByID(ctx, listID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return moved, nil
}

package db

import (
	"context"
	"strings"
	"time"

	"github.com/chepyr/go-kanban/internal/mappers"
	"github.com/chepyr/go-kanban/internal/ordering"
	"github.com/chepyr/go-kanban/internal/rowstore"
	"github.com/chepyr/go-kanban/shared/models"
	"github.com/google/uuid"
)

type CardRepository struct {
	store rowstore.Store
	now   func() time.Time
}

func NewCardRepository(store rowstore.Store) *CardRepository {
	return &CardRepository{store: store, now: utcNow}
}

func (r *CardRepository) withStore(store rowstore.Store) *CardRepository {
	return &CardRepository{store: store, now: r.now}
}

func (r *CardRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Card, error) {
	row, err := r.store.SelectOne(ctx, mappers.CardsTable, byID(id))
	if err != nil {
		return nil, storeErr("cards.get", "card", id.String(), err)
	}
	return mappers.CardToDomain(row), nil
}

func (r *CardRepository) GetAllByListID(ctx context.Context, listID uuid.UUID) ([]*models.Card, error) {
	return r.selectCards(ctx, "cards.list", rowstore.Query{
		Filters: []rowstore.Filter{rowstore.Eq(colListID, listID)},
		Order:   byPosition(),
	})
}

func (r *CardRepository) GetAllByBoardID(ctx context.Context, boardID uuid.UUID) ([]*models.Card, error) {
	listIDs, err := boardListIDs(ctx, r.store, boardID)
	if err != nil {
		return nil, storeErr("cards.list_board", "board", boardID.String(), err)
	}
	cards, err := r.selectCards(ctx, "cards.list_board", rowstore.Query{
		Filters: []rowstore.Filter{rowstore.In(colListID, listIDs...)},
		Order:   byPosition(),
	})
	if err != nil {
		return nil, err
	}
	return cards, nil
}

// Search matches query against title or description, case-insensitively,
// newest update first. An empty query returns every card on the board.
func (r *CardRepository) Search(ctx context.Context, boardID uuid.UUID, query string) ([]*models.Card, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return r.GetAllByBoardID(ctx, boardID)
	}
	listIDs, err := boardListIDs(ctx, r.store, boardID)
	if err != nil {
		return nil, storeErr("cards.search", "board", boardID.String(), err)
	}
	return r.selectCards(ctx, "cards.search", rowstore.Query{
		Filters: []rowstore.Filter{rowstore.In(colListID, listIDs...)},
		Any: []rowstore.Filter{
			rowstore.Contains("title", query),
			rowstore.Contains("description", query),
		},
		Order: []rowstore.Order{rowstore.Desc(colUpdatedAt), rowstore.Asc(colID)},
	})
}

func (r *CardRepository) FilterByPriority(ctx context.Context, boardID uuid.UUID, priority models.Priority) ([]*models.Card, error) {
	listIDs, err := boardListIDs(ctx, r.store, boardID)
	if err != nil {
		return nil, storeErr("cards.filter", "board", boardID.String(), err)
	}
	return r.selectCards(ctx, "cards.filter", rowstore.Query{
		Filters: []rowstore.Filter{
			rowstore.In(colListID, listIDs...),
			rowstore.Eq("priority", string(priority)),
		},
		Order: byPosition(),
	})
}

func (r *CardRepository) selectCards(ctx context.Context, op string, q rowstore.Query) ([]*models.Card, error) {
	rows, err := r.store.Select(ctx, mappers.CardsTable, q)
	if err != nil {
		return nil, storeErr(op, "card", "", err)
	}
	cards := make([]*models.Card, 0, len(rows))
	for _, row := range rows {
		cards = append(cards, mappers.CardToDomain(row))
	}
	return cards, nil
}

// Create appends the card to its list under a lock on the list row.
func (r *CardRepository) Create(ctx context.Context, input models.CreateCardInput) (*models.Card, error) {
	const op = "cards.create"
	var created *models.Card
	err := r.store.WithTx(ctx, func(tx rowstore.Store) error {
		if err := tx.Lock(ctx, mappers.ListsTable, rowstore.Eq(colID, input.ListID)); err != nil {
			return storeErr(op, "list", input.ListID.String(), err)
		}
		position, err := nextPosition(ctx, tx, mappers.CardsTable, colListID, input.ListID)
		if err != nil {
			return storeErr(op, "card", "", err)
		}
		inserted, err := tx.Insert(ctx, mappers.CardsTable, newRow(mappers.CardInsertRow(input, position), r.now()))
		if err != nil {
			return storeErr(op, "card", "", err)
		}
		created = mappers.CardToDomain(inserted)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *CardRepository) Update(ctx context.Context, id uuid.UUID, input models.UpdateCardInput) (*models.Card, error) {
	row := mappers.CardUpdateRow(input)
	row[colUpdatedAt] = r.now()

	rows, err := r.store.Update(ctx, mappers.CardsTable, row, rowstore.Eq(colID, id))
	if err != nil {
		return nil, storeErr("cards.update", "card", id.String(), err)
	}
	if len(rows) == 0 {
		return nil, &models.NotFoundError{Entity: "card", ID: id.String()}
	}
	return mappers.CardToDomain(rows[0]), nil
}

func (r *CardRepository) Delete(ctx context.Context, id uuid.UUID) error {
	n, err := r.store.Delete(ctx, mappers.CardsTable, rowstore.Eq(colID, id))
	if err != nil {
		return storeErr("cards.delete", "card", id.String(), err)
	}
	if n == 0 {
		return &models.NotFoundError{Entity: "card", ID: id.String()}
	}
	return nil
}

// Move sets list_id and position in a single write.
func (r *CardRepository) Move(ctx context.Context, input models.MoveCardInput) (*models.Card, error) {
	const op = "cards.move"
	var moved *models.Card
	err := r.store.WithTx(ctx, func(tx rowstore.Store) error {
		if err := tx.Lock(ctx, mappers.ListsTable, rowstore.Eq(colID, input.TargetListID)); err != nil {
			return storeErr(op, "list", input.TargetListID.String(), err)
		}
		row := mappers.CardMoveRow(input)
		row[colUpdatedAt] = r.now()
		rows, err := tx.Update(ctx, mappers.CardsTable, row, rowstore.Eq(colID, input.CardID))
		if err != nil {
			return storeErr(op, "card", input.CardID.String(), err)
		}
		if len(rows) == 0 {
			return &models.NotFoundError{Entity: "card", ID: input.CardID.String()}
		}
		moved = mappers.CardToDomain(rows[0])
		return nil
	})
	if err != nil {
		return nil, err
	}
	return moved, nil
}

func (r *CardRepository) UpdatePositions(ctx context.Context, updates []models.PositionUpdate) error {
	return updatePositions(ctx, r.store, mappers.CardsTable, "card", updates, r.now())
}

// MoveToIndex places the card at toIndex of targetListID, which may be its
// current list. The target list has to be on the same board as the card.
func (r *CardRepository) MoveToIndex(ctx context.Context, cardID, targetListID uuid.UUID, toIndex int) (*models.Card, error) {
	var moved *models.Card
	err := r.store.WithTx(ctx, func(tx rowstore.Store) error {
		cards := r.withStore(tx)
		lists := &ListRepository{store: tx, now: r.now}

		card, err := cards.GetByID(ctx, cardID)
		if err != nil {
			return err
		}
		source, err := lists.GetByID(ctx, card.ListID)
		if err != nil {
			return err
		}
		target := source
		if targetListID != card.ListID {
			if target, err = lists.GetByID(ctx, targetListID); err != nil {
				return err
			}
			if target.BoardID != source.BoardID {
				return models.NewValidationError("targetListId", "Target list belongs to another board")
			}
		}

		if err := tx.Lock(ctx, mappers.ListsTable, rowstore.Eq(colID, target.ID)); err != nil {
			return storeErr("cards.move_to_index", "list", target.ID.String(), err)
		}
		siblings, err := cards.GetAllByListID(ctx, target.ID)
		if err != nil {
			return err
		}

		var plan ordering.Plan
		if target.ID == card.ListID {
			if plan, err = ordering.Reorder(ordering.CardItems(siblings), cardID, toIndex); err != nil {
				return &models.NotFoundError{Entity: "card", ID: cardID.String()}
			}
		} else {
			plan = ordering.MoveAcross(ordering.CardItems(siblings), cardID, toIndex)
		}

		if err := cards.UpdatePositions(ctx, plan.Renumbered); err != nil {
			return err
		}
		moved, err = cards.Move(ctx, models.MoveCardInput{
			CardID:       cardID,
			TargetListID: target.ID,
			Position:     plan.Position,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return moved, nil
}

package mappers

import (
	"github.com/chepyr/go-kanban/internal/rowstore"
	"github.com/chepyr/go-kanban/shared/models"
)

const (
	CardsTable = "cards"

	colCardTitle       = "title"
	colCardDescription = "description"
	colCardListID      = "list_id"
	colCardPriority    = "priority"
)

// CardToDomain converts a cards row. A NULL description becomes "".
func CardToDomain(row rowstore.Row) *models.Card {
	return &models.Card{
		ID:          uuidValue(row, colID),
		Title:       stringValue(row, colCardTitle),
		Description: stringValue(row, colCardDescription),
		ListID:      uuidValue(row, colCardListID),
		Priority:    models.Priority(stringValue(row, colCardPriority)),
		Position:    intValue(row, colPosition),
		CreatedAt:   timeValue(row, colCreatedAt),
		UpdatedAt:   timeValue(row, colUpdatedAt),
	}
}

func CardInsertRow(input models.CreateCardInput, position int) rowstore.Row {
	priority := input.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	return rowstore.Row{
		colCardTitle:       input.Title,
		colCardDescription: nullableText(input.Description),
		colCardListID:      input.ListID,
		colCardPriority:    string(priority),
		colPosition:        position,
	}
}

func CardUpdateRow(input models.UpdateCardInput) rowstore.Row {
	row := rowstore.Row{}
	if input.Title != nil {
		row[colCardTitle] = *input.Title
	}
	if input.Description != nil {
		row[colCardDescription] = nullableText(input.Description)
	}
	if input.Priority != nil {
		row[colCardPriority] = string(*input.Priority)
	}
	if input.Position != nil {
		row[colPosition] = *input.Position
	}
	return row
}

// CardMoveRow is the single write that relocates a card.
func CardMoveRow(input models.MoveCardInput) rowstore.Row {
	return rowstore.Row{
		colCardListID: input.TargetListID,
		colPosition:   input.Position,
	}
}

func PositionRow(position int) rowstore.Row {
	return rowstore.Row{colPosition: position}
}

func nullableText(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

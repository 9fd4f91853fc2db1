package mappers

import (
	"github.com/chepyr/go-kanban/internal/rowstore"
	"github.com/chepyr/go-kanban/shared/models"
	"github.com/google/uuid"
)

const (
	BoardsTable = "boards"

	colBoardName    = "name"
	colBoardOwnerID = "owner_id"
)

func BoardToDomain(row rowstore.Row) *models.Board {
	return &models.Board{
		ID:        uuidValue(row, colID),
		Name:      stringValue(row, colBoardName),
		OwnerID:   uuidValue(row, colBoardOwnerID),
		CreatedAt: timeValue(row, colCreatedAt),
		UpdatedAt: timeValue(row, colUpdatedAt),
	}
}

func BoardInsertRow(input models.CreateBoardInput, ownerID uuid.UUID) rowstore.Row {
	return rowstore.Row{
		colBoardName:    input.Name,
		colBoardOwnerID: ownerID,
	}
}

func BoardUpdateRow(input models.UpdateBoardInput) rowstore.Row {
	row := rowstore.Row{}
	if input.Name != nil {
		row[colBoardName] = *input.Name
	}
	return row
}

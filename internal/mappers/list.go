package mappers

import (
	"github.com/chepyr/go-kanban/internal/rowstore"
	"github.com/chepyr/go-kanban/shared/models"
)

const (
	ListsTable = "lists"

	colListTitle   = "title"
	colListBoardID = "board_id"
)

func ListToDomain(row rowstore.Row) *models.List {
	return &models.List{
		ID:        uuidValue(row, colID),
		Title:     stringValue(row, colListTitle),
		BoardID:   uuidValue(row, colListBoardID),
		Position:  intValue(row, colPosition),
		CreatedAt: timeValue(row, colCreatedAt),
		UpdatedAt: timeValue(row, colUpdatedAt),
	}
}

func ListInsertRow(input models.CreateListInput, position int) rowstore.Row {
	return rowstore.Row{
		colListTitle:   input.Title,
		colListBoardID: input.BoardID,
		colPosition:    position,
	}
}

func ListUpdateRow(input models.UpdateListInput) rowstore.Row {
	row := rowstore.Row{}
	if input.Title != nil {
		row[colListTitle] = *input.Title
	}
	if input.Position != nil {
		row[colPosition] = *input.Position
	}
	return row
}

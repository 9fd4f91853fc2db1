package validation

import (
	"github.com/chepyr/go-kanban/shared/models"
	"github.com/google/uuid"
)

type listForm struct {
	Title    string    `json:"title" label:"List title" validate:"required,min=2,max=50"`
	BoardID  uuid.UUID `json:"boardId" label:"Board" validate:"required"`
	Position int       `json:"position" label:"Position" validate:"min=0"`
}

func ValidateCreateList(in models.CreateListInput) (models.CreateListInput, error) {
	out := models.CreateListInput{Title: *trim(&in.Title), BoardID: in.BoardID}
	if err := check(listForm{Title: out.Title, BoardID: out.BoardID}, "Title", "BoardID"); err != nil {
		return in, err
	}
	return out, nil
}

func ValidateUpdateList(in models.UpdateListInput) (models.UpdateListInput, error) {
	out := models.UpdateListInput{Title: trim(in.Title), Position: in.Position}

	form := listForm{}
	var fields []string
	if out.Title != nil {
		form.Title = *out.Title
		fields = append(fields, "Title")
	}
	if out.Position != nil {
		form.Position = *out.Position
		fields = append(fields, "Position")
	}
	if len(fields) == 0 {
		return out, nil
	}
	if err := check(form, fields...); err != nil {
		return in, err
	}
	return out, nil
}

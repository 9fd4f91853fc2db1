package validation

import (
	"github.com/chepyr/go-kanban/shared/models"
	"github.com/google/uuid"
)

type cardForm struct {
	Title       string    `json:"title" label:"Card title" validate:"required,min=3,max=200"`
	Description string    `json:"description" label:"Description" validate:"max=5000"`
	ListID      uuid.UUID `json:"listId" label:"List" validate:"required"`
	Priority    string    `json:"priority" label:"Priority" validate:"oneof=low medium high"`
	Position    int       `json:"position" label:"Position" validate:"min=0"`
}

func ValidateCreateCard(in models.CreateCardInput) (models.CreateCardInput, error) {
	out := models.CreateCardInput{
		Title:       *trim(&in.Title),
		Description: trim(in.Description),
		ListID:      in.ListID,
		Priority:    in.Priority,
	}
	if out.Priority == "" {
		out.Priority = models.PriorityMedium
	}

	form := cardForm{Title: out.Title, ListID: out.ListID, Priority: string(out.Priority)}
	if out.Description != nil {
		form.Description = *out.Description
	}
	if err := check(form, "Title", "Description", "ListID", "Priority"); err != nil {
		return in, err
	}
	return out, nil
}

func ValidateUpdateCard(in models.UpdateCardInput) (models.UpdateCardInput, error) {
	out := models.UpdateCardInput{
		Title:       trim(in.Title),
		Description: trim(in.Description),
		Priority:    in.Priority,
		Position:    in.Position,
	}

	form := cardForm{}
	var fields []string
	if out.Title != nil {
		form.Title = *out.Title
		fields = append(fields, "Title")
	}
	if out.Description != nil {
		form.Description = *out.Description
		fields = append(fields, "Description")
	}
	if out.Priority != nil {
		form.Priority = string(*out.Priority)
		fields = append(fields, "Priority")
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

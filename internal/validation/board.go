package validation

import "github.com/chepyr/go-kanban/shared/models"

type boardForm struct {
	Name string `json:"name" label:"Board name" validate:"required,min=3,max=100"`
}

func ValidateCreateBoard(in models.CreateBoardInput) (models.CreateBoardInput, error) {
	out := models.CreateBoardInput{Name: *trim(&in.Name)}
	if err := check(boardForm{Name: out.Name}); err != nil {
		return in, err
	}
	return out, nil
}

func ValidateUpdateBoard(in models.UpdateBoardInput) (models.UpdateBoardInput, error) {
	out := models.UpdateBoardInput{Name: trim(in.Name)}
	if out.Name == nil {
		return out, nil
	}
	if err := check(boardForm{Name: *out.Name}, "Name"); err != nil {
		return in, err
	}
	return out, nil
}

package models

import (
	"time"

	"github.com/google/uuid"
)

type List struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	BoardID   uuid.UUID `json:"boardId"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Cards     []*Card   `json:"cards,omitempty"`
}

type CreateListInput struct {
	Title   string    `json:"title"`
	BoardID uuid.UUID `json:"boardId"`
}

type UpdateListInput struct {
	Title    *string `json:"title,omitempty"`
	Position *int    `json:"position,omitempty"`
}

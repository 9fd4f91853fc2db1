package models

import (
	"time"

	"github.com/google/uuid"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Card struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	ListID      uuid.UUID `json:"listId"`
	Priority    Priority  `json:"priority"`
	Position    int       `json:"position"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CreateCardInput is the payload for a new card. An empty Priority means medium.
type CreateCardInput struct {
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	ListID      uuid.UUID `json:"listId"`
	Priority    Priority  `json:"priority,omitempty"`
}

// UpdateCardInput only carries the fields the caller wants to change.
type UpdateCardInput struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Priority    *Priority `json:"priority,omitempty"`
	Position    *int      `json:"position,omitempty"`
}

type MoveCardInput struct {
	CardID       uuid.UUID `json:"cardId"`
	TargetListID uuid.UUID `json:"targetListId"`
	Position     int       `json:"position"`
}

type PositionUpdate struct {
	ID       uuid.UUID `json:"id"`
	Position int       `json:"position"`
}

// CardFilters narrows the cards shown for a board. Zero value shows everything.
type CardFilters struct {
	Priority    Priority `json:"priority,omitempty"`
	SearchQuery string   `json:"searchQuery,omitempty"`
}

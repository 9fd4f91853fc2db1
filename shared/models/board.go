package models

import (
	"time"

	"github.com/google/uuid"
)

type Board struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	OwnerID   uuid.UUID `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Lists     []*List   `json:"lists,omitempty"`
}

type BoardSummary struct {
	Board
	ListCount int `json:"listCount"`
	CardCount int `json:"cardCount"`
}

type CreateBoardInput struct {
	Name string `json:"name"`
}

type UpdateBoardInput struct {
	Name *string `json:"name,omitempty"`
}

type BoardSortField string

const (
	SortByName      BoardSortField = "name"
	SortByCreatedAt BoardSortField = "created_at"
	SortByUpdatedAt BoardSortField = "updated_at"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

type BoardFilter struct {
	SearchQuery string         `json:"searchQuery,omitempty"`
	SortBy      BoardSortField `json:"sortBy,omitempty"`
	SortOrder   SortOrder      `json:"sortOrder,omitempty"`
}

// WithDefaults fills unset or unknown sort options: newest update first.
func (f BoardFilter) WithDefaults() BoardFilter {
	switch f.SortBy {
	case SortByName, SortByCreatedAt, SortByUpdatedAt:
	default:
		f.SortBy = SortByUpdatedAt
	}
	if f.SortOrder != SortAsc {
		f.SortOrder = SortDesc
	}
	return f
}

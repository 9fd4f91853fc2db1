package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFoundError_MatchesSentinel(t *testing.T) {
	err := fmt.Errorf("load card: %w", &NotFoundError{Entity: "card", ID: "42"})

	assert.True(t, IsNotFound(err))
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, IsUnauthorized(err))
	assert.Equal(t, "load card: card with id 42 not found", err.Error())
}

func TestValidationError_MessageIsSortedByField(t *testing.T) {
	err := &ValidationError{Fields: FieldErrors{
		"title":    "Card title is required",
		"priority": "Priority must be one of: low medium high",
	}}

	assert.Equal(t,
		"validation failed: priority: Priority must be one of: low medium high; title: Card title is required",
		err.Error())

	ve, ok := AsValidationError(fmt.Errorf("create: %w", err))
	assert.True(t, ok)
	assert.Len(t, ve.Fields, 2)
}

func TestRepositoryError_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := &RepositoryError{Op: "cards.update", Code: "08006", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "cards.update: connection reset (code 08006)", err.Error())
}

func TestBoardFilter_WithDefaults(t *testing.T) {
	tests := []struct {
		name string
		in   BoardFilter
		want BoardFilter
	}{
		{"zero value", BoardFilter{}, BoardFilter{SortBy: SortByUpdatedAt, SortOrder: SortDesc}},
		{"keeps valid options", BoardFilter{SortBy: SortByName, SortOrder: SortAsc}, BoardFilter{SortBy: SortByName, SortOrder: SortAsc}},
		{"unknown sort field", BoardFilter{SortBy: "owner_id", SearchQuery: "x"}, BoardFilter{SortBy: SortByUpdatedAt, SortOrder: SortDesc, SearchQuery: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.WithDefaults())
		})
	}
}

func TestDefaultDisplayName(t *testing.T) {
	assert.Equal(t, "jane.doe", DefaultDisplayName("jane.doe@example.com"))
	assert.Equal(t, "nodomain", DefaultDisplayName("nodomain"))
}

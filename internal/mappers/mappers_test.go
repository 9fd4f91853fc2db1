package mappers

import (
	"testing"
	"time"

	"github.com/chepyr/go-kanban/internal/rowstore"
	"github.com/chepyr/go-kanban/shared/models"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

var (
	boardID = uuid.MustParse("7b0a4f7c-3c2f-4f59-8a1b-0c4a2c8f9e01")
	ownerID = uuid.MustParse("1d1f5a4e-9a3e-4c8e-b1a4-5e2f2d9c7b02")
	listID  = uuid.MustParse("c3f0e6a2-8d4b-4b7e-9f1a-2a6b3c4d5e03")
	cardID  = uuid.MustParse("e4a1b2c3-d4e5-4f60-8a7b-9c0d1e2f3a04")
)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func TestBoardToDomain(t *testing.T) {
	row := rowstore.Row{
		"id":         boardID.String(),
		"name":       "Roadmap",
		"owner_id":   ownerID.String(),
		"created_at": "2024-03-01T09:30:00Z",
		"updated_at": "2024-03-02 10:00:00.5+00:00",
	}

	want := &models.Board{
		ID:        boardID,
		Name:      "Roadmap",
		OwnerID:   ownerID,
		CreatedAt: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
		UpdatedAt: time.Date(2024, 3, 2, 10, 0, 0, 500_000_000, time.UTC),
	}
	if diff := cmp.Diff(want, BoardToDomain(row)); diff != "" {
		t.Errorf("BoardToDomain mismatch (-want +got):\n%s", diff)
	}
}

func TestListToDomain(t *testing.T) {
	row := rowstore.Row{
		"id":         listID.String(),
		"title":      "Doing",
		"board_id":   boardID.String(),
		"position":   int64(3),
		"created_at": "2024-03-01T09:30:00Z",
		"updated_at": "2024-03-01T09:30:00Z",
	}

	got := ListToDomain(row)
	assert.Equal(t, listID, got.ID)
	assert.Equal(t, "Doing", got.Title)
	assert.Equal(t, boardID, got.BoardID)
	assert.Equal(t, 3, got.Position)
	assert.Nil(t, got.Cards)
}

func TestCardToDomain_NullDescriptionIsAbsent(t *testing.T) {
	row := rowstore.Row{
		"id":          cardID.String(),
		"title":       "Ship it",
		"description": nil,
		"list_id":     listID.String(),
		"priority":    "high",
		"position":    int64(0),
		"created_at":  "2024-03-01T09:30:00Z",
		"updated_at":  "2024-03-01T09:30:00Z",
	}

	got := CardToDomain(row)
	assert.Equal(t, "", got.Description)
	assert.Equal(t, models.PriorityHigh, got.Priority)
	assert.Equal(t, listID, got.ListID)
}

func TestToDomain_MalformedValuesPassThrough(t *testing.T) {
	got := CardToDomain(rowstore.Row{"id": "not-a-uuid", "created_at": "yesterday", "position": "7"})
	assert.Equal(t, uuid.Nil, got.ID)
	assert.True(t, got.CreatedAt.IsZero())
	assert.Equal(t, 7, got.Position)
}

// insert rows carry persisted names only
func TestInsertRows_UseColumnNames(t *testing.T) {
	domainNames := []string{"ownerId", "boardId", "listId", "createdAt", "updatedAt"}

	tests := []struct {
		name string
		row  rowstore.Row
		want rowstore.Row
	}{
		{
			name: "board",
			row:  BoardInsertRow(models.CreateBoardInput{Name: "Roadmap"}, ownerID),
			want: rowstore.Row{"name": "Roadmap", "owner_id": ownerID},
		},
		{
			name: "list",
			row:  ListInsertRow(models.CreateListInput{Title: "Todo", BoardID: boardID}, 2),
			want: rowstore.Row{"title": "Todo", "board_id": boardID, "position": 2},
		},
		{
			name: "card with description",
			row: CardInsertRow(models.CreateCardInput{
				Title: "Ship it", Description: strPtr("notes"), ListID: listID, Priority: models.PriorityLow,
			}, 0),
			want: rowstore.Row{"title": "Ship it", "description": "notes", "list_id": listID, "priority": "low", "position": 0},
		},
		{
			name: "card defaults",
			row:  CardInsertRow(models.CreateCardInput{Title: "Ship it", ListID: listID}, 5),
			want: rowstore.Row{"title": "Ship it", "description": nil, "list_id": listID, "priority": "medium", "position": 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.row); diff != "" {
				t.Errorf("insert row mismatch (-want +got):\n%s", diff)
			}
			for _, n := range domainNames {
				assert.NotContains(t, tt.row, n)
			}
		})
	}
}

func TestUpdateRows_EmptyInputGivesEmptyRow(t *testing.T) {
	assert.Empty(t, BoardUpdateRow(models.UpdateBoardInput{}))
	assert.Empty(t, ListUpdateRow(models.UpdateListInput{}))
	assert.Empty(t, CardUpdateRow(models.UpdateCardInput{}))
}

func TestUpdateRows_OneFieldGivesOneKey(t *testing.T) {
	high := models.PriorityHigh

	tests := []struct {
		name string
		row  rowstore.Row
		want rowstore.Row
	}{
		{"board name", BoardUpdateRow(models.UpdateBoardInput{Name: strPtr("New")}), rowstore.Row{"name": "New"}},
		{"list title", ListUpdateRow(models.UpdateListInput{Title: strPtr("Done")}), rowstore.Row{"title": "Done"}},
		{"list position", ListUpdateRow(models.UpdateListInput{Position: intPtr(4)}), rowstore.Row{"position": 4}},
		{"card priority", CardUpdateRow(models.UpdateCardInput{Priority: &high}), rowstore.Row{"priority": "high"}},
		{"card description", CardUpdateRow(models.UpdateCardInput{Description: strPtr("more")}), rowstore.Row{"description": "more"}},
		{"card description cleared", CardUpdateRow(models.UpdateCardInput{Description: strPtr("")}), rowstore.Row{"description": nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, tt.row, 1)
			assert.Equal(t, tt.want, tt.row)
		})
	}
}

func TestCardMoveRow(t *testing.T) {
	row := CardMoveRow(models.MoveCardInput{CardID: cardID, TargetListID: listID, Position: 3})
	assert.Equal(t, rowstore.Row{"list_id": listID, "position": 3}, row)
}

func TestUserRows(t *testing.T) {
	userID := uuid.MustParse("5a6b7c8d-9e0f-4a1b-8c2d-3e4f5a6b7c05")
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	row := UserInsertRow(&models.User{
		ID:           userID,
		Email:        "ada@example.com",
		PasswordHash: "hash",
		CreatedAt:    created,
		UpdatedAt:    created,
	})
	assert.Equal(t, "ada", row["display_name"])
	assert.Equal(t, userID, row["id"])

	got := UserToDomain(rowstore.Row{
		"id":            userID.String(),
		"email":         "ada@example.com",
		"display_name":  "Ada",
		"password_hash": "hash",
		"created_at":    "2024-01-02T03:04:05Z",
		"updated_at":    "garbage",
	})
	want := &models.User{
		ID:           userID,
		Email:        "ada@example.com",
		DisplayName:  "Ada",
		PasswordHash: "hash",
		CreatedAt:    created,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("UserToDomain mismatch (-want +got):\n%s", diff)
	}
}

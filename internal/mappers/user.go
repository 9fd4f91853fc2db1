package mappers

import (
	"github.com/chepyr/go-kanban/internal/rowstore"
	"github.com/chepyr/go-kanban/shared/models"
)

const (
	UsersTable = "users"

	colUserEmail        = "email"
	colUserDisplayName  = "display_name"
	colUserPasswordHash = "password_hash"
)

func UserToDomain(row rowstore.Row) *models.User {
	return &models.User{
		ID:           uuidValue(row, colID),
		Email:        stringValue(row, colUserEmail),
		DisplayName:  stringValue(row, colUserDisplayName),
		PasswordHash: stringValue(row, colUserPasswordHash),
		CreatedAt:    timeValue(row, colCreatedAt),
		UpdatedAt:    timeValue(row, colUpdatedAt),
	}
}

// UserInsertRow falls back to the email's local part for an empty display name.
func UserInsertRow(user *models.User) rowstore.Row {
	name := user.DisplayName
	if name == "" {
		name = models.DefaultDisplayName(user.Email)
	}
	return rowstore.Row{
		colID:               user.ID,
		colUserEmail:        user.Email,
		colUserDisplayName:  name,
		colUserPasswordHash: user.PasswordHash,
		colCreatedAt:        user.CreatedAt,
		colUpdatedAt:        user.UpdatedAt,
	}
}

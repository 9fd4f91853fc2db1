package db

import (
	"context"
	"time"

	"github.com/chepyr/go-kanban/internal/rowstore"
	"github.com/chepyr/go-kanban/shared/models"
)

const revokedTokensTable = "revoked_tokens"

// RevocationRepositoryInterface is the logout list shared by every service
// that accepts tokens from this one.
type RevocationRepositoryInterface interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type RevocationRepository struct {
	store rowstore.Store
}

func NewRevocationRepository(store rowstore.Store) *RevocationRepository {
	return &RevocationRepository{store: store}
}

// Revoke records tokenID as logged out. Revoking the same id again is a no-op.
func (r *RevocationRepository) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if tokenID == "" {
		return nil
	}
	_, err := r.store.Insert(ctx, revokedTokensTable, rowstore.Row{
		"jti":        tokenID,
		"expires_at": expiresAt.UTC(),
	})
	if err != nil && rowstore.CodeOf(err) != rowstore.CodeUniqueViolation {
		return &models.RepositoryError{Op: "revoked_tokens.revoke", Code: rowstore.CodeOf(err), Err: err}
	}
	return nil
}

func (r *RevocationRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}
	n, err := r.store.Count(ctx, revokedTokensTable, rowstore.Eq("jti", tokenID))
	if err != nil {
		return false, &models.RepositoryError{Op: "revoked_tokens.is_revoked", Code: rowstore.CodeOf(err), Err: err}
	}
	return n > 0, nil
}

package db

import (
	"context"
	"strings"
	"time"

	"github.com/chepyr/go-kanban/internal/mappers"
	"github.com/chepyr/go-kanban/internal/rowstore"
	"github.com/chepyr/go-kanban/shared/models"
	"github.com/google/uuid"
)

// defines methods for user db operations
type UserRepositoryInterface interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type UserRepository struct {
	store rowstore.Store
	now   func() time.Time
}

func NewUserRepository(store rowstore.Store) *UserRepository {
	return &UserRepository{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// Create stores user with a normalized email and fills in the id, timestamps
// and display name when they are unset. A taken email is models.ErrEmailTaken.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = r.now()
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = user.CreatedAt
	}
	user.Email = normalizeEmail(user.Email)

	row, err := r.store.Insert(ctx, mappers.UsersTable, mappers.UserInsertRow(user))
	if err != nil {
		if rowstore.CodeOf(err) == rowstore.CodeUniqueViolation {
			return models.ErrEmailTaken
		}
		return &models.RepositoryError{Op: "users.create", Code: rowstore.CodeOf(err), Err: err}
	}
	user.DisplayName = mappers.UserToDomain(row).DisplayName
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	email = normalizeEmail(email)
	return r.getOne(ctx, "users.get_by_email", email, rowstore.Eq("email", email))
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.getOne(ctx, "users.get_by_id", id.String(), rowstore.Eq("id", id))
}

func (r *UserRepository) getOne(ctx context.Context, op, key string, filter rowstore.Filter) (*models.User, error) {
	row, err := r.store.SelectOne(ctx, mappers.UsersTable, rowstore.Query{Filters: []rowstore.Filter{filter}})
	if err != nil {
		if rowstore.IsNoRows(err) {
			return nil, &models.NotFoundError{Entity: "user", ID: key}
		}
		return nil, &models.RepositoryError{Op: op, Code: rowstore.CodeOf(err), Err: err}
	}
	return mappers.UserToDomain(row), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

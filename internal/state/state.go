// Package state holds the client-side containers the CLI drives: the
// signed-in user, the current user's boards and the board being viewed.
//
// Containers are built explicitly and passed to their consumers. Each one
// is the only writer of its own fields and is safe for concurrent readers.
// Repository calls run without holding a container's lock; results are
// applied afterwards.
package state

import (
	"context"
	"errors"

	"github.com/chepyr/go-kanban/shared/models"
	"github.com/google/uuid"
)

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusLoaded  Status = "loaded"
	StatusError   Status = "error"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNoBoard          = errors.New("no board loaded")
)

// IdentityProvider signs users in and out.
type IdentityProvider interface {
	Login(ctx context.Context, input models.LoginInput) (*models.Session, error)
	Register(ctx context.Context, input models.RegisterInput) (*models.Session, error)
	Logout(ctx context.Context, token string) error
	CurrentUser(ctx context.Context, token string) (*models.User, error)
}

// UserSource is how the board containers learn who is signed in.
type UserSource interface {
	UserID() (uuid.UUID, bool)
}

type BoardRepository interface {
	GetSummaries(ctx context.Context, ownerID uuid.UUID, filter models.BoardFilter) ([]*models.BoardSummary, error)
	GetByIDWithData(ctx context.Context, id uuid.UUID) (*models.Board, error)
	Create(ctx context.Context, input models.CreateBoardInput, ownerID uuid.UUID) (*models.Board, error)
	Update(ctx context.Context, id uuid.UUID, input models.UpdateBoardInput) (*models.Board, error)
	Delete(ctx context.Context, id uuid.UUID) error
	IsOwner(ctx context.Context, boardID, userID uuid.UUID) (bool, error)
}

type ListRepository interface {
	GetAllByBoardID(ctx context.Context, boardID uuid.UUID) ([]*models.List, error)
	Create(ctx context.Context, input models.CreateListInput) (*models.List, error)
	Update(ctx context.Context, id uuid.UUID, input models.UpdateListInput) (*models.List, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ReorderToIndex(ctx context.Context, listID uuid.UUID, toIndex int) (*models.List, error)
}

type CardRepository interface {
	GetAllByListID(ctx context.Context, listID uuid.UUID) ([]*models.Card, error)
	Create(ctx context.Context, input models.CreateCardInput) (*models.Card, error)
	Update(ctx context.Context, id uuid.UUID, input models.UpdateCardInput) (*models.Card, error)
	Delete(ctx context.Context, id uuid.UUID) error
	MoveToIndex(ctx context.Context, cardID, targetListID uuid.UUID, toIndex int) (*models.Card, error)
}

// status is embedded by every container.
type status struct {
	status Status
	err    string
}

func (s *status) loading() {
	s.status = StatusLoading
	s.err = ""
}

func (s *status) loaded() {
	s.status = StatusLoaded
	s.err = ""
}

func (s *status) failed(err error) {
	s.status = StatusError
	s.err = err.Error()
}

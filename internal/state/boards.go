package state

import (
	"context"
	"sync"

	"github.com/chepyr/go-kanban/internal/validation"
	"github.com/chepyr/go-kanban/shared/models"
	"github.com/google/uuid"
)

// BoardsStore is the signed-in user's board overview.
type BoardsStore struct {
	repo  BoardRepository
	users UserSource

	mu     sync.RWMutex
	boards []*models.BoardSummary
	filter models.BoardFilter
	status
}

func NewBoardsStore(repo BoardRepository, users UserSource) *BoardsStore {
	return &BoardsStore{
		repo:   repo,
		users:  users,
		filter: models.BoardFilter{}.WithDefaults(),
		status: status{status: StatusIdle},
	}
}

// start marks a remote call in progress.
func (s *BoardsStore) start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading()
}

func (s *BoardsStore) userID() (uuid.UUID, error) {
	id, ok := s.users.UserID()
	if !ok {
		return uuid.Nil, ErrNotAuthenticated
	}
	return id, nil
}

func (s *BoardsStore) Fetch(ctx context.Context) error {
	owner, err := s.userID()
	if err != nil {
		s.fail(err)
		return err
	}

	s.mu.Lock()
	s.loading()
	filter := s.filter
	s.mu.Unlock()

	boards, err := s.repo.GetSummaries(ctx, owner, filter)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.failed(err)
		return err
	}
	s.boards = boards
	s.loaded()
	return nil
}

// SetFilter stores filter with defaults applied and fetches again.
func (s *BoardsStore) SetFilter(ctx context.Context, filter models.BoardFilter) error {
	s.mu.Lock()
	s.filter = filter.WithDefaults()
	s.mu.Unlock()
	return s.Fetch(ctx)
}

// Create puts the new board at the front of the overview.
func (s *BoardsStore) Create(ctx context.Context, input models.CreateBoardInput) (*models.Board, error) {
	input, err := validation.ValidateCreateBoard(input)
	if err != nil {
		return nil, err
	}
	owner, err := s.userID()
	if err != nil {
		s.fail(err)
		return nil, err
	}

	s.start()
	board, err := s.repo.Create(ctx, input, owner)
	if err != nil {
		s.fail(err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.boards = append([]*models.BoardSummary{{Board: *board}}, s.boards...)
	s.loaded()
	return board, nil
}

func (s *BoardsStore) Update(ctx context.Context, id uuid.UUID, input models.UpdateBoardInput) (*models.Board, error) {
	input, err := validation.ValidateUpdateBoard(input)
	if err != nil {
		return nil, err
	}
	s.start()
	if err := s.checkOwner(ctx, id); err != nil {
		s.fail(err)
		return nil, err
	}

	board, err := s.repo.Update(ctx, id, input)
	if err != nil {
		s.fail(err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.boards {
		if b.ID == id {
			b.Board = *board
		}
	}
	s.loaded()
	return board, nil
}

func (s *BoardsStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.start()
	if err := s.checkOwner(ctx, id); err != nil {
		s.fail(err)
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.fail(err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.boards[:0:0]
	for _, b := range s.boards {
		if b.ID != id {
			kept = append(kept, b)
		}
	}
	s.boards = kept
	s.loaded()
	return nil
}

func (s *BoardsStore) checkOwner(ctx context.Context, boardID uuid.UUID) error {
	owner, err := s.userID()
	if err != nil {
		return err
	}
	ok, err := s.repo.IsOwner(ctx, boardID, owner)
	if err != nil {
		return err
	}
	if !ok {
		return models.ErrUnauthorized
	}
	return nil
}

func (s *BoardsStore) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed(err)
}

// Reset forgets everything, typically after logout.
func (s *BoardsStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boards = nil
	s.filter = models.BoardFilter{}.WithDefaults()
	s.status = status{status: StatusIdle}
}

// Boards returns a copy of the overview in display order.
func (s *BoardsStore) Boards() []models.BoardSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.BoardSummary, len(s.boards))
	for i, b := range s.boards {
		out[i] = *b
	}
	return out
}

func (s *BoardsStore) Filter() models.BoardFilter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

func (s *BoardsStore) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status.status
}

func (s *BoardsStore) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

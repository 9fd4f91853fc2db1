package state

import (
	"context"
	"strings"
	"sync"

	"github.com/chepyr/go-kanban/internal/ordering"
	"github.com/chepyr/go-kanban/internal/validation"
	"github.com/chepyr/go-kanban/shared/models"
	"github.com/google/uuid"
)

// BoardStore holds the board being viewed with its lists and cards.
type BoardStore struct {
	boards BoardRepository
	lists  ListRepository
	cards  CardRepository
	users  UserSource

	mu      sync.RWMutex
	board   *models.Board
	columns []*models.List
	byList  map[uuid.UUID][]*models.Card
	filters models.CardFilters
	status
}

func NewBoardStore(boards BoardRepository, lists ListRepository, cards CardRepository, users UserSource) *BoardStore {
	return &BoardStore{
		boards: boards,
		lists:  lists,
		cards:  cards,
		users:  users,
		byList: make(map[uuid.UUID][]*models.Card),
		status: status{status: StatusIdle},
	}
}

// Load replaces the active board. A board owned by someone else is
// models.ErrUnauthorized.
func (s *BoardStore) Load(ctx context.Context, boardID uuid.UUID) error {
	userID, ok := s.users.UserID()
	if !ok {
		s.fail(ErrNotAuthenticated)
		return ErrNotAuthenticated
	}

	s.mu.Lock()
	s.loading()
	s.mu.Unlock()

	board, err := s.boards.GetByIDWithData(ctx, boardID)
	if err == nil && board.OwnerID != userID {
		err = models.ErrUnauthorized
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.failed(err)
		return err
	}

	lists := board.Lists
	board.Lists = nil
	s.board = board
	s.columns = make([]*models.List, 0, len(lists))
	s.byList = make(map[uuid.UUID][]*models.Card, len(lists))
	for _, l := range lists {
		s.byList[l.ID] = l.Cards
		l.Cards = nil
		s.columns = append(s.columns, l)
	}
	ordering.SortLists(s.columns)
	s.loaded()
	return nil
}

// start marks a remote call in progress.
func (s *BoardStore) start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading()
}

// missing records a NotFound caught before any remote call, the same way a
// NotFound from the server is recorded.
func (s *BoardStore) missing(entity string, id uuid.UUID) error {
	err := &models.NotFoundError{Entity: entity, ID: id.String()}
	s.fail(err)
	return err
}

func (s *BoardStore) boardID() (uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.board == nil {
		return uuid.Nil, ErrNoBoard
	}
	return s.board.ID, nil
}

func (s *BoardStore) hasList(id uuid.UUID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexOfList(id) >= 0
}

func (s *BoardStore) indexOfList(id uuid.UUID) int {
	for i, l := range s.columns {
		if l.ID == id {
			return i
		}
	}
	return -1
}

// listOfCard returns the list holding card id on this board.
func (s *BoardStore) listOfCard(id uuid.UUID) (uuid.UUID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for listID, cards := range s.byList {
		for _, c := range cards {
			if c.ID == id {
				return listID, true
			}
		}
	}
	return uuid.Nil, false
}

func (s *BoardStore) CreateList(ctx context.Context, title string) (*models.List, error) {
	boardID, err := s.boardID()
	if err != nil {
		return nil, err
	}
	input, err := validation.ValidateCreateList(models.CreateListInput{Title: title, BoardID: boardID})
	if err != nil {
		return nil, err
	}

	s.start()
	list, err := s.lists.Create(ctx, input)
	if err != nil {
		s.fail(err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.columns = append(s.columns, list)
	ordering.SortLists(s.columns)
	s.loaded()
	return list, nil
}

func (s *BoardStore) UpdateList(ctx context.Context, id uuid.UUID, input models.UpdateListInput) (*models.List, error) {
	input, err := validation.ValidateUpdateList(input)
	if err != nil {
		return nil, err
	}
	if !s.hasList(id) {
		return nil, s.missing("list", id)
	}

	s.start()
	list, err := s.lists.Update(ctx, id, input)
	if err != nil {
		s.fail(err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOfList(id); i >= 0 {
		s.columns[i] = list
	}
	ordering.SortLists(s.columns)
	s.loaded()
	return list, nil
}

// DeleteList removes the list and its cards.
func (s *BoardStore) DeleteList(ctx context.Context, id uuid.UUID) error {
	if !s.hasList(id) {
		return s.missing("list", id)
	}

	s.start()
	if err := s.lists.Delete(ctx, id); err != nil {
		s.fail(err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOfList(id); i >= 0 {
		s.columns = append(s.columns[:i:i], s.columns[i+1:]...)
	}
	delete(s.byList, id)
	s.loaded()
	return nil
}

// ReorderList moves a list to toIndex and reloads the board's lists, since
// siblings may have been renumbered. The moved list is applied as soon as
// the move is confirmed; if the reload then fails, the moved list is in
// place but sibling positions stay stale until the next Load.
func (s *BoardStore) ReorderList(ctx context.Context, id uuid.UUID, toIndex int) error {
	boardID, err := s.boardID()
	if err != nil {
		return err
	}
	if !s.hasList(id) {
		return s.missing("list", id)
	}

	s.start()
	moved, err := s.lists.ReorderToIndex(ctx, id, toIndex)
	if err != nil {
		s.fail(err)
		return err
	}
	s.mu.Lock()
	if i := s.indexOfList(id); i >= 0 {
		s.columns[i] = moved
	}
	ordering.SortLists(s.columns)
	s.mu.Unlock()

	lists, err := s.lists.GetAllByBoardID(ctx, boardID)
	if err != nil {
		s.fail(err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.columns = lists
	ordering.SortLists(s.columns)
	s.loaded()
	return nil
}

func (s *BoardStore) CreateCard(ctx context.Context, input models.CreateCardInput) (*models.Card, error) {
	if _, err := s.boardID(); err != nil {
		return nil, err
	}
	input, err := validation.ValidateCreateCard(input)
	if err != nil {
		return nil, err
	}
	if !s.hasList(input.ListID) {
		return nil, s.missing("list", input.ListID)
	}

	s.start()
	card, err := s.cards.Create(ctx, input)
	if err != nil {
		s.fail(err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byList[card.ListID] = append(s.byList[card.ListID], card)
	s.loaded()
	return card, nil
}

func (s *BoardStore) UpdateCard(ctx context.Context, id uuid.UUID, input models.UpdateCardInput) (*models.Card, error) {
	input, err := validation.ValidateUpdateCard(input)
	if err != nil {
		return nil, err
	}
	if _, ok := s.listOfCard(id); !ok {
		return nil, s.missing("card", id)
	}

	s.start()
	card, err := s.cards.Update(ctx, id, input)
	if err != nil {
		s.fail(err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceCard(card)
	s.loaded()
	return card, nil
}

func (s *BoardStore) replaceCard(card *models.Card) {
	cards := s.byList[card.ListID]
	for i, c := range cards {
		if c.ID == card.ID {
			cards[i] = card
			return
		}
	}
}

func (s *BoardStore) DeleteCard(ctx context.Context, id uuid.UUID) error {
	listID, ok := s.listOfCard(id)
	if !ok {
		return s.missing("card", id)
	}

	s.start()
	if err := s.cards.Delete(ctx, id); err != nil {
		s.fail(err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeCard(listID, id)
	s.loaded()
	return nil
}

func (s *BoardStore) removeCard(listID, id uuid.UUID) {
	cards := s.byList[listID]
	kept := make([]*models.Card, 0, len(cards))
	for _, c := range cards {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	s.byList[listID] = kept
}

// MoveCard places a card at toIndex of targetListID, which may be the list
// it is already in. The moved card is applied as soon as the move is
// confirmed, then both affected lists are reloaded. If a reload fails the
// card is already in its new list but sibling positions stay stale until
// the next Load.
func (s *BoardStore) MoveCard(ctx context.Context, id, targetListID uuid.UUID, toIndex int) (*models.Card, error) {
	sourceListID, ok := s.listOfCard(id)
	if !ok {
		return nil, s.missing("card", id)
	}
	if !s.hasList(targetListID) {
		return nil, s.missing("list", targetListID)
	}

	s.start()
	card, err := s.cards.MoveToIndex(ctx, id, targetListID, toIndex)
	if err != nil {
		s.fail(err)
		return nil, err
	}
	s.mu.Lock()
	s.removeCard(sourceListID, id)
	s.byList[card.ListID] = append(s.byList[card.ListID], card)
	s.mu.Unlock()

	reloaded := make(map[uuid.UUID][]*models.Card, 2)
	for _, listID := range []uuid.UUID{sourceListID, targetListID} {
		if _, done := reloaded[listID]; done {
			continue
		}
		cards, err := s.cards.GetAllByListID(ctx, listID)
		if err != nil {
			s.fail(err)
			return nil, err
		}
		reloaded[listID] = cards
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for listID, cards := range reloaded {
		s.byList[listID] = cards
	}
	s.loaded()
	return card, nil
}

func (s *BoardStore) SetFilters(filters models.CardFilters) {
	s.mu.Lock()
	defer s.mu.Unlock()
	filters.SearchQuery = strings.TrimSpace(filters.SearchQuery)
	s.filters = filters
}

func (s *BoardStore) Filters() models.CardFilters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters
}

// Board returns the active board without its lists, or nil.
func (s *BoardStore) Board() *models.Board {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.board == nil {
		return nil
	}
	b := *s.board
	return &b
}

// Lists returns the board's lists in display order.
func (s *BoardStore) Lists() []models.List {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.List, len(s.columns))
	for i, l := range s.columns {
		out[i] = *l
	}
	return out
}

// Cards returns every card of a list in display order.
func (s *BoardStore) Cards(listID uuid.UUID) []models.Card {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedCopy(s.byList[listID], func(*models.Card) bool { return true })
}

// VisibleCards is Cards narrowed by the current filters.
func (s *BoardStore) VisibleCards(listID uuid.UUID) []models.Card {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f := s.filters
	query := strings.ToLower(f.SearchQuery)
	return sortedCopy(s.byList[listID], func(c *models.Card) bool {
		if f.Priority != "" && c.Priority != f.Priority {
			return false
		}
		if query == "" {
			return true
		}
		return strings.Contains(strings.ToLower(c.Title), query) ||
			strings.Contains(strings.ToLower(c.Description), query)
	})
}

// Card looks a card up anywhere on the board.
func (s *BoardStore) Card(id uuid.UUID) (models.Card, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, cards := range s.byList {
		for _, c := range cards {
			if c.ID == id {
				return *c, true
			}
		}
	}
	return models.Card{}, false
}

func sortedCopy(cards []*models.Card, keep func(*models.Card) bool) []models.Card {
	sorted := make([]*models.Card, 0, len(cards))
	for _, c := range cards {
		if keep(c) {
			sorted = append(sorted, c)
		}
	}
	ordering.SortCards(sorted)
	out := make([]models.Card, len(sorted))
	for i, c := range sorted {
		out[i] = *c
	}
	return out
}

func (s *BoardStore) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed(err)
}

func (s *BoardStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.board = nil
	s.columns = nil
	s.byList = make(map[uuid.UUID][]*models.Card)
	s.filters = models.CardFilters{}
	s.status = status{status: StatusIdle}
}

func (s *BoardStore) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status.status
}

func (s *BoardStore) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

package handlers

import (
	"math"
	"net/http"

	"github.com/chepyr/go-kanban/internal/validation"
	"github.com/chepyr/go-kanban/shared"
	"github.com/chepyr/go-kanban/shared/models"
	"github.com/google/uuid"
)

// GET /boards/{id}/cards?search=&priority=
func (h *Handler) listBoardCards(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	boardID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	filters := models.CardFilters{
		Priority:    models.Priority(r.URL.Query().Get("priority")),
		SearchQuery: r.URL.Query().Get("search"),
	}
	if filters.Priority != "" && !filters.Priority.Valid() {
		shared.SendValidationError(w, models.NewValidationError("priority", "Priority must be one of: low, medium, high"))
		return
	}

	ctx, cancel := contextWithTimeout(r)
	defer cancel()

	if _, err := h.BoardRepo.Authorize(ctx, boardID, userID); err != nil {
		h.sendStoreError(w, r, err)
		return
	}

	var (
		cards []*models.Card
		err   error
	)
	switch {
	case filters.SearchQuery != "":
		cards, err = h.CardRepo.Search(ctx, boardID, filters.SearchQuery)
		if err == nil && filters.Priority != "" {
			cards = byPriority(cards, filters.Priority)
		}
	case filters.Priority != "":
		cards, err = h.CardRepo.FilterByPriority(ctx, boardID, filters.Priority)
	default:
		cards, err = h.CardRepo.GetAllByBoardID(ctx, boardID)
	}
	if err != nil {
		h.sendStoreError(w, r, err)
		return
	}
	shared.SendJSON(w, http.StatusOK, cards)
}

func byPriority(cards []*models.Card, p models.Priority) []*models.Card {
	out := make([]*models.Card, 0, len(cards))
	for _, c := range cards {
		if c.Priority == p {
			out = append(out, c)
		}
	}
	return out
}

// GET /lists/{id}/cards
func (h *Handler) listCards(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	listID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	ctx, cancel := contextWithTimeout(r)
	defer cancel()

	if _, err := h.authorizeList(ctx, listID, userID); err != nil {
		h.sendStoreError(w, r, err)
		return
	}
	cards, err := h.CardRepo.GetAllByListID(ctx, listID)
	if err != nil {
		h.sendStoreError(w, r, err)
		return
	}
	shared.SendJSON(w, http.StatusOK, cards)
}

// POST /lists/{id}/cards
func (h *Handler) createCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	listID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var input models.CreateCardInput
	if !shared.DecodeJSON(w, r, &input) {
		return
	}
	input.ListID = listID
	input, err := validation.ValidateCreateCard(input)
	if err != nil {
		h.sendStoreError(w, r, err)
		return
	}

	ctx, cancel := contextWithTimeout(r)
	defer cancel()

	list, err := h.authorizeList(ctx, listID, userID)
	if err != nil {
		h.sendStoreError(w, r, err)
		return
	}
	card, err := h.CardRepo.Create(ctx, input)
	if err != nil {
		h.sendStoreError(w, r, err)
		return
	}
	h.broadcast(list.BoardID, EventCardCreated, card)
	w.Header().Set("Location", "/cards/"+card.ID.String())
	shared.SendJSON(w, http.StatusCreated, card)
}

// GET /cards/{id}
func (h *Handler) getCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	cardID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	ctx, cancel := contextWithTimeout(r)
	defer cancel()

	card, _, err := h.authorizeCard(ctx, cardID, userID)
	if err != nil {
		h.sendStoreError(w, r, err)
		return
	}
	shared.SendJSON(w, http.StatusOK, card)
}

// PUT/PATCH /cards/{id}
func (h *Handler) updateCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	cardID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var input models.UpdateCardInput
	if !shared.DecodeJSON(w, r, &input) {
		return
	}
	input, err := validation.ValidateUpdateCard(input)
	if err != nil {
		h.sendStoreError(w, r, err)
		return
	}

	ctx, cancel := contextWithTimeout(r)
	defer cancel()

	_, boardID, err := h.authorizeCard(ctx, cardID, userID)
	if err != nil {
		h.sendStoreError(w, r, err)
		return
	}
	card, err := h.CardRepo.Update(ctx, cardID, input)
	if err != nil {
		h.sendStoreError(w, r, err)
		return
	}
	h.broadcast(boardID, EventCardUpdated, card)
	shared.SendJSON(w, http.StatusOK, card)
}

// DELETE /cards/{id}
func (h *Handler) deleteCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	cardID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	ctx, cancel := contextWithTimeout(r)
	defer cancel()

	_, boardID, err := h.authorizeCard(ctx, cardID, userID)
	if err != nil {
		h.sendStoreError(w, r, err)
		return
	}
	if err := h.CardRepo.Delete(ctx, cardID); err != nil {
		h.sendStoreError(w, r, err)
		return
	}
	h.broadcast(boardID, EventCardDeleted, map[string]uuid.UUID{"id": cardID})
	w.WriteHeader(http.StatusNoContent)
}

// moveRequest names the destination list. A missing toIndex appends.
type moveRequest struct {
	TargetListID uuid.UUID `json:"targetListId"`
	ToIndex      *int      `json:"toIndex,omitempty"`
}

// POST /cards/{id}/move
func (h *Handler) moveCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	cardID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var input moveRequest
	if !shared.DecodeJSON(w, r, &input) {
		return
	}
	if input.TargetListID == uuid.Nil {
		shared.SendValidationError(w, models.NewValidationError("targetListId", "Target list is required"))
		return
	}
	toIndex := math.MaxInt32
	if input.ToIndex != nil {
		if *input.ToIndex < 0 {
			shared.SendValidationError(w, models.NewValidationError("toIndex", "Index must be at least 0"))
			return
		}
		toIndex = *input.ToIndex
	}

	ctx, cancel := contextWithTimeout(r)
	defer cancel()

	_, boardID, err := h.authorizeCard(ctx, cardID, userID)
	if err != nil {
		h.sendStoreError(w, r, err)
		return
	}
	card, err := h.CardRepo.MoveToIndex(ctx, cardID, input.TargetListID, toIndex)
	if err != nil {
		h.sendStoreError(w, r, err)
		return
	}
	h.broadcast(boardID, EventCardMoved, card)
	shared.SendJSON(w, http.StatusOK, card)
}

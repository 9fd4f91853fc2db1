package handlers

import (
	"net/http"

	"github.com/chepyr/go-kanban/internal/validation"
	"github.com/chepyr/go-kanban/shared"
	"github.com/chepyr/go-kanban/shared/models"
)

// GET /boards?search=&sort=&order=
func (h *Handler) listBoards(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	filter := models.BoardFilter{
		SearchQuery: q.Get("search"),
		SortBy:      models.BoardSortField(q.Get("sort")),
		SortOrder:   models.SortOrder(q.Get("order")),
	}
	switch filter.SortBy {
	case "", models.SortByName, models.SortByCreatedAt, models.SortByUpdatedAt:
	default:
		shared.SendValidationError(w, models.NewValidationError("sort", "Sort must be one of: name, created_at, updated_at"))
		return
	}
	switch filter.SortOrder {
	case "", models.SortAsc, models.SortDesc:
	default:
		shared.SendValidationError(w, models.NewValidationError("order", "Order must be one of: asc, desc"))
		return
	}

	ctx, cancel := contextWithTimeout(r)
	defer cancel()

	summaries, err := h.BoardRepo.GetSummaries(ctx, userID, filter)
	if err != nil {
		h.sendStoreError(w, r, err)
		return
	}
	shared.SendJSON(w, http.StatusOK, summaries)
}

// POST /boards
func (h *Handler) createBoard(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var input models.CreateBoardInput
	if !shared.DecodeJSON(w, r, &input) {
		return
	}
	input, err := validation.ValidateCreateBoard(input)
	if err != nil {
		h.sendStoreError(w, r, err)
		return
	}

	ctx, cancel := contextWithTimeout(r)
	defer cancel()

	board, err := h.BoardRepo.Create(ctx, input, userID)
	if err != nil {
		h.sendStoreError(w, r, err)
		return
	}
	w.Header().Set("Location", "/boards/"+board.ID.String())
	shared.SendJSON(w, http.StatusCreated, board)
}

// GET /boards/{id}
func (h *Handler) getBoard(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	boardID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	ctx, cancel := contextWithTimeout(r)
	defer cancel()

	if _, err := h.BoardRepo.Authorize(ctx, boardID, userID); err != nil {
		h.sendStoreError(w, r, err)
		return
	}
	board, err := h.BoardRepo.GetByIDWithData(ctx, boardID)
	if err != nil {
		h.sendStoreError(w, r, err)
		return
	}
	shared.SendJSON(w, http.StatusOK, board)
}

// PUT/PATCH /boards/{id}
func (h *Handler) updateBoard(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	boardID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var input models.UpdateBoardInput
	if !shared.DecodeJSON(w, r, &input) {
		return
	}
	input, err := validation.ValidateUpdateBoard(input)
	if err != nil {
		h.sendStoreError(w, r, err)
		return
	}

	ctx, cancel := contextWithTimeout(r)
	defer cancel()

	if _, err := h.BoardRepo.Authorize(ctx, boardID, userID); err != nil {
		h.sendStoreError(w, r, err)
		return
	}
	board, err := h.BoardRepo.Update(ctx, boardID, input)
	if err != nil {
		h.sendStoreError(w, r, err)
		return
	}
	h.broadcast(boardID, EventBoardUpdated, board)
	shared.SendJSON(w, http.StatusOK, board)
}

// DELETE /boards/{id}
func (h *Handler) deleteBoard(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	boardID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	ctx, cancel := contextWithTimeout(r)
	defer cancel()

	if _, err := h.BoardRepo.Authorize(ctx, boardID, userID); err != nil {
		h.sendStoreError(w, r, err)
		return
	}
	if err := h.BoardRepo.Delete(ctx, boardID); err != nil {
		h.sendStoreError(w, r, err)
		return
	}
	h.broadcast(boardID, EventBoardDeleted, nil)
	w.WriteHeader(http.StatusNoContent)
}

// POST /boards/{id}/export
func (h *Handler) exportBoard(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	boardID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if h.Exporter == nil {
		shared.SendError(w, "Snapshot export is not configured", http.StatusNotImplemented)
		return
	}

	ctx, cancel := contextWithTimeout(r)
	defer cancel()

	if _, err := h.BoardRepo.Authorize(ctx, boardID, userID); err != nil {
		h.sendStoreError(w, r, err)
		return
	}
	board, err := h.BoardRepo.GetByIDWithData(ctx, boardID)
	if err != nil {
		h.sendStoreError(w, r, err)
		return
	}
	key, err := h.Exporter.Export(ctx, board)
	if err != nil {
		h.sendStoreError(w, r, err)
		return
	}
	shared.SendJSON(w, http.StatusCreated, map[string]string{"key": key})
}

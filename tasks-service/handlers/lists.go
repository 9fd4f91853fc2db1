package handlers

import (
	"net/http"

	"github.com/chepyr/go-kanban/internal/validation"
	"github.com/chepyr/go-kanban/shared"
	"github.com/chepyr/go-kanban/shared/models"
	"github.com/google/uuid"
)

// GET /boards/{id}/lists
func (h *Handler) listLists(w http.ResponseWriter, r *http.Request) {
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
	lists, err := h.ListRepo.GetAllByBoardID(ctx, boardID)
	if err != nil {
		h.sendStoreError(w, r, err)
		return
	}
	shared.SendJSON(w, http.StatusOK, lists)
}

// POST /boards/{id}/lists
func (h *Handler) createList(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	boardID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var input models.CreateListInput
	if !shared.DecodeJSON(w, r, &input) {
		return
	}
	input.BoardID = boardID
	input, err := validation.ValidateCreateList(input)
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
	list, err := h.ListRepo.Create(ctx, input)
	if err != nil {
		h.sendStoreError(w, r, err)
		return
	}
	h.broadcast(boardID, EventListCreated, list)
	w.Header().Set("Location", "/lists/"+list.ID.String())
	shared.SendJSON(w, http.StatusCreated, list)
}

type reorderRequest struct {
	ListID  uuid.UUID `json:"listId"`
	ToIndex int       `json:"toIndex"`
}

// POST /boards/{id}/lists/reorder
func (h *Handler) reorderList(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	boardID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var input reorderRequest
	if !shared.DecodeJSON(w, r, &input) {
		return
	}
	if input.ToIndex < 0 {
		shared.SendValidationError(w, models.NewValidationError("toIndex", "Index must be at least 0"))
		return
	}

	ctx, cancel := contextWithTimeout(r)
	defer cancel()

	list, err := h.authorizeList(ctx, input.ListID, userID)
	if err != nil {
		h.sendStoreError(w, r, err)
		return
	}
	if list.BoardID != boardID {
		h.sendStoreError(w, r, &models.NotFoundError{Entity: "list", ID: input.ListID.String()})
		return
	}
	if _, err := h.ListRepo.ReorderToIndex(ctx, input.ListID, input.ToIndex); err != nil {
		h.sendStoreError(w, r, err)
		return
	}
	lists, err := h.ListRepo.GetAllByBoardID(ctx, boardID)
	if err != nil {
		h.sendStoreError(w, r, err)
		return
	}
	h.broadcast(boardID, EventListsReordered, lists)
	shared.SendJSON(w, http.StatusOK, lists)
}

// GET /lists/{id}
func (h *Handler) getList(w http.ResponseWriter, r *http.Request) {
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

	list, err := h.authorizeList(ctx, listID, userID)
	if err != nil {
		h.sendStoreError(w, r, err)
		return
	}
	shared.SendJSON(w, http.StatusOK, list)
}

// PUT/PATCH /lists/{id}
func (h *Handler) updateList(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	listID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var input models.UpdateListInput
	if !shared.DecodeJSON(w, r, &input) {
		return
	}
	input, err := validation.ValidateUpdateList(input)
	if err != nil {
		h.sendStoreError(w, r, err)
		return
	}

	ctx, cancel := contextWithTimeout(r)
	defer cancel()

	if _, err := h.authorizeList(ctx, listID, userID); err != nil {
		h.sendStoreError(w, r, err)
		return
	}
	list, err := h.ListRepo.Update(ctx, listID, input)
	if err != nil {
		h.sendStoreError(w, r, err)
		return
	}
	h.broadcast(list.BoardID, EventListUpdated, list)
	shared.SendJSON(w, http.StatusOK, list)
}

// DELETE /lists/{id}
func (h *Handler) deleteList(w http.ResponseWriter, r *http.Request) {
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

	list, err := h.authorizeList(ctx, listID, userID)
	if err != nil {
		h.sendStoreError(w, r, err)
		return
	}
	if err := h.ListRepo.Delete(ctx, listID); err != nil {
		h.sendStoreError(w, r, err)
		return
	}
	h.broadcast(list.BoardID, EventListDeleted, map[string]uuid.UUID{"id": listID})
	w.WriteHeader(http.StatusNoContent)
}

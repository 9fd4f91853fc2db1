package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/chepyr/go-kanban/shared"
	"github.com/chepyr/go-kanban/shared/models"
	"github.com/chepyr/go-kanban/tasks-service/db"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestTimeout = 5 * time.Second

// Exporter writes a board snapshot somewhere durable and returns its key.
type Exporter interface {
	Export(ctx context.Context, board *models.Board) (string, error)
}

// RevocationChecker reports whether a token id was logged out at the auth
// service.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type Handler struct {
	BoardRepo      db.BoardRepositoryInterface
	ListRepo       *db.ListRepository
	CardRepo       *db.CardRepository
	RateLimiter    *shared.RateLimiter
	WSHub          *WSHub
	Metrics        *Metrics
	Exporter       Exporter          // optional
	Revocations    RevocationChecker // optional
	JWTSecret      []byte
	AllowedOrigins []string
	Logger         *zap.Logger
}

func (h *Handler) log() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

// sendStoreError maps the domain error taxonomy onto HTTP statuses.
func (h *Handler) sendStoreError(w http.ResponseWriter, r *http.Request, err error) {
	if ve, ok := models.AsValidationError(err); ok {
		shared.SendValidationError(w, ve)
		return
	}
	switch {
	case models.IsNotFound(err):
		shared.SendError(w, err.Error(), http.StatusNotFound)
	case models.IsUnauthorized(err):
		shared.SendError(w, "Forbidden", http.StatusForbidden)
	case errors.Is(err, context.DeadlineExceeded):
		h.log().Warn("request timed out", zap.String("path", r.URL.Path), zap.Error(err))
		shared.SendError(w, "Request timed out", http.StatusGatewayTimeout)
	default:
		h.log().Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		shared.SendError(w, "Internal server error", http.StatusInternalServerError)
	}
}

// pathID parses a uuid URL parameter, answering 400 when it is malformed.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		shared.SendError(w, "Invalid "+name, http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// currentUser returns the authenticated user id, answering 401 when absent.
func currentUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := UserIDFromContext(r.Context())
	if !ok {
		shared.SendError(w, "Unauthorized", http.StatusUnauthorized)
		return uuid.Nil, false
	}
	return id, true
}

// authorizeList loads a list and checks that userID owns its board.
func (h *Handler) authorizeList(ctx context.Context, listID, userID uuid.UUID) (*models.List, error) {
	list, err := h.ListRepo.GetByID(ctx, listID)
	if err != nil {
		return nil, err
	}
	if _, err := h.BoardRepo.Authorize(ctx, list.BoardID, userID); err != nil {
		return nil, err
	}
	return list, nil
}

// authorizeCard loads a card and returns the board it lives on.
func (h *Handler) authorizeCard(ctx context.Context, cardID, userID uuid.UUID) (*models.Card, uuid.UUID, error) {
	card, err := h.CardRepo.GetByID(ctx, cardID)
	if err != nil {
		return nil, uuid.Nil, err
	}
	list, err := h.authorizeList(ctx, card.ListID, userID)
	if err != nil {
		return nil, uuid.Nil, err
	}
	return card, list.BoardID, nil
}

func (h *Handler) broadcast(boardID uuid.UUID, eventType string, payload any) {
	if h.WSHub == nil {
		return
	}
	h.WSHub.Broadcast(boardID, Event{Type: eventType, BoardID: boardID, Payload: payload})
}

func contextWithTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), requestTimeout)
}

package handlers

import (
	"net/http"

	"github.com/chepyr/go-kanban/shared"
	"github.com/chepyr/go-kanban/shared/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Logout revokes the presented token. Logging out twice is not an error as
// long as the token itself is still well formed. With a RevocationRepo the
// revocation is shared with the tasks service, otherwise it is local.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, err := h.parseToken(r)
	if err != nil {
		shared.SendError(w, "Invalid token", http.StatusUnauthorized)
		return
	}
	if h.RevocationRepo != nil {
		if err := h.RevocationRepo.Revoke(r.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
			h.log().Error("persist revocation", zap.String("user_id", claims.Subject), zap.Error(err))
			shared.SendError(w, "Cannot log out", http.StatusInternalServerError)
			return
		}
	}
	if h.Revoked != nil {
		h.Revoked.Revoke(claims.ID, claims.ExpiresAt.Time)
	}
	h.log().Info("user logged out", zap.String("user_id", claims.Subject))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	claims, err := h.parseToken(r)
	if err != nil {
		shared.SendError(w, "Invalid token", http.StatusUnauthorized)
		return
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		shared.SendError(w, "Invalid token claims", http.StatusUnauthorized)
		return
	}

	user, err := h.UserRepo.GetByID(r.Context(), userID)
	if err != nil {
		if models.IsNotFound(err) {
			shared.SendError(w, "Invalid token", http.StatusUnauthorized)
			return
		}
		h.log().Error("load session user", zap.Error(err))
		shared.SendError(w, "Cannot load user", http.StatusInternalServerError)
		return
	}
	shared.SendJSON(w, http.StatusOK, map[string]any{"user": user})
}

package handlers

import (
	"net/http"

	"github.com/chepyr/go-kanban/internal/validation"
	"github.com/chepyr/go-kanban/shared"
	"github.com/chepyr/go-kanban/shared/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const invalidCredentials = "Invalid email or password"

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r, "login") {
		return
	}

	var input models.LoginInput
	if !shared.DecodeJSON(w, r, &input) {
		return
	}
	input, err := validation.ValidateLogin(input)
	if err != nil {
		if ve, ok := models.AsValidationError(err); ok {
			shared.SendValidationError(w, ve)
			return
		}
		shared.SendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := h.UserRepo.GetByEmail(r.Context(), input.Email)
	if err != nil {
		if models.IsNotFound(err) {
			shared.SendError(w, invalidCredentials, http.StatusUnauthorized)
			return
		}
		h.log().Error("load user", zap.Error(err))
		shared.SendError(w, "Cannot load user", http.StatusInternalServerError)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		h.log().Info("invalid password", zap.String("user_id", user.ID.String()))
		shared.SendError(w, invalidCredentials, http.StatusUnauthorized)
		return
	}

	session, err := h.issueToken(user)
	if err != nil {
		h.log().Error("issue token", zap.Error(err))
		shared.SendError(w, "Cannot create token", http.StatusInternalServerError)
		return
	}

	h.log().Info("user logged in", zap.String("user_id", user.ID.String()))
	shared.SendJSON(w, http.StatusOK, session)
}

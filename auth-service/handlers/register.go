package handlers

import (
	"errors"
	"net/http"

	"github.com/chepyr/go-kanban/internal/validation"
	"github.com/chepyr/go-kanban/shared"
	"github.com/chepyr/go-kanban/shared/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r, "register") {
		return
	}

	var input models.RegisterInput
	if !shared.DecodeJSON(w, r, &input) {
		return
	}
	input, err := validation.ValidateRegister(input)
	if err != nil {
		if ve, ok := models.AsValidationError(err); ok {
			shared.SendValidationError(w, ve)
			return
		}
		shared.SendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		h.log().Error("hash password", zap.Error(err))
		shared.SendError(w, "Cannot hash password", http.StatusInternalServerError)
		return
	}

	now := h.clock().UTC()
	user := &models.User{
		Email:        input.Email,
		DisplayName:  input.DisplayName,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.UserRepo.Create(r.Context(), user); err != nil {
		if errors.Is(err, models.ErrEmailTaken) {
			shared.SendError(w, "Email already registered", http.StatusConflict)
			return
		}
		h.log().Error("save user", zap.String("email", input.Email), zap.Error(err))
		shared.SendError(w, "Cannot save user", http.StatusInternalServerError)
		return
	}

	session, err := h.issueToken(user)
	if err != nil {
		h.log().Error("issue token", zap.Error(err))
		shared.SendError(w, "Cannot create token", http.StatusInternalServerError)
		return
	}

	h.log().Info("user registered", zap.String("user_id", user.ID.String()))
	shared.SendJSON(w, http.StatusCreated, session)
}

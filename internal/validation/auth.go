package validation

import (
	"strings"

	"github.com/chepyr/go-kanban/shared/models"
)

type loginForm struct {
	Email    string `json:"email" label:"Email" validate:"required,email"`
	Password string `json:"password" label:"Password" validate:"required"`
}

type registerForm struct {
	Email           string `json:"email" label:"Email" validate:"required,email"`
	Password        string `json:"password" label:"Password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" label:"Password confirmation" validate:"required,eqfield=Password"`
	DisplayName     string `json:"displayName" label:"Display name" validate:"omitempty,max=50"`
}

// ValidateLogin trims the email. Passwords are never trimmed.
func ValidateLogin(in models.LoginInput) (models.LoginInput, error) {
	out := models.LoginInput{Email: strings.TrimSpace(in.Email), Password: in.Password}
	if err := check(loginForm{Email: out.Email, Password: out.Password}); err != nil {
		return in, err
	}
	return out, nil
}

func ValidateRegister(in models.RegisterInput) (models.RegisterInput, error) {
	out := models.RegisterInput{
		Email:           strings.TrimSpace(in.Email),
		Password:        in.Password,
		ConfirmPassword: in.ConfirmPassword,
		DisplayName:     strings.TrimSpace(in.DisplayName),
	}
	form := registerForm{
		Email:           out.Email,
		Password:        out.Password,
		ConfirmPassword: out.ConfirmPassword,
		DisplayName:     out.DisplayName,
	}
	if err := check(form); err != nil {
		return in, err
	}
	return out, nil
}

// Package validation checks user input before it reaches a repository.
//
// Every entity has a form struct whose tags declare its rules. Each
// Validate function trims the input, runs the form through the validator
// and returns either the cleaned input or a *models.ValidationError keyed by
// the input's JSON field names.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/chepyr/go-kanban/shared/models"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// check validates form, restricted to fields when any are given.
func check(form any, fields ...string) error {
	var err error
	if len(fields) > 0 {
		err = validate.StructPartial(form, fields...)
	} else {
		err = validate.Struct(form)
	}
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := make(models.FieldErrors, len(verrs))
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = message(form, fe)
	}
	return &models.ValidationError{Fields: out}
}

func message(form any, fe validator.FieldError) string {
	label := labelFor(form, fe.StructField())
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "email":
		return "Invalid email address"
	case "eqfield":
		return "Passwords do not match"
	}
	return label + " is invalid"
}

func labelFor(form any, field string) string {
	t := reflect.TypeOf(form)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if f, ok := t.FieldByName(field); ok {
		if label := f.Tag.Get("label"); label != "" {
			return label
		}
	}
	return field
}

func trim(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

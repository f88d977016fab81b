package handler

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var clockPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// RequestValidator adapts go-playground/validator to echo.Validator.  It
// registers "clock" for HH:MM fields.
type RequestValidator struct {
	v *validator.Validate
}

// NewRequestValidator builds the validator installed as e.Validator.
func NewRequestValidator() *RequestValidator {
	v := validator.New()
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		return clockPattern.MatchString(fl.Field().String())
	})
	return &RequestValidator{v: v}
}

// Validate implements echo.Validator.
func (rv *RequestValidator) Validate(i interface{}) error {
	return rv.v.Struct(i)
}

package dto

import (
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	// DateLayout is the wire format of session dates.
	DateLayout = "2006-01-02"
	// TimeLayout is the wire format of session times.
	TimeLayout = "15:04"
)

// NewValidator returns a validator with the session field tags registered:
// "ymd" for YYYY-MM-DD dates and "hhmm" for 24h HH:MM times.
func NewValidator() *validator.Validate {
	v := validator.New()
	RegisterValidations(v)
	return v
}

// RegisterValidations adds the custom tags to an existing validator.
func RegisterValidations(v *validator.Validate) {
	_ = v.RegisterValidation("ymd", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(DateLayout, fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		raw := fl.Field().String()
		if len(raw) != len(TimeLayout) {
			return false
		}
		_, err := time.Parse(TimeLayout, raw)
		return err == nil
	})
}

package api

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/GoPolymarket/polymarket-regime/internal/config"
)

type analyzeRequest struct {
	Events    []string `json:"events" validate:"required,min=1,dive,required,event_key"`
	Companies []string `json:"companies" validate:"required,min=1,dive,required"`
	Refresh   bool     `json:"refresh"`
}

// ValidationError is one failed field rule.
type ValidationError struct {
	Code    string                 `json:"code"`
	Field   string                 `json:"field"`
	Message string                 `json:"message"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

type requestValidator struct {
	v *validator.Validate
}

// newRequestValidator registers "event_key", which accepts only keys present
// in catalog.
func newRequestValidator(catalog []config.EventConfig) *requestValidator {
	known := make(map[string]bool, len(catalog))
	for _, e := range catalog {
		known[e.Key] = true
	}
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("event_key", func(fl validator.FieldLevel) bool {
		return known[fl.Field().String()]
	})
	return &requestValidator{v: v}
}

func (rv *requestValidator) validate(ctx context.Context, req interface{}) []ValidationError {
	err := rv.v.StructCtx(ctx, req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []ValidationError{{Code: "ERR_UNKNOWN", Message: err.Error()}}
	}
	out := make([]ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, ValidationError{
			Code:    "ERR_" + strings.ToUpper(fe.Tag()),
			Field:   fe.Field(),
			Message: errorMessage(fe),
			Params:  errorParams(fe),
		})
	}
	return out
}

func errorMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must contain at least %s item(s)", field, fe.Param())
	case "event_key":
		return fmt.Sprintf("%s: unknown event key %q", field, fe.Value())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}

func errorParams(fe validator.FieldError) map[string]interface{} {
	switch fe.Tag() {
	case "min":
		return map[string]interface{}{"min": fe.Param()}
	case "event_key":
		return map[string]interface{}{"value": fe.Value()}
	}
	return nil
}

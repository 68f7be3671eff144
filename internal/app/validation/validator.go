package validation

import (
	"context"

	"github.com/go-playground/validator/v10"
)

// SelfValidator lets a command carry checks that struct tags cannot express,
// like per-cell batch errors.
type SelfValidator interface {
	Validate() error
}

// StructValidator runs go-playground tag validation plus any self checks a
// message declares. It implements middleware.Validator.
type StructValidator struct {
	validate *validator.Validate
}

func New() *StructValidator {
	return &StructValidator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

func (v *StructValidator) Validate(ctx context.Context, message any) error {
	if err := v.validate.StructCtx(ctx, message); err != nil {
		// Non-struct messages are fine; everything else surfaces as-is.
		if _, ok := err.(*validator.InvalidValidationError); !ok {
			return err
		}
	}
	if sv, ok := message.(SelfValidator); ok {
		return sv.Validate()
	}
	return nil
}

package service

import (
	"github.com/go-playground/validator/v10"

	commonerrors "github.com/quickchat/server/internal/common/errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type SignupInput struct {
	Email    string `validate:"required,email,max=254"`
	FullName string `validate:"required,min=2,max=64"`
	Password string `validate:"required,min=6,max=72"`
}

type LoginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type UpdateProfileInput struct {
	FullName   string `validate:"omitempty,min=2,max=64"`
	Bio        string `validate:"omitempty,max=300"`
	ProfilePic []byte `validate:"-"`
}

func validateInput(v any) error {
	if err := validate.Struct(v); err != nil {
		return commonerrors.ErrValidationFailed.WithCause(err)
	}
	return nil
}

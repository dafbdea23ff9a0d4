package services

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

// ValidationError lists the offending fields. It matches common.ErrValidation
// under errors.Is.
type ValidationError struct {
	Fields validation.Errors
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Fields.Error()
}

func (e *ValidationError) Unwrap() error {
	return common.ErrValidation
}

func asValidationError(err error) error {
	if err == nil {
		return nil
	}
	if fields, ok := err.(validation.Errors); ok {
		return &ValidationError{Fields: fields}
	}
	return err
}

// SignupInput is the payload of Register.
type SignupInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// normalize trims the names and canonicalizes the email. The password is
// taken as typed.
func (in *SignupInput) normalize() {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = common.NormalizeEmail(in.Email)
}

func (in SignupInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.FirstName, validation.Required),
		validation.Field(&in.LastName, validation.Required),
		validation.Field(&in.Email, validation.Required, is.Email),
		validation.Field(&in.Password, validation.Required),
	)
}

// ResetInput is the payload of ResetPassword.
type ResetInput struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (in ResetInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Token, validation.Required),
		validation.Field(&in.Password, validation.Required),
	)
}

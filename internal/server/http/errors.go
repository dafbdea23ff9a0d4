package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
)

// Response texts.
const (
	msgMissingFields        = "Missing required fields"
	msgMissingTokenPassword = "Missing token or password"
	msgEmailInUse           = "Email already in use"
	msgInvalidCredentials   = "Invalid credentials"
	msgNoChallenge          = "No 2FA in progress"
	msgCodeExpired          = "2FA code expired"
	msgInvalidCode          = "Invalid 2FA code"
	msgInvalidToken         = "Invalid or expired token"
	msgUnauthorized         = "Unauthorized"
	msgNotFound             = "Not found"
	msgServerError          = "Server error"
	msgInvalidBody          = "Invalid request body"

	msgSignup      = "Signup successful, 2FA required"
	msgLogin       = "2FA required"
	msgVerified    = "2FA verified"
	msgForgot      = "If the email exists, a reset link will be sent"
	msgPasswordSet = "Password has been reset"
)

type messageResponse struct {
	Message string `json:"message"`
	Errors  any    `json:"errors,omitempty"`
}

// statusFor maps a service error to a status and message. validationMsg is
// the endpoint's text for common.ErrValidation.
func statusFor(err error, validationMsg string) (int, string) {
	switch {
	case errors.Is(err, common.ErrValidation):
		return fiber.StatusBadRequest, validationMsg
	case errors.Is(err, common.ErrConflict):
		return fiber.StatusConflict, msgEmailInUse
	case errors.Is(err, common.ErrUnauthorized):
		return fiber.StatusUnauthorized, msgInvalidCredentials
	case errors.Is(err, common.ErrNoChallenge):
		return fiber.StatusBadRequest, msgNoChallenge
	case errors.Is(err, common.ErrCodeExpired):
		return fiber.StatusBadRequest, msgCodeExpired
	case errors.Is(err, common.ErrInvalidCode):
		return fiber.StatusBadRequest, msgInvalidCode
	case errors.Is(err, common.ErrInvalidOrExpiredToken):
		return fiber.StatusBadRequest, msgInvalidToken
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenExpired):
		return fiber.StatusUnauthorized, msgUnauthorized
	case errors.Is(err, common.ErrorNotFound):
		return fiber.StatusNotFound, msgNotFound
	default:
		return fiber.StatusInternalServerError, msgServerError
	}
}

func (s *Server) writeError(c *fiber.Ctx, err error, validationMsg string) error {
	status, msg := statusFor(err, validationMsg)
	if status == fiber.StatusInternalServerError {
		s.logger.Error(c.UserContext(), "request failed", "path", c.Path(), "error", err.Error())
	}

	resp := messageResponse{Message: msg}
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		resp.Errors = verr.Fields
	}
	return c.Status(status).JSON(resp)
}

// errorHandler renders errors that escape handlers (routing, panics) in the
// same JSON shape.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := msgServerError

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		if code != fiber.StatusInternalServerError {
			msg = fe.Message
		}
	}
	if code == fiber.StatusInternalServerError {
		s.logger.Error(c.UserContext(), "unhandled error", "path", c.Path(), "error", err.Error())
	}
	return c.Status(code).JSON(messageResponse{Message: msg})
}

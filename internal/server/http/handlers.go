package http

import (
	"bytes"
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyRequest struct {
	Email string     `json:"email"`
	Code  codeString `json:"code"`
}

type forgotRequest struct {
	Email string `json:"email"`
}

// codeString accepts the code as a JSON string or number. Numbers are
// rendered in decimal, so leading zeros a client dropped stay dropped.
type codeString string

func (c *codeString) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*c = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = codeString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*c = codeString(n.String())
	return nil
}

type pendingResponse struct {
	Message       string `json:"message"`
	TwoFARequired bool   `json:"twoFARequired"`
	Email         string `json:"email"`
}

type userResponse struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

type verifyResponse struct {
	Message string       `json:"message"`
	Token   string       `json:"token"`
	User    userResponse `json:"user"`
}

type meResponse struct {
	User userResponse `json:"user"`
}

func toUser(a *models.Account) userResponse {
	return userResponse{ID: a.ID, FirstName: a.FirstName, LastName: a.LastName, Email: a.Email}
}

// parseBody decodes the JSON body into v. An empty body leaves v zero.
func parseBody(c *fiber.Ctx, v any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	return json.Unmarshal(c.Body(), v)
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) signup(c *fiber.Ctx) error {
	var req services.SignupInput
	if err := parseBody(c, &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(messageResponse{Message: msgInvalidBody})
	}

	pending, err := s.credentials.Register(c.UserContext(), req)
	if err != nil {
		return s.writeError(c, err, msgMissingFields)
	}

	return c.Status(fiber.StatusCreated).JSON(pendingResponse{
		Message: msgSignup, TwoFARequired: true, Email: pending.Email,
	})
}

func (s *Server) login(c *fiber.Ctx) error {
	var req loginRequest
	if err := parseBody(c, &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(messageResponse{Message: msgInvalidBody})
	}

	pending, err := s.credentials.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return s.writeError(c, err, msgInvalidCredentials)
	}

	return c.JSON(pendingResponse{Message: msgLogin, TwoFARequired: true, Email: pending.Email})
}

func (s *Server) verifyTwoFactor(c *fiber.Ctx) error {
	var req verifyRequest
	if err := parseBody(c, &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(messageResponse{Message: msgInvalidBody})
	}

	session, err := s.credentials.VerifyTwoFactor(c.UserContext(), req.Email, string(req.Code))
	if err != nil {
		return s.writeError(c, err, msgInvalidCode)
	}

	return c.JSON(verifyResponse{Message: msgVerified, Token: session.Token, User: toUser(session.Account)})
}

func (s *Server) forgotPassword(c *fiber.Ctx) error {
	var req forgotRequest
	if err := parseBody(c, &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(messageResponse{Message: msgInvalidBody})
	}

	if err := s.credentials.RequestPasswordReset(c.UserContext(), req.Email); err != nil {
		return s.writeError(c, err, msgServerError)
	}

	return c.JSON(messageResponse{Message: msgForgot})
}

func (s *Server) resetPassword(c *fiber.Ctx) error {
	var req services.ResetInput
	if err := parseBody(c, &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(messageResponse{Message: msgInvalidBody})
	}

	if err := s.credentials.ResetPassword(c.UserContext(), req); err != nil {
		return s.writeError(c, err, msgMissingTokenPassword)
	}

	return c.JSON(messageResponse{Message: msgPasswordSet})
}

func (s *Server) me(c *fiber.Ctx) error {
	claims, ok := claimsFrom(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(messageResponse{Message: msgUnauthorized})
	}

	account, err := s.credentials.Profile(c.UserContext(), claims.Subject)
	if err != nil {
		return s.writeError(c, err, msgUnauthorized)
	}

	return c.JSON(meResponse{User: toUser(account)})
}

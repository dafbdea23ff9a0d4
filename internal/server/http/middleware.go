package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
)

const claimsKey = "claims"

// bearerAuth verifies the Authorization bearer token and stores its claims
// in the request locals.
func (s *Server) bearerAuth(c *fiber.Ctx) error {
	header := c.Get(common.AuthorizationHeaderName)
	if !strings.HasPrefix(header, common.BearerPrefix) {
		return c.Status(fiber.StatusUnauthorized).JSON(messageResponse{Message: "Missing token"})
	}

	token := strings.TrimSpace(strings.TrimPrefix(header, common.BearerPrefix))
	if token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(messageResponse{Message: "Missing token"})
	}

	claims, err := s.tokens.Verify(token)
	if err != nil {
		return s.writeError(c, err, msgUnauthorized)
	}

	c.Locals(claimsKey, claims)
	return c.Next()
}

func claimsFrom(c *fiber.Ctx) (*auth.Claims, bool) {
	claims, ok := c.Locals(claimsKey).(*auth.Claims)
	return claims, ok && claims != nil
}

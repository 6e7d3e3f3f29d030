package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/queue-repair/pkg/util"
)

const operatorKey = "auth_operator"

// AuthMiddleware validates bearer tokens on mutating routes.
type AuthMiddleware struct {
	tokens *TokenManager
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Handle enforces authentication. It passes every request through when no
// secret is configured.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	if !m.tokens.Enabled() {
		return c.Next()
	}

	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	c.Locals(operatorKey, claims.Operator)
	return c.Next()
}

// OperatorFromContext returns the authenticated operator name, if any.
func OperatorFromContext(c *fiber.Ctx) (string, bool) {
	operator, ok := c.Locals(operatorKey).(string)
	return operator, ok
}

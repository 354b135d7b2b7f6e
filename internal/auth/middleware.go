package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-intake/internal/domain"
)

const (
	identityKey = "auth_identity"

	// IntakeSecretHeader carries the relay's shared secret.
	IntakeSecretHeader = "X-Intake-Secret"
)

// SessionMiddleware authenticates interactive callers and stores their identity.
type SessionMiddleware struct {
	verifier *Verifier
}

// NewSessionMiddleware constructs middleware.
func NewSessionMiddleware(verifier *Verifier) *SessionMiddleware {
	return &SessionMiddleware{verifier: verifier}
}

// Handle enforces a valid bearer session for protected routes.
func (m *SessionMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	token := ""
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		token = parts[1]
	}

	identity, err := m.verifier.VerifySession(c.UserContext(), token)
	if err != nil {
		return unauthorized("authentication required", err)
	}

	c.Locals(identityKey, identity)
	return c.Next()
}

// RequireIntakeSecret authenticates the intake relay by shared secret.
func RequireIntakeSecret(verifier *Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, err := verifier.VerifySecret(c.Get(IntakeSecretHeader))
		if err != nil {
			return unauthorized("invalid intake credentials", err)
		}
		c.Locals(identityKey, identity)
		return c.Next()
	}
}

// IdentityFromContext retrieves the authenticated caller.
func IdentityFromContext(c *fiber.Ctx) (*domain.Identity, bool) {
	val := c.Locals(identityKey)
	if val == nil {
		return nil, false
	}
	identity, ok := val.(*domain.Identity)
	return identity, ok
}

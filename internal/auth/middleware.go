package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/classroom-service/internal/domain"
)

const (
	actorKey = "auth_actor"
	claimKey = "auth_claim"
)

// AuthMiddleware verifies the bearer credential and loads the caller.
type AuthMiddleware struct {
	verifier *Verifier
	resolver *Resolver
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(verifier *Verifier, resolver *Resolver) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier, resolver: resolver}
}

// Handle enforces authentication for protected routes. Nothing past this
// point runs for an unauthenticated request.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	claim, err := m.verifier.Verify(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return err
	}

	actor, err := m.resolver.Resolve(c.UserContext(), claim.Subject)
	if err != nil {
		return err
	}

	c.Locals(claimKey, claim)
	c.Locals(actorKey, actor)
	return c.Next()
}

// ActorFromContext retrieves the authenticated user.
func ActorFromContext(c *fiber.Ctx) (*domain.User, bool) {
	actor, ok := c.Locals(actorKey).(*domain.User)
	return actor, ok && actor != nil
}

// ClaimFromContext retrieves the verified claim set.
func ClaimFromContext(c *fiber.Ctx) (domain.VerifiedClaim, bool) {
	claim, ok := c.Locals(claimKey).(domain.VerifiedClaim)
	return claim, ok
}

package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/inventory-service/internal/domain"
	apperrors "github.com/spec-kit/inventory-service/pkg/util/errorutil"
)

// RequireRoles ensures the verified caller holds one of the allowed roles.
// It must run after Authenticate or the gate.
func RequireRoles(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		claims, ok := ClaimsFromFiber(c)
		if !ok {
			return apperrors.NewUnauthorizedWithReason("authentication required", string(KindMissing))
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[claims.Role]; !exists {
			return apperrors.NewInsufficientRole(RoleHome(claims.Role))
		}
		return c.Next()
	}
}

package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/inventory-service/internal/auth"
)

// DashboardHandler serves the namespace landing routes. Business pages live
// elsewhere; these only echo the verified caller.
type DashboardHandler struct{}

// NewDashboardHandler constructs handler.
func NewDashboardHandler() *DashboardHandler {
	return &DashboardHandler{}
}

// Landing handles GET /.
func (h *DashboardHandler) Landing(c *fiber.Ctx) error {
	resp := fiber.Map{"authenticated": false}
	if claims, ok := auth.ClaimsFromFiber(c); ok {
		resp["authenticated"] = true
		resp["home"] = auth.RoleHome(claims.Role)
	}
	return c.JSON(resp)
}

// Home handles GET on every role namespace.
func (h *DashboardHandler) Home(c *fiber.Ctx) error {
	claims, ok := auth.ClaimsFromFiber(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	return c.JSON(fiber.Map{
		"namespace": string(auth.NamespaceOf(c.Path())),
		"path":      c.Path(),
		"operator": fiber.Map{
			"operatorId": claims.OperatorID,
			"customerId": claims.CustomerID,
			"username":   claims.Username,
			"role":       claims.Role,
		},
		"home": auth.RoleHome(claims.Role),
	})
}

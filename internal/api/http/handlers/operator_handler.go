package handlers

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/inventory-service/internal/api/dto"
	"github.com/spec-kit/inventory-service/internal/auth"
	"github.com/spec-kit/inventory-service/internal/service"
	apperrors "github.com/spec-kit/inventory-service/pkg/util/errorutil"
)

// OperatorHandler exposes administrative operator actions.
type OperatorHandler struct {
	auth     *service.AuthService
	validate *validator.Validate
}

// NewOperatorHandler constructs handler.
func NewOperatorHandler(authService *service.AuthService, validate *validator.Validate) *OperatorHandler {
	return &OperatorHandler{auth: authService, validate: validate}
}

// SetActive handles PATCH /admin/operators/:id/active.
func (h *OperatorHandler) SetActive(c *fiber.Ctx) error {
	claims, ok := auth.ClaimsFromFiber(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	id := c.Params("id")
	if err := h.validate.Var(id, "required,uuid"); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid operator id")
	}
	var req dto.SetActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := h.validate.Struct(&req); err != nil {
		return apperrors.NewValidationError("active is required", nil)
	}

	err := h.auth.SetOperatorActive(c.UserContext(), claims, id, *req.Active)
	if errors.Is(err, service.ErrOperatorNotFound) {
		return apperrors.NewNotFound("operator", map[string]any{"id": id})
	}
	if err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"id": id, "active": *req.Active}})
}

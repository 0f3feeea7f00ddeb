package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/inventory-service/internal/api/dto"
	"github.com/spec-kit/inventory-service/internal/auth"
	"github.com/spec-kit/inventory-service/internal/service"
	apperrors "github.com/spec-kit/inventory-service/pkg/util/errorutil"
)

// APIKeyHandler issues and lists tenant API keys. The tenant always comes
// from the verified token; request bodies are not consulted.
type APIKeyHandler struct {
	auth *service.AuthService
}

// NewAPIKeyHandler constructs handler.
func NewAPIKeyHandler(authService *service.AuthService) *APIKeyHandler {
	return &APIKeyHandler{auth: authService}
}

// Issue handles POST /api/keys.
func (h *APIKeyHandler) Issue(c *fiber.Ctx) error {
	claims, ok := auth.ClaimsFromFiber(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	key, err := h.auth.IssueAPIKey(c.UserContext(), claims)
	if err != nil {
		return issuanceError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewAPIKeyResponse(*key)})
}

// List handles GET /api/keys.
func (h *APIKeyHandler) List(c *fiber.Ctx) error {
	claims, ok := auth.ClaimsFromFiber(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	keys, err := h.auth.ListAPIKeys(c.UserContext(), claims)
	if err != nil {
		return issuanceError(err)
	}
	resp := make([]dto.APIKeyResponse, 0, len(keys))
	for _, key := range keys {
		resp = append(resp, dto.NewAPIKeyResponse(key))
	}
	return c.JSON(fiber.Map{"data": resp})
}

func issuanceError(err error) error {
	if errors.Is(err, auth.ErrIssuanceFailure) {
		return apperrors.NewServiceUnavailable("api key backend unavailable", err)
	}
	return apperrors.NewInternalError(err)
}

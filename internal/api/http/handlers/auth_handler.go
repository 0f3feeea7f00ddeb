package handlers

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/inventory-service/internal/api/dto"
	"github.com/spec-kit/inventory-service/internal/auth"
	"github.com/spec-kit/inventory-service/internal/domain"
	"github.com/spec-kit/inventory-service/internal/service"
)

// CookieConfig controls the session cookie written on login.
type CookieConfig struct {
	Name   string
	Secure bool
}

// AuthHandler exposes login, verification and logout.
type AuthHandler struct {
	auth     *service.AuthService
	validate *validator.Validate
	cookie   CookieConfig
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, validate *validator.Validate, cookie CookieConfig) *AuthHandler {
	if cookie.Name == "" {
		cookie.Name = auth.DefaultCookieName
	}
	return &AuthHandler{auth: authService, validate: validate, cookie: cookie}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return loginFailure(c, http.StatusBadRequest, "invalid payload")
	}
	if err := h.validate.Struct(&req); err != nil {
		return loginFailure(c, http.StatusBadRequest, "username or email, and password required")
	}
	role := domain.Role(req.Role)
	if role != "" && !role.Valid() {
		return loginFailure(c, http.StatusBadRequest, "unknown role")
	}

	result, err := h.auth.Login(c.UserContext(), auth.Credentials{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     role,
	})
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return loginFailure(c, http.StatusUnauthorized, auth.ErrInvalidCredentials.Error())
	case errors.Is(err, auth.ErrInactiveIdentity):
		return loginFailure(c, http.StatusForbidden, "account deactivated")
	case err != nil:
		return loginFailure(c, http.StatusServiceUnavailable, "authentication backend unavailable")
	}

	c.Cookie(auth.NewAuthCookie(h.cookie.Name, result.Token, h.auth.TokenTTL(), h.cookie.Secure))
	expires := result.Claims.ExpiresAt
	return c.JSON(dto.LoginResponse{Success: true, Token: result.Token, ExpiresAt: &expires})
}

// Verify handles POST /auth/verify.
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	var req dto.VerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := h.validate.Struct(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "token too long")
	}

	claims, err := h.auth.Verify(c.UserContext(), req.Token)
	if err != nil {
		return c.JSON(dto.VerifyResponse{Valid: false, Error: string(auth.KindOf(err))})
	}
	return c.JSON(dto.VerifyResponse{Valid: true, Payload: claims})
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	claims, _ := auth.ClaimsFromFiber(c)
	h.auth.Logout(c.UserContext(), claims)
	c.Cookie(auth.ExpiredAuthCookie(h.cookie.Name, h.cookie.Secure))
	return c.JSON(fiber.Map{"success": true})
}

// SignIn handles GET /auth/signin. Page rendering lives in the frontend.
func (h *AuthHandler) SignIn(c *fiber.Ctx) error {
	if claims, ok := auth.ClaimsFromFiber(c); ok {
		return c.JSON(fiber.Map{"authenticated": true, "home": auth.RoleHome(claims.Role)})
	}
	return c.JSON(fiber.Map{"authenticated": false, "login": "/auth/login"})
}

func loginFailure(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(dto.LoginResponse{Success: false, Message: message})
}

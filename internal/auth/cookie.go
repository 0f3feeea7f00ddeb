package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// DefaultCookieName carries the login token for browser clients.
const DefaultCookieName = "auth-token"

// NewAuthCookie builds the session cookie for a freshly issued token.
func NewAuthCookie(name, token string, ttl time.Duration, secure bool) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		Expires:  time.Now().Add(ttl),
		Secure:   secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteStrictMode,
	}
}

// ExpiredAuthCookie overwrites the session cookie with an already expired one.
func ExpiredAuthCookie(name string, secure bool) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(1, 0).UTC(),
		Secure:   secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteStrictMode,
	}
}

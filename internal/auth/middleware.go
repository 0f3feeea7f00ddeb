package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/inventory-service/internal/domain"
	"github.com/spec-kit/inventory-service/internal/observability"
	apperrors "github.com/spec-kit/inventory-service/pkg/util/errorutil"
)

const claimsKey = "auth_claims"

type claimsCtxKey struct{}

type tokenSource int

const (
	sourceNone tokenSource = iota
	sourceCookie
	sourceBearer
)

// GateConfig configures the request gate.
type GateConfig struct {
	CookieName   string
	CookieSecure bool
	SignInPath   string
}

// RequestGate verifies tokens and enforces the namespace role table on every
// request. It keeps no state between requests.
type RequestGate struct {
	verifier *TokenVerifier
	cfg      GateConfig
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewRequestGate constructs the gate.
func NewRequestGate(verifier *TokenVerifier, cfg GateConfig, metrics *observability.Metrics, logger *zap.Logger) *RequestGate {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	if cfg.SignInPath == "" {
		cfg.SignInPath = DefaultSignInPath
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestGate{verifier: verifier, cfg: cfg, metrics: metrics, logger: logger}
}

// Handle guards the role namespaces. Public routes get claims attached when a
// valid token is present; unmatched routes pass straight through.
func (g *RequestGate) Handle(c *fiber.Ctx) error {
	ns := NamespaceOf(c.Path())
	if ns == NamespaceUnmatched {
		return c.Next()
	}

	token, source := g.extractToken(c)
	var (
		claims    *Claims
		verifyErr error = ErrMissing
	)
	if token != "" {
		claims, verifyErr = g.verifier.Verify(c.UserContext(), token)
	}

	if ns == NamespacePublic {
		if verifyErr == nil {
			attachClaims(c, claims)
		}
		return c.Next()
	}

	var role *domain.Role
	if verifyErr == nil {
		role = &claims.Role
	}
	decision := Decide(ns, role)
	if decision.Allowed {
		g.metrics.RecordDecision(string(ns), "allow")
		attachClaims(c, claims)
		return c.Next()
	}

	g.metrics.RecordDecision(string(ns), string(decision.Reason))
	g.logger.Debug("request denied",
		zap.String("path", c.Path()),
		zap.String("reason", string(decision.Reason)),
		zap.String("token_error", string(KindOf(verifyErr))))
	return g.deny(c, decision, claims, source, verifyErr)
}

// Authenticate requires a valid token on routes outside the role namespaces.
func (g *RequestGate) Authenticate(c *fiber.Ctx) error {
	if _, ok := ClaimsFromFiber(c); ok {
		return c.Next()
	}
	token, _ := g.extractToken(c)
	if token == "" {
		return apperrors.NewUnauthorizedWithReason("authentication required", string(KindMissing))
	}
	claims, err := g.verifier.Verify(c.UserContext(), token)
	if err != nil {
		return apperrors.NewUnauthorizedWithReason("invalid token", string(KindOf(err)))
	}
	attachClaims(c, claims)
	return c.Next()
}

func (g *RequestGate) extractToken(c *fiber.Ctx) (string, tokenSource) {
	if token := strings.TrimSpace(c.Cookies(g.cfg.CookieName)); token != "" {
		return token, sourceCookie
	}
	header := c.Get(fiber.HeaderAuthorization)
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		if token := strings.TrimSpace(parts[1]); token != "" {
			return token, sourceBearer
		}
	}
	return "", sourceNone
}

func (g *RequestGate) deny(c *fiber.Ctx, decision Decision, claims *Claims, source tokenSource, verifyErr error) error {
	if source == sourceBearer || wantsJSON(c) {
		if decision.Reason == ReasonInsufficientRole {
			return apperrors.NewInsufficientRole(RoleHome(claims.Role))
		}
		return apperrors.NewUnauthorizedWithReason("authentication required", string(KindOf(verifyErr)))
	}

	if decision.Reason == ReasonInsufficientRole {
		return c.Redirect(RoleHome(claims.Role), fiber.StatusFound)
	}
	if source == sourceCookie {
		c.Cookie(ExpiredAuthCookie(g.cfg.CookieName, g.cfg.CookieSecure))
	}
	return c.Redirect(g.cfg.SignInPath, fiber.StatusFound)
}

func wantsJSON(c *fiber.Ctx) bool {
	return strings.Contains(strings.ToLower(c.Get(fiber.HeaderAccept)), fiber.MIMEApplicationJSON)
}

func attachClaims(c *fiber.Ctx, claims *Claims) {
	c.Locals(claimsKey, claims)
	c.SetUserContext(WithClaims(c.UserContext(), claims))
}

// WithClaims returns a context carrying verified claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsCtxKey{}, claims)
}

// ClaimsFromContext retrieves claims stored by WithClaims.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsCtxKey{}).(*Claims)
	return claims, ok && claims != nil
}

// ClaimsFromFiber retrieves the claims attached by the gate.
func ClaimsFromFiber(c *fiber.Ctx) (*Claims, bool) {
	val := c.Locals(claimsKey)
	if val == nil {
		return nil, false
	}
	claims, ok := val.(*Claims)
	return claims, ok && claims != nil
}

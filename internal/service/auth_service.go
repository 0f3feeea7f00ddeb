package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/inventory-service/internal/auth"
	"github.com/spec-kit/inventory-service/internal/config"
	"github.com/spec-kit/inventory-service/internal/domain"
	"github.com/spec-kit/inventory-service/internal/events"
	"github.com/spec-kit/inventory-service/internal/repository"
)

// ErrOperatorNotFound is returned when an activation target does not exist in
// the caller's tenant.
var ErrOperatorNotFound = errors.New("operator not found")

// LoginResult is a successful login.
type LoginResult struct {
	Token  string
	Claims *auth.Claims
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	OperatorRepo repository.OperatorRepository
	APIKeyRepo   repository.APIKeyRepository
	// Redis backs the live activity cache; nil looks activity up directly.
	Redis      *redis.Client
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	// Now overrides the clock in tests.
	Now func() time.Time
}

// AuthService coordinates login, verification and API key flows.
type AuthService struct {
	operators   repository.OperatorRepository
	apiKeys     repository.APIKeyRepository
	credentials *auth.CredentialStore
	issuer      *auth.TokenIssuer
	verifier    *auth.TokenVerifier
	cache       *auth.RedisActivityCache
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	bcryptCost  int
	now         func() time.Time
}

// NewAuthService builds the service and the auth components behind it.
func NewAuthService(cfg config.Config, deps AuthDependencies) (*AuthService, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	settings := auth.Settings{
		Secret:    []byte(cfg.Auth.JWTSecret),
		TokenTTL:  cfg.Auth.TokenTTL(),
		APIKeyCap: cfg.Auth.APIKeyCap,
		Now:       now,
	}
	codec, err := auth.NewTokenCodec(settings)
	if err != nil {
		return nil, err
	}
	credentials, err := auth.NewCredentialStore(deps.OperatorRepo, cfg.Auth.BcryptCost)
	if err != nil {
		return nil, err
	}

	svc := &AuthService{
		operators:   deps.OperatorRepo,
		apiKeys:     deps.APIKeyRepo,
		credentials: credentials,
		issuer:      auth.NewTokenIssuer(settings, codec, deps.APIKeyRepo),
		dispatcher:  deps.Dispatcher,
		logger:      logger,
		bcryptCost:  cfg.Auth.BcryptCost,
		now:         now,
	}

	var activity auth.ActivityChecker
	if cfg.Auth.RevocationMode == config.RevocationLive {
		activity = credentials
		if deps.Redis != nil {
			svc.cache = auth.NewRedisActivityCache(deps.Redis, credentials, cfg.Auth.ActivityCacheTTL(), logger)
			activity = svc.cache
		}
	}
	svc.verifier = auth.NewTokenVerifier(codec, activity, logger)
	return svc, nil
}

// Verifier exposes the token verifier for the request gate.
func (s *AuthService) Verifier() *auth.TokenVerifier {
	return s.verifier
}

// TokenTTL is the lifetime of login tokens.
func (s *AuthService) TokenTTL() time.Duration {
	return s.issuer.TTL()
}

// Login authenticates credentials and issues a token. Lookup, secret and role
// failures all surface as auth.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, creds auth.Credentials) (*LoginResult, error) {
	identifier := creds.Username
	if identifier == "" {
		identifier = creds.Email
	}

	identity, err := s.credentials.Authenticate(ctx, creds)
	switch {
	case errors.Is(err, auth.ErrIdentityNotFound),
		errors.Is(err, auth.ErrSecretMismatch),
		errors.Is(err, auth.ErrRoleMismatch):
		s.publish(ctx, events.EventLoginFailed, events.Actor{}, events.LoginFailedPayload{
			Identifier: identifier,
			Cause:      err.Error(),
		})
		return nil, auth.ErrInvalidCredentials
	case err != nil:
		s.logger.Error("login backend failure", zap.Error(err))
		return nil, err
	}

	token, claims, err := s.issuer.IssueLoginToken(identity)
	if errors.Is(err, auth.ErrInactiveIdentity) {
		s.publish(ctx, events.EventLoginFailed, actorOf(identity), events.LoginFailedPayload{
			Identifier: identifier,
			Cause:      err.Error(),
		})
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", auth.ErrIssuanceFailure, err)
	}

	s.publish(ctx, events.EventLoginSucceeded, actorOf(identity), nil)
	return &LoginResult{Token: token, Claims: claims}, nil
}

// Verify checks a token presented to the verification endpoint.
func (s *AuthService) Verify(ctx context.Context, token string) (*auth.Claims, error) {
	return s.verifier.Verify(ctx, token)
}

// Logout records the logout; tokens are stateless so nothing is revoked.
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) {
	if claims == nil {
		return
	}
	s.publish(ctx, events.EventLogout, actorOfClaims(claims), nil)
}

// IssueAPIKey returns an API key for the caller's own tenant.
func (s *AuthService) IssueAPIKey(ctx context.Context, caller *auth.Claims) (*domain.APIKey, error) {
	key, err := s.issuer.IssueAPIKey(ctx, caller.CustomerID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventAPIKeyIssued, actorOfClaims(caller), events.APIKeyIssuedPayload{KeyID: key.ID})
	return key, nil
}

// ListAPIKeys lists the caller's tenant keys.
func (s *AuthService) ListAPIKeys(ctx context.Context, caller *auth.Claims) ([]domain.APIKey, error) {
	keys, err := s.apiKeys.ListByCustomer(ctx, caller.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", auth.ErrIssuanceFailure, err)
	}
	return keys, nil
}

// SetOperatorActive changes an operator's activation within the caller's
// tenant and drops the cached activity flag so live verification sees it.
func (s *AuthService) SetOperatorActive(ctx context.Context, caller *auth.Claims, operatorID string, active bool) error {
	err := s.operators.SetActive(ctx, caller.CustomerID, operatorID, active)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrOperatorNotFound
	}
	if err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, operatorID); err != nil {
			s.logger.Warn("activity cache invalidation failed", zap.String("operator_id", operatorID), zap.Error(err))
		}
	}
	s.publish(ctx, events.EventOperatorActivity, actorOfClaims(caller), events.OperatorActivityPayload{
		OperatorID: operatorID,
		Active:     active,
	})
	return nil
}

// SeedAdmin creates the bootstrap admin when configured and absent.
func (s *AuthService) SeedAdmin(ctx context.Context, seed config.SeedAdminConfig) error {
	if !seed.Enabled() {
		return nil
	}
	if _, err := s.credentials.FindIdentity(ctx, seed.Username); err == nil {
		return nil
	} else if !errors.Is(err, auth.ErrIdentityNotFound) {
		return err
	}

	hash, err := auth.HashPassword(seed.Password, s.bcryptCost)
	if err != nil {
		return err
	}
	identity := &domain.Identity{
		CustomerID:   seed.CustomerID,
		Username:     seed.Username,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		IsActive:     true,
	}
	if email := strings.TrimSpace(seed.Email); email != "" {
		identity.Email = &email
	}
	if err := s.operators.Create(ctx, identity); err != nil {
		return err
	}
	s.logger.Info("seeded admin operator", zap.String("username", seed.Username), zap.String("customer_id", seed.CustomerID))
	return nil
}

func (s *AuthService) publish(ctx context.Context, eventType events.EventType, actor events.Actor, payload any) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Actor:     actor,
		Timestamp: s.now().UTC(),
		Payload:   payload,
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}

func actorOf(identity *domain.Identity) events.Actor {
	return events.Actor{OperatorID: identity.OperatorID, CustomerID: identity.CustomerID, Role: identity.Role}
}

func actorOfClaims(claims *auth.Claims) events.Actor {
	return events.Actor{OperatorID: claims.OperatorID, CustomerID: claims.CustomerID, Role: claims.Role}
}

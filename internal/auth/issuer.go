package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	mrand "math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/inventory-service/internal/domain"
	"github.com/spec-kit/inventory-service/internal/repository"
)

const (
	apiKeyPrefix      = "inv_"
	apiKeyBytes       = 24
	apiKeyMintRetries = 3
)

// TokenIssuer mints login tokens and tenant API keys.
type TokenIssuer struct {
	codec *TokenCodec
	keys  repository.APIKeyRepository
	ttl   time.Duration
	cap   int
	now   func() time.Time
	pick  func(n int) int
}

// NewTokenIssuer constructs an issuer.
func NewTokenIssuer(settings Settings, codec *TokenCodec, keys repository.APIKeyRepository) *TokenIssuer {
	return &TokenIssuer{
		codec: codec,
		keys:  keys,
		ttl:   settings.ttl(),
		cap:   settings.apiKeyCap(),
		now:   settings.clock(),
		pick:  mrand.IntN,
	}
}

// TTL returns the login token lifetime.
func (i *TokenIssuer) TTL() time.Duration {
	return i.ttl
}

// IssueLoginToken mints a token for an identity whose secret was already
// verified. Inactive identities are refused.
func (i *TokenIssuer) IssueLoginToken(identity *domain.Identity) (string, *Claims, error) {
	if identity == nil {
		return "", nil, errors.New("identity required")
	}
	if !identity.IsActive {
		return "", nil, ErrInactiveIdentity
	}

	now := i.now().UTC().Truncate(time.Second)
	claims := &Claims{
		CustomerID: identity.CustomerID,
		OperatorID: identity.OperatorID,
		Username:   identity.Username,
		Email:      identity.Email,
		Role:       identity.Role,
		IsActive:   identity.IsActive,
		IssuedAt:   now,
		ExpiresAt:  now.Add(i.ttl),
	}
	token, err := i.codec.Encode(*claims)
	if err != nil {
		return "", nil, fmt.Errorf("encode token: %w", err)
	}
	return token, claims, nil
}

// IssueAPIKey returns a key for the tenant. Below the cap a fresh key is
// minted; at or above it a stored key is returned uniformly at random.
// Count and insert are not serialized, so concurrent callers may overrun the
// cap by at most their own number.
func (i *TokenIssuer) IssueAPIKey(ctx context.Context, customerID string) (*domain.APIKey, error) {
	if customerID == "" {
		return nil, errors.New("customer id required")
	}

	count, err := i.keys.CountByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("%w: count api keys: %w", ErrIssuanceFailure, err)
	}

	if count >= i.cap {
		existing, err := i.keys.ListByCustomer(ctx, customerID)
		if err != nil {
			return nil, fmt.Errorf("%w: list api keys: %w", ErrIssuanceFailure, err)
		}
		if len(existing) > 0 {
			key := existing[i.pick(len(existing))]
			return &key, nil
		}
	}

	for attempt := 0; attempt < apiKeyMintRetries; attempt++ {
		raw, err := GenerateAPIKey()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrIssuanceFailure, err)
		}
		key := &domain.APIKey{
			ID:         uuid.NewString(),
			CustomerID: customerID,
			Key:        raw,
			CreatedAt:  i.now().UTC(),
		}
		err = i.keys.Create(ctx, key)
		if errors.Is(err, repository.ErrDuplicateAPIKey) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: store api key: %w", ErrIssuanceFailure, err)
		}
		return key, nil
	}
	return nil, fmt.Errorf("%w: could not mint a unique api key", ErrIssuanceFailure)
}

// GenerateAPIKey returns a random opaque key.
func GenerateAPIKey() (string, error) {
	b := make([]byte, apiKeyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating api key: %w", err)
	}
	return apiKeyPrefix + hex.EncodeToString(b), nil
}

package auth

import (
	"encoding/base64"
	"errors"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/inventory-service/internal/domain"
)

// Settings is the process-wide token configuration, built once at startup.
type Settings struct {
	Secret    []byte
	TokenTTL  time.Duration
	APIKeyCap int
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

const (
	defaultTokenTTL  = 12 * time.Hour
	defaultAPIKeyCap = 30
)

func (s Settings) clock() func() time.Time {
	if s.Now != nil {
		return s.Now
	}
	return time.Now
}

func (s Settings) ttl() time.Duration {
	if s.TokenTTL <= 0 {
		return defaultTokenTTL
	}
	return s.TokenTTL
}

func (s Settings) apiKeyCap() int {
	if s.APIKeyCap <= 0 {
		return defaultAPIKeyCap
	}
	return s.APIKeyCap
}

// Claims is the verified payload of a token.
type Claims struct {
	CustomerID string      `json:"customerId"`
	OperatorID string      `json:"operatorId"`
	Username   string      `json:"username"`
	Email      *string     `json:"email,omitempty"`
	Role       domain.Role `json:"role"`
	IsActive   bool        `json:"isActive"`
	IssuedAt   time.Time   `json:"issuedAt"`
	ExpiresAt  time.Time   `json:"expiresAt"`
}

func (c *Claims) validate() error {
	switch {
	case c.OperatorID == "":
		return errors.New("missing operator id")
	case c.CustomerID == "":
		return errors.New("missing customer id")
	case !c.Role.Valid():
		return errors.New("unknown role")
	case !c.ExpiresAt.After(c.IssuedAt):
		return errors.New("expiry must follow issuance")
	}
	return nil
}

// tokenClaims is the wire form. IsActive is a pointer so an absent flag is
// rejected instead of read as false.
type tokenClaims struct {
	CustomerID string      `json:"customerId"`
	OperatorID string      `json:"operatorId"`
	Username   string      `json:"username"`
	Email      *string     `json:"email,omitempty"`
	Role       domain.Role `json:"role"`
	IsActive   *bool       `json:"isActive"`
	jwt.RegisteredClaims
}

// TokenCodec signs and parses HS256 tokens.
type TokenCodec struct {
	secret []byte
	now    func() time.Time
}

// NewTokenCodec builds a codec from settings.
func NewTokenCodec(settings Settings) (*TokenCodec, error) {
	if len(settings.Secret) == 0 {
		return nil, errors.New("token secret must not be empty")
	}
	return &TokenCodec{secret: settings.Secret, now: settings.clock()}, nil
}

// Encode signs claims. Identical claims produce identical tokens. The wire
// format carries whole seconds, so sub-second timestamps are rejected.
func (tc *TokenCodec) Encode(claims Claims) (string, error) {
	if err := claims.validate(); err != nil {
		return "", err
	}
	if !isWholeSecond(claims.IssuedAt) || !isWholeSecond(claims.ExpiresAt) {
		return "", errors.New("timestamps must be whole seconds")
	}
	active := claims.IsActive
	wire := tokenClaims{
		CustomerID: claims.CustomerID,
		OperatorID: claims.OperatorID,
		Username:   claims.Username,
		Email:      claims.Email,
		Role:       claims.Role,
		IsActive:   &active,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.OperatorID,
			IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, wire).SignedString(tc.secret)
}

// Decode verifies the signature over the raw header and payload before the
// payload is parsed, then checks expiry and claim shape. An expired token
// with a bad signature therefore fails as a signature error, not as expired.
func (tc *TokenCodec) Decode(token string) (*Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, newAuthError(KindMalformed, errors.New("token must have three segments"))
	}
	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, newAuthError(KindMalformed, err)
	}
	if err := jwt.SigningMethodHS256.Verify(parts[0]+"."+parts[1], sig, tc.secret); err != nil {
		return nil, newAuthError(KindBadSignature, err)
	}

	var wire tokenClaims
	_, err = jwt.ParseWithClaims(token, &wire, func(*jwt.Token) (any, error) {
		return tc.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(tc.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, newAuthError(KindExpired, err)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
			return nil, newAuthError(KindBadSignature, err)
		default:
			return nil, newAuthError(KindMalformed, err)
		}
	}

	if wire.IssuedAt == nil || wire.ExpiresAt == nil || wire.IsActive == nil {
		return nil, newAuthError(KindMalformed, errors.New("missing required claims"))
	}

	claims := &Claims{
		CustomerID: wire.CustomerID,
		OperatorID: wire.OperatorID,
		Username:   wire.Username,
		Email:      wire.Email,
		Role:       wire.Role,
		IsActive:   *wire.IsActive,
		IssuedAt:   wire.IssuedAt.UTC(),
		ExpiresAt:  wire.ExpiresAt.UTC(),
	}
	if err := claims.validate(); err != nil {
		return nil, newAuthError(KindMalformed, err)
	}
	return claims, nil
}

func isWholeSecond(t time.Time) bool {
	return t.Nanosecond() == 0
}

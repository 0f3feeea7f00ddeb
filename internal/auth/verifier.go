package auth

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// ActivityChecker answers whether an operator is still active right now.
type ActivityChecker interface {
	IsActive(ctx context.Context, operatorID string) (bool, error)
}

// TokenVerifier validates tokens presented by clients.
//
// With a nil ActivityChecker only the embedded isActive flag is trusted, so a
// deactivation is observed when the token expires (staleness bound: token
// TTL). With a checker, every verification consults the live store, bounded
// by whatever cache the checker applies. A failed live lookup falls back to
// the embedded flag.
type TokenVerifier struct {
	codec    *TokenCodec
	activity ActivityChecker
	logger   *zap.Logger
}

// NewTokenVerifier builds a verifier.
func NewTokenVerifier(codec *TokenCodec, activity ActivityChecker, logger *zap.Logger) *TokenVerifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenVerifier{codec: codec, activity: activity, logger: logger}
}

// Live reports whether deactivation is checked against the store.
func (v *TokenVerifier) Live() bool {
	return v.activity != nil
}

// Verify decodes the token and checks it is still usable. Errors are always
// *AuthError.
func (v *TokenVerifier) Verify(ctx context.Context, token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMissing
	}

	claims, err := v.codec.Decode(token)
	if err != nil {
		return nil, err
	}
	if !claims.IsActive {
		return nil, ErrDeactivated
	}

	if v.activity != nil {
		active, err := v.activity.IsActive(ctx, claims.OperatorID)
		switch {
		case err != nil:
			v.logger.Warn("live activity lookup failed; using embedded flag",
				zap.String("operator_id", claims.OperatorID),
				zap.Error(err))
		case !active:
			return nil, ErrDeactivated
		}
	}
	return claims, nil
}

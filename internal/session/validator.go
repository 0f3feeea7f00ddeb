package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/inventory-service/internal/auth"
)

// ErrValidationUnreachable means the verification endpoint gave no usable
// answer. It never ends a session.
var ErrValidationUnreachable = errors.New("validation unreachable")

// Result is the verification endpoint's verdict.
type Result struct {
	Valid  bool
	Claims *auth.Claims
	Reason string
}

// Validator asks the server whether a token is still good.
type Validator interface {
	Validate(ctx context.Context, token string) (Result, error)
}

type verifyRequest struct {
	Token string `json:"token"`
}

type verifyResponse struct {
	Valid   *bool        `json:"valid"`
	Payload *auth.Claims `json:"payload,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// HTTPValidator posts tokens to the /auth/verify endpoint.
type HTTPValidator struct {
	endpoint string
	timeout  time.Duration
}

// NewHTTPValidator targets endpoint, e.g. "http://localhost:8080/auth/verify".
// timeout applies when the caller's context carries no deadline.
func NewHTTPValidator(endpoint string, timeout time.Duration) *HTTPValidator {
	return &HTTPValidator{endpoint: endpoint, timeout: timeout}
}

func (v *HTTPValidator) Validate(ctx context.Context, token string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrValidationUnreachable, err)
	}

	timeout := v.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}

	agent := fiber.Post(v.endpoint).JSON(verifyRequest{Token: token})
	if timeout > 0 {
		agent.Timeout(timeout)
	}
	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return Result{}, fmt.Errorf("%w: %w", ErrValidationUnreachable, errors.Join(errs...))
	}
	if code < 200 || code >= 300 {
		return Result{}, fmt.Errorf("%w: status %d", ErrValidationUnreachable, code)
	}

	var resp verifyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Result{}, fmt.Errorf("%w: decode: %w", ErrValidationUnreachable, err)
	}
	if resp.Valid == nil {
		return Result{}, fmt.Errorf("%w: response missing verdict", ErrValidationUnreachable)
	}
	if *resp.Valid && resp.Payload == nil {
		return Result{}, fmt.Errorf("%w: valid response without payload", ErrValidationUnreachable)
	}
	return Result{Valid: *resp.Valid, Claims: resp.Payload, Reason: resp.Error}, nil
}

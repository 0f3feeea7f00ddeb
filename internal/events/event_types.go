package events

import (
	"time"

	"github.com/spec-kit/inventory-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventLoginSucceeded   EventType = "login_succeeded"
	EventLoginFailed      EventType = "login_failed"
	EventAPIKeyIssued     EventType = "api_key_issued"
	EventLogout           EventType = "logout"
	EventOperatorActivity EventType = "operator_activity_changed"
)

// Actor describes who triggered an event. Unknown callers leave the IDs empty.
type Actor struct {
	OperatorID string      `json:"operator_id,omitempty"`
	CustomerID string      `json:"customer_id,omitempty"`
	Role       domain.Role `json:"role,omitempty"`
}

// Event represents an auth event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// LoginFailedPayload never carries the attempted secret.
type LoginFailedPayload struct {
	Identifier string `json:"identifier"`
	Cause      string `json:"cause"`
}

// APIKeyIssuedPayload identifies the returned key by ID only.
type APIKeyIssuedPayload struct {
	KeyID string `json:"key_id"`
}

// OperatorActivityPayload records an activation change.
type OperatorActivityPayload struct {
	OperatorID string `json:"operator_id"`
	Active     bool   `json:"active"`
}

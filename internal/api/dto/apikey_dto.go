package dto

import (
	"time"

	"github.com/spec-kit/inventory-service/internal/domain"
)

// APIKeyResponse describes one tenant key.
type APIKeyResponse struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customerId"`
	Key        string    `json:"key"`
	CreatedAt  time.Time `json:"createdAt"`
}

// NewAPIKeyResponse converts a domain key.
func NewAPIKeyResponse(key domain.APIKey) APIKeyResponse {
	return APIKeyResponse{ID: key.ID, CustomerID: key.CustomerID, Key: key.Key, CreatedAt: key.CreatedAt}
}

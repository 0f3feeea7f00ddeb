package domain

import "time"

// APIKey is a long-lived secondary credential owned by a tenant.
type APIKey struct {
	ID         string
	CustomerID string
	Key        string
	CreatedAt  time.Time
}

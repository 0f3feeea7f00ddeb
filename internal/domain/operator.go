package domain

import "time"

// Role enumerates operator roles, highest privilege first.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleAgent   Role = "agent"
	RoleUser    Role = "user"
)

// Roles lists every known role.
var Roles = []Role{RoleAdmin, RoleManager, RoleAgent, RoleUser}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleAgent, RoleUser:
		return true
	}
	return false
}

// Identity is an operator account scoped to a customer (tenant).
type Identity struct {
	OperatorID   string
	CustomerID   string
	Username     string
	Email        *string
	PasswordHash string
	Role         Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

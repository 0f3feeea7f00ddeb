package auth

import (
	"path"
	"strings"

	"github.com/spec-kit/inventory-service/internal/domain"
)

// Namespace is a route prefix guarded by a minimum role.
type Namespace string

const (
	NamespacePublic    Namespace = "public"
	NamespaceAdmin     Namespace = "admin"
	NamespaceManager   Namespace = "manager"
	NamespaceAgent     Namespace = "agent"
	NamespaceUser      Namespace = "user"
	NamespaceUnmatched Namespace = "unmatched"
)

// DenyReason explains a denied decision.
type DenyReason string

const (
	ReasonUnauthenticated  DenyReason = "unauthenticated"
	ReasonInsufficientRole DenyReason = "insufficient_role"
)

// Decision is the outcome of an access check.
type Decision struct {
	Allowed bool
	Reason  DenyReason
}

// DefaultSignInPath is where callers without a usable role are sent.
const DefaultSignInPath = "/auth/signin"

// rank orders roles; a lower value outranks a higher one.
var rank = map[domain.Role]int{
	domain.RoleAdmin:   0,
	domain.RoleManager: 1,
	domain.RoleAgent:   2,
	domain.RoleUser:    3,
}

// minimum is the weakest role admitted to each guarded namespace.
var minimum = map[Namespace]domain.Role{
	NamespaceAdmin:   domain.RoleAdmin,
	NamespaceManager: domain.RoleManager,
	NamespaceAgent:   domain.RoleAgent,
	NamespaceUser:    domain.RoleUser,
}

// assetPrefixes hold static and framework files. Anything else is classified
// by its first segment, whatever its extension.
var assetPrefixes = []string{"/static/", "/_next/"}

// NamespaceOf classifies a request path. Asset prefixes and routes outside the
// role table are unmatched.
func NamespaceOf(p string) Namespace {
	if p == "" {
		p = "/"
	}
	for _, prefix := range assetPrefixes {
		if strings.HasPrefix(p, prefix) {
			return NamespaceUnmatched
		}
	}

	clean := path.Clean(p)
	if clean == "/" {
		return NamespacePublic
	}
	segment := strings.SplitN(strings.TrimPrefix(clean, "/"), "/", 2)[0]
	switch segment {
	case "auth":
		return NamespacePublic
	case "admin":
		return NamespaceAdmin
	case "manager":
		return NamespaceManager
	case "agent":
		return NamespaceAgent
	case "user":
		return NamespaceUser
	}
	return NamespaceUnmatched
}

// Decide applies the role table. A nil role means no verified caller.
func Decide(ns Namespace, role *domain.Role) Decision {
	if ns == NamespacePublic || ns == NamespaceUnmatched {
		return Decision{Allowed: true}
	}
	if role == nil {
		return Decision{Reason: ReasonUnauthenticated}
	}
	need, ok := minimum[ns]
	if !ok {
		return Decision{Reason: ReasonInsufficientRole}
	}
	have, ok := rank[*role]
	if !ok || have > rank[need] {
		return Decision{Reason: ReasonInsufficientRole}
	}
	return Decision{Allowed: true}
}

// RoleHome is the landing namespace for a role.
func RoleHome(role domain.Role) string {
	switch role {
	case domain.RoleAdmin:
		return "/admin"
	case domain.RoleManager:
		return "/manager"
	case domain.RoleAgent:
		return "/agent"
	case domain.RoleUser:
		return "/user"
	}
	return DefaultSignInPath
}

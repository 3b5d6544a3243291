// Package identity models who is making a request and what they are allowed
// to do, based on claims verified by the external identity provider.
package identity

import (
	"errors"
)

// ErrMalformedClaims is returned when the realm role set cannot be read from
// the introspection payload.
var ErrMalformedClaims = errors.New("identity: malformed claim set")

// Claims is the request-scoped identity information extracted from a
// verified bearer token. It is never persisted.
type Claims struct {
	Username  string
	Email     string
	FirstName string
	LastName  string

	// Superuser is never set from provider data; it exists for the debug
	// bypass on role gates and is only reachable by in-process callers.
	Superuser bool

	// TokenInfo is the raw introspection payload.
	TokenInfo map[string]any
}

// RealmRoles reads the realm role set out of the raw introspection payload
// (under realm_access.roles). A payload without that shape is a malformed
// claim set.
func (c Claims) RealmRoles() ([]string, error) {
	if c.TokenInfo == nil {
		return nil, ErrMalformedClaims
	}
	realmAccess, ok := c.TokenInfo["realm_access"].(map[string]any)
	if !ok {
		return nil, ErrMalformedClaims
	}

	rawRoles, ok := realmAccess["roles"]
	if !ok {
		return nil, nil
	}
	list, ok := rawRoles.([]any)
	if !ok {
		return nil, ErrMalformedClaims
	}

	roles := make([]string, 0, len(list))
	for _, entry := range list {
		role, ok := entry.(string)
		if !ok {
			return nil, ErrMalformedClaims
		}
		roles = append(roles, role)
	}
	return roles, nil
}

// Identity is either Anonymous or Authenticated with a claim set.
type Identity struct {
	authenticated bool
	claims        Claims
}

// Anonymous is the identity of a request without a bearer token.
func Anonymous() Identity {
	return Identity{}
}

// Authenticated wraps a verified claim set.
func Authenticated(claims Claims) Identity {
	return Identity{authenticated: true, claims: claims}
}

func (id Identity) IsAuthenticated() bool {
	return id.authenticated
}

// Claims returns the claim set; ok is false for an anonymous identity.
func (id Identity) Claims() (Claims, bool) {
	return id.claims, id.authenticated
}

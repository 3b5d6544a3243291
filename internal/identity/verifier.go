package identity

import (
	"context"
	"errors"
	"fmt"

	"libraryapi/internal/keycloak"
)

// ErrAuthenticationFailed is returned for any token the provider cannot
// vouch for: rejected, expired, inactive, or the provider being unreachable.
// Connectivity failures are deliberately not a separate class.
var ErrAuthenticationFailed = errors.New("identity: authentication failed")

// Verifier exchanges a raw bearer token for a request identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// KeycloakVerifier verifies tokens by calling the provider's userinfo and
// introspection endpoints on every request.
type KeycloakVerifier struct {
	client *keycloak.Client
}

func NewKeycloakVerifier(client *keycloak.Client) *KeycloakVerifier {
	return &KeycloakVerifier{client: client}
}

// Verify returns Anonymous for an empty token. For a present token, any
// provider failure is an authentication failure.
func (v *KeycloakVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Anonymous(), nil
	}

	userInfo, err := v.client.GetUserInfo(ctx, token)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}

	tokenInfo, err := v.client.Introspect(ctx, token)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}
	if !tokenInfo.Active {
		return Identity{}, fmt.Errorf("%w: token is not active", ErrAuthenticationFailed)
	}

	claims := Claims{
		Username:  userInfo.PreferredUsername,
		Email:     userInfo.Email,
		FirstName: userInfo.GivenName,
		LastName:  userInfo.FamilyName,
		TokenInfo: tokenInfo.Raw,
	}
	return Authenticated(claims), nil
}

// Package keycloak is a minimal client for the identity provider's
// token-introspection and user-info endpoints. Every call goes over the wire;
// nothing is cached and tokens are never verified locally.
package keycloak

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrInvalidToken is returned when the provider rejects the token.
	ErrInvalidToken = errors.New("keycloak: invalid token")
	// ErrConnection is returned when the provider cannot be reached.
	ErrConnection = errors.New("keycloak: connection error")
)

// ProviderError is a non-401 error response from the provider, decoded from
// its {"error": ..., "error_description": ...} body when possible.
type ProviderError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("keycloak error: %s (status %d)", e.Code, e.StatusCode)
}

type Config struct {
	ServerURL    string
	Realm        string
	ClientID     string
	ClientSecret string
}

type Client struct {
	httpClient *http.Client
	cfg        Config
}

func NewClient(cfg Config) *Client {
	cfg.ServerURL = strings.TrimSuffix(cfg.ServerURL, "/")
	return &Client{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		cfg: cfg,
	}
}

// TokenInfo is the introspection result. Raw carries the full payload so
// callers can read claims this client does not model.
type TokenInfo struct {
	Active bool
	Raw    map[string]any
}

// UserInfo matches the OpenID Connect userinfo response.
type UserInfo struct {
	PreferredUsername string `json:"preferred_username"`
	Email             string `json:"email"`
	GivenName         string `json:"given_name"`
	FamilyName        string `json:"family_name"`
}

func (c *Client) endpoint(name string) string {
	return fmt.Sprintf("%s/realms/%s/protocol/openid-connect/%s", c.cfg.ServerURL, c.cfg.Realm, name)
}

// Introspect asks the provider whether the token is active, authenticating
// with the configured client credentials.
func (c *Client) Introspect(ctx context.Context, token string) (TokenInfo, error) {
	form := url.Values{"token": {token}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("token/introspect"), strings.NewReader(form.Encode()))
	if err != nil {
		return TokenInfo{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return TokenInfo{}, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return TokenInfo{}, ErrInvalidToken
	}
	if resp.StatusCode != http.StatusOK {
		return TokenInfo{}, providerError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return TokenInfo{}, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return TokenInfo{}, fmt.Errorf("keycloak: decode introspection response: %w", err)
	}

	active, _ := raw["active"].(bool)
	return TokenInfo{Active: active, Raw: raw}, nil
}

// GetUserInfo fetches the userinfo claims for the bearer token.
func (c *Client) GetUserInfo(ctx context.Context, token string) (UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("userinfo"), nil)
	if err != nil {
		return UserInfo{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return UserInfo{}, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return UserInfo{}, ErrInvalidToken
	}
	if resp.StatusCode != http.StatusOK {
		return UserInfo{}, providerError(resp)
	}

	var info UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return UserInfo{}, fmt.Errorf("keycloak: decode userinfo response: %w", err)
	}
	return info, nil
}

func providerError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var payload struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	// A malformed error body is still an authentication failure, just one
	// without a usable error code.
	if err := json.Unmarshal(body, &payload); err != nil || payload.Error == "" {
		return &ProviderError{StatusCode: resp.StatusCode, Code: "unknown"}
	}
	return &ProviderError{
		StatusCode:  resp.StatusCode,
		Code:        payload.Error,
		Description: payload.ErrorDescription,
	}
}

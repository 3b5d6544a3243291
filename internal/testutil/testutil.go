// Package testutil provides helpers shared by package tests, most notably a
// fake identity provider that issues and introspects HS256 tokens the way
// the real provider does.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// FakeProvider is an in-process identity provider exposing the introspection
// and userinfo endpoints under any realm path.
type FakeProvider struct {
	Server *httptest.Server
	Secret string
}

func NewFakeProvider() *FakeProvider {
	p := &FakeProvider{Secret: "test-provider-secret"}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /realms/{realm}/protocol/openid-connect/token/introspect", p.introspect)
	mux.HandleFunc("GET /realms/{realm}/protocol/openid-connect/userinfo", p.userinfo)

	p.Server = httptest.NewServer(mux)
	return p
}

func (p *FakeProvider) Close() {
	p.Server.Close()
}

func (p *FakeProvider) URL() string {
	return p.Server.URL
}

// TokenSpec describes the identity baked into an issued token.
type TokenSpec struct {
	Username   string
	Email      string
	FirstName  string
	LastName   string
	RealmRoles []string
	ExpiresIn  time.Duration
}

// IssueToken mints a signed access token the fake provider will accept.
func (p *FakeProvider) IssueToken(spec TokenSpec) string {
	expiresIn := spec.ExpiresIn
	if expiresIn == 0 {
		expiresIn = time.Hour
	}

	claims := jwt.MapClaims{
		"preferred_username": spec.Username,
		"email":              spec.Email,
		"given_name":         spec.FirstName,
		"family_name":        spec.LastName,
		"realm_access":       map[string]any{"roles": spec.RealmRoles},
		"exp":                time.Now().Add(expiresIn).Unix(),
		"iat":                time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(p.Secret))
	if err != nil {
		panic(err)
	}
	return signed
}

func (p *FakeProvider) parse(raw string) (jwt.MapClaims, bool) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return []byte(p.Secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return nil, false
	}
	return claims, true
}

func (p *FakeProvider) introspect(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := r.BasicAuth(); !ok {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_client"})
		return
	}
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	claims, ok := p.parse(r.PostFormValue("token"))
	if !ok {
		// The real provider introspects unknown tokens as inactive, not
		// as an error.
		_ = json.NewEncoder(w).Encode(map[string]any{"active": false})
		return
	}

	payload := map[string]any{
		"active":       true,
		"username":     claims["preferred_username"],
		"realm_access": claims["realm_access"],
		"exp":          claims["exp"],
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func (p *FakeProvider) userinfo(w http.ResponseWriter, r *http.Request) {
	raw := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(raw) <= len(prefix) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_token"})
		return
	}

	claims, ok := p.parse(raw[len(prefix):])
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_token"})
		return
	}

	_ = json.NewEncoder(w).Encode(map[string]any{
		"preferred_username": claims["preferred_username"],
		"email":              claims["email"],
		"given_name":         claims["given_name"],
		"family_name":        claims["family_name"],
	})
}

// NewRequest creates an HTTP request with an optional JSON body.
func NewRequest(method, path string, body interface{}) *http.Request {
	var r *http.Request
	if body != nil {
		payload, _ := json.Marshal(body)
		r = httptest.NewRequest(method, path, bytes.NewReader(payload))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	return r
}

// NewRequestWithAuth creates an HTTP request carrying a bearer token.
func NewRequestWithAuth(method, path string, body interface{}, token string) *http.Request {
	r := NewRequest(method, path, body)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

// DecodeBody unmarshals a recorded response body into a generic map.
func DecodeBody(w *httptest.ResponseRecorder) map[string]interface{} {
	result := w.Result()
	defer result.Body.Close()

	payload, _ := io.ReadAll(result.Body)
	var body map[string]interface{}
	if len(payload) > 0 {
		_ = json.Unmarshal(payload, &body)
	}
	return body
}

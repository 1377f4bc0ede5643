// Package auth checks the opaque device credential carried on the socket
// handshake. Acquiring the credential is the caller's business.
package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
)

// TokenParam is the query parameter a client attaches its credential to.
const TokenParam = "token"

var ErrUnauthorized = errors.New("auth: unauthorized")

type Validator interface {
	Validate(token string) error
}

// StaticToken accepts exactly one shared token. An empty Token rejects
// everything.
type StaticToken struct {
	Token string
}

func (s StaticToken) Validate(token string) error {
	if s.Token == "" {
		return ErrUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(s.Token), []byte(token)) != 1 {
		return ErrUnauthorized
	}
	return nil
}

// Open accepts any token, including none.
type Open struct{}

func (Open) Validate(string) error {
	return nil
}

// FuncValidator adapts a function into a Validator.
type FuncValidator func(token string) error

func (f FuncValidator) Validate(token string) error {
	return f(token)
}

// ForToken returns StaticToken for a non-empty token and Open otherwise.
func ForToken(token string) Validator {
	if strings.TrimSpace(token) == "" {
		return Open{}
	}
	return StaticToken{Token: token}
}

// FromRequest extracts the handshake credential: the token query parameter,
// or a bearer Authorization header when the query carries none.
func FromRequest(r *http.Request) string {
	if token := r.URL.Query().Get(TokenParam); token != "" {
		return token
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return ""
}

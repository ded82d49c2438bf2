// Package session reads the browser session: the opaque access credential and
// the user-identity payload stored next to it.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pageza/recipehome/internal/types"
)

// ErrMalformedUserPayload is returned when no user id can be decoded from the session
var ErrMalformedUserPayload = errors.New("malformed user identity payload")

// Reader exposes the current session to the synchronizer
type Reader interface {
	HasSession() bool
	Credential() string
	UserID() (string, error)
}

// Session is an immutable snapshot of the browser's session cookies
type Session struct {
	credential string
	identity   string
}

// New builds a session from a credential and a raw identity payload
func New(credential, identity string) Session {
	return Session{credential: credential, identity: identity}
}

// FromRequest reads the credential and identity cookies of r. Missing cookies
// yield an empty (logged out) session.
func FromRequest(r *http.Request, credentialCookie, identityCookie string) Session {
	var s Session
	if c, err := r.Cookie(credentialCookie); err == nil {
		s.credential = c.Value
	}
	if c, err := r.Cookie(identityCookie); err == nil {
		if v, err := url.QueryUnescape(c.Value); err == nil {
			s.identity = v
		} else {
			s.identity = c.Value
		}
	}
	return s
}

// HasSession reports whether a non-empty credential is present
func (s Session) HasSession() bool {
	return len(s.credential) > 0
}

// Credential returns the opaque credential, empty when logged out
func (s Session) Credential() string {
	return s.credential
}

// UserID decodes the user id from the identity payload, falling back to the
// claims of the credential when no payload is stored.
func (s Session) UserID() (string, error) {
	if s.identity != "" {
		var id types.Identity
		if err := json.Unmarshal([]byte(s.identity), &id); err != nil {
			return "", fmt.Errorf("%w: %v", ErrMalformedUserPayload, err)
		}
		if id.ID == "" {
			return "", fmt.Errorf("%w: missing _id", ErrMalformedUserPayload)
		}
		return id.ID, nil
	}

	if s.credential == "" {
		return "", fmt.Errorf("%w: no session", ErrMalformedUserPayload)
	}

	// The signature is checked by the remote API, only the claims are needed here.
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.credential, claims); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedUserPayload, err)
	}
	for _, key := range []string{"user_id", "_id", "id", "sub"} {
		if v, ok := claims[key].(string); ok && v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: no user claim in credential", ErrMalformedUserPayload)
}

// EncodeIdentity serializes an identity for storage in the identity cookie
func EncodeIdentity(id types.Identity) (string, error) {
	b, err := json.Marshal(id)
	if err != nil {
		return "", err
	}
	return url.QueryEscape(string(b)), nil
}

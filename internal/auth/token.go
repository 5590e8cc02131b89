package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// The session token is an unsigned, self-describing string of the form
// session_token_<contactID>_<epochMillis>. It carries no signature and no
// expiry check; possession of the string is the whole credential, and the
// embedded contact ID is only verified when a downstream lookup runs.
const tokenPrefix = "session_token_"

var (
	ErrMissingToken   = errors.New("missing bearer token")
	ErrMalformedToken = errors.New("malformed session token")
)

// EncodeToken issues a session token for the given contact ID.
func EncodeToken(contactID string) string {
	return fmt.Sprintf("%s%s_%d", tokenPrefix, contactID, time.Now().UnixMilli())
}

// DecodeToken recovers the contact ID embedded in a session token.
// Splitting on underscores means a contact ID that itself contains an
// underscore cannot round-trip; upstream IDs are alphanumeric in practice.
func DecodeToken(token string) (string, error) {
	if !strings.HasPrefix(token, tokenPrefix) {
		return "", ErrMalformedToken
	}
	parts := strings.Split(token, "_")
	// session token <id> <millis>
	if len(parts) != 4 || parts[2] == "" {
		return "", ErrMalformedToken
	}
	return parts[2], nil
}

// BearerToken extracts the token from an Authorization: Bearer header.
// A missing header or a non-Bearer scheme is rejected before any upstream
// call is made.
func BearerToken(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", ErrMissingToken
	}
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(token), nil
}

// ContactIDFromRequest combines header extraction and token decoding.
func ContactIDFromRequest(r *http.Request) (string, error) {
	token, err := BearerToken(r)
	if err != nil {
		return "", err
	}
	return DecodeToken(token)
}

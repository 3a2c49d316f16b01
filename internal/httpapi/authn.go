package httpapi

import (
	"errors"
	"net/http"
	"strings"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "

	// SessionCookieName is the cookie the browser front end stores the
	// session token under.
	SessionCookieName = "tutorlane_session"
)

// credentialFromRequest extracts whatever credential material the caller
// presented: the Authorization bearer header first, then the session cookie.
// Both surfaces feed the same verification path in auth.Service.
func credentialFromRequest(r *http.Request) (string, bool) {
	if token, err := extractBearerToken(r.Header.Get(authHeader)); err == nil {
		return token, true
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		if v := strings.TrimSpace(cookie.Value); v != "" {
			return v, true
		}
	}
	return "", false
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

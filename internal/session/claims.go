package session

import (
	"encoding/base64"
	"encoding/json"
	"strings"
)

// EmailFromToken pulls the email claim out of a JWT without verifying it.
// The token already came from the backend over the authenticated channel;
// the claim is only used for display decisions like labelling a transfer as
// sent or received. Returns "" for anything that does not parse.
func EmailFromToken(token string) string {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return ""
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return ""
	}
	var claims struct {
		Email string `json:"email"`
		Sub   string `json:"sub"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return ""
	}
	if claims.Email != "" {
		return claims.Email
	}
	if strings.Contains(claims.Sub, "@") {
		return claims.Sub
	}
	return ""
}

// UserEmail returns the email claim of the current session token, or ""
// when anonymous or the token carries no email.
func (m *Manager) UserEmail() string {
	return EmailFromToken(m.Token())
}

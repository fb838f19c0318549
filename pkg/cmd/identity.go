package cmd

import (
	"github.com/golang-jwt/jwt/v4"
)

// identityFromToken extracts a display identity from the access token
// without verifying the signature; it is only used for local display, never
// for authorization decisions.
func identityFromToken(token string) string {
	if token == "" {
		return ""
	}
	parser := jwt.Parser{}
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return ""
	}
	for _, key := range []string{"email", "preferred_username", "name", "sub"} {
		if value, ok := claims[key].(string); ok && value != "" {
			return value
		}
	}
	return ""
}

package auth

import (
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// tokenParser decodes claims without verifying the signature. The console is
// a pure consumer of access tokens; only the remote API holds the key.
var tokenParser = jwt.NewParser()

// ExpiresAt extracts the embedded expiry instant from a bearer token.
// The second return is false when the token is structurally invalid or
// carries no expiry claim.
func ExpiresAt(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	parsed, _, err := tokenParser.ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// IsExpired reports whether the credential is unusable at the given instant.
// Missing or malformed tokens are treated as expired rather than erroring.
func IsExpired(token string, now time.Time) bool {
	exp, ok := ExpiresAt(token)
	if !ok {
		return true
	}
	return !now.Before(exp)
}

package utils

import (
	"crypto/subtle"
	"strings"
)

const bearerPrefix = "Bearer "

// SecretMatches compares a presented shared secret with the configured one
// in constant time. An empty configured secret never matches.
func SecretMatches(presented, configured string) bool {
	if configured == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(configured)) == 1
}

// BearerMatches checks an Authorization header against "Bearer <secret>".
// The whole header is compared, so the scheme is case-sensitive.
func BearerMatches(header, secret string) bool {
	if secret == "" {
		return false
	}
	return SecretMatches(header, bearerPrefix+secret)
}

// BearerHeader builds the Authorization value for a secret.
func BearerHeader(secret string) string {
	return bearerPrefix + strings.TrimSpace(secret)
}

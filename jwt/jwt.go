// Package jwt reads claims from the bearer tokens handed to the crawler.
// Signatures are not verified; the FHIR server does that.
package jwt

import (
	"time"

	"github.com/fwojciec/fhircrawl"
	"github.com/golang-jwt/jwt/v5"
)

// Expiry returns the expiration time of token.
// Returns EINVALID if token is not a JWT and ENOTFOUND if it has no exp claim.
func Expiry(token string) (time.Time, error) {
	parser := jwt.NewParser()
	t, _, err := parser.ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, fhircrawl.Errorf(fhircrawl.EINVALID, "token is not a JWT: %v", err)
	}

	exp, err := t.Claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fhircrawl.Errorf(fhircrawl.EINVALID, "invalid exp claim: %v", err)
	}
	if exp == nil {
		return time.Time{}, fhircrawl.Errorf(fhircrawl.ENOTFOUND, "token has no exp claim")
	}
	return exp.Time, nil
}

// ExpiresBefore reports whether token expires before deadline. Tokens whose
// expiry cannot be read are assumed not to expire.
func ExpiresBefore(token string, deadline time.Time) (time.Time, bool) {
	exp, err := Expiry(token)
	if err != nil {
		return time.Time{}, false
	}
	return exp, exp.Before(deadline)
}

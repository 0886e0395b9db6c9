package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Token uses, carried in the "use" claim. Access and refresh tokens are
// signed with different keys as well; the claim keeps a leaked key from
// turning one kind into the other.
const (
	UseAccess  = "access"
	UseRefresh = "refresh"

	useClaim = "use"
)

// TokenValidator checks claims after the signature has been verified.
type TokenValidator struct {
	Issuer    string
	Audience  string
	ClockSkew time.Duration
	Algorithm jwa.SignatureAlgorithm
	// Use, when set, must equal the token's "use" claim.
	Use string
}

// For returns a copy of v that only accepts tokens issued for use.
func (v TokenValidator) For(use string) TokenValidator {
	v.Use = use
	return v
}

// Validate checks subject, algorithm, issuer, audience, use and the validity
// window at now. Refresh tokens must also carry a jti.
func (v TokenValidator) Validate(tok jwt.Token, algorithm jwa.SignatureAlgorithm, now time.Time) error {
	switch {
	case tok == nil:
		return errors.New("auth: token is nil")
	case tok.Subject() == "":
		return errors.New("auth: token has no subject")
	case algorithm == "":
		return errors.New("auth: token missing algorithm")
	case v.Algorithm != "" && algorithm != v.Algorithm:
		return fmt.Errorf("auth: unexpected token algorithm %s", algorithm)
	case v.Use == UseRefresh && tok.JwtID() == "":
		return errors.New("auth: refresh token has no jti")
	}

	options := []jwt.ValidateOption{
		jwt.WithClock(jwt.ClockFunc(func() time.Time { return now })),
		jwt.WithAcceptableSkew(v.ClockSkew),
	}
	if v.Issuer != "" {
		options = append(options, jwt.WithIssuer(v.Issuer))
	}
	if v.Audience != "" {
		options = append(options, jwt.WithAudience(v.Audience))
	}
	if v.Use != "" {
		options = append(options, jwt.WithClaimValue(useClaim, v.Use))
	}
	return jwt.Validate(tok, options...)
}

package auth

import (
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/require"
)

func buildToken(t *testing.T, mutate func(*jwt.Builder) *jwt.Builder) jwt.Token {
	t.Helper()
	b := jwt.NewBuilder().
		Issuer("roller-shop").
		Audience([]string{"roller-shop-web"}).
		Subject("user-1").
		IssuedAt(testEpoch).
		NotBefore(testEpoch).
		Expiration(testEpoch.Add(time.Minute)).
		Claim(useClaim, UseAccess)
	if mutate != nil {
		b = mutate(b)
	}
	tok, err := b.Build()
	require.NoError(t, err)
	return tok
}

var baseValidator = TokenValidator{
	Issuer:    "roller-shop",
	Audience:  "roller-shop-web",
	ClockSkew: time.Second,
	Algorithm: jwa.HS256,
}

func TestTokenValidator(t *testing.T) {
	cases := []struct {
		name      string
		mutate    func(*jwt.Builder) *jwt.Builder
		validator TokenValidator
		alg       jwa.SignatureAlgorithm
		now       time.Time
		ok        bool
	}{
		{name: "valid", validator: baseValidator.For(UseAccess), ok: true},
		{name: "any use when unset", validator: baseValidator, ok: true},
		{
			name:      "issuer mismatch",
			mutate:    func(b *jwt.Builder) *jwt.Builder { return b.Issuer("other") },
			validator: baseValidator,
		},
		{
			name:      "audience mismatch",
			mutate:    func(b *jwt.Builder) *jwt.Builder { return b.Audience([]string{"other"}) },
			validator: baseValidator,
		},
		{name: "expired", validator: baseValidator, now: testEpoch.Add(2 * time.Minute)},
		{name: "expired within skew", validator: baseValidator, now: testEpoch.Add(time.Minute + 500*time.Millisecond), ok: true},
		{
			name:      "not yet valid",
			mutate:    func(b *jwt.Builder) *jwt.Builder { return b.NotBefore(testEpoch.Add(5 * time.Minute)) },
			validator: baseValidator,
		},
		{name: "algorithm mismatch", validator: baseValidator, alg: jwa.RS256},
		{
			name:      "missing subject",
			mutate:    func(b *jwt.Builder) *jwt.Builder { return b.Subject("") },
			validator: baseValidator,
		},
		{name: "access token used as refresh", validator: baseValidator.For(UseRefresh)},
		{
			name: "refresh without jti",
			mutate: func(b *jwt.Builder) *jwt.Builder {
				return b.Claim(useClaim, UseRefresh)
			},
			validator: baseValidator.For(UseRefresh),
		},
		{
			name: "refresh with jti",
			mutate: func(b *jwt.Builder) *jwt.Builder {
				return b.Claim(useClaim, UseRefresh).JwtID("abc")
			},
			validator: baseValidator.For(UseRefresh),
			ok:        true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tok := buildToken(t, tc.mutate)
			alg := tc.alg
			if alg == "" {
				alg = jwa.HS256
			}
			now := tc.now
			if now.IsZero() {
				now = testEpoch
			}
			err := tc.validator.Validate(tok, alg, now)
			if tc.ok {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}

func TestTokenValidatorNilToken(t *testing.T) {
	require.Error(t, baseValidator.Validate(nil, jwa.HS256, testEpoch))
}

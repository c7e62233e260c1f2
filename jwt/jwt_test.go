package jwt_test

import (
	"testing"
	"time"

	"github.com/fwojciec/fhircrawl"
	fhirjwt "github.com/fwojciec/fhircrawl/jwt"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestExpiry(t *testing.T) {
	t.Parallel()

	t.Run("returns the exp claim", func(t *testing.T) {
		t.Parallel()

		exp := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
		token := signed(t, jwt.MapClaims{"sub": "crawler", "exp": exp.Unix()})

		got, err := fhirjwt.Expiry(token)
		require.NoError(t, err)
		assert.True(t, got.Equal(exp))
	})

	t.Run("returns ENOTFOUND without exp claim", func(t *testing.T) {
		t.Parallel()

		token := signed(t, jwt.MapClaims{"sub": "crawler"})

		_, err := fhirjwt.Expiry(token)
		require.Error(t, err)
		assert.Equal(t, fhircrawl.ENOTFOUND, fhircrawl.ErrorCode(err))
	})

	t.Run("returns EINVALID for opaque tokens", func(t *testing.T) {
		t.Parallel()

		_, err := fhirjwt.Expiry("not-a-jwt")
		require.Error(t, err)
		assert.Equal(t, fhircrawl.EINVALID, fhircrawl.ErrorCode(err))
	})
}

func TestExpiresBefore(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	token := signed(t, jwt.MapClaims{"exp": now.Add(5 * time.Minute).Unix()})

	t.Run("true when the token expires first", func(t *testing.T) {
		t.Parallel()

		exp, ok := fhirjwt.ExpiresBefore(token, now.Add(10*time.Minute))
		assert.True(t, ok)
		assert.True(t, exp.Equal(now.Add(5*time.Minute)))
	})

	t.Run("false when the token outlives the deadline", func(t *testing.T) {
		t.Parallel()

		_, ok := fhirjwt.ExpiresBefore(token, now.Add(time.Minute))
		assert.False(t, ok)
	})

	t.Run("false for opaque tokens", func(t *testing.T) {
		t.Parallel()

		_, ok := fhirjwt.ExpiresBefore("opaque", now)
		assert.False(t, ok)
	})
}

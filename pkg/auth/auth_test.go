package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heather-backend/internal/domain"
)

func testClaims(exp time.Time) Claims {
	return Claims{
		Email:        "ann@example.com",
		UserMetadata: domain.UserMetadata{Name: "Ann", Role: domain.RoleDoctor},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
}

func jwksServer(t *testing.T, kid string, pub *rsa.PublicKey) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_ = json.NewEncoder(w).Encode(JWKS{Keys: []JSONWebKey{{
			Kid: kid,
			Kty: "RSA",
			Alg: "RS256",
			N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		}}})
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestVerifyHS256(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, testClaims(time.Now().Add(time.Hour))).
		SignedString([]byte("project-secret"))
	require.NoError(t, err)

	claims, err := NewVerifier("project-secret", nil).Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, domain.RoleDoctor, claims.UserMetadata.Role)

	_, err = NewVerifier("other-secret", nil).Verify(token)
	assert.Error(t, err)

	_, err = NewVerifier("", nil).Verify(token)
	assert.Error(t, err)
}

func TestVerifyRejectsExpiredAndUnbounded(t *testing.T) {
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, testClaims(time.Now().Add(-time.Minute))).
		SignedString([]byte("s"))
	require.NoError(t, err)
	_, err = NewVerifier("s", nil).Verify(expired)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	c := testClaims(time.Now())
	c.ExpiresAt = nil
	unbounded, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte("s"))
	require.NoError(t, err)
	_, err = NewVerifier("s", nil).Verify(unbounded)
	assert.Error(t, err)
}

func TestVerifyRS256ViaJWKS(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	srv, hits := jwksServer(t, "kid-1", &key.PublicKey)

	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, testClaims(time.Now().Add(time.Hour)))
	tok.Header["kid"] = "kid-1"
	signed, err := tok.SignedString(key)
	require.NoError(t, err)

	v := NewVerifier("", NewProvider(srv.URL))
	for i := 0; i < 3; i++ {
		claims, err := v.Verify(signed)
		require.NoError(t, err)
		assert.Equal(t, "ann@example.com", claims.Email)
	}
	assert.Equal(t, int32(1), hits.Load(), "keys are cached")
}

func TestProviderUnknownKidIsRateLimited(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	srv, hits := jwksServer(t, "kid-1", &key.PublicKey)
	p := NewProvider(srv.URL)

	_, err = p.GetKey(t.Context(), "kid-1")
	require.NoError(t, err)

	_, err = p.GetKey(t.Context(), "rotated")
	assert.ErrorIs(t, err, ErrKeyNotFound)
	assert.Equal(t, int32(1), hits.Load())
}

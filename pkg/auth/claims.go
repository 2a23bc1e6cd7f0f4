package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"heather-backend/internal/domain"
)

// Claims are the Supabase access-token claims the API relies on.
type Claims struct {
	Email        string              `json:"email"`
	UserMetadata domain.UserMetadata `json:"user_metadata"`
	jwt.RegisteredClaims
}

// Verifier checks HS256 tokens against the project JWT secret and RS256
// tokens against the JWKS endpoint.
type Verifier struct {
	secret []byte
	jwks   *Provider
}

// NewVerifier accepts an empty secret or a nil provider; tokens of the
// corresponding algorithm are then rejected.
func NewVerifier(secret string, jwks *Provider) *Verifier {
	v := &Verifier{jwks: jwks}
	if secret != "" {
		v.secret = []byte(secret)
	}
	return v
}

func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, v.keyFunc,
		jwt.WithValidMethods([]string{"HS256", "RS256"}),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("auth: invalid token")
	}
	if claims.ExpiresAt == nil {
		return nil, errors.New("auth: token has no expiry")
	}
	if claims.Subject == "" {
		return nil, errors.New("auth: token has no subject")
	}
	return claims, nil
}

func (v *Verifier) keyFunc(token *jwt.Token) (interface{}, error) {
	switch token.Method.(type) {
	case *jwt.SigningMethodHMAC:
		if v.secret == nil {
			return nil, errors.New("HS256 token received but SUPABASE_JWT_SECRET is not configured")
		}
		return v.secret, nil
	case *jwt.SigningMethodRSA:
		if v.jwks == nil {
			return nil, errors.New("RS256 token received but no JWKS provider is configured")
		}
		return v.jwks.KeyFunc(token)
	default:
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
}

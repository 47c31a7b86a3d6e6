package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// StateTokenTTL bounds how long an OAuth authorization round-trip may take.
const StateTokenTTL = 15 * time.Minute

// StateClaims is the CSRF state passed through the OAuth authorize redirect:
// an HMAC-SHA256 signed token binding the callback to a tenant, with a nonce
// and a hard 15-minute expiry.
type StateClaims struct {
	Tenant string `json:"tenant"`
	jwt.RegisteredClaims
}

// CreateStateToken signs a state token for the tenant's authorization
// request.
func CreateStateToken(tenant string, secret []byte) (string, error) {
	now := time.Now()
	claims := StateClaims{
		Tenant: tenant,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "crewclock",
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(StateTokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// VerifyStateToken validates signature and age and returns the tenant the
// state was issued for. Signature comparison is constant-time inside the
// HMAC verify.
func VerifyStateToken(tokenStr string, secret []byte) (string, error) {
	var claims StateClaims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("invalid state token: %w", err)
	}
	if !token.Valid {
		return "", errors.New("invalid state token")
	}
	if claims.Tenant == "" {
		return "", errors.New("state token missing tenant")
	}
	return claims.Tenant, nil
}

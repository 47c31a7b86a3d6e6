package security

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

var stateSecret = []byte("IxrAjDoa2FqElO7IhrSrUJELhUckePEP")

func TestStateTokenRoundTrip(t *testing.T) {
	token, err := CreateStateToken("acme", stateSecret)
	assert.NoError(t, err)

	tenant, err := VerifyStateToken(token, stateSecret)
	assert.NoError(t, err)
	assert.Equal(t, "acme", tenant)
}

func TestStateTokenNonceUnique(t *testing.T) {
	a, _ := CreateStateToken("acme", stateSecret)
	b, _ := CreateStateToken("acme", stateSecret)
	assert.NotEqual(t, a, b)
}

func TestStateTokenRejectsWrongSecret(t *testing.T) {
	token, err := CreateStateToken("acme", stateSecret)
	assert.NoError(t, err)

	_, err = VerifyStateToken(token, []byte("a-completely-different-secret-00"))
	assert.Error(t, err)
}

func TestStateTokenRejectsMutatedPayload(t *testing.T) {
	token, err := CreateStateToken("acme", stateSecret)
	assert.NoError(t, err)

	parts := strings.Split(token, ".")
	parts[1] = parts[1][:len(parts[1])-2] + "xx"

	_, err = VerifyStateToken(strings.Join(parts, "."), stateSecret)
	assert.Error(t, err)
}

func TestStateTokenExpiry(t *testing.T) {
	// sign an already-expired token directly, same shape CreateStateToken uses
	issued := time.Now().Add(-16 * time.Minute)
	claims := StateClaims{
		Tenant: "acme",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "crewclock",
			ID:        "nonce",
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(StateTokenTTL)),
		},
	}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(stateSecret)
	assert.NoError(t, err)

	_, err = VerifyStateToken(expired, stateSecret)
	assert.Error(t, err)
}

// Package authtest issues RS512 credentials for tests of code behind the
// credential verifier.
package authtest

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// Issuer matches the verifier's default expected issuer.
const Issuer = "auth0"

// KeyPair is a throwaway RSA key with its PEM encoded public half.
type KeyPair struct {
	Private   *rsa.PrivateKey
	PublicPEM string
}

// NewKeyPair generates a key for the duration of a test.
func NewKeyPair(t testing.TB) KeyPair {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	return KeyPair{
		Private:   key,
		PublicPEM: string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})),
	}
}

// Sign signs claims with RS512.
func (k KeyPair) Sign(t testing.TB, claims jwt.MapClaims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodRS512, claims).SignedString(k.Private)
	require.NoError(t, err)
	return token
}

// Token returns a valid header value for subject, expiring in an hour.
func (k KeyPair) Token(t testing.TB, subject string) string {
	t.Helper()

	return "Bearer " + k.Sign(t, jwt.MapClaims{
		"id":  subject,
		"iss": Issuer,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
}

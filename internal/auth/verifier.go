package auth

import (
	"crypto/rsa"
	"errors"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/classroom-service/internal/config"
	"github.com/spec-kit/classroom-service/internal/domain"
	apperrors "github.com/spec-kit/classroom-service/pkg/util/errorutil"
)

const bearerPrefix = "Bearer "

var (
	errKeyNotConfigured = errors.New("rsa public key not configured")
	errKeyUnusable      = errors.New("rsa public key is not a valid PEM encoded key")
)

// Verifier validates RS512 bearer credentials against a configured public key.
type Verifier struct {
	key    *rsa.PublicKey
	keyErr error
	parser *jwt.Parser
}

// NewVerifier parses the configured public key once. A missing or unusable
// key does not fail construction; every Verify call reports it instead.
func NewVerifier(cfg config.AuthConfig) *Verifier {
	v := &Verifier{
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodRS512.Alg()}),
			jwt.WithIssuer(cfg.Issuer),
			jwt.WithLeeway(cfg.Leeway()),
		),
	}

	if cfg.PublicKeyPEM == "" {
		v.keyErr = errKeyNotConfigured
		return v
	}
	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.PublicKeyPEM))
	if err != nil {
		v.keyErr = errKeyUnusable
		return v
	}
	v.key = key
	return v
}

// KeyConfigured reports whether tokens can be verified at all.
func (v *Verifier) KeyConfigured() bool {
	return v.keyErr == nil
}

// Verify checks the Authorization header value and returns its claims.
// The first seven characters are dropped whatever they are.
func (v *Verifier) Verify(header string) (domain.VerifiedClaim, error) {
	token := ""
	if len(header) > len(bearerPrefix) {
		token = header[len(bearerPrefix):]
	}
	if token == "" {
		return domain.VerifiedClaim{}, apperrors.NewUnauthorized("Missing token")
	}
	if v.keyErr != nil {
		return domain.VerifiedClaim{}, apperrors.NewInternal(v.keyErr.Error(), v.keyErr)
	}

	claims := jwt.MapClaims{}
	if _, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return v.key, nil
	}); err != nil {
		return domain.VerifiedClaim{}, apperrors.NewUnauthorized(err.Error())
	}

	subject, ok := subjectOf(claims)
	if !ok {
		return domain.VerifiedClaim{}, apperrors.NewUnauthorized("token has no subject")
	}
	return domain.VerifiedClaim{Subject: subject, Claims: claims}, nil
}

func subjectOf(claims jwt.MapClaims) (string, bool) {
	for _, key := range []string{"id", "sub"} {
		if raw, ok := claims[key]; ok {
			subject, ok := raw.(string)
			return subject, ok && subject != ""
		}
	}
	return "", false
}

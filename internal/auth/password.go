package auth

import (
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Credentials is a stored password: a bcrypt hash over salt+password.
type Credentials struct {
	Hash string
	Salt string
}

// HashPassword salts and hashes a plaintext password. Only provisioning
// tools write credentials; the service itself never does.
func HashPassword(password string, cost int) (Credentials, error) {
	salt := uuid.NewString()
	hashed, err := bcrypt.GenerateFromPassword([]byte(salt+password), cost)
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{Hash: string(hashed), Salt: salt}, nil
}

// Matches reports whether plain is the password behind c.
func (c Credentials) Matches(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(c.Hash), []byte(c.Salt+plain)) == nil
}

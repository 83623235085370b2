package auth

import (
	"github.com/udj/udjserver/internal/model"
)

// MaxPasswordLength caps the plaintext handed to the hash functions. Longer
// passwords never verify.
const MaxPasswordLength = 4096

// PasswordVerifier checks plaintext passwords against a user's stored hash.
type PasswordVerifier struct{}

// NewPasswordVerifier returns a verifier for argon2id and bcrypt hashes.
func NewPasswordVerifier() *PasswordVerifier {
	return &PasswordVerifier{}
}

// Verify reports whether plaintext matches the user's password hash.
func (v *PasswordVerifier) Verify(user *model.User, plaintext string) (bool, error) {
	if user == nil || len(plaintext) > MaxPasswordLength {
		return false, nil
	}
	return VerifyPassword(plaintext, user.PasswordHash)
}

// Package auth hashes passwords, issues and verifies signed tokens, and resolves
// bearer tokens to users.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the bcrypt input ceiling.
const MaxPasswordBytes = 72

// ErrInvalidPassword is returned for passwords the hasher refuses.
var ErrInvalidPassword = errors.New("invalid password")

// PasswordError describes a password policy violation in user-facing terms.
type PasswordError struct {
	msg string
}

func (e *PasswordError) Error() string { return e.msg }
func (e *PasswordError) Unwrap() error { return ErrInvalidPassword }

// ValidatePassword checks the password policy without hashing.
func ValidatePassword(password string) error {
	if password == "" {
		return &PasswordError{msg: "Password cannot be empty"}
	}
	if len(password) > MaxPasswordBytes {
		return &PasswordError{msg: fmt.Sprintf("Password is too long. Maximum length is %d bytes.", MaxPasswordBytes)}
	}
	return nil
}

// HashPassword returns a bcrypt digest of password. The digest carries its own
// salt and cost.
func HashPassword(password string) (string, error) {
	if err := ValidatePassword(password); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash. Only the first
// MaxPasswordBytes bytes of password are compared, as bcrypt does at hash time.
func CheckPassword(password, hash string) bool {
	candidate := []byte(password)
	if len(candidate) > MaxPasswordBytes {
		candidate = candidate[:MaxPasswordBytes]
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), candidate) == nil
}

package security

import (
	"crypto/subtle"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var ErrPasswordMismatch = errors.New("passwords do not match")

// HashPassword hashes a plain text password with bcrypt.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)

	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// CheckPassword compares a bcrypt hash with a plaintext password.
func CheckPassword(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}

// ConfirmPassword checks the signup confirmation field against the password.
func ConfirmPassword(password, confirmation string) error {
	if subtle.ConstantTimeCompare([]byte(password), []byte(confirmation)) != 1 {
		return ErrPasswordMismatch
	}
	return nil
}

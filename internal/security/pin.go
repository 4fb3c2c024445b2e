package security

import (
	"errors"
	"fmt"
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

var pinPattern = regexp.MustCompile(`^\d{4}$`)

// ErrPINFormat is returned when a PIN is not exactly four digits
var ErrPINFormat = errors.New("PIN must be exactly 4 digits")

// ValidatePIN checks the PIN format
func ValidatePIN(pin string) error {
	if !pinPattern.MatchString(pin) {
		return ErrPINFormat
	}
	return nil
}

// HashPIN validates and hashes a PIN with bcrypt
func HashPIN(pin string) (string, error) {
	if err := ValidatePIN(pin); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash PIN: %w", err)
	}
	return string(hash), nil
}

// CheckPIN reports whether pin matches the stored hash
func CheckPIN(hash, pin string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) == nil
}

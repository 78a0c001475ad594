package auth

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// specialChars are the characters the password policy accepts as "special".
const specialChars = `!@#$%^&*()_+-=[]{}|;:,.<>?`

// HashPassword hashes a plaintext password with bcrypt at the default cost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether the plaintext password matches the bcrypt hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidatePasswordStrength enforces the platform password policy:
// at least 8 characters with an upper-case letter, a lower-case letter,
// a digit and a special character.
//
// The returned error messages are client-facing.
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("Password must be at least 8 characters long")
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(specialChars, r):
			hasSpecial = true
		}
	}

	switch {
	case !hasUpper:
		return fmt.Errorf("Password must contain an uppercase letter")
	case !hasLower:
		return fmt.Errorf("Password must contain a lowercase letter")
	case !hasDigit:
		return fmt.Errorf("Password must contain a digit")
	case !hasSpecial:
		return fmt.Errorf("Password must contain a special character")
	}

	return nil
}

// Package utils holds small helpers shared across features; currently just
// bcrypt password handling for the auth flows.
package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword derives a bcrypt hash from a plain password at the default
// cost. The hash embeds its own salt and cost, so it can be stored as-is.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether plain matches the stored bcrypt hash.
func CheckPassword(plain, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}

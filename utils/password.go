package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword returns the bcrypt hash of the password. The salt is
// randomized, so hashing the same plaintext twice yields different digests;
// both verify.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a bcrypt digest with a plaintext candidate.
// A malformed digest simply fails the comparison.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

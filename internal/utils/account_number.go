package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

// GenerateSecureRandomString generates a cryptographically secure random
// string of the specified byte length, then hex encodes it.
func GenerateSecureRandomString(lengthInBytes int) (string, error) {
	if lengthInBytes <= 0 {
		return "", fmt.Errorf("lengthInBytes must be positive")
	}
	b := make([]byte, lengthInBytes)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GenerateAccountNumber produces a random numeric account number of the
// given digit count. The first digit is never zero so the number keeps its
// length when displayed.
func GenerateAccountNumber(digits int) (string, error) {
	if digits <= 1 {
		return "", fmt.Errorf("digits must be greater than one")
	}
	first, err := rand.Int(rand.Reader, big.NewInt(9))
	if err != nil {
		return "", fmt.Errorf("failed to read random digit: %w", err)
	}
	out := make([]byte, 0, digits)
	out = append(out, byte('1'+first.Int64()))
	for i := 1; i < digits; i++ {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("failed to read random digit: %w", err)
		}
		out = append(out, byte('0'+d.Int64()))
	}
	return string(out), nil
}

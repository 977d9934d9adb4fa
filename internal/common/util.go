package common

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
	"unicode"
)

// MakeRandHexString returns 2*size hex characters from crypto/rand.
func MakeRandHexString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// RandomOTP draws a uniform code in [0, MaxOTP).
func RandomOTP() (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(MaxOTP))
	if err != nil {
		return 0, err
	}
	return int(n.Int64()), nil
}

// IsAlphanumeric reports whether s is non-empty and made only of letters and digits.
func IsAlphanumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

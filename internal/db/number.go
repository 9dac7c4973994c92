package db

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// firstNumber seeds the sequence; orders count up from it as fixed-width
// decimal strings.
const firstNumber = "000000000000"

const permalinkBytes = 20

// incrementNumber returns the next order number after current, incrementing
// it as a decimal string. The fixed width is preserved until the sequence
// outgrows it, at which point a digit is prepended.
func incrementNumber(current string) string {
	digits := []byte(current)
	for i := len(digits) - 1; i >= 0; i-- {
		if digits[i] < '9' {
			digits[i]++
			return string(digits)
		}
		digits[i] = '0'
	}
	return "1" + string(digits)
}

// newPermalink returns an unguessable token for customer-facing order URLs.
func newPermalink() (string, error) {
	buf := make([]byte, permalinkBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate permalink: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

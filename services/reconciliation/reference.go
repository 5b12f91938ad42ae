package reconciliation

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
)

// referenceLength of 8 base32 characters gives 32^8 (~1.1e12) combinations,
// comfortably above the collision threshold for the full settlement history.
const referenceLength = 8

// GenerateReference produces a short, human-readable payment reference code.
// Generation is pure; the caller is responsible for checking the code
// against the store and regenerating on collision.
func GenerateReference() (string, error) {
	numBytes := (referenceLength*5 + 7) / 8
	randomBytes := make([]byte, numBytes)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	code := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(randomBytes)
	if len(code) > referenceLength {
		code = code[:referenceLength]
	}
	return code, nil
}

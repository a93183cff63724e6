package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sha256Hex is used for refresh-token fingerprints so no usable credential is
// stored at rest.
func Sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// NormalizeEmail trims and case-folds before any comparison or storage, so the
// unique-email invariant holds regardless of input casing.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

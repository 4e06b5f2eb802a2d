package textutil

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint is the hex digest of a narration text. The zero value means no
// fingerprint is available.
type Fingerprint string

// FingerprintLength is the number of hex characters in a Fingerprint.
const FingerprintLength = sha256.Size * 2

// NewFingerprint hashes the provided narration text. It returns false when the
// text is empty.
func NewFingerprint(text string) (Fingerprint, bool) {
	if text == "" {
		return "", false
	}
	sum := sha256.Sum256([]byte(text))
	return Fingerprint(hex.EncodeToString(sum[:])), true
}

// FingerprintOf is NewFingerprint without the presence flag.
func FingerprintOf(text string) Fingerprint {
	fp, _ := NewFingerprint(text)
	return fp
}

// IsZero reports whether the fingerprint is absent.
func (f Fingerprint) IsZero() bool {
	return f == ""
}

// String returns the hex digest.
func (f Fingerprint) String() string {
	return string(f)
}

// Short returns the first eight characters for log output.
func (f Fingerprint) Short() string {
	if len(f) <= 8 {
		return string(f)
	}
	return string(f[:8])
}

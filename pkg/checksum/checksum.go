// Package checksum provides SHA-256 checksum utilities for artifact integrity
// verification. Storage backends compute a checksum for every uploaded model
// artifact and store it alongside the object, so a downloaded artifact can be
// verified against what was originally stored. Keeping the hashing in one
// package keeps the behaviour identical across all backends.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

// SHA256 calculates the SHA-256 checksum of data from a reader.
func SHA256(reader io.Reader) (string, error) {
	hasher := sha256.New()

	if _, err := io.Copy(hasher, reader); err != nil {
		return "", fmt.Errorf("failed to calculate checksum: %w", err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// Verify reports whether the checksum of data from the reader matches the
// expected checksum.
func Verify(reader io.Reader, expected string) (bool, error) {
	actual, err := SHA256(reader)
	if err != nil {
		return false, err
	}
	return actual == expected, nil
}

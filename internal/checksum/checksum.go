// Package checksum computes content digests for raw bytes and stored documents.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Document returns the digest of v's JSON encoding. encoding/json sorts map
// keys, so two maps with equal content always hash the same.
func Document(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return Sum(raw), nil
}

package config

import (
	"crypto/sha256"
	"encoding/hex"
)

// sha256Hex hashes s and returns its hex digest, used both for
// UserHash and the Ratings Store's anonymous user_hash column.
func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

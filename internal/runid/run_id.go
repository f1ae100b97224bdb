package runid

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// ComputeRunID computes a deterministic run_id using SHA256.
// Formula: SHA256(target|started_at|fingerprint)
// Returns hex-encoded hash (64 characters).
func ComputeRunID(targetAddress string, startedAt int64, fingerprint string) string {
	data := fmt.Sprintf("%s|%d|%s", targetAddress, startedAt, fingerprint)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// Fingerprint builds the configuration digest fed into ComputeRunID:
// the filter and selector descriptions joined in insertion order.
func Fingerprint(parts ...string) string {
	return strings.Join(parts, "|")
}

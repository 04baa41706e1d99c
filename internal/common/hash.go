package common

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint hashes the parts in order with a separator that cannot occur in
// printable keys, so ("ab", "c") and ("a", "bc") differ.
func Fingerprint(parts ...string) string {
	h := sha256.New()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte{0x1f})
		}
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

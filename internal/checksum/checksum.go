package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// SumAll returns a single digest over a set of named blobs, independent of
// map iteration order. Used to detect whether a rebuild would be a no-op.
func SumAll(blobs map[string][]byte) string {
	names := make([]string, 0, len(blobs))
	for name := range blobs {
		names = append(names, name)
	}
	sort.Strings(names)

	h := sha256.New()
	for _, name := range names {
		h.Write([]byte(name))
		h.Write([]byte{0})
		h.Write(blobs[name])
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

package prompt

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

func computeDigest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Digest identifies the exact instruction set a run used. Nil templates are
// skipped; with none left the result is empty.
func Digest(ts ...*Template) string {
	var parts []string
	for _, t := range ts {
		if t != nil {
			parts = append(parts, t.hash)
		}
	}
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}
	return computeDigest([]byte(strings.Join(parts, "\n")))
}

package textutil

import (
	"crypto/sha256"
	"encoding/hex"
	"unicode/utf8"
)

// Hash computes a SHA-256 hex hash of a string for cache keys.
func Hash(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

// Truncate shortens a string to maxLen runes, appending "..." if truncated.
func Truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen]) + "..."
}

// CharCount sums the rune lengths of all strings.
func CharCount(strs []string) int {
	n := 0
	for _, s := range strs {
		n += utf8.RuneCountInString(s)
	}
	return n
}

// BatchCount returns how many batches of size batchSize cover total items.
func BatchCount(total, batchSize int) int {
	if batchSize <= 0 {
		batchSize = 1
	}
	return (total + batchSize - 1) / batchSize
}

package ir

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// HashBytesSHA256 computes the SHA-256 hash of data as a hex string.
// Used for the book-level SourceHash field, where external tooling may
// expect SHA-256 specifically.
func HashBytesSHA256(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// ContentHash8 returns the first 8 hex digits of the BLAKE3 hash of
// data. Used by DataURL and ImageRescale to derive deterministic,
// deduplicating resource ids (e.g. "resources/data-<hash8>.png");
// BLAKE3 is used here rather than SHA-256 because this hash is computed
// per-resource inside the parallel worker pool and BLAKE3 is
// substantially cheaper at that volume.
func ContentHash8(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])[:8]
}

// Package types defines the primitive value types shared across the
// ledger: hashes, addresses, and amounts.
package types

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// HashSize is the length in bytes of a SHA-256 digest.
const HashSize = sha256.Size

// Hash is a SHA-256 digest. Every consensus-critical hash in TribeChain
// (blocks, transactions, the Merkle tree) uses this type.
type Hash [HashSize]byte

// ZeroHash is the all-zero hash, used as the PrevHash of the genesis block.
var ZeroHash = Hash{}

// Sum computes the SHA-256 hash of data.
func Sum(data []byte) Hash {
	return sha256.Sum256(data)
}

// SumConcat hashes the concatenation of two hashes' lowercase hex
// strings (not their raw bytes), per the Merkle construction in
// spec.md §4.A: "pair adjacent hashes and SHA-256 their concatenated
// hex strings".
func SumConcat(a, b Hash) Hash {
	buf := make([]byte, 0, 2*2*HashSize)
	buf = append(buf, a.String()...)
	buf = append(buf, b.String()...)
	return Sum(buf)
}

// IsZero reports whether h is the all-zero hash.
func (h Hash) IsZero() bool {
	return h == ZeroHash
}

// String returns the lowercase hex encoding of h.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Bytes returns a copy of the underlying 32 bytes.
func (h Hash) Bytes() []byte {
	out := make([]byte, HashSize)
	copy(out, h[:])
	return out
}

// MarshalJSON encodes the hash as a hex string.
func (h Hash) MarshalJSON() ([]byte, error) {
	return []byte(`"` + h.String() + `"`), nil
}

// UnmarshalJSON decodes a hash from a hex string.
func (h *Hash) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("hash must be a JSON string")
	}
	parsed, err := ParseHash(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// ParseHash decodes a hex-encoded hash.
func ParseHash(s string) (Hash, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Hash{}, fmt.Errorf("decode hash: %w", err)
	}
	if len(b) != HashSize {
		return Hash{}, fmt.Errorf("hash must be %d bytes, got %d", HashSize, len(b))
	}
	var h Hash
	copy(h[:], b)
	return h, nil
}

// HashFromBytes copies b into a Hash. b must be exactly HashSize bytes.
func HashFromBytes(b []byte) (Hash, error) {
	if len(b) != HashSize {
		return Hash{}, fmt.Errorf("hash must be %d bytes, got %d", HashSize, len(b))
	}
	var h Hash
	copy(h[:], b)
	return h, nil
}

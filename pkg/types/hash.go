// Package types defines the core primitive types shared across the chain:
// hashes, public keys, and arbitrary-precision unsigned integers.
package types

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
)

// Hash is a hex-encoded digest. The empty string is a sentinel meaning
// "no block" — used as the parent of genesis and as the root key of
// cumulative difficulty.
type Hash string

// IsEmpty reports whether h is the "before genesis" sentinel.
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Bytes decodes the hex digest to raw bytes. The empty hash decodes to nil.
func (h Hash) Bytes() ([]byte, error) {
	if h == "" {
		return nil, nil
	}
	b, err := hex.DecodeString(string(h))
	if err != nil {
		return nil, fmt.Errorf("decode hash %q: %w", string(h), err)
	}
	return b, nil
}

// BigInt interprets the digest as a big-endian unsigned integer.
// The empty hash decodes to zero.
func (h Hash) BigInt() (*big.Int, error) {
	b, err := h.Bytes()
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(b), nil
}

// HashBytes wraps a raw digest as a Hash.
func HashBytes(b []byte) Hash {
	return Hash(hex.EncodeToString(b))
}

// String implements fmt.Stringer.
func (h Hash) String() string {
	return string(h)
}

// MarshalJSON encodes the hash as a JSON string (possibly empty).
func (h Hash) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(h))
}

// UnmarshalJSON decodes a JSON string into a hash.
func (h *Hash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*h = Hash(s)
	return nil
}

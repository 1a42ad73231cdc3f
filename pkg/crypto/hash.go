// Package crypto provides the cryptographic primitives used by the chain:
// SHA-256 hashing and secp256k1 ECDSA signing/verification.
package crypto

import (
	"github.com/accountchain/node/pkg/types"
	"github.com/minio/sha256-simd"
)

// Hash computes a SHA-256 hash of the input data.
func Hash(data []byte) types.Hash {
	sum := sha256.Sum256(data)
	return types.HashBytes(sum[:])
}

// HashConcat hashes the concatenation of the textual (hex) form of two
// hashes. Used for building merkle tree parent nodes: a node's digest is
// SHA-256(left.String() + right.String()), not a byte-level concatenation
// of the decoded digests.
func HashConcat(a, b types.Hash) types.Hash {
	return Hash([]byte(a.String() + b.String()))
}

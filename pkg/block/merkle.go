package block

import (
	"github.com/accountchain/node/pkg/crypto"
	"github.com/accountchain/node/pkg/types"
)

// EmptyMerkleRoot is the merkle root reported for a block with no
// transactions. It is distinct from types.Hash's "" empty-sentinel, which
// means "no parent block" rather than "no transactions".
const EmptyMerkleRoot types.Hash = "empty"

// BuildMerkle computes the merkle root over a list of transaction
// fingerprints.
//
// Algorithm:
//   - 0 fingerprints: EmptyMerkleRoot
//   - 1 fingerprint: that fingerprint, unchanged
//   - otherwise: pairwise-combine by hashing the textual concatenation of
//     each pair, duplicating the last element when the level has an odd
//     count, repeating until one hash remains.
func BuildMerkle(fingerprints []types.Hash) types.Hash {
	if len(fingerprints) == 0 {
		return EmptyMerkleRoot
	}
	if len(fingerprints) == 1 {
		return fingerprints[0]
	}

	level := make([]types.Hash, len(fingerprints))
	copy(level, fingerprints)

	for len(level) > 1 {
		if len(level)%2 != 0 {
			level = append(level, level[len(level)-1])
		}
		next := make([]types.Hash, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next[i/2] = crypto.HashConcat(level[i], level[i+1])
		}
		level = next
	}

	return level[0]
}

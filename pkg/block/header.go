package block

import (
	"strconv"

	"github.com/accountchain/node/pkg/crypto"
	"github.com/accountchain/node/pkg/types"
)

// Header contains block metadata. Difficulty is stored on the header for
// bookkeeping but is deliberately excluded from the digest (see Hash) —
// the digest commits to the proof-of-work input, not to the target it was
// mined against.
type Header struct {
	Nonce      uint64     `json:"nonce"`
	Timestamp  uint64     `json:"timestamp"`
	PrevHash   types.Hash `json:"prev_hash"`
	Difficulty types.UInt `json:"difficulty"`
	MerkleRoot types.Hash `json:"merkle_root"`
}

// Hash computes the header digest used both as the block's identity and as
// the value compared against the difficulty target during mining.
// Digest = SHA-256(nonce_decimal || timestamp_decimal || prev_hash || merkle_root).
func (h *Header) Hash() types.Hash {
	buf := make([]byte, 0, 64)
	buf = strconv.AppendUint(buf, h.Nonce, 10)
	buf = strconv.AppendUint(buf, h.Timestamp, 10)
	buf = append(buf, []byte(h.PrevHash.String())...)
	buf = append(buf, []byte(h.MerkleRoot.String())...)
	return crypto.Hash(buf)
}

// Package block defines the block type, its header digest, merkle tree
// construction, and structural validation.
package block

import (
	"github.com/accountchain/node/pkg/tx"
	"github.com/accountchain/node/pkg/types"
)

// Block is a header plus the ordered list of transactions it carries. The
// block does not name its own miner — the chain records miner attribution
// out of band (minerOf), keyed by the block's hash, since the header
// itself carries no miner field in this model.
type Block struct {
	Header       *Header          `json:"header"`
	Transactions []*tx.Transaction `json:"transactions"`
}

// NewBlock creates a block from a header and transaction list.
func NewBlock(header *Header, txs []*tx.Transaction) *Block {
	return &Block{Header: header, Transactions: txs}
}

// Hash returns the block's header digest.
func (b *Block) Hash() types.Hash {
	if b.Header == nil {
		return ""
	}
	return b.Header.Hash()
}

// Fingerprints returns the fingerprint of every transaction in the block,
// in order, for merkle root computation.
func (b *Block) Fingerprints() []types.Hash {
	out := make([]types.Hash, len(b.Transactions))
	for i, t := range b.Transactions {
		out[i] = t.Fingerprint()
	}
	return out
}

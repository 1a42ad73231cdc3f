package block

import (
	"errors"
	"fmt"

	"github.com/accountchain/node/config"
)

// Validation errors.
var (
	ErrNilHeader      = errors.New("block has nil header")
	ErrBadMerkleRoot  = errors.New("merkle root mismatch")
	ErrZeroTimestamp  = errors.New("block timestamp is zero")
	ErrTooManyTxs     = errors.New("too many transactions in block")
	ErrNoTransactions = errors.New("block has no transactions")
)

// Validate checks block structure: a present header, a non-zero
// timestamp, a non-empty transaction list, the transaction count against
// the configured per-block cap, and that the header's merkle root
// matches the transactions carried. It does not check proof-of-work or
// any account state — those are the chain's job, since only the chain
// knows the current difficulty and account balances.
func (b *Block) Validate() error {
	if b.Header == nil {
		return ErrNilHeader
	}
	if b.Header.Timestamp == 0 {
		return ErrZeroTimestamp
	}
	if len(b.Transactions) == 0 {
		return ErrNoTransactions
	}
	if len(b.Transactions) > config.MaxBlockTxs {
		return fmt.Errorf("%w: %d txs, max %d", ErrTooManyTxs, len(b.Transactions), config.MaxBlockTxs)
	}

	expectedRoot := BuildMerkle(b.Fingerprints())
	if b.Header.MerkleRoot != expectedRoot {
		return fmt.Errorf("%w: header=%s computed=%s", ErrBadMerkleRoot, b.Header.MerkleRoot, expectedRoot)
	}

	for i, t := range b.Transactions {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("tx %d: %w", i, err)
		}
	}

	return nil
}

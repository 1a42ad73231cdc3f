package tx

import (
	"fmt"

	"github.com/accountchain/node/pkg/crypto"
	"github.com/accountchain/node/pkg/types"
)

// Builder constructs and signs a Transaction.
type Builder struct {
	tx *Transaction
}

// NewBuilder starts building a transaction from the given sender key to
// recipient, for amount with the given fee and nonce.
func NewBuilder(from types.PubKey, to types.PubKey, amount, fee, nonce types.UInt) *Builder {
	return &Builder{
		tx: &Transaction{
			From:   from,
			To:     to,
			Amount: amount,
			Fee:    fee,
			Nonce:  nonce,
		},
	}
}

// Sign signs the transaction with key. key's public key must match the
// transaction's From field.
func (b *Builder) Sign(key *crypto.PrivateKey) error {
	pub, err := types.PubKeyFromBytes(key.PublicKey())
	if err != nil {
		return fmt.Errorf("builder sign: %w", err)
	}
	if pub != b.tx.From {
		return fmt.Errorf("builder sign: key does not match From account")
	}
	return b.tx.Sign(key)
}

// Build returns the constructed transaction. Call tx.Validate() separately.
func (b *Builder) Build() *Transaction {
	return b.tx
}

package block

import (
	"errors"
	"testing"

	"github.com/accountchain/node/config"
	"github.com/accountchain/node/pkg/crypto"
	"github.com/accountchain/node/pkg/tx"
	"github.com/accountchain/node/pkg/types"
)

func signedTx(t *testing.T, nonce uint64) *tx.Transaction {
	t.Helper()
	from, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	toKey, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	fromPub, err := types.PubKeyFromBytes(from.PublicKey())
	if err != nil {
		t.Fatalf("PubKeyFromBytes: %v", err)
	}
	toPub, err := types.PubKeyFromBytes(toKey.PublicKey())
	if err != nil {
		t.Fatalf("PubKeyFromBytes: %v", err)
	}
	b := tx.NewBuilder(fromPub, toPub, types.NewUInt(1000), types.NewUInt(1), types.NewUInt(nonce))
	if err := b.Sign(from); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	return b.Build()
}

func validBlock(t *testing.T) *Block {
	t.Helper()

	transaction := signedTx(t, 0)
	merkleRoot := BuildMerkle([]types.Hash{transaction.Fingerprint()})

	header := &Header{
		Nonce:      0,
		Timestamp:  1700000000,
		PrevHash:   crypto.Hash([]byte("parent")),
		Difficulty: types.NewUInt(1),
		MerkleRoot: merkleRoot,
	}

	return NewBlock(header, []*tx.Transaction{transaction})
}

func TestBlock_Validate_Valid(t *testing.T) {
	blk := validBlock(t)
	if err := blk.Validate(); err != nil {
		t.Errorf("valid block should pass: %v", err)
	}
}

func TestBlock_Validate_NilHeader(t *testing.T) {
	blk := &Block{Header: nil}
	err := blk.Validate()
	if !errors.Is(err, ErrNilHeader) {
		t.Errorf("expected ErrNilHeader, got: %v", err)
	}
}

func TestBlock_Validate_ZeroTimestamp(t *testing.T) {
	blk := validBlock(t)
	blk.Header.Timestamp = 0
	err := blk.Validate()
	if !errors.Is(err, ErrZeroTimestamp) {
		t.Errorf("expected ErrZeroTimestamp, got: %v", err)
	}
}

func TestBlock_Validate_NoTransactions(t *testing.T) {
	blk := &Block{
		Header: &Header{
			Timestamp:  1700000000,
			MerkleRoot: EmptyMerkleRoot,
		},
		Transactions: nil,
	}
	err := blk.Validate()
	if !errors.Is(err, ErrNoTransactions) {
		t.Errorf("expected ErrNoTransactions, got: %v", err)
	}
}

func TestBlock_Validate_BadMerkleRoot(t *testing.T) {
	blk := validBlock(t)
	blk.Header.MerkleRoot = crypto.Hash([]byte("wrong"))
	err := blk.Validate()
	if !errors.Is(err, ErrBadMerkleRoot) {
		t.Errorf("expected ErrBadMerkleRoot, got: %v", err)
	}
}

func TestBlock_Validate_InvalidTransaction(t *testing.T) {
	transaction := signedTx(t, 0)
	transaction.Signature = nil // Invalidate it.

	merkle := BuildMerkle([]types.Hash{transaction.Fingerprint()})
	blk := NewBlock(&Header{
		Timestamp:  1700000000,
		MerkleRoot: merkle,
	}, []*tx.Transaction{transaction})

	if err := blk.Validate(); err == nil {
		t.Error("block with invalid tx should fail validation")
	}
}

func TestBlock_Validate_MultipleTxs(t *testing.T) {
	t1 := signedTx(t, 0)
	t2 := signedTx(t, 1)

	txs := []*tx.Transaction{t1, t2}
	merkle := BuildMerkle([]types.Hash{t1.Fingerprint(), t2.Fingerprint()})

	blk := NewBlock(&Header{
		Timestamp:  1700000000,
		MerkleRoot: merkle,
	}, txs)

	if err := blk.Validate(); err != nil {
		t.Errorf("multi-tx block should validate: %v", err)
	}
}

func TestBlock_Validate_TooManyTxs(t *testing.T) {
	txs := make([]*tx.Transaction, 0, config.MaxBlockTxs+1)
	for i := 0; i < config.MaxBlockTxs+1; i++ {
		txs = append(txs, signedTx(t, uint64(i)))
	}

	hashes := make([]types.Hash, len(txs))
	for i, transaction := range txs {
		hashes[i] = transaction.Fingerprint()
	}
	merkle := BuildMerkle(hashes)

	blk := NewBlock(&Header{
		Timestamp:  1700000000,
		MerkleRoot: merkle,
	}, txs)

	err := blk.Validate()
	if !errors.Is(err, ErrTooManyTxs) {
		t.Errorf("expected ErrTooManyTxs, got: %v", err)
	}
}

func TestBlock_Hash(t *testing.T) {
	blk := validBlock(t)
	h := blk.Hash()
	if h == "" {
		t.Error("Block.Hash() should not be empty")
	}

	blk2 := &Block{}
	if blk2.Hash() != "" {
		t.Error("Block.Hash() with nil header should be the empty sentinel")
	}
}

func TestHeader_Hash_Deterministic(t *testing.T) {
	h := &Header{
		Nonce:     1,
		PrevHash:  crypto.Hash([]byte("parent")),
		Timestamp: 1700000000,
	}

	h1 := h.Hash()
	h2 := h.Hash()
	if h1 != h2 {
		t.Error("Header.Hash() should be deterministic")
	}
	if h1 == "" {
		t.Error("Header.Hash() should not be empty")
	}
}

func TestHeader_Hash_IgnoresDifficulty(t *testing.T) {
	h := &Header{
		Nonce:      1,
		PrevHash:   crypto.Hash([]byte("parent")),
		Timestamp:  1700000000,
		Difficulty: types.NewUInt(1),
	}
	h1 := h.Hash()

	h.Difficulty = types.NewUInt(999)
	h2 := h.Hash()

	if h1 != h2 {
		t.Error("Header.Hash() should not change when Difficulty changes")
	}
}

func TestHeader_Hash_ChangesWithNonce(t *testing.T) {
	h := &Header{
		PrevHash:  crypto.Hash([]byte("parent")),
		Timestamp: 1700000000,
	}
	h1 := h.Hash()
	h.Nonce = 1
	h2 := h.Hash()

	if h1 == h2 {
		t.Error("Header.Hash() should change with nonce")
	}
}

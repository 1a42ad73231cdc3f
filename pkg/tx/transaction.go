// Package tx defines the account-model transaction type: a transfer of
// value from one public key to another, ordered by a per-sender nonce.
package tx

import (
	"github.com/accountchain/node/pkg/crypto"
	"github.com/accountchain/node/pkg/types"
)

// Transaction moves Amount (plus Fee, paid to whichever account mines the
// block) from From to To. Nonce must equal the sender account's current
// nonce for the transaction to be admitted.
type Transaction struct {
	From      types.PubKey `json:"from"`
	To        types.PubKey `json:"to"`
	Amount    types.UInt   `json:"amount"`
	Fee       types.UInt   `json:"fee"`
	Nonce     types.UInt   `json:"nonce"`
	Signature []byte       `json:"signature,omitempty"`
}

// Fingerprint computes the transaction's signing/identity hash:
// SHA-256(from || to || amount_dec || fee_dec), where from/to are the raw
// compressed SEC1 public key bytes. The signature and nonce are excluded —
// nonce is bound to the sender's account state at apply time, not to the
// transaction's identity, matching the reference implementation's
// convert_transaction_to_string.
func (t *Transaction) Fingerprint() types.Hash {
	buf := make([]byte, 0, types.PubKeySize*2+32)
	buf = append(buf, t.From.Bytes()...)
	buf = append(buf, t.To.Bytes()...)
	buf = append(buf, []byte(t.Amount.String())...)
	buf = append(buf, []byte(t.Fee.String())...)
	return crypto.Hash(buf)
}

// Sign computes the fingerprint and signs it with key, storing the
// signature on the transaction.
func (t *Transaction) Sign(key *crypto.PrivateKey) error {
	fp := t.Fingerprint()
	fpBytes, err := fp.Bytes()
	if err != nil {
		return err
	}
	sig, err := key.Sign(fpBytes)
	if err != nil {
		return err
	}
	t.Signature = sig
	return nil
}

// VerifySignature checks the transaction's signature against its From
// public key.
func (t *Transaction) VerifySignature() error {
	fp := t.Fingerprint()
	fpBytes, err := fp.Bytes()
	if err != nil {
		return err
	}
	if !crypto.VerifySignature(fpBytes, t.Signature, t.From.Bytes()) {
		return ErrInvalidSig
	}
	return nil
}

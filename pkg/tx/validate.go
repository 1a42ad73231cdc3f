package tx

import (
	"errors"
	"fmt"
)

// Validation errors.
var (
	ErrMissingSignature = errors.New("transaction missing signature")
	ErrInvalidSig       = errors.New("invalid signature")
	ErrZeroAmount       = errors.New("transaction amount is zero")
	ErrSelfTransfer     = errors.New("transaction sender and recipient are the same account")
)

// Validate checks transaction structure: well-formed keys, a positive
// amount, a present signature, and that it is internally consistent to
// verify. It does not consult any account state — nonce and balance checks
// belong to the ledger and mempool, which have that state.
func (t *Transaction) Validate() error {
	if t.From.IsZero() {
		return fmt.Errorf("%w: from", ErrInvalidSig)
	}
	if t.To.IsZero() {
		return fmt.Errorf("%w: to", ErrInvalidSig)
	}
	if t.From == t.To {
		return ErrSelfTransfer
	}
	if t.Amount.IsZero() {
		return ErrZeroAmount
	}
	if len(t.Signature) == 0 {
		return ErrMissingSignature
	}
	if err := t.VerifySignature(); err != nil {
		return err
	}
	return nil
}

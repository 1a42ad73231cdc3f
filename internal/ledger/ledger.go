// Package ledger holds the account-model balance sheet: a map from
// compressed public key to {balance, nonce}, mutated only by applying or
// reverting a block's transactions.
package ledger

import (
	"errors"
	"fmt"
	"sync"

	"github.com/accountchain/node/pkg/block"
	"github.com/accountchain/node/pkg/types"
)

// Apply/Revert errors.
var (
	ErrNonceMismatch  = errors.New("transaction nonce does not match account nonce")
	ErrInsufficient   = errors.New("account balance insufficient for amount and fee")
	ErrRevertMismatch = errors.New("revert does not match the block that was applied")
)

// Account is a single address's balance and replay-protection counter.
type Account struct {
	Balance types.UInt
	Nonce   types.UInt
}

// Ledger is the account state keyed by compressed public key. Accounts are
// created lazily on first reference; a key absent from the map is
// equivalent to the zero account.
type Ledger struct {
	mu       sync.RWMutex
	accounts map[types.PubKey]Account
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{accounts: make(map[types.PubKey]Account)}
}

// Account returns a copy of the account state for pk, or the zero account
// if it has never been referenced.
func (l *Ledger) Account(pk types.PubKey) Account {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.accounts[pk]
}

// Credit increments pk's balance unconditionally, creating the account if
// needed. Used for genesis allocations, which are not transactions.
func (l *Ledger) Credit(pk types.PubKey, amount types.UInt) {
	l.mu.Lock()
	defer l.mu.Unlock()
	a := l.accounts[pk]
	a.Balance = a.Balance.Add(amount)
	l.accounts[pk] = a
}

// Snapshot returns a copy of the full account map, for serialization.
func (l *Ledger) Snapshot() map[types.PubKey]Account {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[types.PubKey]Account, len(l.accounts))
	for k, v := range l.accounts {
		out[k] = v
	}
	return out
}

// Restore replaces the account map wholesale, for loading a snapshot.
func (l *Ledger) Restore(accounts map[types.PubKey]Account) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.accounts = make(map[types.PubKey]Account, len(accounts))
	for k, v := range accounts {
		l.accounts[k] = v
	}
}

// Apply credits minerPK with reward plus the sum of the block's fees and
// debits/credits every transaction's sender and receiver, in order. It is
// transactional: on the first failing transaction, none of the block's
// mutations are kept, including those of transactions that had already
// succeeded.
func (l *Ledger) Apply(blk *block.Block, minerPK types.PubKey, reward types.UInt) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	before := make(map[types.PubKey]Account, len(blk.Transactions)*2+1)
	snap := func(pk types.PubKey) {
		if _, ok := before[pk]; !ok {
			before[pk] = l.accounts[pk]
		}
	}
	rollback := func() {
		for pk, a := range before {
			l.accounts[pk] = a
		}
	}

	minerDelta := reward
	for i, t := range blk.Transactions {
		snap(t.From)
		snap(t.To)

		sender := l.accounts[t.From]
		if t.Nonce.Cmp(sender.Nonce) != 0 {
			rollback()
			return fmt.Errorf("tx %d: %w", i, ErrNonceMismatch)
		}
		cost := t.Amount.Add(t.Fee)
		newSenderBalance, ok := sender.Balance.Sub(cost)
		if !ok {
			rollback()
			return fmt.Errorf("tx %d: %w", i, ErrInsufficient)
		}
		sender.Balance = newSenderBalance
		sender.Nonce = sender.Nonce.Add(types.NewUInt(1))
		l.accounts[t.From] = sender

		receiver := l.accounts[t.To]
		receiver.Balance = receiver.Balance.Add(t.Amount)
		l.accounts[t.To] = receiver

		minerDelta = minerDelta.Add(t.Fee)
	}

	snap(minerPK)
	miner := l.accounts[minerPK]
	miner.Balance = miner.Balance.Add(minerDelta)
	l.accounts[minerPK] = miner

	return nil
}

// Revert undoes exactly the inverse of Apply, in reverse transaction
// order: receiver -= amount, sender += amount+fee, sender.nonce -= 1,
// then the miner's balance is debited by the sum of fees plus reward.
// Revert assumes blk was the last block applied to this ledger; callers
// are responsible for calling it in matching pairs with Apply.
func (l *Ledger) Revert(blk *block.Block, minerPK types.PubKey, reward types.UInt) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	feeSum := types.Zero
	for i := len(blk.Transactions) - 1; i >= 0; i-- {
		t := blk.Transactions[i]

		receiver := l.accounts[t.To]
		newReceiverBalance, ok := receiver.Balance.Sub(t.Amount)
		if !ok {
			return fmt.Errorf("tx %d: %w", i, ErrRevertMismatch)
		}
		receiver.Balance = newReceiverBalance
		l.accounts[t.To] = receiver

		sender := l.accounts[t.From]
		sender.Balance = sender.Balance.Add(t.Amount).Add(t.Fee)
		newNonce, ok := sender.Nonce.Sub(types.NewUInt(1))
		if !ok {
			return fmt.Errorf("tx %d: %w", i, ErrRevertMismatch)
		}
		sender.Nonce = newNonce
		l.accounts[t.From] = sender

		feeSum = feeSum.Add(t.Fee)
	}

	miner := l.accounts[minerPK]
	newMinerBalance, ok := miner.Balance.Sub(feeSum.Add(reward))
	if !ok {
		return fmt.Errorf("%w: miner balance underflow", ErrRevertMismatch)
	}
	miner.Balance = newMinerBalance
	l.accounts[minerPK] = miner

	return nil
}

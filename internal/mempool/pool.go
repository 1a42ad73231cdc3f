// Package mempool holds signed, not-yet-mined transactions, ordered by
// fee for block inclusion. Admission is a pure function of the sender's
// current ledger account: no UTXO set, no token or stake bookkeeping, a
// transaction either debits an account that can afford it at the nonce
// it expects, or it is rejected.
package mempool

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/accountchain/node/internal/ledger"
	"github.com/accountchain/node/internal/metrics"
	"github.com/accountchain/node/pkg/crypto"
	"github.com/accountchain/node/pkg/tx"
	"github.com/accountchain/node/pkg/types"
)

// DefaultMaxSize bounds how many transactions the pool holds at once,
// mirroring the teacher's own mempool default capacity.
const DefaultMaxSize = 5000

// Admission errors.
var (
	ErrInvalid      = errors.New("transaction failed structural validation")
	ErrAlreadySpent = errors.New("transaction nonce already spent or out of order")
	ErrInsufficient = errors.New("account balance cannot cover amount and fee")
	ErrPoolFull     = errors.New("mempool is full")
)

// entry is a pool-resident transaction plus its cached identity hash and
// fee, kept in non-increasing fee order.
type entry struct {
	tx   *tx.Transaction
	hash types.Hash
	fee  types.UInt
}

// Pool is the set of pending transactions, ordered by descending fee.
// Insertion keeps the slice sorted: a new entry lands at the position
// equal to the count of entries whose fee is strictly greater, so equal
// fees preserve arrival order (a stable non-increasing ordering).
type Pool struct {
	mu      sync.Mutex
	entries []*entry
	seen    map[types.Hash]bool
	ledger  *ledger.Ledger
	maxSize int
}

// New creates an empty pool that admits transactions against l's account
// state. maxSize <= 0 uses DefaultMaxSize.
func New(l *ledger.Ledger, maxSize int) *Pool {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Pool{
		seen:    make(map[types.Hash]bool),
		ledger:  l,
		maxSize: maxSize,
	}
}

// identity hashes every field of t, signature included, distinguishing it
// from Fingerprint (which excludes nonce and signature and exists to be
// signed, not to deduplicate pool entries).
func identity(t *tx.Transaction) types.Hash {
	buf := make([]byte, 0, types.PubKeySize*2+64+len(t.Signature))
	buf = append(buf, t.From.Bytes()...)
	buf = append(buf, t.To.Bytes()...)
	buf = append(buf, []byte(t.Amount.String())...)
	buf = append(buf, []byte(t.Fee.String())...)
	buf = append(buf, []byte(t.Nonce.String())...)
	buf = append(buf, t.Signature...)
	return crypto.Hash(buf)
}

// Add admits t into the pool. A structurally invalid transaction (bad
// signature, zero amount, self-transfer) is rejected with an error and
// must not be rebroadcast. A transaction already present by identity is
// rejected silently (false, nil): resubmitting a transaction already seen
// from another peer is the expected steady state of flood gossip, not a
// fault. A nonce below the sender's current account nonce, or a balance
// that cannot cover amount plus fee, is rejected as invalid admission.
// On success, Add reports true and the caller should re-broadcast t to
// peers; every peer applies the same admission rule, so the flood
// terminates once all reachable peers have seen it.
func (p *Pool) Add(t *tx.Transaction) (bool, error) {
	if err := t.Validate(); err != nil {
		metrics.TransactionsRejected.WithLabelValues("invalid").Inc()
		return false, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	id := identity(t)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.seen[id] {
		return false, nil
	}

	account := p.ledger.Account(t.From)
	if t.Nonce.Cmp(account.Nonce) < 0 {
		metrics.TransactionsRejected.WithLabelValues("already_spent").Inc()
		return false, fmt.Errorf("%w: have %s, pool wants %s", ErrAlreadySpent, account.Nonce, t.Nonce)
	}
	cost := t.Amount.Add(t.Fee)
	if !account.Balance.GreaterOrEqual(cost) {
		metrics.TransactionsRejected.WithLabelValues("insufficient_balance").Inc()
		return false, fmt.Errorf("%w: have %s, need %s", ErrInsufficient, account.Balance, cost)
	}

	if len(p.entries) >= p.maxSize {
		lowest := p.entries[len(p.entries)-1]
		if t.Fee.Cmp(lowest.fee) <= 0 {
			metrics.TransactionsRejected.WithLabelValues("pool_full").Inc()
			return false, ErrPoolFull
		}
		p.removeAt(len(p.entries) - 1)
	}

	e := &entry{tx: t, hash: id, fee: t.Fee}
	pos := 0
	for pos < len(p.entries) && p.entries[pos].fee.Cmp(t.Fee) > 0 {
		pos++
	}
	p.entries = append(p.entries, nil)
	copy(p.entries[pos+1:], p.entries[pos:])
	p.entries[pos] = e
	p.seen[id] = true

	metrics.TransactionsAccepted.Inc()
	metrics.MempoolSize.Set(float64(len(p.entries)))

	return true, nil
}

// removeAt deletes the entry at index i. Must be called with p.mu held.
func (p *Pool) removeAt(i int) {
	e := p.entries[i]
	delete(p.seen, e.hash)
	p.entries = append(p.entries[:i], p.entries[i+1:]...)
}

// Remove drops the transactions in txs from the pool by identity, used
// once a block carrying them has been accepted.
func (p *Pool) Remove(txs []*tx.Transaction) {
	if len(txs) == 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	drop := make(map[types.Hash]bool, len(txs))
	for _, t := range txs {
		drop[identity(t)] = true
	}
	kept := p.entries[:0]
	for _, e := range p.entries {
		if drop[e.hash] {
			delete(p.seen, e.hash)
			continue
		}
		kept = append(kept, e)
	}
	p.entries = kept
	metrics.MempoolSize.Set(float64(len(p.entries)))
}

// Count returns the number of pooled transactions.
func (p *Pool) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// Has reports whether t is already pooled.
func (p *Pool) Has(t *tx.Transaction) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seen[identity(t)]
}

// Fees returns the fee-ordered list of pooled transactions, for
// inspection and for checking the fee-ordering invariant in tests. The
// returned slice is a defensive copy.
func (p *Pool) Fees() []*tx.Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*tx.Transaction, len(p.entries))
	for i, e := range p.entries {
		out[i] = e.tx
	}
	return out
}

// SelectForBlock builds a candidate block body of up to limit
// transactions. When the pool holds more than limit entries, only the
// first limit-1 fee-ranked entries are considered for the candidate —
// preserving an off-by-one present in the source this pool's ordering is
// modeled on, rather than correcting it to limit entries. The considered
// prefix is stably re-sorted by ascending nonce, then replayed against a
// scratch copy of l's account state; any transaction whose nonce no
// longer matches the simulated sender, or whose cost the simulated
// balance cannot cover, is dropped and does not advance the simulated
// state for the transactions after it.
func (p *Pool) SelectForBlock(limit int) []*tx.Transaction {
	p.mu.Lock()
	prefixLen := len(p.entries)
	if prefixLen > limit {
		prefixLen = limit - 1
		if prefixLen < 0 {
			prefixLen = 0
		}
	}
	prefix := make([]*entry, prefixLen)
	copy(prefix, p.entries[:prefixLen])
	p.mu.Unlock()

	sort.SliceStable(prefix, func(i, j int) bool {
		return prefix[i].tx.Nonce.Cmp(prefix[j].tx.Nonce) < 0
	})

	sim := make(map[types.PubKey]ledger.Account, len(prefix))
	account := func(pk types.PubKey) ledger.Account {
		if a, ok := sim[pk]; ok {
			return a
		}
		a := p.ledger.Account(pk)
		sim[pk] = a
		return a
	}

	result := make([]*tx.Transaction, 0, len(prefix))
	for _, e := range prefix {
		acct := account(e.tx.From)
		if e.tx.Nonce.Cmp(acct.Nonce) != 0 {
			continue
		}
		cost := e.tx.Amount.Add(e.tx.Fee)
		newBalance, ok := acct.Balance.Sub(cost)
		if !ok {
			continue
		}
		acct.Balance = newBalance
		acct.Nonce = acct.Nonce.Add(types.NewUInt(1))
		sim[e.tx.From] = acct
		result = append(result, e.tx)
	}
	return result
}

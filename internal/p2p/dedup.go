package p2p

import (
	"sync"

	"github.com/libp2p/go-libp2p/core/peer"
	"golang.org/x/time/rate"

	"github.com/accountchain/node/pkg/types"
)

// maxTrackedGossipHashes bounds the informed-peer-set cache so a
// long-running node does not grow it without limit; the oldest hash is
// evicted once the cap is reached.
const maxTrackedGossipHashes = 4096

// peerGossipRate and peerGossipBurst bound how many gossip messages a
// single peer's traffic is accepted at. A peer relaying more than its
// share is throttled rather than processed, which keeps one noisy or
// misbehaving peer from turning the mesh's own flood into a storm.
const (
	peerGossipRate  = 50
	peerGossipBurst = 100
)

// gossipTracker records, per message content hash, which peers are already
// known to have delivered or received that message, and rate-limits
// inbound gossip per peer. It is the "already informed" bookkeeping that
// keeps the node from treating a duplicate relay of something it has
// already seen as new work.
type gossipTracker struct {
	mu       sync.Mutex
	informed map[types.Hash]map[peer.ID]bool
	order    []types.Hash

	limiterMu sync.Mutex
	limiters  map[peer.ID]*rate.Limiter
}

func newGossipTracker() *gossipTracker {
	return &gossipTracker{
		informed: make(map[types.Hash]map[peer.ID]bool),
		limiters: make(map[peer.ID]*rate.Limiter),
	}
}

// markInformed records that p is known to have hash (it sent the message,
// or we already forwarded it there) and reports whether hash had no
// recorded peers before this call — a fresh arrival worth acting on.
func (g *gossipTracker) markInformed(hash types.Hash, p peer.ID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	set, known := g.informed[hash]
	firstSeen := !known
	if !known {
		set = make(map[peer.ID]bool)
		g.informed[hash] = set
		g.order = append(g.order, hash)
		if len(g.order) > maxTrackedGossipHashes {
			oldest := g.order[0]
			g.order = g.order[1:]
			delete(g.informed, oldest)
		}
	}
	set[p] = true
	return firstSeen
}

// allow consumes one token from p's bucket, creating a fresh bucket on
// first contact, and reports whether the message should be processed.
func (g *gossipTracker) allow(p peer.ID) bool {
	g.limiterMu.Lock()
	lim, ok := g.limiters[p]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(peerGossipRate), peerGossipBurst)
		g.limiters[p] = lim
	}
	g.limiterMu.Unlock()
	return lim.Allow()
}

// forgetPeer drops p's rate-limiter state. Called when a peer disconnects
// so the limiter map does not accumulate entries for peers long gone.
func (g *gossipTracker) forgetPeer(p peer.ID) {
	g.limiterMu.Lock()
	delete(g.limiters, p)
	g.limiterMu.Unlock()
}

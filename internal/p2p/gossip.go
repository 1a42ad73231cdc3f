package p2p

import (
	"encoding/json"
	"fmt"

	"github.com/accountchain/node/pkg/block"
	"github.com/accountchain/node/pkg/crypto"
	"github.com/accountchain/node/pkg/tx"
	"github.com/accountchain/node/pkg/types"
)

// selfInformed is the key gossipTracker records our own publishes under,
// distinguishing "we already put this on the wire" from any real peer ID.
const selfInformed = "self"

// GossipBlock wraps a block with the public key it was mined for. The
// block itself doesn't name its own miner — chain.AddBlock takes that as
// a separate argument — so the wire envelope has to carry it alongside,
// or a node that only ever learns about a block through gossip has no
// way to credit the right account.
type GossipBlock struct {
	Block *block.Block `json:"block"`
	Miner types.PubKey `json:"miner"`
}

// BroadcastTx publishes a transaction to the gossip network. A transaction
// whose exact encoding was already published is not re-sent: the mesh
// itself would suppress the duplicate, but skipping the publish call
// avoids paying encode-and-send cost for something already in flight.
func (n *Node) BroadcastTx(t *tx.Transaction) error {
	if n.topicTx == nil {
		return fmt.Errorf("p2p node not started")
	}

	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal tx: %w", err)
	}

	if !n.gossip.markInformed(crypto.Hash(data), selfInformed) {
		return nil
	}

	return n.topicTx.Publish(n.ctx, data)
}

// BroadcastBlock publishes a block and the public key it was mined for to
// the gossip network, with the same already-published suppression as
// BroadcastTx.
func (n *Node) BroadcastBlock(b *block.Block, miner types.PubKey) error {
	if n.topicBlock == nil {
		return fmt.Errorf("p2p node not started")
	}

	data, err := json.Marshal(GossipBlock{Block: b, Miner: miner})
	if err != nil {
		return fmt.Errorf("marshal block: %w", err)
	}

	if !n.gossip.markInformed(crypto.Hash(data), selfInformed) {
		return nil
	}

	return n.topicBlock.Publish(n.ctx, data)
}

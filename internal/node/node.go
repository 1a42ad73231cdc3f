// Package node wires the chain, mempool, miner, peer-to-peer networking,
// metrics, and RPC server together into a single runnable process.
package node

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/accountchain/node/config"
	"github.com/accountchain/node/internal/chain"
	klog "github.com/accountchain/node/internal/log"
	"github.com/accountchain/node/internal/mempool"
	"github.com/accountchain/node/internal/metrics"
	"github.com/accountchain/node/internal/miner"
	"github.com/accountchain/node/internal/p2p"
	"github.com/accountchain/node/internal/rpc"
	"github.com/accountchain/node/pkg/block"
	"github.com/accountchain/node/pkg/tx"
	"github.com/accountchain/node/pkg/types"
	"github.com/libp2p/go-libp2p/core/peer"
	multiaddr "github.com/multiformats/go-multiaddr"
	"github.com/rs/zerolog"
)

// metricsPollInterval is how often Start's background loop refreshes the
// gauges that have no natural call site of their own (height, uptime).
const metricsPollInterval = 5 * time.Second

// Node is a fully wired blockchain node: chain state, mempool, P2P
// gossip and sync, optional mining, and an optional RPC server.
type Node struct {
	cfg     *config.Config
	genesis *config.Genesis
	logger  zerolog.Logger

	ch   *chain.Chain
	pool *mempool.Pool

	p2pNode *p2p.Node
	rpcSrv  *rpc.Server

	miner     *miner.Miner
	rewardKey types.PubKey
	mining    bool

	startedAt time.Time
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// New builds a node from cfg: the genesis for cfg.Network, a chain and
// mempool sharing one ledger, a P2P host bound to cfg.P2P, and (if
// cfg.RPC.Enabled) an RPC server over that chain and mempool. It does
// not start anything — call Start for that.
func New(cfg *config.Config) (*Node, error) {
	gen := config.GenesisFor(cfg.Network)

	ch := chain.New(gen)
	pool := mempool.New(ch.Ledger(), mempool.DefaultMaxSize)

	listenAddr, listenPort, err := splitListenMultiaddr(cfg.P2P.ListenAddress)
	if err != nil {
		return nil, fmt.Errorf("node: parsing p2p.listen: %w", err)
	}

	seeds := cfg.P2P.Peers
	if cfg.P2P.BootnodeAddress != "" && cfg.P2P.BootnodeID != "" {
		seeds = append(append([]string(nil), seeds...), cfg.P2P.BootnodeAddress+"/p2p/"+cfg.P2P.BootnodeID)
	}

	p2pNode := p2p.New(p2p.Config{
		ListenAddr: listenAddr,
		Port:       listenPort,
		Seeds:      seeds,
		NoDiscover: !cfg.P2P.Sync,
		DHTServer:  cfg.P2P.Bootnode,
		NetworkID:  gen.ChainID,
		DataDir:    cfg.DataDir,
	})

	n := &Node{
		cfg:     cfg,
		genesis: gen,
		logger:  klog.WithComponent("node"),
		ch:      ch,
		pool:    pool,
		p2pNode: p2pNode,
	}

	p2pNode.SetTxHandler(n.onPeerTx)
	p2pNode.SetBlockHandler(n.onPeerBlock)
	p2pNode.RegisterSnapshotHandler(chainSnapshotProvider{ch})

	if cfg.Mining.Enabled {
		rewardKey, err := types.PubKeyFromHex(cfg.Mining.Reward)
		if err != nil {
			return nil, fmt.Errorf("node: parsing mining.reward_pubkey: %w", err)
		}
		n.rewardKey = rewardKey
		n.mining = true
		n.miner = miner.New(ch, pool, rewardKey)
		n.miner.SetAnnounce(func(blk *block.Block) {
			if err := p2pNode.BroadcastBlock(blk, rewardKey); err != nil {
				n.logger.Debug().Err(err).Str("hash", blk.Hash().String()).Msg("failed to broadcast mined block")
			}
		})
		p2pNode.SetMiningPauser(n.miner)
	}

	if cfg.RPC.Enabled {
		srv, err := rpc.New(cfg.RPC, ch, pool, p2pNode)
		if err != nil {
			return nil, fmt.Errorf("node: creating rpc server: %w", err)
		}
		n.rpcSrv = srv
	}

	return n, nil
}

// splitListenMultiaddr extracts the dotted IPv4 address and TCP port from
// a "/ip4/<addr>/tcp/<port>" multiaddr, the shape p2p.Config expects as
// two separate fields. Parsing (rather than string-splitting) means a
// malformed or non-IPv4 listen address is rejected at startup instead of
// producing a confusing listen failure once libp2p tries to use it.
func splitListenMultiaddr(raw string) (addr string, port int, err error) {
	if raw == "" {
		return "", 0, fmt.Errorf("empty listen address")
	}
	ma, err := multiaddr.NewMultiaddr(raw)
	if err != nil {
		return "", 0, fmt.Errorf("invalid multiaddr %q: %w", raw, err)
	}
	addr, err = ma.ValueForProtocol(multiaddr.P_IP4)
	if err != nil {
		return "", 0, fmt.Errorf("multiaddr %q has no /ip4 component: %w", raw, err)
	}
	portStr, err := ma.ValueForProtocol(multiaddr.P_TCP)
	if err != nil {
		return "", 0, fmt.Errorf("multiaddr %q has no /tcp component: %w", raw, err)
	}
	if _, err := fmt.Sscanf(portStr, "%d", &port); err != nil {
		return "", 0, fmt.Errorf("multiaddr %q has a non-numeric port: %w", raw, err)
	}
	return addr, port, nil
}

// onPeerTx is the P2P node's tx handler: admit to the mempool. A
// transaction already pooled or rejected by admission rules is simply
// dropped; the gossip layer's own de-duplication already guarantees this
// is only called once per transaction per honest peer.
func (n *Node) onPeerTx(_ peer.ID, data []byte) {
	var t tx.Transaction
	if err := json.Unmarshal(data, &t); err != nil {
		n.logger.Debug().Err(err).Msg("discarding malformed gossiped transaction")
		return
	}
	if _, err := n.pool.Add(&t); err != nil {
		n.logger.Debug().Err(err).Msg("rejected gossiped transaction")
	}
}

// onPeerBlock is the P2P node's block handler: decode the block and the
// public key it was mined for, attempt chain acceptance, and on success
// drop any now-mined transactions from the mempool. The miner comes off
// the wire rather than from a MinerOf lookup, since a block gossiped in
// from a peer has by definition never been seen by this chain before.
func (n *Node) onPeerBlock(_ peer.ID, data []byte) {
	var env p2p.GossipBlock
	if err := json.Unmarshal(data, &env); err != nil || env.Block == nil {
		n.logger.Debug().Err(err).Msg("discarding malformed gossiped block")
		return
	}
	accepted, err := n.ch.AddBlock(env.Block, env.Miner)
	if err != nil {
		n.logger.Debug().Err(err).Str("hash", env.Block.Hash().String()).Msg("rejected gossiped block")
		return
	}
	if accepted {
		n.pool.Remove(env.Block.Transactions)
	}
}

// chainSnapshotProvider adapts *chain.Chain to p2p.SnapshotProvider.
type chainSnapshotProvider struct {
	ch *chain.Chain
}

func (p chainSnapshotProvider) Snapshot() chain.Snapshot {
	return p.ch.Snapshot()
}

// Start brings the node online: the P2P host, the RPC server (if
// configured), the miner (if configured), and a background loop that
// polls the chain-height and uptime gauges metrics has no hot-path call
// site for.
func (n *Node) Start() error {
	n.ctx, n.cancel = context.WithCancel(context.Background())
	n.startedAt = time.Now()

	if err := n.p2pNode.Start(); err != nil {
		return fmt.Errorf("node: starting p2p: %w", err)
	}

	if n.rpcSrv != nil {
		if err := n.rpcSrv.Start(); err != nil {
			n.p2pNode.Stop()
			return fmt.Errorf("node: starting rpc: %w", err)
		}
	}

	n.wg.Add(1)
	go n.runMetricsLoop()

	if n.mining {
		n.wg.Add(1)
		go func() {
			defer n.wg.Done()
			stop := make(chan struct{})
			go func() {
				<-n.ctx.Done()
				close(stop)
			}()
			n.miner.Run(stop)
		}()
	}

	n.logger.Info().
		Str("chain_id", n.genesis.ChainID).
		Str("listen", n.cfg.P2P.ListenAddress).
		Bool("mining", n.mining).
		Bool("rpc", n.rpcSrv != nil).
		Msg("node started")
	return nil
}

// runMetricsLoop periodically refreshes the gauges that reflect
// point-in-time state rather than a discrete event: chain height (an
// O(chain length) walk, too costly to run on every AddBlock) and process
// uptime.
func (n *Node) runMetricsLoop() {
	defer n.wg.Done()
	ticker := time.NewTicker(metricsPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-n.ctx.Done():
			return
		case <-ticker.C:
			if h, ok := n.ch.Height(n.ch.Tip()); ok {
				metrics.ChainHeight.Set(float64(h))
			}
			metrics.UptimeSeconds.Set(time.Since(n.startedAt).Seconds())
		}
	}
}

// Stop shuts the node down: cancel the background loops, stop mining,
// stop the RPC server, then the P2P host. Calling Stop before Start is a
// no-op since cancel/p2pNode.Stop/rpcSrv.Stop all tolerate zero-value
// state.
func (n *Node) Stop() error {
	if n.cancel != nil {
		n.cancel()
	}
	n.wg.Wait()

	if n.rpcSrv != nil {
		if err := n.rpcSrv.Stop(); err != nil {
			n.logger.Warn().Err(err).Msg("error stopping rpc server")
		}
	}
	return n.p2pNode.Stop()
}

// Chain returns the node's chain state, for callers embedding Node
// (tests, alternative front-ends) that need direct access.
func (n *Node) Chain() *chain.Chain {
	return n.ch
}

// Mempool returns the node's mempool.
func (n *Node) Mempool() *mempool.Pool {
	return n.pool
}

// P2P returns the node's peer-to-peer host, for callers that need its
// listen address or peer ID (for example to seed another node with it in
// a local multi-node setup).
func (n *Node) P2P() *p2p.Node {
	return n.p2pNode
}

// RewardPubKey returns the configured mining reward recipient and
// whether mining is enabled at all.
func (n *Node) RewardPubKey() (types.PubKey, bool) {
	return n.rewardKey, n.mining
}

// Package metrics exposes the node's prometheus counters and gauges:
// chain height and difficulty, mempool occupancy, mining throughput, and
// peer count. It carries no chain-specific logic of its own — callers in
// internal/chain, internal/mempool, internal/miner, and internal/p2p set
// these values as their own state changes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ChainHeight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "accountchain",
		Name:      "chain_height",
		Help:      "Number of blocks on the canonical chain from genesis to the tip.",
	})

	CurrentDifficulty = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "accountchain",
		Name:      "current_difficulty",
		Help:      "Current proof-of-work difficulty target, as a float64 approximation.",
	})

	CumulativeDifficulty = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "accountchain",
		Name:      "cumulative_difficulty",
		Help:      "Cumulative difficulty of the canonical chain's tip, as a float64 approximation.",
	})

	MempoolSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "accountchain",
		Name:      "mempool_size",
		Help:      "Number of pending transactions held in the mempool.",
	})

	PeersConnected = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "accountchain",
		Name:      "peers_connected",
		Help:      "Number of connected P2P peers.",
	})

	MiningAttempts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "accountchain",
		Name:      "mining_attempts_total",
		Help:      "Total nonce/timestamp combinations tried by the local miner.",
	})

	BlocksMined = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "accountchain",
		Name:      "blocks_mined_total",
		Help:      "Total blocks successfully mined and submitted by this node.",
	})

	BlocksReceived = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "accountchain",
		Name:      "blocks_received_total",
		Help:      "Blocks submitted to the chain, mined locally or received from peers, labeled by fork-choice outcome.",
	}, []string{"outcome"}) // "extend", "reorg", "side_branch", "rejected"

	TransactionsAccepted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "accountchain",
		Name:      "transactions_accepted_total",
		Help:      "Total transactions admitted into the mempool.",
	})

	TransactionsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "accountchain",
		Name:      "transactions_rejected_total",
		Help:      "Transactions rejected by the mempool, labeled by reason.",
	}, []string{"reason"})

	ReorgDepth = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "accountchain",
		Name:      "reorg_depth_blocks",
		Help:      "Depth of chain reorganizations, in blocks rolled back.",
		Buckets:   []float64{1, 2, 3, 5, 8, 13, 21},
	})

	UptimeSeconds = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "accountchain",
		Name:      "uptime_seconds",
		Help:      "Node uptime in seconds.",
	})
)

func init() {
	prometheus.MustRegister(
		ChainHeight,
		CurrentDifficulty,
		CumulativeDifficulty,
		MempoolSize,
		PeersConnected,
		MiningAttempts,
		BlocksMined,
		BlocksReceived,
		TransactionsAccepted,
		TransactionsRejected,
		ReorgDepth,
		UptimeSeconds,
	)
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

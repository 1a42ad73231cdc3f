// Command testnet boots a 2-node local testnet from scratch.
//
// Usage: go run ./cmd/testnet/
//
// It generates a miner key, boots two in-process nodes against the testnet
// genesis (one miner, one follower), waits for the miner to produce a
// handful of blocks, gossips them via libp2p, and verifies the follower's
// chain converges on the same tip. Ctrl+C for early shutdown.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/accountchain/node/config"
	klog "github.com/accountchain/node/internal/log"
	"github.com/accountchain/node/internal/node"
	"github.com/accountchain/node/pkg/crypto"
	"github.com/accountchain/node/pkg/tx"
	"github.com/accountchain/node/pkg/types"
	"github.com/rs/zerolog"
)

const (
	targetHeight = 10
	convergeWait = 60 * time.Second
	pollInterval = 500 * time.Millisecond
	txInterval   = 200 * time.Millisecond

	fundedBalance  = 1_000_000
	transferAmount = 1
	transferFee    = 1
)

func main() {
	if err := klog.Init("info", false, ""); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	logger := klog.WithComponent("testnet")

	minerKey, err := crypto.GenerateKey()
	if err != nil {
		logger.Fatal().Err(err).Msg("generate miner key")
	}
	minerPK, err := types.PubKeyFromBytes(minerKey.PublicKey())
	if err != nil {
		logger.Fatal().Err(err).Msg("derive miner pubkey")
	}

	// A funded account whose self-service transfers keep node A's mempool
	// non-empty: an all-empty-mempool chain can never mine a block, since
	// a transaction-less block has no merkle root and is rejected.
	fundedKey, err := crypto.GenerateKey()
	if err != nil {
		logger.Fatal().Err(err).Msg("generate funded account key")
	}
	fundedPK, err := types.PubKeyFromBytes(fundedKey.PublicKey())
	if err != nil {
		logger.Fatal().Err(err).Msg("derive funded account pubkey")
	}

	dirA, err := os.MkdirTemp("", "accountchain-testnet-a-*")
	if err != nil {
		logger.Fatal().Err(err).Msg("create data dir for node A")
	}
	defer os.RemoveAll(dirA)
	dirB, err := os.MkdirTemp("", "accountchain-testnet-b-*")
	if err != nil {
		logger.Fatal().Err(err).Msg("create data dir for node B")
	}
	defer os.RemoveAll(dirB)

	cfgA := config.DefaultTestnet()
	cfgA.DataDir = dirA
	cfgA.P2P.ListenAddress = "/ip4/127.0.0.1/tcp/0"
	cfgA.P2P.Bootnode = true
	cfgA.RPC.Enabled = false
	cfgA.Mining.Enabled = true
	cfgA.Mining.Reward = minerPK.String()

	nodeA, err := node.New(cfgA)
	if err != nil {
		logger.Fatal().Err(err).Msg("build node A")
	}
	nodeA.Chain().CreditGenesis(fundedPK, types.NewUInt(fundedBalance))

	if err := nodeA.Start(); err != nil {
		logger.Fatal().Err(err).Msg("start node A")
	}
	defer nodeA.Stop()

	stopTx := make(chan struct{})
	defer close(stopTx)
	go submitTransfers(nodeA, fundedKey, fundedPK, minerPK, stopTx, logger)

	addrsA := nodeA.P2P().Addrs()
	if len(addrsA) == 0 {
		logger.Fatal().Msg("node A advertised no listen addresses")
	}
	logger.Info().Strs("addrs", addrsA).Msg("node A listening")

	cfgB := config.DefaultTestnet()
	cfgB.DataDir = dirB
	cfgB.P2P.ListenAddress = "/ip4/127.0.0.1/tcp/0"
	cfgB.P2P.Peers = addrsA
	cfgB.P2P.Sync = true
	cfgB.RPC.Enabled = false
	cfgB.Mining.Enabled = false

	nodeB, err := node.New(cfgB)
	if err != nil {
		logger.Fatal().Err(err).Msg("build node B")
	}
	if err := nodeB.Start(); err != nil {
		logger.Fatal().Err(err).Msg("start node B")
	}
	defer nodeB.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	done := make(chan error, 1)
	go func() { done <- waitForConvergence(nodeA, nodeB, logger) }()

	select {
	case err := <-done:
		if err != nil {
			logger.Error().Err(err).Msg("testnet did not converge")
			os.Exit(1)
		}
		logger.Info().Msg("testnet converged")
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down early")
	}
}

// submitTransfers periodically signs and pools a small transfer from the
// funded account to the miner, so node A's mempool never stays empty long
// enough to stall mining.
func submitTransfers(n *node.Node, fromKey *crypto.PrivateKey, from, to types.PubKey, stop <-chan struct{}, logger zerolog.Logger) {
	ticker := time.NewTicker(txInterval)
	defer ticker.Stop()

	var nonce uint64
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			builder := tx.NewBuilder(from, to, types.NewUInt(transferAmount), types.NewUInt(transferFee), types.NewUInt(nonce))
			if err := builder.Sign(fromKey); err != nil {
				logger.Error().Err(err).Msg("sign transfer")
				continue
			}
			if _, err := n.Mempool().Add(builder.Build()); err != nil {
				logger.Debug().Err(err).Uint64("nonce", nonce).Msg("transfer not pooled")
				continue
			}
			nonce++
		}
	}
}

// waitForConvergence polls both nodes until the miner's chain reaches
// targetHeight and the follower's tip matches it, or convergeWait elapses.
func waitForConvergence(nodeA, nodeB *node.Node, logger zerolog.Logger) error {
	deadline := time.Now().Add(convergeWait)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for range ticker.C {
		tipA := nodeA.Chain().Tip()
		heightA, _ := nodeA.Chain().Height(tipA)
		tipB := nodeB.Chain().Tip()
		heightB, _ := nodeB.Chain().Height(tipB)

		logger.Info().Uint64("height_a", heightA).Uint64("height_b", heightB).
			Int("peers_b", nodeB.P2P().PeerCount()).Msg("waiting for convergence")

		if heightA >= targetHeight && tipA == tipB {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timed out after %s: height_a=%d height_b=%d tip_a=%s tip_b=%s",
				convergeWait, heightA, heightB, tipA, tipB)
		}
	}
	return nil
}

// Accountchain full node daemon.
//
// Usage:
//
//	klingnetd [--mine --reward-pubkey=...]   Run a node
//	klingnetd --help                         Show help
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/accountchain/node/config"
	klog "github.com/accountchain/node/internal/log"
	"github.com/accountchain/node/internal/node"
)

func main() {
	cfg, _, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := config.EnsureDataDirs(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating data directories: %v\n", err)
		os.Exit(1)
	}

	logFile := cfg.Log.File
	if logFile == "" {
		logFile = cfg.LogsDir() + "/accountchain.log"
	}
	if err := klog.Init(cfg.Log.Level, cfg.Log.JSON, logFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	logger := klog.WithComponent("main")

	n, err := node.New(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build node")
	}

	if err := n.Start(); err != nil {
		logger.Fatal().Err(err).Msg("failed to start node")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info().Str("signal", sig.String()).Msg("shutting down")

	if err := n.Stop(); err != nil {
		logger.Error().Err(err).Msg("error during shutdown")
	}
}

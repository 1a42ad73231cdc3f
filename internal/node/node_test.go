package node

import (
	"testing"

	"github.com/accountchain/node/config"
	"github.com/accountchain/node/pkg/crypto"
	"github.com/accountchain/node/pkg/types"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultTestnet()
	cfg.P2P.ListenAddress = "/ip4/127.0.0.1/tcp/0"
	cfg.P2P.Sync = false
	cfg.RPC.Enabled = false
	cfg.Mining.Enabled = false
	return cfg
}

func TestSplitListenMultiaddr_Valid(t *testing.T) {
	addr, port, err := splitListenMultiaddr("/ip4/0.0.0.0/tcp/30303")
	if err != nil {
		t.Fatalf("splitListenMultiaddr: %v", err)
	}
	if addr != "0.0.0.0" || port != 30303 {
		t.Errorf("got (%q, %d), want (0.0.0.0, 30303)", addr, port)
	}
}

func TestSplitListenMultiaddr_Empty(t *testing.T) {
	if _, _, err := splitListenMultiaddr(""); err == nil {
		t.Error("expected error for empty listen address")
	}
}

func TestSplitListenMultiaddr_NotAMultiaddr(t *testing.T) {
	if _, _, err := splitListenMultiaddr("127.0.0.1:30303"); err == nil {
		t.Error("expected error for a non-multiaddr string")
	}
}

func TestSplitListenMultiaddr_MissingTCP(t *testing.T) {
	if _, _, err := splitListenMultiaddr("/ip4/0.0.0.0"); err == nil {
		t.Error("expected error for a multiaddr with no /tcp component")
	}
}

func TestNew_WithoutMiningOrRPC(t *testing.T) {
	n, err := New(testConfig(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if n.Chain() == nil {
		t.Error("expected a non-nil chain")
	}
	if n.Mempool() == nil {
		t.Error("expected a non-nil mempool")
	}
	if _, mining := n.RewardPubKey(); mining {
		t.Error("mining should be disabled")
	}
}

func TestNew_MiningRequiresValidRewardKey(t *testing.T) {
	cfg := testConfig(t)
	cfg.Mining.Enabled = true
	cfg.Mining.Reward = "not-hex"
	if _, err := New(cfg); err == nil {
		t.Error("expected error for invalid reward pubkey")
	}
}

func TestNew_MiningEnabled(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	pk, err := types.PubKeyFromBytes(key.PublicKey())
	if err != nil {
		t.Fatalf("pubkey: %v", err)
	}

	cfg := testConfig(t)
	cfg.Mining.Enabled = true
	cfg.Mining.Reward = pk.String()

	n, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, mining := n.RewardPubKey()
	if !mining {
		t.Fatal("expected mining to be enabled")
	}
	if got != pk {
		t.Errorf("reward pubkey mismatch: got %s, want %s", got, pk)
	}
}

func TestNodeLifecycle_StartStop(t *testing.T) {
	n, err := New(testConfig(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := n.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := n.Stop(); err != nil {
		t.Errorf("Stop: %v", err)
	}
}

func TestNodeLifecycle_StopBeforeStart(t *testing.T) {
	n, err := New(testConfig(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := n.Stop(); err != nil {
		t.Errorf("Stop before Start should not error, got: %v", err)
	}
}

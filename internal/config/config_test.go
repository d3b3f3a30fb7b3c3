package config

import (
	"testing"
	"time"

	"bitcoin-node-sim/internal/models"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("NETWORK", "")
	t.Setenv("SIMULATED_LATENCY_MS", "")
	t.Setenv("NODE_AUTOSTART", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Node.Network != models.Testnet {
		t.Errorf("Network = %s, want TESTNET", cfg.Node.Network)
	}
	if cfg.Node.Latency != 300*time.Millisecond {
		t.Errorf("Latency = %v, want 300ms", cfg.Node.Latency)
	}
	if !cfg.Node.AutoStart {
		t.Error("AutoStart should default to true")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("NETWORK", "main")
	t.Setenv("SIMULATED_LATENCY_MS", "0")
	t.Setenv("NODE_AUTOSTART", "false")
	t.Setenv("RPC_RATE_LIMIT", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Node.Network != models.Mainnet {
		t.Errorf("Network = %s, want MAINNET", cfg.Node.Network)
	}
	if cfg.Node.Latency != 0 {
		t.Errorf("Latency = %v, want 0", cfg.Node.Latency)
	}
	if cfg.Node.AutoStart {
		t.Error("AutoStart should be false")
	}
	if cfg.RPC.RateLimit != 4 {
		t.Errorf("unparsable RPC_RATE_LIMIT should fall back to 4, got %v", cfg.RPC.RateLimit)
	}
}

func TestLoad_BadNetwork(t *testing.T) {
	t.Setenv("NETWORK", "regtest")
	if _, err := Load(); err == nil {
		t.Fatal("expected an error for an unknown network")
	}
}

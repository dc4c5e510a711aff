package config

import "testing"

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Sequencer.BlockPeriodMS != 2000 {
		t.Fatalf("expected default block period 2000ms, got %d", cfg.Sequencer.BlockPeriodMS)
	}
	if cfg.Sequencer.ChainID != 83479 {
		t.Fatalf("expected default chain id 83479, got %d", cfg.Sequencer.ChainID)
	}
	if cfg.P2P.HeartbeatSec != 10 {
		t.Fatalf("expected default heartbeat 10s, got %d", cfg.P2P.HeartbeatSec)
	}
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("PORT", "9091")
	t.Setenv("BLOCK_PERIOD_MS", "500")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9091 {
		t.Fatalf("expected port 9091 from env, got %d", cfg.Server.Port)
	}
	if cfg.Sequencer.BlockPeriodMS != 500 {
		t.Fatalf("expected block period 500ms from env, got %d", cfg.Sequencer.BlockPeriodMS)
	}
}

func TestLoad_RejectsInvalidBlockPeriod(t *testing.T) {
	t.Setenv("BLOCK_PERIOD_MS", "0")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for non-positive block period")
	}
}

func TestLoad_RejectsZeroChainID(t *testing.T) {
	t.Setenv("CHAIN_ID", "0")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for zero chain id")
	}
}

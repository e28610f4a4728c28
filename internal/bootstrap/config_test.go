package bootstrap

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSetupDefaultsWithoutFile(t *testing.T) {
	cfg, err := Setup(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}

	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want 8080", cfg.ServerPort)
	}
	if cfg.EnginePoolSize != 4 || cfg.EngineDepth != 15 {
		t.Errorf("engine defaults = %d/%d, want 4/15", cfg.EnginePoolSize, cfg.EngineDepth)
	}
	if cfg.BatchItemTimeout != 60*time.Second {
		t.Errorf("BatchItemTimeout = %v, want 60s", cfg.BatchItemTimeout)
	}
	if cfg.BatchChunkSize != 50 || cfg.BookPlies != 8 {
		t.Errorf("batch defaults = %d/%d, want 50/8", cfg.BatchChunkSize, cfg.BookPlies)
	}
	if cfg.TacticalThreshold != 0.4 {
		t.Errorf("TacticalThreshold = %v, want 0.4", cfg.TacticalThreshold)
	}
	if cfg.EvalCacheTTL != 24*time.Hour {
		t.Errorf("EvalCacheTTL = %v, want 24h", cfg.EvalCacheTTL)
	}
}

func TestSetupReadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := strings.Join([]string{
		"SERVER_PORT=9090",
		"ENGINE_MODE=remote",
		"ENGINE_GRPC_ADDR=engine:8082",
		"BATCH_CONCURRENCY=8",
		"BATCH_ITEM_TIMEOUT=5s",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Setup(path)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}

	if cfg.ServerPort != "9090" {
		t.Errorf("ServerPort = %q, want 9090", cfg.ServerPort)
	}
	if cfg.EngineMode != EngineModeRemote || cfg.EngineGrpcAddr != "engine:8082" {
		t.Errorf("engine = %q@%q", cfg.EngineMode, cfg.EngineGrpcAddr)
	}
	if cfg.BatchConcurrency != 8 {
		t.Errorf("BatchConcurrency = %d, want 8", cfg.BatchConcurrency)
	}
	if cfg.BatchItemTimeout != 5*time.Second {
		t.Errorf("BatchItemTimeout = %v, want 5s", cfg.BatchItemTimeout)
	}
}

func TestSetupEnvOverridesDefaults(t *testing.T) {
	t.Setenv("ENGINE_POOL_SIZE", "2")

	cfg, err := Setup("")
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if cfg.EnginePoolSize != 2 {
		t.Errorf("EnginePoolSize = %d, want 2", cfg.EnginePoolSize)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			EngineMode:        EngineModeLocal,
			EnginePath:        "stockfish",
			EnginePoolSize:    1,
			EngineDepth:       10,
			BatchConcurrency:  1,
			BatchChunkSize:    1,
			BatchItemTimeout:  time.Second,
			TacticalThreshold: 0.4,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown mode", mutate: func(c *Config) { c.EngineMode = "cloud" }, wantErr: "ENGINE_MODE"},
		{name: "remote without addr", mutate: func(c *Config) { c.EngineMode = EngineModeRemote }, wantErr: "ENGINE_GRPC_ADDR"},
		{name: "empty pool", mutate: func(c *Config) { c.EnginePoolSize = 0 }, wantErr: "ENGINE_POOL_SIZE"},
		{name: "zero timeout", mutate: func(c *Config) { c.BatchItemTimeout = 0 }, wantErr: "BATCH_ITEM_TIMEOUT"},
		{name: "threshold above one", mutate: func(c *Config) { c.TacticalThreshold = 1.5 }, wantErr: "TACTICAL_THRESHOLD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: unexpected error %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	if _, err := NewLogger("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
	if _, err := NewLogger("debug"); err != nil {
		t.Fatalf("NewLogger(debug): %v", err)
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultFillsCodecAndJobs(t *testing.T) {
	cfg := Default()
	if cfg.Codec.Width != 1920 || cfg.Codec.Height != 1080 || cfg.Codec.FPS != 30 {
		t.Fatalf("unexpected geometry %dx%d@%d", cfg.Codec.Width, cfg.Codec.Height, cfg.Codec.FPS)
	}
	if cfg.Codec.ChunkSize != 4096 {
		t.Fatalf("chunk size = %d, want 4096", cfg.Codec.ChunkSize)
	}
	if cfg.Jobs.QueueCapacity != cfg.Jobs.MaxConcurrent*16 {
		t.Fatalf("queue capacity = %d, want %d", cfg.Jobs.QueueCapacity, cfg.Jobs.MaxConcurrent*16)
	}
	if cfg.Retention.MaxAge != 24*time.Hour {
		t.Fatalf("retention max age = %s", cfg.Retention.MaxAge)
	}
}

func TestLoadReadsYAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := []byte(`
server:
  port: 9000
codec:
  width: 1280
  height: 720
jobs:
  max_concurrent: 2
database:
  driver: sqlite
  path: test.db
`)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("F2V2F_CODEC_FPS", "24")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Codec.Width != 1280 || cfg.Codec.Height != 720 {
		t.Errorf("geometry = %dx%d", cfg.Codec.Width, cfg.Codec.Height)
	}
	if cfg.Codec.FPS != 24 {
		t.Errorf("fps from env = %d, want 24", cfg.Codec.FPS)
	}
	if cfg.Jobs.QueueCapacity != 32 {
		t.Errorf("queue capacity = %d, want 32", cfg.Jobs.QueueCapacity)
	}
	if cfg.Database.GetDSN() != "test.db" {
		t.Errorf("dsn = %q", cfg.Database.GetDSN())
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

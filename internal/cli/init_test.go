package cli

import (
	"context"
	"path/filepath"
	"testing"

	"denaro/internal/log"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("PORT", "9090")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "9090" || cfg.DataBackend != "memory" {
		t.Fatalf("unexpected config %+v", cfg)
	}

	t.Setenv("DATA_BACKEND", "postgres")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestOpenLedger(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("SQLITE_DB_PATH", filepath.Join(dir, "denaro.db"))
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("AMQP_URL", "")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	rt, err := OpenLedger(ctx, cfg, log.Discard())
	if err != nil {
		t.Fatalf("OpenLedger: %v", err)
	}
	if rt.AMQP != nil {
		t.Fatal("no broker configured")
	}
	if err := rt.Service.EnsurePeriod(ctx, "2025-01"); err != nil {
		t.Fatal(err)
	}
	if err := rt.Cleanup(); err != nil {
		t.Fatal(err)
	}

	rt, err = OpenLedger(ctx, cfg, log.Discard())
	if err != nil {
		t.Fatal(err)
	}
	defer rt.Cleanup()
	if got := rt.Service.Periods(); len(got) != 1 || got[0] != "2025-01" {
		t.Fatalf("periods after reopen = %v", got)
	}
}

func TestShutdownContext(t *testing.T) {
	ctx, cancel := ShutdownContext(context.Background(), log.Discard())
	cancel()
	<-ctx.Done()
}

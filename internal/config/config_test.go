package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("REMOTE_BASE_URL", "http://127.0.0.1:9090")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Fatalf("listen addr: got %q", cfg.ListenAddr)
	}
	if cfg.DefaultJurisdiction != "co" || cfg.DefaultPhase != 2 {
		t.Fatalf("defaults: %+v", cfg)
	}
}

func TestLoadRequiresRemoteBaseURL(t *testing.T) {
	t.Setenv("REMOTE_BASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without REMOTE_BASE_URL")
	}
}

func TestLoadRejectsUnknownPhase(t *testing.T) {
	t.Setenv("REMOTE_BASE_URL", "http://127.0.0.1:9090")
	t.Setenv("DEFAULT_PHASE", "3")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown phase")
	}
}

package main

import (
	"testing"

	"clipchimp/internal/config"
)

func TestApplyEnvOverrides(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.BasePort = 4810

	t.Setenv("CLIPCHIMP_HOST", "127.0.0.2")
	t.Setenv("CLIPCHIMP_PORT", "5999")
	applyEnvOverrides(&cfg)

	if cfg.Server.Host != "127.0.0.2" {
		t.Fatalf("host = %q", cfg.Server.Host)
	}
	if cfg.Server.BasePort != 5999 {
		t.Fatalf("port = %d", cfg.Server.BasePort)
	}
}

func TestApplyEnvOverridesIgnoresInvalidPort(t *testing.T) {
	cfg := config.Default()
	cfg.Server.BasePort = 4810

	t.Setenv("CLIPCHIMP_PORT", "not-a-port")
	applyEnvOverrides(&cfg)
	if cfg.Server.BasePort != 4810 {
		t.Fatalf("port = %d, want 4810 unchanged", cfg.Server.BasePort)
	}

	t.Setenv("CLIPCHIMP_PORT", "70000")
	applyEnvOverrides(&cfg)
	if cfg.Server.BasePort != 4810 {
		t.Fatalf("port = %d, want 4810 unchanged", cfg.Server.BasePort)
	}
}

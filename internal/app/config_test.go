package app

import "testing"

func TestConfigValidate(t *testing.T) {
	t.Run("requires server or practice", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.DataDir = t.TempDir()
		if err := cfg.Validate(); err == nil {
			t.Fatalf("expected an error without a server URL")
		}
		cfg.Practice = true
		if err := cfg.Validate(); err != nil {
			t.Fatalf("practice mode should not need a URL: %v", err)
		}
	})

	t.Run("rejects out-of-range secret", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Practice = true
		cfg.DataDir = t.TempDir()
		cfg.SandboxSecret = 10001
		if err := cfg.Validate(); err == nil {
			t.Fatalf("expected an error for a secret above the range")
		}
	})

	t.Run("rejects unknown theme", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Practice = true
		cfg.DataDir = t.TempDir()
		cfg.StyleVariant = "vaporwave"
		if err := cfg.Validate(); err == nil {
			t.Fatalf("expected an error for an unknown theme")
		}
	})

	t.Run("fills defaults", func(t *testing.T) {
		cfg := Config{Practice: true, DataDir: t.TempDir(), SandboxSecret: 55}
		if err := cfg.Validate(); err != nil {
			t.Fatalf("validate: %v", err)
		}
		if cfg.SandboxTimeout <= 0 || cfg.RequestTimeout <= 0 {
			t.Fatalf("expected timeout defaults, got %+v", cfg)
		}
		if cfg.StyleVariant != "deep_sea" {
			t.Fatalf("expected default theme, got %q", cfg.StyleVariant)
		}
	})
}

package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/Skelligg/htf-collide/internal/sandbox"
)

// Config controls runtime behavior for the TUI client.
type Config struct {
	BaseURL      string `env:"HTF_BASE_URL"`
	Practice     bool   `env:"HTF_PRACTICE"`
	PracticeAddr string `env:"HTF_PRACTICE_ADDR" envDefault:"127.0.0.1:0"`
	PackPath     string `env:"HTF_PACK"`

	DataDir string `env:"HTF_DATA_DIR"`
	LogPath string `env:"HTF_LOG"`
	Debug   bool   `env:"HTF_DEBUG"`

	SandboxSecret  int           `env:"HTF_SANDBOX_SECRET" envDefault:"55"`
	SandboxTimeout time.Duration `env:"HTF_SANDBOX_TIMEOUT" envDefault:"5s"`
	RequestTimeout time.Duration `env:"HTF_REQUEST_TIMEOUT" envDefault:"15s"`

	ASCIIOnly    bool   `env:"HTF_ASCII"`
	StyleVariant string `env:"HTF_THEME" envDefault:"deep_sea"`
}

func DefaultConfig() Config {
	return Config{
		PracticeAddr:   "127.0.0.1:0",
		SandboxSecret:  55,
		SandboxTimeout: 5 * time.Second,
		RequestTimeout: 15 * time.Second,
		StyleVariant:   "deep_sea",
	}
}

// LoadConfig reads configuration from the environment on top of defaults.
// Callers apply their own overrides and then Validate.
func LoadConfig() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if !c.Practice && c.BaseURL == "" {
		return errors.New("a quest server URL is required unless practice mode is enabled")
	}
	if c.Practice && c.PracticeAddr == "" {
		c.PracticeAddr = "127.0.0.1:0"
	}

	if c.SandboxSecret < sandbox.SecretMin || c.SandboxSecret > sandbox.SecretMax {
		return fmt.Errorf("sandbox secret %d outside [%d, %d]", c.SandboxSecret, sandbox.SecretMin, sandbox.SecretMax)
	}
	if c.SandboxTimeout <= 0 {
		c.SandboxTimeout = 5 * time.Second
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 15 * time.Second
	}

	switch c.StyleVariant {
	case "", "deep_sea", "retro_terminal":
	default:
		return fmt.Errorf("invalid style variant %q", c.StyleVariant)
	}
	if c.StyleVariant == "" {
		c.StyleVariant = "deep_sea"
	}

	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return errors.New("cannot resolve user home directory")
		}
		c.DataDir = filepath.Join(home, ".local", "share", "htf-collide")
	}

	return nil
}

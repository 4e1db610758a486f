package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Skelligg/htf-collide/internal/app"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("htf-collide", flag.ContinueOnError)
	fs.StringVar(&cfg.BaseURL, "server", cfg.BaseURL, "quest server base URL")
	fs.BoolVar(&cfg.Practice, "practice", cfg.Practice, "run against a built-in local quest server")
	fs.StringVar(&cfg.PackPath, "pack", cfg.PackPath, "quest pack YAML for practice mode")
	fs.BoolVar(&cfg.ASCIIOnly, "ascii", cfg.ASCIIOnly, "draw borders with plain ASCII")
	fs.StringVar(&cfg.StyleVariant, "theme", cfg.StyleVariant, "deep_sea or retro_terminal")
	fs.StringVar(&cfg.LogPath, "log", cfg.LogPath, "write JSON event log to this file")
	fs.StringVar(&cfg.DataDir, "data", cfg.DataDir, "directory for local progress state")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "verbose UI logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			fmt.Fprintf(os.Stderr, "shutdown: %v\n", cerr)
		}
	}()

	return a.Run(ctx)
}

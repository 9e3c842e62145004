package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"mehnda-chinji/internal/app"
	"mehnda-chinji/internal/cli"
	"mehnda-chinji/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCommand(func(ctx context.Context, configFile string) (*app.App, error) {
		cfg, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		logger := app.NewLogger(cfg.Log.Level)
		logger.SetOutput(os.Stderr)
		return app.Open(ctx, cfg, logger)
	})

	if err := root.ExecuteContext(ctx); err != nil {
		if ctx.Err() == context.Canceled {
			fmt.Fprintln(os.Stderr, "\nOperation cancelled by user")
		}
		os.Exit(1)
	}
}

package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/xenking/kart-console/internal/app"
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "kart:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := app.LoadConfig(os.Args[1:])
	if err != nil {
		return err
	}

	lg, err := app.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = lg.Sync() }()

	if err := app.Run(context.Background(), lg, cfg, os.Stdin, os.Stdout); err != nil {
		lg.Error("Run failed", zap.Error(err))
		return err
	}
	return nil
}

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewApp(os.Stdout, os.Stderr).Run(ctx, os.Args); err != nil {
		slog.Error("quotevote-ai failed", "error", err)
		os.Exit(1)
	}
}

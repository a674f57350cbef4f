package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/bnb-chain/keys-hub/app"
)

func main() {
	app.InitFlags()
	cfg := app.LoadConfig()
	if cfg == nil {
		app.PrintUsage("keys-syncer")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app.New(ctx, cfg).Syncer.StartLoop(ctx)
}

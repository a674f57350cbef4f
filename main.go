package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/bnb-chain/keys-hub/app"
	"github.com/bnb-chain/keys-hub/logging"
	"github.com/bnb-chain/keys-hub/restapi"
	"github.com/bnb-chain/keys-hub/service"
)

func main() {
	app.InitFlags()
	cfg := app.LoadConfig()
	if cfg == nil {
		app.PrintUsage("keys-hub")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := app.New(ctx, cfg)
	service.RegistrySvc = service.NewRegistryService(a.DB, a.Syncer.Registry(), cfg)

	go a.Syncer.StartLoop(ctx)
	if err := restapi.NewServer(&cfg.ServerConfig).Serve(ctx); err != nil {
		logging.Logger.Errorf("keys api stopped, err=%s", err.Error())
	}
}

package main

import (
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"tokensale/config"
	"tokensale/core"
	"tokensale/native/crowdsale"
	"tokensale/observability"
	"tokensale/observability/logging"
	"tokensale/rpc"
	"tokensale/storage"
)

func main() {
	configPath := flag.String("config", "./config.toml", "path to the node configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup("tokensaled", cfg.Environment)

	db, err := storage.Open(cfg.StorageBackend, filepath.Join(cfg.DataDir, cfg.StorageBackend))
	if err != nil {
		logger.Error("open storage", "backend", cfg.StorageBackend, "err", err)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("close storage", "err", err)
		}
	}()

	node, err := core.NewNode(db, core.Config{
		Admin:        cfg.Admin(),
		SaleAccount:  cfg.Sale(),
		VaultAccount: cfg.Vault(),
		Strategy:     crowdsale.Strategy(cfg.LockStrategy),
		Params: crowdsale.Params{
			Rate:         cfg.Rate,
			MinPurchase:  cfg.MinPurchaseAmount(),
			MaxPurchase:  cfg.MaxPurchaseAmount(),
			LockDuration: cfg.LockDurationSeconds,
		},
	})
	if err != nil {
		logger.Error("build node", "err", err)
		os.Exit(1)
	}
	node.SetExternalEmitter(observability.NewEventSink(logger))

	server := rpc.NewServer(node, logger)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(cfg.RPCAddress)
	}()
	logger.Info("node ready", "strategy", cfg.LockStrategy, "rpc", cfg.RPCAddress)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("rpc server stopped", "err", err)
			os.Exit(1)
		}
	}
}

package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/parlorgames/byline/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config load failed:", err)
	}

	logger := cfg.Logging.Logger()
	logger.Info(
		"byline starting",
		"version", cfg.Version,
		"addr", cfg.Server.Addr(),
		"env", cfg.Env(),
	)

	server, err := NewServer(cfg)
	if err != nil {
		logger.Error("server init failed", "error", err)
		os.Exit(1)
	}

	if err := server.Start(); err != nil {
		logger.Error("server start failed", "error", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	if err := server.Shutdown(cfg.ShutdownTimeoutDuration()); err != nil {
		logger.Error("shutdown failed", "error", err)
	}

	logger.Info("byline stopped")
}

package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/afuentes/mktpulse/internal/config"
	"github.com/afuentes/mktpulse/internal/httpx"
	"github.com/afuentes/mktpulse/internal/loader"
	"github.com/afuentes/mktpulse/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config error", slog.String("err", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	ld := loader.New(cfg.HTTPTimeout)
	p := pipeline.New(ld, logger, cfg)
	r := httpx.NewRouter(logger, p)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("starting server", slog.String("port", cfg.Port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", slog.String("err", err.Error()))
		os.Exit(1)
	}
}

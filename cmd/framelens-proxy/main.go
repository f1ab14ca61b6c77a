// framelens-proxy: normalization proxy between capture clients and a
// multimodal inference service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/teslashibe/framelens/internal/config"
	"github.com/teslashibe/framelens/internal/log"
	"github.com/teslashibe/framelens/pkg/analysis"
	"github.com/teslashibe/framelens/pkg/inference"
	"github.com/teslashibe/framelens/pkg/metrics"
	"github.com/teslashibe/framelens/pkg/web"
)

var (
	version = "1.0.0"
	port    = flag.String("port", "", "HTTP server port (overrides PORT)")
	debug   = flag.Bool("debug", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *port != "" {
		cfg.Port = *port
	}

	level := cfg.LogLevel
	if *debug {
		level = "debug"
	}
	log.Init(level)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	opts := []inference.Option{
		inference.WithAPIKey(cfg.APIKey),
		inference.WithTimeout(cfg.InferenceTimeout),
		inference.WithLogger(log.L()),
	}
	if cfg.Model != "" {
		opts = append(opts, inference.WithModel(cfg.Model))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, inference.WithBaseURL(cfg.BaseURL))
	}

	// One provider handle serves every request.
	provider, err := inference.New(cfg.Provider, opts...)
	if err != nil {
		log.Error("create inference provider", "provider", cfg.Provider, "error", err)
		os.Exit(1)
	}
	defer provider.Close()

	analyzer := analysis.NewAnalyzer(provider,
		analysis.WithLogger(log.L()),
		analysis.WithObserver(metrics.Observer{}),
	)

	server := web.NewServer(analyzer, web.Config{
		AllowedOrigin: cfg.AllowedOrigin,
		BodyLimit:     cfg.BodyLimit(),
		Debug:         *debug,
		Version:       version,
		Logger:        log.L(),
	})

	log.Info("framelens proxy starting",
		"version", version,
		"provider", provider.Name(),
		"port", cfg.Port,
		"origin", cfg.AllowedOrigin,
		"body_limit_mb", cfg.BodyLimitMB,
	)

	go func() {
		if err := server.Listen(":" + cfg.Port); err != nil {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("shutdown error", "error", err)
	}
}

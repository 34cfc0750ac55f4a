package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "Path to a YAML config file")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	clientDir := flag.String("client", "", "Path to the tracker client directory (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path; \"none\" runs without accounts")
	flag.Parse()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *clientDir != "" {
		cfg.ClientDir = *clientDir
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	SessionIdleTimeout = cfg.SessionIdle

	log := NewLogger(cfg.LogLevel)

	var db *DB
	if cfg.DBPath != "none" {
		db, err = OpenDB(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open database %s: %w", cfg.DBPath, err)
		}
		defer db.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := NewHub(cfg, db, log)
	go hub.Run()
	go hub.sessions.RunReaper(ctx)

	if *configPath != "" {
		go func() {
			err := WatchConfig(ctx, *configPath, log, func(next Config) {
				// listen address, database and client dir need a restart
				next.Addr, next.DBPath, next.ClientDir = cfg.Addr, cfg.DBPath, cfg.ClientDir
				hub.ApplyConfig(next)
			})
			if err != nil {
				log.Warn("config watch disabled", "err", err)
			}
		}()
	}

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           SetupRoutes(hub, cfg.ClientDir),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("server starting", "addr", cfg.Addr, "client", cfg.ClientDir, "db", cfg.DBPath)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	server.Shutdown(shutdownCtx)
	hub.Shutdown()
	return nil
}

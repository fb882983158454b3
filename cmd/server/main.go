package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/mholzi/spyster/internal/config"
	"github.com/mholzi/spyster/internal/content"
	"github.com/mholzi/spyster/internal/engine"
	"github.com/mholzi/spyster/internal/server"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- Content catalog ---
	catalog, err := content.Load()
	if err != nil {
		return fmt.Errorf("loading content catalog: %w", err)
	}
	logger.Info("content catalog loaded", "packs", catalog.PackIDs())

	// --- Game engine ---
	eng, err := engine.New(engine.Options{
		Logger:        logger,
		Catalog:       catalog,
		PackID:        cfg.PackID,
		Rounds:        cfg.Rounds,
		RoundDuration: time.Duration(cfg.RoundSeconds) * time.Second,
		VoteDuration:  time.Duration(cfg.VoteSeconds) * time.Second,
		MinPlayers:    cfg.MinPlayers,
	})
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}

	hub := server.NewHub()
	eng.SetSinks(engine.Sinks{
		Broadcast: hub.Broadcast,
		Removed:   hub.Kick,
	})

	// --- HTTP server ---
	srv := server.New(server.Options{
		Addr:            cfg.HTTPAddr,
		Logger:          logger,
		Engine:          eng,
		Hub:             hub,
		OpsPasscodeHash: cfg.OpsPasscodeHash,
		SPADir:          cfg.SPADir,
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := eng.Run(gctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

// Package bootstrap wires Config, Store, Dispatcher, and Frontend together
// and owns the process lifecycle, per spec.md §4.4.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"google.golang.org/grpc"

	"github.com/jeanlucthumm/reddit-scheduler/internal/config"
	"github.com/jeanlucthumm/reddit-scheduler/internal/dispatcher"
	"github.com/jeanlucthumm/reddit-scheduler/internal/frontend"
	"github.com/jeanlucthumm/reddit-scheduler/internal/reddit"
	"github.com/jeanlucthumm/reddit-scheduler/internal/schedulerpb"
	"github.com/jeanlucthumm/reddit-scheduler/internal/store"
)

// Run loads configuration, starts the Store, Dispatcher, and gRPC Frontend
// in that order, notifies the supervising service manager once the RPC
// server is accepting connections, and blocks until SIGINT/SIGTERM.
func Run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("bootstrap: config: %w", err)
	}
	logger.Info("bootstrap: config loaded", "port", cfg.Port, "dry_run", cfg.DryRun)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Store ──────────────────────────────────────────────────────────────
	st := store.New(cfg.DBPath, logger.With("component", "store"))
	storeErr := make(chan error, 1)
	go func() {
		storeErr <- st.Run(ctx)
	}()

	// ── Remote API client ────────────────────────────────────────────────────
	client := reddit.NewClient(ctx, reddit.Credentials{
		Username:     cfg.Username,
		Password:     cfg.Password,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
	})

	// ── Dispatcher ────────────────────────────────────────────────────────────
	disp := dispatcher.New(st, client, dispatcher.Config{
		Interval: cfg.PostInterval,
		DryRun:   cfg.DryRun,
	}, logger.With("component", "dispatcher"))
	dispatcherErr := make(chan error, 1)
	go func() {
		dispatcherErr <- disp.Run(ctx)
	}()

	// ── Frontend (gRPC) ───────────────────────────────────────────────────────
	lis, err := net.Listen("tcp", fmt.Sprintf("[::]:%d", cfg.Port))
	if err != nil {
		return fmt.Errorf("bootstrap: listen on port %d: %w", cfg.Port, err)
	}

	gs := grpc.NewServer()
	schedulerpb.RegisterSchedulerServer(gs, frontend.New(st, client, logger.With("component", "frontend")))

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("bootstrap: frontend listening", "addr", lis.Addr())
		if err := gs.Serve(lis); err != nil {
			serverErr <- fmt.Errorf("frontend: serve: %w", err)
		}
	}()

	// ── Readiness ─────────────────────────────────────────────────────────────
	if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		logger.Warn("bootstrap: sd_notify failed", "error", err)
	} else if !ok {
		logger.Debug("bootstrap: not running under a supervisor that watches NOTIFY_SOCKET")
	}

	// ── Wait for shutdown or an unexpected component failure ────────────────
	var shutdownErr error
	select {
	case <-ctx.Done():
		logger.Info("bootstrap: shutdown signal received")
	case err := <-storeErr:
		// The store has already stopped itself; nothing left to quit.
		stop()
		return fmt.Errorf("bootstrap: store stopped unexpectedly: %w", err)
	case err := <-dispatcherErr:
		shutdownErr = fmt.Errorf("bootstrap: dispatcher stopped unexpectedly: %w", err)
	case err := <-serverErr:
		shutdownErr = fmt.Errorf("bootstrap: %w", err)
	}

	// stop cancels the ctx shared with the Store and Dispatcher, so both
	// exit through their own ctx.Done() case instead of being sent KindQuit:
	// Run's select loop would have nothing left reading s.cmds once it had
	// already returned on ctx.Done(), and KindQuit would just block out
	// Submit's full lock timeout (spec §4.4's "sends quit to the Store" is
	// this cancellation, not a literal command in the cancel-by-signal path).
	stop()
	gs.GracefulStop()

	select {
	case <-storeErr:
	case <-time.After(10 * time.Second):
		logger.Warn("bootstrap: store did not stop within the shutdown timeout")
	}

	if shutdownErr != nil {
		return shutdownErr
	}
	logger.Info("bootstrap: shutdown complete")
	return nil
}

// EduApp fixture server
//
// Serves an in-memory stand-in for the EduApp frontend and API with the same
// element ids, labels and routes the smoke suite drives. Use it to try
// edusmoke without the real app:
//
//	go run ./cmd/eduapp-fixture --addr :5173
//	go run ./cmd/edusmoke run --scenario register
//
// The admin account is admin@gmail.com / abc123. State is lost on exit.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/thesyncim/edusmoke/cmd/eduapp-fixture/server"
	"github.com/thesyncim/edusmoke/internal/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		addr  string
		debug bool
	)

	cmd := &cobra.Command{
		Use:           "eduapp-fixture",
		Short:         "Serve an in-memory EduApp for smoke testing",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := logger.Init("info", "text", "", debug)
			if err != nil {
				return err
			}

			cfg := server.DefaultConfig()
			cfg.Addr = addr
			cfg.Logger = log.Logger
			srv, err := server.NewServer(cfg)
			if err != nil {
				return fmt.Errorf("create server: %w", err)
			}

			bound, err := srv.Start()
			if err != nil {
				return fmt.Errorf("start server: %w", err)
			}
			log.Info("fixture ready", "addr", bound, "url", srv.URL(), "admin", "admin@gmail.com")

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Error("shutdown", "err", err)
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":5173", "Listen address")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug-level logging")
	return cmd
}

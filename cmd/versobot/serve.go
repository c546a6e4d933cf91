package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/versolabs/versobot/internal/app"
	"github.com/versolabs/versobot/internal/config"
	"github.com/versolabs/versobot/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Arranca el servidor HTTP",
	Long: `Arranca el servidor HTTP que expone la generación de poemas, el
catálogo de estilos y el historial.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := cfg.ValidateForServe(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	srv := server.New(server.Config{
		Addr:      cfg.HTTPAddr,
		Generator: a.Generator,
		History:   a.Store,
	})

	// Run server in background
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(ctx)
	}()

	// Wait for shutdown signal or error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	slog.Info("shutting down...")
	cancel()
	return <-errCh
}

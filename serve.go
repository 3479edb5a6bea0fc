package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ai_comment_assistant/generator"
	"ai_comment_assistant/metrics"
	"ai_comment_assistant/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Serves the generateComment message endpoint, post extraction, the settings API and options page.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = cfg.ServerAddr
		}

		store, closeStore, err := buildStore(cfg)
		if err != nil {
			return err
		}
		defer closeStore()
		if err := seedSettings(cmd.Context(), cfg, store, logger); err != nil {
			return err
		}

		recorder := metrics.New()
		client := buildClient(cfg, logger.Named("generator"), generator.WithObserver(recorder))
		s, err := server.New(client, store,
			server.WithLogger(logger.Named("http")),
			server.WithRecorder(recorder),
			server.WithTimeout(cfg.RequestTimeout.Std()),
		)
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              addr,
			Handler:           s.Routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("starting web server", zap.String("addr", addr), zap.String("settings_backend", cfg.SettingsBackend))
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			logger.Info("shutting down", zap.String("signal", sig.String()))
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				logger.Warn("graceful shutdown did not complete", zap.Error(err))
				if err := srv.Close(); err != nil {
					return fmt.Errorf("close server: %w", err)
				}
			}
			logger.Info("server stopped")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "listen address (overrides config server_addr)")
}

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

	"github.com/jacky-htg/warm-transfer/backend/internal/factory"
	"github.com/jacky-htg/warm-transfer/backend/internal/httpapi"
	"github.com/jacky-htg/warm-transfer/backend/internal/summary"
	"github.com/jacky-htg/warm-transfer/backend/internal/transfer"
	"github.com/jacky-htg/warm-transfer/libs/config"
	"github.com/jacky-htg/warm-transfer/libs/livekit"
	"github.com/jacky-htg/warm-transfer/libs/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		addr      string
		logLevel  string
		logFormat string
		llmVendor string
	)
	cmd := &cobra.Command{
		Use:          "warm-transfer-server",
		Short:        "LiveKit warm transfer API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Load config from environment (with sane defaults), then apply flags.
			cfg := config.Load()
			if cmd.Flags().Changed("addr") {
				cfg.HTTPAddr = addr
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if cmd.Flags().Changed("log-format") {
				cfg.LogFormat = logFormat
			}
			if cmd.Flags().Changed("llm") {
				cfg.LLMVendor = llmVendor
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8000", "HTTP listen address (overrides HTTP_ADDR/PORT)")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	cmd.Flags().StringVar(&logFormat, "log-format", "console", "log format: console or json")
	cmd.Flags().StringVar(&llmVendor, "llm", "openai", "summary backend: openai, ollama or keyword")
	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	srv, err := buildServer(cfg, log)
	if err != nil {
		return err
	}

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("warm transfer api listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// buildServer wires vendors into the API. Missing LiveKit or LLM settings are
// not fatal: the affected endpoints answer with a configuration error.
func buildServer(cfg *config.Config, log *zap.Logger) (*httpapi.Server, error) {
	llm, err := factory.NewLLM(cfg)
	switch {
	case errors.Is(err, factory.ErrLLMNotConfigured):
		log.Warn("OPENAI_API_KEY not set; /generate-summary disabled, transfers use keyword summaries")
		llm = nil
	case err != nil:
		return nil, fmt.Errorf("new llm: %w", err)
	}
	sum := summary.New(llm, log.Named("summary"))

	rooms, roomsErr := factory.NewRoomService(cfg)
	if roomsErr != nil {
		log.Warn("LiveKit not configured", zap.String("missing", cfg.MissingLiveKit()))
	}

	tokens := livekit.NewTokenIssuer(cfg.LiveKitAPIKey, cfg.LiveKitAPISecret, cfg.TokenTTL)
	transfers := transfer.New(rooms, tokens, sum, cfg.LiveKitURL, roomsErr, log.Named("transfer"))

	return &httpapi.Server{
		Config:     cfg,
		Rooms:      rooms,
		Tokens:     tokens,
		Summarizer: sum,
		Transfers:  transfers,
		Log:        log.Named("http"),
	}, nil
}

package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Tusharkanta407/HoneyPot/internal/config"
	"github.com/Tusharkanta407/HoneyPot/internal/detect"
	"github.com/Tusharkanta407/HoneyPot/internal/dispatch"
	"github.com/Tusharkanta407/HoneyPot/internal/extract"
	"github.com/Tusharkanta407/HoneyPot/internal/honeypot"
	"github.com/Tusharkanta407/HoneyPot/internal/llm"
	"github.com/Tusharkanta407/HoneyPot/internal/persona"
	"github.com/Tusharkanta407/HoneyPot/internal/policy"
	"github.com/Tusharkanta407/HoneyPot/internal/report"
	"github.com/Tusharkanta407/HoneyPot/internal/server"
	"github.com/Tusharkanta407/HoneyPot/internal/session"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the honeypot HTTP server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "HTTP server port (overrides HONEYPOT_PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	if servePort > 0 {
		cfg.Port = servePort
	}

	provider, err := llm.Resolve(cfg.LLMProvider, cfg.LLMAPIKey, cfg.LLMBaseURL)
	if err != nil {
		return fmt.Errorf("resolving LLM provider: %w", err)
	}
	if provider == nil {
		log.Warn().Msg("no LLM provider configured — using rule-based detection and scripted replies")
	}

	extractorOpts := []extract.Option{
		extract.WithMinAccountDigits(cfg.MinAccountLen),
	}
	if cfg.PatternFile != "" {
		extractorOpts = append(extractorOpts, extract.WithPatternFile(cfg.PatternFile))
	}
	extractor, err := extract.New(extractorOpts...)
	if err != nil {
		return fmt.Errorf("building extractor: %w", err)
	}

	reports, err := report.NewStore(cfg.ReportsDBPath())
	if err != nil {
		return fmt.Errorf("initializing report archive: %w", err)
	}
	defer reports.Close()

	engine := honeypot.New(honeypot.Config{
		Store:       session.NewStore(),
		Classifier:  detect.NewClassifier(provider, cfg.LLMModel),
		Personas:    persona.NewLibraryStore(),
		Generator:   persona.NewGenerator(provider, cfg.LLMModel),
		Extractor:   extractor,
		Termination: policy.NewTermination(cfg.MaxMessages),
		Dispatcher: dispatch.NewDispatcher(cfg.CallbackURL,
			dispatch.WithMaxAttempts(cfg.CallbackRetries)),
		Reports: reports,
	})

	if len(cfg.APIKeys) == 0 {
		log.Warn().Msg("HONEYPOT_API_KEYS not set — API endpoints are unauthenticated")
	}

	srv := server.NewServer(engine, cfg.APIKeys,
		server.WithReportStore(reports),
		server.WithVersion(resolvedVersion()),
	)

	addr := fmt.Sprintf(":%d", cfg.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      srv.Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info().
		Str("addr", addr).
		Str("callback_url", cfg.CallbackURL).
		Int("max_messages", cfg.MaxMessages).
		Bool("llm", provider != nil).
		Msg("honeypot_serve_started")

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown_signal_received")
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	// Let in-flight callback deliveries finish before exiting.
	engine.Wait()
	log.Info().Msg("server_stopped")
	return nil
}

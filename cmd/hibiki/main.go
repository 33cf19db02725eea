package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"hibiki/common/environment"
	"hibiki/common/version"
	"hibiki/internal/engine"
	"hibiki/internal/gateway"
	"hibiki/internal/handlers"
	"hibiki/internal/intent"
	"hibiki/internal/nlp"
	"hibiki/internal/observability"
	"hibiki/internal/store"
	"hibiki/internal/validate"
)

func main() {
	// A .env file is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	observability.Setup(
		environment.StringOr("LOG_LEVEL", "info"),
		environment.StringOr("LOG_FORMAT", "text"),
	)

	slog.Info("hibiki starting", "version", version.Info())

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	addr := environment.StringOr("HIBIKI_ADDR", ":8420")
	dbPath := environment.StringOr("HIBIKI_DB_PATH", "./hibiki.db")
	rulesFile := environment.StringOr("HIBIKI_RULES_FILE", "")
	confirmTTL := environment.DurationOr("HIBIKI_CONFIRM_TTL", 0)

	st, err := store.New(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	provider, err := buildProvider(rulesFile)
	if err != nil {
		return err
	}

	eng := engine.New(provider, validate.New(), handlers.New(st))

	gw := gateway.New(eng, gateway.Config{
		ConfirmTTL: confirmTTL,
		Limiter:    nlp.NewRateLimiter(environment.IntOr("HIBIKI_RATE_LIMIT", nlp.DefaultRateLimit), 0),
	})

	mux := http.NewServeMux()
	mux.Handle("/ws", gw.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-stop:
		slog.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
	}

	return nil
}

// buildProvider assembles the classification provider: the keyword matcher by
// default (with an optional rule file override), fronted by the language
// model when an API key is configured.
func buildProvider(rulesFile string) (intent.Provider, error) {
	table := intent.DefaultTable()
	if rulesFile != "" {
		data, err := os.ReadFile(rulesFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read rules file: %w", err)
		}
		table, err = intent.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse rules file %s: %w", rulesFile, err)
		}
		slog.Info("loaded classification rules", "file", rulesFile, "rules", len(table.Rules()))
	}
	keyword := engine.NewKeywordProvider(table)

	apiKey, ok := environment.String("HIBIKI_NLP_API_KEY")
	if !ok || apiKey == "" {
		return keyword, nil
	}

	model := nlp.New(nlp.Config{
		APIKey:  apiKey,
		BaseURL: environment.StringOr("HIBIKI_NLP_ENDPOINT", ""),
		Model:   environment.StringOr("HIBIKI_NLP_MODEL", ""),
	})
	slog.Info("language model classification enabled")
	return engine.NewFallbackProvider(model, keyword), nil
}

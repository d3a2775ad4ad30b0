package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fkarika/classeval/cmd/server/internal/api"
	"github.com/fkarika/classeval/cmd/server/internal/audit"
	"github.com/fkarika/classeval/cmd/server/internal/config"
	"github.com/fkarika/classeval/cmd/server/internal/evaluator"
	"github.com/fkarika/classeval/cmd/server/internal/pipeline"
	"github.com/fkarika/classeval/cmd/server/internal/prompt"
	"github.com/fkarika/classeval/cmd/server/internal/transcribe"
	"github.com/fkarika/classeval/pkg/logger"
)

// offlineClient stands in for the evaluation model in demo mode, where no
// API key is configured and the live pipeline path must never run.
type offlineClient struct{}

func (offlineClient) Evaluate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return "", fmt.Errorf("evaluation model disabled in demo mode")
}

func main() {
	logInstance, err := logger.Init(logger.Config{
		Level:       os.Getenv("LOG_LEVEL"),
		Environment: os.Getenv("ENV"),
		WithSource:  !strings.EqualFold(os.Getenv("ENV"), "production"),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	appLogger := logInstance.With("component", "eval-server")

	cfg, err := config.LoadConfig()
	if err != nil {
		appLogger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := config.ValidateConfig(cfg); err != nil {
		appLogger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	appLogger.Info("configuration loaded", "env", cfg.Server.Env, "port", cfg.Server.Port)
	if cfg.IsDevelopment() {
		fmt.Println(cfg.PrintConfig())
	}

	promptLibrary, err := prompt.NewLibrary(cfg.Prompt.ConfigPath)
	if err != nil {
		appLogger.Error("prompt library init failed", "error", err)
		os.Exit(1)
	}

	// Transcription stack: a whisper HTTP client probed by a health checker,
	// with the mock transcriber as degradation fallback.
	whisperClient := transcribe.NewWhisperHTTP(cfg.Whisper.APIURL, cfg.Whisper.Model, cfg.Whisper.Language, cfg.Whisper.FallbackModels...)
	healthChecker := transcribe.NewHealthChecker(
		whisperClient,
		time.Duration(cfg.Whisper.CheckInterval)*time.Second,
		cfg.Whisper.FailThreshold,
		logInstance.With("component", "health-checker"),
	)
	degradation := transcribe.NewDegradationController(
		whisperClient,
		&transcribe.Mock{},
		healthChecker,
		logInstance.With("component", "degradation"),
	)

	var llmClient evaluator.Client
	if cfg.Demo.Enabled && cfg.LLM.APIKey == "" {
		appLogger.Warn("demo mode active without LLM API key, live evaluation disabled")
		llmClient = offlineClient{}
	} else {
		llmClient, err = evaluator.NewHTTPClient(evaluator.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
		})
		if err != nil {
			appLogger.Error("evaluator client init failed", "error", err)
			os.Exit(1)
		}
	}

	evalPipeline := pipeline.New(
		degradation,
		llmClient,
		promptLibrary,
		transcribe.Options{Model: cfg.Whisper.Model, Language: cfg.Whisper.Language},
		logInstance.With("component", "pipeline"),
	)

	auditLogger := audit.NewAuditLogger(cfg.Audit.LogPath)
	evalHandler := api.NewEvaluationHandler(evalPipeline, auditLogger, cfg)

	router := api.NewRouter(cfg, evalHandler, degradation)

	srv := &http.Server{
		Addr:    cfg.GetServerAddr(),
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		healthChecker.Start(ctx)
		return nil
	})

	g.Go(func() error {
		appLogger.Info("server starting", "addr", srv.Addr, "env", cfg.Server.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		appLogger.Info("shutdown signal received, shutting down server...")
		healthChecker.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		appLogger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	appLogger.Info("server shutdown complete")
}

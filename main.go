package main

import (
	"context"
	"errors"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/medinfo/medicines-api/config"
	"github.com/medinfo/medicines-api/data"
	"github.com/medinfo/medicines-api/index"
	"github.com/medinfo/medicines-api/logging"
	"github.com/medinfo/medicines-api/medicines"
	"github.com/medinfo/medicines-api/orchestrator"
	"github.com/medinfo/medicines-api/providers"
	"github.com/medinfo/medicines-api/scheduler"
	"github.com/medinfo/medicines-api/search"
	"github.com/medinfo/medicines-api/server"
	"github.com/medinfo/medicines-api/shortcut"
)

func main() {
	// .env is optional; real deployments configure through the environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.LogLevel, cfg.LogDir)

	embedder, err := providers.NewOpenAIEmbedder(providers.OpenAIConfig{
		APIKey:  cfg.EmbeddingAPIKey,
		BaseURL: cfg.EmbeddingBaseURL,
		Model:   cfg.EmbeddingModel,
	})
	if err != nil {
		logging.Error("Failed to create embedding provider", "error", err)
		os.Exit(1)
	}

	matcher := shortcut.NewMatcher()
	if cfg.RulesFile != "" {
		rules, err := shortcut.LoadRules(cfg.RulesFile)
		if err != nil {
			logging.Error("Failed to load shortcut rules", "error", err, "file", cfg.RulesFile)
			os.Exit(1)
		}
		matcher, err = shortcut.NewMatcherWithRules(rules)
		if err != nil {
			logging.Error("Invalid shortcut rules", "error", err, "file", cfg.RulesFile)
			os.Exit(1)
		}
	}

	container := data.NewContainer()
	container.SetServerStartTime(time.Now())

	loader := medicines.NewLoader(
		medicines.NewFileSource(cfg.DataDir),
		index.NewBuilder(embedder),
	)

	sched := scheduler.NewScheduler(container, loader)
	if err := sched.Start(); err != nil {
		logging.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	ranker := search.NewCosineRanker(embedder)

	opts := []orchestrator.Option{orchestrator.WithMinScore(cfg.MinScore)}
	if cfg.TranslateURL != "" {
		opts = append(opts, orchestrator.WithTranslator(providers.NewHTTPTranslator(providers.TranslatorConfig{
			BaseURL: cfg.TranslateURL,
			APIKey:  cfg.TranslateAPIKey,
			Timeout: cfg.ProviderTimeout,
		})))
	}
	if cfg.QAEndpoint != "" {
		opts = append(opts, orchestrator.WithExtractor(providers.NewHTTPAnswerExtractor(providers.ExtractorConfig{
			Endpoint: cfg.QAEndpoint,
			APIKey:   cfg.QAAPIKey,
			Timeout:  cfg.ProviderTimeout,
		})))
	}

	orch := orchestrator.New(container, ranker, matcher, cfg.TopK, opts...)

	srv := server.NewServer(cfg, container, orch, ranker)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Shutdown error", "error", err)
	}
}

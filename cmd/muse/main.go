package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/skaldic/muse/internal/agent"
	"github.com/skaldic/muse/internal/api"
	"github.com/skaldic/muse/internal/capture"
	"github.com/skaldic/muse/internal/config"
	"github.com/skaldic/muse/internal/metrics"
	"github.com/skaldic/muse/internal/novelty"
	"github.com/skaldic/muse/internal/pipeline"
	"github.com/skaldic/muse/internal/provider"
	"github.com/skaldic/muse/internal/sink"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfgPath := os.Getenv("MUSE_CONFIG")
	explicit := cfgPath != ""
	if !explicit {
		cfgPath = "configs/muse.json"
	}
	cfg, err := config.Load(cfgPath)
	usedDefaults := false
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			cfg = config.Default()
			usedDefaults = true
		} else {
			boot, _ := zap.NewDevelopment()
			boot.Fatal("failed to load config", zap.String("path", cfgPath), zap.Error(err))
		}
	}

	logger := newLogger(cfg.Server.LogLevel)
	defer logger.Sync()

	logger.Info("Starting Muse...")
	if usedDefaults {
		logger.Info("no config file found, using defaults", zap.String("path", cfgPath))
	} else {
		logger.Info("Config loaded", zap.String("path", cfgPath))
	}

	// Out-of-range settings are the only fatal condition past this point.
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}

	// Counters are shared by every stage, the router included.
	m := metrics.New()

	// Initialize provider router
	router := provider.NewRouter(m, logger)
	for _, pc := range cfg.Providers {
		provCfg := provider.Config{
			ID: pc.ID, Name: pc.Name, Type: pc.Type,
			Endpoint: pc.Endpoint, APIKey: pc.APIKey,
			Model: pc.Model, MaxTokens: pc.MaxTokens,
			SystemPrompt: pc.SystemPrompt, Timeout: pc.Timeout.Std(),
		}
		switch pc.Type {
		case "openai":
			router.Register(provider.NewOpenAIProvider(provCfg, logger))
		case "anthropic":
			router.Register(provider.NewAnthropicProvider(provCfg, logger))
		default:
			logger.Warn("unknown provider type", zap.String("id", pc.ID), zap.String("type", pc.Type))
		}
	}
	if cfg.Generation.DefaultProvider != "" {
		router.SetDefault(cfg.Generation.DefaultProvider)
	}
	for agentID, ids := range cfg.Generation.Fallbacks {
		router.SetFallbacks(agentID, ids)
	}
	if len(router.ListProviders()) == 0 {
		logger.Warn("no generation providers configured, every chain run will fail")
	}

	// Build the agent lineup
	agents := agent.DefaultChain()
	if len(cfg.Agents) > 0 {
		agents = make([]agent.Definition, len(cfg.Agents))
		for i, ac := range cfg.Agents {
			agents[i] = agent.Definition{
				ID: ac.ID, Name: ac.Name, Prompt: ac.Prompt,
				MaxOutputChars: ac.MaxOutputChars, ProviderID: ac.Provider,
			}
		}
	}
	for _, a := range agents {
		if a.ProviderID != "" {
			router.Bind(a.ID, a.ProviderID)
		}
	}

	// Novelty-guided candidate selection
	model := novelty.NewModel(cfg.Selection.NoveltyWeight, cfg.Selection.HistorySize)
	selector := novelty.NewSelector(router, model, cfg.Selection.CandidateCount, logger)
	chain := agent.NewChain(agents, selector, cfg.Pipeline.MaxContentChars, logger)

	// Result sinks: the in-memory ring always runs, everything else is
	// optional and skipped with a warning when unreachable.
	recent := sink.NewRecent(cfg.Sinks.RecentSize)
	sinks := []sink.Sink{recent}

	if cfg.Sinks.DatasetPath != "" {
		js, jsErr := sink.NewJSONL(cfg.Sinks.DatasetPath, logger)
		if jsErr != nil {
			logger.Warn("dataset file unavailable, skipping", zap.Error(jsErr))
		} else {
			sinks = append(sinks, js)
		}
	}
	if cfg.Sinks.PostgresDSN != "" {
		pg, pgErr := sink.NewPostgres(context.Background(), cfg.Sinks.PostgresDSN, logger)
		if pgErr != nil {
			logger.Warn("PostgreSQL unavailable, skipping sink", zap.Error(pgErr))
		} else {
			sinks = append(sinks, pg)
		}
	}
	if cfg.Sinks.RedisURL != "" {
		rs, rsErr := sink.NewRedisStream(context.Background(), cfg.Sinks.RedisURL, cfg.Sinks.RedisStream, logger)
		if rsErr != nil {
			logger.Warn("Redis unavailable, skipping sink", zap.Error(rsErr))
		} else {
			sinks = append(sinks, rs)
		}
	}
	if len(cfg.Sinks.KafkaBrokers) > 0 {
		kf, kfErr := sink.NewKafka(cfg.Sinks.KafkaBrokers, cfg.Sinks.KafkaTopic, logger)
		if kfErr != nil {
			logger.Warn("Kafka unavailable, skipping sink", zap.Error(kfErr))
		} else {
			sinks = append(sinks, kf)
		}
	}
	if cfg.Sinks.SlackBotToken != "" && cfg.Sinks.SlackChannel != "" {
		sinks = append(sinks, sink.NewSlack(cfg.Sinks.SlackBotToken, cfg.Sinks.SlackChannel, logger))
	}
	if cfg.Sinks.DiscordBotToken != "" && cfg.Sinks.DiscordChannel != "" {
		dc, dcErr := sink.NewDiscord(cfg.Sinks.DiscordBotToken, cfg.Sinks.DiscordChannel, logger)
		if dcErr != nil {
			logger.Warn("Discord unavailable, skipping sink", zap.Error(dcErr))
		} else {
			sinks = append(sinks, dc)
		}
	}
	multi := sink.NewMulti(logger, sinks...)

	// Capture sources: API pushes always work, a spool directory is
	// polled alongside when configured.
	push := capture.NewPushSource()
	sources := capture.Merged{push}
	if cfg.Source.SpoolDir != "" {
		spool, spErr := capture.NewSpoolSource(cfg.Source.SpoolDir)
		if spErr != nil {
			logger.Warn("spool dir unavailable, skipping", zap.String("dir", cfg.Source.SpoolDir), zap.Error(spErr))
		} else {
			sources = append(sources, spool)
			logger.Info("watching spool dir", zap.String("dir", cfg.Source.SpoolDir))
		}
	}

	// Assemble the pipeline
	dedupe := capture.NewDeduplicator(cfg.Pipeline.MinContentLength)
	queue := pipeline.NewQueue(cfg.Pipeline.MaxQueueSize)
	collector := pipeline.NewCollector(sources, dedupe, queue, cfg.Pipeline.PollInterval.Std(), m, logger)
	pool := pipeline.NewPool(queue, chain, multi, cfg.Pipeline.ConcurrentAgents, cfg.Pipeline.BatchSize, m, logger)

	collector.Start()
	pool.Start()

	// Build HTTP handler
	handler := api.NewHandler(queue, model, m, recent, push, agents, logger)

	// Start server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: handler.Router(),
	}

	go func() {
		logger.Info("Muse listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down Muse...")
	collector.Stop()
	pool.Stop()
	srv.Shutdown(context.Background())
	if err := multi.Close(); err != nil {
		logger.Warn("sink close", zap.Error(err))
	}

	snap := m.Snapshot()
	logger.Info("final counters",
		zap.Uint64("captured", snap.Captured),
		zap.Uint64("processed", snap.ItemsProcessed),
		zap.Uint64("records_written", snap.RecordsWritten))
}

// newLogger builds a development logger at the configured level,
// falling back to the zap default when the level does not parse.
func newLogger(level string) *zap.Logger {
	zcfg := zap.NewDevelopmentConfig()
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		zcfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, err := zcfg.Build()
	if err != nil {
		logger, _ = zap.NewDevelopment()
	}
	return logger
}

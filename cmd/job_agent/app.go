package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/job-agent/internal/config"
	"github.com/jonathan/job-agent/internal/db"
	"github.com/jonathan/job-agent/internal/jobsource"
	"github.com/jonathan/job-agent/internal/llm"
	"github.com/jonathan/job-agent/internal/logger"
	"github.com/jonathan/job-agent/internal/pipeline"
	"github.com/jonathan/job-agent/internal/profiles"
	"github.com/jonathan/job-agent/internal/session"
	"go.uber.org/zap"
)

// newLLMClient builds the provider client. Tests replace it.
var newLLMClient = func(ctx context.Context, c config.LLMConfig) (llm.Client, error) {
	if c.APIKey == "" {
		return nil, errors.New("no model API key configured: set GEMINI_API_KEY or ANTHROPIC_API_KEY")
	}
	mc, err := llm.ConfigFor(c.Provider)
	if err != nil {
		return nil, err
	}
	mc = mc.WithModel(llm.TierLite, c.LiteModel).
		WithModel(llm.TierStandard, c.StandardModel).
		WithModel(llm.TierAdvanced, c.AdvancedModel)
	return llm.NewClient(ctx, mc, c.APIKey)
}

// app holds the collaborators a command needs.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	client  llm.Client
	invoker *llm.Invoker
	orch    *pipeline.Orchestrator
	jobs    *jobsource.Source
	closers []func()
}

// newApp loads configuration and wires the model stack. When requireModel
// is false and no API key is configured, the model is left out and job
// extraction falls back to the heading parser.
func newApp(ctx context.Context, opts *rootOptions, requireModel bool) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if opts.logFormat != "" {
		cfg.Log.Format = opts.logFormat
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	a := &app{cfg: cfg, logger: log}
	a.closers = append(a.closers, func() { _ = log.Sync() })

	if requireModel || cfg.LLM.APIKey != "" {
		client, err := newLLMClient(ctx, cfg.LLM)
		if err != nil {
			return nil, err
		}
		a.client = client
		a.closers = append(a.closers, func() { _ = client.Close() })
		a.invoker = llm.NewInvoker(client, invokerConfig(cfg.LLM), llm.WithLogger(log))
		a.orch = pipeline.New(a.invoker, pipeline.Config{MaxFeedbackItems: cfg.Pipeline.MaxFeedbackItems}, log)
	}

	jobOpts := jobsource.Options{
		HTTPClient: &http.Client{Timeout: cfg.JobSource.Timeout},
		Invoker:    a.invoker,
		Logger:     log,
	}
	if cfg.JobSource.UseBrowser {
		jobOpts.Renderer = jobsource.ChromeRenderer{Timeout: cfg.JobSource.Timeout}
	}
	a.jobs = jobsource.New(jobOpts)
	return a, nil
}

func invokerConfig(c config.LLMConfig) llm.InvokerConfig {
	return llm.InvokerConfig{
		MaxConcurrent: c.MaxConcurrent,
		CallTimeout:   c.CallTimeout,
		MaxAttempts:   c.MaxAttempts,
		BaseDelay:     c.BaseDelay,
		MaxDelay:      c.MaxDelay,
		SchemaRetries: c.SchemaRetries,
	}
}

// profileStore opens Postgres when a database URL is configured, and an
// in-memory store otherwise.
func (a *app) profileStore(ctx context.Context) (profiles.Store, error) {
	if a.cfg.Database.URL == "" {
		a.logger.Info("no database configured, profiles are kept in memory")
		return profiles.NewMemoryStore(), nil
	}
	database, err := db.Connect(ctx, a.cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, database.Close)
	if err := database.Migrate(ctx); err != nil {
		return nil, err
	}
	return db.NewProfileStore(database), nil
}

// sessionCache opens Redis when a URL is configured, and a bounded
// in-memory cache otherwise.
func (a *app) sessionCache(ctx context.Context) (session.Cache, error) {
	if a.cfg.Session.RedisURL == "" {
		return session.NewMemoryCache(a.cfg.Session.MaxEntries, a.cfg.Session.TTL), nil
	}
	cache, err := session.NewRedisCacheFromURL(a.cfg.Session.RedisURL, a.cfg.Session.TTL)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { _ = cache.Close() })
	if err := cache.Ping(ctx); err != nil {
		return nil, err
	}
	return cache, nil
}

// Close releases everything the app opened, newest first.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

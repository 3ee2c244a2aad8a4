// Package app wires configuration into the components shared by the three
// entry points.
package app

import (
	"context"
	"io"
	"log/slog"
	"time"

	"askgemini/internal/config"
	"askgemini/internal/history"
	"askgemini/internal/llm"
	"askgemini/internal/prompt"
	"askgemini/internal/qa"
	"askgemini/internal/ratelimiter"
	"askgemini/internal/scheduler"
)

// NewLogger returns a JSON slog logger and makes it the default.
func NewLogger(cfg config.Config, w io.Writer) *slog.Logger {
	log := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(log)

	return log
}

// Deps are the long-lived pieces behind a qa.Service.
type Deps struct {
	Service *qa.Service
	History *history.Store

	limiter *ratelimiter.RateLimiter
	log     *slog.Logger
}

// Build assembles the model client stack and the question service.
// model overrides cfg.GeminiModel when non-empty.
func Build(ctx context.Context, cfg config.Config, style prompt.Style, model string, source string, log *slog.Logger) (*Deps, error) {
	if model == "" {
		model = cfg.GeminiModel
	}

	if cfg.GeminiAPIKey == "" {
		log.WarnContext(ctx, "GEMINI_API_KEY is missing so every answer will be a fallback",
			"envVar", config.APIKeyEnvVar)
	}

	var client llm.Client = llm.NewGeminiClient(llm.GeminiConfig{
		APIKey:  cfg.GeminiAPIKey,
		Model:   model,
		BaseURL: cfg.GeminiBaseURL,
		Timeout: cfg.GeminiTimeout,
	})

	limiter := ratelimiter.New(cfg.ModelMinInterval, log)
	client = llm.NewThrottledClient(client, limiter)
	client = llm.NewCachedClient(client, cfg.AnswerCacheSize, cfg.AnswerCacheTTL)

	log.InfoContext(ctx, "Model client is initialized",
		"provider", "gemini",
		"model", model,
		"promptStyle", string(style),
		"cacheSize", cfg.AnswerCacheSize,
		"minInterval", cfg.ModelMinInterval.String())

	deps := &Deps{limiter: limiter, log: log}

	var recorder qa.Recorder
	if cfg.HistoryEnabled() {
		store, err := history.Open(ctx, cfg.HistoryDBPath, log)
		if err != nil {
			limiter.Stop()

			return nil, err
		}
		deps.History = store
		recorder = store

		log.InfoContext(ctx, "History is enabled",
			"dbPath", cfg.HistoryDBPath)
	}

	deps.Service = qa.New(client, style, source, recorder, log)

	return deps, nil
}

// StartPruning runs the history retention job when history is enabled.
// The returned stop function is never nil.
func (d *Deps) StartPruning(ctx context.Context, cfg config.Config) (func(), error) {
	if d.History == nil {
		return func() {}, nil
	}

	sched := scheduler.New(ctx, cfg.HistoryPruneSpec, cfg.HistoryRetention, d.History, d.log)
	if err := sched.Start(); err != nil {
		return func() {}, err
	}

	d.log.InfoContext(ctx, "Scheduler is started",
		"spec", cfg.HistoryPruneSpec,
		"retention", cfg.HistoryRetention.String(),
		"timezone", time.FixedZone(scheduler.Timezone, scheduler.TimezoneOffsetSeconds).String())

	return sched.Stop, nil
}

func (d *Deps) Close(ctx context.Context) {
	d.limiter.Stop()

	if d.History == nil {
		return
	}
	if err := d.History.Close(); err != nil {
		d.log.ErrorContext(ctx, "Failed to close history",
			"error", err)
	}
}

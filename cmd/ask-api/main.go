package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"askgemini/internal/app"
	"askgemini/internal/config"
	"askgemini/internal/prompt"
	"askgemini/internal/qa"
	"askgemini/internal/web"
	"askgemini/internal/web/api"
)

func main() {
	start := time.Now()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load config",
			"error", err)

		os.Exit(1)
	}
	log := app.NewLogger(cfg, os.Stdout)

	style, err := prompt.ParseStyle(cfg.StyleOr(string(prompt.StyleInline)))
	if err != nil {
		log.ErrorContext(ctx, "PROMPT_STYLE is invalid",
			"error", err,
			"PROMPT_STYLE", cfg.PromptStyle)

		os.Exit(1)
	}

	deps, err := app.Build(ctx, cfg, style, "", qa.SourceAPI, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize",
			"error", err,
			"historyDBPath", cfg.HistoryDBPath)

		os.Exit(1)
	}
	defer deps.Close(ctx)

	stopPruning, err := deps.StartPruning(ctx, cfg)
	if err != nil {
		log.ErrorContext(ctx, "Failed to start scheduler",
			"error", err,
			"spec", cfg.HistoryPruneSpec)

		return
	}
	defer stopPruning()

	server := web.NewApp("ask-api", log)
	api.Register(server, api.NewHandler(deps.Service, log))

	if err = web.Serve(ctx, server, ":"+strconv.Itoa(cfg.Port), log); err != nil {
		log.ErrorContext(ctx, "HTTP server failed",
			"error", err,
			"port", cfg.Port)

		return
	}

	log.InfoContext(ctx, "Exiting...",
		"uptimeSeconds", time.Since(start).Seconds())
}

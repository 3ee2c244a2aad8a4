package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"askgemini/internal/app"
	"askgemini/internal/cli"
	"askgemini/internal/config"
	"askgemini/internal/prompt"
	"askgemini/internal/qa"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadCLIConfig()
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load config",
			"error", err)

		return 1
	}

	// Console output belongs to the answer; keep the logs quiet unless asked.
	if _, ok := os.LookupEnv("LOG_LEVEL"); !ok {
		cfg.LogLevel = "warn"
	}
	log := app.NewLogger(cfg, os.Stderr)

	defaultStyle, err := prompt.ParseStyle(cfg.StyleOr(string(prompt.StyleInline)))
	if err != nil {
		log.ErrorContext(ctx, "PROMPT_STYLE is invalid",
			"error", err,
			"PROMPT_STYLE", cfg.PromptStyle)

		return 1
	}

	opts, words, err := cli.ParseArgs(os.Args[0], os.Args[1:], cli.Options{
		Model: cfg.GeminiModel,
		Style: defaultStyle,
	}, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		log.ErrorContext(ctx, "Failed to parse arguments",
			"error", err)

		return 2
	}

	if opts.History > 0 && !cfg.HistoryEnabled() {
		log.ErrorContext(ctx, "HISTORY_DB_PATH is not set",
			"history", opts.History)

		return 1
	}

	var question string
	if opts.History == 0 {
		if question, err = cli.ReadQuestion(words, os.Stdin, os.Stdout); err != nil {
			log.ErrorContext(ctx, "Failed to read question",
				"error", err)

			return 1
		}
	}

	deps, err := app.Build(ctx, cfg, opts.Style, opts.Model, qa.SourceCLI, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize",
			"error", err,
			"historyDBPath", cfg.HistoryDBPath)

		return 1
	}
	defer deps.Close(ctx)

	if opts.History > 0 {
		if err = cli.PrintHistory(ctx, deps.History, opts.History, os.Stdout); err != nil {
			log.ErrorContext(ctx, "Failed to print history",
				"error", err,
				"history", opts.History)

			return 1
		}

		return 0
	}

	if err = cli.Run(ctx, deps.Service, question, os.Stdout); err != nil {
		log.ErrorContext(ctx, "Failed to print result",
			"error", err)

		return 1
	}

	return 0
}

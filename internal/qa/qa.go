// Package qa runs one question through normalization, prompt construction
// and the model client, and reports the result as an Outcome.
package qa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"askgemini/internal/history"
	"askgemini/internal/llm"
	"askgemini/internal/prompt"
	"askgemini/internal/text"
)

const (
	SourceCLI  = "cli"
	SourceForm = "form"
	SourceAPI  = "api"
)

var ErrEmptyQuestion = errors.New("question is empty")

// Failure classifies why an Outcome carries no answer.
type Failure int

const (
	FailureNone Failure = iota
	FailureConfig
	FailureService
)

func (f Failure) String() string {
	switch f {
	case FailureNone:
		return "none"
	case FailureConfig:
		return "config"
	case FailureService:
		return "service"
	default:
		return fmt.Sprintf("failure(%d)", int(f))
	}
}

// Outcome is either an answer or a failure reason, never both.
type Outcome struct {
	Question  string
	Processed string
	Tokens    []string
	Prompt    prompt.Prompt
	Answer    string
	Err       error
	Failure   Failure
}

func (o Outcome) OK() bool {
	return o.Err == nil
}

// Fallback is the text shown in place of an answer when the model call
// failed.
func (o Outcome) Fallback() string {
	if o.OK() {
		return ""
	}

	return fmt.Sprintf(
		"[LLM call failed: %s]\nAs a fallback, returning processed question tokens.\nProcessed: %s\nTokens: %s",
		o.Err, o.Processed, text.FormatTokens(o.Tokens),
	)
}

func (o Outcome) AnswerOrFallback() string {
	if o.OK() {
		return o.Answer
	}
	return o.Fallback()
}

// Recorder persists outcomes. *history.Store satisfies it.
type Recorder interface {
	Record(ctx context.Context, e history.Entry) error
}

type Service struct {
	client   llm.Client
	style    prompt.Style
	source   string
	recorder Recorder
	log      *slog.Logger
	now      func() time.Time
}

// New builds a service. recorder may be nil.
func New(client llm.Client, style prompt.Style, source string, recorder Recorder, log *slog.Logger) *Service {
	return &Service{
		client:   client,
		style:    style,
		source:   source,
		recorder: recorder,
		log:      log,
		now:      time.Now,
	}
}

// ValidateQuestion rejects input that is empty after trimming.
func ValidateQuestion(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrEmptyQuestion
	}
	return trimmed, nil
}

// Ask never returns an error: failures are carried by the Outcome.
func (s *Service) Ask(ctx context.Context, raw string) Outcome {
	start := s.now()

	processed, tokens := text.Preprocess(raw)
	p := prompt.Build(s.style, processed)

	out := Outcome{
		Question:  raw,
		Processed: processed,
		Tokens:    tokens,
		Prompt:    p,
	}

	resp, err := s.client.Generate(ctx, p)
	if err != nil {
		out.Err = err
		out.Failure = classify(err)

		s.log.ErrorContext(ctx, "Model call failed",
			"error", err,
			"failure", out.Failure.String(),
			"source", s.source,
			"processed", processed,
			"durationMs", s.now().Sub(start).Milliseconds())
	} else {
		out.Answer = resp.Text

		s.log.InfoContext(ctx, "Model call succeeded",
			"source", s.source,
			"model", resp.Model,
			"finishReason", resp.FinishReason,
			"answerLen", len(resp.Text),
			"durationMs", s.now().Sub(start).Milliseconds())
	}

	s.record(ctx, out)

	return out
}

func (s *Service) record(ctx context.Context, out Outcome) {
	if s.recorder == nil {
		return
	}

	entry := history.Entry{
		Source:    s.source,
		Question:  out.Question,
		Processed: out.Processed,
		Answer:    out.Answer,
		CreatedAt: s.now(),
	}
	if out.Err != nil {
		entry.Error = out.Err.Error()
	}

	// Record even when the client has gone away.
	if err := s.recorder.Record(context.WithoutCancel(ctx), entry); err != nil {
		s.log.WarnContext(ctx, "Failed to record question",
			"error", err,
			"source", s.source)
	}
}

func classify(err error) Failure {
	if llm.IsConfigError(err) {
		return FailureConfig
	}
	return FailureService
}

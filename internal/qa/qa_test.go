package qa

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"askgemini/internal/history"
	"askgemini/internal/llm"
	"askgemini/internal/prompt"
)

type fakeClient struct {
	mu      sync.Mutex
	prompts []prompt.Prompt
	answer  string
	err     error
}

func (c *fakeClient) Generate(_ context.Context, p prompt.Prompt) (llm.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, p)

	if c.err != nil {
		return llm.Response{}, c.err
	}
	return llm.Response{Text: c.answer, Model: "fake"}, nil
}

type memoryRecorder struct {
	mu      sync.Mutex
	entries []history.Entry
	err     error
}

func (r *memoryRecorder) Record(_ context.Context, e history.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)

	return r.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAskSuccess(t *testing.T) {
	client := &fakeClient{answer: "4"}
	svc := New(client, prompt.StyleInline, SourceCLI, nil, discardLogger())

	out := svc.Ask(context.Background(), "What is 2+2?")

	if !out.OK() {
		t.Fatalf("expected success, got %v", out.Err)
	}
	if out.Processed != "what is 22" {
		t.Fatalf("unexpected processed question: %q", out.Processed)
	}
	if out.Answer != "4" || out.AnswerOrFallback() != "4" {
		t.Fatalf("unexpected answer: %q", out.Answer)
	}
	if out.Failure != FailureNone {
		t.Fatalf("unexpected failure kind: %s", out.Failure)
	}
	if out.Fallback() != "" {
		t.Fatalf("expected no fallback on success")
	}

	if len(client.prompts) != 1 {
		t.Fatalf("expected one model call, got %d", len(client.prompts))
	}
	if !strings.Contains(client.prompts[0].Text, "Question: what is 22") {
		t.Fatalf("prompt does not carry the processed question: %q", client.prompts[0].Text)
	}
}

func TestAskFailureFallback(t *testing.T) {
	client := &fakeClient{err: &llm.ServiceError{Err: errors.New("network unreachable")}}
	svc := New(client, prompt.StyleInline, SourceCLI, nil, discardLogger())

	out := svc.Ask(context.Background(), strings.Join([]string{"What", "is", "2+2?"}, " "))

	if out.OK() {
		t.Fatalf("expected failure")
	}
	if out.Failure != FailureService {
		t.Fatalf("expected service failure, got %s", out.Failure)
	}

	fallback := out.AnswerOrFallback()
	for _, want := range []string{
		"[LLM call failed: network unreachable]",
		"As a fallback, returning processed question tokens.",
		"Processed: what is 22",
		"Tokens: ['what', 'is', '22']",
	} {
		if !strings.Contains(fallback, want) {
			t.Fatalf("fallback %q does not contain %q", fallback, want)
		}
	}
}

func TestAskWithoutAPIKeyIsConfigFailure(t *testing.T) {
	client := llm.NewGeminiClient(llm.GeminiConfig{Model: "gemini-2.5-flash", BaseURL: "http://127.0.0.1:1/"})
	svc := New(client, prompt.StyleInline, SourceAPI, nil, discardLogger())

	out := svc.Ask(context.Background(), "Hello, World!")

	if out.Processed != "hello world" {
		t.Fatalf("unexpected processed question: %q", out.Processed)
	}
	if out.Failure != FailureConfig {
		t.Fatalf("expected config failure, got %s", out.Failure)
	}
	if !strings.Contains(out.Fallback(), "GEMINI_API_KEY") {
		t.Fatalf("expected fallback to mention GEMINI_API_KEY, got %q", out.Fallback())
	}
}

func TestAskEmptyQuestion(t *testing.T) {
	client := &fakeClient{answer: "?"}
	svc := New(client, prompt.StyleSystem, SourceAPI, nil, discardLogger())

	out := svc.Ask(context.Background(), "")

	if out.Processed != "" || len(out.Tokens) != 0 {
		t.Fatalf("expected empty processed question, got %q %v", out.Processed, out.Tokens)
	}
	if client.prompts[0].Text != "Question: " {
		t.Fatalf("unexpected prompt for empty question: %q", client.prompts[0].Text)
	}
}

func TestAskRecordsOutcome(t *testing.T) {
	recorder := &memoryRecorder{}
	client := &fakeClient{err: &llm.ConfigError{Err: llm.ErrMissingAPIKey}}
	svc := New(client, prompt.StyleInline, SourceForm, recorder, discardLogger())

	svc.Ask(context.Background(), "Why?")

	if len(recorder.entries) != 1 {
		t.Fatalf("expected one recorded entry, got %d", len(recorder.entries))
	}

	e := recorder.entries[0]
	if e.Source != SourceForm || e.Question != "Why?" || e.Processed != "why" {
		t.Fatalf("unexpected entry: %+v", e)
	}
	if e.Error != llm.ErrMissingAPIKey.Error() {
		t.Fatalf("unexpected recorded error: %q", e.Error)
	}
	if e.CreatedAt.IsZero() {
		t.Fatalf("expected timestamp")
	}
}

func TestAskIgnoresRecorderFailure(t *testing.T) {
	recorder := &memoryRecorder{err: errors.New("disk full")}
	svc := New(&fakeClient{answer: "ok"}, prompt.StyleInline, SourceCLI, recorder, discardLogger())

	out := svc.Ask(context.Background(), "hi")
	if !out.OK() || out.Answer != "ok" {
		t.Fatalf("recorder failure must not affect the outcome: %+v", out)
	}
}

func TestValidateQuestion(t *testing.T) {
	if _, err := ValidateQuestion("   "); !errors.Is(err, ErrEmptyQuestion) {
		t.Fatalf("expected ErrEmptyQuestion, got %v", err)
	}

	got, err := ValidateQuestion("  Why?  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Why?" {
		t.Fatalf("expected trimmed question, got %q", got)
	}
}

func TestFailureString(t *testing.T) {
	cases := map[Failure]string{
		FailureNone:    "none",
		FailureConfig:  "config",
		FailureService: "service",
		Failure(9):     "failure(9)",
	}
	for f, want := range cases {
		if got := f.String(); got != want {
			t.Fatalf("Failure(%d).String() = %q, want %q", int(f), got, want)
		}
	}
}

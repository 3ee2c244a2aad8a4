package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"askgemini/internal/prompt"
)

const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	// Timeout bounds a single call. Zero means no timeout.
	Timeout time.Duration
}

// GeminiClient calls Gemini through its OpenAI-compatible Chat Completions
// endpoint.
type GeminiClient struct {
	client     openai.Client
	model      string
	configured bool
}

// NewGeminiClient builds a client from an explicit configuration value.
// An empty API key is accepted here; Generate then fails with a
// ConfigError without touching the network.
func NewGeminiClient(cfg GeminiConfig) *GeminiClient {
	apiKey := strings.TrimSpace(cfg.APIKey)

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(0),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	return &GeminiClient{
		client:     openai.NewClient(opts...),
		model:      strings.TrimSpace(cfg.Model),
		configured: apiKey != "",
	}
}

func (c *GeminiClient) Model() string {
	return c.model
}

// Generate performs exactly one request.
func (c *GeminiClient) Generate(ctx context.Context, p prompt.Prompt) (Response, error) {
	if !c.configured {
		return Response{}, &ConfigError{Err: ErrMissingAPIKey}
	}
	if c.model == "" {
		return Response{}, &ConfigError{Err: errors.New("model identifier is empty")}
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if system := strings.TrimSpace(p.System); system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	messages = append(messages, openai.UserMessage(p.Text))

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: messages,
	})
	if err != nil {
		return Response{}, &ServiceError{Err: err}
	}

	if len(resp.Choices) == 0 {
		return Response{}, &ServiceError{Err: errors.New("response contains no choices")}
	}

	choice := resp.Choices[0]

	return Response{
		Text:         strings.TrimSpace(choice.Message.Content),
		Model:        resp.Model,
		FinishReason: string(choice.FinishReason),
	}, nil
}

package llm

import (
	"context"

	"askgemini/internal/prompt"
	"askgemini/internal/ratelimiter"
)

type callerKey struct{}

// WithCaller tags ctx with the identity used to space out model calls
// (remote address for web requests, a constant for the CLI).
func WithCaller(ctx context.Context, caller string) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

func callerFrom(ctx context.Context) string {
	caller, _ := ctx.Value(callerKey{}).(string)
	return caller
}

// ThrottledClient routes every call through a rate limiter.
type ThrottledClient struct {
	next    Client
	limiter *ratelimiter.RateLimiter
}

// NewThrottledClient returns next unchanged when limiter is nil.
func NewThrottledClient(next Client, limiter *ratelimiter.RateLimiter) Client {
	if limiter == nil {
		return next
	}

	return &ThrottledClient{next: next, limiter: limiter}
}

func (c *ThrottledClient) Generate(ctx context.Context, p prompt.Prompt) (Response, error) {
	var resp Response

	err := c.limiter.Do(ctx, callerFrom(ctx), func(ctx context.Context) error {
		var genErr error
		resp, genErr = c.next.Generate(ctx, p)
		return genErr
	})
	if err != nil {
		return Response{}, err
	}

	return resp, nil
}

package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"askgemini/internal/prompt"
)

type countingClient struct {
	mu    sync.Mutex
	calls int
	err   error
	empty bool
}

func (c *countingClient) Generate(_ context.Context, p prompt.Prompt) (Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++

	if c.err != nil {
		return Response{}, c.err
	}
	if c.empty {
		return Response{}, nil
	}

	return Response{Text: "answer to " + p.Text}, nil
}

func (c *countingClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.calls
}

type fakeClock struct {
	t time.Time
}

func (f *fakeClock) now() time.Time { return f.t }

func newTestCachedClient(t *testing.T, next Client, maxEntries int, ttl time.Duration) (*CachedClient, *fakeClock) {
	t.Helper()

	client, ok := NewCachedClient(next, maxEntries, ttl).(*CachedClient)
	if !ok {
		t.Fatalf("expected *CachedClient")
	}

	clock := &fakeClock{t: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)}
	client.now = clock.now

	return client, clock
}

func ask(t *testing.T, c Client, p prompt.Prompt) Response {
	t.Helper()

	resp, err := c.Generate(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return resp
}

func TestNewCachedClientDisabled(t *testing.T) {
	next := &countingClient{}

	if c := NewCachedClient(next, 0, time.Minute); c != Client(next) {
		t.Fatalf("expected passthrough for zero size")
	}
	if c := NewCachedClient(next, 10, 0); c != Client(next) {
		t.Fatalf("expected passthrough for zero ttl")
	}
}

func TestCachedClientReusesAnswers(t *testing.T) {
	next := &countingClient{}
	client, _ := newTestCachedClient(t, next, 10, time.Minute)

	p := prompt.Build(prompt.StyleInline, "hello")
	for range 3 {
		if resp := ask(t, client, p); resp.Text != "answer to "+p.Text {
			t.Fatalf("unexpected answer: %q", resp.Text)
		}
	}

	if next.callCount() != 1 {
		t.Fatalf("expected a single upstream call, got %d", next.callCount())
	}
}

func TestCachedClientExpiresAnswers(t *testing.T) {
	next := &countingClient{}
	client, clock := newTestCachedClient(t, next, 10, time.Minute)

	p := prompt.Build(prompt.StyleInline, "hello")
	ask(t, client, p)

	clock.t = clock.t.Add(59 * time.Second)
	ask(t, client, p)
	if next.callCount() != 1 {
		t.Fatalf("expected cached answer before expiry, got %d calls", next.callCount())
	}

	clock.t = clock.t.Add(time.Second)
	ask(t, client, p)
	if next.callCount() != 2 {
		t.Fatalf("expected expired answer to be fetched again, got %d calls", next.callCount())
	}
	if client.size() != 1 {
		t.Fatalf("expected the refreshed answer to replace the expired one, got %d", client.size())
	}
}

func TestCachedClientEvictsLeastRecentlyUsed(t *testing.T) {
	next := &countingClient{}
	client, _ := newTestCachedClient(t, next, 2, time.Hour)

	a := prompt.Build(prompt.StyleInline, "a")
	b := prompt.Build(prompt.StyleInline, "b")
	c := prompt.Build(prompt.StyleInline, "c")

	ask(t, client, a)
	ask(t, client, b)
	ask(t, client, a)
	ask(t, client, c)

	if client.size() != 2 {
		t.Fatalf("expected size to stay at the limit, got %d", client.size())
	}

	calls := next.callCount()
	ask(t, client, a)
	ask(t, client, c)
	if next.callCount() != calls {
		t.Fatalf("expected a and c to stay cached")
	}

	ask(t, client, b)
	if next.callCount() != calls+1 {
		t.Fatalf("expected b to have been evicted")
	}
}

func TestCachedClientSeparatesPromptStyles(t *testing.T) {
	next := &countingClient{}
	client, _ := newTestCachedClient(t, next, 10, time.Hour)

	ask(t, client, prompt.Build(prompt.StyleInline, "hello"))
	ask(t, client, prompt.Build(prompt.StyleSystem, "hello"))

	if next.callCount() != 2 {
		t.Fatalf("expected distinct prompts to be cached separately, got %d calls", next.callCount())
	}
}

func TestCachedClientDoesNotCacheErrors(t *testing.T) {
	next := &countingClient{err: &ServiceError{Err: errors.New("down")}}
	client, _ := newTestCachedClient(t, next, 10, time.Minute)

	p := prompt.Build(prompt.StyleInline, "hello")
	for range 2 {
		if _, err := client.Generate(context.Background(), p); err == nil {
			t.Fatalf("expected error")
		}
	}

	if next.callCount() != 2 {
		t.Fatalf("expected failures to reach upstream every time, got %d", next.callCount())
	}
}

func TestCachedClientDoesNotCacheEmptyAnswers(t *testing.T) {
	next := &countingClient{empty: true}
	client, _ := newTestCachedClient(t, next, 10, time.Minute)

	p := prompt.Build(prompt.StyleInline, "hello")
	ask(t, client, p)
	ask(t, client, p)

	if next.callCount() != 2 || client.size() != 0 {
		t.Fatalf("expected empty answers to bypass the cache, calls=%d size=%d", next.callCount(), client.size())
	}
}

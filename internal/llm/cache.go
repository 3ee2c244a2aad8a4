package llm

import (
	"container/list"
	"context"
	"sync"
	"time"

	"askgemini/internal/prompt"
)

// CachedClient memoizes successful answers per prompt. Each client wraps a
// single model, so the prompt alone identifies an answer. Once maxEntries
// answers are held, the least recently used one is dropped.
type CachedClient struct {
	next       Client
	ttl        time.Duration
	maxEntries int
	now        func() time.Time

	mu      sync.Mutex
	answers map[prompt.Prompt]*list.Element
	recency *list.List // of *cachedAnswer, most recent first
}

type cachedAnswer struct {
	prompt    prompt.Prompt
	resp      Response
	expiresAt time.Time
}

// NewCachedClient wraps next. When maxEntries or ttl is not positive the
// wrapped client is returned unchanged.
func NewCachedClient(next Client, maxEntries int, ttl time.Duration) Client {
	if maxEntries <= 0 || ttl <= 0 {
		return next
	}

	return &CachedClient{
		next:       next,
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
		answers:    make(map[prompt.Prompt]*list.Element, maxEntries),
		recency:    list.New(),
	}
}

func (c *CachedClient) Generate(ctx context.Context, p prompt.Prompt) (Response, error) {
	if resp, ok := c.lookup(p); ok {
		return resp, nil
	}

	resp, err := c.next.Generate(ctx, p)
	if err != nil {
		return Response{}, err
	}

	c.store(p, resp)

	return resp, nil
}

func (c *CachedClient) lookup(p prompt.Prompt) (Response, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.answers[p]
	if !ok {
		return Response{}, false
	}

	answer := elem.Value.(*cachedAnswer)
	if !c.now().Before(answer.expiresAt) {
		c.forget(elem)

		return Response{}, false
	}

	c.recency.MoveToFront(elem)

	return answer.resp, true
}

// store keeps non-empty answers only.
func (c *CachedClient) store(p prompt.Prompt, resp Response) {
	if resp.Text == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(c.ttl)

	if elem, ok := c.answers[p]; ok {
		answer := elem.Value.(*cachedAnswer)
		answer.resp = resp
		answer.expiresAt = expiresAt
		c.recency.MoveToFront(elem)

		return
	}

	c.answers[p] = c.recency.PushFront(&cachedAnswer{
		prompt:    p,
		resp:      resp,
		expiresAt: expiresAt,
	})

	for c.recency.Len() > c.maxEntries {
		c.forget(c.recency.Back())
	}
}

func (c *CachedClient) forget(elem *list.Element) {
	answer := c.recency.Remove(elem).(*cachedAnswer)
	delete(c.answers, answer.prompt)
}

func (c *CachedClient) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.recency.Len()
}

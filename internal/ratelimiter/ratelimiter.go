package ratelimiter

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

const queueSize = 1000

var ErrStopped = errors.New("rate limiter is stopped")

type request struct {
	ctx      context.Context
	key      string
	fn       func(ctx context.Context) error
	response chan error
}

// RateLimiter runs submitted calls one at a time and keeps at least
// interval between two calls made for the same key.
type RateLimiter struct {
	interval time.Duration
	queue    chan request
	lastRun  map[string]time.Time
	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	log      *slog.Logger
}

// New starts the worker goroutine. A non-positive interval yields nil,
// which Do treats as "run immediately".
func New(interval time.Duration, log *slog.Logger) *RateLimiter {
	if interval <= 0 {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())

	rl := &RateLimiter{
		interval: interval,
		queue:    make(chan request, queueSize),
		lastRun:  make(map[string]time.Time),
		ctx:      ctx,
		cancel:   cancel,
		log:      log,
	}

	go rl.processQueue()

	return rl
}

// Do queues fn and waits for it to finish.
func (rl *RateLimiter) Do(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if rl == nil {
		return fn(ctx)
	}

	if rl.ctx.Err() != nil {
		return ErrStopped
	}

	req := request{
		ctx:      ctx,
		key:      key,
		fn:       fn,
		response: make(chan error, 1),
	}

	select {
	case rl.queue <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-rl.ctx.Done():
		return ErrStopped
	}

	select {
	case err := <-req.response:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-rl.ctx.Done():
		return ErrStopped
	}
}

func (rl *RateLimiter) Stop() {
	if rl == nil {
		return
	}
	rl.cancel()
}

func (rl *RateLimiter) processQueue() {
	for {
		select {
		case req := <-rl.queue:
			rl.handleRequest(req)
		case <-rl.ctx.Done():
			for {
				select {
				case req := <-rl.queue:
					req.response <- ErrStopped
				default:
					return
				}
			}
		}
	}
}

func (rl *RateLimiter) handleRequest(req request) {
	if err := req.ctx.Err(); err != nil {
		req.response <- err

		return
	}

	rl.mu.Lock()
	lastRun, exists := rl.lastRun[req.key]
	rl.mu.Unlock()

	if exists {
		if delay := getDelay(rl.interval, lastRun, time.Now()); delay > 0 {
			rl.log.DebugContext(req.ctx, "Rate limiting model call",
				"key", req.key,
				"delay", delay,
				"queueLen", len(rl.queue))

			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-req.ctx.Done():
				timer.Stop()
				req.response <- req.ctx.Err()

				return
			case <-rl.ctx.Done():
				timer.Stop()
				req.response <- ErrStopped

				return
			}
		}
	}

	err := req.fn(req.ctx)

	rl.mu.Lock()
	rl.lastRun[req.key] = time.Now()
	rl.mu.Unlock()

	req.response <- err
}

func getDelay(interval time.Duration, lastRun time.Time, now time.Time) time.Duration {
	return max(interval-now.Sub(lastRun), 0)
}

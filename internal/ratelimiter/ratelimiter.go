package ratelimiter

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"textdigest/internal/summarizer"
)

const queueSize = 1000

var ErrStopped = errors.New("rate limiter is stopped")

// KeyFunc picks the pacing bucket for a call.
type KeyFunc func(ctx context.Context) int64

type request struct {
	key      int64
	response chan time.Time
}

// RateLimiter spaces transformation calls sharing a key by at least interval.
// Calls are delayed, never rejected.
type RateLimiter struct {
	next     summarizer.Transformer
	interval time.Duration
	keyFn    KeyFunc
	queue    chan request
	nextSlot map[int64]time.Time
	released map[int64]map[int64]struct{}
	mu       sync.Mutex
	now      func() time.Time
	ctx      context.Context
	cancel   context.CancelFunc
	log      *slog.Logger
}

func New(
	next summarizer.Transformer,
	interval time.Duration,
	keyFn KeyFunc,
	log *slog.Logger,
) *RateLimiter {
	ctx, cancel := context.WithCancel(context.Background())

	rl := &RateLimiter{
		next:     next,
		interval: interval,
		keyFn:    keyFn,
		queue:    make(chan request, queueSize),
		nextSlot: make(map[int64]time.Time),
		released: make(map[int64]map[int64]struct{}),
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
		log:      log,
	}

	if interval > 0 {
		go rl.processQueue()
	}

	return rl
}

func (rl *RateLimiter) Transform(
	ctx context.Context,
	instruction string,
	text string,
) (string, error) {
	if rl.interval <= 0 {
		return rl.next.Transform(ctx, instruction, text)
	}

	if err := rl.wait(ctx); err != nil {
		return "", err
	}

	return rl.next.Transform(ctx, instruction, text)
}

func (rl *RateLimiter) Stop() {
	rl.cancel()
}

func (rl *RateLimiter) wait(ctx context.Context) error {
	if rl.ctx.Err() != nil {
		return ErrStopped
	}

	var key int64
	if rl.keyFn != nil {
		key = rl.keyFn(ctx)
	}

	req := request{
		key:      key,
		response: make(chan time.Time, 1),
	}

	select {
	case rl.queue <- req:
	case <-rl.ctx.Done():
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	var slot time.Time
	select {
	case slot = <-req.response:
	case <-rl.ctx.Done():
		return ErrStopped
	case <-ctx.Done():
		// The worker answers every queued request, so collect the slot and
		// give it back.
		select {
		case slot = <-req.response:
			rl.release(key, slot)
		case <-rl.ctx.Done():
		}
		return ctx.Err()
	}

	delay := slot.Sub(rl.now())
	if delay <= 0 {
		return nil
	}

	rl.log.DebugContext(ctx, "Rate limiting transformation",
		"key", key,
		"delay", delay)

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-rl.ctx.Done():
		return ErrStopped
	case <-ctx.Done():
		rl.release(key, slot)
		return ctx.Err()
	}
}

func (rl *RateLimiter) processQueue() {
	for {
		select {
		case req := <-rl.queue:
			req.response <- rl.reserve(req.key)
		case <-rl.ctx.Done():
			return
		}
	}
}

// reserve hands out the next free slot for key and books the one after it.
func (rl *RateLimiter) reserve(key int64) time.Time {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	slot := now
	if next, ok := rl.nextSlot[key]; ok && next.After(now) {
		slot = next
	} else {
		delete(rl.released, key)
	}
	rl.nextSlot[key] = slot.Add(rl.interval)

	rl.pruneLocked(now)

	return slot
}

// release gives back a slot whose caller gave up. Released slots at the tail
// of the key's schedule are rewound so later callers do not wait for them.
func (rl *RateLimiter) release(key int64, slot time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	next, ok := rl.nextSlot[key]
	if !ok || !next.After(slot) {
		return
	}

	holes := rl.released[key]
	if holes == nil {
		holes = make(map[int64]struct{})
		rl.released[key] = holes
	}
	holes[slot.UnixNano()] = struct{}{}

	for {
		last := next.Add(-rl.interval)
		if _, ok := holes[last.UnixNano()]; !ok {
			break
		}
		delete(holes, last.UnixNano())
		next = last
	}

	rl.nextSlot[key] = next
	if len(holes) == 0 {
		delete(rl.released, key)
	}
}

func (rl *RateLimiter) pruneLocked(now time.Time) {
	if len(rl.nextSlot) < queueSize {
		return
	}

	for key, next := range rl.nextSlot {
		if !next.After(now) {
			delete(rl.nextSlot, key)
			delete(rl.released, key)
		}
	}
}

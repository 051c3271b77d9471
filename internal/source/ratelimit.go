package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

// notFoundCacheSize bounds the negative cache; old entries evict LRU-first.
const notFoundCacheSize = 4096

var errCachedNotFound = errors.New("previously reported unknown by provider")

// Limits is the rate-limiting and retry contract for one provider.
type Limits struct {
	RequestsPerWindow int
	Window            time.Duration
	MaxWait           time.Duration // Ceiling on blocking for a token
	MaxRetries        int
	RetryBackoff      time.Duration
	NotFoundTTL       time.Duration // 0 disables the negative cache
}

// FetchFunc fetches one item's payload from the underlying provider.
type FetchFunc[T any] func(ctx context.Context, itemID string) (T, error)

// Limited wraps a provider fetch with token-budget enforcement, jittered
// retry of transient failures, and a negative cache for unknown items.
// Safe for concurrent use by multiple item workers.
type Limited[T any] struct {
	name         string
	fetch        FetchFunc[T]
	limiter      *rate.Limiter
	maxWait      time.Duration
	maxRetries   int
	retryBackoff time.Duration
	notFound     *expirable.LRU[string, time.Time]
	logger       *slog.Logger
}

// NewLimited wraps fetch with the given limits.
func NewLimited[T any](name string, limits Limits, fetch FetchFunc[T], logger *slog.Logger) *Limited[T] {
	if logger == nil {
		logger = slog.Default()
	}

	backoff := limits.RetryBackoff
	if backoff <= 0 {
		backoff = time.Second
	}

	var notFound *expirable.LRU[string, time.Time]
	if limits.NotFoundTTL > 0 {
		notFound = expirable.NewLRU[string, time.Time](notFoundCacheSize, nil, limits.NotFoundTTL)
	}

	perSecond := float64(limits.RequestsPerWindow) / limits.Window.Seconds()

	return &Limited[T]{
		name:         name,
		fetch:        fetch,
		limiter:      rate.NewLimiter(rate.Limit(perSecond), limits.RequestsPerWindow),
		maxWait:      limits.MaxWait,
		maxRetries:   limits.MaxRetries,
		retryBackoff: backoff,
		notFound:     notFound,
		logger:       logger,
	}
}

// Fetch acquires a token (blocking up to the wait ceiling), then calls the
// underlying provider, retrying transient failures with jittered exponential
// backoff. Every retry attempt spends its own token. NotFound and Fatal
// failures return immediately.
func (l *Limited[T]) Fetch(ctx context.Context, itemID string) (T, error) {
	var zero T

	if l.notFound != nil {
		if _, ok := l.notFound.Get(itemID); ok {
			return zero, &Error{Kind: KindNotFound, Source: l.name, Err: errCachedNotFound}
		}
	}

	var lastErr error
	backoff := l.retryBackoff

	for attempt := 0; attempt <= l.maxRetries; attempt++ {
		if attempt > 0 {
			// Add jitter: backoff * (0.5 to 1.5)
			jitter := backoff/2 + time.Duration(rand.Int64N(int64(backoff)))
			l.logger.Debug("retrying fetch",
				"source", l.name,
				"item", itemID,
				"attempt", attempt,
				"backoff", jitter,
			)

			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(jitter):
			}

			backoff *= 2
		}

		if err := l.acquire(ctx); err != nil {
			return zero, err
		}

		v, err := l.fetch(ctx, itemID)
		if err == nil {
			return v, nil
		}
		lastErr = err

		switch KindOf(err) {
		case KindTransient:
			continue
		case KindNotFound:
			if l.notFound != nil {
				l.notFound.Add(itemID, time.Now())
			}
			return zero, err
		default:
			return zero, err
		}
	}

	return zero, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// acquire blocks for a token up to the wait ceiling. Past the ceiling it
// reports RateLimited so a starved source cannot stall the whole batch.
func (l *Limited[T]) acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	if err := l.limiter.Wait(waitCtx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &Error{Kind: KindRateLimited, Source: l.name, Err: err}
	}
	return nil
}

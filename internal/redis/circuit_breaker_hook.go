package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/jasselhoff/festival-planner/internal/metrics"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

// CircuitBreakerHook implements redis.Hook to guard all Redis operations with
// a shared circuit breaker. While the circuit is open, commands fail fast and
// recent GET results are served from an in-process cache.
type CircuitBreakerHook struct {
	cb    *gobreaker.CircuitBreaker
	cache *cacheStore
}

var _ goredis.Hook = (*CircuitBreakerHook)(nil)

// cacheStore holds cached values for fallback when circuit is open
type cacheStore struct {
	mu     sync.RWMutex
	values map[string]cachedValue
}

type cachedValue struct {
	data      string
	timestamp time.Time
}

const cacheTTL = 5 * time.Minute

// NewCircuitBreakerHook creates a hook that trips after at least 5 requests
// with a 60% failure rate, waits 10s before probing recovery, and closes
// again after 3 consecutive half-open successes.
func NewCircuitBreakerHook() *CircuitBreakerHook {
	settings := gobreaker.Settings{
		Name:        "redis",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state changed",
				"component", name,
				"from", from.String(),
				"to", to.String(),
			)

			metrics.CircuitBreakerStateChanges.WithLabelValues(name, to.String()).Inc()
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	}

	return &CircuitBreakerHook{
		cb: gobreaker.NewCircuitBreaker(settings),
		cache: &cacheStore{
			values: make(map[string]cachedValue),
		},
	}
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// DialHook wraps connection establishment with circuit breaker
func (h *CircuitBreakerHook) DialHook(next goredis.DialHook) goredis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		result, err := h.cb.Execute(func() (any, error) {
			return next(ctx, network, addr)
		})
		if err != nil {
			return nil, fmt.Errorf("circuit breaker dial failed: %w", err)
		}
		return result.(net.Conn), nil
	}
}

// ProcessHook wraps command execution with circuit breaker and caching.
// A key miss (redis.Nil) counts as a success and is passed through unwrapped.
func (h *CircuitBreakerHook) ProcessHook(next goredis.ProcessHook) goredis.ProcessHook {
	return func(ctx context.Context, cmd goredis.Cmder) error {
		result, err := h.cb.Execute(func() (any, error) {
			if err := next(ctx, cmd); err != nil {
				if errors.Is(err, goredis.Nil) {
					return err, nil
				}
				return nil, err
			}
			return nil, nil
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return h.handleFallback(cmd)
			}
			return fmt.Errorf("circuit breaker process failed: %w", err)
		}

		// Cache successful results for future fallback
		h.cacheResult(cmd)

		if result != nil {
			return result.(error)
		}
		return nil
	}
}

// ProcessPipelineHook wraps pipeline execution with circuit breaker
func (h *CircuitBreakerHook) ProcessPipelineHook(next goredis.ProcessPipelineHook) goredis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []goredis.Cmder) error {
		_, err := h.cb.Execute(func() (any, error) {
			return nil, next(ctx, cmds)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return fmt.Errorf("redis circuit breaker open: %w", err)
			}
			return fmt.Errorf("circuit breaker pipeline failed: %w", err)
		}
		return nil
	}
}

// handleFallback attempts to serve cached data when circuit is open
func (h *CircuitBreakerHook) handleFallback(cmd goredis.Cmder) error {
	cmdName := cmd.Name()

	switch cmdName {
	case "get", "hget":
		if result := h.getFromCache(cmd); result != "" {
			slog.Debug("Circuit breaker open, serving from cache",
				"command", cmdName,
				"args", cmd.Args(),
			)
			if c, ok := cmd.(*goredis.StringCmd); ok {
				c.SetVal(result)
				return nil
			}
		}
		return fmt.Errorf("redis circuit breaker open and no cached value: %w", gobreaker.ErrOpenState)

	case "set", "hset", "del", "expire":
		// Write operations cannot be served from cache
		slog.Warn("Circuit breaker open for write operation",
			"command", cmdName,
		)
		return fmt.Errorf("redis circuit breaker open: %w", gobreaker.ErrOpenState)

	default:
		return fmt.Errorf("redis circuit breaker open: %w", gobreaker.ErrOpenState)
	}
}

// cacheResult stores successful read results for future fallback
func (h *CircuitBreakerHook) cacheResult(cmd goredis.Cmder) {
	switch cmd.Name() {
	case "get", "hget":
		if err := cmd.Err(); err != nil && !errors.Is(err, goredis.Nil) {
			return
		}

		args := cmd.Args()
		if len(args) < 2 {
			return
		}

		key := fmt.Sprintf("%v", args[1])
		value := ""
		if c, ok := cmd.(*goredis.StringCmd); ok {
			value, _ = c.Result()
		}

		if value != "" {
			h.cache.mu.Lock()
			h.cache.values[key] = cachedValue{
				data:      value,
				timestamp: time.Now(),
			}
			h.cache.mu.Unlock()
		}
	}
}

// getFromCache retrieves a cached value if available and not expired
func (h *CircuitBreakerHook) getFromCache(cmd goredis.Cmder) string {
	args := cmd.Args()
	if len(args) < 2 {
		return ""
	}

	key := fmt.Sprintf("%v", args[1])

	h.cache.mu.RLock()
	defer h.cache.mu.RUnlock()

	cached, ok := h.cache.values[key]
	if !ok {
		return ""
	}

	if time.Since(cached.timestamp) > cacheTTL {
		return ""
	}

	return cached.data
}

// GetState returns the current state of the circuit breaker (for testing/monitoring)
func (h *CircuitBreakerHook) GetState() gobreaker.State {
	return h.cb.State()
}

// GetCounts returns the current request counts (for testing/monitoring)
func (h *CircuitBreakerHook) GetCounts() gobreaker.Counts {
	return h.cb.Counts()
}

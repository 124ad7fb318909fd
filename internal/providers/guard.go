package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/preston-bernstein/homefeed-service/internal/logging"
	"github.com/preston-bernstein/homefeed-service/internal/metrics"
)

// GuardConfig shapes outbound traffic to one upstream.
type GuardConfig struct {
	Name              string
	RequestsPerSecond float64
	Burst             int
	MinRequests       uint32
	FailureRatio      float64
	Interval          time.Duration
	OpenTimeout       time.Duration
}

// Guard throttles calls with a token bucket and sheds load through a circuit
// breaker. Rate-limit responses count as successes for the breaker so the
// selector's cooldown, not the breaker, owns 429 handling.
type Guard struct {
	name    string
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[any]
	metrics *metrics.Recorder
	logger  *slog.Logger
	now     func() time.Time
}

// NewGuard builds a Guard. Zero values fall back to permissive defaults.
func NewGuard(cfg GuardConfig, rec *metrics.Recorder, logger *slog.Logger) *Guard {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	if cfg.MinRequests == 0 {
		cfg.MinRequests = 10
	}
	if cfg.FailureRatio <= 0 {
		cfg.FailureRatio = 0.6
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 2 * time.Minute
	}

	g := &Guard{
		name:    cfg.Name,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		metrics: rec,
		logger:  logger,
		now:     time.Now,
	}
	g.breaker = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 3,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || IsRateLimited(err) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			warnUpstream(logger, name, "circuit breaker state change",
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			rec.RecordBreakerTransition(name, to.String())
		},
	})
	return g
}

// Name identifies the guarded upstream.
func (g *Guard) Name() string {
	if g == nil {
		return ""
	}
	return g.name
}

// State reports the breaker state (closed, half-open, open).
func (g *Guard) State() string {
	if g == nil {
		return gobreaker.StateClosed.String()
	}
	return g.breaker.State().String()
}

// Call runs fn for source under g. A nil guard calls fn directly.
func Call[T any](ctx context.Context, g *Guard, source string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if g == nil {
		return fn(ctx)
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return zero, fmt.Errorf("%s: wait for upstream slot: %w", source, waitError(ctx, err))
	}

	start := g.now()
	out, err := g.breaker.Execute(func() (any, error) {
		return fn(ctx)
	})
	duration := g.now().Sub(start)

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		warnUpstream(g.logger, g.name, "upstream call rejected by breaker",
			slog.String(logging.FieldSource, source),
		)
		g.metrics.RecordSourceAttempt(source, duration, err)
		return zero, fmt.Errorf("%s: %w: %w", source, ErrProviderUnavailable, err)
	}

	g.metrics.RecordSourceAttempt(source, duration, err)
	if err != nil {
		if IsRateLimited(err) {
			var retryAfter time.Duration
			if rl, ok := AsRateLimitError(err); ok {
				retryAfter = rl.RetryAfter
			}
			g.metrics.RecordRateLimit(source, retryAfter)
			warnUpstream(g.logger, g.name, "upstream rate limited",
				slog.String(logging.FieldSource, source),
				slog.Float64(logging.FieldRetryAfter, retryAfter.Seconds()),
			)
		}
		return zero, err
	}

	if out == nil {
		return zero, nil
	}
	typed, ok := out.(T)
	if !ok {
		return zero, fmt.Errorf("%s: unexpected result type %T", source, out)
	}
	return typed, nil
}

// waitError maps a limiter wait failure onto the caller's context error. The
// limiter also fails early when the wait would outlast the deadline.
func waitError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if _, ok := ctx.Deadline(); ok {
		return context.DeadlineExceeded
	}
	return err
}

func warnUpstream(logger *slog.Logger, upstream, msg string, args ...any) {
	logging.Warn(logger, msg, append(args, slog.String(logging.FieldProvider, upstream))...)
}

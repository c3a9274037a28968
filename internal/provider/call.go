package provider

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/wolfman30/woundlens-ai/internal/observability/metrics"
	"github.com/wolfman30/woundlens-ai/pkg/logging"
)

// Options carries the ambient dependencies shared by every vendor client.
type Options struct {
	Logger  *logging.Logger
	Metrics *metrics.ProviderMetrics
	// RequestsPerSecond throttles outgoing calls per client; 0 disables it.
	RequestsPerSecond float64
}

// invoker wraps one vendor round trip with throttling, metrics and logs.
type invoker struct {
	provider string
	model    string
	logger   *logging.Logger
	metrics  *metrics.ProviderMetrics
	limiter  *rate.Limiter
}

func newInvoker(provider, model string, opts Options) invoker {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}
	inv := invoker{
		provider: provider,
		model:    model,
		logger:   logger,
		metrics:  opts.Metrics,
	}
	if opts.RequestsPerSecond > 0 {
		inv.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return inv
}

func (inv invoker) do(ctx context.Context, operation string, fn func(context.Context) (string, error)) (string, error) {
	if inv.limiter != nil {
		if err := inv.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("provider: %s rate limit wait: %w", inv.provider, err)
		}
	}

	start := time.Now()
	text, err := fn(ctx)
	elapsed := time.Since(start)

	status := "ok"
	if err != nil {
		status = "error"
	}
	inv.metrics.ObserveProviderCall(inv.provider, operation, status, elapsed.Seconds())

	if err != nil {
		inv.logger.Error("provider call failed",
			"provider", inv.provider,
			"model", inv.model,
			"operation", operation,
			"duration_ms", elapsed.Milliseconds(),
			"error", err,
		)
		return "", err
	}
	inv.logger.Info("provider call completed",
		"provider", inv.provider,
		"model", inv.model,
		"operation", operation,
		"duration_ms", elapsed.Milliseconds(),
		"response_chars", len(text),
	)
	return text, nil
}

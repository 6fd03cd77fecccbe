package providers

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Limited wraps a Completer with a token-bucket limiter.
type Limited struct {
	next    Completer
	limiter *rate.Limiter
}

// WithLimit bounds next to rps requests per second with the given burst.
// A non-positive rps disables limiting and returns next unchanged.
func WithLimit(next Completer, rps float64, burst int) Completer {
	if rps <= 0 {
		return next
	}
	if burst < 1 {
		burst = 1
	}
	return &Limited{next: next, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (l *Limited) Name() string { return l.next.Name() }

func (l *Limited) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return CompletionResponse{}, fmt.Errorf("waiting for rate limiter: %w", err)
	}
	return l.next.Complete(ctx, req)
}

package model

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"sceneforge/internal/domain"
)

// RateLimited paces calls to an adapter. Waiting honours the caller's deadline.
type RateLimited struct {
	next     Adapter
	limiter  *rate.Limiter
	provider string
}

// NewRateLimited wraps next with a limit of perMinute calls. perMinute <= 0 returns next unchanged.
func NewRateLimited(next Adapter, provider string, perMinute int) Adapter {
	if perMinute <= 0 {
		return next
	}
	return &RateLimited{
		next:     next,
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
		provider: provider,
	}
}

func (r *RateLimited) Generate(ctx context.Context, req Request) (*Result, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		category := domain.UpstreamQuota
		if ctx.Err() != nil {
			category = domain.UpstreamNetwork
		}
		return nil, domain.NewUpstreamError(r.provider, category, fmt.Errorf("local rate limit: %w", err))
	}
	return r.next.Generate(ctx, req)
}

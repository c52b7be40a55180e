package repository

import (
	"context"
	"errors"
	"time"

	"github.com/narayanprabad/InvestWise/internal/domain/models"
	domsvc "github.com/narayanprabad/InvestWise/internal/domain/service"
	"github.com/narayanprabad/InvestWise/pkg/cache"
	applogger "github.com/narayanprabad/InvestWise/pkg/logger"
)

// CachedQuoteSource serves quotes from cache and falls through to the wrapped source on a miss.
// Cache failures never fail the call.
type CachedQuoteSource struct {
	next  domsvc.QuoteSource
	cache cache.Service
	ttl   time.Duration
	l     *applogger.Logger
}

func NewCachedQuoteSource(next domsvc.QuoteSource, c cache.Service, ttl time.Duration, l *applogger.Logger) *CachedQuoteSource {
	if l == nil {
		l = applogger.Nop()
	}
	return &CachedQuoteSource{next: next, cache: c, ttl: ttl, l: l}
}

func (s *CachedQuoteSource) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	if s.ttl <= 0 {
		return s.next.Quote(ctx, symbol)
	}
	key := cache.GenerateKey("quote", symbol)

	q, err := cache.GetTyped[models.Quote](ctx, s.cache, key)
	if err == nil {
		return q, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.l.Warn("quote cache read failed", applogger.String("symbol", symbol), applogger.Error(err))
	}

	q, err = s.next.Quote(ctx, symbol)
	if err != nil {
		return q, err
	}
	if err := s.cache.Set(ctx, key, q, s.ttl); err != nil {
		s.l.Warn("quote cache write failed", applogger.String("symbol", symbol), applogger.Error(err))
	}
	return q, nil
}

var _ domsvc.QuoteSource = (*CachedQuoteSource)(nil)

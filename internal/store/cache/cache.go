// Package cache provides a Redis read-through cache in front of a DataSource.
package cache

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rgehrsitz/premiumcalc/internal/calculation"
	"github.com/rgehrsitz/premiumcalc/internal/domain"
	"github.com/rgehrsitz/premiumcalc/internal/metrics"
)

const (
	// DefaultPrefix namespaces cache keys
	DefaultPrefix = "premium:"

	// DefaultTTL applies when no TTL is configured
	DefaultTTL = 5 * time.Minute
)

// Cache lookup results
const (
	resultHit   = "hit"
	resultMiss  = "miss"
	resultError = "error"
)

// Store wraps an origin DataSource. Premium rates, risk assessments and
// historical claims are cached as JSON; the active period always goes to the
// origin. Redis failures are logged and the origin answers instead.
type Store struct {
	client  redis.Cmdable
	origin  calculation.DataSource
	ttl     time.Duration
	prefix  string
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// Option configures a Store
type Option func(*Store)

// WithTTL sets the expiry of cached records. Zero keeps records until evicted.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl >= 0 {
			s.ttl = ttl
		}
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records hit and miss counts.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// New creates a read-through cache over origin.
func New(client redis.Cmdable, origin calculation.DataSource, opts ...Option) *Store {
	s := &Store{
		client: client,
		origin: origin,
		ttl:    DefaultTTL,
		prefix: DefaultPrefix,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// GetActivePeriod is not cached; activation changes must be visible immediately.
func (s *Store) GetActivePeriod(ctx context.Context) (*domain.Period, error) {
	return s.origin.GetActivePeriod(ctx)
}

// GetPremiumRateByPeriod returns the cached rate or reads it from the origin.
func (s *Store) GetPremiumRateByPeriod(ctx context.Context, periodID string) (*domain.PremiumRate, error) {
	return readThrough(ctx, s, calculation.SourcePremiumRate, "rate:"+periodID, func() (*domain.PremiumRate, error) {
		return s.origin.GetPremiumRateByPeriod(ctx, periodID)
	})
}

// GetRiskAssessment returns the cached assessment or reads it from the origin.
func (s *Store) GetRiskAssessment(ctx context.Context, memberID string) (*domain.RiskAssessment, error) {
	return readThrough(ctx, s, calculation.SourceRiskAssessment, "risk:"+memberID, func() (*domain.RiskAssessment, error) {
		return s.origin.GetRiskAssessment(ctx, memberID)
	})
}

// GetHistoricalClaims returns cached claims or reads them from the origin.
func (s *Store) GetHistoricalClaims(ctx context.Context, companyID, periodID string) (*domain.HistoricalClaimsData, error) {
	return readThrough(ctx, s, calculation.SourceHistoricalClaims, claimsKey(companyID, periodID), func() (*domain.HistoricalClaimsData, error) {
		return s.origin.GetHistoricalClaims(ctx, companyID, periodID)
	})
}

// claimsKey escapes both ids so a ':' inside either cannot collide with the separator
func claimsKey(companyID, periodID string) string {
	return "claims:" + url.QueryEscape(companyID) + ":" + url.QueryEscape(periodID)
}

// Invalidate drops a member's cached risk assessment.
func (s *Store) Invalidate(ctx context.Context, memberID string) error {
	return s.client.Del(ctx, s.prefix+"risk:"+memberID).Err()
}

// readThrough serves key from Redis, falling back to load on a miss or a Redis
// error. Absent records are not cached.
func readThrough[T any](ctx context.Context, s *Store, source, key string, load func() (*T, error)) (*T, error) {
	key = s.prefix + key

	data, err := s.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var v T
		jsonErr := json.Unmarshal(data, &v)
		if jsonErr == nil {
			s.metrics.IncrementCacheLookup(source, resultHit)
			return &v, nil
		}
		s.logger.Warn("discarding undecodable cache entry", zap.String("key", key), zap.Error(jsonErr))
		s.metrics.IncrementCacheLookup(source, resultError)
	case stderrors.Is(err, redis.Nil):
		s.metrics.IncrementCacheLookup(source, resultMiss)
	default:
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		s.metrics.IncrementCacheLookup(source, resultError)
	}

	v, err := load()
	if err != nil || v == nil {
		return v, err
	}

	encoded, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return v, nil
	}
	if err := s.client.Set(ctx, key, encoded, s.ttl).Err(); err != nil {
		s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	return v, nil
}

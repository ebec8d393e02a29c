package cache

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/rgehrsitz/premiumcalc/internal/calculation"
	"github.com/rgehrsitz/premiumcalc/internal/calculation/mocks"
	"github.com/rgehrsitz/premiumcalc/internal/domain"
	"github.com/rgehrsitz/premiumcalc/internal/metrics"
)

var _ calculation.DataSource = (*Store)(nil)

// unreachableClient points at a closed port so every command fails fast
func unreachableClient(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestCacheFailureFallsThroughToOrigin(t *testing.T) {
	ctrl := gomock.NewController(t)
	origin := mocks.NewMockDataSource(ctrl)
	m := metrics.New(prometheus.NewRegistry())
	store := New(unreachableClient(t), origin, WithMetrics(m))
	ctx := context.Background()

	assessment := &domain.RiskAssessment{MemberID: "m1", OverallRiskScore: decimal.NewFromInt(72)}
	origin.EXPECT().GetRiskAssessment(gomock.Any(), "m1").Return(assessment, nil).Times(2)

	for range 2 {
		got, err := store.GetRiskAssessment(ctx, "m1")
		require.NoError(t, err)
		assert.Equal(t, assessment, got)
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues(calculation.SourceRiskAssessment, resultError)))
}

func TestOriginErrorsAndMissesPassThrough(t *testing.T) {
	ctrl := gomock.NewController(t)
	origin := mocks.NewMockDataSource(ctrl)
	store := New(unreachableClient(t), origin)
	ctx := context.Background()

	origin.EXPECT().GetPremiumRateByPeriod(gomock.Any(), "P1").Return(nil, assert.AnError)
	_, err := store.GetPremiumRateByPeriod(ctx, "P1")
	assert.ErrorIs(t, err, assert.AnError)

	origin.EXPECT().GetHistoricalClaims(gomock.Any(), "C1", "P1").Return(nil, nil)
	claims, err := store.GetHistoricalClaims(ctx, "C1", "P1")
	assert.NoError(t, err)
	assert.Nil(t, claims)
}

func TestActivePeriodBypassesCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	origin := mocks.NewMockDataSource(ctrl)
	store := New(unreachableClient(t), origin)

	period := &domain.Period{ID: "P2", Active: true}
	origin.EXPECT().GetActivePeriod(gomock.Any()).Return(period, nil)

	got, err := store.GetActivePeriod(context.Background())
	require.NoError(t, err)
	assert.Equal(t, period, got)
}

func TestOptions(t *testing.T) {
	store := New(nil, nil, WithTTL(time.Minute), WithPrefix("test:"), WithLogger(nil), nil)
	assert.Equal(t, time.Minute, store.ttl)
	assert.Equal(t, "test:", store.prefix)
	assert.NotNil(t, store.logger)

	store = New(nil, nil, WithTTL(-time.Second), WithPrefix(""))
	assert.Equal(t, DefaultTTL, store.ttl)
	assert.Equal(t, DefaultPrefix, store.prefix)
}

func TestClaimsKey(t *testing.T) {
	assert.Equal(t, "claims:C1:P1", claimsKey("C1", "P1"))
	assert.NotEqual(t, claimsKey("a:b", "c"), claimsKey("a", "b:c"))
}

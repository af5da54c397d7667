package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"wealthbook/internal/models"
	"wealthbook/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStrategy struct {
	name  string
	quote *Quote
	err   error
	block bool
	calls int
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) TryResolve(ctx context.Context, instrumentID string, asOf time.Time) (*Quote, error) {
	s.calls++
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.quote, s.err
}

func TestChainResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("manual_wins_over_newer_market_price", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		inst := testutil.CreateTestInstrument(t, db, "HUF")
		testutil.CreateTestManualPrice(t, db, inst.ID, "2025-01-01", "100", "HUF")
		testutil.CreateTestPrice(t, db, inst.ID, "2025-01-02", "api", "90", "HUF")

		q, err := NewDefaultChain(db, time.Second).Resolve(ctx, inst.ID, testutil.Date(t, "2025-01-03"))
		require.NoError(t, err)
		assert.True(t, q.Price.Equal(testutil.Dec("100")), "got %s", q.Price)
		assert.Equal(t, TierManual, q.Tier)
		assert.Equal(t, models.PriceSourceManual, q.Source)
	})

	t.Run("manual_carries_forward_until_superseded", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		inst := testutil.CreateTestInstrument(t, db, "HUF")
		testutil.CreateTestManualPrice(t, db, inst.ID, "2025-01-01", "100", "HUF")
		testutil.CreateTestManualPrice(t, db, inst.ID, "2025-02-01", "120", "HUF")
		chain := NewDefaultChain(db, time.Second)

		for date, want := range map[string]string{
			"2025-01-01": "100",
			"2025-01-31": "100",
			"2025-02-01": "120",
			"2026-06-30": "120",
		} {
			q, err := chain.Resolve(ctx, inst.ID, testutil.Date(t, date))
			require.NoError(t, err, date)
			assert.True(t, q.Price.Equal(testutil.Dec(want)), "%s: want %s, got %s", date, want, q.Price)
		}

		_, err := chain.Resolve(ctx, inst.ID, testutil.Date(t, "2024-12-31"))
		assert.ErrorIs(t, err, ErrNoPrice)
	})

	t.Run("market_ignores_test_source", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		inst := testutil.CreateTestInstrument(t, db, "EUR")
		testutil.CreateTestPrice(t, db, inst.ID, "2025-03-01", "yahoo", "10.5", "EUR")
		testutil.CreateTestPrice(t, db, inst.ID, "2025-03-05", models.PriceSourceTest, "99", "EUR")

		q, err := NewDefaultChain(db, time.Second).Resolve(ctx, inst.ID, testutil.Date(t, "2025-03-10"))
		require.NoError(t, err)
		assert.True(t, q.Price.Equal(testutil.Dec("10.5")))
		assert.Equal(t, TierMarket, q.Tier)
		assert.Equal(t, "yahoo", q.Source)
		assert.Equal(t, "2025-03-01", q.Date.Format("2006-01-02"))
	})

	t.Run("falls_back_to_test_source", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		inst := testutil.CreateTestInstrument(t, db, "EUR")
		testutil.CreateTestPrice(t, db, inst.ID, "2025-03-05", models.PriceSourceTest, "99", "EUR")

		q, err := NewDefaultChain(db, time.Second).Resolve(ctx, inst.ID, testutil.Date(t, "2025-03-10"))
		require.NoError(t, err)
		assert.Equal(t, TierFallback, q.Tier)
		assert.True(t, q.Price.Equal(testutil.Dec("99")))
	})

	t.Run("ignores_future_prices", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		inst := testutil.CreateTestInstrument(t, db, "HUF")
		testutil.CreateTestPrice(t, db, inst.ID, "2025-03-05", "yahoo", "10", "HUF")

		_, err := NewDefaultChain(db, time.Second).Resolve(ctx, inst.ID, testutil.Date(t, "2025-03-04"))
		assert.ErrorIs(t, err, ErrNoPrice)
	})

	t.Run("failing_strategy_falls_through", func(t *testing.T) {
		broken := &stubStrategy{name: "broken", err: errors.New("connection reset")}
		good := &stubStrategy{name: "good", quote: &Quote{Price: testutil.Dec("7"), Tier: "good"}}

		q, err := NewChain(0, broken, good).Resolve(ctx, "inst", time.Now())
		require.NoError(t, err)
		assert.Equal(t, "good", q.Tier)
		assert.Equal(t, 1, broken.calls)
	})

	t.Run("timed_out_strategy_falls_through", func(t *testing.T) {
		slow := &stubStrategy{name: "slow", block: true}
		good := &stubStrategy{name: "good", quote: &Quote{Price: testutil.Dec("7"), Tier: "good"}}

		start := time.Now()
		q, err := NewChain(20*time.Millisecond, slow, good).Resolve(ctx, "inst", time.Now())
		require.NoError(t, err)
		assert.Equal(t, "good", q.Tier)
		assert.Less(t, time.Since(start), 2*time.Second)
	})

	t.Run("stops_at_first_hit", func(t *testing.T) {
		first := &stubStrategy{name: "first", quote: &Quote{Tier: "first"}}
		second := &stubStrategy{name: "second", quote: &Quote{Tier: "second"}}

		q, err := NewChain(0, first, second).Resolve(ctx, "inst", time.Now())
		require.NoError(t, err)
		assert.Equal(t, "first", q.Tier)
		assert.Equal(t, 0, second.calls)
	})

	t.Run("cancelled_context_is_returned", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		slow := &stubStrategy{name: "slow", block: true}

		_, err := NewChain(time.Second, slow).Resolve(cctx, "inst", time.Now())
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestFXResolverRate(t *testing.T) {
	ctx := context.Background()

	t.Run("identity_needs_no_store", func(t *testing.T) {
		r := NewFXResolver(nil, time.Second)
		rate, err := r.Rate(ctx, "HUF", "huf", time.Now())
		require.NoError(t, err)
		assert.True(t, rate.Equal(testutil.Dec("1")))
		assert.Equal(t, "1", rate.String())
	})

	t.Run("most_recent_on_or_before", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		testutil.CreateTestFxRate(t, db, "USD", "HUF", "2025-01-01", "350")
		testutil.CreateTestFxRate(t, db, "USD", "HUF", "2025-01-10", "360")
		testutil.CreateTestFxRate(t, db, "EUR", "HUF", "2025-01-09", "400")

		r := NewFXResolver(db, time.Second)
		rate, err := r.Rate(ctx, "USD", "HUF", testutil.Date(t, "2025-01-09"))
		require.NoError(t, err)
		assert.True(t, rate.Equal(testutil.Dec("350")), "got %s", rate)

		rate, err = r.Rate(ctx, "USD", "HUF", testutil.Date(t, "2025-01-10"))
		require.NoError(t, err)
		assert.True(t, rate.Equal(testutil.Dec("360")), "got %s", rate)
	})

	t.Run("missing_rate", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		testutil.CreateTestFxRate(t, db, "USD", "HUF", "2025-01-10", "360")

		r := NewFXResolver(db, time.Second)
		_, err := r.Rate(ctx, "USD", "HUF", testutil.Date(t, "2025-01-09"))
		assert.ErrorIs(t, err, ErrNoRate)

		_, err = r.Rate(ctx, "HUF", "USD", testutil.Date(t, "2025-02-01"))
		assert.ErrorIs(t, err, ErrNoRate, "reverse pair is not inferred")
	})
}

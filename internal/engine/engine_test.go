package engine

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"chainalytics/internal/config"
	"chainalytics/internal/errors"
	"chainalytics/internal/feed"
	"chainalytics/internal/models"
	"chainalytics/internal/store"
)

var testNow = time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

// countingProvider wraps another provider and counts snapshot fetches, so
// tests can observe cache hits and misses.
type countingProvider struct {
	inner feed.Provider
	calls atomic.Int64
}

func (p *countingProvider) Snapshot(ctx context.Context, symbol string) (*feed.Snapshot, error) {
	p.calls.Add(1)
	return p.inner.Snapshot(ctx, symbol)
}

func rawQuote(strike float64, typ string, premium, iv float64, oi int64) feed.RawContract {
	return feed.RawContract{
		Symbol:       "XYZ",
		Strike:       strike,
		Expiry:       testNow.AddDate(0, 0, 30).Format(models.ExpiryFormat),
		Type:         typ,
		LastPrice:    premium,
		OpenInterest: oi,
		IV:           iv,
	}
}

func testSnapshot() *feed.Snapshot {
	return &feed.Snapshot{
		Symbol:    "XYZ",
		SpotPrice: 100,
		TakenAt:   testNow,
		Contracts: []feed.RawContract{
			rawQuote(95, "CALL", 7, 0.23, 200),
			rawQuote(95, "PUT", 2, 0.28, 800),
			rawQuote(100, "CALL", 4, 0.22, 600),
			rawQuote(100, "PUT", 3.5, 0.25, 400),
			rawQuote(105, "CALL", 2, 0.23, 500),
			rawQuote(105, "PUT", 6.5, 0.26, 150),
		},
	}
}

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *countingProvider) {
	t.Helper()
	provider := &countingProvider{inner: feed.NewStaticProvider(testSnapshot())}
	cfg := config.Default()
	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	return New(provider, cfg, zerolog.Nop(), opts...), provider
}

func TestGetOptionsChain(t *testing.T) {
	e, _ := newTestEngine(t)
	oc, err := e.GetOptionsChain(context.Background(), "xyz", time.Time{})
	if err != nil {
		t.Fatalf("get chain: %v", err)
	}

	if oc.Symbol != "XYZ" {
		t.Errorf("symbol = %q, want normalized XYZ", oc.Symbol)
	}
	if len(oc.Strikes) != 3 {
		t.Errorf("strikes = %v, want 3", oc.Strikes)
	}
	if oc.MaxPain == 0 || oc.PutCallRatio == 0 || oc.ATMIV == 0 {
		t.Errorf("chain not enriched: maxPain=%v pcr=%v atmIV=%v", oc.MaxPain, oc.PutCallRatio, oc.ATMIV)
	}
	for _, c := range oc.Contracts() {
		if !c.HasGreeks() {
			t.Errorf("contract %v %g has no greeks", c.Type, c.Strike)
		}
	}
}

func TestGetOptionsChainFiltersExpiry(t *testing.T) {
	e, _ := newTestEngine(t)
	expiry := testNow.AddDate(0, 0, 30)

	oc, err := e.GetOptionsChain(context.Background(), "XYZ", expiry)
	if err != nil {
		t.Fatalf("get chain: %v", err)
	}
	if len(oc.Expiries) != 1 {
		t.Errorf("expiries = %v, want the single requested one", oc.Expiries)
	}
	if oc.MaxPain == 0 {
		t.Error("filtered chain was not re-enriched")
	}

	if _, err := e.GetOptionsChain(context.Background(), "XYZ", testNow.AddDate(0, 6, 0)); !errors.Is(err, errors.ErrInvalidExpiry) {
		t.Errorf("err = %v, want ErrInvalidExpiry for unknown expiry", err)
	}
}

func TestChainIsCachedWithinTTL(t *testing.T) {
	e, provider := newTestEngine(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := e.GetOptionsChain(ctx, "XYZ", time.Time{}); err != nil {
			t.Fatalf("get %d: %v", i, err)
		}
	}
	if got := provider.calls.Load(); got != 1 {
		t.Errorf("provider fetched %d times within TTL, want 1", got)
	}
}

func TestCacheExpiresAcrossBuckets(t *testing.T) {
	clock := testNow
	provider := &countingProvider{inner: feed.NewStaticProvider(testSnapshot())}
	e := New(provider, config.Default(), zerolog.Nop(), WithClock(func() time.Time { return clock }))
	ctx := context.Background()

	if _, err := e.GetOptionsChain(ctx, "XYZ", time.Time{}); err != nil {
		t.Fatalf("first get: %v", err)
	}
	clock = clock.Add(config.Default().Cache.TTL + time.Second)
	if _, err := e.GetOptionsChain(ctx, "XYZ", time.Time{}); err != nil {
		t.Fatalf("second get: %v", err)
	}
	if got := provider.calls.Load(); got != 2 {
		t.Errorf("provider fetched %d times across TTL boundary, want 2", got)
	}
}

func TestRefreshEvictsCache(t *testing.T) {
	e, provider := newTestEngine(t)
	ctx := context.Background()

	if _, err := e.GetOptionsChain(ctx, "XYZ", time.Time{}); err != nil {
		t.Fatalf("first get: %v", err)
	}
	e.Refresh("xyz")
	if _, err := e.GetOptionsChain(ctx, "XYZ", time.Time{}); err != nil {
		t.Fatalf("second get: %v", err)
	}
	if got := provider.calls.Load(); got != 2 {
		t.Errorf("provider fetched %d times after refresh, want 2", got)
	}
}

func TestUnknownSymbol(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.GetOptionsChain(context.Background(), "NOPE", time.Time{})
	if !errors.Is(err, errors.ErrNoData) {
		t.Errorf("err = %v, want ErrNoData", err)
	}
}

func TestAnalyzeOptionStrategies(t *testing.T) {
	e, _ := newTestEngine(t)
	rec, err := e.AnalyzeOptionStrategies(context.Background(), "XYZ", models.Bearish, models.RiskMedium)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if rec.Returned == 0 {
		t.Fatal("expected at least one strategy")
	}
	for _, s := range rec.Strategies {
		if s.MaxLoss < 0 {
			t.Errorf("%s maxLoss = %v, must be non-negative", s.Name, s.MaxLoss)
		}
		if len(s.Payoff) != config.Default().Engine.PayoffSamples {
			t.Errorf("%s payoff has %d samples", s.Name, len(s.Payoff))
		}
	}
}

// fakeStore records saves and can be told to fail, to check that
// persistence stays best-effort.
type fakeStore struct {
	saved []store.SnapshotRecord
	fail  bool
}

func (f *fakeStore) SaveSnapshot(ctx context.Context, rec *store.SnapshotRecord) error {
	if f.fail {
		return fmt.Errorf("disk full")
	}
	f.saved = append(f.saved, *rec)
	return nil
}

func (f *fakeStore) History(ctx context.Context, symbol string, limit int) ([]store.SnapshotRecord, error) {
	return f.saved, nil
}

func (f *fakeStore) Close() error { return nil }

func TestChainBuildPersistsAnalytics(t *testing.T) {
	fs := &fakeStore{}
	e, _ := newTestEngine(t, WithStore(fs))

	if _, err := e.GetOptionsChain(context.Background(), "XYZ", time.Time{}); err != nil {
		t.Fatalf("get chain: %v", err)
	}
	if len(fs.saved) != 1 {
		t.Fatalf("saved %d records, want 1", len(fs.saved))
	}
	rec := fs.saved[0]
	if rec.Symbol != "XYZ" || rec.SpotPrice != 100 || rec.Contracts != 6 {
		t.Errorf("record = %+v, want symbol XYZ, spot 100, 6 contracts", rec)
	}
	if !rec.TakenAt.Equal(testNow) {
		t.Errorf("takenAt = %v, want the feed capture time %v", rec.TakenAt, testNow)
	}
}

func TestStoreFailureDoesNotFailChain(t *testing.T) {
	e, _ := newTestEngine(t, WithStore(&fakeStore{fail: true}))
	if _, err := e.GetOptionsChain(context.Background(), "XYZ", time.Time{}); err != nil {
		t.Errorf("chain request failed on store error: %v", err)
	}
}

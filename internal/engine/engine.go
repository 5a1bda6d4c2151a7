// Package engine is the facade over the analytics pipeline: it fetches
// snapshots, builds and enriches chains, caches them, and runs the strategy
// recommender.
package engine

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"chainalytics/internal/analytics"
	"chainalytics/internal/chain"
	"chainalytics/internal/config"
	"chainalytics/internal/errors"
	"chainalytics/internal/feed"
	"chainalytics/internal/logging"
	"chainalytics/internal/models"
	"chainalytics/internal/store"
	"chainalytics/internal/strategy"
)

// Engine ties the snapshot provider, chain builder, analytics, and strategy
// recommender together behind two calls. It is safe for concurrent use.
type Engine struct {
	provider    feed.Provider
	builder     *chain.Builder
	recommender *strategy.Recommender
	cache       *chainCache
	store       store.AnalyticsStore
	logger      zerolog.Logger
	now         func() time.Time
}

// Option configures an Engine beyond its required collaborators.
type Option func(*Engine)

// WithStore attaches an analytics store. Each freshly built chain gets its
// derived metrics persisted best-effort; persistence failures are logged and
// never fail the chain request.
func WithStore(s store.AnalyticsStore) Option {
	return func(e *Engine) { e.store = s }
}

// WithClock overrides the engine's time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an engine from a snapshot provider and configuration.
func New(provider feed.Provider, cfg *config.Config, logger zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{
		provider: provider,
		builder:  chain.NewBuilder(cfg.Engine.RiskFreeRate, cfg.Engine.DefaultIV, logger),
		recommender: strategy.NewRecommender(strategy.NewCatalog(strategy.Params{
			AssumedVolatility: cfg.Engine.AssumedVolatility,
			PayoffWidth:       cfg.Engine.PayoffWidth,
			PayoffSamples:     cfg.Engine.PayoffSamples,
		}), logger),
		cache:  newChainCache(cfg.Cache.TTL),
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// GetOptionsChain returns the current enriched chain for a symbol. A zero
// expiry returns the full chain; a non-zero expiry narrows it to that single
// expiry, re-deriving the chain-level analytics over the narrowed set.
func (e *Engine) GetOptionsChain(ctx context.Context, symbol string, expiry time.Time) (*models.OptionsChain, error) {
	oc, err := e.chain(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if expiry.IsZero() {
		return oc, nil
	}

	filtered, err := chain.FilterExpiry(oc, expiry)
	if err != nil {
		return nil, err
	}
	if err := analytics.Enrich(filtered); err != nil {
		return nil, err
	}
	return filtered, nil
}

// AnalyzeOptionStrategies builds and ranks the strategies applicable to the
// outlook and risk tolerance against the symbol's current chain.
func (e *Engine) AnalyzeOptionStrategies(ctx context.Context, symbol string, outlook models.MarketOutlook, risk models.RiskTolerance) (*strategy.Recommendation, error) {
	oc, err := e.chain(ctx, symbol)
	if err != nil {
		return nil, err
	}

	rec, err := e.recommender.Recommend(oc, outlook, risk)
	if err != nil {
		return nil, err
	}
	logging.LogRecommendation(e.logger, oc.Symbol, string(outlook), rec.Attempted, rec.Returned)
	return rec, nil
}

// Refresh evicts any cached chain for the symbol so the next call refetches.
func (e *Engine) Refresh(symbol string) {
	e.cache.evict(normalizeSymbol(symbol))
}

func (e *Engine) chain(ctx context.Context, symbol string) (*models.OptionsChain, error) {
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return nil, errors.NewValidationError("symbol", symbol, "must not be empty")
	}

	now := e.now()
	if oc, ok := e.cache.get(symbol, now); ok {
		return oc, nil
	}

	snap, err := e.provider.Snapshot(ctx, symbol)
	if err != nil {
		return nil, err
	}
	contracts, err := feed.ParseSnapshot(snap)
	if err != nil {
		return nil, err
	}
	logging.LogSnapshot(e.logger, symbol, len(contracts), snap.SpotPrice)

	oc, err := e.builder.Build(symbol, snap.SpotPrice, contracts, e.snapshotTime(snap, now))
	if err != nil {
		return nil, err
	}
	if err := analytics.Enrich(oc); err != nil {
		return nil, err
	}
	logging.LogChainBuilt(e.logger, symbol, len(oc.Strikes), len(oc.Expiries), oc.MaxPain, oc.PutCallRatio)

	e.cache.put(symbol, oc, now)
	e.persist(ctx, oc)
	return oc, nil
}

// snapshotTime anchors expiry filtering and time-to-expiry at the feed's
// capture time when present, falling back to the engine clock.
func (e *Engine) snapshotTime(snap *feed.Snapshot, now time.Time) time.Time {
	if !snap.TakenAt.IsZero() {
		return snap.TakenAt
	}
	return now
}

func (e *Engine) persist(ctx context.Context, oc *models.OptionsChain) {
	if e.store == nil {
		return
	}
	rec := &store.SnapshotRecord{
		Symbol:       oc.Symbol,
		TakenAt:      oc.SnapshotTime,
		SpotPrice:    oc.SpotPrice,
		MaxPain:      oc.MaxPain,
		PutCallRatio: oc.PutCallRatio,
		ATMIV:        oc.ATMIV,
		Contracts:    len(oc.Calls) + len(oc.Puts),
	}
	if err := e.store.SaveSnapshot(ctx, rec); err != nil {
		e.logger.Warn().
			Str("symbol", oc.Symbol).
			Err(err).
			Msg("Failed to persist analytics snapshot")
	}
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

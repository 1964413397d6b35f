/*
scheduler.go - Periodic hours catalog refresh

PURPOSE:
  The local catalog sheet and the remote lookup are edited by finance
  between runs. The server keeps one resolved catalog in memory and
  re-resolves it on an interval so new uploads classify against current
  hours without a restart.

DESIGN:
  - Runs a background goroutine with a configurable interval
  - Start resolves once synchronously, so the server never serves the
    default table while a configured source is readable
  - Readers get the last resolved catalog; a refresh swaps it atomically
  - A source failure is not fatal: the resolver falls through tiers and
    the default table always resolves

CONFIGURATION:
  - Interval: How often to refresh (default: 15 minutes)
  - Enabled:  Whether the refresher runs (default: true)

USAGE:
  refresher := NewCatalogRefresher(resolver, logger)
  refresher.Start()
  defer refresher.Stop()
  cat := refresher.Current()

SEE ALSO:
  - catalog/resolver.go: Tier resolution
  - handlers.go: Uses Current() for uploads without a catalog file
*/
package api

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warp/roster-ledger/catalog"
)

// CatalogRefresher keeps the server's hours catalog current.
type CatalogRefresher struct {
	Resolver *catalog.Resolver
	Interval time.Duration
	Enabled  bool

	log     *zap.Logger
	current *catalog.Catalog
	ticker  *time.Ticker
	stop    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	curMu   sync.RWMutex
}

// NewCatalogRefresher creates a refresher. Until the first refresh,
// Current returns the default table.
func NewCatalogRefresher(resolver *catalog.Resolver, logger *zap.Logger) *CatalogRefresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogRefresher{
		Resolver: resolver,
		Interval: 15 * time.Minute,
		Enabled:  true,
		log:      logger.Named("catalog-refresher"),
		current:  catalog.New(catalog.DefaultEntries(), catalog.TierDefault),
	}
}

// Start resolves the catalog, then keeps refreshing it in the background.
func (cr *CatalogRefresher) Start() {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	if !cr.Enabled || cr.Resolver == nil {
		cr.log.Info("disabled, not starting")
		return
	}
	if cr.ticker != nil {
		return
	}

	cr.Refresh(context.Background())

	if cr.Interval <= 0 {
		cr.Interval = 15 * time.Minute
	}
	cr.ticker = time.NewTicker(cr.Interval)
	cr.stop = make(chan struct{})
	cr.wg.Add(1)

	go cr.run(cr.ticker, cr.stop)

	cr.log.Info("started", zap.Duration("interval", cr.Interval))
}

// Stop stops the refresher and waits for an in-flight refresh.
func (cr *CatalogRefresher) Stop() {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	if cr.ticker != nil {
		cr.ticker.Stop()
		close(cr.stop)
		cr.wg.Wait()
		cr.ticker = nil
		cr.log.Info("stopped")
	}
}

func (cr *CatalogRefresher) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer cr.wg.Done()

	for {
		select {
		case <-ticker.C:
			cr.Refresh(context.Background())
		case <-stop:
			return
		}
	}
}

// Refresh resolves the catalog now and returns it.
func (cr *CatalogRefresher) Refresh(ctx context.Context) *catalog.Catalog {
	if cr.Resolver == nil {
		return cr.Current()
	}
	cat := cr.Resolver.Resolve(ctx)

	cr.curMu.Lock()
	previous := cr.current
	cr.current = cat
	cr.curMu.Unlock()

	if previous.Tier() != cat.Tier() || previous.Len() != cat.Len() {
		cr.log.Info("catalog changed",
			zap.String("tier", string(cat.Tier())),
			zap.Int("entries", cat.Len()),
			zap.String("previous_tier", string(previous.Tier())),
		)
	}
	return cat
}

// Current returns the last resolved catalog.
func (cr *CatalogRefresher) Current() *catalog.Catalog {
	cr.curMu.RLock()
	defer cr.curMu.RUnlock()
	return cr.current
}

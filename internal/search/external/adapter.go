// Package external fans out to the web-search provider for results the
// local catalog cannot supply. Provider failures never fail a turn: they
// degrade to an empty contribution plus a user-visible warning.
package external

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	stderrors "github.com/AlphaGL/Finda-backend-sub000/internal/common/errors"
	"github.com/AlphaGL/Finda-backend-sub000/internal/common/logger"
	"github.com/AlphaGL/Finda-backend-sub000/internal/common/metrics"
	"github.com/AlphaGL/Finda-backend-sub000/internal/models"
	"github.com/AlphaGL/Finda-backend-sub000/internal/search/normalize"
)

// Result is one external search outcome: the listings that arrived plus
// warnings for the legs that did not.
type Result struct {
	Listings []models.Listing
	Warnings []string
}

// Adapter coordinates provider calls, response caching, and the permanent
// failure latch. One Adapter instance is shared across turns.
type Adapter struct {
	provider   Provider
	normalizer *normalize.Normalizer
	cache      ResultCache
	cacheTTL   time.Duration
	timeout    time.Duration
	logger     logger.Logger

	// disabled latches on a permanent provider error (auth) so later turns
	// skip the source instead of re-failing on every request.
	disabled atomic.Bool
}

// ResultCache stores serialized provider results keyed by normalized query.
type ResultCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}

func NewAdapter(p Provider, n *normalize.Normalizer, cache ResultCache, cacheTTL, timeout time.Duration, log logger.Logger) *Adapter {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Adapter{
		provider:   p,
		normalizer: n,
		cache:      cache,
		cacheTTL:   cacheTTL,
		timeout:    timeout,
		logger:     log.WithFields(map[string]interface{}{"component": "external-search"}),
	}
}

// Disabled reports whether the provider has been latched off by a
// permanent failure.
func (a *Adapter) Disabled() bool {
	return a.disabled.Load()
}

// Search queries the provider for the requested kinds. SearchKindBoth runs
// products and services concurrently; each leg fails independently and a
// failed leg contributes a warning rather than an error.
func (a *Adapter) Search(ctx context.Context, query string, loc *models.Location, kind models.SearchKind, limit int) Result {
	if a.disabled.Load() {
		return Result{Warnings: []string{"external search is currently unavailable"}}
	}
	if limit <= 0 {
		limit = 10
	}

	kinds := []models.ListingKind{models.KindProduct}
	switch kind {
	case models.SearchServices:
		kinds = []models.ListingKind{models.KindService}
	case models.SearchBoth:
		kinds = []models.ListingKind{models.KindProduct, models.KindService}
	}

	var (
		mu  sync.Mutex
		out Result
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, k := range kinds {
		k := k
		g.Go(func() error {
			listings, err := a.searchKind(gctx, query, loc, k, limit)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				out.Warnings = append(out.Warnings, stderrors.Warning("external "+string(k)+" search", err))
				return nil
			}
			out.Listings = append(out.Listings, listings...)
			return nil
		})
	}
	// Legs never return errors, only warnings.
	_ = g.Wait()

	return out
}

func (a *Adapter) searchKind(ctx context.Context, query string, loc *models.Location, kind models.ListingKind, limit int) ([]models.Listing, error) {
	start := time.Now()

	if cached, ok := a.cachedItems(ctx, query, loc, kind); ok {
		metrics.AdapterCalls.WithLabelValues("external", "cache_hit").Inc()
		return a.normalizeAll(cached, kind), nil
	}

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	items, err := a.provider.Search(callCtx, query, loc, kind, limit)
	if err != nil {
		metrics.AdapterCalls.WithLabelValues("external", "error").Inc()
		a.logger.WithError(err).Warn("external provider call failed", map[string]interface{}{
			"query": query,
			"kind":  string(kind),
		})
		if stderrors.IsPermanent(err) {
			a.disabled.Store(true)
			a.logger.Error("external provider disabled after permanent failure", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return nil, err
	}

	metrics.AdapterCalls.WithLabelValues("external", "ok").Inc()
	metrics.AdapterDuration.WithLabelValues("external").Observe(time.Since(start).Seconds())

	a.storeItems(ctx, query, loc, kind, items)

	return a.normalizeAll(items, kind), nil
}

func (a *Adapter) normalizeAll(items []normalize.ProviderItem, kind models.ListingKind) []models.Listing {
	listings := make([]models.Listing, 0, len(items))
	for _, item := range items {
		listings = append(listings, a.normalizer.FromProviderItem(item, kind))
	}
	return listings
}

func (a *Adapter) cachedItems(ctx context.Context, query string, loc *models.Location, kind models.ListingKind) ([]normalize.ProviderItem, bool) {
	if a.cache == nil {
		return nil, false
	}
	raw, found, err := a.cache.Get(ctx, cacheKey(query, loc, kind))
	if err != nil {
		metrics.CacheOps.WithLabelValues("external_results", "error").Inc()
		return nil, false
	}
	if !found {
		metrics.CacheOps.WithLabelValues("external_results", "miss").Inc()
		return nil, false
	}
	items, err := decodeItems(raw)
	if err != nil {
		metrics.CacheOps.WithLabelValues("external_results", "error").Inc()
		return nil, false
	}
	metrics.CacheOps.WithLabelValues("external_results", "hit").Inc()
	return items, true
}

func (a *Adapter) storeItems(ctx context.Context, query string, loc *models.Location, kind models.ListingKind, items []normalize.ProviderItem) {
	if a.cache == nil || a.cacheTTL <= 0 {
		return
	}
	raw, err := encodeItems(items)
	if err != nil {
		return
	}
	if err := a.cache.Set(ctx, cacheKey(query, loc, kind), raw, a.cacheTTL); err != nil {
		metrics.CacheOps.WithLabelValues("external_results", "error").Inc()
		a.logger.Warn("failed to cache external results", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// cacheKey identifies a provider call by normalized query, kind, and city.
func cacheKey(query string, loc *models.Location, kind models.ListingKind) string {
	city := ""
	if loc != nil {
		city = strings.ToLower(strings.TrimSpace(loc.City))
	}
	normalized := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	return fmt.Sprintf("ext:%s:%s:%s", kind, city, normalized)
}

// Package ranking orders a unified listing slice by additive relevance
// scoring. Scoring is provenance-blind: a local row and an external item
// with the same attributes receive the same score.
package ranking

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/AlphaGL/Finda-backend-sub000/internal/common/logger"
	"github.com/AlphaGL/Finda-backend-sub000/internal/common/metrics"
	"github.com/AlphaGL/Finda-backend-sub000/internal/models"
)

// PriceSource supplies category average prices for the price
// competitiveness factor. The local catalog adapter satisfies this.
type PriceSource interface {
	AveragePrice(ctx context.Context, category string) (float64, bool)
}

// AverageCache stores computed category averages between turns.
type AverageCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}

// Engine ranks listings. One instance is shared across turns; it holds no
// per-turn state.
type Engine struct {
	weights     Weights
	priceSource PriceSource
	avgCache    AverageCache
	avgCacheTTL time.Duration
	logger      logger.Logger
	now         func() time.Time
}

func NewEngine(w Weights, prices PriceSource, avgCache AverageCache, avgCacheTTL time.Duration, log logger.Logger) *Engine {
	if w.LowRelevanceDivisor <= 0 {
		w.LowRelevanceDivisor = 10
	}
	return &Engine{
		weights:     w,
		priceSource: prices,
		avgCache:    avgCache,
		avgCacheTTL: avgCacheTTL,
		logger:      log.WithFields(map[string]interface{}{"component": "ranking"}),
		now:         time.Now,
	}
}

// Rank scores and orders listings for a query. Identical inputs produce an
// identical order: ties sort newest first, and fully identical entries keep
// their incoming order.
func (e *Engine) Rank(ctx context.Context, listings []models.Listing, query string, loc *models.Location) models.RankedResult {
	start := e.now()

	terms := queryTerms(query)
	averages := e.categoryAverages(ctx, listings)
	now := start.UTC()

	scored := make([]models.Listing, len(listings))
	copy(scored, listings)
	scores := make([]float64, len(scored))
	for i, l := range scored {
		scores[i] = e.score(l, query, terms, loc, averages[strings.ToLower(l.Category)], now)
	}

	indices := make([]int, len(scored))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(a, b int) bool {
		ia, ib := indices[a], indices[b]
		if scores[ia] != scores[ib] {
			return scores[ia] > scores[ib]
		}
		return scored[ia].CreatedAt.After(scored[ib].CreatedAt)
	})

	ordered := make([]models.Listing, len(scored))
	for i, idx := range indices {
		ordered[i] = scored[idx]
	}

	metrics.RankingDuration.Observe(time.Since(start).Seconds())

	return models.RankedResult{Query: query, Listings: ordered}
}

// categoryAverages resolves the average price for each distinct category in
// the batch, consulting the cache first and recomputing on miss.
func (e *Engine) categoryAverages(ctx context.Context, listings []models.Listing) map[string]float64 {
	averages := make(map[string]float64)
	if e.priceSource == nil {
		return averages
	}

	for _, l := range listings {
		category := strings.ToLower(strings.TrimSpace(l.Category))
		if category == "" {
			continue
		}
		if _, seen := averages[category]; seen {
			continue
		}
		averages[category] = e.averageFor(ctx, category)
	}
	return averages
}

func (e *Engine) averageFor(ctx context.Context, category string) float64 {
	key := "avgprice:" + category

	if e.avgCache != nil {
		if raw, found, err := e.avgCache.Get(ctx, key); err == nil && found {
			if avg, perr := strconv.ParseFloat(raw, 64); perr == nil {
				metrics.CacheOps.WithLabelValues("category_avg", "hit").Inc()
				return avg
			}
		}
		metrics.CacheOps.WithLabelValues("category_avg", "miss").Inc()
	}

	avg, ok := e.priceSource.AveragePrice(ctx, category)
	if !ok {
		return 0
	}

	if e.avgCache != nil && e.avgCacheTTL > 0 {
		if err := e.avgCache.Set(ctx, key, strconv.FormatFloat(avg, 'f', -1, 64), e.avgCacheTTL); err != nil {
			e.logger.Warn("failed to cache category average", map[string]interface{}{
				"category": category,
				"error":    err.Error(),
			})
		}
	}

	return avg
}

// queryTerms tokenizes the query the same way the local adapter does:
// lowercase words of at least two runes.
func queryTerms(query string) []string {
	var terms []string
	for _, t := range strings.Fields(strings.ToLower(query)) {
		if len([]rune(t)) >= 2 {
			terms = append(terms, t)
		}
	}
	return terms
}

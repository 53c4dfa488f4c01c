package external

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlphaGL/Finda-backend-sub000/internal/cache"
	stderrors "github.com/AlphaGL/Finda-backend-sub000/internal/common/errors"
	"github.com/AlphaGL/Finda-backend-sub000/internal/common/logger"
	"github.com/AlphaGL/Finda-backend-sub000/internal/models"
	"github.com/AlphaGL/Finda-backend-sub000/internal/search/normalize"
)

type stubProvider struct {
	mu      sync.Mutex
	calls   []models.ListingKind
	results map[models.ListingKind][]normalize.ProviderItem
	errs    map[models.ListingKind]error
}

func (s *stubProvider) Search(_ context.Context, _ string, _ *models.Location, kind models.ListingKind, _ int) ([]normalize.ProviderItem, error) {
	s.mu.Lock()
	s.calls = append(s.calls, kind)
	s.mu.Unlock()
	if err := s.errs[kind]; err != nil {
		return nil, err
	}
	return s.results[kind], nil
}

func (s *stubProvider) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func newTestAdapter(t *testing.T, p Provider, c ResultCache) *Adapter {
	t.Helper()
	return NewAdapter(p, normalize.New("NGN"), c, 10*time.Minute, time.Second, logger.NewTestLogger(t))
}

func TestSearch_BothKindsFanOut(t *testing.T) {
	p := &stubProvider{
		results: map[models.ListingKind][]normalize.ProviderItem{
			models.KindProduct: {{Title: "Samsung Galaxy A16", Link: "https://x/p"}},
			models.KindService: {{Title: "Phone Repair Lagos", Link: "https://x/s"}},
		},
	}
	a := newTestAdapter(t, p, nil)

	res := a.Search(context.Background(), "samsung galaxy", nil, models.SearchBoth, 10)
	require.Len(t, res.Listings, 2)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, 2, p.callCount())

	kinds := map[models.ListingKind]bool{}
	for _, l := range res.Listings {
		kinds[l.Kind] = true
		assert.Equal(t, models.ProvenanceExternal, l.Provenance)
	}
	assert.True(t, kinds[models.KindProduct])
	assert.True(t, kinds[models.KindService])
}

// One failed leg contributes a warning while the other leg's results are
// still delivered.
func TestSearch_PartialLegFailure(t *testing.T) {
	p := &stubProvider{
		results: map[models.ListingKind][]normalize.ProviderItem{
			models.KindProduct: {{Title: "Samsung Galaxy A16", Link: "https://x/p"}},
		},
		errs: map[models.ListingKind]error{
			models.KindService: stderrors.NewProviderTimeoutError("web-search"),
		},
	}
	a := newTestAdapter(t, p, nil)

	res := a.Search(context.Background(), "samsung galaxy", nil, models.SearchBoth, 10)
	require.Len(t, res.Listings, 1)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "timed out")
}

func TestSearch_TimeoutIsWarningNotError(t *testing.T) {
	p := &stubProvider{
		errs: map[models.ListingKind]error{
			models.KindProduct: stderrors.NewProviderTimeoutError("web-search"),
		},
	}
	a := newTestAdapter(t, p, nil)

	res := a.Search(context.Background(), "samsung galaxy", nil, models.SearchProducts, 10)
	assert.Empty(t, res.Listings)
	require.Len(t, res.Warnings, 1)
	assert.False(t, a.Disabled())
}

// A permanent auth failure latches the source off for the process run.
func TestSearch_PermanentErrorDisablesSource(t *testing.T) {
	p := &stubProvider{
		errs: map[models.ListingKind]error{
			models.KindProduct: stderrors.NewProviderAuthError("web-search", nil),
		},
	}
	a := newTestAdapter(t, p, nil)

	res := a.Search(context.Background(), "samsung galaxy", nil, models.SearchProducts, 10)
	assert.Len(t, res.Warnings, 1)
	assert.True(t, a.Disabled())

	// Subsequent turns skip the provider entirely.
	res = a.Search(context.Background(), "another query", nil, models.SearchProducts, 10)
	assert.Len(t, res.Warnings, 1)
	assert.Equal(t, 1, p.callCount())
}

func TestSearch_CacheHitSkipsProvider(t *testing.T) {
	p := &stubProvider{
		results: map[models.ListingKind][]normalize.ProviderItem{
			models.KindProduct: {{Title: "Samsung Galaxy A16", Link: "https://x/p", Price: 120000, HasPrice: true}},
		},
	}
	a := newTestAdapter(t, p, cache.NewMemory())

	first := a.Search(context.Background(), "Samsung  Galaxy", nil, models.SearchProducts, 10)
	require.Len(t, first.Listings, 1)
	assert.Equal(t, 1, p.callCount())

	// Whitespace and case differences hit the same cache entry.
	second := a.Search(context.Background(), "samsung galaxy", nil, models.SearchProducts, 10)
	require.Len(t, second.Listings, 1)
	assert.Equal(t, 1, p.callCount())

	// The price sentinel survives the cache round trip.
	assert.False(t, second.Listings[0].PriceOnRequest)
	assert.Equal(t, 120000.0, second.Listings[0].Price)
}

func TestSearch_CacheKeyVariesByKindAndLocation(t *testing.T) {
	lagos := &models.Location{City: "Lagos"}
	assert.NotEqual(t,
		cacheKey("samsung galaxy", nil, models.KindProduct),
		cacheKey("samsung galaxy", nil, models.KindService),
	)
	assert.NotEqual(t,
		cacheKey("samsung galaxy", nil, models.KindProduct),
		cacheKey("samsung galaxy", lagos, models.KindProduct),
	)
	assert.Equal(t,
		cacheKey("Samsung  Galaxy", lagos, models.KindProduct),
		cacheKey("samsung galaxy", lagos, models.KindProduct),
	)
}

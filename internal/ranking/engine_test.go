package ranking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlphaGL/Finda-backend-sub000/internal/common/logger"
	"github.com/AlphaGL/Finda-backend-sub000/internal/models"
)

type stubPrices struct {
	averages map[string]float64
	calls    int
}

func (s *stubPrices) AveragePrice(_ context.Context, category string) (float64, bool) {
	s.calls++
	avg, ok := s.averages[category]
	return avg, ok
}

func newTestEngine(t *testing.T, prices PriceSource) *Engine {
	t.Helper()
	return NewEngine(DefaultWeights(), prices, nil, 0, logger.NewTestLogger(t))
}

func listing(id, name string, createdAt time.Time) models.Listing {
	return models.Listing{ID: id, Name: name, CreatedAt: createdAt, Provenance: models.ProvenanceLocal}
}

func TestRank_ExactNameFirst(t *testing.T) {
	e := newTestEngine(t, nil)
	now := time.Now().UTC()

	listings := []models.Listing{
		listing("sub", "cheap samsung galaxy a16 case", now),
		listing("exact", "samsung galaxy a16", now),
		listing("prefix", "samsung galaxy a16 128gb", now),
	}

	got := e.Rank(context.Background(), listings, "samsung galaxy a16", nil)
	require.Len(t, got.Listings, 3)
	assert.Equal(t, "exact", got.Listings[0].ID)
	assert.Equal(t, "prefix", got.Listings[1].ID)
	assert.Equal(t, "sub", got.Listings[2].ID)
}

func TestRank_Idempotent(t *testing.T) {
	e := newTestEngine(t, nil)
	now := time.Now().UTC()

	listings := []models.Listing{
		listing("a", "samsung galaxy a16", now.Add(-time.Hour)),
		listing("b", "galaxy a16 charger", now.Add(-2*time.Hour)),
		listing("c", "samsung tv stand", now.Add(-3*time.Hour)),
		listing("d", "used samsung galaxy", now),
	}

	first := e.Rank(context.Background(), listings, "samsung galaxy", nil)
	second := e.Rank(context.Background(), listings, "samsung galaxy", nil)

	require.Equal(t, len(first.Listings), len(second.Listings))
	for i := range first.Listings {
		assert.Equal(t, first.Listings[i].ID, second.Listings[i].ID)
	}
}

func TestRank_TieBreakNewestFirst(t *testing.T) {
	e := newTestEngine(t, nil)
	older := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	listings := []models.Listing{
		listing("older", "samsung galaxy a16", older),
		listing("newer", "samsung galaxy a16", newer),
	}

	got := e.Rank(context.Background(), listings, "samsung galaxy a16", nil)
	require.Len(t, got.Listings, 2)
	assert.Equal(t, "newer", got.Listings[0].ID)
	assert.Equal(t, "older", got.Listings[1].ID)
}

func TestRank_StableOnFullTie(t *testing.T) {
	e := newTestEngine(t, nil)
	at := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	listings := []models.Listing{
		listing("first-in", "samsung galaxy a16", at),
		listing("second-in", "samsung galaxy a16", at),
	}

	got := e.Rank(context.Background(), listings, "samsung galaxy a16", nil)
	require.Len(t, got.Listings, 2)
	assert.Equal(t, "first-in", got.Listings[0].ID)
	assert.Equal(t, "second-in", got.Listings[1].ID)
}

// A popular but irrelevant listing must not outrank a genuine match.
func TestRank_LowRelevanceClamp(t *testing.T) {
	e := newTestEngine(t, nil)
	now := time.Now().UTC()

	irrelevant := models.Listing{
		ID:        "promoted-noise",
		Name:      "industrial cement mixer",
		CreatedAt: now,
		Flags:     models.BusinessFlags{Promoted: true, Featured: true, Verified: true},
		Rating:    models.Rating{Average: 4.9, Count: 200},
		Engagement: models.Engagement{
			Views:    5000,
			Contacts: 90,
		},
	}
	match := models.Listing{
		ID:        "plain-match",
		Name:      "samsung galaxy a16",
		CreatedAt: now.Add(-30 * 24 * time.Hour),
	}

	got := e.Rank(context.Background(), []models.Listing{irrelevant, match}, "samsung galaxy a16", nil)
	require.Len(t, got.Listings, 2)
	assert.Equal(t, "plain-match", got.Listings[0].ID)
}

func TestRank_ProvenanceBlind(t *testing.T) {
	e := newTestEngine(t, nil)
	at := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	localItem := listing("local", "samsung galaxy a16", at)
	externalItem := listing("external", "samsung galaxy a16", at)
	externalItem.Provenance = models.ProvenanceExternal

	terms := queryTerms("samsung galaxy a16")
	sLocal := e.score(localItem, "samsung galaxy a16", terms, nil, 0, at)
	sExternal := e.score(externalItem, "samsung galaxy a16", terms, nil, 0, at)
	assert.Equal(t, sLocal, sExternal)
}

func TestRank_LocationProximity(t *testing.T) {
	e := newTestEngine(t, nil)
	at := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	inCity := listing("lagos", "samsung galaxy a16", at)
	inCity.Location = models.Location{City: "Lagos", State: "Lagos"}
	elsewhere := listing("abuja", "samsung galaxy a16", at)
	elsewhere.Location = models.Location{City: "Abuja", State: "FCT"}

	got := e.Rank(context.Background(), []models.Listing{elsewhere, inCity},
		"samsung galaxy a16", &models.Location{City: "Lagos"})
	require.Len(t, got.Listings, 2)
	assert.Equal(t, "lagos", got.Listings[0].ID)
}

func TestRank_PriceCompetitiveness(t *testing.T) {
	prices := &stubPrices{averages: map[string]float64{"phones": 100000}}
	e := newTestEngine(t, prices)
	at := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	bargain := listing("bargain", "samsung galaxy a16", at)
	bargain.Category = "Phones"
	bargain.Price = 70000
	pricey := listing("pricey", "samsung galaxy a16", at)
	pricey.Category = "Phones"
	pricey.Price = 150000

	got := e.Rank(context.Background(), []models.Listing{pricey, bargain}, "samsung galaxy a16", nil)
	require.Len(t, got.Listings, 2)
	assert.Equal(t, "bargain", got.Listings[0].ID)
	// One category in the batch, one source lookup.
	assert.Equal(t, 1, prices.calls)
}

func TestRank_EmptyInput(t *testing.T) {
	e := newTestEngine(t, nil)
	got := e.Rank(context.Background(), nil, "anything", nil)
	assert.Empty(t, got.Listings)
	assert.Equal(t, "anything", got.Query)
}

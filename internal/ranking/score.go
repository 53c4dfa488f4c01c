// internal/ranking/score.go
package ranking

import (
	"strings"
	"time"

	"github.com/AlphaGL/Finda-backend-sub000/internal/models"
)

// Weights are the additive score contributions per factor. The relative
// ordering between factors is the contract; the magnitudes are tunable.
type Weights struct {
	ExactName     float64
	NamePrefix    float64
	NameSubstring float64

	BrandExact   float64
	BrandPartial float64

	WordInName        float64
	WordInBrand       float64
	WordInCategory    float64
	WordInTags        float64
	WordInDescription float64

	RatingHigh float64 // >= 4.5
	RatingGood float64 // >= 4.0
	RatingFair float64 // >= 3.5

	ReviewsMany float64 // > 50
	ReviewsSome float64 // > 10
	ReviewsAny  float64 // > 0

	Promoted float64
	Featured float64
	Verified float64

	ViewsHigh    float64 // > 1000
	ViewsMedium  float64 // > 100
	ContactsHigh float64 // > 50
	ContactsSome float64 // > 5

	SameCity  float64
	SameState float64

	PriceWellBelowAvg float64 // <= 75% of category average
	PriceBelowAvg     float64 // <= 90%
	PriceNearAvg      float64 // <= 110%

	Freshness       float64
	FreshnessWindow time.Duration

	// LowRelevanceDivisor clamps listings with no query-word overlap so
	// popularity alone cannot outrank an actual match.
	LowRelevanceDivisor float64
}

func DefaultWeights() Weights {
	return Weights{
		ExactName:     100,
		NamePrefix:    60,
		NameSubstring: 40,

		BrandExact:   30,
		BrandPartial: 15,

		WordInName:        10,
		WordInBrand:       8,
		WordInCategory:    6,
		WordInTags:        4,
		WordInDescription: 2,

		RatingHigh: 15,
		RatingGood: 10,
		RatingFair: 5,

		ReviewsMany: 8,
		ReviewsSome: 5,
		ReviewsAny:  2,

		Promoted: 12,
		Featured: 8,
		Verified: 5,

		ViewsHigh:    6,
		ViewsMedium:  3,
		ContactsHigh: 6,
		ContactsSome: 3,

		SameCity:  10,
		SameState: 5,

		PriceWellBelowAvg: 8,
		PriceBelowAvg:     5,
		PriceNearAvg:      2,

		Freshness:       3,
		FreshnessWindow: 14 * 24 * time.Hour,

		LowRelevanceDivisor: 10,
	}
}

// score computes the additive relevance score for one listing. categoryAvg
// of zero means no average is known and price competitiveness is skipped.
func (e *Engine) score(l models.Listing, query string, terms []string, loc *models.Location, categoryAvg float64, now time.Time) float64 {
	w := e.weights
	var s float64

	name := strings.ToLower(l.Name)
	brand := strings.ToLower(l.Brand)
	q := strings.ToLower(strings.TrimSpace(query))

	switch {
	case name == q:
		s += w.ExactName
	case strings.HasPrefix(name, q):
		s += w.NamePrefix
	case strings.Contains(name, q):
		s += w.NameSubstring
	}

	if brand != "" {
		switch {
		case brand == q:
			s += w.BrandExact
		case strings.Contains(brand, q) || strings.Contains(q, brand):
			s += w.BrandPartial
		}
	}

	category := strings.ToLower(l.Category)
	description := strings.ToLower(l.Description)
	tags := strings.ToLower(strings.Join(l.Tags, " "))
	for _, t := range terms {
		if strings.Contains(name, t) {
			s += w.WordInName
		}
		if brand != "" && strings.Contains(brand, t) {
			s += w.WordInBrand
		}
		if category != "" && strings.Contains(category, t) {
			s += w.WordInCategory
		}
		if tags != "" && strings.Contains(tags, t) {
			s += w.WordInTags
		}
		if description != "" && strings.Contains(description, t) {
			s += w.WordInDescription
		}
	}

	switch {
	case l.Rating.Average >= 4.5:
		s += w.RatingHigh
	case l.Rating.Average >= 4.0:
		s += w.RatingGood
	case l.Rating.Average >= 3.5:
		s += w.RatingFair
	}
	switch {
	case l.Rating.Count > 50:
		s += w.ReviewsMany
	case l.Rating.Count > 10:
		s += w.ReviewsSome
	case l.Rating.Count > 0:
		s += w.ReviewsAny
	}

	if l.Flags.Promoted {
		s += w.Promoted
	}
	if l.Flags.Featured {
		s += w.Featured
	}
	if l.Flags.Verified {
		s += w.Verified
	}

	switch {
	case l.Engagement.Views > 1000:
		s += w.ViewsHigh
	case l.Engagement.Views > 100:
		s += w.ViewsMedium
	}
	switch {
	case l.Engagement.Contacts > 50:
		s += w.ContactsHigh
	case l.Engagement.Contacts > 5:
		s += w.ContactsSome
	}

	if loc != nil {
		switch {
		case loc.City != "" && strings.EqualFold(l.Location.City, loc.City):
			s += w.SameCity
		case loc.State != "" && strings.EqualFold(l.Location.State, loc.State):
			s += w.SameState
		}
	}

	if categoryAvg > 0 && l.Price > 0 && !l.PriceOnRequest {
		switch {
		case l.Price <= categoryAvg*0.75:
			s += w.PriceWellBelowAvg
		case l.Price <= categoryAvg*0.90:
			s += w.PriceBelowAvg
		case l.Price <= categoryAvg*1.10:
			s += w.PriceNearAvg
		}
	}

	if w.FreshnessWindow > 0 && !l.CreatedAt.IsZero() && now.Sub(l.CreatedAt) <= w.FreshnessWindow {
		s += w.Freshness
	}

	if !matchesQuery(name, brand, category, tags, description, q, terms) {
		s /= w.LowRelevanceDivisor
	}

	return s
}

// matchesQuery reports whether any searched field contains the whole query
// or at least one query word.
func matchesQuery(name, brand, category, tags, description, q string, terms []string) bool {
	fields := []string{name, brand, category, tags, description}
	for _, f := range fields {
		if f == "" {
			continue
		}
		if q != "" && strings.Contains(f, q) {
			return true
		}
		for _, t := range terms {
			if strings.Contains(f, t) {
				return true
			}
		}
	}
	return false
}

// internal/search/local/query.go
package local

import (
	"fmt"
	"strings"

	"github.com/AlphaGL/Finda-backend-sub000/internal/models"
)

// Filters are the structured constraints applied before text matching.
type Filters struct {
	Status       string
	Kind         models.ListingKind
	Category     string
	MinPrice     float64
	MaxPrice     float64
	MinRating    float64
	PromotedOnly bool
	FeaturedOnly bool
	VerifiedOnly bool
}

const listingColumns = `id, kind, name, description, brand, category, tags, price, currency,
	city, state, country, rating_avg, rating_count, promoted, featured, verified,
	views, contacts, created_at`

// likeEscaper neutralizes LIKE metacharacters in user terms; a term such
// as "100%" must match literally, not as a wildcard.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Terms tokenizes a query into the terms that must all match. Terms shorter
// than two runes carry no signal and are dropped.
func Terms(query string) []string {
	var terms []string
	for _, t := range strings.Fields(strings.ToLower(query)) {
		if len([]rune(t)) >= 2 {
			terms = append(terms, t)
		}
	}
	return terms
}

// buildListingQuery assembles the catalog search statement. Structured
// filters come first, then one conjunctive clause per term: every term must
// match at least one searched field, which narrows multi-term queries to
// genuinely relevant rows and leaves fine-grained weighting to the ranking
// engine.
func buildListingQuery(query string, f Filters, loc *models.Location, limit int) (string, []interface{}) {
	var (
		where []string
		args  []interface{}
	)

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	status := f.Status
	if status == "" {
		status = "published"
	}
	where = append(where, "status = "+arg(status))

	if f.Kind != "" {
		where = append(where, "kind = "+arg(string(f.Kind)))
	}
	if f.Category != "" {
		where = append(where, "category = "+arg(f.Category))
	}
	if f.MinPrice > 0 {
		where = append(where, "price >= "+arg(f.MinPrice))
	}
	if f.MaxPrice > 0 {
		where = append(where, "price <= "+arg(f.MaxPrice))
	}
	if f.MinRating > 0 {
		where = append(where, "rating_avg >= "+arg(f.MinRating))
	}
	if f.PromotedOnly {
		where = append(where, "promoted = TRUE")
	}
	if f.FeaturedOnly {
		where = append(where, "featured = TRUE")
	}
	if f.VerifiedOnly {
		where = append(where, "verified = TRUE")
	}
	if loc != nil && loc.City != "" {
		where = append(where, "city = "+arg(loc.City))
	}

	for _, term := range Terms(query) {
		p := arg("%" + likeEscaper.Replace(term) + "%")
		where = append(where, fmt.Sprintf(
			"(name ILIKE %[1]s OR description ILIKE %[1]s OR brand ILIKE %[1]s OR category ILIKE %[1]s OR array_to_string(tags, ' ') ILIKE %[1]s)",
			p,
		))
	}

	sql := "SELECT " + listingColumns + " FROM listings WHERE " + strings.Join(where, " AND ") +
		// Coarse adapter-level order only; the ranking engine decides the
		// final order.
		" ORDER BY promoted DESC, featured DESC, created_at DESC" +
		" LIMIT " + arg(limit)

	return sql, args
}

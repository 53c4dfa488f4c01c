// Package normalize converts heterogeneous source records, local catalog
// rows and external provider payloads alike, into the one Listing shape the
// rest of the engine consumes. Listings are built here and nowhere else; the
// kind discriminator is set exactly once, at normalization time.
package normalize

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/AlphaGL/Finda-backend-sub000/internal/models"
)

// fallbackSearchURL is the link synthesized when a provider supplies none,
// so the "every listing is navigable" contract always holds.
const fallbackSearchURL = "https://www.google.com/search"

// Normalizer applies source-specific defaults while producing listings.
type Normalizer struct {
	defaultCurrency string
}

func New(defaultCurrency string) *Normalizer {
	if defaultCurrency == "" {
		defaultCurrency = "NGN"
	}
	return &Normalizer{defaultCurrency: defaultCurrency}
}

// CatalogRow is the raw local catalog record as scanned from the database.
type CatalogRow struct {
	ID          string
	Kind        string
	Name        string
	Description string
	Brand       string
	Category    string
	Tags        []string
	Price       float64
	Currency    string
	City        string
	State       string
	Country     string
	RatingAvg   float64
	RatingCount int
	Promoted    bool
	Featured    bool
	Verified    bool
	Views       int
	Contacts    int
	CreatedAt   time.Time
}

// ProviderItem is one raw external provider result after payload validation.
type ProviderItem struct {
	Title       string  `json:"title"`
	Snippet     string  `json:"snippet"`
	Link        string  `json:"link"`
	Price       float64 `json:"price"`
	HasPrice    bool    `json:"-"`
	Currency    string  `json:"currency"`
	Source      string  `json:"source"`
	City        string  `json:"city"`
	RatingAvg   float64 `json:"rating"`
	RatingCount int     `json:"ratingCount"`
}

// FromCatalogRow converts a local catalog row. Rows always carry an
// explicit kind column; anything unrecognized defaults to product.
func (n *Normalizer) FromCatalogRow(row CatalogRow) models.Listing {
	kind := models.KindProduct
	if strings.EqualFold(row.Kind, string(models.KindService)) {
		kind = models.KindService
	}

	currency := row.Currency
	if currency == "" {
		currency = n.defaultCurrency
	}

	return models.Listing{
		ID:          row.ID,
		Kind:        kind,
		Name:        row.Name,
		Description: row.Description,
		Brand:       row.Brand,
		Category:    row.Category,
		Tags:        row.Tags,
		Price:       row.Price,
		Currency:    currency,
		Location: models.Location{
			City:    row.City,
			State:   row.State,
			Country: row.Country,
		},
		Rating:     models.Rating{Average: row.RatingAvg, Count: row.RatingCount},
		Provenance: models.ProvenanceLocal,
		Link:       "/listings/" + row.ID,
		Flags: models.BusinessFlags{
			Promoted: row.Promoted,
			Featured: row.Featured,
			Verified: row.Verified,
		},
		Engagement: models.Engagement{Views: row.Views, Contacts: row.Contacts},
		CreatedAt:  row.CreatedAt,
	}
}

// FromProviderItem converts one external result, applying explicit defaults
// for every field the provider may omit: absent price becomes the
// contact-seller sentinel, absent link is synthesized from name + location.
func (n *Normalizer) FromProviderItem(item ProviderItem, kind models.ListingKind) models.Listing {
	currency := item.Currency
	if currency == "" {
		currency = n.defaultCurrency
	}

	link := item.Link
	if link == "" {
		link = SynthesizeLink(item.Title, item.City)
	}

	listing := models.Listing{
		ID:          externalID(item),
		Kind:        kind,
		Name:        item.Title,
		Description: item.Snippet,
		Brand:       item.Source,
		Price:       item.Price,
		Currency:    currency,
		Location:    models.Location{City: item.City},
		Rating:      models.Rating{Average: item.RatingAvg, Count: item.RatingCount},
		Provenance:  models.ProvenanceExternal,
		Link:        link,
		CreatedAt:   time.Now().UTC(),
	}

	if !item.HasPrice {
		listing.Price = 0
		listing.PriceOnRequest = true
	}

	return listing
}

// SynthesizeLink builds a generic search-style link from an item's name and
// location so external listings remain navigable without a provider URL.
func SynthesizeLink(name, city string) string {
	q := strings.TrimSpace(name)
	if city != "" {
		q += " " + city
	}
	return fallbackSearchURL + "?q=" + url.QueryEscape(q)
}

// externalID derives a stable identifier for an external item. Links are
// unique per provider; titles are the fallback.
func externalID(item ProviderItem) string {
	if item.Link != "" {
		return fmt.Sprintf("ext:%s", item.Link)
	}
	return fmt.Sprintf("ext:%s", strings.ToLower(strings.TrimSpace(item.Title)))
}

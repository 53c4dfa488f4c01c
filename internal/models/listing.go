// internal/models/listing.go
package models

import "time"

// ListingKind discriminates products from services. It is set once by the
// normalizer; downstream code switches on Kind and never probes field shape.
type ListingKind string

const (
	KindProduct ListingKind = "product"
	KindService ListingKind = "service"
)

// Provenance records which source produced a listing.
type Provenance string

const (
	ProvenanceLocal    Provenance = "local"
	ProvenanceExternal Provenance = "external"
)

// Rating holds the aggregate review score for a listing.
type Rating struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// BusinessFlags are seller-level promotion markers.
type BusinessFlags struct {
	Promoted bool `json:"promoted"`
	Featured bool `json:"featured"`
	Verified bool `json:"verified"`
}

// Engagement holds view and contact counters for a listing.
type Engagement struct {
	Views    int `json:"views"`
	Contacts int `json:"contacts"`
}

// Location is a coarse city/state/country triple used for proximity scoring.
type Location struct {
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`
}

// Listing is the common shape every search source is normalized into.
// Only the normalizer constructs listings; adapters and the ranking engine
// treat them as opaque values with a single provenance.
type Listing struct {
	ID          string        `json:"id" db:"id"`
	Kind        ListingKind   `json:"kind" db:"kind"`
	Name        string        `json:"name" db:"name"`
	Description string        `json:"description,omitempty" db:"description"`
	Brand       string        `json:"brand,omitempty" db:"brand"`
	Category    string        `json:"category,omitempty" db:"category"`
	Tags        []string      `json:"tags,omitempty" db:"tags"`
	Price       float64       `json:"price" db:"price"`
	// PriceOnRequest marks listings whose source supplied no price
	// ("contact seller"); Price is zero and excluded from price scoring.
	PriceOnRequest bool          `json:"priceOnRequest,omitempty"`
	Currency       string        `json:"currency" db:"currency"`
	Location       Location      `json:"location"`
	Rating         Rating        `json:"rating"`
	Provenance     Provenance    `json:"provenance"`
	Link           string        `json:"link"`
	Flags          BusinessFlags `json:"businessFlags"`
	Engagement     Engagement    `json:"engagement"`
	CreatedAt      time.Time     `json:"createdAt" db:"created_at"`
}

// LightRef is the compact listing reference kept in conversation context
// snapshots so follow-up turns can resolve "the second one".
type LightRef struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Kind     ListingKind `json:"type"`
	Price    float64     `json:"price"`
	Location string      `json:"location,omitempty"`
}

// Ref returns the lightweight reference for context snapshots.
func (l Listing) Ref() LightRef {
	return LightRef{
		ID:       l.ID,
		Name:     l.Name,
		Kind:     l.Kind,
		Price:    l.Price,
		Location: l.Location.City,
	}
}

// RankedResult is the immutable output of the ranking engine: the ordered
// listings plus the query they were ranked against.
type RankedResult struct {
	Query    string    `json:"query"`
	Listings []Listing `json:"listings"`
}

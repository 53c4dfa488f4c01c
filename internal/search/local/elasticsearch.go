// internal/search/local/elasticsearch.go
package local

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/AlphaGL/Finda-backend-sub000/internal/common/logger"
	"github.com/AlphaGL/Finda-backend-sub000/internal/common/metrics"
	"github.com/AlphaGL/Finda-backend-sub000/internal/models"
	"github.com/AlphaGL/Finda-backend-sub000/internal/search/normalize"
)

// ESAdapter is the catalog-index Searcher used when the deployment keeps
// the catalog in Elasticsearch. Same contract, same conjunctive property:
// one must-clause per term.
type ESAdapter struct {
	client     *elasticsearch.Client
	index      string
	normalizer *normalize.Normalizer
	logger     logger.Logger
}

func NewESAdapter(client *elasticsearch.Client, index string, n *normalize.Normalizer, log logger.Logger) *ESAdapter {
	return &ESAdapter{
		client:     client,
		index:      index,
		normalizer: n,
		logger:     log.WithFields(map[string]interface{}{"component": "local-search-es"}),
	}
}

type esHit struct {
	Source normalize.CatalogRow `json:"_source"`
}

type esSearchResponse struct {
	Hits struct {
		Hits []esHit `json:"hits"`
	} `json:"hits"`
	Aggregations struct {
		AvgPrice struct {
			Value *float64 `json:"value"`
		} `json:"avg_price"`
	} `json:"aggregations"`
}

func (a *ESAdapter) Search(ctx context.Context, query string, f Filters, loc *models.Location, limit int) []models.Listing {
	start := time.Now()
	if limit <= 0 {
		limit = 10
	}

	body := buildESQuery(query, f, loc)
	raw, _ := json.Marshal(body)

	req := esapi.SearchRequest{
		Index: []string{a.index},
		Body:  bytes.NewReader(raw),
		Size:  &limit,
	}

	res, err := req.Do(ctx, a.client)
	if err != nil {
		a.fail(query, err.Error())
		return nil
	}
	defer res.Body.Close()

	if res.IsError() {
		a.fail(query, res.Status())
		return nil
	}

	var parsed esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		a.fail(query, err.Error())
		return nil
	}

	listings := make([]models.Listing, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		listings = append(listings, a.normalizer.FromCatalogRow(hit.Source))
	}

	metrics.AdapterCalls.WithLabelValues("local", "ok").Inc()
	metrics.AdapterDuration.WithLabelValues("local").Observe(time.Since(start).Seconds())

	return listings
}

func (a *ESAdapter) AveragePrice(ctx context.Context, category string) (float64, bool) {
	body := map[string]interface{}{
		"size": 0,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []interface{}{
					map[string]interface{}{"term": map[string]interface{}{"status": "published"}},
					map[string]interface{}{"term": map[string]interface{}{"category": category}},
					map[string]interface{}{"range": map[string]interface{}{"price": map[string]interface{}{"gt": 0}}},
				},
			},
		},
		"aggs": map[string]interface{}{
			"avg_price": map[string]interface{}{
				"avg": map[string]interface{}{"field": "price"},
			},
		},
	}
	raw, _ := json.Marshal(body)

	req := esapi.SearchRequest{
		Index: []string{a.index},
		Body:  bytes.NewReader(raw),
	}

	res, err := req.Do(ctx, a.client)
	if err != nil {
		return 0, false
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, false
	}

	var parsed esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return 0, false
	}
	if parsed.Aggregations.AvgPrice.Value == nil {
		return 0, false
	}
	return *parsed.Aggregations.AvgPrice.Value, true
}

// Categories lists the busiest published categories via a terms aggregation.
func (a *ESAdapter) Categories(ctx context.Context, limit int) []string {
	if limit <= 0 {
		limit = 10
	}
	body := map[string]interface{}{
		"size": 0,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []interface{}{term("status", "published")},
			},
		},
		"aggs": map[string]interface{}{
			"categories": map[string]interface{}{
				"terms": map[string]interface{}{"field": "category", "size": limit},
			},
		},
	}
	raw, _ := json.Marshal(body)

	req := esapi.SearchRequest{
		Index: []string{a.index},
		Body:  bytes.NewReader(raw),
	}
	res, err := req.Do(ctx, a.client)
	if err != nil {
		return nil
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil
	}

	var parsed struct {
		Aggregations struct {
			Categories struct {
				Buckets []struct {
					Key string `json:"key"`
				} `json:"buckets"`
			} `json:"categories"`
		} `json:"aggregations"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil
	}

	categories := make([]string, 0, len(parsed.Aggregations.Categories.Buckets))
	for _, b := range parsed.Aggregations.Categories.Buckets {
		categories = append(categories, b.Key)
	}
	return categories
}

// buildESQuery mirrors the SQL builder: filter clauses for structured
// constraints, one must multi_match per term for conjunctive matching.
func buildESQuery(query string, f Filters, loc *models.Location) map[string]interface{} {
	mustClauses := []interface{}{}
	filterClauses := []interface{}{}

	status := f.Status
	if status == "" {
		status = "published"
	}
	filterClauses = append(filterClauses, term("status", status))

	if f.Kind != "" {
		filterClauses = append(filterClauses, term("kind", string(f.Kind)))
	}
	if f.Category != "" {
		filterClauses = append(filterClauses, term("category", f.Category))
	}
	if f.MinPrice > 0 || f.MaxPrice > 0 {
		priceRange := map[string]interface{}{}
		if f.MinPrice > 0 {
			priceRange["gte"] = f.MinPrice
		}
		if f.MaxPrice > 0 {
			priceRange["lte"] = f.MaxPrice
		}
		filterClauses = append(filterClauses, map[string]interface{}{
			"range": map[string]interface{}{"price": priceRange},
		})
	}
	if f.MinRating > 0 {
		filterClauses = append(filterClauses, map[string]interface{}{
			"range": map[string]interface{}{"rating_avg": map[string]interface{}{"gte": f.MinRating}},
		})
	}
	if f.PromotedOnly {
		filterClauses = append(filterClauses, term("promoted", true))
	}
	if f.FeaturedOnly {
		filterClauses = append(filterClauses, term("featured", true))
	}
	if f.VerifiedOnly {
		filterClauses = append(filterClauses, term("verified", true))
	}
	if loc != nil && loc.City != "" {
		filterClauses = append(filterClauses, term("city", loc.City))
	}

	for _, t := range Terms(query) {
		mustClauses = append(mustClauses, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  t,
				"fields": []string{"name^3", "brand^2", "category", "tags", "description"},
				"type":   "best_fields",
			},
		})
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":   mustClauses,
				"filter": filterClauses,
			},
		},
		"sort": []interface{}{
			map[string]interface{}{"promoted": map[string]interface{}{"order": "desc"}},
			map[string]interface{}{"featured": map[string]interface{}{"order": "desc"}},
			map[string]interface{}{"created_at": map[string]interface{}{"order": "desc"}},
		},
	}
}

func term(field string, value interface{}) map[string]interface{} {
	return map[string]interface{}{"term": map[string]interface{}{field: value}}
}

func (a *ESAdapter) fail(query, detail string) {
	metrics.AdapterCalls.WithLabelValues("local", "error").Inc()
	a.logger.Error("catalog index search degraded to empty result", map[string]interface{}{
		"query": query,
		"error": detail,
	})
}

// Package local queries the marketplace's own catalog. The adapter always
// returns: internal failures degrade to an empty slice with a logged cause,
// never an error past the boundary.
package local

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	stderrors "github.com/AlphaGL/Finda-backend-sub000/internal/common/errors"
	"github.com/AlphaGL/Finda-backend-sub000/internal/common/logger"
	"github.com/AlphaGL/Finda-backend-sub000/internal/common/metrics"
	"github.com/AlphaGL/Finda-backend-sub000/internal/models"
	"github.com/AlphaGL/Finda-backend-sub000/internal/search/normalize"
)

// Searcher is the local catalog contract consumed by the orchestrator and,
// for price competitiveness, the ranking engine.
type Searcher interface {
	Search(ctx context.Context, query string, f Filters, loc *models.Location, limit int) []models.Listing
	AveragePrice(ctx context.Context, category string) (float64, bool)
	Categories(ctx context.Context, limit int) []string
}

// Adapter is the Postgres-backed Searcher.
type Adapter struct {
	db         *sql.DB
	normalizer *normalize.Normalizer
	logger     logger.Logger
}

func NewAdapter(db *sql.DB, n *normalize.Normalizer, log logger.Logger) *Adapter {
	return &Adapter{
		db:         db,
		normalizer: n,
		logger:     log.WithFields(map[string]interface{}{"component": "local-search"}),
	}
}

// Search runs structured filters plus conjunctive term matching against the
// catalog and returns normalized listings in coarse adapter order.
func (a *Adapter) Search(ctx context.Context, query string, f Filters, loc *models.Location, limit int) []models.Listing {
	start := time.Now()
	if limit <= 0 {
		limit = 10
	}

	stmt, args := buildListingQuery(query, f, loc, limit)

	rows, err := a.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		a.fail(query, err)
		return nil
	}
	defer rows.Close()

	var listings []models.Listing
	for rows.Next() {
		var row normalize.CatalogRow
		if err := rows.Scan(
			&row.ID, &row.Kind, &row.Name, &row.Description, &row.Brand,
			&row.Category, pq.Array(&row.Tags), &row.Price, &row.Currency,
			&row.City, &row.State, &row.Country, &row.RatingAvg, &row.RatingCount,
			&row.Promoted, &row.Featured, &row.Verified,
			&row.Views, &row.Contacts, &row.CreatedAt,
		); err != nil {
			a.fail(query, err)
			return nil
		}
		listings = append(listings, a.normalizer.FromCatalogRow(row))
	}
	if err := rows.Err(); err != nil {
		a.fail(query, err)
		return nil
	}

	metrics.AdapterCalls.WithLabelValues("local", "ok").Inc()
	metrics.AdapterDuration.WithLabelValues("local").Observe(time.Since(start).Seconds())

	a.logger.Debug("local search completed", map[string]interface{}{
		"query":       query,
		"resultCount": len(listings),
	})

	return listings
}

// AveragePrice returns the mean published price for a category. A false
// second return means no priced rows exist for it.
func (a *Adapter) AveragePrice(ctx context.Context, category string) (float64, bool) {
	var avg sql.NullFloat64
	err := a.db.QueryRowContext(ctx,
		"SELECT AVG(price) FROM listings WHERE status = $1 AND category = $2 AND price > 0",
		"published", category,
	).Scan(&avg)
	if err != nil || !avg.Valid {
		if err != nil {
			a.logger.Warn("average price lookup failed", map[string]interface{}{
				"category": category,
				"error":    err.Error(),
			})
		}
		return 0, false
	}
	return avg.Float64, true
}

// Categories lists the busiest published categories for the browse flow.
func (a *Adapter) Categories(ctx context.Context, limit int) []string {
	if limit <= 0 {
		limit = 10
	}
	rows, err := a.db.QueryContext(ctx,
		"SELECT category FROM listings WHERE status = $1 AND category <> '' GROUP BY category ORDER BY COUNT(*) DESC LIMIT $2",
		"published", limit,
	)
	if err != nil {
		a.logger.Warn("category listing failed", map[string]interface{}{"error": err.Error()})
		return nil
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil
		}
		categories = append(categories, c)
	}
	return categories
}

func (a *Adapter) fail(query string, err error) {
	metrics.AdapterCalls.WithLabelValues("local", "error").Inc()
	qerr := stderrors.NewLocalQueryFailedError(err)
	a.logger.WithError(qerr).Error("local search degraded to empty result", map[string]interface{}{
		"query": query,
	})
}

package local

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlphaGL/Finda-backend-sub000/internal/common/logger"
	"github.com/AlphaGL/Finda-backend-sub000/internal/models"
	"github.com/AlphaGL/Finda-backend-sub000/internal/search/normalize"
)

func newMockAdapter(t *testing.T) (*Adapter, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewAdapter(db, normalize.New("NGN"), logger.NewTestLogger(t)), mock, db
}

func listingRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "kind", "name", "description", "brand", "category", "tags",
		"price", "currency", "city", "state", "country", "rating_avg",
		"rating_count", "promoted", "featured", "verified", "views",
		"contacts", "created_at",
	})
}

func addRow(rows *sqlmock.Rows, id, name string) *sqlmock.Rows {
	return rows.AddRow(
		id, "product", name, "desc", "Samsung", "Phones",
		"{android,5g}", 120000.0, "NGN",
		"Lagos", "Lagos", "NG", 4.6, 23, true, false, true, 150, 3,
		time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
	)
}

func TestSearch_ReturnsNormalizedListings(t *testing.T) {
	a, mock, db := newMockAdapter(t)
	defer db.Close()

	rows := listingRows()
	addRow(rows, "l1", "Samsung Galaxy A16")
	addRow(rows, "l2", "Samsung Galaxy A16 128GB")

	mock.ExpectQuery("SELECT .* FROM listings WHERE").WillReturnRows(rows)

	got := a.Search(context.Background(), "samsung galaxy", Filters{}, nil, 10)
	require.Len(t, got, 2)
	assert.Equal(t, "l1", got[0].ID)
	assert.Equal(t, models.KindProduct, got[0].Kind)
	assert.Equal(t, models.ProvenanceLocal, got[0].Provenance)
	assert.Equal(t, "/listings/l1", got[0].Link)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearch_QueryFailureDegradesToEmpty(t *testing.T) {
	a, mock, db := newMockAdapter(t)
	defer db.Close()

	mock.ExpectQuery("SELECT .* FROM listings WHERE").WillReturnError(errors.New("connection reset"))

	got := a.Search(context.Background(), "samsung galaxy", Filters{}, nil, 10)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearch_ScanFailureDegradesToEmpty(t *testing.T) {
	a, mock, db := newMockAdapter(t)
	defer db.Close()

	bad := sqlmock.NewRows([]string{"id"}).AddRow("l1")
	mock.ExpectQuery("SELECT .* FROM listings WHERE").WillReturnRows(bad)

	got := a.Search(context.Background(), "samsung", Filters{}, nil, 10)
	assert.Empty(t, got)
}

func TestAveragePrice(t *testing.T) {
	a, mock, db := newMockAdapter(t)
	defer db.Close()

	mock.ExpectQuery("SELECT AVG\\(price\\) FROM listings").
		WithArgs("published", "phones").
		WillReturnRows(sqlmock.NewRows([]string{"avg"}).AddRow(98500.0))

	avg, ok := a.AveragePrice(context.Background(), "phones")
	require.True(t, ok)
	assert.InDelta(t, 98500.0, avg, 0.001)
}

func TestAveragePrice_NoRows(t *testing.T) {
	a, mock, db := newMockAdapter(t)
	defer db.Close()

	mock.ExpectQuery("SELECT AVG\\(price\\) FROM listings").
		WithArgs("published", "empty-category").
		WillReturnRows(sqlmock.NewRows([]string{"avg"}).AddRow(nil))

	_, ok := a.AveragePrice(context.Background(), "empty-category")
	assert.False(t, ok)
}

func TestCategories(t *testing.T) {
	a, mock, db := newMockAdapter(t)
	defer db.Close()

	mock.ExpectQuery("SELECT category FROM listings").
		WithArgs("published", 10).
		WillReturnRows(sqlmock.NewRows([]string{"category"}).
			AddRow("Phones").AddRow("Fashion").AddRow("Home"))

	got := a.Categories(context.Background(), 10)
	assert.Equal(t, []string{"Phones", "Fashion", "Home"}, got)
}

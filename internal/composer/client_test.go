package composer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stderrors "github.com/AlphaGL/Finda-backend-sub000/internal/common/errors"
	"github.com/AlphaGL/Finda-backend-sub000/internal/common/logger"
	"github.com/AlphaGL/Finda-backend-sub000/internal/models"
)

func sampleOutput() *models.TurnOutput {
	return &models.TurnOutput{
		Success:  true,
		Strategy: models.StrategyHybridLocalFirst,
		Listings: []models.Listing{{ID: "l1", Name: "Samsung Galaxy A16"}},
		Counts:   models.SourceCounts{Local: 1},
		Intent:   models.Intent{Type: models.IntentProductSearch},
	}
}

func newTestClient(t *testing.T, baseURL string, retries int) *Client {
	t.Helper()
	return NewClient(Config{
		BaseURL:    baseURL,
		APIKey:     "test-key",
		Timeout:    time.Second,
		MaxRetries: retries,
	}, logger.NewTestLogger(t))
}

func TestCompose(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/compose", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req composeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "l1", req.Summary.Listings[0].ID)

		_, _ = w.Write([]byte(`{"text":"I found 1 listing for you."}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 1)
	text, err := c.Compose(context.Background(), sampleOutput())
	require.NoError(t, err)
	assert.Equal(t, "I found 1 listing for you.", text)
}

func TestCompose_RetriesTransientFailure(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"text":"recovered"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 2)
	text, err := c.Compose(context.Background(), sampleOutput())
	require.NoError(t, err)
	assert.Equal(t, "recovered", text)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestCompose_ExhaustedRetriesReturnTypedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 1)
	_, err := c.Compose(context.Background(), sampleOutput())
	require.Error(t, err)

	var se *stderrors.StandardError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, stderrors.ErrCodeComposeFailed, se.Code)
}

func TestCompose_EmptyTextRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"text":"  "}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 1)
	_, err := c.Compose(context.Background(), sampleOutput())
	require.Error(t, err)
}

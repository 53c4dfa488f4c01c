package intent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stderrors "github.com/AlphaGL/Finda-backend-sub000/internal/common/errors"
	"github.com/AlphaGL/Finda-backend-sub000/internal/common/logger"
	"github.com/AlphaGL/Finda-backend-sub000/internal/models"
)

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	return NewClassifier(logger.NewTestLogger(t))
}

func freshContext() *models.ConversationContext {
	return models.NewConversationContext("session-1")
}

func TestClassify_EmptyMessage(t *testing.T) {
	c := newTestClassifier(t)

	tests := []struct {
		name    string
		message string
	}{
		{name: "empty string", message: ""},
		{name: "whitespace only", message: "   \t\n  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Classify(tt.message, freshContext())
			require.Error(t, err)
			assert.True(t, stderrors.IsValidation(err))
		})
	}
}

func TestClassify_GenericPatterns(t *testing.T) {
	c := newTestClassifier(t)

	tests := []struct {
		name     string
		message  string
		expected models.IntentType
	}{
		{name: "greeting", message: "hi", expected: models.IntentGreeting},
		{name: "greeting phrase", message: "good morning", expected: models.IntentGreeting},
		{name: "thanks", message: "thanks a lot", expected: models.IntentThanks},
		{name: "goodbye", message: "bye for now", expected: models.IntentGoodbye},
		{name: "product search", message: "need a Samsung Galaxy A16 under 150000", expected: models.IntentProductSearch},
		{name: "service request", message: "I need a plumber for my kitchen", expected: models.IntentServiceRequest},
		{name: "price inquiry", message: "how much is the infinix hot 40", expected: models.IntentPriceInquiry},
		{name: "comparison", message: "compare tecno spark and infinix hot", expected: models.IntentComparison},
		{name: "external search", message: "results from amazon for iphone 13", expected: models.IntentExternalSearch},
		{name: "category browse", message: "what do you sell", expected: models.IntentCategoryBrowse},
		{name: "fallback search request", message: "zxqw mnbv", expected: models.IntentSearchRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Classify(tt.message, freshContext())
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got.Type)
		})
	}
}

func TestClassify_FallbackConfidence(t *testing.T) {
	c := newTestClassifier(t)

	got, err := c.Classify("zxqw mnbv", freshContext())
	require.NoError(t, err)
	assert.Equal(t, models.IntentSearchRequest, got.Type)
	assert.InDelta(t, 0.3, got.Confidence, 0.001)
}

func TestClassify_MaxPriceEntity(t *testing.T) {
	c := newTestClassifier(t)

	tests := []struct {
		name     string
		message  string
		expected string
	}{
		{name: "under with commas", message: "need a samsung galaxy under 150,000", expected: "150000"},
		{name: "below with naira sign", message: "phone below ₦80000", expected: "80000"},
		{name: "no price", message: "need a samsung galaxy", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Classify(tt.message, freshContext())
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got.Entity("max_price"))
		})
	}
}

// A recognized price phrase becomes the structured max_price filter, so the
// query entity must not carry it into conjunctive text matching.
func TestClassify_QueryEntityDropsPricePhrase(t *testing.T) {
	c := newTestClassifier(t)

	got, err := c.Classify("need a Samsung Galaxy A16 under 150000", freshContext())
	require.NoError(t, err)
	assert.Equal(t, "150000", got.Entity("max_price"))
	assert.Equal(t, "need a Samsung Galaxy A16", got.Entity("query"))

	got, err = c.Classify("need a samsung galaxy", freshContext())
	require.NoError(t, err)
	assert.Equal(t, "need a samsung galaxy", got.Entity("query"))
}

func TestClassify_ContextualSelection(t *testing.T) {
	c := newTestClassifier(t)

	convCtx := freshContext()
	convCtx.ExpectingResponseTo = models.ExpectSelection
	convCtx.LastResults = []models.LightRef{
		{ID: "a1", Name: "Samsung Galaxy A16"},
		{ID: "b2", Name: "Tecno Spark 20"},
		{ID: "c3", Name: "Infinix Hot 40"},
	}

	tests := []struct {
		name       string
		message    string
		expectedID string
	}{
		{name: "ordinal word", message: "the second one", expectedID: "b2"},
		{name: "bare digit", message: "3", expectedID: "c3"},
		{name: "last", message: "the last one", expectedID: "c3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Classify(tt.message, convCtx)
			require.NoError(t, err)
			assert.Equal(t, models.IntentSelection, got.Type)
			assert.Equal(t, tt.expectedID, got.Entity("listing_id"))
			assert.GreaterOrEqual(t, got.Confidence, 0.9)
		})
	}
}

// A message that would classify generically must still resolve contextually
// when an expectation is pending.
func TestClassify_ContextualOverridesGeneric(t *testing.T) {
	c := newTestClassifier(t)

	convCtx := freshContext()
	convCtx.ExpectingResponseTo = models.ExpectConfirmation
	convCtx.PendingExternal = true
	convCtx.PendingExternalQuery = "iphone 13"

	got, err := c.Classify("yes please do", convCtx)
	require.NoError(t, err)
	assert.Equal(t, models.IntentConfirmation, got.Type)
	assert.Equal(t, "iphone 13", got.Entity("pending_query"))
}

// A pending confirmation must only consume genuine yes/no answers. A fresh
// query whose words merely contain an affirmation ("nokia", "looking")
// falls through to generic classification instead of hijacking the turn.
func TestClassify_PendingConfirmationIgnoresFreshQueries(t *testing.T) {
	c := newTestClassifier(t)

	tests := []struct {
		name     string
		message  string
		expected models.IntentType
	}{
		{name: "ok inside nokia", message: "nokia phone", expected: models.IntentProductSearch},
		{name: "ok inside looking", message: "looking for a book", expected: models.IntentProductSearch},
		{name: "bare ok", message: "ok", expected: models.IntentConfirmation},
		{name: "affirmation phrase", message: "go ahead", expected: models.IntentConfirmation},
		{name: "bare no", message: "no", expected: models.IntentRejection},
		{name: "negation phrase", message: "never mind", expected: models.IntentRejection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			convCtx := freshContext()
			convCtx.ExpectingResponseTo = models.ExpectConfirmation
			convCtx.PendingExternal = true
			convCtx.PendingExternalQuery = "rare camera lens"

			got, err := c.Classify(tt.message, convCtx)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got.Type)
		})
	}
}

func TestClassify_ContextualRejection(t *testing.T) {
	c := newTestClassifier(t)

	convCtx := freshContext()
	convCtx.ExpectingResponseTo = models.ExpectConfirmation
	convCtx.PendingExternal = true

	got, err := c.Classify("no, cancel that", convCtx)
	require.NoError(t, err)
	assert.Equal(t, models.IntentRejection, got.Type)
}

func TestClassify_ContextualCategoryChoice(t *testing.T) {
	c := newTestClassifier(t)

	convCtx := freshContext()
	convCtx.ExpectingResponseTo = models.ExpectCategoryChoice
	convCtx.LastCategoriesShown = []string{"Electronics", "Fashion", "Home"}

	got, err := c.Classify("electronics please", convCtx)
	require.NoError(t, err)
	assert.Equal(t, models.IntentCategoryBrowse, got.Type)
	assert.Equal(t, "Electronics", got.Entity("category"))
}

// Out-of-range ordinals fall back to generic classification instead of a
// broken selection.
func TestClassify_SelectionOutOfRange(t *testing.T) {
	c := newTestClassifier(t)

	convCtx := freshContext()
	convCtx.ExpectingResponseTo = models.ExpectSelection
	convCtx.LastResults = []models.LightRef{{ID: "a1", Name: "Only One"}}

	got, err := c.Classify("the fifth", convCtx)
	require.NoError(t, err)
	assert.NotEqual(t, models.IntentSelection, got.Type)
}

func TestClassify_LongMessageTruncated(t *testing.T) {
	c := newTestClassifier(t)

	long := "buy "
	for len([]rune(long)) < 600 {
		long += "x"
	}

	got, err := c.Classify(long, freshContext())
	require.NoError(t, err)
	assert.Equal(t, models.IntentProductSearch, got.Type)
}

func TestClassify_StaleExpectationIgnored(t *testing.T) {
	c := newTestClassifier(t)

	convCtx := freshContext()
	convCtx.ExpectingResponseTo = models.ExpectSelection
	convCtx.UpdatedAt = time.Now().Add(-1 * time.Hour)
	// No snapshot: ordinals cannot resolve.
	got, err := c.Classify("the first one", convCtx)
	require.NoError(t, err)
	assert.NotEqual(t, models.IntentSelection, got.Type)
}

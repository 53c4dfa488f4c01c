package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AlphaGL/Finda-backend-sub000/internal/models"
)

func TestSelect_Strategies(t *testing.T) {
	s := NewSelector(1)

	tests := []struct {
		name     string
		intent   models.Intent
		message  string
		convCtx  *models.ConversationContext
		expected models.Strategy
	}{
		{
			name:     "greeting goes ai only",
			intent:   models.Intent{Type: models.IntentGreeting},
			message:  "hi",
			expected: models.StrategyAIOnly,
		},
		{
			name:     "thanks goes ai only",
			intent:   models.Intent{Type: models.IntentThanks},
			message:  "thank you",
			expected: models.StrategyAIOnly,
		},
		{
			name:     "external intent goes external only",
			intent:   models.Intent{Type: models.IntentExternalSearch},
			message:  "check on jumia",
			expected: models.StrategyExternalOnly,
		},
		{
			// The phrase routes external even though "iphone" is a shopping
			// indicator.
			name:     "external phrase beats shopping vocabulary",
			intent:   models.Intent{Type: models.IntentProductSearch},
			message:  "results from amazon for iphone 13",
			expected: models.StrategyExternalOnly,
		},
		{
			name:   "confirmed pending external",
			intent: models.Intent{Type: models.IntentConfirmation},
			convCtx: &models.ConversationContext{
				PendingExternal:      true,
				PendingExternalQuery: "iphone 13",
			},
			message:  "yes",
			expected: models.StrategyExternalOnly,
		},
		{
			name:     "comparison wants both sources",
			intent:   models.Intent{Type: models.IntentComparison},
			message:  "compare tecno and infinix",
			expected: models.StrategyHybridConcurrent,
		},
		{
			name:     "product search goes hybrid local first",
			intent:   models.Intent{Type: models.IntentProductSearch},
			message:  "need a samsung galaxy a16",
			expected: models.StrategyHybridLocalFirst,
		},
		{
			name:     "shopping indicator forces hybrid",
			intent:   models.Intent{Type: models.IntentSearchRequest},
			message:  "any good laptop around",
			expected: models.StrategyHybridLocalFirst,
		},
		{
			name:     "default bias attempts a search",
			intent:   models.Intent{Type: models.IntentSearchRequest},
			message:  "zxqw mnbv",
			expected: models.StrategyHybridLocalFirst,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := s.Select(tt.intent, tt.message, tt.convCtx)
			assert.Equal(t, tt.expected, plan.Strategy)
		})
	}
}

func TestSelect_MinLocalResultsCarried(t *testing.T) {
	s := NewSelector(3)
	plan := s.Select(models.Intent{Type: models.IntentProductSearch}, "buy shoes", nil)
	assert.Equal(t, 3, plan.MinLocalResults)
}

func TestNewSelector_DefaultThreshold(t *testing.T) {
	s := NewSelector(0)
	plan := s.Select(models.Intent{Type: models.IntentProductSearch}, "buy shoes", nil)
	assert.Equal(t, 1, plan.MinLocalResults)
}

func TestSelect_UnconfirmedExternalNotRouted(t *testing.T) {
	s := NewSelector(1)
	// Confirmation without a pending external search must not go external.
	plan := s.Select(models.Intent{Type: models.IntentConfirmation}, "yes", &models.ConversationContext{})
	assert.Equal(t, models.StrategyHybridLocalFirst, plan.Strategy)
}

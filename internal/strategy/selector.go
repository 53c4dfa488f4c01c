// Package strategy maps an intent plus conversational context to a search
// plan. It is a small state machine whose transition rules are evaluated in
// a fixed priority order, biased toward attempting a search: a false "no
// search" costs more user trust than an unnecessary one.
package strategy

import (
	"regexp"
	"strings"

	"github.com/AlphaGL/Finda-backend-sub000/internal/models"
)

// shoppingIndicators force a hybrid search when present, regardless of the
// classified intent.
var shoppingIndicators = []string{
	"buy", "price", "cost", "cheap", "brand", "shop", "order", "deal",
	"phone", "laptop", "shoes", "dress", "furniture", "electronics",
	"fashion", "samsung", "iphone", "tecno", "infinix", "hp", "dell",
}

// externalPhrases route the whole turn to the external provider.
var externalPhrases = []string{
	"results from", "from amazon", "from jumia", "from aliexpress",
	"from ebay", "from konga", "on amazon", "on jumia", "online stores",
	"search the web", "search online",
}

var wordSplit = regexp.MustCompile(`[^\p{L}\p{N}]+`)

type Selector struct {
	minLocalResults int
}

// NewSelector builds a selector. minLocalResults gates the external call
// under hybrid_local_first (default 1 when zero or negative).
func NewSelector(minLocalResults int) *Selector {
	if minLocalResults <= 0 {
		minLocalResults = 1
	}
	return &Selector{minLocalResults: minLocalResults}
}

// Select computes the plan for one turn. Plans are never stored.
func (s *Selector) Select(intent models.Intent, message string, convCtx *models.ConversationContext) models.SearchPlan {
	lower := strings.ToLower(message)

	plan := models.SearchPlan{MinLocalResults: s.minLocalResults}

	switch {
	// Pure conversation: no search issued at all.
	case intent.IsConversational():
		plan.Strategy = models.StrategyAIOnly

	// Explicit external-source phrasing bypasses the local catalog, even
	// when the message also carries shopping vocabulary.
	case intent.Type == models.IntentExternalSearch || hasExternalPhrase(lower):
		plan.Strategy = models.StrategyExternalOnly

	// Confirmed pending external search goes straight external too.
	case intent.Type == models.IntentConfirmation && convCtx != nil && convCtx.PendingExternal:
		plan.Strategy = models.StrategyExternalOnly

	// Comparisons always want both sources, joined before ranking.
	case intent.Type == models.IntentComparison:
		plan.Strategy = models.StrategyHybridConcurrent

	// Shopping intents and shopping vocabulary get the hybrid default.
	case isShoppingIntent(intent.Type) || hasShoppingIndicator(lower):
		plan.Strategy = models.StrategyHybridLocalFirst

	// Default bias: attempt a search.
	default:
		plan.Strategy = models.StrategyHybridLocalFirst
	}

	return plan
}

func isShoppingIntent(t models.IntentType) bool {
	switch t {
	case models.IntentProductSearch, models.IntentServiceRequest,
		models.IntentPriceInquiry, models.IntentComparison,
		models.IntentSelection:
		return true
	}
	return false
}

func hasShoppingIndicator(lower string) bool {
	tokens := make(map[string]bool)
	for _, t := range wordSplit.Split(lower, -1) {
		if t != "" {
			tokens[t] = true
		}
	}
	for _, ind := range shoppingIndicators {
		if tokens[ind] {
			return true
		}
	}
	return false
}

func hasExternalPhrase(lower string) bool {
	for _, ph := range externalPhrases {
		if strings.Contains(lower, ph) {
			return true
		}
	}
	return false
}

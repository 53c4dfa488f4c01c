// internal/intent/contextual.go
package intent

import (
	"strconv"
	"strings"

	"github.com/AlphaGL/Finda-backend-sub000/internal/models"
)

// contextualConfidence is assigned when a pending expectation resolves the
// message; it deliberately outranks any generic score so follow-up turns
// cannot drift back into keyword classification.
const contextualConfidence = 0.95

var ordinalWords = map[string]int{
	"first": 1, "1st": 1, "one": 1,
	"second": 2, "2nd": 2, "two": 2,
	"third": 3, "3rd": 3, "three": 3,
	"fourth": 4, "4th": 4, "four": 4,
	"fifth": 5, "5th": 5, "five": 5,
	"last": -1,
}

// Single words are matched as whole tokens so "ok" cannot fire inside
// "nokia"; only genuine multi-word phrases use substring matching.
var affirmationWords = []string{"yes", "yeah", "yep", "sure", "ok", "okay"}
var affirmationPhrases = []string{"go ahead", "please do", "do it"}
var negationWords = []string{"no", "nope", "nah", "cancel", "stop"}
var negationPhrases = []string{"don't", "never mind"}

// classifyContextual evaluates the pattern table scoped to the pending
// expectation. A nil result means no contextual match; generic
// classification proceeds.
func classifyContextual(message string, convCtx *models.ConversationContext) *models.Intent {
	if convCtx == nil || convCtx.ExpectingResponseTo == "" {
		return nil
	}

	lower := strings.ToLower(strings.TrimSpace(message))

	switch convCtx.ExpectingResponseTo {
	case models.ExpectSelection:
		if idx, ok := matchOrdinal(lower, len(convCtx.LastResults)); ok {
			ref := convCtx.LastResults[idx]
			return &models.Intent{
				Type:       models.IntentSelection,
				Confidence: contextualConfidence,
				Entities: map[string]string{
					"selection_index": strconv.Itoa(idx + 1),
					"listing_id":      ref.ID,
					"listing_name":    ref.Name,
				},
			}
		}

	case models.ExpectConfirmation:
		if matchesAny(lower, affirmationWords, affirmationPhrases) {
			return &models.Intent{
				Type:       models.IntentConfirmation,
				Confidence: contextualConfidence,
				Entities:   map[string]string{"pending_query": convCtx.PendingExternalQuery},
			}
		}
		if matchesAny(lower, negationWords, negationPhrases) {
			return &models.Intent{Type: models.IntentRejection, Confidence: contextualConfidence}
		}

	case models.ExpectCategoryChoice:
		for _, category := range convCtx.LastCategoriesShown {
			if category != "" && strings.Contains(lower, strings.ToLower(category)) {
				return &models.Intent{
					Type:       models.IntentCategoryBrowse,
					Confidence: contextualConfidence,
					Entities:   map[string]string{"category": category},
				}
			}
		}
	}

	return nil
}

// matchOrdinal resolves ordinal words and bare digits against the snapshot
// size. Out-of-range references do not match.
func matchOrdinal(lower string, resultCount int) (int, bool) {
	if resultCount == 0 {
		return 0, false
	}

	for _, token := range strings.Fields(lower) {
		if n, ok := ordinalWords[token]; ok {
			if n == -1 {
				return resultCount - 1, true
			}
			if n >= 1 && n <= resultCount {
				return n - 1, true
			}
		}
		if n, err := strconv.Atoi(token); err == nil && n >= 1 && n <= resultCount {
			return n - 1, true
		}
	}
	return 0, false
}

// matchesAny checks words against whole tokens and phrases as substrings.
func matchesAny(lower string, words, phrases []string) bool {
	tokens := tokenize(lower)
	for _, w := range words {
		if tokens[w] {
			return true
		}
	}
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

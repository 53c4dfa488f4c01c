// Package intent turns raw user text plus conversational context into a
// typed Intent. Classification is table driven: a contextual pattern table
// scoped to the pending expectation is evaluated first and short-circuits,
// then the generic weighted table scores every category.
package intent

import (
	"regexp"
	"strconv"
	"strings"

	stderrors "github.com/AlphaGL/Finda-backend-sub000/internal/common/errors"
	"github.com/AlphaGL/Finda-backend-sub000/internal/common/logger"
	"github.com/AlphaGL/Finda-backend-sub000/internal/models"
)

// maxMessageRunes bounds classification cost; longer input is truncated,
// never rejected on length alone.
const maxMessageRunes = 500

// fallbackConfidence is assigned when no category scores above zero. The
// engine always attempts a search rather than refusing.
const fallbackConfidence = 0.3

var (
	tokenSplit  = regexp.MustCompile(`[^\p{L}\p{N}]+`)
	maxPricePat = regexp.MustCompile(`(?i)(?:under|below|less than|at most|max(?:imum)?)\s*(?:₦|\$|ngn|usd)?\s*([\d][\d,]*)`)
	numberStrip = strings.NewReplacer(",", "")
)

type Classifier struct {
	logger logger.Logger
}

func NewClassifier(log logger.Logger) *Classifier {
	return &Classifier{
		logger: log.WithFields(map[string]interface{}{"component": "intent-classifier"}),
	}
}

// Classify returns the typed intent for one message. It fails only on
// empty or whitespace-only input.
func (c *Classifier) Classify(message string, convCtx *models.ConversationContext) (models.Intent, error) {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return models.Intent{}, stderrors.NewEmptyMessageError()
	}

	if runes := []rune(trimmed); len(runes) > maxMessageRunes {
		trimmed = string(runes[:maxMessageRunes])
	}

	// Pending expectations override generic classification so follow-up
	// turns ("the second one", "yes") resolve against what was shown.
	if contextual := classifyContextual(trimmed, convCtx); contextual != nil {
		c.logger.Debug("contextual intent matched", map[string]interface{}{
			"expectation": convCtx.ExpectingResponseTo,
			"intent":      string(contextual.Type),
		})
		return *contextual, nil
	}

	lower := strings.ToLower(trimmed)
	tokens := tokenize(lower)

	best := models.Intent{Type: models.IntentSearchRequest, Confidence: fallbackConfidence}
	bestScore := 0.0

	for _, p := range patternTable {
		score := scorePattern(p, lower, tokens)
		// Strictly greater: equal scores keep the earlier declaration.
		if score > bestScore {
			bestScore = score
			best = models.Intent{Type: p.Type, Confidence: confidenceFor(score)}
		}
	}

	best.Entities = extractEntities(lower, trimmed)

	c.logger.Debug("message classified", map[string]interface{}{
		"intent":     string(best.Type),
		"confidence": best.Confidence,
		"score":      bestScore,
	})

	return best, nil
}

func scorePattern(p pattern, lower string, tokens map[string]bool) float64 {
	score := 0.0
	for _, kw := range p.Keywords {
		if tokens[kw] {
			score += p.Priority * keywordWeight
		}
	}
	for _, ph := range p.Phrases {
		if strings.Contains(lower, ph) {
			score += p.Priority * phraseWeight
		}
	}
	return score
}

func tokenize(lower string) map[string]bool {
	tokens := make(map[string]bool)
	for _, t := range tokenSplit.Split(lower, -1) {
		if t != "" {
			tokens[t] = true
		}
	}
	return tokens
}

// confidenceFor maps a raw table score onto (0,1].
func confidenceFor(score float64) float64 {
	conf := 0.5 + score/10.0
	if conf > 0.99 {
		conf = 0.99
	}
	return conf
}

// extractEntities pulls structured entities out of the message. Only the
// entities the downstream adapters consume are extracted. A recognized
// price phrase becomes the max_price entity and is removed from the query
// text, since the constraint now travels as a structured filter.
func extractEntities(lower, original string) map[string]string {
	entities := make(map[string]string)

	query := original
	if m := maxPricePat.FindStringSubmatch(lower); m != nil {
		raw := numberStrip.Replace(m[1])
		if _, err := strconv.ParseFloat(raw, 64); err == nil {
			entities["max_price"] = raw
			query = strings.Join(strings.Fields(maxPricePat.ReplaceAllString(original, " ")), " ")
		}
	}
	if query == "" {
		query = original
	}
	entities["query"] = query

	return entities
}

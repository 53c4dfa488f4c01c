// internal/models/intent.go
package models

// IntentType identifies what the user is asking for in a single message.
type IntentType string

const (
	IntentProductSearch  IntentType = "product_search"
	IntentServiceRequest IntentType = "service_request"
	IntentPriceInquiry   IntentType = "price_inquiry"
	IntentComparison     IntentType = "comparison"
	IntentCategoryBrowse IntentType = "category_browse"
	IntentExternalSearch IntentType = "external_search"
	IntentGreeting       IntentType = "greeting"
	IntentThanks         IntentType = "thanks"
	IntentGoodbye        IntentType = "goodbye"

	// IntentSearchRequest is the low-confidence fallback: the engine always
	// attempts a search rather than refusing the message.
	IntentSearchRequest IntentType = "search_request"

	// Contextual intents resolved against pending expectations.
	IntentSelection    IntentType = "selection"
	IntentConfirmation IntentType = "confirmation"
	IntentRejection    IntentType = "rejection"
)

// Intent is the typed classification result for one message. Transient,
// created per turn and returned to the caller inside TurnOutput.
type Intent struct {
	Type       IntentType        `json:"type"`
	Confidence float64           `json:"confidence"`
	Entities   map[string]string `json:"entities,omitempty"`
}

// IsConversational reports whether the intent needs no search at all.
func (i Intent) IsConversational() bool {
	switch i.Type {
	case IntentGreeting, IntentThanks, IntentGoodbye:
		return true
	}
	return false
}

// Entity returns the named extracted entity, or "" if absent.
func (i Intent) Entity(name string) string {
	if i.Entities == nil {
		return ""
	}
	return i.Entities[name]
}

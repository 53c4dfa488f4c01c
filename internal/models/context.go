// internal/models/context.go
package models

import "time"

// Stage is the coarse conversational state carried across turns.
type Stage string

const (
	StageOpen                  Stage = "open"
	StageSearchResultsShown    Stage = "search_results_shown"
	StageBrowsingCategories    Stage = "browsing_categories"
	StageAwaitingExternalOK    Stage = "awaiting_external_confirmation"
)

// Expectation values for ConversationContext.ExpectingResponseTo.
const (
	ExpectSelection      = "selection"
	ExpectConfirmation   = "external_confirmation"
	ExpectCategoryChoice = "category_choice"
)

const (
	// MaxSnapshotRefs caps the listing snapshot kept for follow-up turns.
	MaxSnapshotRefs = 5
	// MaxHistoryExchanges caps the conversation history ring.
	MaxHistoryExchanges = 10
)

// Exchange is one user turn recorded in the history ring.
type Exchange struct {
	Message string    `json:"message"`
	Action  string    `json:"action"`
	At      time.Time `json:"at"`
}

// ConversationContext is the per-session state read at turn start and
// written exactly once at turn end. It expires on a rolling TTL and is
// never persisted beyond it.
type ConversationContext struct {
	SessionID           string     `json:"sessionId"`
	Stage               Stage      `json:"stage"`
	LastAction          string     `json:"lastAction,omitempty"`
	LastQuery           string     `json:"lastQuery,omitempty"`
	LastResults         []LightRef `json:"lastResultsSnapshot,omitempty"`
	LastCategoriesShown []string   `json:"lastCategoriesShown,omitempty"`
	ExpectingResponseTo string     `json:"expectingResponseTo,omitempty"`
	History             []Exchange `json:"history,omitempty"`
	PendingExternal     bool       `json:"pendingExternal"`
	PendingExternalQuery string    `json:"pendingExternalQuery,omitempty"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

// NewConversationContext returns the default context for a fresh session.
func NewConversationContext(sessionID string) *ConversationContext {
	return &ConversationContext{
		SessionID: sessionID,
		Stage:     StageOpen,
		UpdatedAt: time.Now().UTC(),
	}
}

// PushExchange appends to the history ring, evicting the oldest entry once
// the ring holds MaxHistoryExchanges.
func (c *ConversationContext) PushExchange(message, action string) {
	c.History = append(c.History, Exchange{
		Message: message,
		Action:  action,
		At:      time.Now().UTC(),
	})
	if len(c.History) > MaxHistoryExchanges {
		c.History = c.History[len(c.History)-MaxHistoryExchanges:]
	}
}

// SnapshotOf trims listings to the capped LightRef snapshot.
func SnapshotOf(listings []Listing) []LightRef {
	n := len(listings)
	if n > MaxSnapshotRefs {
		n = MaxSnapshotRefs
	}
	refs := make([]LightRef, 0, n)
	for _, l := range listings[:n] {
		refs = append(refs, l.Ref())
	}
	return refs
}

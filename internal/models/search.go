// internal/models/search.go
package models

// Strategy names which sources a turn will query and in what order.
type Strategy string

const (
	StrategyLocalOnly        Strategy = "local_only"
	StrategyExternalOnly     Strategy = "external_only"
	StrategyHybridLocalFirst Strategy = "hybrid_local_first"
	StrategyHybridConcurrent Strategy = "hybrid_concurrent"
	StrategyAIOnly           Strategy = "ai_only"
)

// SearchPlan is computed fresh per turn and never stored.
type SearchPlan struct {
	Strategy Strategy `json:"strategy"`
	// MinLocalResults gates the external call under hybrid_local_first:
	// external search is skipped once local returns at least this many.
	MinLocalResults int `json:"minLocalResultsBeforeExternal"`
}

// SearchKind selects which external lookups to fan out.
type SearchKind string

const (
	SearchProducts SearchKind = "products"
	SearchServices SearchKind = "services"
	SearchBoth     SearchKind = "both"
)

// TurnInput is one incoming user message.
type TurnInput struct {
	Message   string    `json:"message"`
	SessionID string    `json:"sessionId"`
	Location  *Location `json:"locationContext,omitempty"`
}

// SourceCounts reports how many listings each source contributed.
type SourceCounts struct {
	Local    int `json:"local"`
	External int `json:"external"`
}

// TurnOutput is the structured result handed to the generative-text
// collaborator. The engine never produces the user-facing sentence.
type TurnOutput struct {
	Success  bool         `json:"success"`
	Strategy Strategy     `json:"strategyUsed"`
	Listings []Listing    `json:"listings"`
	Counts   SourceCounts `json:"counts"`
	Warnings []string     `json:"warnings,omitempty"`
	Intent   Intent       `json:"intent"`

	// Categories is set on browse turns so the composer can enumerate them.
	Categories []string `json:"categories,omitempty"`
	// Selected is set when the user picked an item from the last snapshot.
	Selected *LightRef `json:"selected,omitempty"`
	// AwaitingExternalConfirmation tells the composer to ask the user
	// whether to run an external search.
	AwaitingExternalConfirmation bool `json:"awaitingExternalConfirmation,omitempty"`
}

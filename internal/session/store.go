// Package session persists per-conversation state between turns. Each turn
// performs one read at the start and exactly one of the write operations at
// the end; the write operations are mutually exclusive and each refreshes
// the rolling TTL.
package session

import (
	"context"
	"time"

	"github.com/AlphaGL/Finda-backend-sub000/internal/models"
)

// Store is the conversation context contract used by the orchestrator.
type Store interface {
	// Get returns the session's context, creating a fresh default when the
	// session is unknown or expired.
	Get(ctx context.Context, sessionID string) (*models.ConversationContext, error)

	// AfterSearch records a completed search turn: query, result snapshot,
	// and the expectation that the user may select a result next.
	AfterSearch(ctx context.Context, sessionID, message, query string, top []models.Listing) error

	// AfterCategoriesShown records a category browse turn.
	AfterCategoriesShown(ctx context.Context, sessionID, message string, categories []string) error

	// SetExternalPending records that the user must confirm an external
	// search before it runs.
	SetExternalPending(ctx context.Context, sessionID, message, query string) error

	// ClearExpectations resets stage and expectations after conversational
	// turns, keeping the session and its history alive.
	ClearExpectations(ctx context.Context, sessionID, message string) error
}

// mutate loads, applies one write operation, and stores. All four Store
// write paths in both backends go through this shape so the one-write-per-
// turn property holds regardless of backend.
type mutation func(c *models.ConversationContext)

func afterSearch(message, query string, top []models.Listing) mutation {
	return func(c *models.ConversationContext) {
		c.Stage = models.StageSearchResultsShown
		c.LastAction = "search"
		c.LastQuery = query
		c.LastResults = models.SnapshotOf(top)
		c.LastCategoriesShown = nil
		c.ExpectingResponseTo = models.ExpectSelection
		c.PendingExternal = false
		c.PendingExternalQuery = ""
		c.PushExchange(message, "search")
	}
}

func afterCategoriesShown(message string, categories []string) mutation {
	return func(c *models.ConversationContext) {
		c.Stage = models.StageBrowsingCategories
		c.LastAction = "categories"
		c.LastCategoriesShown = categories
		c.LastResults = nil
		c.ExpectingResponseTo = models.ExpectCategoryChoice
		c.PendingExternal = false
		c.PendingExternalQuery = ""
		c.PushExchange(message, "categories")
	}
}

func setExternalPending(message, query string) mutation {
	return func(c *models.ConversationContext) {
		c.Stage = models.StageAwaitingExternalOK
		c.LastAction = "external_prompt"
		c.LastQuery = query
		c.ExpectingResponseTo = models.ExpectConfirmation
		c.PendingExternal = true
		c.PendingExternalQuery = query
		c.PushExchange(message, "external_prompt")
	}
}

func clearExpectations(message string) mutation {
	return func(c *models.ConversationContext) {
		c.Stage = models.StageOpen
		c.LastAction = "conversation"
		c.ExpectingResponseTo = ""
		c.PendingExternal = false
		c.PendingExternalQuery = ""
		c.PushExchange(message, "conversation")
	}
}

func stamp(c *models.ConversationContext, now time.Time) {
	c.UpdatedAt = now.UTC()
}

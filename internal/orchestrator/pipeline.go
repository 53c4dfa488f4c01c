// Package orchestrator runs the per-turn pipeline: context read, intent
// classification, strategy selection, adapter calls, ranking, and exactly
// one context write. Adapter failures degrade to warnings; only input
// validation fails a turn.
package orchestrator

import (
	"context"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	stderrors "github.com/AlphaGL/Finda-backend-sub000/internal/common/errors"
	"github.com/AlphaGL/Finda-backend-sub000/internal/common/logger"
	"github.com/AlphaGL/Finda-backend-sub000/internal/common/metrics"
	"github.com/AlphaGL/Finda-backend-sub000/internal/common/observability"
	"github.com/AlphaGL/Finda-backend-sub000/internal/intent"
	"github.com/AlphaGL/Finda-backend-sub000/internal/models"
	"github.com/AlphaGL/Finda-backend-sub000/internal/ranking"
	"github.com/AlphaGL/Finda-backend-sub000/internal/search/external"
	"github.com/AlphaGL/Finda-backend-sub000/internal/search/local"
	"github.com/AlphaGL/Finda-backend-sub000/internal/session"
	"github.com/AlphaGL/Finda-backend-sub000/internal/strategy"
)

// ExternalSearcher is the external adapter contract, narrowed so tests can
// count invocations.
type ExternalSearcher interface {
	Search(ctx context.Context, query string, loc *models.Location, kind models.SearchKind, limit int) external.Result
	Disabled() bool
}

// Orchestrator wires the pipeline stages together. One instance serves all
// sessions; per-turn state lives on the stack.
type Orchestrator struct {
	sessions   session.Store
	classifier *intent.Classifier
	selector   *strategy.Selector
	local      local.Searcher
	external   ExternalSearcher
	ranker     *ranking.Engine
	maxResults int
	obs        *observability.Observability
	logger     logger.Logger
}

func New(
	sessions session.Store,
	classifier *intent.Classifier,
	selector *strategy.Selector,
	localSearch local.Searcher,
	externalSearch ExternalSearcher,
	ranker *ranking.Engine,
	maxResults int,
	obs *observability.Observability,
	log logger.Logger,
) *Orchestrator {
	if maxResults <= 0 {
		maxResults = 10
	}
	return &Orchestrator{
		sessions:   sessions,
		classifier: classifier,
		selector:   selector,
		local:      localSearch,
		external:   externalSearch,
		ranker:     ranker,
		maxResults: maxResults,
		obs:        obs,
		logger:     log.WithFields(map[string]interface{}{"component": "orchestrator"}),
	}
}

// ProcessTurn executes one message end to end. The returned error is
// non-nil only for input validation failures; every other failure mode
// degrades into the output's warnings.
func (o *Orchestrator) ProcessTurn(ctx context.Context, in models.TurnInput) (*models.TurnOutput, error) {
	start := time.Now()

	var warnings []string

	convCtx, err := o.sessions.Get(ctx, in.SessionID)
	if err != nil {
		// A broken store must not kill the turn; classify against a fresh
		// context and warn.
		warnings = append(warnings, stderrors.Warning("conversation context", err))
		convCtx = models.NewConversationContext(in.SessionID)
	}

	turnIntent, err := o.classifier.Classify(in.Message, convCtx)
	if err != nil {
		metrics.TurnsProcessed.WithLabelValues("none", "validation_error").Inc()
		return nil, err
	}

	plan := o.selector.Select(turnIntent, in.Message, convCtx)

	out := &models.TurnOutput{
		Success:  true,
		Strategy: plan.Strategy,
		Listings: []models.Listing{},
		Intent:   turnIntent,
		Warnings: warnings,
	}

	switch {
	case turnIntent.IsConversational():
		o.handleConversational(ctx, in, out)
	case turnIntent.Type == models.IntentSelection:
		o.handleSelection(ctx, in, convCtx, out)
	case turnIntent.Type == models.IntentRejection:
		o.handleRejection(ctx, in, out)
	case turnIntent.Type == models.IntentCategoryBrowse && turnIntent.Entity("category") == "":
		o.handleCategoryBrowse(ctx, in, out)
	default:
		o.handleSearch(ctx, in, convCtx, plan, out)
	}

	outcome := "ok"
	if len(out.Warnings) > 0 {
		outcome = "degraded"
	}
	metrics.TurnsProcessed.WithLabelValues(string(plan.Strategy), outcome).Inc()
	if o.obs != nil {
		o.obs.RecordTurn(ctx, string(plan.Strategy), outcome, time.Since(start))
	}

	o.logger.Info("turn processed", map[string]interface{}{
		"sessionId": in.SessionID,
		"intent":    string(turnIntent.Type),
		"strategy":  string(plan.Strategy),
		"listings":  len(out.Listings),
		"warnings":  len(out.Warnings),
	})

	return out, nil
}

// handleConversational covers greeting/thanks/goodbye: no adapter calls.
func (o *Orchestrator) handleConversational(ctx context.Context, in models.TurnInput, out *models.TurnOutput) {
	o.writeContext(out, o.sessions.ClearExpectations(ctx, in.SessionID, in.Message))
}

// handleSelection resolves the picked item from the previous snapshot. The
// composer presents the selected listing; no new search runs.
func (o *Orchestrator) handleSelection(ctx context.Context, in models.TurnInput, convCtx *models.ConversationContext, out *models.TurnOutput) {
	if idx, err := strconv.Atoi(out.Intent.Entity("selection_index")); err == nil {
		if idx >= 1 && idx <= len(convCtx.LastResults) {
			ref := convCtx.LastResults[idx-1]
			out.Selected = &ref
		}
	}
	o.writeContext(out, o.sessions.ClearExpectations(ctx, in.SessionID, in.Message))
}

// handleRejection declines a pending external search.
func (o *Orchestrator) handleRejection(ctx context.Context, in models.TurnInput, out *models.TurnOutput) {
	o.writeContext(out, o.sessions.ClearExpectations(ctx, in.SessionID, in.Message))
}

// handleCategoryBrowse lists catalog categories for a bare browse request.
// A browse with a chosen category falls through to the search path instead.
func (o *Orchestrator) handleCategoryBrowse(ctx context.Context, in models.TurnInput, out *models.TurnOutput) {
	categories := o.local.Categories(ctx, o.maxResults)
	out.Categories = categories
	o.writeContext(out, o.sessions.AfterCategoriesShown(ctx, in.SessionID, in.Message, categories))
}

// handleSearch runs the adapters per plan, ranks, and records the turn.
func (o *Orchestrator) handleSearch(ctx context.Context, in models.TurnInput, convCtx *models.ConversationContext, plan models.SearchPlan, out *models.TurnOutput) {
	query := o.resolveQuery(out.Intent, in.Message, convCtx)
	filters := o.filtersFor(out.Intent)
	kind := searchKindFor(out.Intent.Type)

	var (
		localListings    []models.Listing
		externalListings []models.Listing
		externalRan      bool
	)

	switch plan.Strategy {
	case models.StrategyAIOnly:
		// No sources consulted.

	case models.StrategyLocalOnly:
		localListings = o.local.Search(ctx, query, filters, in.Location, o.maxResults)

	case models.StrategyExternalOnly:
		res := o.external.Search(ctx, query, in.Location, kind, o.maxResults)
		externalListings = res.Listings
		out.Warnings = append(out.Warnings, res.Warnings...)
		externalRan = true

	case models.StrategyHybridConcurrent:
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			localListings = o.local.Search(gctx, query, filters, in.Location, o.maxResults)
			return nil
		})
		g.Go(func() error {
			res := o.external.Search(gctx, query, in.Location, kind, o.maxResults)
			externalListings = res.Listings
			out.Warnings = append(out.Warnings, res.Warnings...)
			return nil
		})
		_ = g.Wait()
		externalRan = true

	default: // HYBRID_LOCAL_FIRST
		localListings = o.local.Search(ctx, query, filters, in.Location, o.maxResults)
		if len(localListings) < plan.MinLocalResults {
			if ctx.Err() != nil {
				// Caller disconnected: deliver what local produced rather
				// than discarding it.
				out.Warnings = append(out.Warnings, "external search skipped: request cancelled")
			} else if o.external.Disabled() {
				out.Warnings = append(out.Warnings, "external search is currently unavailable")
			} else {
				res := o.external.Search(ctx, query, in.Location, kind, o.maxResults)
				externalListings = res.Listings
				out.Warnings = append(out.Warnings, res.Warnings...)
				externalRan = true
			}
		}
	}

	combined := append(append([]models.Listing{}, localListings...), externalListings...)
	ranked := o.ranker.Rank(ctx, combined, query, in.Location)

	listings := ranked.Listings
	if len(listings) > o.maxResults {
		listings = listings[:o.maxResults]
	}

	out.Listings = listings
	out.Counts = models.SourceCounts{Local: len(localListings), External: len(externalListings)}

	// The one context write per turn. When local-first found nothing and
	// external never got a chance to run, ask the user before spending an
	// external call next turn.
	if plan.Strategy == models.StrategyHybridLocalFirst && len(listings) == 0 && !externalRan {
		out.AwaitingExternalConfirmation = true
		o.writeContext(out, o.sessions.SetExternalPending(ctx, in.SessionID, in.Message, query))
		return
	}
	o.writeContext(out, o.sessions.AfterSearch(ctx, in.SessionID, in.Message, query, listings))
}

// resolveQuery picks the search text: a confirmed pending external query
// wins, then the extracted query entity, then the raw message.
func (o *Orchestrator) resolveQuery(turnIntent models.Intent, message string, convCtx *models.ConversationContext) string {
	if turnIntent.Type == models.IntentConfirmation {
		if q := turnIntent.Entity("pending_query"); q != "" {
			return q
		}
		if convCtx != nil && convCtx.PendingExternalQuery != "" {
			return convCtx.PendingExternalQuery
		}
	}
	if turnIntent.Type == models.IntentCategoryBrowse {
		if c := turnIntent.Entity("category"); c != "" {
			return c
		}
	}
	if q := strings.TrimSpace(turnIntent.Entity("query")); q != "" {
		return q
	}
	return strings.TrimSpace(message)
}

func (o *Orchestrator) filtersFor(turnIntent models.Intent) local.Filters {
	var f local.Filters
	if raw := turnIntent.Entity("max_price"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v > 0 {
			f.MaxPrice = v
		}
	}
	if c := turnIntent.Entity("category"); c != "" {
		f.Category = c
	}
	switch turnIntent.Type {
	case models.IntentServiceRequest:
		f.Kind = models.KindService
	case models.IntentProductSearch, models.IntentPriceInquiry:
		f.Kind = models.KindProduct
	}
	return f
}

func searchKindFor(t models.IntentType) models.SearchKind {
	switch t {
	case models.IntentServiceRequest:
		return models.SearchServices
	case models.IntentComparison, models.IntentSearchRequest:
		return models.SearchBoth
	default:
		return models.SearchProducts
	}
}

// writeContext folds a context-store write failure into the warnings.
func (o *Orchestrator) writeContext(out *models.TurnOutput, err error) {
	if err != nil {
		o.logger.WithError(err).Warn("context write failed", nil)
		out.Warnings = append(out.Warnings, stderrors.Warning("conversation context", err))
	}
}

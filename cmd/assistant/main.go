// Command assistant serves the conversational shopping search engine:
// POST /api/chat runs one turn through the orchestration pipeline and
// returns the ranked structured result plus a best-effort composed reply.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AlphaGL/Finda-backend-sub000/internal/cache"
	"github.com/AlphaGL/Finda-backend-sub000/internal/common/config"
	"github.com/AlphaGL/Finda-backend-sub000/internal/common/database"
	stderrors "github.com/AlphaGL/Finda-backend-sub000/internal/common/errors"
	"github.com/AlphaGL/Finda-backend-sub000/internal/common/logger"
	"github.com/AlphaGL/Finda-backend-sub000/internal/common/observability"
	"github.com/AlphaGL/Finda-backend-sub000/internal/composer"
	"github.com/AlphaGL/Finda-backend-sub000/internal/intent"
	"github.com/AlphaGL/Finda-backend-sub000/internal/models"
	"github.com/AlphaGL/Finda-backend-sub000/internal/orchestrator"
	"github.com/AlphaGL/Finda-backend-sub000/internal/ranking"
	"github.com/AlphaGL/Finda-backend-sub000/internal/search/external"
	"github.com/AlphaGL/Finda-backend-sub000/internal/search/local"
	"github.com/AlphaGL/Finda-backend-sub000/internal/search/normalize"
	"github.com/AlphaGL/Finda-backend-sub000/internal/session"
	"github.com/AlphaGL/Finda-backend-sub000/internal/strategy"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)
	log.Info("starting assistant", map[string]interface{}{
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	})

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	pg, err := dialPostgres(cfg, log)
	if err != nil {
		log.WithError(err).Error("postgres unavailable", nil)
		os.Exit(1)
	}
	defer pg.Close()

	rdb, err := dialRedis(cfg, log)
	if err != nil {
		log.WithError(err).Error("redis unavailable", nil)
		os.Exit(1)
	}
	defer rdb.Close()

	normalizer := normalize.New(cfg.Search.DefaultCurrency)

	localSearch, err := buildLocalSearcher(cfg, pg, normalizer, log)
	if err != nil {
		log.WithError(err).Error("local search backend unavailable", nil)
		os.Exit(1)
	}

	resultCache := cache.NewRedis(rdb.GetClient(), "assistant")
	resultTTL := config.GetMinutes(cfg.Search.ResultCacheTTL)

	provider := external.NewHTTPProvider(external.ProviderConfig{
		BaseURL:  cfg.APIs.WebSearch.BaseURL,
		APIKey:   cfg.APIs.WebSearch.APIKey,
		EngineID: cfg.APIs.WebSearch.EngineID,
		Timeout:  config.GetDuration(cfg.APIs.WebSearch.Timeout),
		RateRPS:  cfg.APIs.WebSearch.RateRPS,
	})
	externalSearch := external.NewAdapter(provider, normalizer, resultCache,
		resultTTL, config.GetDuration(cfg.APIs.WebSearch.Timeout), log)

	ranker := ranking.NewEngine(ranking.DefaultWeights(), localSearch, resultCache, resultTTL, log)

	sessions := session.NewRedisStore(rdb.GetClient(), config.GetMinutes(cfg.Session.TTLMinutes), log)

	engine := orchestrator.New(
		sessions,
		intent.NewClassifier(log),
		strategy.NewSelector(cfg.Search.MinLocalResults),
		localSearch,
		externalSearch,
		ranker,
		cfg.Search.MaxResults,
		obs,
		log,
	)

	compose := composer.NewClient(composer.Config{
		BaseURL:    cfg.APIs.GenAI.BaseURL,
		APIKey:     cfg.APIs.GenAI.APIKey,
		Timeout:    config.GetDuration(cfg.APIs.GenAI.Timeout),
		MaxRetries: cfg.APIs.GenAI.MaxRetries,
	}, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", chatHandler(engine, compose, log))
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: mux,
	}

	go func() {
		log.Info("http server listening", map[string]interface{}{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("http server failed", nil)
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("shutdown incomplete", nil)
	}
}

// chatRequest is the turn input; a missing sessionId mints a new session.
type chatRequest struct {
	Message   string           `json:"message"`
	SessionID string           `json:"sessionId"`
	Location  *models.Location `json:"locationContext,omitempty"`
}

type chatResponse struct {
	Reply     string             `json:"reply,omitempty"`
	SessionID string             `json:"sessionId"`
	Result    *models.TurnOutput `json:"result"`
}

func chatHandler(engine *orchestrator.Orchestrator, compose *composer.Client, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, stderrors.NewInvalidInputError("malformed JSON body"))
			return
		}
		if req.SessionID == "" {
			req.SessionID = uuid.NewString()
		}

		out, err := engine.ProcessTurn(r.Context(), models.TurnInput{
			Message:   req.Message,
			SessionID: req.SessionID,
			Location:  req.Location,
		})
		if err != nil {
			// Only validation errors escape the pipeline.
			writeError(w, http.StatusBadRequest, err)
			return
		}

		resp := chatResponse{SessionID: req.SessionID, Result: out}

		// Composition is best effort: a failed composer never fails the turn.
		composeCtx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()
		if text, cerr := compose.Compose(composeCtx, out); cerr == nil {
			resp.Reply = text
		} else {
			log.WithError(cerr).Warn("composition failed, returning structured result", map[string]interface{}{
				"sessionId": req.SessionID,
			})
			out.Warnings = append(out.Warnings, stderrors.Warning("composer", cerr))
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	var se *stderrors.StandardError
	if !errors.As(err, &se) {
		se = stderrors.NewInvalidInputError(err.Error())
	}
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "error": se})
}

func buildLocalSearcher(cfg *config.Config, pg *database.PostgresClient, n *normalize.Normalizer, log logger.Logger) (local.Searcher, error) {
	if cfg.Search.LocalBackend == "elasticsearch" {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return nil, err
		}
		return local.NewESAdapter(es, cfg.Database.Elasticsearch.Index, n, log), nil
	}
	return local.NewAdapter(pg.GetDB(), n, log), nil
}

func dialPostgres(cfg *config.Config, log logger.Logger) (*database.PostgresClient, error) {
	var client *database.PostgresClient
	err := retryWithBackoff(5, 2*time.Second, func() error {
		var derr error
		client, derr = database.NewPostgres(cfg.Database.Postgres)
		if derr != nil {
			return derr
		}
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return client.Ping(pingCtx)
	}, log, "postgres")
	return client, err
}

func dialRedis(cfg *config.Config, log logger.Logger) (*database.RedisClient, error) {
	var client *database.RedisClient
	err := retryWithBackoff(5, 2*time.Second, func() error {
		var derr error
		client, derr = database.NewRedis(cfg.Database.Redis)
		if derr != nil {
			return derr
		}
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return client.Ping(pingCtx)
	}, log, "redis")
	return client, err
}

func retryWithBackoff(attempts int, initial time.Duration, fn func() error, log logger.Logger, name string) error {
	delay := initial
	var err error
	for i := 1; i <= attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i < attempts {
			log.Warn("connection attempt failed, retrying", map[string]interface{}{
				"target":  name,
				"attempt": i,
				"delay":   delay.String(),
			})
			time.Sleep(delay)
			delay *= 2
		}
	}
	return err
}

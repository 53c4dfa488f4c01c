// Package composer calls the generative-text collaborator that phrases the
// final user-facing reply. The engine hands it the structured turn output;
// prose is produced here or not at all.
package composer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	stderrors "github.com/AlphaGL/Finda-backend-sub000/internal/common/errors"
	commonhttp "github.com/AlphaGL/Finda-backend-sub000/internal/common/http"
	"github.com/AlphaGL/Finda-backend-sub000/internal/common/logger"
	"github.com/AlphaGL/Finda-backend-sub000/internal/models"
)

// Config holds the GenAI service settings.
type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
}

// Client posts structured turn summaries to the GenAI service.
type Client struct {
	config Config
	http   *commonhttp.Client
	logger logger.Logger
}

func NewClient(cfg Config, log logger.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 2
	}
	return &Client{
		config: cfg,
		http:   commonhttp.NewClient(cfg.Timeout),
		logger: log.WithFields(map[string]interface{}{"component": "composer"}),
	}
}

type composeRequest struct {
	Summary *models.TurnOutput `json:"summary"`
}

type composeResponse struct {
	Text string `json:"text"`
}

// Compose turns a structured result into reply text. Transient failures are
// retried with exponential backoff; the final failure is returned typed so
// the serving layer can fall back to the structured result.
func (c *Client) Compose(ctx context.Context, out *models.TurnOutput) (string, error) {
	payload, err := json.Marshal(composeRequest{Summary: out})
	if err != nil {
		return "", stderrors.NewComposeFailedError(err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * 500 * time.Millisecond
			select {
			case <-ctx.Done():
				return "", stderrors.NewComposeTimeoutError()
			case <-time.After(backoff):
			}
		}

		text, err := c.composeOnce(ctx, payload)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if !stderrors.IsTransient(err) {
			break
		}
		c.logger.Warn("compose attempt failed", map[string]interface{}{
			"attempt": attempt + 1,
			"error":   err.Error(),
		})
	}

	return "", lastErr
}

func (c *Client) composeOnce(ctx context.Context, payload []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(c.config.BaseURL, "/")+"/v1/compose", bytes.NewReader(payload))
	if err != nil {
		return "", stderrors.NewComposeFailedError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil || commonhttp.IsTimeout(err) {
			return "", stderrors.NewComposeTimeoutError()
		}
		return "", stderrors.NewComposeFailedError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", stderrors.NewComposeFailedError(fmt.Errorf("status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", stderrors.NewComposeFailedError(err)
	}

	var parsed composeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", stderrors.NewComposeFailedError(err)
	}
	if strings.TrimSpace(parsed.Text) == "" {
		return "", stderrors.NewComposeFailedError(fmt.Errorf("empty composition"))
	}

	return parsed.Text, nil
}

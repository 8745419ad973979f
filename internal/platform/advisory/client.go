// Package advisory consults an external dosing-recommendation service for
// free-text renal-adjustment hints. The service is never authoritative:
// failures and timeouts are swallowed, no flag is raised, and no mutation
// is ever blocked on it.
package advisory

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const defaultTimeout = 3 * time.Second

// Request carries the course context sent to the advisory service.
type Request struct {
	Drug      string `json:"drug"`
	EGFR      string `json:"egfr"`
	Guideline string `json:"guideline,omitempty"`
	Dose      string `json:"dose"`
	Frequency string `json:"frequency"`
}

// Recommendation is the advisory service's optional hint.
type Recommendation struct {
	RequiresAdjustment bool   `json:"requires_adjustment"`
	Recommendation     string `json:"recommendation,omitempty"`
}

// Client calls the advisory dosing service.
type Client struct {
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
}

// NewClient builds a client for the advisory service at baseURL. timeout
// zero means the default.
func NewClient(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Advice asks the service for a dosing hint. Any failure — transport,
// timeout, bad status, malformed body — returns nil; the caller treats
// that as "no hint".
func (c *Client) Advice(ctx context.Context, req Request) *Recommendation {
	if c.baseURL == "" {
		return nil
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/advice", bytes.NewReader(body))
	if err != nil {
		return nil
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Debug().Err(err).Str("drug", req.Drug).Msg("advisory request failed")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Debug().Int("status", resp.StatusCode).Str("drug", req.Drug).Msg("advisory request rejected")
		return nil
	}
	var rec Recommendation
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		c.logger.Debug().Err(err).Str("drug", req.Drug).Msg("advisory response malformed")
		return nil
	}
	return &rec
}

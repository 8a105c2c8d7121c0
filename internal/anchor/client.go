// Package anchor submits compliance commitments to the external anchoring
// service, which batches them onto a public chain. Anchoring is strictly
// best-effort: a failed or skipped anchor never blocks the ledger write,
// and an open circuit turns submissions into no-ops until the service
// recovers.
package anchor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"attestgate/internal/ledger/models"
	"attestgate/pkg/platform/circuit"
	"attestgate/pkg/platform/sentinel"
)

// Client talks to the anchoring service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *circuit.Breaker
	logger  *slog.Logger
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// WithBreaker overrides the default circuit breaker.
func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) {
		c.breaker = b
	}
}

// NewClient creates an anchoring client for the given base URL.
func NewClient(baseURL string, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 5 * time.Second},
		breaker: circuit.New("anchor", circuit.WithFailureThreshold(3), circuit.WithSuccessThreshold(2)),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type anchorRequest struct {
	EventID    string `json:"event_id"`
	Commitment string `json:"commitment"`
}

type anchorResponse struct {
	Network     string `json:"network"`
	TxHash      string `json:"tx_hash"`
	BlockNumber int64  `json:"block_number"`
}

// Submit sends a commitment for anchoring and returns the resulting chain
// reference. It returns sentinel.ErrUnavailable without making a call when
// the circuit is open; callers treat that as a skip, not a failure.
func (c *Client) Submit(ctx context.Context, eventID, commitment string) (*models.AnchorInfo, error) {
	if c.breaker.IsOpen() {
		// Probe occasionally so the breaker can close again.
		if !c.shouldProbe() {
			return nil, fmt.Errorf("anchor circuit open: %w", sentinel.ErrUnavailable)
		}
	}

	info, err := c.submit(ctx, eventID, commitment)
	if err != nil {
		if _, change := c.breaker.RecordFailure(); change.Opened {
			c.logger.WarnContext(ctx, "anchor circuit opened", "error", err)
		}
		return nil, err
	}

	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.InfoContext(ctx, "anchor circuit closed")
	}
	return info, nil
}

func (c *Client) submit(ctx context.Context, eventID, commitment string) (*models.AnchorInfo, error) {
	body, err := json.Marshal(anchorRequest{EventID: eventID, Commitment: commitment})
	if err != nil {
		return nil, fmt.Errorf("marshal anchor request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/anchors", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build anchor request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call anchor service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("anchor service returned status %d", resp.StatusCode)
	}

	var out anchorResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode anchor response: %w", err)
	}
	if out.TxHash == "" {
		return nil, fmt.Errorf("anchor response missing tx hash")
	}

	return &models.AnchorInfo{
		Network:     out.Network,
		TxHash:      out.TxHash,
		BlockNumber: out.BlockNumber,
	}, nil
}

// shouldProbe lets one in every few open-circuit calls through as a health
// probe instead of tracking a separate half-open timer.
func (c *Client) shouldProbe() bool {
	return time.Now().UnixNano()%8 == 0
}

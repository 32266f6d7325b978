// Package summaryapi is the HTTP client for the remote drug-summary export
// API.
package summaryapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/ichooserx/rxsync-engine/pkg/models"
	"github.com/ichooserx/rxsync-engine/pkg/retry"
)

// Filter is one filter the remote API applied to the summaries.
type Filter struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Attributes carries one drug's result counts and variants.
type Attributes struct {
	DrugName        string               `json:"drug_name"`
	TotalResults    int                  `json:"total_results"`
	FilteredResults int                  `json:"filtered_results"`
	Variants        []models.DrugVariant `json:"variants"`
}

// Item wraps one summary entry; the remote API nests payloads under
// "attributes".
type Item struct {
	Attributes Attributes `json:"attributes"`
}

// Response is the export_summaries payload.
type Response struct {
	FiltersApplied []Filter `json:"filters_applied"`
	Summary        []Item   `json:"summary"`
}

// Client fetches drug summaries from the remote export API.
type Client interface {
	// FetchSummaries sends one GET for all drugs with optional filters.
	FetchSummaries(ctx context.Context, drugNames, filters []string) (*Response, error)
}

type client struct {
	baseURL    string
	httpClient *http.Client
	retryCfg   *retry.Config
	logger     *zap.Logger
}

// Config holds client settings.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

// NewClient creates a summary API client.
func NewClient(cfg Config, logger *zap.Logger) Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	retryCfg := retry.DefaultConfig()
	if cfg.MaxRetries > 0 {
		retryCfg.MaxRetries = cfg.MaxRetries
	}
	return &client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
		retryCfg:   retryCfg,
		logger:     logger,
	}
}

var _ Client = (*client)(nil)

func (c *client) FetchSummaries(ctx context.Context, drugNames, filters []string) (*Response, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("summary API base URL is not configured")
	}

	endpoint, err := url.Parse(c.baseURL + "/export_summaries")
	if err != nil {
		return nil, fmt.Errorf("failed to build summary URL: %w", err)
	}
	params := url.Values{}
	for _, name := range drugNames {
		params.Add("drug_names[]", name)
	}
	for _, filter := range filters {
		params.Add("filters[]", filter)
	}
	endpoint.RawQuery = params.Encode()

	var response *Response
	err = retry.Do(ctx, c.retryCfg, func() error {
		r, err := c.fetch(ctx, endpoint.String())
		if err != nil {
			c.logger.Warn("Summary API request failed", zap.Error(err))
			return err
		}
		response = r
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch summaries: %w", err)
	}
	return response, nil
}

func (c *client) fetch(ctx context.Context, endpoint string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("summary API returned %d: %s", resp.StatusCode, string(body))
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode summary response: %w", err)
	}
	return &out, nil
}

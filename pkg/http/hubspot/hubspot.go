package hubspot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/vpnda/billing-sync/pkg/config"
	fetchhttp "github.com/vpnda/billing-sync/pkg/http"
	"github.com/vpnda/billing-sync/pkg/models"
)

const (
	DefaultBaseURL = "https://api.hubapi.com"

	dealsPath = "/crm/v3/objects/deals"
)

// DealProperties are the deal properties requested on every listing.
var DealProperties = []string{"dealname", "amount", "closedate", "dealstage", "pipeline", "createdate"}

// UpstreamError is returned for any non-2xx response. Auth failures, rate
// limits and server errors are not told apart.
type UpstreamError struct {
	fetchhttp.StatusError
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("HubSpot API error %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
}

var _ fetchhttp.DealFetcher = (*Client)(nil)

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func NewClient(opts config.HubSpotOptions, options ...Option) *Client {
	c := &Client{
		httpClient:  fetchhttp.NewClient(false),
		baseURL:     strings.TrimSuffix(opts.BaseURL, "/"),
		accessToken: opts.AccessToken,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	for _, o := range options {
		o(c)
	}
	return c
}

type dealsResponse struct {
	Results []models.DealRecord `json:"results"`
}

// GetDeals lists deals with DealProperties. Records are returned as received,
// in order; a response without results yields an empty slice.
func (c *Client) GetDeals(ctx context.Context) ([]models.DealRecord, error) {
	url := c.baseURL + dealsPath + "?properties=" + strings.Join(DealProperties, ",")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("deals request failed: %w", err)
	}
	defer resp.Body.Close()

	if !fetchhttp.IsSuccess(resp.StatusCode) {
		return nil, &UpstreamError{StatusError: fetchhttp.NewStatusError(resp)}
	}

	var deals dealsResponse
	if err := json.NewDecoder(resp.Body).Decode(&deals); err != nil {
		return nil, fmt.Errorf("failed to parse deals response: %w", err)
	}

	if deals.Results == nil {
		return []models.DealRecord{}, nil
	}
	log.Debug().Int("deals", len(deals.Results)).Msg("Fetched deals from HubSpot")
	return deals.Results, nil
}

package xero

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/vpnda/billing-sync/pkg/config"
	fetchhttp "github.com/vpnda/billing-sync/pkg/http"
	"github.com/vpnda/billing-sync/pkg/models"
)

const (
	DefaultTokenURL       = "https://identity.xero.com/connect/token"
	DefaultConnectionsURL = "https://api.xero.com/connections"
	DefaultAPIBaseURL     = "https://api.xero.com/api.xro/2.0"

	// Scope requested in the client-credentials grant
	Scope        = "accounting.transactions accounting.contacts"
	TenantHeader = "Xero-tenant-id"

	invoicesPath = "/Invoices"
)

// Client runs the invoice pipeline: token, tenant, invoices. Nothing is kept
// between calls.
type Client struct {
	httpClient *http.Client

	clientID     string
	clientSecret string

	tokenURL       string
	connectionsURL string
	apiBaseURL     string
}

var _ fetchhttp.InvoiceFetcher = (*Client)(nil)

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func NewClient(opts config.XeroOptions, options ...Option) *Client {
	c := &Client{
		httpClient:     fetchhttp.NewClient(false),
		clientID:       opts.ClientID,
		clientSecret:   opts.ClientSecret,
		tokenURL:       valueOr(opts.TokenURL, DefaultTokenURL),
		connectionsURL: valueOr(opts.ConnectionsURL, DefaultConnectionsURL),
		apiBaseURL:     strings.TrimSuffix(valueOr(opts.APIBaseURL, DefaultAPIBaseURL), "/"),
	}
	for _, o := range options {
		o(c)
	}
	return c
}

// Run performs the three steps in order and stops at the first failure.
func (c *Client) Run(ctx context.Context) (*models.InvoiceCollection, error) {
	token, err := c.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	tenantID, err := c.TenantID(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("tenant", tenantID).Msg("Resolved Xero tenant")

	return c.Invoices(ctx, token.AccessToken, tenantID)
}

// FetchInvoices is the caller-facing entry point. Unlike the deal fetcher it
// never returns an error: any failure is logged and reported as a nil
// collection, so callers cannot tell a failed fetch from no result.
func (c *Client) FetchInvoices(ctx context.Context) *models.InvoiceCollection {
	invoices, err := c.Run(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Xero fetch failed")
		return nil
	}

	event := log.Info().Int("bytes", len(invoices.Raw()))
	if list, err := invoices.Invoices(); err == nil {
		event = event.Int("invoices", len(list))
	}
	event.Msg("Invoices fetched from Xero")
	log.Debug().RawJSON("invoices", invoices.Raw()).Msg("Xero invoices payload")
	return invoices
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

package xero

import (
	"context"
	"fmt"
	"io"
	"net/http"

	fetchhttp "github.com/vpnda/billing-sync/pkg/http"
	"github.com/vpnda/billing-sync/pkg/models"
)

// Invoices fetches the tenant's invoices as JSON. The tenant travels in the
// Xero-tenant-id header.
func (c *Client) Invoices(ctx context.Context, accessToken, tenantID string) (*models.InvoiceCollection, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBaseURL+invoicesPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create invoices request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set(TenantHeader, tenantID)
	// the API answers in XML unless told otherwise
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("invoices request failed: %w", err)
	}
	defer resp.Body.Close()

	if !fetchhttp.IsSuccess(resp.StatusCode) {
		return nil, &InvoicesError{StatusError: fetchhttp.NewStatusError(resp)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read invoices response: %w", err)
	}

	return models.NewInvoiceCollection(body)
}

package xero

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	fetchhttp "github.com/vpnda/billing-sync/pkg/http"
)

type connection struct {
	ID         string `json:"id"`
	TenantID   string `json:"tenantId"`
	TenantType string `json:"tenantType"`
	TenantName string `json:"tenantName"`
}

// TenantID returns the tenant of the first authorised connection. Any further
// connections are ignored.
func (c *Client) TenantID(ctx context.Context, accessToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.connectionsURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create connections request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("connections request failed: %w", err)
	}
	defer resp.Body.Close()

	if !fetchhttp.IsSuccess(resp.StatusCode) {
		return "", &ConnectionsError{StatusError: fetchhttp.NewStatusError(resp)}
	}

	var connections []connection
	if err := json.NewDecoder(resp.Body).Decode(&connections); err != nil {
		return "", fmt.Errorf("failed to parse connections response: %w", err)
	}

	if len(connections) == 0 || connections[0].TenantID == "" {
		return "", ErrNoTenant
	}

	return connections[0].TenantID, nil
}

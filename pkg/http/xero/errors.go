package xero

import (
	"fmt"

	fetchhttp "github.com/vpnda/billing-sync/pkg/http"
)

// TokenError is returned when the client-credentials exchange is rejected or
// does not yield an access token.
type TokenError struct {
	fetchhttp.StatusError
	Reason string
}

func (e *TokenError) Error() string {
	if e.Reason != "" {
		return "Token error: " + e.Reason
	}
	return fmt.Sprintf("Token error %d: %s", e.StatusCode, e.Body)
}

// ConnectionsError is returned when listing the authorised connections fails.
type ConnectionsError struct {
	fetchhttp.StatusError
}

func (e *ConnectionsError) Error() string {
	return fmt.Sprintf("Connections error %d: %s", e.StatusCode, e.Body)
}

// NoTenantError means the connections list did not name a tenant.
type NoTenantError struct{}

func (e *NoTenantError) Error() string {
	return "no tenant found"
}

var ErrNoTenant = &NoTenantError{}

// InvoicesError is returned when the tenant-scoped invoices request fails.
type InvoicesError struct {
	fetchhttp.StatusError
}

func (e *InvoicesError) Error() string {
	return fmt.Sprintf("Invoices error %d: %s", e.StatusCode, e.Body)
}

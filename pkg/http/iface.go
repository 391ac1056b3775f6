package http

import (
	"context"

	"github.com/vpnda/billing-sync/pkg/models"
)

// DealFetcher lists CRM deals. Failures are returned to the caller.
type DealFetcher interface {
	GetDeals(ctx context.Context) ([]models.DealRecord, error)
}

// InvoiceFetcher produces the accounting invoices payload, or nil when the
// fetch did not produce a result. Failures are logged, never returned.
type InvoiceFetcher interface {
	FetchInvoices(ctx context.Context) *models.InvoiceCollection
}

package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vpnda/billing-sync/db"
	fetchhttp "github.com/vpnda/billing-sync/pkg/http"
	"github.com/vpnda/billing-sync/pkg/models"
)

const (
	SourceHubSpot = "hubspot"
	SourceXero    = "xero"
)

// FetchRecorder runs fetchers and writes each outcome to the run history.
// Recorded runs are an audit trail; nothing is ever served from them.
type FetchRecorder struct {
	database db.DBInterface
	now      func() time.Time
}

// NewFetchRecorder accepts a nil database, in which case nothing is recorded
func NewFetchRecorder(database db.DBInterface) *FetchRecorder {
	return &FetchRecorder{
		database: database,
		now:      time.Now,
	}
}

func (r *FetchRecorder) start(source string) *models.FetchRun {
	return &models.FetchRun{
		ID:        uuid.NewString(),
		Source:    source,
		StartedAt: r.now(),
	}
}

func (r *FetchRecorder) finish(run *models.FetchRun) {
	finished := r.now()
	run.FinishedAt = &finished
	if r.database == nil {
		return
	}
	// history is best effort, the fetch result stands on its own
	if err := r.database.SaveRun(run); err != nil {
		log.Warn().Err(err).Str("run_id", run.ID).Str("source", run.Source).Msg("Failed to record fetch run")
	}
}

// Deals fetches deals and records the run. Errors are returned unchanged.
func (r *FetchRecorder) Deals(ctx context.Context, fetcher fetchhttp.DealFetcher) ([]models.DealRecord, error) {
	run := r.start(SourceHubSpot)
	deals, err := fetcher.GetDeals(ctx)
	if err != nil {
		run.Status = models.RunStatusFailed
		run.Error = err.Error()
	} else {
		run.Status = models.RunStatusSucceeded
		run.RecordCount = len(deals)
	}
	r.finish(run)
	return deals, err
}

// Invoices fetches invoices and records the run. A nil collection is recorded
// as a run without result.
func (r *FetchRecorder) Invoices(ctx context.Context, fetcher fetchhttp.InvoiceFetcher) *models.InvoiceCollection {
	run := r.start(SourceXero)
	collection := fetcher.FetchInvoices(ctx)
	if collection == nil {
		run.Status = models.RunStatusNoResult
	} else {
		run.Status = models.RunStatusSucceeded
		if invoices, err := collection.Invoices(); err == nil {
			run.RecordCount = len(invoices)
		}
	}
	r.finish(run)
	return collection
}

// History lists recorded runs, newest first
func (r *FetchRecorder) History(source string, limit int) ([]*models.FetchRun, error) {
	if r.database == nil {
		return []*models.FetchRun{}, nil
	}
	return r.database.GetRuns(source, limit)
}

package db

import (
	"github.com/vpnda/billing-sync/pkg/models"
)

// DBInterface defines the interface for the fetch run history
type DBInterface interface {
	Initialize() error
	Close() error
	SaveRun(run *models.FetchRun) error
	GetRun(id string) (*models.FetchRun, error)
	GetRuns(source string, limit int) ([]*models.FetchRun, error)
}

// Ensure DB implements DBInterface
var _ DBInterface = (*DB)(nil)

// Ensure MockDB implements DBInterface
var _ DBInterface = (*MockDB)(nil)

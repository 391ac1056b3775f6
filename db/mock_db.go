package db

import (
	"fmt"
	"sort"

	"github.com/vpnda/billing-sync/pkg/models"
)

// MockDB is a mock implementation of the DB for testing
type MockDB struct {
	Runs map[string]*models.FetchRun

	// Error values to return
	InitializeErr error
	SaveRunErr    error
	GetRunErr     error
	GetRunsErr    error
}

// NewMockDB creates a new mock database
func NewMockDB() *MockDB {
	return &MockDB{
		Runs: make(map[string]*models.FetchRun),
	}
}

func (m *MockDB) SaveRun(run *models.FetchRun) error {
	if m.SaveRunErr != nil {
		return m.SaveRunErr
	}
	if run.ID == "" {
		return fmt.Errorf("run has no id")
	}

	saved := *run
	m.Runs[run.ID] = &saved
	return nil
}

func (m *MockDB) GetRun(id string) (*models.FetchRun, error) {
	if m.GetRunErr != nil {
		return nil, m.GetRunErr
	}

	run, ok := m.Runs[id]
	if !ok {
		return nil, nil
	}
	return run, nil
}

func (m *MockDB) GetRuns(source string, limit int) ([]*models.FetchRun, error) {
	if m.GetRunsErr != nil {
		return nil, m.GetRunsErr
	}

	runs := make([]*models.FetchRun, 0, len(m.Runs))
	for _, run := range m.Runs {
		if source == "" || run.Source == source {
			runs = append(runs, run)
		}
	}
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].StartedAt.Equal(runs[j].StartedAt) {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// Initialize is a no-op for the mock database
func (m *MockDB) Initialize() error {
	return m.InitializeErr
}

// Close is a no-op for the mock database
func (m *MockDB) Close() error {
	return nil
}

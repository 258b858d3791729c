package snapshot

import (
	"path/filepath"
	"sync"

	"github.com/apexboard/linear-integration/pkg/canonical"
)

// MockWriter implements the Writer interface for testing.
type MockWriter struct {
	mu sync.Mutex

	// Error simulates a write failure when set
	Error error

	// Written records the project ids written, in call order
	Written []string

	// LastData is the most recently written payload
	LastData *canonical.ProjectData
}

// NewMockWriter creates a new mock snapshot writer for testing.
func NewMockWriter() *MockWriter {
	return &MockWriter{}
}

func (m *MockWriter) WriteProjectSnapshot(data *canonical.ProjectData, basePath string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Error != nil {
		return "", m.Error
	}
	m.Written = append(m.Written, data.ProviderProjectID)
	m.LastData = data
	return filepath.Join(basePath, "projects", data.ProviderProjectID, "project.yaml"), nil
}

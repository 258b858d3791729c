package audit

import "sync"

// MockTrail implements the Trail interface for testing.
type MockTrail struct {
	mu sync.Mutex

	// InitializeError simulates an initialization failure when set
	InitializeError error

	// CommitError simulates a commit failure when set
	CommitError error

	// Initialized records repository paths passed to Initialize
	Initialized []string

	// Commits records one entry per CommitSnapshot call
	Commits []MockCommit
}

// MockCommit captures the arguments of one CommitSnapshot call.
type MockCommit struct {
	RepoPath          string
	FilePath          string
	ProjectName       string
	ProviderProjectID string
}

// NewMockTrail creates a new mock audit trail for testing.
func NewMockTrail() *MockTrail {
	return &MockTrail{}
}

func (m *MockTrail) Initialize(repoPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InitializeError != nil {
		return m.InitializeError
	}
	m.Initialized = append(m.Initialized, repoPath)
	return nil
}

func (m *MockTrail) CommitSnapshot(repoPath, filePath, projectName, providerProjectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CommitError != nil {
		return m.CommitError
	}
	m.Commits = append(m.Commits, MockCommit{
		RepoPath:          repoPath,
		FilePath:          filePath,
		ProjectName:       projectName,
		ProviderProjectID: providerProjectID,
	})
	return nil
}

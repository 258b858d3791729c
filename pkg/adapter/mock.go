package adapter

import (
	"context"
	"sync"

	"github.com/apexboard/linear-integration/pkg/canonical"
)

// MockAdapter implements the Adapter interface for testing.
type MockAdapter struct {
	// mu protects all fields for thread-safe concurrent access
	mu sync.RWMutex

	// Summaries returned by GetAndAdaptProjects
	Summaries []canonical.ProjectSummary

	// MembersByProject maps provider project ids to member lists
	MembersByProject map[string][]canonical.ProjectMember

	// IssuesByProject maps provider project ids to issue lists
	IssuesByProject map[string][]canonical.IssueData

	// ProjectData returned by AdaptProjectData
	ProjectData *canonical.ProjectData

	// Error simulates an adaptation failure on every call when set
	Error error

	// LastInput records the last AdaptProjectData input
	LastInput AdaptInput

	// AdaptProjectDataCallCount tracks AdaptProjectData invocations
	AdaptProjectDataCallCount int
}

// NewMockAdapter creates a new mock adapter for testing.
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{
		MembersByProject: make(map[string][]canonical.ProjectMember),
		IssuesByProject:  make(map[string][]canonical.IssueData),
	}
}

func (m *MockAdapter) GetAndAdaptProjects(ctx context.Context, apiKey string) ([]canonical.ProjectSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Error != nil {
		return nil, m.Error
	}
	return m.Summaries, nil
}

func (m *MockAdapter) GetMembersByProjectID(ctx context.Context, providerProjectID, apiKey string) ([]canonical.ProjectMember, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Error != nil {
		return nil, m.Error
	}
	return m.MembersByProject[providerProjectID], nil
}

func (m *MockAdapter) AdaptAllProjectIssuesData(ctx context.Context, providerProjectID string) ([]canonical.IssueData, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Error != nil {
		return nil, m.Error
	}
	return m.IssuesByProject[providerProjectID], nil
}

func (m *MockAdapter) AdaptProjectData(ctx context.Context, input AdaptInput) (*canonical.ProjectData, error) {
	m.mu.Lock()
	m.AdaptProjectDataCallCount++
	m.LastInput = input
	m.mu.Unlock()

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Error != nil {
		return nil, m.Error
	}
	return m.ProjectData, nil
}

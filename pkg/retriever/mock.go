package retriever

import (
	"context"
	"fmt"
	"sync"
)

// MockRetriever implements the Retriever interface for testing.
// This enables comprehensive unit testing without network access.
type MockRetriever struct {
	// mu protects all fields for thread-safe concurrent access
	mu sync.RWMutex

	// Organization returned by GetOrganization
	Organization *Organization

	// Teams maps team ids to Team objects
	Teams map[string]*Team

	// Members maps team ids to member lists
	Members map[string][]Member

	// Stages maps team ids to workflow state lists
	Stages map[string][]WorkflowState

	// Labels maps team ids to label lists
	Labels map[string][]Label

	// Issues maps team ids to issue lists
	Issues map[string][]Issue

	// Histories maps issue ids to history entry lists
	Histories map[string][]HistoryEntry

	// Users maps user ids to Member objects
	Users map[string]*Member

	// Error simulates a provider failure on every call when set
	Error error

	// Credential records the last configured credential
	Credential string

	// ConfigureCallCount tracks ConfigureCredential invocations
	ConfigureCallCount int

	// CallCounts tracks invocations per operation name
	CallCounts map[string]int
}

// NewMockRetriever creates a new mock retriever for testing.
func NewMockRetriever() *MockRetriever {
	return &MockRetriever{
		Teams:      make(map[string]*Team),
		Members:    make(map[string][]Member),
		Stages:     make(map[string][]WorkflowState),
		Labels:     make(map[string][]Label),
		Issues:     make(map[string][]Issue),
		Histories:  make(map[string][]HistoryEntry),
		Users:      make(map[string]*Member),
		CallCounts: make(map[string]int),
	}
}

func (m *MockRetriever) record(op string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallCounts[op]++
	return m.Error
}

// ConfigureCredential records the credential; the first one wins, like
// the real retriever.
func (m *MockRetriever) ConfigureCredential(secret string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ConfigureCallCount++
	if m.Credential == "" {
		m.Credential = secret
	}
}

func (m *MockRetriever) GetOrganization(ctx context.Context) (*Organization, error) {
	if err := m.record("GetOrganization"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Organization == nil {
		return &Organization{ID: "org-1", Name: "Mock Org"}, nil
	}
	return m.Organization, nil
}

func (m *MockRetriever) GetTeams(ctx context.Context) ([]Team, error) {
	if err := m.record("GetTeams"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	teams := make([]Team, 0, len(m.Teams))
	for _, t := range m.Teams {
		teams = append(teams, *t)
	}
	return teams, nil
}

func (m *MockRetriever) GetTeam(ctx context.Context, teamID string) (*Team, error) {
	if err := m.record("GetTeam"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	team, exists := m.Teams[teamID]
	if !exists {
		return nil, &RetrieverError{
			Type:    "not_found",
			Message: fmt.Sprintf("team %s not found", teamID),
		}
	}
	return team, nil
}

func (m *MockRetriever) GetMembers(ctx context.Context, teamID string) ([]Member, error) {
	if err := m.record("GetMembers"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Members[teamID], nil
}

func (m *MockRetriever) GetStages(ctx context.Context, teamID string) ([]WorkflowState, error) {
	if err := m.record("GetStages"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Stages[teamID], nil
}

func (m *MockRetriever) GetLabels(ctx context.Context, teamID string) ([]Label, error) {
	if err := m.record("GetLabels"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Labels[teamID], nil
}

func (m *MockRetriever) GetIssues(ctx context.Context, teamID string) ([]Issue, error) {
	if err := m.record("GetIssues"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Issues[teamID], nil
}

func (m *MockRetriever) GetIssueHistory(ctx context.Context, issueID string) ([]HistoryEntry, error) {
	if err := m.record("GetIssueHistory"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Histories[issueID], nil
}

func (m *MockRetriever) GetUser(ctx context.Context, userID string) (*Member, error) {
	if err := m.record("GetUser"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, exists := m.Users[userID]
	if !exists {
		return nil, &RetrieverError{
			Type:    "not_found",
			Message: fmt.Sprintf("user %s not found", userID),
		}
	}
	return user, nil
}

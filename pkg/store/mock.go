package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MockStore implements the Store interface for testing the integration
// service without a database.
type MockStore struct {
	// mu protects all fields for thread-safe concurrent access
	mu sync.Mutex

	// Users maps user ids to users
	Users map[string]*User

	// UsersByEmail maps emails to users
	UsersByEmail map[string]*User

	// Projects maps provider project ids to already-integrated projects
	Projects map[string]*Project

	// ExistingIssues marks provider issue ids already persisted
	ExistingIssues map[string]bool

	// BeginError simulates a transaction-open failure when set
	BeginError error

	// TxCreateProjectError and TxCreateIssueError pre-arm error
	// injection on the next opened transaction
	TxCreateProjectError error
	TxCreateIssueError   error

	// LastTx is the most recently opened mock transaction
	LastTx *MockTx

	// BeginCallCount tracks Begin invocations
	BeginCallCount int
}

// NewMockStore creates a new mock store for testing.
func NewMockStore() *MockStore {
	return &MockStore{
		Users:          make(map[string]*User),
		UsersByEmail:   make(map[string]*User),
		Projects:       make(map[string]*Project),
		ExistingIssues: make(map[string]bool),
	}
}

// AddUser registers a local user reachable by id and email.
func (m *MockStore) AddUser(user *User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	m.Users[user.ID] = user
	m.UsersByEmail[user.Email] = user
}

func (m *MockStore) Begin(ctx context.Context) (Tx, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BeginCallCount++
	if m.BeginError != nil {
		return nil, m.BeginError
	}
	m.LastTx = &MockTx{
		store:              m,
		CreateProjectError: m.TxCreateProjectError,
		CreateIssueError:   m.TxCreateIssueError,
	}
	return m.LastTx, nil
}

func (m *MockStore) GetUserByID(ctx context.Context, id string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Users[id], nil
}

func (m *MockStore) GetProjectByProviderID(ctx context.Context, providerProjectID string) (*Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Projects[providerProjectID], nil
}

func (m *MockStore) Close() error { return nil }

// MockTx implements the Tx interface, recording every write for
// assertions. Lookups resolve against the parent MockStore.
type MockTx struct {
	store *MockStore

	// Error injection, one field per failure point
	CreateProjectError error
	CreateIssueError   error

	// Recorded writes, in call order
	CreatedProjects      []*Project
	CreatedPendingUsers  []*PendingUser
	CreatedRoles         []*UserProjectRole
	CreatedStages        []*Stage
	CreatedProjectStages []*ProjectStage
	CreatedLabels        []*Label
	CreatedIssueLabels   []*IssueLabel
	CreatedIssues        []*Issue
	CreatedChangeLogs    []*IssueChangeLog
	CreatedBlockerMods   []*BlockerStatusModification

	Committed  bool
	RolledBack bool
}

func (t *MockTx) Commit() error {
	t.Committed = true
	return nil
}

func (t *MockTx) Rollback() error {
	if !t.Committed {
		t.RolledBack = true
	}
	return nil
}

func (t *MockTx) CreateProject(ctx context.Context, project *Project) error {
	if t.CreateProjectError != nil {
		return t.CreateProjectError
	}
	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	t.CreatedProjects = append(t.CreatedProjects, project)
	return nil
}

func (t *MockTx) GetProjectByProviderID(ctx context.Context, providerProjectID string) (*Project, error) {
	return t.store.GetProjectByProviderID(ctx, providerProjectID)
}

func (t *MockTx) GetUserByID(ctx context.Context, id string) (*User, error) {
	return t.store.GetUserByID(ctx, id)
}

func (t *MockTx) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	return t.store.UsersByEmail[email], nil
}

func (t *MockTx) CreatePendingUser(ctx context.Context, pending *PendingUser) error {
	if pending.ID == "" {
		pending.ID = uuid.NewString()
	}
	t.CreatedPendingUsers = append(t.CreatedPendingUsers, pending)
	return nil
}

func (t *MockTx) CreateUserProjectRole(ctx context.Context, role *UserProjectRole) error {
	if role.ID == "" {
		role.ID = uuid.NewString()
	}
	t.CreatedRoles = append(t.CreatedRoles, role)
	return nil
}

func (t *MockTx) GetOrCreateStage(ctx context.Context, name string) (*Stage, error) {
	for _, s := range t.CreatedStages {
		if s.Name == name {
			return s, nil
		}
	}
	stage := &Stage{ID: uuid.NewString(), Name: name}
	t.CreatedStages = append(t.CreatedStages, stage)
	return stage, nil
}

func (t *MockTx) CreateProjectStage(ctx context.Context, projectStage *ProjectStage) error {
	if projectStage.ID == "" {
		projectStage.ID = uuid.NewString()
	}
	t.CreatedProjectStages = append(t.CreatedProjectStages, projectStage)
	return nil
}

func (t *MockTx) GetOrCreateLabel(ctx context.Context, name string) (*Label, error) {
	for _, l := range t.CreatedLabels {
		if l.Name == name {
			return l, nil
		}
	}
	label := &Label{ID: uuid.NewString(), Name: name}
	t.CreatedLabels = append(t.CreatedLabels, label)
	return label, nil
}

func (t *MockTx) CreateIssueLabel(ctx context.Context, issueLabel *IssueLabel) error {
	if issueLabel.ID == "" {
		issueLabel.ID = uuid.NewString()
	}
	t.CreatedIssueLabels = append(t.CreatedIssueLabels, issueLabel)
	return nil
}

func (t *MockTx) IssueExistsByProviderID(ctx context.Context, providerIssueID string) (bool, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	return t.store.ExistingIssues[providerIssueID], nil
}

func (t *MockTx) CreateIssue(ctx context.Context, issue *Issue) error {
	if t.CreateIssueError != nil {
		return t.CreateIssueError
	}
	if issue.ID == "" {
		issue.ID = uuid.NewString()
	}
	t.CreatedIssues = append(t.CreatedIssues, issue)
	return nil
}

func (t *MockTx) CreateIssueChangeLog(ctx context.Context, entry *IssueChangeLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	t.CreatedChangeLogs = append(t.CreatedChangeLogs, entry)
	return nil
}

func (t *MockTx) CreateBlockerStatusModification(ctx context.Context, entry *BlockerStatusModification) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	t.CreatedBlockerMods = append(t.CreatedBlockerMods, entry)
	return nil
}

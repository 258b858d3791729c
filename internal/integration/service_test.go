package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apexboard/linear-integration/pkg/adapter"
	"github.com/apexboard/linear-integration/pkg/audit"
	"github.com/apexboard/linear-integration/pkg/canonical"
	"github.com/apexboard/linear-integration/pkg/secrets"
	"github.com/apexboard/linear-integration/pkg/snapshot"
	"github.com/apexboard/linear-integration/pkg/store"
)

const testPassphrase = "a-long-test-passphrase"

func ptr(s string) *string { return &s }

type serviceFixture struct {
	store     *store.MockStore
	adapter   *adapter.MockAdapter
	service   *Service
	requester *store.User
	encrypted string
	decryptor *secrets.Decryptor
}

func newFixture(t *testing.T, opts ...Option) *serviceFixture {
	t.Helper()

	decryptor, err := secrets.NewDecryptor(testPassphrase)
	require.NoError(t, err)
	encrypted, err := decryptor.Encrypt("lin_api_test")
	require.NoError(t, err)

	st := store.NewMockStore()
	requester := &store.User{Name: "Ada Manager", Email: "ada@example.com"}
	st.AddUser(requester)

	ad := adapter.NewMockAdapter()
	svc := NewService(st, ad, decryptor, encrypted, logr.Discard(), opts...)

	return &serviceFixture{
		store:     st,
		adapter:   ad,
		service:   svc,
		requester: requester,
		encrypted: encrypted,
		decryptor: decryptor,
	}
}

func sampleProjectData() *canonical.ProjectData {
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return &canonical.ProjectData{
		ProviderProjectID: "team-1",
		Name:              "Product",
		Members: []canonical.ProjectMember{
			{ProviderMemberID: "u-1", Name: "Ada Manager", Email: "ada@example.com"},
			{ProviderMemberID: "u-2", Name: "Newcomer", Email: "new@example.com"},
		},
		Stages: []canonical.Stage{
			{Name: "Todo", Category: canonical.StageUnstarted},
			{Name: "Done", Category: canonical.StageCompleted},
		},
		Labels: []string{"bug"},
		Issues: []canonical.IssueData{
			{
				ProviderIssueID:   "issue-1",
				ProviderProjectID: "team-1",
				Identifier:        "PRO-1",
				Title:             "First issue",
				AuthorEmail:       ptr("ada@example.com"),
				AssigneeEmail:     ptr("ghost@example.com"),
				Priority:          canonical.PriorityHigh,
				StageName:         ptr("Todo"),
				Labels:            []string{"bug", "urgent"},
				Events: []canonical.Event{
					canonical.BlockEvent{
						EventBase: canonical.EventBase{ProviderIssueID: "issue-1", CreatedAt: created},
						Relation:  canonical.BlockBlockedBy,
						Reason:    "Block by other ticket",
						Comment:   "Blocked by PRO-2",
					},
					canonical.ChangeScalarEvent{
						EventBase: canonical.EventBase{ProviderEventID: ptr("h-1"), ProviderIssueID: "issue-1", EmitterEmail: ptr("ada@example.com"), CreatedAt: created},
						Field:     canonical.FieldState,
						From:      ptr("Todo"),
						To:        ptr("Done"),
					},
				},
			},
			{
				ProviderIssueID:   "issue-2",
				ProviderProjectID: "team-1",
				Identifier:        "PRO-2",
				Title:             "Second issue",
			},
		},
	}
}

func TestIntegrateProjectCommitsFullPayload(t *testing.T) {
	f := newFixture(t)
	f.adapter.ProjectData = sampleProjectData()

	dto, err := f.service.IntegrateProject(context.Background(), IntegrateRequest{
		ProviderProjectID: "team-1",
		RequestingUserID:  f.requester.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, dto)
	assert.Equal(t, "team-1", dto.ProviderProjectID)
	assert.Equal(t, "Product", dto.Name)
	assert.NotEmpty(t, dto.ID)

	tx := f.store.LastTx
	require.NotNil(t, tx)
	assert.True(t, tx.Committed)
	assert.False(t, tx.RolledBack)

	require.Len(t, tx.CreatedProjects, 1)
	assert.Equal(t, dto.ID, tx.CreatedProjects[0].ID)

	// Known member gets a role, unknown one becomes pending.
	require.Len(t, tx.CreatedRoles, 1)
	assert.Equal(t, f.requester.ID, tx.CreatedRoles[0].UserID)
	assert.Equal(t, f.requester.ID, tx.CreatedRoles[0].EmitterID)
	require.Len(t, tx.CreatedPendingUsers, 1)
	assert.Equal(t, "new@example.com", tx.CreatedPendingUsers[0].Email)
	assert.Equal(t, dto.ID, tx.CreatedPendingUsers[0].ProjectID)

	require.Len(t, tx.CreatedStages, 2)
	require.Len(t, tx.CreatedProjectStages, 2)
	assert.Equal(t, string(canonical.StageUnstarted), tx.CreatedProjectStages[0].Category)

	require.Len(t, tx.CreatedIssues, 2)
	first := tx.CreatedIssues[0]
	assert.Equal(t, "PRO-1", first.Identifier)
	assert.Equal(t, int(canonical.PriorityHigh), first.Priority)
	require.NotNil(t, first.AuthorID)
	assert.Equal(t, f.requester.ID, *first.AuthorID)
	// Assignee email has no local account: degrades to NULL.
	assert.Nil(t, first.AssigneeID)
	require.NotNil(t, first.ProjectStageID)
	assert.Equal(t, tx.CreatedProjectStages[0].ID, *first.ProjectStageID)

	// "urgent" was not a project label; it is created on demand.
	assert.Len(t, tx.CreatedLabels, 2)
	assert.Len(t, tx.CreatedIssueLabels, 2)
}

func TestIntegrateProjectPersistsEventsInOrder(t *testing.T) {
	f := newFixture(t)
	f.adapter.ProjectData = sampleProjectData()

	_, err := f.service.IntegrateProject(context.Background(), IntegrateRequest{
		ProviderProjectID: "team-1",
		RequestingUserID:  f.requester.ID,
	})
	require.NoError(t, err)

	tx := f.store.LastTx
	require.Len(t, tx.CreatedBlockerMods, 1)
	require.Len(t, tx.CreatedChangeLogs, 1)

	block := tx.CreatedBlockerMods[0]
	assert.Equal(t, string(canonical.BlockBlockedBy), block.BlockType)
	assert.Equal(t, "Block by other ticket", block.Reason)
	assert.Equal(t, "Blocked by PRO-2", block.Comment)
	assert.Equal(t, 0, block.Seq)

	change := tx.CreatedChangeLogs[0]
	assert.Equal(t, string(canonical.FieldState), change.Field)
	assert.Equal(t, "Done", *change.ToValue)
	assert.Equal(t, 1, change.Seq)
	assert.Equal(t, block.IssueID, change.IssueID)
}

func TestIntegrateProjectUnknownUser(t *testing.T) {
	f := newFixture(t)
	f.adapter.ProjectData = sampleProjectData()

	_, err := f.service.IntegrateProject(context.Background(), IntegrateRequest{
		ProviderProjectID: "team-1",
		RequestingUserID:  "missing",
	})
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, 0, f.adapter.AdaptProjectDataCallCount)
	assert.Equal(t, 0, f.store.BeginCallCount)
}

func TestIntegrateProjectAlreadyIntegrated(t *testing.T) {
	f := newFixture(t)
	f.adapter.ProjectData = sampleProjectData()
	f.store.Projects["team-1"] = &store.Project{ID: "p-1", ProviderProjectID: "team-1"}

	_, err := f.service.IntegrateProject(context.Background(), IntegrateRequest{
		ProviderProjectID: "team-1",
		RequestingUserID:  f.requester.ID,
	})
	require.Error(t, err)
	assert.True(t, IsConflict(err))
	assert.Equal(t, 0, f.adapter.AdaptProjectDataCallCount)
	assert.Equal(t, 0, f.store.BeginCallCount)
}

func TestIntegrateProjectSoftDeletedConflict(t *testing.T) {
	f := newFixture(t)
	deleted := time.Now()
	f.store.Projects["team-1"] = &store.Project{ID: "p-1", ProviderProjectID: "team-1", DeletedAt: &deleted}

	_, err := f.service.IntegrateProject(context.Background(), IntegrateRequest{
		ProviderProjectID: "team-1",
		RequestingUserID:  f.requester.ID,
	})
	require.Error(t, err)
	assert.True(t, IsConflict(err))
	assert.Contains(t, err.Error(), "reactivate")
}

func TestIntegrateProjectManagerNotMember(t *testing.T) {
	f := newFixture(t)
	f.adapter.Error = adapter.ErrManagerNotMember

	_, err := f.service.IntegrateProject(context.Background(), IntegrateRequest{
		ProviderProjectID: "team-1",
		RequestingUserID:  f.requester.ID,
	})
	require.Error(t, err)
	assert.True(t, IsConflict(err))
	assert.Equal(t, 0, f.store.BeginCallCount)
}

func TestIntegrateProjectProviderFailureWritesNothing(t *testing.T) {
	f := newFixture(t)
	f.adapter.Error = &adapter.ProviderError{Message: "linear returned 500"}

	_, err := f.service.IntegrateProject(context.Background(), IntegrateRequest{
		ProviderProjectID: "team-1",
		RequestingUserID:  f.requester.ID,
	})
	require.Error(t, err)
	assert.True(t, IsProviderFailure(err))
	assert.Equal(t, 0, f.store.BeginCallCount)
}

func TestIntegrateProjectBeginFailure(t *testing.T) {
	f := newFixture(t)
	f.adapter.ProjectData = sampleProjectData()
	f.store.BeginError = errors.New("database is locked")

	_, err := f.service.IntegrateProject(context.Background(), IntegrateRequest{
		ProviderProjectID: "team-1",
		RequestingUserID:  f.requester.ID,
	})
	require.Error(t, err)
	assert.Equal(t, KindInternal, KindOf(err))
}

func TestIntegrateProjectIssueFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	f.adapter.ProjectData = sampleProjectData()
	f.store.TxCreateIssueError = errors.New("disk full")

	_, err := f.service.IntegrateProject(context.Background(), IntegrateRequest{
		ProviderProjectID: "team-1",
		RequestingUserID:  f.requester.ID,
	})
	require.Error(t, err)
	assert.Equal(t, KindInternal, KindOf(err))

	tx := f.store.LastTx
	require.NotNil(t, tx)
	assert.False(t, tx.Committed)
	assert.True(t, tx.RolledBack)
}

func TestMapStorageError(t *testing.T) {
	// The concurrent-duplicate race: validation saw nothing, the
	// insert hits the UNIQUE constraint.
	err := mapStorageError("failed to create project",
		errors.New("constraint failed: UNIQUE constraint failed: projects.provider_project_id"))
	assert.True(t, IsConflict(err))

	err = mapStorageError("failed to create project", errors.New("disk I/O error"))
	assert.Equal(t, KindInternal, KindOf(err))
}

func TestIntegrateProjectSkipsExistingIssues(t *testing.T) {
	f := newFixture(t)
	f.adapter.ProjectData = sampleProjectData()
	f.store.ExistingIssues["issue-1"] = true

	_, err := f.service.IntegrateProject(context.Background(), IntegrateRequest{
		ProviderProjectID: "team-1",
		RequestingUserID:  f.requester.ID,
	})
	require.NoError(t, err)

	tx := f.store.LastTx
	require.Len(t, tx.CreatedIssues, 1)
	assert.Equal(t, "PRO-2", tx.CreatedIssues[0].Identifier)
	// Skipped issue contributes no events either.
	assert.Empty(t, tx.CreatedChangeLogs)
	assert.Empty(t, tx.CreatedBlockerMods)
}

func TestIntegrateProjectForwardsAdaptInput(t *testing.T) {
	f := newFixture(t)
	f.adapter.ProjectData = sampleProjectData()

	_, err := f.service.IntegrateProject(context.Background(), IntegrateRequest{
		ProviderProjectID: "team-1",
		RequestingUserID:  f.requester.ID,
		MemberEmails:      []string{"ada@example.com"},
	})
	require.NoError(t, err)

	input := f.adapter.LastInput
	assert.Equal(t, "team-1", input.ProviderProjectID)
	assert.Equal(t, f.encrypted, input.EncryptedAPIKey)
	assert.Equal(t, "ada@example.com", input.ManagerEmail)
	assert.Equal(t, []string{"ada@example.com"}, input.MemberEmails)
}

func TestIntegrateProjectWritesAuditTrail(t *testing.T) {
	writer := snapshot.NewMockWriter()
	trail := audit.NewMockTrail()
	f := newFixture(t, WithAuditTrail(writer, trail, "/tmp/snapshots"))
	f.adapter.ProjectData = sampleProjectData()

	_, err := f.service.IntegrateProject(context.Background(), IntegrateRequest{
		ProviderProjectID: "team-1",
		RequestingUserID:  f.requester.ID,
	})
	require.NoError(t, err)

	require.Len(t, writer.Written, 1)
	require.Len(t, trail.Commits, 1)
	assert.Equal(t, "Product", trail.Commits[0].ProjectName)
}

func TestIntegrateProjectAuditFailureDoesNotFailRun(t *testing.T) {
	writer := snapshot.NewMockWriter()
	writer.Error = errors.New("read-only filesystem")
	trail := audit.NewMockTrail()
	f := newFixture(t, WithAuditTrail(writer, trail, "/tmp/snapshots"))
	f.adapter.ProjectData = sampleProjectData()

	dto, err := f.service.IntegrateProject(context.Background(), IntegrateRequest{
		ProviderProjectID: "team-1",
		RequestingUserID:  f.requester.ID,
	})
	require.NoError(t, err)
	assert.NotNil(t, dto)
	assert.Empty(t, trail.Commits)
}

func TestListProviderProjects(t *testing.T) {
	f := newFixture(t)
	f.adapter.Summaries = []canonical.ProjectSummary{
		{ProviderProjectID: "team-1", Name: "Product"},
	}

	summaries, err := f.service.ListProviderProjects(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "Product", summaries[0].Name)
}

func TestListProjectMembersProviderFailure(t *testing.T) {
	f := newFixture(t)
	f.adapter.Error = &adapter.ProviderError{Message: "unauthorized"}

	_, err := f.service.ListProjectMembers(context.Background(), "team-1")
	require.Error(t, err)
	assert.True(t, IsProviderFailure(err))
}

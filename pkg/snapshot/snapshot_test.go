package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/apexboard/linear-integration/pkg/canonical"
)

func TestWriteProjectSnapshot(t *testing.T) {
	base := t.TempDir()
	stage := "In Progress"

	data := &canonical.ProjectData{
		ProviderProjectID: "team-1",
		Name:              "Platform",
		Members: []canonical.ProjectMember{
			{ProviderMemberID: "m1", Name: "Alice", Email: "alice@acme.test"},
		},
		Stages: []canonical.Stage{
			{Name: "Backlog", Category: canonical.StageBacklog},
		},
		Labels: []string{"bug"},
		Issues: []canonical.IssueData{
			{
				ProviderIssueID: "issue-1",
				Identifier:      "PLT-1",
				Title:           "Fix login",
				Priority:        canonical.PriorityUrgent,
				StageName:       &stage,
				Events: []canonical.Event{
					canonical.BlockEvent{Relation: canonical.BlockBlockedBy, Comment: "Blocked by PLT-2"},
				},
			},
		},
	}

	path, err := NewYAMLWriter().WriteProjectSnapshot(data, base)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "projects", "team-1", "project.yaml"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, yaml.Unmarshal(raw, &doc))
	assert.Equal(t, "team-1", doc["provider_project_id"])

	issues, ok := doc["issues"].([]interface{})
	require.True(t, ok)
	require.Len(t, issues, 1)
	issue := issues[0].(map[string]interface{})
	assert.Equal(t, "URGENT", issue["priority"])
	assert.Equal(t, 1, issue["event_count"])
}

func TestWriteProjectSnapshotInvalidInput(t *testing.T) {
	w := NewYAMLWriter()

	_, err := w.WriteProjectSnapshot(nil, t.TempDir())
	require.Error(t, err)
	serr, ok := err.(*SnapshotError)
	require.True(t, ok)
	assert.Equal(t, "invalid_input", serr.Type)

	_, err = w.WriteProjectSnapshot(&canonical.ProjectData{}, t.TempDir())
	assert.Error(t, err, "missing provider project id must be rejected")

	_, err = w.WriteProjectSnapshot(&canonical.ProjectData{ProviderProjectID: "team-1"}, "")
	assert.Error(t, err, "empty base path must be rejected")
}

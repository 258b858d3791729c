package audit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeIsIdempotent(t *testing.T) {
	repoPath := t.TempDir()
	trail := NewGitTrail("Audit Bot", "audit@acme.test")

	require.NoError(t, trail.Initialize(repoPath))
	require.NoError(t, trail.Initialize(repoPath), "initializing an existing repository is a no-op")

	_, err := git.PlainOpen(repoPath)
	assert.NoError(t, err)
}

func TestInitializeEmptyPath(t *testing.T) {
	trail := NewGitTrail("Audit Bot", "audit@acme.test")
	err := trail.Initialize("")
	require.Error(t, err)
	aerr, ok := err.(*AuditError)
	require.True(t, ok)
	assert.Equal(t, "invalid_input", aerr.Type)
}

func TestCommitSnapshot(t *testing.T) {
	repoPath := t.TempDir()
	trail := NewGitTrail("Audit Bot", "audit@acme.test")
	require.NoError(t, trail.Initialize(repoPath))

	snapDir := filepath.Join(repoPath, "projects", "team-1")
	require.NoError(t, os.MkdirAll(snapDir, 0755))
	snapPath := filepath.Join(snapDir, "project.yaml")
	require.NoError(t, os.WriteFile(snapPath, []byte("name: Platform\n"), 0644))

	require.NoError(t, trail.CommitSnapshot(repoPath, snapPath, "Platform", "team-1"))

	repo, err := git.PlainOpen(repoPath)
	require.NoError(t, err)
	head, err := repo.Head()
	require.NoError(t, err)
	commit, err := repo.CommitObject(head.Hash())
	require.NoError(t, err)
	assert.Equal(t, "integrate: Platform (team-1)", commit.Message)
	assert.Equal(t, "Audit Bot", commit.Author.Name)
}

func TestCommitSnapshotOutsideRepo(t *testing.T) {
	repoPath := t.TempDir()
	trail := NewGitTrail("Audit Bot", "audit@acme.test")
	require.NoError(t, trail.Initialize(repoPath))

	outside := filepath.Join(t.TempDir(), "project.yaml")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0644))

	err := trail.CommitSnapshot(repoPath, outside, "Platform", "team-1")
	assert.Error(t, err, "files outside the audit repository must be rejected")
}

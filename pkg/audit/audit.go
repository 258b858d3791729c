// Package audit keeps a git-backed trail of integration snapshots.
// Every committed integration adds one commit to a local repository so
// the imported payloads stay reviewable over time.
package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Trail defines the interface for audit trail operations.
// This enables dependency injection and testing with mock implementations.
type Trail interface {
	// Initialize creates the audit repository if one doesn't exist.
	Initialize(repoPath string) error

	// CommitSnapshot stages and commits a snapshot file with a
	// conventional commit message naming the integrated project.
	CommitSnapshot(repoPath, filePath, projectName, providerProjectID string) error
}

// GitTrail implements Trail using the go-git library.
type GitTrail struct {
	// Author information for commits
	AuthorName  string
	AuthorEmail string
}

// NewGitTrail creates a new audit trail manager.
func NewGitTrail(authorName, authorEmail string) Trail {
	return &GitTrail{
		AuthorName:  authorName,
		AuthorEmail: authorEmail,
	}
}

// Initialize creates the audit repository if one doesn't exist.
func (g *GitTrail) Initialize(repoPath string) error {
	if repoPath == "" {
		return &AuditError{
			Type:    "invalid_input",
			Message: "repository path cannot be empty",
		}
	}

	if _, err := git.PlainOpen(repoPath); err == nil {
		return nil // Already initialized, nothing to do
	}

	if err := os.MkdirAll(repoPath, 0755); err != nil {
		return &AuditError{
			Type:    "filesystem_error",
			Message: fmt.Sprintf("failed to create directory: %s", repoPath),
			Err:     err,
		}
	}

	if _, err := git.PlainInit(repoPath, false); err != nil {
		return &AuditError{
			Type:    "git_operation_error",
			Message: "failed to initialize audit repository",
			Err:     err,
		}
	}
	return nil
}

// CommitSnapshot stages and commits one snapshot file.
func (g *GitTrail) CommitSnapshot(repoPath, filePath, projectName, providerProjectID string) error {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return &AuditError{
			Type:    "git_operation_error",
			Message: fmt.Sprintf("failed to open audit repository: %s", repoPath),
			Err:     err,
		}
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return &AuditError{
			Type:    "git_operation_error",
			Message: "failed to get worktree",
			Err:     err,
		}
	}

	relPath, err := filepath.Rel(repoPath, filePath)
	if err != nil || strings.HasPrefix(relPath, "..") {
		return &AuditError{
			Type:    "invalid_input",
			Message: fmt.Sprintf("snapshot file %s is outside the audit repository", filePath),
			Err:     err,
		}
	}

	if _, err := worktree.Add(relPath); err != nil {
		return &AuditError{
			Type:    "git_operation_error",
			Message: fmt.Sprintf("failed to stage snapshot: %s", relPath),
			Err:     err,
		}
	}

	message := fmt.Sprintf("integrate: %s (%s)", projectName, providerProjectID)
	_, err = worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  g.AuthorName,
			Email: g.AuthorEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return &AuditError{
			Type:    "git_operation_error",
			Message: "failed to commit snapshot",
			Err:     err,
		}
	}
	return nil
}

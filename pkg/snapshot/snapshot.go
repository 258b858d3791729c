// Package snapshot writes canonical project payloads to YAML files for
// audit and dry-run inspection. Snapshots are a side channel: they never
// participate in or fail an integration transaction.
package snapshot

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/apexboard/linear-integration/pkg/canonical"
)

// Writer defines the interface for snapshot writing operations.
// This enables dependency injection and testing with mock implementations.
type Writer interface {
	// WriteProjectSnapshot writes one project payload and returns the
	// file path. Directory structure: projects/{provider-id}/project.yaml.
	WriteProjectSnapshot(data *canonical.ProjectData, basePath string) (string, error)
}

// YAMLWriter implements Writer for YAML snapshot files.
type YAMLWriter struct{}

// NewYAMLWriter creates a new YAML snapshot writer.
func NewYAMLWriter() Writer {
	return &YAMLWriter{}
}

// snapshotIssue is the flattened issue form written to snapshots. Event
// payloads are summarized by count; full history lives in the store.
type snapshotIssue struct {
	ProviderIssueID string   `yaml:"provider_issue_id"`
	Identifier      string   `yaml:"identifier"`
	Title           string   `yaml:"title"`
	Priority        string   `yaml:"priority"`
	StageName       *string  `yaml:"stage_name,omitempty"`
	Labels          []string `yaml:"labels,omitempty"`
	EventCount      int      `yaml:"event_count"`
}

type snapshotDoc struct {
	ProviderProjectID string                    `yaml:"provider_project_id"`
	Name              string                    `yaml:"name"`
	LogoURL           string                    `yaml:"logo_url,omitempty"`
	Members           []canonical.ProjectMember `yaml:"members"`
	Stages            []canonical.Stage         `yaml:"stages"`
	Labels            []string                  `yaml:"labels,omitempty"`
	Issues            []snapshotIssue           `yaml:"issues"`
}

// WriteProjectSnapshot writes one project payload to
// {basePath}/projects/{provider-id}/project.yaml.
func (w *YAMLWriter) WriteProjectSnapshot(data *canonical.ProjectData, basePath string) (string, error) {
	if data == nil {
		return "", &SnapshotError{
			Type:    "invalid_input",
			Message: "project data cannot be nil",
		}
	}
	if data.ProviderProjectID == "" {
		return "", &SnapshotError{
			Type:    "invalid_input",
			Message: "provider project id cannot be empty",
		}
	}
	if basePath == "" {
		return "", &SnapshotError{
			Type:    "invalid_input",
			Message: "base path cannot be empty",
		}
	}

	dir := filepath.Join(basePath, "projects", data.ProviderProjectID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", &SnapshotError{
			Type:    "file_error",
			Message: fmt.Sprintf("failed to create directory: %s", dir),
			Err:     err,
		}
	}

	doc := snapshotDoc{
		ProviderProjectID: data.ProviderProjectID,
		Name:              data.Name,
		LogoURL:           data.LogoURL,
		Members:           data.Members,
		Stages:            data.Stages,
		Labels:            data.Labels,
		Issues:            make([]snapshotIssue, 0, len(data.Issues)),
	}
	for _, issue := range data.Issues {
		doc.Issues = append(doc.Issues, snapshotIssue{
			ProviderIssueID: issue.ProviderIssueID,
			Identifier:      issue.Identifier,
			Title:           issue.Title,
			Priority:        issue.Priority.String(),
			StageName:       issue.StageName,
			Labels:          issue.Labels,
			EventCount:      len(issue.Events),
		})
	}

	yamlData, err := yaml.Marshal(&doc)
	if err != nil {
		return "", &SnapshotError{
			Type:    "serialization_error",
			Message: "failed to marshal project snapshot to YAML",
			Err:     err,
		}
	}

	path := filepath.Join(dir, "project.yaml")
	if err := os.WriteFile(path, yamlData, 0644); err != nil {
		return "", &SnapshotError{
			Type:    "file_error",
			Message: fmt.Sprintf("failed to write snapshot file: %s", path),
			Err:     err,
		}
	}

	return path, nil
}

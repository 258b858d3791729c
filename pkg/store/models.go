package store

import "time"

// Row types for the local relational model. IDs are UUID strings
// assigned by the store on create.

// Project is a locally integrated provider project. DeletedAt marks
// soft deletion; a soft-deleted project blocks re-integration until
// reactivated.
type Project struct {
	ID                string     `db:"id"`
	ProviderProjectID string     `db:"provider_project_id"`
	Name              string     `db:"name"`
	LogoURL           string     `db:"logo_url"`
	CreatedAt         time.Time  `db:"created_at"`
	DeletedAt         *time.Time `db:"deleted_at"`
}

// User is a local account. Email is the join key to provider members.
type User struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	CreatedAt time.Time `db:"created_at"`
}

// PendingUser is a provider member known by email but without a local
// account yet, scoped to the project that introduced it.
type PendingUser struct {
	ID        string    `db:"id"`
	ProjectID string    `db:"project_id"`
	Email     string    `db:"email"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}

// UserProjectRole assigns a user a role in a project. EmitterID is the
// user who triggered the assignment (the integrating requester).
type UserProjectRole struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	ProjectID string    `db:"project_id"`
	Role      string    `db:"role"`
	EmitterID string    `db:"emitter_id"`
	CreatedAt time.Time `db:"created_at"`
}

// Stage is a globally deduplicated stage name.
type Stage struct {
	ID   string `db:"id"`
	Name string `db:"name"`
}

// ProjectStage associates a stage with a project and carries the
// canonical category for that project's workflow.
type ProjectStage struct {
	ID        string `db:"id"`
	ProjectID string `db:"project_id"`
	StageID   string `db:"stage_id"`
	Category  string `db:"category"`
}

// Label is a globally deduplicated label name.
type Label struct {
	ID   string `db:"id"`
	Name string `db:"name"`
}

// IssueLabel attaches a label to an issue.
type IssueLabel struct {
	ID      string `db:"id"`
	IssueID string `db:"issue_id"`
	LabelID string `db:"label_id"`
}

// Issue is a locally integrated issue. Author, assignee and stage are
// nullable: unresolved references degrade to NULL rather than failing
// the integration.
type Issue struct {
	ID              string    `db:"id"`
	ProviderIssueID string    `db:"provider_issue_id"`
	ProjectID       string    `db:"project_id"`
	Identifier      string    `db:"identifier"`
	Title           string    `db:"title"`
	Description     string    `db:"description"`
	Priority        int       `db:"priority"`
	StoryPoints     *int      `db:"story_points"`
	ProjectStageID  *string   `db:"project_stage_id"`
	AuthorID        *string   `db:"author_id"`
	AssigneeID      *string   `db:"assignee_id"`
	CreatedAt       time.Time `db:"created_at"`
}

// IssueChangeLog is one scalar change (state or assignee) in an issue's
// history. Seq preserves the normalized event order within the issue.
type IssueChangeLog struct {
	ID              string    `db:"id"`
	IssueID         string    `db:"issue_id"`
	ProviderEventID *string   `db:"provider_event_id"`
	Field           string    `db:"field"`
	FromValue       *string   `db:"from_value"`
	ToValue         *string   `db:"to_value"`
	EmitterEmail    *string   `db:"emitter_email"`
	Seq             int       `db:"seq"`
	CreatedAt       time.Time `db:"created_at"`
}

// BlockerStatusModification is one blocking-relationship change in an
// issue's history. Seq preserves the normalized event order.
type BlockerStatusModification struct {
	ID              string    `db:"id"`
	IssueID         string    `db:"issue_id"`
	ProviderEventID *string   `db:"provider_event_id"`
	BlockType       string    `db:"block_type"`
	Reason          string    `db:"reason"`
	Comment         string    `db:"comment"`
	EmitterEmail    *string   `db:"emitter_email"`
	Seq             int       `db:"seq"`
	CreatedAt       time.Time `db:"created_at"`
}

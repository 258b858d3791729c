package retriever

import "time"

// Raw provider payloads. Field names follow the Linear GraphQL schema;
// the adapter owns all mapping into the canonical model.

// Organization is the workspace the credential belongs to.
type Organization struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	LogoURL string `json:"logoUrl"`
}

// Team is a Linear team; integrated 1:1 as a local project.
type Team struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Key  string `json:"key"`
}

// Member is a team member.
type Member struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

// WorkflowState is a team workflow stage. Type is the provider's
// category keyword (backlog, unstarted, started, completed, canceled).
type WorkflowState struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Label is an issue label scoped to a team.
type Label struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Issue is one raw provider issue. Priority is the provider's numeric
// code (1 urgent .. 4 low, 0/absent none). Estimate is story points.
type Issue struct {
	ID          string         `json:"id"`
	Identifier  string         `json:"identifier"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Priority    int            `json:"priority"`
	Estimate    *int           `json:"estimate"`
	TeamID      string         `json:"teamId"`
	State       *WorkflowState `json:"state"`
	Creator     *Member        `json:"creator"`
	Assignee    *Member        `json:"assignee"`
	Labels      []Label        `json:"labels"`
}

// RelationChange is one relation mutation inside a history entry.
// Identifier is the 2-character change code: the first character is the
// action ('a' added, 'r' removed), the second the relation kind
// ('b' blocked-by, 'x' blocking-to, anything else a non-blocking link).
type RelationChange struct {
	Identifier      string `json:"identifier"`
	IssueIdentifier string `json:"relatedIssueIdentifier"`
}

// HistoryEntry is one entry of an issue's ordered change log. Any of
// the transition id pairs and the actor may be absent.
type HistoryEntry struct {
	ID              string           `json:"id"`
	CreatedAt       time.Time        `json:"createdAt"`
	Actor           *Member          `json:"actor"`
	FromStateID     *string          `json:"fromStateId"`
	ToStateID       *string          `json:"toStateId"`
	FromAssigneeID  *string          `json:"fromAssigneeId"`
	ToAssigneeID    *string          `json:"toAssigneeId"`
	RelationChanges []RelationChange `json:"relationChanges"`
}

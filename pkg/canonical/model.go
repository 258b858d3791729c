// Package canonical defines the provider-agnostic data model produced by
// provider adapters and consumed by the integration service. Values are
// write-once transfer objects: adapters build them fresh per integration
// run and the service translates them into storage rows inside a single
// transaction.
package canonical

// StageCategory classifies a workflow stage independent of its
// provider-specific name.
type StageCategory string

const (
	StageBacklog   StageCategory = "BACKLOG"
	StageUnstarted StageCategory = "UNSTARTED"
	StageStarted   StageCategory = "STARTED"
	StageCompleted StageCategory = "COMPLETED"
	StageCanceled  StageCategory = "CANCELED"
	StageOther     StageCategory = "OTHER"
)

// Priority is the canonical issue priority, ordered by code:
// NO_PRIORITY(0) < LOW(1) < MEDIUM(2) < HIGH(3) < URGENT(4).
type Priority int

const (
	PriorityNone   Priority = 0
	PriorityLow    Priority = 1
	PriorityMedium Priority = 2
	PriorityHigh   Priority = 3
	PriorityUrgent Priority = 4
)

func (p Priority) String() string {
	switch p {
	case PriorityUrgent:
		return "URGENT"
	case PriorityHigh:
		return "HIGH_PRIORITY"
	case PriorityMedium:
		return "MEDIUM_PRIORITY"
	case PriorityLow:
		return "LOW_PRIORITY"
	default:
		return "NO_PRIORITY"
	}
}

// ProjectSummary is the cheap pre-integration view of a provider project.
type ProjectSummary struct {
	ProviderProjectID string `json:"provider_project_id" yaml:"provider_project_id"`
	Name              string `json:"name" yaml:"name"`
	LogoURL           string `json:"logo_url,omitempty" yaml:"logo_url,omitempty"`
}

// ProjectMember is a provider-side member of a project. Email is the
// cross-system join key to local user accounts.
type ProjectMember struct {
	ProviderMemberID string `json:"provider_member_id" yaml:"provider_member_id"`
	Name             string `json:"name" yaml:"name"`
	Email            string `json:"email" yaml:"email"`
}

// Stage is a workflow stage with its canonical category. Name is unique
// within a project.
type Stage struct {
	Name     string        `json:"name" yaml:"name"`
	Category StageCategory `json:"category" yaml:"category"`
}

// IssueData is one provider issue with its fully normalized history.
// Events are ordered oldest first and must stay that way through storage.
type IssueData struct {
	ProviderIssueID   string   `json:"provider_issue_id" yaml:"provider_issue_id"`
	ProviderProjectID string   `json:"provider_project_id" yaml:"provider_project_id"`
	Identifier        string   `json:"identifier" yaml:"identifier"`
	Title             string   `json:"title" yaml:"title"`
	Description       string   `json:"description,omitempty" yaml:"description,omitempty"`
	AuthorEmail       *string  `json:"author_email,omitempty" yaml:"author_email,omitempty"`
	AssigneeEmail     *string  `json:"assignee_email,omitempty" yaml:"assignee_email,omitempty"`
	Priority          Priority `json:"priority" yaml:"priority"`
	StoryPoints       *int     `json:"story_points,omitempty" yaml:"story_points,omitempty"`
	StageName         *string  `json:"stage_name,omitempty" yaml:"stage_name,omitempty"`
	Labels            []string `json:"labels,omitempty" yaml:"labels,omitempty"`
	Events            []Event  `json:"-" yaml:"-"`
}

// ProjectData is the full canonical payload for one provider project.
type ProjectData struct {
	ProviderProjectID string          `json:"provider_project_id" yaml:"provider_project_id"`
	Name              string          `json:"name" yaml:"name"`
	LogoURL           string          `json:"logo_url,omitempty" yaml:"logo_url,omitempty"`
	Members           []ProjectMember `json:"members" yaml:"members"`
	Stages            []Stage         `json:"stages" yaml:"stages"`
	Labels            []string        `json:"labels,omitempty" yaml:"labels,omitempty"`
	Issues            []IssueData     `json:"issues" yaml:"issues"`
}

// MemberByEmail returns the member with the given email, if present.
func (p *ProjectData) MemberByEmail(email string) (ProjectMember, bool) {
	for _, m := range p.Members {
		if m.Email == email {
			return m, true
		}
	}
	return ProjectMember{}, false
}

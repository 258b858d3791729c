// Package adapter converts provider payloads into the canonical model.
// It orchestrates the retriever and the event normalizer, and owns the
// provider-specific enumeration mappings (priority, stage category).
package adapter

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/apexboard/linear-integration/pkg/canonical"
	"github.com/apexboard/linear-integration/pkg/events"
	"github.com/apexboard/linear-integration/pkg/retriever"
	"github.com/apexboard/linear-integration/pkg/secrets"
)

// AdaptInput carries everything needed to assemble a full ProjectData.
// The API key arrives encrypted and is decrypted before the retriever
// is configured. MemberEmails is an allow-list; empty means all members.
type AdaptInput struct {
	ProviderProjectID string
	EncryptedAPIKey   string
	ManagerEmail      string
	MemberEmails      []string
}

// Adapter defines the provider adaptation contract. One implementation
// exists per provider, selected by configuration.
type Adapter interface {
	// GetAndAdaptProjects lists all provider projects visible to the
	// credential as cheap pre-integration summaries.
	GetAndAdaptProjects(ctx context.Context, apiKey string) ([]canonical.ProjectSummary, error)

	// GetMembersByProjectID fetches and maps the members of one project.
	GetMembersByProjectID(ctx context.Context, providerProjectID, apiKey string) ([]canonical.ProjectMember, error)

	// AdaptAllProjectIssuesData fetches all issues of a project and
	// normalizes each issue's history into canonical events.
	AdaptAllProjectIssuesData(ctx context.Context, providerProjectID string) ([]canonical.IssueData, error)

	// AdaptProjectData assembles the full canonical payload for one
	// project: members, stages, labels, logo and issues with events.
	AdaptProjectData(ctx context.Context, input AdaptInput) (*canonical.ProjectData, error)
}

// LinearAdapter implements Adapter for the Linear provider.
type LinearAdapter struct {
	retriever retriever.Retriever
	decryptor *secrets.Decryptor
	logger    logr.Logger
}

// NewLinearAdapter creates a Linear adapter around the given retriever.
// The decryptor opens encrypted API keys handed to AdaptProjectData.
func NewLinearAdapter(r retriever.Retriever, decryptor *secrets.Decryptor, logger logr.Logger) *LinearAdapter {
	return &LinearAdapter{
		retriever: r,
		decryptor: decryptor,
		logger:    logger.WithName("adapter"),
	}
}

// GetAndAdaptProjects lists provider teams as project summaries.
func (a *LinearAdapter) GetAndAdaptProjects(ctx context.Context, apiKey string) ([]canonical.ProjectSummary, error) {
	a.retriever.ConfigureCredential(apiKey)

	teams, err := a.retriever.GetTeams(ctx)
	if err != nil {
		return nil, wrapProvider(err)
	}

	org, err := a.retriever.GetOrganization(ctx)
	if err != nil {
		return nil, wrapProvider(err)
	}

	summaries := make([]canonical.ProjectSummary, 0, len(teams))
	for _, team := range teams {
		summaries = append(summaries, canonical.ProjectSummary{
			ProviderProjectID: team.ID,
			Name:              team.Name,
			LogoURL:           org.LogoURL,
		})
	}
	return summaries, nil
}

// GetMembersByProjectID fetches and maps the members of one project.
func (a *LinearAdapter) GetMembersByProjectID(ctx context.Context, providerProjectID, apiKey string) ([]canonical.ProjectMember, error) {
	a.retriever.ConfigureCredential(apiKey)

	raw, err := a.retriever.GetMembers(ctx, providerProjectID)
	if err != nil {
		return nil, wrapProvider(err)
	}

	members := make([]canonical.ProjectMember, 0, len(raw))
	for _, m := range raw {
		members = append(members, adaptMember(m))
	}
	return members, nil
}

// AdaptAllProjectIssuesData fetches every issue of a project plus its
// history and produces canonical issue data. The stage and member
// lookup tables are fetched once per project, not once per issue.
func (a *LinearAdapter) AdaptAllProjectIssuesData(ctx context.Context, providerProjectID string) ([]canonical.IssueData, error) {
	stages, err := a.retriever.GetStages(ctx, providerProjectID)
	if err != nil {
		return nil, wrapProvider(err)
	}
	members, err := a.retriever.GetMembers(ctx, providerProjectID)
	if err != nil {
		return nil, wrapProvider(err)
	}

	stagesByID := make(map[string]string, len(stages))
	for _, s := range stages {
		stagesByID[s.ID] = s.Name
	}
	membersByID := make(map[string]string, len(members))
	for _, m := range members {
		membersByID[m.ID] = memberName(m)
	}

	raw, err := a.retriever.GetIssues(ctx, providerProjectID)
	if err != nil {
		return nil, wrapProvider(err)
	}

	issues := make([]canonical.IssueData, 0, len(raw))
	for _, issue := range raw {
		history, err := a.retriever.GetIssueHistory(ctx, issue.ID)
		if err != nil {
			return nil, wrapProvider(err)
		}

		start := time.Now()
		issueEvents := events.Normalize(issue.ID, history, stagesByID, membersByID)
		a.logger.V(1).Info("normalized issue history",
			"issue", issue.Identifier,
			"entries", len(history),
			"events", len(issueEvents),
			"duration", time.Since(start))

		issues = append(issues, adaptIssue(issue, providerProjectID, issueEvents))
	}

	return issues, nil
}

// AdaptProjectData assembles the full canonical payload for one project.
func (a *LinearAdapter) AdaptProjectData(ctx context.Context, input AdaptInput) (*canonical.ProjectData, error) {
	apiKey, err := a.decryptor.Decrypt(input.EncryptedAPIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt provider credential: %w", err)
	}
	a.retriever.ConfigureCredential(apiKey)

	team, err := a.retriever.GetTeam(ctx, input.ProviderProjectID)
	if err != nil {
		return nil, wrapProvider(err)
	}

	rawMembers, err := a.retriever.GetMembers(ctx, input.ProviderProjectID)
	if err != nil {
		return nil, wrapProvider(err)
	}
	members := filterMembers(rawMembers, input.MemberEmails)

	if _, ok := memberWithEmail(members, input.ManagerEmail); !ok {
		return nil, ErrManagerNotMember
	}

	rawStages, err := a.retriever.GetStages(ctx, input.ProviderProjectID)
	if err != nil {
		return nil, wrapProvider(err)
	}
	stages := make([]canonical.Stage, 0, len(rawStages))
	for _, s := range rawStages {
		stages = append(stages, canonical.Stage{
			Name:     s.Name,
			Category: mapStageCategory(s.Type),
		})
	}

	rawLabels, err := a.retriever.GetLabels(ctx, input.ProviderProjectID)
	if err != nil {
		return nil, wrapProvider(err)
	}
	labels := make([]string, 0, len(rawLabels))
	for _, l := range rawLabels {
		labels = append(labels, l.Name)
	}

	org, err := a.retriever.GetOrganization(ctx)
	if err != nil {
		return nil, wrapProvider(err)
	}

	issues, err := a.AdaptAllProjectIssuesData(ctx, input.ProviderProjectID)
	if err != nil {
		return nil, err
	}

	return &canonical.ProjectData{
		ProviderProjectID: team.ID,
		Name:              team.Name,
		LogoURL:           org.LogoURL,
		Members:           members,
		Stages:            stages,
		Labels:            labels,
		Issues:            issues,
	}, nil
}

// mapPriority maps the provider's numeric priority code to the
// canonical enumeration. Unknown or absent codes map to NO_PRIORITY.
func mapPriority(code int) canonical.Priority {
	switch code {
	case 1:
		return canonical.PriorityUrgent
	case 2:
		return canonical.PriorityHigh
	case 3:
		return canonical.PriorityMedium
	case 4:
		return canonical.PriorityLow
	default:
		return canonical.PriorityNone
	}
}

// mapStageCategory projects the provider's workflow state kind onto the
// closed canonical category set.
func mapStageCategory(kind string) canonical.StageCategory {
	switch kind {
	case "backlog":
		return canonical.StageBacklog
	case "unstarted":
		return canonical.StageUnstarted
	case "started":
		return canonical.StageStarted
	case "completed":
		return canonical.StageCompleted
	case "canceled":
		return canonical.StageCanceled
	default:
		return canonical.StageOther
	}
}

func adaptMember(m retriever.Member) canonical.ProjectMember {
	return canonical.ProjectMember{
		ProviderMemberID: m.ID,
		Name:             memberName(m),
		Email:            m.Email,
	}
}

func adaptIssue(issue retriever.Issue, providerProjectID string, issueEvents []canonical.Event) canonical.IssueData {
	data := canonical.IssueData{
		ProviderIssueID:   issue.ID,
		ProviderProjectID: providerProjectID,
		Identifier:        issue.Identifier,
		Title:             issue.Title,
		Description:       issue.Description,
		Priority:          mapPriority(issue.Priority),
		StoryPoints:       issue.Estimate,
		Events:            issueEvents,
	}

	if issue.Creator != nil && issue.Creator.Email != "" {
		email := issue.Creator.Email
		data.AuthorEmail = &email
	}
	if issue.Assignee != nil && issue.Assignee.Email != "" {
		email := issue.Assignee.Email
		data.AssigneeEmail = &email
	}
	if issue.State != nil {
		name := issue.State.Name
		data.StageName = &name
	}
	for _, l := range issue.Labels {
		data.Labels = append(data.Labels, l.Name)
	}

	return data
}

// filterMembers applies the member email allow-list; an empty list
// keeps everyone.
func filterMembers(raw []retriever.Member, allowed []string) []canonical.ProjectMember {
	allowedSet := make(map[string]bool, len(allowed))
	for _, email := range allowed {
		allowedSet[email] = true
	}

	members := make([]canonical.ProjectMember, 0, len(raw))
	for _, m := range raw {
		if len(allowedSet) > 0 && !allowedSet[m.Email] {
			continue
		}
		members = append(members, adaptMember(m))
	}
	return members
}

func memberWithEmail(members []canonical.ProjectMember, email string) (canonical.ProjectMember, bool) {
	for _, m := range members {
		if m.Email == email {
			return m, true
		}
	}
	return canonical.ProjectMember{}, false
}

func memberName(m retriever.Member) string {
	if m.Name != "" {
		return m.Name
	}
	return m.DisplayName
}

// wrapProvider dresses any retriever failure as the single provider
// integration error, carrying the provider's message and payload.
func wrapProvider(err error) error {
	if rerr, ok := err.(*retriever.RetrieverError); ok {
		return &ProviderError{
			Message: rerr.Message,
			Body:    rerr.Body,
			Err:     rerr,
		}
	}
	return &ProviderError{
		Message: err.Error(),
		Err:     err,
	}
}

// Package retriever wraps the provider's GraphQL API behind a narrow
// fetch-only interface. It performs no business logic: raw payloads go
// out exactly as the provider returned them, and every failure surfaces
// as a typed RetrieverError.
package retriever

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultEndpoint is the Linear GraphQL endpoint.
const DefaultEndpoint = "https://api.linear.app/graphql"

// issuePageSize bounds one page of the issue listing query.
const issuePageSize = 100

// Retriever defines the provider data-retrieval boundary.
// This enables dependency injection and testing with mock implementations.
type Retriever interface {
	// ConfigureCredential binds the provider API key. Calling it again
	// once a credential is bound is a no-op.
	ConfigureCredential(secret string)

	GetOrganization(ctx context.Context) (*Organization, error)
	GetTeams(ctx context.Context) ([]Team, error)
	GetTeam(ctx context.Context, teamID string) (*Team, error)
	GetMembers(ctx context.Context, teamID string) ([]Member, error)
	GetStages(ctx context.Context, teamID string) ([]WorkflowState, error)
	GetLabels(ctx context.Context, teamID string) ([]Label, error)
	GetIssues(ctx context.Context, teamID string) ([]Issue, error)
	GetIssueHistory(ctx context.Context, issueID string) ([]HistoryEntry, error)
	GetUser(ctx context.Context, userID string) (*Member, error)
}

// LinearRetriever implements Retriever against the Linear GraphQL API.
type LinearRetriever struct {
	endpoint   string
	token      string
	httpClient *http.Client
}

// NewLinearRetriever creates an unconfigured retriever for the given
// endpoint. Pass an empty endpoint to use DefaultEndpoint.
func NewLinearRetriever(endpoint string) *LinearRetriever {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &LinearRetriever{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ConfigureCredential binds the API key. The first bound credential
// wins; later calls are ignored so a key is never replaced mid-flow.
func (r *LinearRetriever) ConfigureCredential(secret string) {
	if r.token != "" {
		return
	}
	r.token = secret
}

// gqlError is one entry of a GraphQL error response.
type gqlError struct {
	Message string `json:"message"`
}

// gqlResponse is the GraphQL response envelope.
type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlError      `json:"errors"`
}

// query executes one GraphQL request and unmarshals the data payload
// into result.
func (r *LinearRetriever) query(ctx context.Context, query string, variables map[string]interface{}, result interface{}) error {
	if r.token == "" {
		return &RetrieverError{
			Type:    "not_configured",
			Message: "no provider credential configured",
		}
	}

	payload, err := json.Marshal(map[string]interface{}{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return &RetrieverError{
			Type:    "request_error",
			Message: "failed to marshal GraphQL request",
			Err:     err,
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(payload))
	if err != nil {
		return &RetrieverError{
			Type:    "request_error",
			Message: "failed to build GraphQL request",
			Err:     err,
		}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", r.token)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return &RetrieverError{
			Type:    "transport_error",
			Message: fmt.Sprintf("provider request failed: %v", err),
			Err:     err,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &RetrieverError{
			Type:    "transport_error",
			Message: "failed to read provider response",
			Err:     err,
		}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &RetrieverError{
			Type:    "auth_error",
			Message: fmt.Sprintf("provider rejected credential (HTTP %d)", resp.StatusCode),
			Body:    string(body),
		}
	case resp.StatusCode != http.StatusOK:
		return &RetrieverError{
			Type:    "api_error",
			Message: fmt.Sprintf("provider returned HTTP %d", resp.StatusCode),
			Body:    string(body),
		}
	}

	var envelope gqlResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return &RetrieverError{
			Type:    "api_error",
			Message: "failed to decode provider response",
			Body:    string(body),
			Err:     err,
		}
	}

	if len(envelope.Errors) > 0 {
		return &RetrieverError{
			Type:    "graphql_error",
			Message: envelope.Errors[0].Message,
			Body:    string(body),
		}
	}

	if result != nil {
		if err := json.Unmarshal(envelope.Data, result); err != nil {
			return &RetrieverError{
				Type:    "api_error",
				Message: "failed to decode provider data payload",
				Body:    string(envelope.Data),
				Err:     err,
			}
		}
	}

	return nil
}

const organizationQuery = `query {
  organization { id name logoUrl }
}`

// GetOrganization fetches the workspace the credential belongs to.
func (r *LinearRetriever) GetOrganization(ctx context.Context) (*Organization, error) {
	var data struct {
		Organization Organization `json:"organization"`
	}
	if err := r.query(ctx, organizationQuery, nil, &data); err != nil {
		return nil, err
	}
	return &data.Organization, nil
}

const teamsQuery = `query {
  teams { nodes { id name key } }
}`

// GetTeams lists all teams visible to the credential.
func (r *LinearRetriever) GetTeams(ctx context.Context) ([]Team, error) {
	var data struct {
		Teams struct {
			Nodes []Team `json:"nodes"`
		} `json:"teams"`
	}
	if err := r.query(ctx, teamsQuery, nil, &data); err != nil {
		return nil, err
	}
	return data.Teams.Nodes, nil
}

const teamQuery = `query ($id: String!) {
  team(id: $id) { id name key }
}`

// GetTeam fetches one team by id.
func (r *LinearRetriever) GetTeam(ctx context.Context, teamID string) (*Team, error) {
	var data struct {
		Team *Team `json:"team"`
	}
	if err := r.query(ctx, teamQuery, map[string]interface{}{"id": teamID}, &data); err != nil {
		return nil, err
	}
	if data.Team == nil {
		return nil, &RetrieverError{
			Type:    "not_found",
			Message: fmt.Sprintf("team %s not found", teamID),
		}
	}
	return data.Team, nil
}

const membersQuery = `query ($id: String!) {
  team(id: $id) {
    members { nodes { id name displayName email } }
  }
}`

// GetMembers fetches the members of a team.
func (r *LinearRetriever) GetMembers(ctx context.Context, teamID string) ([]Member, error) {
	var data struct {
		Team struct {
			Members struct {
				Nodes []Member `json:"nodes"`
			} `json:"members"`
		} `json:"team"`
	}
	if err := r.query(ctx, membersQuery, map[string]interface{}{"id": teamID}, &data); err != nil {
		return nil, err
	}
	return data.Team.Members.Nodes, nil
}

const stagesQuery = `query ($id: String!) {
  team(id: $id) {
    states { nodes { id name type } }
  }
}`

// GetStages fetches the workflow states of a team in provider order.
func (r *LinearRetriever) GetStages(ctx context.Context, teamID string) ([]WorkflowState, error) {
	var data struct {
		Team struct {
			States struct {
				Nodes []WorkflowState `json:"nodes"`
			} `json:"states"`
		} `json:"team"`
	}
	if err := r.query(ctx, stagesQuery, map[string]interface{}{"id": teamID}, &data); err != nil {
		return nil, err
	}
	return data.Team.States.Nodes, nil
}

const labelsQuery = `query ($id: String!) {
  team(id: $id) {
    labels { nodes { id name } }
  }
}`

// GetLabels fetches the labels of a team.
func (r *LinearRetriever) GetLabels(ctx context.Context, teamID string) ([]Label, error) {
	var data struct {
		Team struct {
			Labels struct {
				Nodes []Label `json:"nodes"`
			} `json:"labels"`
		} `json:"team"`
	}
	if err := r.query(ctx, labelsQuery, map[string]interface{}{"id": teamID}, &data); err != nil {
		return nil, err
	}
	return data.Team.Labels.Nodes, nil
}

const issuesQuery = `query ($id: String!, $first: Int!, $after: String) {
  team(id: $id) {
    issues(first: $first, after: $after) {
      pageInfo { hasNextPage endCursor }
      nodes {
        id identifier title description priority estimate
        team { id }
        state { id name type }
        creator { id name displayName email }
        assignee { id name displayName email }
        labels { nodes { id name } }
      }
    }
  }
}`

// rawIssueNode mirrors the nested issue shape of the listing query
// before flattening into Issue.
type rawIssueNode struct {
	ID          string         `json:"id"`
	Identifier  string         `json:"identifier"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Priority    int            `json:"priority"`
	Estimate    *int           `json:"estimate"`
	Team        struct {
		ID string `json:"id"`
	} `json:"team"`
	State    *WorkflowState `json:"state"`
	Creator  *Member        `json:"creator"`
	Assignee *Member        `json:"assignee"`
	Labels   struct {
		Nodes []Label `json:"nodes"`
	} `json:"labels"`
}

// GetIssues fetches all issues of a team, following cursor pagination
// until the provider reports no further pages.
func (r *LinearRetriever) GetIssues(ctx context.Context, teamID string) ([]Issue, error) {
	var all []Issue
	var after *string

	for {
		variables := map[string]interface{}{
			"id":    teamID,
			"first": issuePageSize,
		}
		if after != nil {
			variables["after"] = *after
		}

		var data struct {
			Team struct {
				Issues struct {
					PageInfo struct {
						HasNextPage bool   `json:"hasNextPage"`
						EndCursor   string `json:"endCursor"`
					} `json:"pageInfo"`
					Nodes []rawIssueNode `json:"nodes"`
				} `json:"issues"`
			} `json:"team"`
		}
		if err := r.query(ctx, issuesQuery, variables, &data); err != nil {
			return nil, err
		}

		for _, node := range data.Team.Issues.Nodes {
			all = append(all, Issue{
				ID:          node.ID,
				Identifier:  node.Identifier,
				Title:       node.Title,
				Description: node.Description,
				Priority:    node.Priority,
				Estimate:    node.Estimate,
				TeamID:      node.Team.ID,
				State:       node.State,
				Creator:     node.Creator,
				Assignee:    node.Assignee,
				Labels:      node.Labels.Nodes,
			})
		}

		if !data.Team.Issues.PageInfo.HasNextPage {
			break
		}
		cursor := data.Team.Issues.PageInfo.EndCursor
		after = &cursor
	}

	return all, nil
}

const issueHistoryQuery = `query ($id: String!) {
  issue(id: $id) {
    history {
      nodes {
        id createdAt
        actor { id name displayName email }
        fromStateId toStateId
        fromAssigneeId toAssigneeId
        relationChanges { identifier relatedIssueIdentifier }
      }
    }
  }
}`

// GetIssueHistory fetches the ordered change log of one issue, oldest
// entry first.
func (r *LinearRetriever) GetIssueHistory(ctx context.Context, issueID string) ([]HistoryEntry, error) {
	var data struct {
		Issue struct {
			History struct {
				Nodes []HistoryEntry `json:"nodes"`
			} `json:"history"`
		} `json:"issue"`
	}
	if err := r.query(ctx, issueHistoryQuery, map[string]interface{}{"id": issueID}, &data); err != nil {
		return nil, err
	}
	return data.Issue.History.Nodes, nil
}

const userQuery = `query ($id: String!) {
  user(id: $id) { id name displayName email }
}`

// GetUser fetches one provider user by id.
func (r *LinearRetriever) GetUser(ctx context.Context, userID string) (*Member, error) {
	var data struct {
		User *Member `json:"user"`
	}
	if err := r.query(ctx, userQuery, map[string]interface{}{"id": userID}, &data); err != nil {
		return nil, err
	}
	if data.User == nil {
		return nil, &RetrieverError{
			Type:    "not_found",
			Message: fmt.Sprintf("user %s not found", userID),
		}
	}
	return data.User, nil
}

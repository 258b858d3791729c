package retriever

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureCredentialIsBindOnce(t *testing.T) {
	r := NewLinearRetriever("")
	r.ConfigureCredential("first-key")
	r.ConfigureCredential("second-key")

	assert.Equal(t, "first-key", r.token, "a bound credential must not be replaced")
}

func TestQueryWithoutCredential(t *testing.T) {
	r := NewLinearRetriever("")

	_, err := r.GetOrganization(context.Background())
	require.Error(t, err)
	assert.True(t, IsNotConfigured(err))
}

func TestGetTeamSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "test-key", req.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"team": map[string]interface{}{
					"id": "team-1", "name": "Platform", "key": "PLT",
				},
			},
		})
	}))
	defer server.Close()

	r := NewLinearRetriever(server.URL)
	r.ConfigureCredential("test-key")

	team, err := r.GetTeam(context.Background(), "team-1")
	require.NoError(t, err)
	assert.Equal(t, "Platform", team.Name)
	assert.Equal(t, "PLT", team.Key)
}

func TestGetTeamNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"team":null}}`))
	}))
	defer server.Close()

	r := NewLinearRetriever(server.URL)
	r.ConfigureCredential("test-key")

	_, err := r.GetTeam(context.Background(), "missing")
	require.Error(t, err)
	rerr, ok := err.(*RetrieverError)
	require.True(t, ok)
	assert.Equal(t, "not_found", rerr.Type)
}

func TestQueryAuthError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid key"}`))
	}))
	defer server.Close()

	r := NewLinearRetriever(server.URL)
	r.ConfigureCredential("bad-key")

	_, err := r.GetOrganization(context.Background())
	require.Error(t, err)
	assert.True(t, IsAuthError(err))
}

func TestQueryGraphQLError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(`{"errors":[{"message":"rate limited"}]}`))
	}))
	defer server.Close()

	r := NewLinearRetriever(server.URL)
	r.ConfigureCredential("test-key")

	_, err := r.GetMembers(context.Background(), "team-1")
	require.Error(t, err)
	rerr, ok := err.(*RetrieverError)
	require.True(t, ok)
	assert.Equal(t, "graphql_error", rerr.Type)
	assert.Equal(t, "rate limited", rerr.Message)
	assert.NotEmpty(t, rerr.Body)
}

func TestGetIssuesPagination(t *testing.T) {
	page := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Variables map[string]interface{} `json:"variables"`
		}
		_ = json.NewDecoder(req.Body).Decode(&body)

		page++
		switch page {
		case 1:
			assert.Nil(t, body.Variables["after"])
			_, _ = w.Write([]byte(`{"data":{"team":{"issues":{
				"pageInfo":{"hasNextPage":true,"endCursor":"cursor-1"},
				"nodes":[{"id":"issue-1","identifier":"PLT-1","title":"First","team":{"id":"team-1"},"labels":{"nodes":[]}}]
			}}}}`))
		case 2:
			assert.Equal(t, "cursor-1", body.Variables["after"])
			_, _ = w.Write([]byte(`{"data":{"team":{"issues":{
				"pageInfo":{"hasNextPage":false,"endCursor":""},
				"nodes":[{"id":"issue-2","identifier":"PLT-2","title":"Second","team":{"id":"team-1"},"labels":{"nodes":[{"id":"l1","name":"bug"}]}}]
			}}}}`))
		}
	}))
	defer server.Close()

	r := NewLinearRetriever(server.URL)
	r.ConfigureCredential("test-key")

	issues, err := r.GetIssues(context.Background(), "team-1")
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, 2, page, "expected both pages to be fetched")
	assert.Equal(t, "PLT-1", issues[0].Identifier)
	assert.Equal(t, "PLT-2", issues[1].Identifier)
	assert.Equal(t, "bug", issues[1].Labels[0].Name)
}

func TestGetIssueHistoryOrderPreserved(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"issue":{"history":{"nodes":[
			{"id":"h1","createdAt":"2024-01-01T10:00:00Z"},
			{"id":"h2","createdAt":"2024-01-02T10:00:00Z"},
			{"id":"h3","createdAt":"2024-01-03T10:00:00Z"}
		]}}}}`))
	}))
	defer server.Close()

	r := NewLinearRetriever(server.URL)
	r.ConfigureCredential("test-key")

	entries, err := r.GetIssueHistory(context.Background(), "issue-1")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, []string{"h1", "h2", "h3"}, []string{entries[0].ID, entries[1].ID, entries[2].ID})
}

package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apexboard/linear-integration/pkg/canonical"
	"github.com/apexboard/linear-integration/pkg/retriever"
)

func strPtr(s string) *string { return &s }

func TestNormalizeEmptyHistory(t *testing.T) {
	events := Normalize("issue-1", nil, nil, nil)
	assert.Empty(t, events)
}

func TestNormalizeRelationFilter(t *testing.T) {
	entries := []retriever.HistoryEntry{
		{
			ID:        "h1",
			CreatedAt: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
			RelationChanges: []retriever.RelationChange{
				{Identifier: "rb", IssueIdentifier: "PRO-1"},
				{Identifier: "ar", IssueIdentifier: "PRO-2"},
				{Identifier: "rb", IssueIdentifier: "PRO-3"},
			},
		},
	}

	events := Normalize("issue-1", entries, nil, nil)
	require.Len(t, events, 2, "non-blocking relation kinds must be dropped")

	first, ok := events[0].(canonical.BlockEvent)
	require.True(t, ok)
	assert.Equal(t, canonical.BlockNoStatus, first.Relation)
	assert.Equal(t, "No longer blocked by PRO-1", first.Comment)

	second, ok := events[1].(canonical.BlockEvent)
	require.True(t, ok)
	assert.Equal(t, "No longer blocked by PRO-3", second.Comment)
}

func TestNormalizeBlockCommentTable(t *testing.T) {
	tests := []struct {
		code     string
		relation canonical.BlockRelation
		reason   string
		comment  string
	}{
		{"ab", canonical.BlockBlockedBy, "Block by other ticket", "Blocked by PRO-1"},
		{"rb", canonical.BlockNoStatus, "-", "No longer blocked by PRO-1"},
		{"ax", canonical.BlockBlockingTo, "Blocking other ticket", "Blocking to PRO-1"},
		{"rx", canonical.BlockNoStatus, "-", "No longer blocking to PRO-1"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			entries := []retriever.HistoryEntry{
				{
					ID: "h1",
					RelationChanges: []retriever.RelationChange{
						{Identifier: tt.code, IssueIdentifier: "PRO-1"},
					},
				},
			}

			events := Normalize("issue-1", entries, nil, nil)
			require.Len(t, events, 1)

			block, ok := events[0].(canonical.BlockEvent)
			require.True(t, ok)
			assert.Equal(t, tt.relation, block.Relation)
			assert.Equal(t, tt.reason, block.Reason)
			assert.Equal(t, tt.comment, block.Comment)
			assert.Nil(t, block.ProviderEventID, "synthesized block events carry no provider event id")
		})
	}
}

func TestNormalizeStateTransition(t *testing.T) {
	stages := map[string]string{"s1": "Todo", "s2": "In Progress"}

	entries := []retriever.HistoryEntry{
		{
			ID:          "h1",
			CreatedAt:   time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
			Actor:       &retriever.Member{Email: "alice@example.com"},
			FromStateID: strPtr("s1"),
			ToStateID:   strPtr("s2"),
		},
	}

	events := Normalize("issue-1", entries, stages, nil)
	require.Len(t, events, 1)

	change, ok := events[0].(canonical.ChangeScalarEvent)
	require.True(t, ok)
	assert.Equal(t, canonical.FieldState, change.Field)
	require.NotNil(t, change.From)
	assert.Equal(t, "Todo", *change.From)
	require.NotNil(t, change.To)
	assert.Equal(t, "In Progress", *change.To)
	require.NotNil(t, change.EmitterEmail)
	assert.Equal(t, "alice@example.com", *change.EmitterEmail)
	require.NotNil(t, change.ProviderEventID)
	assert.Equal(t, "h1", *change.ProviderEventID)
}

func TestNormalizeUnresolvableLookupDegrades(t *testing.T) {
	entries := []retriever.HistoryEntry{
		{
			ID:          "h1",
			FromStateID: strPtr("unknown"),
			ToStateID:   strPtr("s2"),
		},
	}

	events := Normalize("issue-1", entries, map[string]string{"s2": "Done"}, nil)
	require.Len(t, events, 1)

	change := events[0].(canonical.ChangeScalarEvent)
	assert.Nil(t, change.From, "unknown state id must degrade to an absent value")
	require.NotNil(t, change.To)
	assert.Equal(t, "Done", *change.To)
}

func TestNormalizeAssigneeTransition(t *testing.T) {
	members := map[string]string{"m1": "Alice", "m2": "Bob"}

	entries := []retriever.HistoryEntry{
		{
			ID:             "h1",
			FromAssigneeID: strPtr("m1"),
			ToAssigneeID:   strPtr("m2"),
		},
	}

	events := Normalize("issue-1", entries, nil, members)
	require.Len(t, events, 1)

	change := events[0].(canonical.ChangeScalarEvent)
	assert.Equal(t, canonical.FieldAssignee, change.Field)
	assert.Equal(t, "Alice", *change.From)
	assert.Equal(t, "Bob", *change.To)
	assert.Nil(t, change.EmitterEmail, "entries without an actor produce events without an emitter")
}

func TestNormalizeOrderingWithinEntry(t *testing.T) {
	entries := []retriever.HistoryEntry{
		{
			ID:             "h1",
			FromStateID:    strPtr("s1"),
			ToStateID:      strPtr("s2"),
			FromAssigneeID: strPtr("m1"),
			ToAssigneeID:   strPtr("m2"),
			RelationChanges: []retriever.RelationChange{
				{Identifier: "ab", IssueIdentifier: "PRO-9"},
			},
		},
		{
			ID:        "h2",
			ToStateID: strPtr("s1"),
		},
	}

	events := Normalize("issue-1", entries,
		map[string]string{"s1": "Todo", "s2": "Doing"},
		map[string]string{"m1": "Alice", "m2": "Bob"})
	require.Len(t, events, 4)

	// Entry one: block first, then state, then assignee.
	_, isBlock := events[0].(canonical.BlockEvent)
	assert.True(t, isBlock)

	state, isChange := events[1].(canonical.ChangeScalarEvent)
	require.True(t, isChange)
	assert.Equal(t, canonical.FieldState, state.Field)

	assignee := events[2].(canonical.ChangeScalarEvent)
	assert.Equal(t, canonical.FieldAssignee, assignee.Field)

	// Entry two follows entry one.
	last := events[3].(canonical.ChangeScalarEvent)
	require.NotNil(t, last.ProviderEventID)
	assert.Equal(t, "h2", *last.ProviderEventID)
	assert.Nil(t, last.From)
}

func TestNormalizeMalformedRelationCodeDropped(t *testing.T) {
	entries := []retriever.HistoryEntry{
		{
			ID: "h1",
			RelationChanges: []retriever.RelationChange{
				{Identifier: "", IssueIdentifier: "PRO-1"},
				{Identifier: "abc", IssueIdentifier: "PRO-2"},
				{Identifier: "zb", IssueIdentifier: "PRO-3"},
			},
		},
	}

	events := Normalize("issue-1", entries, nil, nil)
	assert.Empty(t, events)
}

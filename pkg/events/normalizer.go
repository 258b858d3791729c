// Package events normalizes a provider issue's raw history entries into
// the canonical event model. Normalization never fails: unresolvable
// stage or member ids degrade to absent values and unrecognized
// relation kinds are dropped.
package events

import (
	"fmt"

	"github.com/apexboard/linear-integration/pkg/canonical"
	"github.com/apexboard/linear-integration/pkg/retriever"
)

// Relation change codes are two characters: action then block kind.
const (
	actionAdd    = 'a'
	actionRemove = 'r'

	kindBlockedBy  = 'b'
	kindBlockingTo = 'x'
)

// Normalize converts one issue's ordered history into canonical events.
// stagesByID and membersByID resolve provider ids to display names.
// Entry order is preserved; within one entry, block events come first,
// then the state transition, then the assignee transition.
func Normalize(issueID string, entries []retriever.HistoryEntry, stagesByID map[string]string, membersByID map[string]string) []canonical.Event {
	events := make([]canonical.Event, 0, len(entries))

	for _, entry := range entries {
		base := canonical.EventBase{
			ProviderIssueID: issueID,
			EmitterEmail:    actorEmail(entry.Actor),
			CreatedAt:       entry.CreatedAt,
		}

		for _, change := range entry.RelationChanges {
			block, ok := blockEvent(base, change)
			if !ok {
				continue
			}
			events = append(events, block)
		}

		if entry.FromStateID != nil || entry.ToStateID != nil {
			events = append(events, canonical.ChangeScalarEvent{
				EventBase: withID(base, entry.ID),
				Field:     canonical.FieldState,
				From:      resolve(entry.FromStateID, stagesByID),
				To:        resolve(entry.ToStateID, stagesByID),
			})
		}

		if entry.FromAssigneeID != nil || entry.ToAssigneeID != nil {
			events = append(events, canonical.ChangeScalarEvent{
				EventBase: withID(base, entry.ID),
				Field:     canonical.FieldAssignee,
				From:      resolve(entry.FromAssigneeID, membersByID),
				To:        resolve(entry.ToAssigneeID, membersByID),
			})
		}
	}

	return events
}

// blockEvent builds one canonical block event from a relation change.
// Changes whose kind is not blocked-by or blocking-to are discarded.
func blockEvent(base canonical.EventBase, change retriever.RelationChange) (canonical.BlockEvent, bool) {
	if len(change.Identifier) != 2 {
		return canonical.BlockEvent{}, false
	}
	action := change.Identifier[0]
	kind := change.Identifier[1]

	if kind != kindBlockedBy && kind != kindBlockingTo {
		return canonical.BlockEvent{}, false
	}
	if action != actionAdd && action != actionRemove {
		return canonical.BlockEvent{}, false
	}

	return canonical.BlockEvent{
		EventBase: base,
		Relation:  relationFor(action, kind),
		Reason:    reasonFor(action, kind),
		Comment:   commentFor(action, kind, change.IssueIdentifier),
	}, true
}

// relationFor maps an add to its typed relation; removals are untyped
// and always carry NO_STATUS.
func relationFor(action, kind byte) canonical.BlockRelation {
	if action == actionRemove {
		return canonical.BlockNoStatus
	}
	if kind == kindBlockedBy {
		return canonical.BlockBlockedBy
	}
	return canonical.BlockBlockingTo
}

func reasonFor(action, kind byte) string {
	if action == actionRemove {
		return "-"
	}
	if kind == kindBlockedBy {
		return "Block by other ticket"
	}
	return "Blocking other ticket"
}

func commentFor(action, kind byte, identifier string) string {
	switch {
	case action == actionAdd && kind == kindBlockedBy:
		return fmt.Sprintf("Blocked by %s", identifier)
	case action == actionAdd && kind == kindBlockingTo:
		return fmt.Sprintf("Blocking to %s", identifier)
	case action == actionRemove && kind == kindBlockedBy:
		return fmt.Sprintf("No longer blocked by %s", identifier)
	default:
		return fmt.Sprintf("No longer blocking to %s", identifier)
	}
}

// resolve looks up an optional provider id; an unknown id degrades to
// an absent value rather than failing the entry.
func resolve(id *string, names map[string]string) *string {
	if id == nil {
		return nil
	}
	name, exists := names[*id]
	if !exists {
		return nil
	}
	return &name
}

func actorEmail(actor *retriever.Member) *string {
	if actor == nil || actor.Email == "" {
		return nil
	}
	email := actor.Email
	return &email
}

// withID attaches the history entry id to an event base. Block events
// synthesized from relation changes keep a nil id.
func withID(base canonical.EventBase, id string) canonical.EventBase {
	if id != "" {
		base.ProviderEventID = &id
	}
	return base
}

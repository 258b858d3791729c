package canonical

import "time"

// BlockRelation describes how an issue's blocking relationship changed.
type BlockRelation string

const (
	BlockNoStatus   BlockRelation = "NO_STATUS"
	BlockBlockedBy  BlockRelation = "BLOCKED_BY"
	BlockBlockingTo BlockRelation = "BLOCKING_TO"
)

// ChangeField names the scalar issue fields tracked in the change log.
type ChangeField string

const (
	FieldState    ChangeField = "state"
	FieldAssignee ChangeField = "assignee"
)

// Event is the closed set of canonical history events for one issue.
// The only implementations are ChangeScalarEvent and BlockEvent; the
// storage mapping switches over them exhaustively.
type Event interface {
	// Base returns the fields shared by all event kinds.
	Base() EventBase

	isEvent()
}

// EventBase holds the common fields of every event. ProviderEventID is
// nil for events synthesized during normalization rather than carried
// through from a provider history entry.
type EventBase struct {
	ProviderEventID *string
	ProviderIssueID string
	EmitterEmail    *string
	CreatedAt       time.Time
}

// ChangeScalarEvent records a state or assignee transition. From and To
// are nil when the value was unset on that side of the change.
type ChangeScalarEvent struct {
	EventBase

	Field ChangeField
	From  *string
	To    *string
}

func (e ChangeScalarEvent) Base() EventBase { return e.EventBase }
func (e ChangeScalarEvent) isEvent()        {}

// BlockEvent records a change in an issue's blocking relationship.
// Removals carry BlockNoStatus; the reason and comment describe what
// happened in human-readable form.
type BlockEvent struct {
	EventBase

	Relation BlockRelation
	Reason   string
	Comment  string
}

func (e BlockEvent) Base() EventBase { return e.EventBase }
func (e BlockEvent) isEvent()        {}

// Package core provides the interception pipeline for MongoDB collection writes.
// This file defines the lifecycle phases of an intercepted call and the
// context handed to hooks at each phase.
package core

// Event represents the phase an intercepted call is in.
//
// Within one call phases always run in the order before, during, after.
// When any of them fails the hook's Error handler receives the context of the
// failing phase.
type Event string

const (
	// EventBefore runs ahead of the collection method and may rewrite its arguments.
	EventBefore Event = "before"
	// EventDuring is the collection method itself.
	EventDuring Event = "during"
	// EventAfter runs once the collection method succeeded.
	EventAfter Event = "after"
)

func (e Event) String() string { return string(e) }

// HookContext describes the call currently being intercepted.
//
// A fresh value is built for every call and every phase. Arguments is only
// set for EventBefore and holds the normalized form of the raw arguments.
type HookContext struct {
	Operation Operation
	Kind      Kind
	Event     Event
	Arguments *Arguments
}

func newHookContext(op Operation, event Event) HookContext {
	return HookContext{Operation: op, Kind: Classify(op), Event: event}
}

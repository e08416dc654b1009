// Package core provides the interception pipeline for MongoDB collection writes.
// This file defines the Hook registration surface: the three optional
// handlers and the explicit result type of the before handler.
package core

import "context"

// BeforeFunc runs ahead of the collection method.
//
// hc.Arguments holds the normalized arguments; args holds the raw positional
// ones. Returning the zero Replacement keeps args unchanged.
type BeforeFunc func(ctx context.Context, hc HookContext, args Args) (Replacement, error)

// AfterFunc observes the result of a successful collection method. It cannot
// replace the result.
type AfterFunc func(ctx context.Context, hc HookContext, result any) error

// ErrorFunc observes a failure. The failure is always returned to the caller,
// whatever ErrorFunc does.
type ErrorFunc func(ctx context.Context, hc HookContext, err error) error

// Hook is a set of up to three optional handlers attached to a collection.
//
// Handlers must be safe for concurrent use: the same Hook serves every call
// made through the patched collection. Any state belongs to the closures.
//
// Example:
//
//	hook := core.Hook{
//		Before: func(ctx context.Context, hc core.HookContext, args core.Args) (core.Replacement, error) {
//			log.Printf("%s %+v", hc.Operation, hc.Arguments)
//			return core.Keep(), nil
//		},
//	}
//	users := core.Attach(db.Collection("users"), hook)
type Hook struct {
	Before BeforeFunc
	After  AfterFunc
	Error  ErrorFunc
}

type replacementKind int

const (
	replaceNothing replacementKind = iota
	replaceRecord
	replaceTuple
)

// Replacement is what a BeforeFunc asks the dispatcher to do with the
// arguments: keep them, rebuild them from a normalized record, or swap in a
// new positional list.
type Replacement struct {
	kind   replacementKind
	record *Arguments
	args   Args
}

// Keep leaves the arguments untouched. It is the zero Replacement.
func Keep() Replacement { return Replacement{} }

// ReplaceArguments rebuilds the positional arguments from a normalized record
// using Unparse.
func ReplaceArguments(record Arguments) Replacement {
	return Replacement{kind: replaceRecord, record: &record}
}

// ReplaceArgs replaces the positional arguments as a whole. An empty list
// behaves like Keep.
func ReplaceArgs(args Args) Replacement {
	return Replacement{kind: replaceTuple, args: args}
}

// resolve applies the replacement to the original arguments.
func (r Replacement) resolve(op Operation, args Args) (Args, error) {
	switch r.kind {
	case replaceRecord:
		return Unparse(op, r.record)
	case replaceTuple:
		if len(r.args) == 0 {
			return args, nil
		}
		return r.args, nil
	default:
		return args, nil
	}
}

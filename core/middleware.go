// Package core provides the interception pipeline for MongoDB collection writes.
// This file defines the dispatcher, which runs one collection method through
// the before, during and after phases of a Hook.
package core

import (
	"context"
	"errors"
)

// Capability is one collection method reduced to its positional arguments.
//
// It receives the context, the arguments and returns the method's result.
// Wrap decorates a Capability with a Hook, following the decorator pattern.
type Capability func(ctx context.Context, args Args) (any, error)

// Wrap returns a Capability that runs fn through the lifecycle of hook.
//
//  1. before: the raw arguments are parsed into a HookContext and handed to
//     hook.Before, which may keep them or replace them.
//  2. during: fn runs with the resulting arguments.
//  3. after: hook.After observes the result. The caller always receives the
//     result of fn.
//
// When a phase fails, hook.Error is invoked once with the context of that
// phase and the failure is returned. Failures of hook handlers (and of
// argument parsing) are wrapped in a *HookError; failures of fn are returned
// unchanged.
//
// Example:
//
//	insert := core.Wrap(func(ctx context.Context, args core.Args) (any, error) {
//		return coll.InsertOne(ctx, args[0])
//	}, hook, core.OperationInsertOne)
//	res, err := insert(ctx, core.Args{bson.M{"name": "a"}})
func Wrap(fn Capability, hook Hook, op Operation) Capability {
	return func(ctx context.Context, args Args) (any, error) {
		hc := newHookContext(op, EventBefore)

		newArgs, err := runBefore(ctx, hook, hc, args)
		if err != nil {
			return nil, fail(ctx, hook, hc, newHookError(hc, err))
		}

		hc = newHookContext(op, EventDuring)
		result, err := fn(ctx, newArgs)
		if err != nil {
			return result, fail(ctx, hook, hc, err)
		}

		hc = newHookContext(op, EventAfter)
		if hook.After != nil {
			if err := hook.After(ctx, hc, result); err != nil {
				return result, fail(ctx, hook, hc, newHookError(hc, err))
			}
		}
		return result, nil
	}
}

// runBefore parses the arguments and resolves the before handler's replacement.
func runBefore(ctx context.Context, hook Hook, hc HookContext, args Args) (Args, error) {
	record, err := Parse(hc.Operation, args)
	if err != nil {
		return nil, err
	}
	if hook.Before == nil {
		return args, nil
	}
	hc.Arguments = record
	replacement, err := hook.Before(ctx, hc, args)
	if err != nil {
		return nil, err
	}
	newArgs, err := replacement.resolve(hc.Operation, args)
	if err != nil {
		return nil, err
	}
	if replacement.kind == replaceTuple {
		// a hand-built list must still fit the operation's shape
		if _, err := Parse(hc.Operation, newArgs); err != nil {
			return nil, err
		}
	}
	return newArgs, nil
}

// fail hands err to the error handler and returns what the caller must see.
//
// hc.Arguments is never set here: the error handler only learns the phase.
func fail(ctx context.Context, hook Hook, hc HookContext, err error) error {
	if hook.Error == nil {
		return err
	}
	hc.Arguments = nil
	handlerErr := hook.Error(ctx, hc, err)
	if handlerErr == nil {
		return err
	}
	// before and after failures arrive wrapped already; wrap them only once
	cause := err
	if hookErr, ok := err.(*HookError); ok && hc.Event != EventDuring {
		cause = hookErr.Err
	}
	return newHookError(hc, errors.Join(cause, handlerErr))
}

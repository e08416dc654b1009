// Package hooks provides ready-made core.Hook values: automatic timestamps,
// structured logging, prometheus metrics and client-side schema validation.
package hooks

import (
	"context"
	"fmt"
	"time"

	"github.com/albert-team/mongol/core"
)

// NamingConvention selects how timestamp fields are spelled in the database.
type NamingConvention string

const (
	// CamelCase names the fields createdAt and updatedAt.
	CamelCase NamingConvention = "camelCase"
	// SnakeCase names the fields created_at and updated_at.
	SnakeCase NamingConvention = "snake_case"
)

// ParseNamingConvention accepts the spellings used in configuration files.
func ParseNamingConvention(s string) (NamingConvention, error) {
	switch s {
	case "", "camel", "camelCase", "camel_case":
		return CamelCase, nil
	case "snake", "snake_case", "snakeCase":
		return SnakeCase, nil
	default:
		return "", fmt.Errorf("unknown naming convention %q", s)
	}
}

// TimestampOptions configures Timestamp.
type TimestampOptions struct {
	Naming NamingConvention
	// Now returns the creation time stamped on documents. Defaults to time.Now.
	Now func() time.Time
}

// TimestampFields returns the creation and modification field names.
func (o TimestampOptions) TimestampFields() (createdAt, updatedAt string) {
	if o.Naming == SnakeCase {
		return "created_at", "updated_at"
	}
	return "createdAt", "updatedAt"
}

type timestamper struct {
	createdAt string
	updatedAt string
	now       func() time.Time
}

// Timestamp returns a hook that maintains creation and modification times.
//
//   - insert: every document gets the creation field set to now.
//   - replace: the replacement gets the modification field set to now. A
//     replacement document is stored whole, so when it does not carry the
//     creation field that field is set to now as well; callers that want to
//     keep the stored creation time must copy it into the replacement.
//   - update: the update gets $currentDate on the modification field, so the
//     server clock is used.
//   - bulkWrite: the same rules per sub-operation.
//
// The caller's documents, updates and write models are never modified.
//
// Example:
//
//	users := core.Attach(db.Collection("users"), hooks.Timestamp(hooks.TimestampOptions{Naming: hooks.SnakeCase}))
func Timestamp(opts TimestampOptions) core.Hook {
	t := &timestamper{now: opts.Now}
	t.createdAt, t.updatedAt = opts.TimestampFields()
	if t.now == nil {
		t.now = time.Now
	}
	return core.Hook{Before: t.before}
}

func (t *timestamper) before(_ context.Context, hc core.HookContext, _ core.Args) (core.Replacement, error) {
	if hc.Arguments == nil || hc.Kind == core.KindDelete {
		return core.Keep(), nil
	}
	record := hc.Arguments.Clone()
	now := t.now()

	switch hc.Kind {
	case core.KindInsert:
		for i, doc := range record.Documents {
			stamped, err := core.SetField(doc, t.createdAt, now)
			if err != nil {
				return core.Keep(), err
			}
			record.Documents[i] = stamped
		}
	case core.KindReplace:
		for i, doc := range record.Documents {
			stamped, err := t.stampReplacement(doc, now)
			if err != nil {
				return core.Keep(), err
			}
			record.Documents[i] = stamped
		}
	case core.KindUpdate:
		update, err := core.CurrentDate(record.Update, t.updatedAt)
		if err != nil {
			return core.Keep(), err
		}
		record.Update = update
	case core.KindBulkWrite:
		for i, sub := range record.SubOperations {
			stamped, err := t.stampSubOperation(sub, now)
			if err != nil {
				return core.Keep(), fmt.Errorf("sub-operation %d: %w", i, err)
			}
			record.SubOperations[i] = stamped
		}
	}
	return core.ReplaceArguments(record), nil
}

// stampReplacement sets the modification field, and the creation field only
// when doc lacks it.
func (t *timestamper) stampReplacement(doc any, now time.Time) (any, error) {
	stamped, err := core.SetField(doc, t.updatedAt, now)
	if err != nil {
		return nil, err
	}
	if _, ok := core.Lookup(stamped, t.createdAt); ok {
		return stamped, nil
	}
	return core.SetField(stamped, t.createdAt, now)
}

func (t *timestamper) stampSubOperation(sub core.SubOperation, now time.Time) (core.SubOperation, error) {
	switch {
	case sub.InsertOne != nil:
		model := *sub.InsertOne
		doc, err := core.SetField(model.Document, t.createdAt, now)
		if err != nil {
			return sub, err
		}
		model.Document = doc
		return core.SubOperation{InsertOne: &model}, nil
	case sub.UpdateOne != nil:
		model := *sub.UpdateOne
		update, err := core.CurrentDate(model.Update, t.updatedAt)
		if err != nil {
			return sub, err
		}
		model.Update = update
		return core.SubOperation{UpdateOne: &model}, nil
	case sub.UpdateMany != nil:
		model := *sub.UpdateMany
		update, err := core.CurrentDate(model.Update, t.updatedAt)
		if err != nil {
			return sub, err
		}
		model.Update = update
		return core.SubOperation{UpdateMany: &model}, nil
	case sub.ReplaceOne != nil:
		model := *sub.ReplaceOne
		doc, err := t.stampReplacement(model.Replacement, now)
		if err != nil {
			return sub, err
		}
		model.Replacement = doc
		return core.SubOperation{ReplaceOne: &model}, nil
	default:
		return sub, nil
	}
}

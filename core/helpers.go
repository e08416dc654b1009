// Package core provides the interception pipeline for MongoDB collection writes.
// This file contains helpers for hook authors that need to rewrite documents
// and update expressions without mutating the caller's values.
package core

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// SetField returns a copy of doc with key set to value.
//
// Maps (bson.M, map[string]any) and bson.D are copied directly, replacing an
// existing key in place. Any other value, such as a tagged struct, is
// marshaled through BSON into a bson.D first.
//
// Example:
//
//	doc, _ := core.SetField(bson.M{"name": "a"}, "createdAt", time.Now())
//	// bson.M{"name": "a", "createdAt": ...}
func SetField(doc any, key string, value any) (any, error) {
	switch d := doc.(type) {
	case nil:
		return nil, fmt.Errorf("%w: cannot set %q on a nil document", ErrInvalidArgument, key)
	case bson.M:
		out := make(bson.M, len(d)+1)
		for k, v := range d {
			out[k] = v
		}
		out[key] = value
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(d)+1)
		for k, v := range d {
			out[k] = v
		}
		out[key] = value
		return out, nil
	case bson.D:
		return setElement(d, key, value), nil
	default:
		converted, err := ToDocument(doc)
		if err != nil {
			return nil, err
		}
		return setElement(converted, key, value), nil
	}
}

// ToDocument marshals v through BSON into an ordered document.
func ToDocument(v any) (bson.D, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %T is not a document: %v", ErrInvalidArgument, v, err)
	}
	var out bson.D
	if err := bson.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %T is not a document: %v", ErrInvalidArgument, v, err)
	}
	return out, nil
}

// setElement copies d and sets key, keeping the position of an existing key.
func setElement(d bson.D, key string, value any) bson.D {
	out := make(bson.D, 0, len(d)+1)
	found := false
	for _, e := range d {
		if e.Key == key {
			e.Value = value
			found = true
		}
		out = append(out, e)
	}
	if !found {
		out = append(out, bson.E{Key: key, Value: value})
	}
	return out
}

// CurrentDate returns a copy of update that also sets field to the server's
// current date.
//
// Update documents receive (or extend) a $currentDate operator. Aggregation
// pipeline updates (mongo.Pipeline, []bson.D, bson.A, []any) receive a
// trailing $set stage using $$NOW, since pipelines do not accept $currentDate.
func CurrentDate(update any, field string) (any, error) {
	switch u := update.(type) {
	case nil:
		return nil, fmt.Errorf("%w: cannot add $currentDate to a nil update", ErrInvalidArgument)
	case mongo.Pipeline:
		return append(append(mongo.Pipeline(nil), u...), nowStage(field)), nil
	case []bson.D:
		return append(append([]bson.D(nil), u...), nowStage(field)), nil
	case bson.A:
		return append(append(bson.A(nil), u...), nowStage(field)), nil
	case []any:
		return append(append([]any(nil), u...), nowStage(field)), nil
	case bson.M:
		out := make(bson.M, len(u)+1)
		for k, v := range u {
			out[k] = v
		}
		out["$currentDate"] = withCurrentDate(u["$currentDate"], field)
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(u)+1)
		for k, v := range u {
			out[k] = v
		}
		out["$currentDate"] = withCurrentDate(u["$currentDate"], field)
		return out, nil
	case bson.D:
		var existing any
		for _, e := range u {
			if e.Key == "$currentDate" {
				existing = e.Value
			}
		}
		return setElement(u, "$currentDate", withCurrentDate(existing, field)), nil
	default:
		converted, err := ToDocument(update)
		if err != nil {
			return nil, err
		}
		return CurrentDate(converted, field)
	}
}

// withCurrentDate merges field into an existing $currentDate specification.
func withCurrentDate(existing any, field string) any {
	switch spec := existing.(type) {
	case bson.D:
		return setElement(spec, field, true)
	case bson.M, map[string]any:
		out, _ := SetField(spec, field, true)
		return out
	default:
		return bson.D{{Key: field, Value: true}}
	}
}

func nowStage(field string) bson.D {
	return bson.D{{Key: "$set", Value: bson.D{{Key: field, Value: "$$NOW"}}}}
}

// Lookup returns the value stored under key in doc, if any.
func Lookup(doc any, key string) (any, bool) {
	switch d := doc.(type) {
	case nil:
		return nil, false
	case bson.M:
		v, ok := d[key]
		return v, ok
	case map[string]any:
		v, ok := d[key]
		return v, ok
	case bson.D:
		for _, e := range d {
			if e.Key == key {
				return e.Value, true
			}
		}
		return nil, false
	default:
		converted, err := ToDocument(doc)
		if err != nil {
			return nil, false
		}
		return Lookup(converted, key)
	}
}

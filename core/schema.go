// Package core provides the interception pipeline for MongoDB collection writes.
// This file defines the schema filter, which strips JSON Schema keywords the
// MongoDB $jsonSchema validator does not understand.
package core

import (
	"reflect"

	"go.mongodb.org/mongo-driver/bson"
)

// UnsupportedKeywords lists the JSON Schema keywords MongoDB rejects in a
// $jsonSchema validator.
var UnsupportedKeywords = []string{"$ref", "$schema", "default", "definitions", "format", "id"}

// TypeKeyword is the JSON Schema "type" keyword. It collides with MongoDB's
// "bsonType" when a schema declares both.
const TypeKeyword = "type"

// SchemaOptions controls which keywords SchemaKeywords returns.
type SchemaOptions struct {
	// IgnoreUnsupportedKeywords strips UnsupportedKeywords instead of letting
	// the server reject the schema.
	IgnoreUnsupportedKeywords bool
	// IgnoreType strips the "type" keyword so it does not conflict with "bsonType".
	IgnoreType bool
}

// DefaultSchemaOptions strips unsupported keywords and keeps "type".
func DefaultSchemaOptions() SchemaOptions {
	return SchemaOptions{IgnoreUnsupportedKeywords: true}
}

// SchemaKeywords builds the exclusion set for Strip.
func SchemaKeywords(opts SchemaOptions) map[string]struct{} {
	keys := make(map[string]struct{}, len(UnsupportedKeywords)+1)
	if opts.IgnoreUnsupportedKeywords {
		for _, k := range UnsupportedKeywords {
			keys[k] = struct{}{}
		}
	}
	if opts.IgnoreType {
		keys[TypeKeyword] = struct{}{}
	}
	return keys
}

// Strip returns a copy of tree without any object entry whose key is in
// excluded.
//
// Objects (map[string]any, bson.M, bson.D) are rebuilt without the excluded
// keys and their remaining values are walked. Arrays ([]any, bson.A) are
// rebuilt with their object elements walked; scalars pass through. Other
// slices and string-keyed maps, such as []bson.M or map[string]bson.M, are
// rebuilt with the same type. The input is never modified.
//
// Example:
//
//	schema := bson.M{"type": "object", "properties": bson.M{"x": bson.M{"type": "string", "format": "date"}}}
//	core.Strip(schema, map[string]struct{}{"format": {}})
//	// bson.M{"type": "object", "properties": bson.M{"x": bson.M{"type": "string"}}}
func Strip(tree any, excluded map[string]struct{}) any {
	switch node := tree.(type) {
	case bson.M:
		return bson.M(stripMap(node, excluded))
	case map[string]any:
		return stripMap(node, excluded)
	case bson.D:
		out := make(bson.D, 0, len(node))
		for _, e := range node {
			if _, skip := excluded[e.Key]; skip {
				continue
			}
			out = append(out, bson.E{Key: e.Key, Value: Strip(e.Value, excluded)})
		}
		return out
	case bson.A:
		return bson.A(stripSlice(node, excluded))
	case []any:
		return stripSlice(node, excluded)
	default:
		return stripValue(tree, excluded)
	}
}

// stripValue walks typed containers the switch in Strip does not name.
func stripValue(tree any, excluded map[string]struct{}) any {
	v := reflect.ValueOf(tree)
	switch v.Kind() {
	case reflect.Slice:
		if v.IsNil() || v.Type().Elem().Kind() == reflect.Uint8 {
			return tree
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(stripElement(v.Index(i), excluded))
		}
		return out.Interface()
	case reflect.Map:
		if v.IsNil() || v.Type().Key().Kind() != reflect.String {
			return tree
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			if _, skip := excluded[iter.Key().String()]; skip {
				continue
			}
			out.SetMapIndex(iter.Key(), stripElement(iter.Value(), excluded))
		}
		return out.Interface()
	default:
		return tree
	}
}

// stripElement strips one container element, keeping it as is when the
// stripped value no longer fits the element type.
func stripElement(v reflect.Value, excluded map[string]struct{}) reflect.Value {
	stripped := Strip(v.Interface(), excluded)
	if stripped == nil {
		return v
	}
	sv := reflect.ValueOf(stripped)
	if !sv.Type().AssignableTo(v.Type()) {
		return v
	}
	return sv
}

func stripMap(node map[string]any, excluded map[string]struct{}) map[string]any {
	out := make(map[string]any, len(node))
	for k, v := range node {
		if _, skip := excluded[k]; skip {
			continue
		}
		out[k] = Strip(v, excluded)
	}
	return out
}

func stripSlice(node []any, excluded map[string]struct{}) []any {
	if node == nil {
		return nil
	}
	out := make([]any, len(node))
	for i, v := range node {
		out[i] = Strip(v, excluded)
	}
	return out
}

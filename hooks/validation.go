package hooks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/albert-team/mongol/core"
)

// ErrDocumentInvalid is returned by the Validation hook when a document does
// not satisfy the schema.
var ErrDocumentInvalid = errors.New("document invalid against schema")

// Validation returns a hook that validates inserted and replacement documents
// against a JSON schema before they reach the server.
//
// Documents are validated in their relaxed extended JSON form, so BSON-only
// types such as dates appear as {"$date": ...} objects.
func Validation(schema any) (core.Hook, error) {
	compiled, err := gojsonschema.NewSchema(SchemaLoader(schema))
	if err != nil {
		return core.Hook{}, fmt.Errorf("invalid json schema: %w", err)
	}
	v := &validator{schema: compiled}
	return core.Hook{Before: v.before}, nil
}

// SchemaLoader returns a gojsonschema loader for a schema given as a JSON
// string, raw JSON bytes or a document (bson.M, bson.D, map[string]any).
func SchemaLoader(schema any) gojsonschema.JSONLoader {
	switch s := schema.(type) {
	case string:
		return gojsonschema.NewStringLoader(s)
	case []byte:
		return gojsonschema.NewBytesLoader(s)
	default:
		if data, err := bson.MarshalExtJSON(schema, false, false); err == nil {
			return gojsonschema.NewBytesLoader(data)
		}
		return gojsonschema.NewGoLoader(schema)
	}
}

type validator struct {
	schema *gojsonschema.Schema
}

func (v *validator) before(_ context.Context, hc core.HookContext, _ core.Args) (core.Replacement, error) {
	if hc.Arguments == nil {
		return core.Keep(), nil
	}
	switch hc.Kind {
	case core.KindInsert, core.KindReplace:
		for i, doc := range hc.Arguments.Documents {
			if err := v.validate(doc); err != nil {
				return core.Keep(), fmt.Errorf("document %d: %w", i, err)
			}
		}
	case core.KindBulkWrite:
		for i, sub := range hc.Arguments.SubOperations {
			var doc any
			switch {
			case sub.InsertOne != nil:
				doc = sub.InsertOne.Document
			case sub.ReplaceOne != nil:
				doc = sub.ReplaceOne.Replacement
			default:
				continue
			}
			if err := v.validate(doc); err != nil {
				return core.Keep(), fmt.Errorf("sub-operation %d: %w", i, err)
			}
		}
	}
	return core.Keep(), nil
}

func (v *validator) validate(doc any) error {
	data, err := bson.MarshalExtJSON(doc, false, false)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidArgument, err)
	}
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}
	descriptions := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		descriptions = append(descriptions, desc.String())
	}
	return fmt.Errorf("%w: %s", ErrDocumentInvalid, strings.Join(descriptions, "; "))
}

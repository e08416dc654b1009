// Package core provides the interception pipeline for MongoDB collection writes.
// This file defines the argument normalizer, which converts the positional
// arguments of every operation into one record shape and back.
package core

import (
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// Args is the positional argument list of a collection write, without the
// context. When present, the last element is always the options value.
//
// For a patched collection the options element is the variadic options slice
// exactly as the caller passed it, and is present only when at least one
// option was passed:
//
//	coll.UpdateOne(ctx, filter, update)                 // Args{filter, update}
//	coll.UpdateOne(ctx, filter, update, opts)           // Args{filter, update, []*options.UpdateOptions{opts}}
type Args []any

// Arguments is the normalized form of Args.
//
// Which fields are populated depends only on the Kind of the operation:
//
//	insert     Documents (one element for insertOne)
//	update     Query, Update
//	replace    Query, Documents (exactly one element)
//	delete     Query
//	bulkWrite  SubOperations
//
// Options is set for every kind when the caller passed options. It is never
// inspected.
type Arguments struct {
	Query         any
	Documents     []any
	Update        any
	SubOperations []SubOperation
	Options       any
}

// Clone returns a copy whose slices can be modified without touching a.
func (a *Arguments) Clone() Arguments {
	out := *a
	if a.Documents != nil {
		out.Documents = append([]any(nil), a.Documents...)
	}
	if a.SubOperations != nil {
		out.SubOperations = append([]SubOperation(nil), a.SubOperations...)
	}
	return out
}

// IsArguments reports whether v is a normalized record rather than a raw
// positional list.
func IsArguments(v any) bool {
	switch v.(type) {
	case Arguments, *Arguments:
		return true
	default:
		return false
	}
}

// SubOperation is one tagged unit of a bulk write. Exactly one field is set.
type SubOperation struct {
	InsertOne  *mongo.InsertOneModel
	UpdateOne  *mongo.UpdateOneModel
	UpdateMany *mongo.UpdateManyModel
	ReplaceOne *mongo.ReplaceOneModel
	DeleteOne  *mongo.DeleteOneModel
	DeleteMany *mongo.DeleteManyModel
}

// NewSubOperation tags a driver write model.
func NewSubOperation(model mongo.WriteModel) (SubOperation, error) {
	var sub SubOperation
	switch m := model.(type) {
	case *mongo.InsertOneModel:
		sub.InsertOne = m
	case *mongo.UpdateOneModel:
		sub.UpdateOne = m
	case *mongo.UpdateManyModel:
		sub.UpdateMany = m
	case *mongo.ReplaceOneModel:
		sub.ReplaceOne = m
	case *mongo.DeleteOneModel:
		sub.DeleteOne = m
	case *mongo.DeleteManyModel:
		sub.DeleteMany = m
	default:
		return sub, fmt.Errorf("%w: unsupported write model %T", ErrInvalidArgument, model)
	}
	if sub.Model() == nil {
		return sub, fmt.Errorf("%w: nil write model %T", ErrInvalidArgument, model)
	}
	return sub, nil
}

// Operation returns the tag of the sub-operation, or "" when the descriptor
// does not carry exactly one payload.
func (s SubOperation) Operation() Operation {
	var tag Operation
	count := 0
	if s.InsertOne != nil {
		tag, count = OperationInsertOne, count+1
	}
	if s.UpdateOne != nil {
		tag, count = OperationUpdateOne, count+1
	}
	if s.UpdateMany != nil {
		tag, count = OperationUpdateMany, count+1
	}
	if s.ReplaceOne != nil {
		tag, count = OperationReplaceOne, count+1
	}
	if s.DeleteOne != nil {
		tag, count = OperationDeleteOne, count+1
	}
	if s.DeleteMany != nil {
		tag, count = OperationDeleteMany, count+1
	}
	if count != 1 {
		return ""
	}
	return tag
}

// Model returns the write model carried by the descriptor.
func (s SubOperation) Model() mongo.WriteModel {
	switch s.Operation() {
	case OperationInsertOne:
		return s.InsertOne
	case OperationUpdateOne:
		return s.UpdateOne
	case OperationUpdateMany:
		return s.UpdateMany
	case OperationReplaceOne:
		return s.ReplaceOne
	case OperationDeleteOne:
		return s.DeleteOne
	case OperationDeleteMany:
		return s.DeleteMany
	default:
		return nil
	}
}

// requiredArgs is the number of positional arguments each kind needs before
// the optional trailing options.
var requiredArgs = map[Kind]int{
	KindInsert:    1,
	KindUpdate:    2,
	KindReplace:   2,
	KindDelete:    1,
	KindBulkWrite: 1,
}

// Parse converts positional arguments into the normalized record of op.
//
// Example:
//
//	record, _ := core.Parse(core.OperationUpdateOne, core.Args{
//		bson.M{"id": 1}, bson.M{"$set": bson.M{"x": 1}}, opts,
//	})
//	// record.Query == bson.M{"id": 1}, record.Update == bson.M{"$set": ...}, record.Options == opts
func Parse(op Operation, args Args) (*Arguments, error) {
	kind, ok := kindByOperation[op]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, op)
	}
	required := requiredArgs[kind]
	if len(args) < required || len(args) > required+1 {
		return nil, fmt.Errorf("%w: %s takes %d or %d arguments, got %d", ErrInvalidArity, op, required, required+1, len(args))
	}

	record := &Arguments{}
	if len(args) > required {
		record.Options = args[required]
	}

	switch kind {
	case KindInsert:
		if op == OperationInsertOne {
			record.Documents = []any{args[0]}
			break
		}
		documents, ok := args[0].([]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects []any documents, got %T", ErrInvalidArgument, op, args[0])
		}
		record.Documents = documents
	case KindUpdate:
		record.Query = args[0]
		record.Update = args[1]
	case KindReplace:
		record.Query = args[0]
		record.Documents = []any{args[1]}
	case KindDelete:
		record.Query = args[0]
	case KindBulkWrite:
		models, ok := args[0].([]mongo.WriteModel)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects []mongo.WriteModel, got %T", ErrInvalidArgument, op, args[0])
		}
		if models != nil {
			record.SubOperations = make([]SubOperation, 0, len(models))
		}
		for i, model := range models {
			sub, err := NewSubOperation(model)
			if err != nil {
				return nil, fmt.Errorf("%s model %d: %w", op, i, err)
			}
			record.SubOperations = append(record.SubOperations, sub)
		}
	}
	return record, nil
}

// Unparse converts a normalized record back into the positional arguments of
// op, in the order Parse consumed them. Options are appended only when set.
func Unparse(op Operation, record *Arguments) (Args, error) {
	kind, ok := kindByOperation[op]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, op)
	}
	if record == nil {
		return nil, fmt.Errorf("%w: %s: nil arguments record", ErrInvalidArgument, op)
	}

	var args Args
	switch kind {
	case KindInsert:
		if op == OperationInsertOne {
			if len(record.Documents) != 1 {
				return nil, fmt.Errorf("%w: %s needs exactly one document, got %d", ErrInvalidArgument, op, len(record.Documents))
			}
			args = Args{record.Documents[0]}
			break
		}
		args = Args{record.Documents}
	case KindUpdate:
		args = Args{record.Query, record.Update}
	case KindReplace:
		if len(record.Documents) != 1 {
			return nil, fmt.Errorf("%w: %s needs exactly one replacement, got %d", ErrInvalidArgument, op, len(record.Documents))
		}
		args = Args{record.Query, record.Documents[0]}
	case KindDelete:
		args = Args{record.Query}
	case KindBulkWrite:
		var models []mongo.WriteModel
		if record.SubOperations != nil {
			models = make([]mongo.WriteModel, 0, len(record.SubOperations))
		}
		for i, sub := range record.SubOperations {
			model := sub.Model()
			if model == nil {
				return nil, fmt.Errorf("%w: %s sub-operation %d must carry exactly one model", ErrInvalidArgument, op, i)
			}
			models = append(models, model)
		}
		args = Args{models}
	}

	if record.Options != nil {
		args = append(args, record.Options)
	}
	return args, nil
}

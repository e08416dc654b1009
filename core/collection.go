// Package core provides the interception pipeline for MongoDB collection writes.
// This file defines the collection patcher, which routes every write method
// of a Collection through Wrap.
package core

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// HookedCollection is a Collection whose write methods run through a Hook.
//
// It is built by Attach and leaves the wrapped collection untouched. Reads
// are not part of Collection; use Unwrap to reach them.
type HookedCollection struct {
	inner Collection
	hook  Hook

	insertOne         Capability
	insertMany        Capability
	updateOne         Capability
	updateMany        Capability
	replaceOne        Capability
	findOneAndUpdate  Capability
	findOneAndReplace Capability
	findOneAndDelete  Capability
	deleteOne         Capability
	deleteMany        Capability
	bulkWrite         Capability
}

var _ Collection = (*HookedCollection)(nil)

// Attach returns a Collection whose write methods pass through hook.
//
// Attaching to an already hooked collection nests the hooks: the last
// attached hook runs its before handler first and its after handler last.
//
// Example:
//
//	inner := core.Attach(db.Collection("users"), auditHook)
//	users := core.Attach(inner, timestampHook)
//	_, err := users.InsertOne(ctx, bson.M{"name": "a"}) // timestamp.before, audit.before, insert, audit.after, timestamp.after
func Attach(coll Collection, hook Hook) *HookedCollection {
	c := &HookedCollection{inner: coll, hook: hook}

	c.insertOne = Wrap(func(ctx context.Context, args Args) (any, error) {
		opts, err := optionsArg[*options.InsertOneOptions](OperationInsertOne, args)
		if err != nil {
			return nil, err
		}
		return coll.InsertOne(ctx, args[0], opts...)
	}, hook, OperationInsertOne)

	c.insertMany = Wrap(func(ctx context.Context, args Args) (any, error) {
		opts, err := optionsArg[*options.InsertManyOptions](OperationInsertMany, args)
		if err != nil {
			return nil, err
		}
		documents, ok := args[0].([]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: insertMany expects []interface{} documents, got %T", ErrInvalidArgument, args[0])
		}
		return coll.InsertMany(ctx, documents, opts...)
	}, hook, OperationInsertMany)

	c.updateOne = Wrap(func(ctx context.Context, args Args) (any, error) {
		opts, err := optionsArg[*options.UpdateOptions](OperationUpdateOne, args)
		if err != nil {
			return nil, err
		}
		return coll.UpdateOne(ctx, args[0], args[1], opts...)
	}, hook, OperationUpdateOne)

	c.updateMany = Wrap(func(ctx context.Context, args Args) (any, error) {
		opts, err := optionsArg[*options.UpdateOptions](OperationUpdateMany, args)
		if err != nil {
			return nil, err
		}
		return coll.UpdateMany(ctx, args[0], args[1], opts...)
	}, hook, OperationUpdateMany)

	c.replaceOne = Wrap(func(ctx context.Context, args Args) (any, error) {
		opts, err := optionsArg[*options.ReplaceOptions](OperationReplaceOne, args)
		if err != nil {
			return nil, err
		}
		return coll.ReplaceOne(ctx, args[0], args[1], opts...)
	}, hook, OperationReplaceOne)

	c.findOneAndUpdate = Wrap(func(ctx context.Context, args Args) (any, error) {
		opts, err := optionsArg[*options.FindOneAndUpdateOptions](OperationFindOneAndUpdate, args)
		if err != nil {
			return nil, err
		}
		result := coll.FindOneAndUpdate(ctx, args[0], args[1], opts...)
		return result, singleResultErr(result)
	}, hook, OperationFindOneAndUpdate)

	c.findOneAndReplace = Wrap(func(ctx context.Context, args Args) (any, error) {
		opts, err := optionsArg[*options.FindOneAndReplaceOptions](OperationFindOneAndReplace, args)
		if err != nil {
			return nil, err
		}
		result := coll.FindOneAndReplace(ctx, args[0], args[1], opts...)
		return result, singleResultErr(result)
	}, hook, OperationFindOneAndReplace)

	c.findOneAndDelete = Wrap(func(ctx context.Context, args Args) (any, error) {
		opts, err := optionsArg[*options.FindOneAndDeleteOptions](OperationFindOneAndDelete, args)
		if err != nil {
			return nil, err
		}
		result := coll.FindOneAndDelete(ctx, args[0], opts...)
		return result, singleResultErr(result)
	}, hook, OperationFindOneAndDelete)

	c.deleteOne = Wrap(func(ctx context.Context, args Args) (any, error) {
		opts, err := optionsArg[*options.DeleteOptions](OperationDeleteOne, args)
		if err != nil {
			return nil, err
		}
		return coll.DeleteOne(ctx, args[0], opts...)
	}, hook, OperationDeleteOne)

	c.deleteMany = Wrap(func(ctx context.Context, args Args) (any, error) {
		opts, err := optionsArg[*options.DeleteOptions](OperationDeleteMany, args)
		if err != nil {
			return nil, err
		}
		return coll.DeleteMany(ctx, args[0], opts...)
	}, hook, OperationDeleteMany)

	c.bulkWrite = Wrap(func(ctx context.Context, args Args) (any, error) {
		opts, err := optionsArg[*options.BulkWriteOptions](OperationBulkWrite, args)
		if err != nil {
			return nil, err
		}
		models, ok := args[0].([]mongo.WriteModel)
		if !ok {
			return nil, fmt.Errorf("%w: bulkWrite expects []mongo.WriteModel, got %T", ErrInvalidArgument, args[0])
		}
		return coll.BulkWrite(ctx, models, opts...)
	}, hook, OperationBulkWrite)

	return c
}

// Unwrap returns the collection the hook was attached to.
func (c *HookedCollection) Unwrap() Collection { return c.inner }

// Hook returns the hook attached by Attach.
func (c *HookedCollection) Hook() Hook { return c.hook }

func (c *HookedCollection) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	result, err := c.insertOne(ctx, withOptions(Args{document}, opts))
	res, _ := result.(*mongo.InsertOneResult)
	return res, err
}

func (c *HookedCollection) InsertMany(ctx context.Context, documents []interface{}, opts ...*options.InsertManyOptions) (*mongo.InsertManyResult, error) {
	result, err := c.insertMany(ctx, withOptions(Args{documents}, opts))
	res, _ := result.(*mongo.InsertManyResult)
	return res, err
}

func (c *HookedCollection) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	result, err := c.updateOne(ctx, withOptions(Args{filter, update}, opts))
	res, _ := result.(*mongo.UpdateResult)
	return res, err
}

func (c *HookedCollection) UpdateMany(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	result, err := c.updateMany(ctx, withOptions(Args{filter, update}, opts))
	res, _ := result.(*mongo.UpdateResult)
	return res, err
}

func (c *HookedCollection) ReplaceOne(ctx context.Context, filter interface{}, replacement interface{}, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error) {
	result, err := c.replaceOne(ctx, withOptions(Args{filter, replacement}, opts))
	res, _ := result.(*mongo.UpdateResult)
	return res, err
}

func (c *HookedCollection) FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}, opts ...*options.FindOneAndUpdateOptions) *mongo.SingleResult {
	return singleResult(c.findOneAndUpdate(ctx, withOptions(Args{filter, update}, opts)))
}

func (c *HookedCollection) FindOneAndReplace(ctx context.Context, filter interface{}, replacement interface{}, opts ...*options.FindOneAndReplaceOptions) *mongo.SingleResult {
	return singleResult(c.findOneAndReplace(ctx, withOptions(Args{filter, replacement}, opts)))
}

func (c *HookedCollection) FindOneAndDelete(ctx context.Context, filter interface{}, opts ...*options.FindOneAndDeleteOptions) *mongo.SingleResult {
	return singleResult(c.findOneAndDelete(ctx, withOptions(Args{filter}, opts)))
}

func (c *HookedCollection) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	result, err := c.deleteOne(ctx, withOptions(Args{filter}, opts))
	res, _ := result.(*mongo.DeleteResult)
	return res, err
}

func (c *HookedCollection) DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	result, err := c.deleteMany(ctx, withOptions(Args{filter}, opts))
	res, _ := result.(*mongo.DeleteResult)
	return res, err
}

func (c *HookedCollection) BulkWrite(ctx context.Context, models []mongo.WriteModel, opts ...*options.BulkWriteOptions) (*mongo.BulkWriteResult, error) {
	result, err := c.bulkWrite(ctx, withOptions(Args{models}, opts))
	res, _ := result.(*mongo.BulkWriteResult)
	return res, err
}

//region Helpers

// withOptions appends the variadic options as one trailing element, only
// when the caller passed any.
func withOptions[T any](args Args, opts []T) Args {
	if len(opts) == 0 {
		return args
	}
	return append(args, opts)
}

// optionsArg reads the trailing options element back. A single options value
// is accepted as well as the slice, so hooks may hand-build argument lists.
func optionsArg[T any](op Operation, args Args) ([]T, error) {
	required := requiredArgs[Classify(op)]
	if len(args) < required || len(args) > required+1 {
		return nil, fmt.Errorf("%w: %s takes %d or %d arguments, got %d", ErrInvalidArity, op, required, required+1, len(args))
	}
	if len(args) == required {
		return nil, nil
	}
	switch v := args[required].(type) {
	case nil:
		return nil, nil
	case []T:
		return v, nil
	case T:
		return []T{v}, nil
	default:
		var zero []T
		return nil, fmt.Errorf("%w: %s options must be %T, got %T", ErrInvalidArgument, op, zero, v)
	}
}

// singleResultErr extracts the failure carried by a SingleResult. A missing
// document is a normal outcome of findOneAnd*, not a failure.
func singleResultErr(result *mongo.SingleResult) error {
	if result == nil {
		return nil
	}
	if err := result.Err(); err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return err
	}
	return nil
}

func singleResult(result any, err error) *mongo.SingleResult {
	if err != nil {
		return mongo.NewSingleResultFromDocument(bson.D{}, err, nil)
	}
	res, _ := result.(*mongo.SingleResult)
	return res
}

//endregion

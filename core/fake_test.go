package core_test

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/albert-team/mongol/core"
)

// recordedCall is what fakeCollection saw for one method call.
type recordedCall struct {
	Operation core.Operation
	Args      core.Args
}

// fakeCollection records every call and answers with canned results. When err
// is set every method fails with it.
type fakeCollection struct {
	mutex sync.Mutex
	calls []recordedCall
	err   error
	// singleErr, when set, is carried by the SingleResult of findOneAnd*.
	singleErr error
	// trace receives one entry per call, shared with hooks under test.
	trace *[]string
}

func (f *fakeCollection) record(op core.Operation, args core.Args) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.calls = append(f.calls, recordedCall{Operation: op, Args: args})
	if f.trace != nil {
		*f.trace = append(*f.trace, "during")
	}
}

func (f *fakeCollection) lastCall() recordedCall {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if len(f.calls) == 0 {
		return recordedCall{}
	}
	return f.calls[len(f.calls)-1]
}

func (f *fakeCollection) callCount() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return len(f.calls)
}

func appendOptions[T any](args core.Args, opts []T) core.Args {
	if len(opts) == 0 {
		return args
	}
	return append(args, opts)
}

func (f *fakeCollection) singleResult() *mongo.SingleResult {
	if f.err != nil {
		return mongo.NewSingleResultFromDocument(bson.D{}, f.err, nil)
	}
	return mongo.NewSingleResultFromDocument(bson.D{{Key: "_id", Value: 1}}, f.singleErr, nil)
}

func (f *fakeCollection) InsertOne(_ context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	f.record(core.OperationInsertOne, appendOptions(core.Args{document}, opts))
	if f.err != nil {
		return nil, f.err
	}
	return &mongo.InsertOneResult{InsertedID: 1}, nil
}

func (f *fakeCollection) InsertMany(_ context.Context, documents []interface{}, opts ...*options.InsertManyOptions) (*mongo.InsertManyResult, error) {
	f.record(core.OperationInsertMany, appendOptions(core.Args{documents}, opts))
	if f.err != nil {
		return nil, f.err
	}
	ids := make([]interface{}, len(documents))
	for i := range documents {
		ids[i] = i + 1
	}
	return &mongo.InsertManyResult{InsertedIDs: ids}, nil
}

func (f *fakeCollection) UpdateOne(_ context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	f.record(core.OperationUpdateOne, appendOptions(core.Args{filter, update}, opts))
	if f.err != nil {
		return nil, f.err
	}
	return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (f *fakeCollection) UpdateMany(_ context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	f.record(core.OperationUpdateMany, appendOptions(core.Args{filter, update}, opts))
	if f.err != nil {
		return nil, f.err
	}
	return &mongo.UpdateResult{MatchedCount: 2, ModifiedCount: 2}, nil
}

func (f *fakeCollection) ReplaceOne(_ context.Context, filter interface{}, replacement interface{}, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error) {
	f.record(core.OperationReplaceOne, appendOptions(core.Args{filter, replacement}, opts))
	if f.err != nil {
		return nil, f.err
	}
	return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (f *fakeCollection) FindOneAndUpdate(_ context.Context, filter interface{}, update interface{}, opts ...*options.FindOneAndUpdateOptions) *mongo.SingleResult {
	f.record(core.OperationFindOneAndUpdate, appendOptions(core.Args{filter, update}, opts))
	return f.singleResult()
}

func (f *fakeCollection) FindOneAndReplace(_ context.Context, filter interface{}, replacement interface{}, opts ...*options.FindOneAndReplaceOptions) *mongo.SingleResult {
	f.record(core.OperationFindOneAndReplace, appendOptions(core.Args{filter, replacement}, opts))
	return f.singleResult()
}

func (f *fakeCollection) FindOneAndDelete(_ context.Context, filter interface{}, opts ...*options.FindOneAndDeleteOptions) *mongo.SingleResult {
	f.record(core.OperationFindOneAndDelete, appendOptions(core.Args{filter}, opts))
	return f.singleResult()
}

func (f *fakeCollection) DeleteOne(_ context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	f.record(core.OperationDeleteOne, appendOptions(core.Args{filter}, opts))
	if f.err != nil {
		return nil, f.err
	}
	return &mongo.DeleteResult{DeletedCount: 1}, nil
}

func (f *fakeCollection) DeleteMany(_ context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	f.record(core.OperationDeleteMany, appendOptions(core.Args{filter}, opts))
	if f.err != nil {
		return nil, f.err
	}
	return &mongo.DeleteResult{DeletedCount: 3}, nil
}

func (f *fakeCollection) BulkWrite(_ context.Context, models []mongo.WriteModel, opts ...*options.BulkWriteOptions) (*mongo.BulkWriteResult, error) {
	f.record(core.OperationBulkWrite, appendOptions(core.Args{models}, opts))
	if f.err != nil {
		return nil, f.err
	}
	return &mongo.BulkWriteResult{InsertedCount: int64(len(models))}, nil
}

var _ core.Collection = (*fakeCollection)(nil)

// Package core provides the interception pipeline for MongoDB collection writes.
// This file defines the closed set of intercepted operations and the kinds
// they are classified into.
package core

// Operation identifies a specific write method of a MongoDB collection.
//
// The set is closed: every value declared below is intercepted by Attach,
// and no other value is accepted by Parse or Unparse.
type Operation string

const (
	OperationInsertOne         Operation = "insertOne"
	OperationInsertMany        Operation = "insertMany"
	OperationUpdateOne         Operation = "updateOne"
	OperationUpdateMany        Operation = "updateMany"
	OperationReplaceOne        Operation = "replaceOne"
	OperationFindOneAndUpdate  Operation = "findOneAndUpdate"
	OperationFindOneAndReplace Operation = "findOneAndReplace"
	OperationFindOneAndDelete  Operation = "findOneAndDelete"
	OperationDeleteOne         Operation = "deleteOne"
	OperationDeleteMany        Operation = "deleteMany"
	OperationBulkWrite         Operation = "bulkWrite"
)

// Kind is the coarse classification of an Operation.
//
// Hook authors that only care about "an update happened" switch on Kind
// rather than on every Operation.
type Kind string

const (
	KindInsert    Kind = "insert"
	KindUpdate    Kind = "update"
	KindReplace   Kind = "replace"
	KindDelete    Kind = "delete"
	KindBulkWrite Kind = "bulkWrite"
)

var operationList = []Operation{
	OperationInsertOne,
	OperationInsertMany,
	OperationUpdateOne,
	OperationUpdateMany,
	OperationReplaceOne,
	OperationFindOneAndUpdate,
	OperationFindOneAndReplace,
	OperationFindOneAndDelete,
	OperationDeleteOne,
	OperationDeleteMany,
	OperationBulkWrite,
}

var kindByOperation = map[Operation]Kind{
	OperationInsertOne:         KindInsert,
	OperationInsertMany:        KindInsert,
	OperationUpdateOne:         KindUpdate,
	OperationUpdateMany:        KindUpdate,
	OperationFindOneAndUpdate:  KindUpdate,
	OperationReplaceOne:        KindReplace,
	OperationFindOneAndReplace: KindReplace,
	OperationDeleteOne:         KindDelete,
	OperationDeleteMany:        KindDelete,
	OperationFindOneAndDelete:  KindDelete,
	OperationBulkWrite:         KindBulkWrite,
}

// Operations returns every intercepted operation in a stable order.
func Operations() []Operation {
	out := make([]Operation, len(operationList))
	copy(out, operationList)
	return out
}

// Classify maps an operation to its kind.
//
// The mapping is total over the declared operations. A value outside the set
// classifies to the empty Kind.
//
// Example:
//
//	core.Classify(core.OperationFindOneAndUpdate) // core.KindUpdate
func Classify(op Operation) Kind {
	return kindByOperation[op]
}

// Kind is shorthand for Classify(op).
func (op Operation) Kind() Kind {
	return Classify(op)
}

// Valid reports whether op belongs to the intercepted set.
func (op Operation) Valid() bool {
	_, ok := kindByOperation[op]
	return ok
}

func (op Operation) String() string { return string(op) }

func (k Kind) String() string { return string(k) }

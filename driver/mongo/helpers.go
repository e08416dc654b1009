// Package driver provides the MongoDB client used to apply collection schemas
// and to attach hooks to collections.
// This file contains helpers that build the schema commands sent to the server.
package driver

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// decodeSchema turns a schema given as extended JSON text into a document.
// Documents are returned unchanged.
//
// Example:
//
//	schema, _ := decodeSchema(`{"bsonType": "object"}`)
//	// bson.M{"bsonType": "object"}
func decodeSchema(schema any) (any, error) {
	var data []byte
	switch s := schema.(type) {
	case nil:
		return nil, fmt.Errorf("%w: schema is nil", ErrInvalidSchema)
	case string:
		data = []byte(s)
	case []byte:
		data = s
	default:
		return schema, nil
	}
	var out bson.M
	if err := bson.UnmarshalExtJSON(data, false, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	return out, nil
}

// validatorDocument wraps a schema into a $jsonSchema validator.
func validatorDocument(schema any) bson.M {
	return bson.M{"$jsonSchema": schema}
}

// collModCommand builds the command replacing the validator of an existing
// collection.
func collModCommand(collection string, schema any) bson.D {
	return bson.D{
		{Key: "collMod", Value: collection},
		{Key: "validator", Value: validatorDocument(schema)},
	}
}

func containsName(nameList []string, name string) bool {
	for _, n := range nameList {
		if n == name {
			return true
		}
	}
	return false
}

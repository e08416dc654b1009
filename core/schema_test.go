package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/albert-team/mongol/core"
)

func TestStrip(t *testing.T) {
	format := map[string]struct{}{"format": {}}
	typ := map[string]struct{}{"type": {}}

	tests := []struct {
		name     string
		tree     any
		excluded map[string]struct{}
		want     any
	}{
		{
			name: "removes only format",
			tree: bson.M{"type": "object", "properties": bson.M{
				"x": bson.M{"type": "string", "format": "date"},
			}},
			excluded: format,
			want: bson.M{"type": "object", "properties": bson.M{
				"x": bson.M{"type": "string"},
			}},
		},
		{
			name: "removes type at every depth",
			tree: map[string]any{"type": "object", "bsonType": "object", "properties": map[string]any{
				"tags": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			}},
			excluded: typ,
			want: map[string]any{"bsonType": "object", "properties": map[string]any{
				"tags": map[string]any{"items": map[string]any{}},
			}},
		},
		{
			name:     "arrays of scalars pass through",
			tree:     bson.M{"enum": bson.A{"a", "b", 1}, "required": []any{"name"}},
			excluded: format,
			want:     bson.M{"enum": bson.A{"a", "b", 1}, "required": []any{"name"}},
		},
		{
			name:     "objects inside arrays are walked",
			tree:     bson.M{"anyOf": bson.A{bson.M{"type": "string", "format": "email"}, bson.M{"type": "null"}}},
			excluded: format,
			want:     bson.M{"anyOf": bson.A{bson.M{"type": "string"}, bson.M{"type": "null"}}},
		},
		{
			name:     "ordered documents keep their order",
			tree:     bson.D{{Key: "bsonType", Value: "object"}, {Key: "format", Value: "x"}, {Key: "title", Value: "t"}},
			excluded: format,
			want:     bson.D{{Key: "bsonType", Value: "object"}, {Key: "title", Value: "t"}},
		},
		{
			name:     "scalar root",
			tree:     "format",
			excluded: format,
			want:     "format",
		},
		{
			name:     "empty exclusion set copies",
			tree:     bson.M{"format": "date"},
			excluded: map[string]struct{}{},
			want:     bson.M{"format": "date"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, core.Strip(tt.tree, tt.excluded))
		})
	}
}

func TestStrip_TypedContainers(t *testing.T) {
	format := map[string]struct{}{"format": {}}

	tests := []struct {
		name string
		tree any
		want any
	}{
		{
			name: "slice of bson.M",
			tree: bson.M{"anyOf": []bson.M{{"type": "string", "format": "date"}}},
			want: bson.M{"anyOf": []bson.M{{"type": "string"}}},
		},
		{
			name: "slice of bson.D",
			tree: bson.M{"allOf": []bson.D{{{Key: "format", Value: "x"}, {Key: "minLength", Value: 1}}}},
			want: bson.M{"allOf": []bson.D{{{Key: "minLength", Value: 1}}}},
		},
		{
			name: "slice of maps",
			tree: bson.M{"oneOf": []map[string]any{{"format": "email"}, {"type": "null"}}},
			want: bson.M{"oneOf": []map[string]any{{}, {"type": "null"}}},
		},
		{
			name: "map of bson.M",
			tree: bson.M{"properties": map[string]bson.M{"x": {"type": "string", "format": "y"}}},
			want: bson.M{"properties": map[string]bson.M{"x": {"type": "string"}}},
		},
		{
			name: "nested typed containers",
			tree: map[string]bson.M{"p": {"anyOf": []bson.M{{"format": "z", "bsonType": "date"}}}},
			want: map[string]bson.M{"p": {"anyOf": []bson.M{{"bsonType": "date"}}}},
		},
		{
			name: "slice of strings is copied",
			tree: bson.M{"required": []string{"format", "name"}},
			want: bson.M{"required": []string{"format", "name"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, core.Strip(tt.tree, format))
		})
	}
}

func TestStrip_TypedContainersNotMutated(t *testing.T) {
	anyOf := []bson.M{{"format": "date"}}
	props := map[string]bson.M{"x": {"format": "y"}}

	core.Strip(bson.M{"anyOf": anyOf, "properties": props}, map[string]struct{}{"format": {}})

	assert.Equal(t, []bson.M{{"format": "date"}}, anyOf)
	assert.Equal(t, map[string]bson.M{"x": {"format": "y"}}, props)
}

func TestStrip_DoesNotMutate(t *testing.T) {
	tree := bson.M{
		"$schema":    "http://json-schema.org/draft-07/schema#",
		"type":       "object",
		"properties": bson.M{"x": bson.M{"type": "string", "format": "date"}},
		"anyOf":      bson.A{bson.M{"format": "email"}},
	}

	core.Strip(tree, core.SchemaKeywords(core.SchemaOptions{IgnoreUnsupportedKeywords: true, IgnoreType: true}))

	assert.Equal(t, bson.M{
		"$schema":    "http://json-schema.org/draft-07/schema#",
		"type":       "object",
		"properties": bson.M{"x": bson.M{"type": "string", "format": "date"}},
		"anyOf":      bson.A{bson.M{"format": "email"}},
	}, tree)
}

func TestSchemaKeywords(t *testing.T) {
	keys := core.SchemaKeywords(core.DefaultSchemaOptions())
	for _, k := range core.UnsupportedKeywords {
		assert.Contains(t, keys, k)
	}
	assert.NotContains(t, keys, core.TypeKeyword)

	keys = core.SchemaKeywords(core.SchemaOptions{IgnoreType: true})
	assert.Equal(t, map[string]struct{}{core.TypeKeyword: {}}, keys)

	assert.Empty(t, core.SchemaKeywords(core.SchemaOptions{}))
}

package hooks_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/albert-team/mongol/core"
	"github.com/albert-team/mongol/hooks"
)

func failing(err error) core.Capability {
	return func(context.Context, core.Args) (any, error) { return nil, err }
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	hook := hooks.Logging(logger)

	args := core.Args{[]any{bson.M{"a": 1}, bson.M{"a": 2}}}
	got, err := run(t, hook, core.OperationInsertMany, args)
	require.NoError(t, err)
	assert.Equal(t, args, got)

	out := buf.String()
	assert.Contains(t, out, `"operation":"insertMany"`)
	assert.Contains(t, out, `"kind":"insert"`)
	assert.Contains(t, out, `"documents":2`)
	assert.Contains(t, out, `"message":"write intercepted"`)
	assert.Contains(t, out, `"message":"write completed"`)
}

func TestLogging_Failure(t *testing.T) {
	var buf bytes.Buffer
	hook := hooks.Logging(zerolog.New(&buf).Level(zerolog.ErrorLevel))
	errServer := errors.New("not primary")

	_, err := core.Wrap(failing(errServer), hook, core.OperationDeleteOne)(context.Background(), core.Args{bson.M{}})
	assert.Same(t, errServer, err, "the logging hook does not alter failures")

	out := buf.String()
	assert.NotContains(t, out, "write intercepted")
	assert.Contains(t, out, `"level":"error"`)
	assert.Contains(t, out, `"event":"during"`)
	assert.Contains(t, out, `"error":"not primary"`)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := hooks.NewMetrics(reg, "mongol")
	hook := m.Hook()

	_, err := run(t, hook, core.OperationUpdateOne, core.Args{bson.M{}, bson.M{"$set": bson.M{"a": 1}}})
	require.NoError(t, err)
	_, err = run(t, hook, core.OperationUpdateOne, core.Args{bson.M{}, bson.M{"$set": bson.M{"a": 2}}})
	require.NoError(t, err)
	_, err = core.Wrap(failing(errors.New("boom")), hook, core.OperationInsertOne)(context.Background(), core.Args{bson.M{}})
	require.Error(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Started.WithLabelValues("updateOne", "update")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Completed.WithLabelValues("updateOne", "update")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Started.WithLabelValues("insertOne", "insert")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Completed.WithLabelValues("insertOne", "insert")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Failed.WithLabelValues("insertOne", "during")))

	// counters are registered under the namespace
	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "mongol_writes_started_total")
	assert.Contains(t, names, "mongol_writes_failed_total")
}

package hooks

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/albert-team/mongol/core"
)

// Logging returns a hook that logs every intercepted write.
//
// Phases are logged at debug level, failures at error level. The hook never
// changes the arguments and never fails.
func Logging(logger zerolog.Logger) core.Hook {
	return core.Hook{
		Before: func(_ context.Context, hc core.HookContext, args core.Args) (core.Replacement, error) {
			event := logger.Debug().
				Str("operation", hc.Operation.String()).
				Str("kind", hc.Kind.String()).
				Str("event", hc.Event.String()).
				Int("args", len(args))
			if hc.Arguments != nil {
				event = event.
					Int("documents", len(hc.Arguments.Documents)).
					Int("sub_operations", len(hc.Arguments.SubOperations))
			}
			event.Msg("write intercepted")
			return core.Keep(), nil
		},
		After: func(_ context.Context, hc core.HookContext, _ any) error {
			logger.Debug().
				Str("operation", hc.Operation.String()).
				Str("kind", hc.Kind.String()).
				Str("event", hc.Event.String()).
				Msg("write completed")
			return nil
		},
		Error: func(_ context.Context, hc core.HookContext, err error) error {
			logger.Error().
				Err(err).
				Str("operation", hc.Operation.String()).
				Str("kind", hc.Kind.String()).
				Str("event", hc.Event.String()).
				Msg("write failed")
			return nil
		},
	}
}

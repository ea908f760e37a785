// Package log is a thin wrapper over zerolog matching the call
// convention this module's groups use at their log sites: a required
// context, a message, and an even number of key/value pairs.
package log

import (
	"context"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

func event(ctx context.Context, e *zerolog.Event, msg string, kv ...interface{}) {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, kv[i+1])
	}
	e.Ctx(ctx).Msg(msg)
}

// Debug logs at debug level.
func Debug(ctx context.Context, msg string, kv ...interface{}) {
	event(ctx, zlog.Debug(), msg, kv...)
}

// Info logs at info level.
func Info(ctx context.Context, msg string, kv ...interface{}) {
	event(ctx, zlog.Info(), msg, kv...)
}

// Warn logs at warn level.
func Warn(ctx context.Context, msg string, kv ...interface{}) {
	event(ctx, zlog.Warn(), msg, kv...)
}

// Error logs at error level. By convention the last kv pair is often
// ("err", err). ctx is required at every call site so request-scoped
// fields are always available to attach.
func Error(ctx context.Context, msg string, kv ...interface{}) {
	event(ctx, zlog.Error(), msg, kv...)
}

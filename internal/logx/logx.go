package logx

import (
	"context"

	"pkt.systems/pslog"
)

type contextKey int

const (
	sessionKey contextKey = iota
	jobKey
)

// Ctx returns the logger bound to the provided context.
func Ctx(ctx context.Context) pslog.Logger {
	return pslog.Ctx(ctx)
}

// WithSession annotates the logger with the document a session edits.
func WithSession(log pslog.Logger, path string) pslog.Logger {
	if path != "" {
		log = log.With("session", path)
	}
	return log
}

// WithJob annotates the logger with job identifiers when available.
func WithJob(log pslog.Logger, id, name string) pslog.Logger {
	if id != "" {
		log = log.With("job", id)
	}
	if name != "" {
		log = log.With("job_name", name)
	}
	return log
}

// WithTool annotates the logger with the external tool being run.
func WithTool(log pslog.Logger, tool string) pslog.Logger {
	if tool != "" {
		log = log.With("tool", tool)
	}
	return log
}

// ContextWithSession stores the session marker on the context for log de-duplication.
func ContextWithSession(ctx context.Context, path string) context.Context {
	if ctx == nil || path == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionKey, path)
}

// ContextWithJob stores the job marker on the context for log de-duplication.
func ContextWithJob(ctx context.Context, id string) context.Context {
	if ctx == nil || id == "" {
		return ctx
	}
	return context.WithValue(ctx, jobKey, id)
}

// SessionLogger returns the context logger annotated with path unless the
// context already carries the same session marker.
func SessionLogger(ctx context.Context, path string) pslog.Logger {
	log := pslog.Ctx(ctx)
	if current, ok := ctx.Value(sessionKey).(string); ok && current == path {
		return log
	}
	return WithSession(log, path)
}

// ContextWithSessionLogger attaches the annotated logger and session marker to the context.
func ContextWithSessionLogger(ctx context.Context, log pslog.Logger, path string) context.Context {
	ctx = pslog.ContextWithLogger(ctx, WithSession(log, path))
	return ContextWithSession(ctx, path)
}

// CopyContextFields copies session/job markers from src to dst.
func CopyContextFields(dst context.Context, src context.Context) context.Context {
	if src == nil {
		return dst
	}
	if path, ok := src.Value(sessionKey).(string); ok && path != "" {
		dst = ContextWithSession(dst, path)
	}
	if id, ok := src.Value(jobKey).(string); ok && id != "" {
		dst = ContextWithJob(dst, id)
	}
	return dst
}

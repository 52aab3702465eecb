// Package corelogslog adapts an *asynclogger.Logger into a
// log/slog.Handler, so code already instrumented with slog can hand
// its records to corelog's async dispatch path instead of writing
// them synchronously. Adapted for a Logger whose Record carries no
// structured fields: attrs are rendered as "key=value" pairs and
// appended to the message rather than attached as a typed Field.
package corelogslog

import (
	"context"
	"log/slog"
	"strings"

	"github.com/corelogio/corelog/asynclogger"
	"github.com/corelogio/corelog/record"
)

// Handler is a slog.Handler backed by a corelog async Logger.
type Handler struct {
	logger *asynclogger.Logger
	attrs  []slog.Attr
	group  string
}

// New returns a Handler dispatching through logger. Enabled checks the
// logger's own admission level (SetLogLevel), not a level carried by
// the Handler itself, so changing the logger's level at runtime is
// immediately reflected in slog.Logger.Enabled.
func New(logger *asynclogger.Logger) *Handler {
	return &Handler{logger: logger}
}

// Enabled reports whether level clears the wrapped logger's current
// admission threshold.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return slogLevelToRecord(level) >= h.logger.LogLevel()
}

// Handle renders rec's message and attributes into a single line and
// dispatches it through the wrapped logger at the translated level.
func (h *Handler) Handle(_ context.Context, rec slog.Record) error {
	var b strings.Builder
	b.WriteString(rec.Message)

	writeAttr := func(a slog.Attr) bool {
		appendAttr(&b, h.group, a)
		return true
	}
	for _, a := range h.attrs {
		appendAttr(&b, "", a)
	}
	rec.Attrs(writeAttr)

	h.logger.Log(record.SourceLoc{}, slogLevelToRecord(rec.Level), b.String())
	return nil
}

// WithAttrs returns a new Handler with attrs appended to every future
// Handle call's rendered line.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	if h.group != "" {
		attrs = []slog.Attr{{Key: h.group, Value: slog.GroupValue(attrs...)}}
	}
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &Handler{logger: h.logger, attrs: merged, group: h.group}
}

// WithGroup returns a new Handler whose future attribute keys are
// prefixed with name.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	group := name
	if h.group != "" {
		group = h.group + "." + name
	}
	return &Handler{logger: h.logger, attrs: h.attrs, group: group}
}

func slogLevelToRecord(level slog.Level) record.Level {
	switch {
	case level >= slog.LevelError:
		return record.Error
	case level >= slog.LevelWarn:
		return record.Warn
	case level >= slog.LevelInfo:
		return record.Info
	default:
		return record.Debug
	}
}

// appendAttr writes " key=value" to b, prefixing key with group and
// resolving slog.KindGroup attrs by recursing into their members.
func appendAttr(b *strings.Builder, group string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	key := a.Key
	if group != "" {
		key = group + "." + a.Key
	}

	if a.Value.Kind() == slog.KindGroup {
		for _, child := range a.Value.Group() {
			appendAttr(b, key, child)
		}
		return
	}

	b.WriteByte(' ')
	b.WriteString(key)
	b.WriteByte('=')
	b.WriteString(a.Value.String())
}

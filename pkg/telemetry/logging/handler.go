package logging

import (
	"context"
	"log/slog"
)

// Handler wraps another slog.Handler. It adds the request ID found in the
// record's context and redacts string attributes.
type Handler struct {
	next     slog.Handler
	redactor *Redactor
}

// NewHandler wraps next. A nil redactor disables redaction.
func NewHandler(next slog.Handler, redactor *Redactor) *Handler {
	return &Handler{next: next, redactor: redactor}
}

// Enabled reports whether the wrapped handler handles records at level.
func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle redacts the record's attributes and forwards it.
func (h *Handler) Handle(ctx context.Context, record slog.Record) error {
	out := slog.NewRecord(record.Time, record.Level, h.redactString(record.Message), record.PC)

	if ctx != nil {
		if requestID := GetRequestID(ctx); requestID != "" {
			out.AddAttrs(slog.String("request_id", requestID))
		}
	}

	record.Attrs(func(attr slog.Attr) bool {
		out.AddAttrs(h.redactAttr(attr))
		return true
	})

	return h.next.Handle(ctx, out)
}

// WithAttrs returns a handler whose pre-bound attributes are redacted.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		redacted[i] = h.redactAttr(attr)
	}
	return &Handler{next: h.next.WithAttrs(redacted), redactor: h.redactor}
}

// WithGroup returns a handler that nests subsequent attributes under name.
func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{next: h.next.WithGroup(name), redactor: h.redactor}
}

func (h *Handler) redactString(s string) string {
	if h.redactor == nil {
		return s
	}
	return h.redactor.RedactString(s)
}

func (h *Handler) redactAttr(attr slog.Attr) slog.Attr {
	if h.redactor == nil {
		return attr
	}

	value := attr.Value.Resolve()
	switch value.Kind() {
	case slog.KindString:
		if h.redactor.IsSensitiveKey(attr.Key) {
			return slog.String(attr.Key, RedactValue(value.String()))
		}
		return slog.String(attr.Key, h.redactor.RedactString(value.String()))
	case slog.KindGroup:
		group := value.Group()
		redacted := make([]any, len(group))
		for i, a := range group {
			redacted[i] = h.redactAttr(a)
		}
		return slog.Group(attr.Key, redacted...)
	case slog.KindAny:
		if err, ok := value.Any().(error); ok {
			return slog.String(attr.Key, h.redactor.RedactString(err.Error()))
		}
	}

	return slog.Attr{Key: attr.Key, Value: value}
}

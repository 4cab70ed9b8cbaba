package logging

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/trace"
)

// OTelHandler forwards every record to the wrapped handler and then to the
// global OpenTelemetry logger provider.
type OTelHandler struct {
	handler slog.Handler
	logger  log.Logger
	attrs   []slog.Attr
}

func NewOTelHandler(handler slog.Handler, scope string) *OTelHandler {
	return &OTelHandler{
		handler: handler,
		logger:  global.GetLoggerProvider().Logger(scope),
	}
}

func (h *OTelHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *OTelHandler) Handle(ctx context.Context, record slog.Record) error {
	if err := h.handler.Handle(ctx, record); err != nil {
		return err
	}

	logRecord := log.Record{}
	logRecord.SetTimestamp(record.Time)
	logRecord.SetBody(log.StringValue(record.Message))
	logRecord.SetSeverity(severity(record.Level))

	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		spanCtx := span.SpanContext()
		logRecord.AddAttributes(
			log.String("trace_id", spanCtx.TraceID().String()),
			log.String("span_id", spanCtx.SpanID().String()),
		)
	}

	for _, attr := range h.attrs {
		logRecord.AddAttributes(log.String(attr.Key, attr.Value.String()))
	}
	record.Attrs(func(attr slog.Attr) bool {
		logRecord.AddAttributes(log.String(attr.Key, attr.Value.String()))
		return true
	})

	h.logger.Emit(ctx, logRecord)
	return nil
}

func (h *OTelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &OTelHandler{
		handler: h.handler.WithAttrs(attrs),
		logger:  h.logger,
		attrs:   merged,
	}
}

func (h *OTelHandler) WithGroup(name string) slog.Handler {
	return &OTelHandler{
		handler: h.handler.WithGroup(name),
		logger:  h.logger,
		attrs:   h.attrs,
	}
}

func severity(level slog.Level) log.Severity {
	switch {
	case level >= slog.LevelError:
		return log.SeverityError
	case level >= slog.LevelWarn:
		return log.SeverityWarn
	case level >= slog.LevelInfo:
		return log.SeverityInfo
	default:
		return log.SeverityDebug
	}
}

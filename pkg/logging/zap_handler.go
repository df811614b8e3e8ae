package logging

import (
	"context"
	"io"
	"log/slog"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapHandler is a slog.Handler that writes through a zap core
type ZapHandler struct {
	core zapcore.Core
}

// NewZapHandler creates a handler that encodes JSON with zap's production
// encoder config
func NewZapHandler(w io.Writer, level slog.Level) *ZapHandler {
	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	core := zapcore.NewCore(encoder, zapcore.AddSync(w), toZapLevel(level))
	return NewZapHandlerFromCore(core)
}

// NewZapHandlerFromCore wraps an existing zap core
func NewZapHandlerFromCore(core zapcore.Core) *ZapHandler {
	return &ZapHandler{core: core}
}

// Enabled reports whether the core accepts records at level
func (h *ZapHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.core.Enabled(toZapLevel(level))
}

// Handle converts the record's attributes to zap fields and writes them
func (h *ZapHandler) Handle(_ context.Context, r slog.Record) error {
	entry := zapcore.Entry{
		Level:   toZapLevel(r.Level),
		Time:    r.Time,
		Message: r.Message,
	}
	ce := h.core.Check(entry, nil)
	if ce == nil {
		return nil
	}

	fields := make([]zap.Field, 0, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		fields = append(fields, slogAttrToZapField(sanitizeAttributes(nil, a)))
		return true
	})
	ce.Write(fields...)
	return nil
}

// WithAttrs returns a handler that always includes attrs
func (h *ZapHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	fields := make([]zap.Field, len(attrs))
	for i, a := range attrs {
		fields[i] = slogAttrToZapField(sanitizeAttributes(nil, a))
	}
	return &ZapHandler{core: h.core.With(fields)}
}

// WithGroup nests subsequent attributes under name
func (h *ZapHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &ZapHandler{core: h.core.With([]zap.Field{zap.Namespace(name)})}
}

// Sync flushes buffered entries
func (h *ZapHandler) Sync() error {
	return h.core.Sync()
}

func toZapLevel(level slog.Level) zapcore.Level {
	switch {
	case level < slog.LevelInfo:
		return zapcore.DebugLevel
	case level < slog.LevelWarn:
		return zapcore.InfoLevel
	case level < slog.LevelError:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}

func slogAttrToZapField(a slog.Attr) zap.Field {
	a.Value = a.Value.Resolve()

	switch a.Value.Kind() {
	case slog.KindBool:
		return zap.Bool(a.Key, a.Value.Bool())
	case slog.KindDuration:
		return zap.Duration(a.Key, a.Value.Duration())
	case slog.KindFloat64:
		return zap.Float64(a.Key, a.Value.Float64())
	case slog.KindInt64:
		return zap.Int64(a.Key, a.Value.Int64())
	case slog.KindString:
		return zap.String(a.Key, a.Value.String())
	case slog.KindTime:
		return zap.Time(a.Key, a.Value.Time())
	case slog.KindUint64:
		return zap.Uint64(a.Key, a.Value.Uint64())
	case slog.KindGroup:
		attrs := a.Value.Group()
		return zap.Object(a.Key, zapcore.ObjectMarshalerFunc(func(enc zapcore.ObjectEncoder) error {
			for _, ga := range attrs {
				slogAttrToZapField(ga).AddTo(enc)
			}
			return nil
		}))
	default:
		if err, ok := a.Value.Any().(error); ok {
			return zap.NamedError(a.Key, err)
		}
		return zap.Any(a.Key, a.Value.Any())
	}
}

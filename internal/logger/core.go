package logger

import (
	"go.uber.org/zap/zapcore"
)

// entrySink receives copies of every entry the core writes
type entrySink interface {
	AddLog(entry LogEntry)
}

// DBCore tees log entries to a sink while the wrapped core keeps printing them
type DBCore struct {
	zapcore.Core
	sink   entrySink
	fields []zapcore.Field
}

// NewDBCore wraps an existing core and adds DB logging
func NewDBCore(baseCore zapcore.Core, sink entrySink) zapcore.Core {
	return &DBCore{
		Core: baseCore,
		sink: sink,
	}
}

// With keeps fields attached through logger.With visible to Write
func (c *DBCore) With(fields []zapcore.Field) zapcore.Core {
	merged := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	merged = append(merged, c.fields...)
	merged = append(merged, fields...)
	return &DBCore{
		Core:   c.Core.With(fields),
		sink:   c.sink,
		fields: merged,
	}
}

func (c *DBCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	var ip, username string
	for _, f := range append(c.fields, fields...) {
		switch f.Key {
		case "ip":
			ip = f.String
		case "username":
			username = f.String
		}
	}

	c.sink.AddLog(LogEntry{
		Level:     entry.Level,
		Message:   entry.Message,
		IpAddress: ip,
		Username:  username,
		Caller:    entry.Caller.Function,
	})

	return c.Core.Write(entry, fields)
}

// Check decides if we should log this level
func (c *DBCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

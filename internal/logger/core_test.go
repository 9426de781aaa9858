package logger

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type recordingSink struct {
	mu      sync.Mutex
	entries []LogEntry
}

func (s *recordingSink) AddLog(entry LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
}

func TestDBCoreTeesEntries(t *testing.T) {
	base, observed := observer.New(zapcore.InfoLevel)
	sink := &recordingSink{}
	log := zap.New(NewDBCore(base, sink))

	log.Info("Upload session completed", zap.String("username", "alice"), zap.String("ip", "10.0.0.1"))

	require.Len(t, sink.entries, 1)
	assert.Equal(t, "Upload session completed", sink.entries[0].Message)
	assert.Equal(t, "alice", sink.entries[0].Username)
	assert.Equal(t, "10.0.0.1", sink.entries[0].IpAddress)
	assert.Equal(t, 1, observed.Len())
}

func TestDBCoreKeepsWithFields(t *testing.T) {
	base, _ := observer.New(zapcore.InfoLevel)
	sink := &recordingSink{}
	log := zap.New(NewDBCore(base, sink)).With(zap.String("username", "bob"))

	log.Warn("Failed to discard staged file")

	require.Len(t, sink.entries, 1)
	assert.Equal(t, "bob", sink.entries[0].Username)
	assert.Equal(t, zapcore.WarnLevel, sink.entries[0].Level)
}

func TestDBCoreRespectsLevel(t *testing.T) {
	base, observed := observer.New(zapcore.WarnLevel)
	sink := &recordingSink{}
	log := zap.New(NewDBCore(base, sink))

	log.Debug("noise")
	log.Info("still noise")

	assert.Empty(t, sink.entries)
	assert.Equal(t, 0, observed.Len())
}

func TestMapLevelToInt(t *testing.T) {
	assert.Equal(t, 10, mapLevelToInt(zapcore.DebugLevel))
	assert.Equal(t, 40, mapLevelToInt(zapcore.ErrorLevel))
	assert.Equal(t, 20, mapLevelToInt(zapcore.DPanicLevel))
}

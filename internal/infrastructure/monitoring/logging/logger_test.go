package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLoggerDefaults(t *testing.T) {
	log, err := NewLogger(LogConfig{})
	require.NoError(t, err)
	require.NotNil(t, log)
	log.Info("startup") // must not panic
}

func TestFieldsReachTheCore(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	log := NewLoggerFromCore(core)

	log.Info("inserted batch",
		String("job", "epo-load"),
		Int("rows", 500),
		Bool("final", false),
	)

	entries := observed.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "inserted batch", entries[0].Message)

	fields := entries[0].ContextMap()
	assert.Equal(t, "epo-load", fields["job"])
	assert.EqualValues(t, 500, fields["rows"])
	assert.Equal(t, false, fields["final"])
}

func TestWithAttachesFieldsToChildren(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	log := NewLoggerFromCore(core).With(String("run_id", "abc"))

	log.Warn("discarded document", String("reason", "malformed-xml"))

	entries := observed.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "abc", entries[0].ContextMap()["run_id"])
}

func TestErrFieldHandlesNil(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	log := NewLoggerFromCore(core)

	log.Error("failed", Err(nil))

	entries := observed.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "<nil>", entries[0].ContextMap()["error"])
}

func TestNopLoggerIsSilent(t *testing.T) {
	log := NewNopLogger()
	log.Info("noise")
	log.With(String("k", "v")).Named("child").Error("more noise")
}

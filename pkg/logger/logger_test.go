package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFromVerbosity(t *testing.T) {
	tests := []struct {
		verbosity int
		expected  logrus.Level
	}{
		{-1, logrus.InfoLevel},
		{0, logrus.InfoLevel},
		{1, logrus.DebugLevel},
		{2, logrus.TraceLevel},
		{5, logrus.TraceLevel},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, levelFromVerbosity(tt.verbosity), "verbosity %d", tt.verbosity)
	}
}

func TestRotateFileHook(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "activity.log")

	hook, err := NewRotateFileHook(RotateFileConfig{
		Filename:  logFile,
		MaxSize:   1,
		Level:     logrus.InfoLevel,
		Formatter: &logrus.TextFormatter{DisableColors: true},
	})
	require.NoError(t, err)

	assert.NotContains(t, hook.Levels(), logrus.DebugLevel)
	assert.Contains(t, hook.Levels(), logrus.ErrorLevel)

	l := logrus.New()
	l.SetOutput(os.Stderr)
	entry := logrus.NewEntry(l).WithField("prefix", "test")
	entry.Message = "evicted torrent"
	entry.Level = logrus.InfoLevel

	require.NoError(t, hook.Fire(entry))

	b, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(b), "evicted torrent")
}

func TestGetLoggerPrefix(t *testing.T) {
	for _, prefix := range []string{"clean", "eviction", "transmission"} {
		log := GetLogger(prefix)
		assert.Equal(t, prefix, log.Data["prefix"])
		assert.Len(t, log.Data, 1)
	}
}

package log

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTerminalHandlerFormatsKeyValues(t *testing.T) {
	var buf bytes.Buffer
	logger := New(NewTerminalHandlerWithLevel(&buf, LevelTrace))
	logger.Info("tick advanced", "tick", 42, "worker", 2)

	line := buf.String()
	require.Contains(t, line, "tick advanced")
	require.Contains(t, line, "tick=42")
	require.Contains(t, line, "worker=2")
	require.True(t, strings.HasPrefix(line, "INFO "))
}

func TestGlogHandlerVerbosityGate(t *testing.T) {
	var buf bytes.Buffer
	glog := NewGlogHandler(NewTerminalHandlerWithLevel(&buf, LevelTrace))
	glog.Verbosity(LevelWarn)
	logger := New(glog)

	logger.Debug("should be suppressed")
	require.Empty(t, buf.String())

	logger.Warn("should pass")
	require.Contains(t, buf.String(), "should pass")
}

func TestVmoduleOverridesPerModule(t *testing.T) {
	var buf bytes.Buffer
	glog := NewGlogHandler(NewTerminalHandlerWithLevel(&buf, LevelTrace))
	glog.Verbosity(LevelCrit)
	require.NoError(t, glog.Vmodule("store*=debug"))
	logger := New(glog).With("module", "store/commit.go")

	logger.Debug("commit published")
	require.Contains(t, buf.String(), "commit published")
}

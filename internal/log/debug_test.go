package log

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetDebugLogger(t *testing.T) {
	t.Helper()

	globalDebugLogger.mu.Lock()
	prevOut := globalDebugLogger.out
	prevFile := globalDebugLogger.file
	prevBuffer := append([]byte(nil), globalDebugLogger.buffer...)
	prevDiscard := globalDebugLogger.discard
	globalDebugLogger.out = nil
	globalDebugLogger.file = nil
	globalDebugLogger.buffer = nil
	globalDebugLogger.discard = false
	globalDebugLogger.mu.Unlock()

	t.Cleanup(func() {
		globalDebugLogger.mu.Lock()
		if globalDebugLogger.file != nil {
			_ = globalDebugLogger.file.Close()
		}
		globalDebugLogger.out = prevOut
		globalDebugLogger.file = prevFile
		globalDebugLogger.buffer = prevBuffer
		globalDebugLogger.discard = prevDiscard
		globalDebugLogger.mu.Unlock()
	})
}

func TestBufferedLinesFlushToFile(t *testing.T) {
	resetDebugLogger(t)

	Printf("before %s", "file")
	logPath := filepath.Join(t.TempDir(), "debug.log")
	require.NoError(t, SetFile(logPath))
	Println("after file")
	require.NoError(t, Close())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "before file")
	assert.Contains(t, string(data), "after file")
}

func TestSetFileFailureDiscardsLogs(t *testing.T) {
	resetDebugLogger(t)

	Printf("buffered")
	missing := filepath.Join(t.TempDir(), "missing", "debug.log")
	require.Error(t, SetFile(missing))

	Printf("should be discarded")

	globalDebugLogger.mu.Lock()
	defer globalDebugLogger.mu.Unlock()
	assert.True(t, globalDebugLogger.discard)
	assert.Empty(t, globalDebugLogger.buffer)
}

func TestSetOutputCapturesErrors(t *testing.T) {
	resetDebugLogger(t)

	var buf bytes.Buffer
	SetOutput(&buf)
	Errorf("status missing for %s", "a/x.txt")

	assert.Contains(t, buf.String(), "ERROR: status missing for a/x.txt")

	SetOutput(nil)
	Printf("dropped")
	assert.NotContains(t, buf.String(), "dropped")
}

func TestEmptyPathDiscards(t *testing.T) {
	resetDebugLogger(t)

	Printf("pending")
	require.NoError(t, SetFile(""))
	Printf("ignored")

	globalDebugLogger.mu.Lock()
	defer globalDebugLogger.mu.Unlock()
	assert.Empty(t, globalDebugLogger.buffer)
	assert.Nil(t, globalDebugLogger.file)
}

// Package log holds the process-wide debug logger used by every lazydiff package.
package log

import (
	"io"
	"log"
	"os"
	"sync"
)

// DebugLogger buffers log lines until a destination is configured, then
// writes them to a file or drops them.
type DebugLogger struct {
	mu      sync.Mutex
	out     io.Writer
	file    *os.File
	buffer  []byte
	discard bool
}

var (
	globalDebugLogger = &DebugLogger{}
	stdLogger         = log.New(globalDebugLogger, "", log.LstdFlags|log.Lmicroseconds)
)

// Write implements io.Writer.
func (l *DebugLogger) Write(p []byte) (n int, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.discard {
		return len(p), nil
	}

	if l.out != nil {
		n, err = l.out.Write(p)
		if l.file != nil {
			_ = l.file.Sync()
		}
		return n, err
	}

	// p may be reused by the caller
	b := make([]byte, len(p))
	copy(b, p)
	l.buffer = append(l.buffer, b...)
	return len(p), nil
}

func (l *DebugLogger) closeLocked() error {
	var err error
	if l.file != nil {
		err = l.file.Close()
	}
	l.file = nil
	l.out = nil
	return err
}

func (l *DebugLogger) flushLocked() {
	if len(l.buffer) == 0 || l.out == nil {
		return
	}
	_, _ = l.out.Write(l.buffer)
	if l.file != nil {
		_ = l.file.Sync()
	}
	l.buffer = nil
}

// SetFile sends buffered and future log lines to path, creating it if needed.
// An empty path discards everything.
func SetFile(path string) error {
	globalDebugLogger.mu.Lock()
	defer globalDebugLogger.mu.Unlock()

	_ = globalDebugLogger.closeLocked()

	if path == "" {
		globalDebugLogger.discard = true
		globalDebugLogger.buffer = nil
		return nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600) //nolint:gosec
	if err != nil {
		globalDebugLogger.discard = true
		globalDebugLogger.buffer = nil
		return err
	}

	globalDebugLogger.file = f
	globalDebugLogger.out = f
	globalDebugLogger.discard = false
	globalDebugLogger.flushLocked()
	return nil
}

// SetOutput sends buffered and future log lines to w. A nil w discards them.
func SetOutput(w io.Writer) {
	globalDebugLogger.mu.Lock()
	defer globalDebugLogger.mu.Unlock()

	_ = globalDebugLogger.closeLocked()
	if w == nil {
		globalDebugLogger.discard = true
		globalDebugLogger.buffer = nil
		return
	}
	globalDebugLogger.out = w
	globalDebugLogger.discard = false
	globalDebugLogger.flushLocked()
}

// Printf writes a formatted debug message.
func Printf(format string, args ...any) {
	stdLogger.Printf(format, args...)
}

// Println writes a debug message.
func Println(v ...any) {
	stdLogger.Println(v...)
}

// Errorf writes a formatted message tagged as an error.
func Errorf(format string, args ...any) {
	stdLogger.Printf("ERROR: "+format, args...)
}

// Close closes the debug log file if open.
func Close() error {
	globalDebugLogger.mu.Lock()
	defer globalDebugLogger.mu.Unlock()

	if globalDebugLogger.file == nil {
		return nil
	}
	return globalDebugLogger.closeLocked()
}

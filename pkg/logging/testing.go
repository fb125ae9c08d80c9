package logging

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

// TestLogger is a trace-level JSON logger whose output tests can inspect.
// It is safe for concurrent use.
type TestLogger struct {
	*zerolog.Logger

	mu  sync.Mutex
	buf bytes.Buffer
}

// NewTestLogger returns an empty TestLogger.
func NewTestLogger(t testing.TB) *TestLogger {
	t.Helper()
	tl := &TestLogger{}
	logger := zerolog.New(tl).Level(zerolog.TraceLevel)
	tl.Logger = &logger
	return tl
}

// Write implements io.Writer for the wrapped logger.
func (tl *TestLogger) Write(p []byte) (int, error) {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return tl.buf.Write(p)
}

// Output returns everything logged so far.
func (tl *TestLogger) Output() string {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return tl.buf.String()
}

// Count returns the number of events logged.
func (tl *TestLogger) Count() int {
	out := strings.TrimSpace(tl.Output())
	if out == "" {
		return 0
	}
	return strings.Count(out, "\n") + 1
}

// AssertContains fails t unless the output contains substr.
func (tl *TestLogger) AssertContains(t testing.TB, substr string) {
	t.Helper()
	if out := tl.Output(); !strings.Contains(out, substr) {
		t.Errorf("log output does not contain %q\n%s", substr, out)
	}
}

// AssertNotContains fails t if the output contains substr.
func (tl *TestLogger) AssertNotContains(t testing.TB, substr string) {
	t.Helper()
	if out := tl.Output(); strings.Contains(out, substr) {
		t.Errorf("log output unexpectedly contains %q\n%s", substr, out)
	}
}

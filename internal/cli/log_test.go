package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNewLoggerFiltering(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		emit    func(*log.Logger)
		wantOut string
	}{
		{"info passes at info", log.InfoLevel, func(l *log.Logger) { l.Info("repaint done") }, "repaint done"},
		{"debug filtered at info", log.InfoLevel, func(l *log.Logger) { l.Debug("purge tick") }, ""},
		{"debug passes at debug", log.DebugLevel, func(l *log.Logger) { l.Debug("purge tick") }, "purge tick"},
		{"warn passes at info", log.InfoLevel, func(l *log.Logger) { l.Warn("flush failed") }, "flush failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.emit(newLogger(&buf, tt.level))

			got := buf.String()
			if tt.wantOut == "" && got != "" {
				t.Errorf("unexpected output %q", got)
			}
			if tt.wantOut != "" && !strings.Contains(got, tt.wantOut) {
				t.Errorf("output %q missing %q", got, tt.wantOut)
			}
		})
	}
}

func TestProgressReportsElapsed(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.InfoLevel))

	time.Sleep(5 * time.Millisecond)
	prog.done("replayed 10 payloads")

	out := buf.String()
	if !strings.Contains(out, "replayed 10 payloads") {
		t.Errorf("output %q missing message", out)
	}
	// The elapsed duration is appended in parentheses.
	if !strings.Contains(out, "(") || !strings.Contains(out, ")") {
		t.Errorf("output %q missing duration", out)
	}
}

func TestLoggerContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	custom := newLogger(&buf, log.InfoLevel)

	ctx := withLogger(context.Background(), custom)
	if got := loggerFromContext(ctx); got != custom {
		t.Error("context did not return the attached logger")
	}

	// A bare context falls back to the default logger instead of nil.
	if loggerFromContext(context.Background()) == nil {
		t.Error("missing logger must fall back to the default")
	}
}

package logger

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestHandlerFormatsEngineLines(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewHandlerTo(&buf, slog.LevelInfo))

	log.Info("Quest completed",
		slog.String("type", "engine"),
		slog.String("user_id", "u1"),
		slog.Duration("took", 15*time.Millisecond))

	line := buf.String()
	for _, want := range []string{"[Progression]", "[ENG]", "Quest completed", "user_id=u1", "(took 15ms)"} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q missing %q", line, want)
		}
	}
}

func TestHandlerLevelAndSkips(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewHandlerTo(&buf, slog.LevelWarn))

	log.Info("dropped")
	log.Warn("sending heartbeat")
	if buf.Len() != 0 {
		t.Fatalf("unexpected output %q", buf.String())
	}

	log.Error("Sweep failed", slog.String("type", "error"), slog.Any("error", errors.New("boom")))
	if !strings.Contains(buf.String(), "[ERR]") || !strings.Contains(buf.String(), "boom") {
		t.Errorf("error line = %q", buf.String())
	}
}

func TestWithAttrsDoesNotShareBacking(t *testing.T) {
	var buf bytes.Buffer
	base := NewHandlerTo(&buf, slog.LevelInfo).WithAttrs([]slog.Attr{slog.String("a", "1")})
	one := slog.New(base.WithAttrs([]slog.Attr{slog.String("b", "2")}))
	two := slog.New(base.WithAttrs([]slog.Attr{slog.String("c", "3")}))

	one.Info("first")
	two.Info("second")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d", len(lines))
	}
	if strings.Contains(lines[1], "b=2") {
		t.Errorf("attrs leaked between handlers: %q", lines[1])
	}
}

package jobs

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestSlogAdapterFatalExits(t *testing.T) {
	var buf bytes.Buffer
	code := -1
	a := slogAdapter{
		l:    slog.New(slog.NewTextHandler(&buf, nil)),
		exit: func(c int) { code = c },
	}

	a.Fatal("redis ", "unreachable")
	if code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(buf.String(), "redis unreachable") || !strings.Contains(buf.String(), "level=ERROR") {
		t.Errorf("expected the fatal message logged at error level, got %q", buf.String())
	}
}

func TestSlogAdapterErrorDoesNotExit(t *testing.T) {
	exited := false
	a := slogAdapter{
		l:    slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
		exit: func(int) { exited = true },
	}
	a.Error("transient")
	if exited {
		t.Error("Error must not exit")
	}
}

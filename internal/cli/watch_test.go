package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/ares-console/ares/internal/status"
)

func TestTransitionLineRecovered(t *testing.T) {
	color.NoColor = true
	line := transitionLine("backend", status.Status{
		Connected: true,
		Latency:   8 * time.Millisecond,
		CheckedAt: time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC),
	})
	if !strings.Contains(line, "backend") || !strings.Contains(line, "recovered (8ms)") {
		t.Fatalf("unexpected recovery line: %q", line)
	}
}

func TestTransitionLineDown(t *testing.T) {
	color.NoColor = true
	line := transitionLine("discord", status.Status{
		Connected: false,
		Err:       "timeout",
		CheckedAt: time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC),
	})
	if !strings.Contains(line, "discord") || !strings.Contains(line, "down (timeout)") {
		t.Fatalf("unexpected down line: %q", line)
	}
}

func TestTransitionLineDownWithoutReason(t *testing.T) {
	color.NoColor = true
	line := transitionLine("agent", status.Status{CheckedAt: time.Now()})
	if !strings.Contains(line, "down (unknown)") {
		t.Fatalf("missing fallback reason: %q", line)
	}
}

package cli

import (
	"strings"
	"testing"
	"time"
)

func TestEventWindowDefaults(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	from, to, err := eventWindow("", "", now)
	if err != nil {
		t.Fatalf("defaults errored: %v", err)
	}
	if from.Hour() != 0 {
		t.Fatalf("from should start at midnight, got %s", from)
	}
	if got := to.Sub(from); got != 7*24*time.Hour {
		t.Fatalf("default window is %s, want 168h", got)
	}
}

func TestEventWindowExplicitRange(t *testing.T) {
	from, to, err := eventWindow("2026-03-01", "2026-03-05", time.Now())
	if err != nil {
		t.Fatalf("explicit range errored: %v", err)
	}
	if from != time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) {
		t.Fatalf("bad from: %s", from)
	}
	// the end day itself is part of the window
	if to != time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC) {
		t.Fatalf("end day not inclusive: %s", to)
	}
}

func TestEventWindowRejectsBadInput(t *testing.T) {
	if _, _, err := eventWindow("03/01/2026", "", time.Now()); err == nil || !strings.Contains(err.Error(), "YYYY-MM-DD") {
		t.Fatalf("wrong date format accepted: %v", err)
	}
	if _, _, err := eventWindow("2026-03-10", "2026-03-01", time.Now()); err == nil {
		t.Fatal("inverted range accepted")
	}
}

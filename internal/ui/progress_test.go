package ui

import (
	"strings"
	"testing"
	"time"

	"termkit/internal/driver"
)

func TestProgressModelAppliesEvents(t *testing.T) {
	events := make(chan driver.Event)
	m := NewProgressModel("checking", []string{"a.trm", "b.trm"}, events).(*progressModel)

	m.applyEvent(driver.Event{File: "a.trm", Stage: driver.StageParse, Status: driver.StatusWorking})
	if m.items[0].status != "parsing" {
		t.Fatalf("status = %q", m.items[0].status)
	}
	if got := m.percent(); got != 0.15 {
		t.Fatalf("percent = %v, want 0.15", got)
	}

	m.applyEvent(driver.Event{File: "a.trm", Status: driver.StatusDone, Elapsed: time.Millisecond})
	m.applyEvent(driver.Event{File: "b.trm", Status: driver.StatusCached})
	m.applyEvent(driver.Event{File: "unknown.trm", Status: driver.StatusError})
	if got := m.percent(); got != 1 {
		t.Fatalf("percent = %v, want 1", got)
	}

	view := m.View()
	for _, want := range []string{"checking", "a.trm", "b.trm", "done", "cached", "(1ms)"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view misses %q:\n%s", want, view)
		}
	}
}

func TestProgressModelQuitsOnClose(t *testing.T) {
	events := make(chan driver.Event)
	m := NewProgressModel("checking", []string{"a.trm"}, events).(*progressModel)
	close(events)
	if _, ok := m.listenForEvent()().(doneMsg); !ok {
		t.Fatalf("closed channel did not produce doneMsg")
	}
	m.Update(doneMsg{})
	if !m.done || !strings.Contains(m.View(), "done: checking") {
		t.Fatalf("model not finished:\n%s", m.View())
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short.trm", 20, "short.trm"},
		{"very/long/path/to/file.trm", 10, "very/lo..."},
		{"日本語.trm", 5, "日..."},
		{"abcdef", 3, "abc"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

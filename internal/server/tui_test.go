// ABOUTME: Tests for the server status screen
// ABOUTME: Drives the bubbletea model directly without a terminal
package server

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func TestTUIModelStatusUpdate(t *testing.T) {
	m := tuiModel{startTime: time.Now(), quitChan: make(chan struct{}, 1)}

	status := ServerStatus{
		Name:   "kitchen",
		Port:   8927,
		Source: "tone 440Hz",
		Streams: []StreamInfo{{
			ClientName: "speaker",
			State:      "streaming",
			Codec:      "opus",
			SampleRate: 48000,
			Channels:   1,
			Frames:     42,
		}},
	}

	updated, _ := m.Update(statusMsg(status))
	view := updated.View()

	for _, want := range []string{"kitchen", "8927", "tone 440Hz", "Active Streams (1)", "speaker", "opus 48000Hz 1ch", "42 frames sent"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestTUIModelNoStreams(t *testing.T) {
	m := tuiModel{startTime: time.Now(), quitChan: make(chan struct{}, 1)}

	view := m.View()
	if !strings.Contains(view, "No clients connected") {
		t.Errorf("expected empty stream list, got:\n%s", view)
	}
}

func TestTUIModelQuit(t *testing.T) {
	quit := make(chan struct{}, 1)
	m := tuiModel{startTime: time.Now(), quitChan: quit}

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}

	select {
	case <-quit:
	default:
		t.Error("expected quit signal for the server")
	}

	if !strings.Contains(updated.View(), "Shutting down") {
		t.Errorf("unexpected view after quit: %s", updated.View())
	}
}

func TestDescribeStream(t *testing.T) {
	tests := []struct {
		name string
		info StreamInfo
		want string
	}{
		{"before start", StreamInfo{State: "handshake"}, "handshake"},
		{"streaming", StreamInfo{State: "streaming", Codec: "raw", SampleRate: 16000, Channels: 2, Frames: 3},
			"raw 16000Hz 2ch, streaming, 3 frames sent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := describeStream(tt.info); got != tt.want {
				t.Errorf("describeStream() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestServerTUIUpdateAfterStop(t *testing.T) {
	tui := NewServerTUI("test", 0)
	tui.Stop()

	select {
	case <-tui.Done():
	default:
		t.Fatal("expected Done to be closed after Stop")
	}

	// Must not block or panic once stopped
	for i := 0; i < 20; i++ {
		tui.Update(ServerStatus{Name: "test"})
	}
}

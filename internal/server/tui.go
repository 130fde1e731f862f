// ABOUTME: Server TUI for displaying active streams and stats
// ABOUTME: Real-time server status display using bubbletea
package server

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ServerTUI manages the server TUI
type ServerTUI struct {
	program  *tea.Program
	port     int
	updates  chan ServerStatus
	quitChan chan struct{} // Signal to stop the server
	done     chan struct{}
	stopOnce sync.Once

	mu      sync.Mutex
	started bool
	stopped bool
}

// ServerStatus holds server state for TUI
type ServerStatus struct {
	Name    string
	Port    int
	Uptime  time.Duration
	Source  string
	Streams []StreamInfo
}

// tuiModel is the bubbletea model for server TUI
type tuiModel struct {
	status    ServerStatus
	startTime time.Time
	quitting  bool
	quitChan  chan struct{} // Channel to signal server stop
}

type tickMsg time.Time
type statusMsg ServerStatus

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	streamHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("220"))

	hintStyle = lipgloss.NewStyle().Faint(true)
)

func (m tuiModel) Init() tea.Cmd {
	return tickEvery()
}

func tickEvery() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			m.quitting = true
			select {
			case m.quitChan <- struct{}{}:
			default:
			}
			return m, tea.Quit
		}

	case tickMsg:
		return m, tickEvery()

	case statusMsg:
		m.status = ServerStatus(msg)
		return m, nil
	}

	return m, nil
}

func (m tuiModel) View() string {
	if m.quitting {
		return "Shutting down server...\n"
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Speech Encoder Server"))
	b.WriteString("\n\n")

	field := func(label, value string) {
		b.WriteString(headerStyle.Render(label + ": "))
		b.WriteString(valueStyle.Render(value))
		b.WriteString("\n")
	}

	field("Server", m.status.Name)
	field("Port", fmt.Sprintf("%d", m.status.Port))
	field("Uptime", time.Since(m.startTime).Round(time.Second).String())
	field("Source", m.status.Source)
	b.WriteString("\n")

	b.WriteString(streamHeaderStyle.Render(fmt.Sprintf("Active Streams (%d)", len(m.status.Streams))))
	b.WriteString("\n\n")

	if len(m.status.Streams) == 0 {
		b.WriteString(valueStyle.Render("  No clients connected"))
		b.WriteString("\n")
	}
	for _, st := range m.status.Streams {
		b.WriteString("  • " + st.ClientName)
		b.WriteString(valueStyle.Render(" (" + describeStream(st) + ")"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(hintStyle.Render("Press 'q' or Ctrl+C to quit"))

	return b.String()
}

// describeStream formats codec, rate and progress for one stream
func describeStream(st StreamInfo) string {
	if st.Codec == "" {
		return st.State
	}
	return fmt.Sprintf("%s %dHz %dch, %s, %d frames sent",
		st.Codec, st.SampleRate, st.Channels, st.State, st.Frames)
}

// NewServerTUI creates a new server TUI
func NewServerTUI(serverName string, port int) *ServerTUI {
	t := &ServerTUI{
		port:     port,
		updates:  make(chan ServerStatus, 10),
		quitChan: make(chan struct{}, 1),
		done:     make(chan struct{}),
	}

	m := tuiModel{
		status: ServerStatus{
			Name:   serverName,
			Port:   port,
			Source: "Initializing...",
		},
		startTime: time.Now(),
		quitChan:  t.quitChan,
	}
	t.program = tea.NewProgram(m, tea.WithAltScreen())

	return t
}

// Start runs the TUI until Stop is called or the user quits
func (t *ServerTUI) Start() error {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return nil
	}
	t.started = true
	t.mu.Unlock()

	go func() {
		for {
			select {
			case status := <-t.updates:
				t.program.Send(statusMsg(status))
			case <-t.done:
				return
			}
		}
	}()

	_, err := t.program.Run()
	t.stopOnce.Do(func() { close(t.done) })
	return err
}

// Update sends a status update to the TUI
func (t *ServerTUI) Update(status ServerStatus) {
	select {
	case <-t.done:
	case t.updates <- status:
	default:
		// Don't block if channel is full
	}
}

// Stop stops the TUI
func (t *ServerTUI) Stop() {
	t.mu.Lock()
	t.stopped = true
	started := t.started
	t.mu.Unlock()

	t.stopOnce.Do(func() { close(t.done) })

	// Quit blocks until the program loop is running
	if started {
		t.program.Quit()
	}
}

// QuitChan returns the channel that signals when user wants to quit
func (t *ServerTUI) QuitChan() <-chan struct{} {
	return t.quitChan
}

// Done is closed once the TUI has exited
func (t *ServerTUI) Done() <-chan struct{} {
	return t.done
}

// Command facetop is a terminal viewer for a running gotchi daemon. It polls
// the daemon's JSON status endpoint and renders the face, mood, and sensor
// readings in place.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hydraesp/gotchi/internal/status"
)

func main() {
	url := flag.String("url", "http://localhost:8080/index.json", "daemon status URL")
	refresh := flag.Duration("refresh", time.Second, "poll interval")
	flag.Parse()

	if *refresh <= 0 {
		*refresh = time.Second
	}

	m := newModel(*url, *refresh)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type tickMsg time.Time

type statusMsg struct {
	Status status.StatusJSON
	Err    error
}

type model struct {
	url     string
	refresh time.Duration
	client  *http.Client

	st          status.StatusJSON
	haveStatus  bool
	err         error
	lastUpdated time.Time
	width       int
	height      int
}

func newModel(url string, refresh time.Duration) model {
	return model{
		url:     url,
		refresh: refresh,
		client:  &http.Client{Timeout: 3 * time.Second},
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.fetchCmd(), m.tickCmd())
}

func (m model) tickCmd() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) fetchCmd() tea.Cmd {
	return func() tea.Msg {
		resp, err := m.client.Get(m.url)
		if err != nil {
			return statusMsg{Err: err}
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return statusMsg{Err: fmt.Errorf("daemon returned %s", resp.Status)}
		}
		var st status.StatusJSON
		if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
			return statusMsg{Err: fmt.Errorf("decode status: %w", err)}
		}
		return statusMsg{Status: st}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			return m, m.fetchCmd()
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tickMsg:
		return m, tea.Batch(m.fetchCmd(), m.tickCmd())
	case statusMsg:
		m.err = msg.Err
		if msg.Err == nil {
			m.st = msg.Status
			m.haveStatus = true
			m.lastUpdated = time.Now()
		}
	}
	return m, nil
}

var (
	faceStyle  = lipgloss.NewStyle().Bold(true).Padding(1, 0)
	moodStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Width(14)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	barOn      = lipgloss.NewStyle().Foreground(lipgloss.Color("99"))
	barOff     = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)

func (m model) View() string {
	width := m.width
	if width <= 0 {
		width = 60
	}

	var b strings.Builder

	if m.err != nil {
		b.WriteString(errStyle.Render("error: "+m.err.Error()) + "\n")
	}
	if !m.haveStatus {
		b.WriteString(mutedStyle.Render("waiting for "+m.url+" ...") + "\n")
		b.WriteString(mutedStyle.Render("q quit · r refresh") + "\n")
		return b.String()
	}

	g := m.st.Gotchi

	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)
	b.WriteString(center.Render(faceStyle.Render(g.Glyph)) + "\n")
	b.WriteString(center.Render(moodStyle.Render(g.Mood)) + "\n")
	b.WriteString(center.Render(mutedStyle.Render("was "+g.Previous)) + "\n\n")

	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}

	row("Excitement", bar(g.Excitement)+fmt.Sprintf(" %3d", g.Excitement))
	row("Learning", bar(g.Learning)+fmt.Sprintf(" %3d", g.Learning))
	b.WriteString("\n")
	row("WiFi", fmt.Sprintf("%d networks, avg %d dBm", g.Sensors.WiFiNetworks, g.Sensors.WiFiSignalDBm))
	row("BLE", fmt.Sprintf("%d devices, best %d dBm", g.Sensors.BLEDevices, g.Sensors.BLEBestDBm))
	row("Memory", fmt.Sprintf("%d bytes free", g.Sensors.FreeMemoryBytes))
	row("SD card", yesno(g.Sensors.SDPresent))
	row("Touch", yesno(g.Sensors.UserInteraction))
	b.WriteString("\n")
	row("Transitions", fmt.Sprintf("%d published, %d dropped", g.Feed.Published, g.Feed.Dropped))
	row("Uptime", (time.Duration(g.UptimeSeconds) * time.Second).String())
	mq := "disconnected"
	if g.MQTT.Connected {
		mq = "connected"
	}
	row("MQTT", mq+" ("+g.MQTT.Broker+")")
	row("Session", g.SessionID)

	b.WriteString("\n" + mutedStyle.Render(fmt.Sprintf("updated %s · q quit · r refresh",
		m.lastUpdated.Format("15:04:05"))) + "\n")

	return b.String()
}

// bar renders a 0-100 value as a 20-cell meter.
func bar(v int) string {
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	filled := v / 5
	return barOn.Render(strings.Repeat("█", filled)) + barOff.Render(strings.Repeat("░", 20-filled))
}

func yesno(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

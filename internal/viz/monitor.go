package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

const (
	historyCapacity = 240
	trackCapacity   = 2000

	latProp     = "position/lat-gc-deg"
	lonProp     = "position/long-gc-deg"
	phiProp     = "attitude/phi-deg"
	thetaProp   = "attitude/theta-deg"
	holdingProp = "simulation/holding"
)

var DefaultProperties = []string{
	"simulation/sim-time-sec",
	holdingProp,
	latProp,
	lonProp,
	"position/h-sl-ft",
	"position/h-agl-ft",
	phiProp,
	thetaProp,
	"attitude/psi-deg",
	"velocities/u-fps",
	"velocities/h-dot-fps",
	"gear/wow",
}

// Commander is the connection the monitor drives.
type Commander interface {
	Exchange(command string) (string, error)
	Get(path string) (float64, error)
}

type Options struct {
	Properties []string
	Interval   time.Duration
	Iterate    int
	Theme      string
}

type TickMsg time.Time

type pollMsg struct {
	values map[string]float64
	err    error
}

type commandMsg struct {
	command string
	reply   string
	err     error
}

type Monitor struct {
	conn     Commander
	props    []string
	interval time.Duration
	iterate  int
	theme    Theme

	values   map[string]float64
	history  map[string][]float64
	lats     []float64
	lons     []float64
	charted  int
	holding  bool
	status   string
	lastErr  error
	width    int
	quitting bool
}

func NewMonitor(conn Commander, opts Options) Monitor {
	if len(opts.Properties) == 0 {
		opts.Properties = DefaultProperties
	}
	if opts.Interval <= 0 {
		opts.Interval = 250 * time.Millisecond
	}
	if opts.Iterate < 1 {
		opts.Iterate = 1
	}
	return Monitor{
		conn:     conn,
		props:    opts.Properties,
		interval: opts.Interval,
		iterate:  opts.Iterate,
		theme:    GetTheme(opts.Theme),
		values:   make(map[string]float64),
		history:  make(map[string][]float64),
		width:    100,
	}
}

func (m Monitor) Init() tea.Cmd { return m.poll() }

func (m Monitor) poll() tea.Cmd {
	conn, props := m.conn, m.props
	return func() tea.Msg {
		msg := pollMsg{values: make(map[string]float64, len(props))}
		for _, p := range props {
			v, err := conn.Get(p)
			if err != nil {
				if msg.err == nil {
					msg.err = fmt.Errorf("%s: %w", p, err)
				}
				continue
			}
			msg.values[p] = v
		}
		return msg
	}
}

func (m Monitor) send(command string) tea.Cmd {
	conn := m.conn
	return func() tea.Msg {
		reply, err := conn.Exchange(command)
		return commandMsg{command: command, reply: reply, err: err}
	}
}

func (m Monitor) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Monitor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case TickMsg:
		return m, m.poll()
	case pollMsg:
		m.record(msg)
		return m, m.tick()
	case commandMsg:
		m.lastErr = msg.err
		m.status = msg.command
		if reply := strings.TrimSpace(msg.reply); reply != "" {
			m.status += ": " + strings.ReplaceAll(reply, "\r\n", " ")
		}
	}
	return m, nil
}

func (m Monitor) handleKey(msg tea.KeyMsg) (Monitor, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case " ":
		cmd := "hold"
		if m.holding {
			cmd = "resume"
		}
		m.holding = !m.holding
		return m, m.send(cmd)
	case "i":
		return m, m.send(fmt.Sprintf("iterate %d", m.iterate))
	case "r":
		return m, m.send("reset_ic complete")
	case "s":
		return m, m.send("reset_ic state")
	case "tab":
		m.charted = (m.charted + 1) % len(m.props)
	case "t":
		m.theme = nextTheme(m.theme)
	}
	return m, nil
}

func (m *Monitor) record(msg pollMsg) {
	m.lastErr = msg.err
	for p, v := range msg.values {
		m.values[p] = v
		h := append(m.history[p], v)
		if len(h) > historyCapacity {
			h = h[len(h)-historyCapacity:]
		}
		m.history[p] = h
	}
	if v, ok := msg.values[holdingProp]; ok {
		m.holding = v != 0
	}
	lat, okLat := msg.values[latProp]
	lon, okLon := msg.values[lonProp]
	if okLat && okLon {
		m.lats = append(m.lats, lat)
		m.lons = append(m.lons, lon)
		if len(m.lats) > trackCapacity {
			m.lats = m.lats[1:]
			m.lons = m.lons[1:]
		}
	}
}

// Charted is the property currently shown in the history chart.
func (m Monitor) Charted() string { return m.props[m.charted] }

func (m Monitor) Holding() bool { return m.holding }

func (m Monitor) View() string {
	if m.quitting {
		return ""
	}
	st := m.theme.styles()

	var s strings.Builder
	s.WriteString(st.header.Render("FDMCTL MONITOR") + "  ")
	if m.holding {
		s.WriteString(st.held.Render("HOLDING"))
	} else {
		s.WriteString(st.running.Render("RUNNING"))
	}
	s.WriteString("\n")

	for _, p := range m.props {
		val := "-"
		if v, ok := m.values[p]; ok {
			val = fmt.Sprintf("%12.6g", v)
		}
		s.WriteString(st.label.Render(p) + st.value.Render(val) + "\n")
	}

	if hist := m.history[m.Charted()]; len(hist) > 1 {
		chart := asciigraph.Plot(hist, asciigraph.Height(6), asciigraph.Width(40), asciigraph.Caption(m.Charted()))
		s.WriteString(st.graph.Render(chart) + "\n")
	}

	track := NewCanvas(24, 8)
	track.DrawTrack(m.lons, m.lats)
	horizon := NewCanvas(24, 8)
	horizon.DrawHorizon(m.values[phiProp], m.values[thetaProp])
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		st.panel.Render("track\n"+track.String()),
		st.panel.Render("horizon\n"+horizon.String()),
	) + "\n")

	if m.status != "" {
		s.WriteString(st.value.Render(m.status) + "\n")
	}
	if m.lastErr != nil {
		s.WriteString(st.errText.Render(m.lastErr.Error()) + "\n")
	}
	s.WriteString(st.help.Render("SP:Hold/Resume I:Iterate R:Reset S:Reset state Tab:Chart T:Theme Q:Quit"))
	return s.String()
}

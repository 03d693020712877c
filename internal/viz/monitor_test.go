package viz

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

type fakeConn struct {
	values   map[string]float64
	commands []string
}

func (f *fakeConn) Exchange(command string) (string, error) {
	f.commands = append(f.commands, command)
	return "", nil
}

func (f *fakeConn) Get(path string) (float64, error) {
	v, ok := f.values[path]
	if !ok {
		return 0, errors.New("Unknown property")
	}
	return v, nil
}

func key(s string) tea.KeyMsg {
	switch s {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Monitor, msg tea.Msg) (Monitor, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Monitor), cmd
}

func newFake() *fakeConn {
	return &fakeConn{values: map[string]float64{
		"simulation/sim-time-sec": 1.5,
		"simulation/holding":      1,
		"position/lat-gc-deg":     37.6,
		"position/long-gc-deg":    -122.4,
		"attitude/phi-deg":        10,
		"attitude/theta-deg":      2,
	}}
}

func TestMonitorPoll(t *testing.T) {
	conn := newFake()
	m := NewMonitor(conn, Options{})

	m, cmd := update(t, m, m.Init()())
	if cmd == nil {
		t.Fatal("expected a follow-up tick")
	}
	if !m.Holding() {
		t.Error("expected holding from simulation/holding")
	}
	if m.values["simulation/sim-time-sec"] != 1.5 {
		t.Errorf("sim time not recorded: %v", m.values)
	}
	if m.lastErr == nil {
		t.Error("expected an error for unknown properties")
	}
	if len(m.lats) != 1 {
		t.Errorf("expected one track point, got %d", len(m.lats))
	}

	view := m.View()
	for _, want := range []string{"HOLDING", "simulation/sim-time-sec", "track", "horizon"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestMonitorHoldToggle(t *testing.T) {
	conn := newFake()
	m := NewMonitor(conn, Options{})
	m, _ = update(t, m, m.Init()())

	m, cmd := update(t, m, key(" "))
	m, _ = update(t, m, cmd())
	if m.Holding() {
		t.Error("expected running after space while held")
	}
	m, cmd = update(t, m, key(" "))
	update(t, m, cmd())

	if strings.Join(conn.commands, ",") != "resume,hold" {
		t.Errorf("unexpected commands %v", conn.commands)
	}
}

func TestMonitorCommands(t *testing.T) {
	conn := newFake()
	m := NewMonitor(conn, Options{Iterate: 10})

	for _, k := range []string{"i", "r", "s"} {
		var cmd tea.Cmd
		m, cmd = update(t, m, key(k))
		m, _ = update(t, m, cmd())
	}
	want := "iterate 10,reset_ic complete,reset_ic state"
	if got := strings.Join(conn.commands, ","); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if m.status != "reset_ic state" {
		t.Errorf("unexpected status %q", m.status)
	}
}

func TestMonitorCycleAndQuit(t *testing.T) {
	m := NewMonitor(newFake(), Options{Properties: []string{"a", "b"}})
	if m.Charted() != "a" {
		t.Fatalf("expected a, got %s", m.Charted())
	}
	m, _ = update(t, m, key("tab"))
	m, _ = update(t, m, key("tab"))
	if m.Charted() != "a" {
		t.Errorf("expected wrap to a, got %s", m.Charted())
	}

	m, _ = update(t, m, key("t"))
	if m.theme.Name != "retro" {
		t.Errorf("expected retro theme, got %s", m.theme.Name)
	}

	m, cmd := update(t, m, key("q"))
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected quit")
	}
	if m.View() != "" {
		t.Error("expected empty view after quit")
	}
}

func TestCanvasTrack(t *testing.T) {
	c := NewCanvas(4, 2)
	c.DrawTrack([]float64{0, 1}, []float64{0, 1})
	if strings.Count(c.String(), "\n") != 2 {
		t.Fatalf("unexpected canvas rows %q", c.String())
	}
	if c.Grid[1][0] == blank || c.Grid[0][3] == blank {
		t.Errorf("diagonal not drawn: %q", c.String())
	}
}

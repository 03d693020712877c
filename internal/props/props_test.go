package props

import (
	"errors"
	"reflect"
	"testing"
)

func TestLookupStatuses(t *testing.T) {
	m := New()
	if err := m.Set("position/h-sl-ft", 1000); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path string
		want Status
	}{
		{"position/h-sl-ft", Found},
		{"/position/h-sl-ft", Found},
		{"position", Found},
		{"position/h-agl-ft", NotFound},
		{"velocities", NotFound},
		{"position//h-sl-ft", Malformed},
		{"", Malformed},
		{"position/1bad", Malformed},
		{"position/h sl", Malformed},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := m.Lookup(tt.path)
			if got.Status != tt.want {
				t.Errorf("Lookup(%q) = %v, want %v", tt.path, got.Status, tt.want)
			}
			if (got.Node != nil) != (tt.want == Found) {
				t.Errorf("Lookup(%q) node presence mismatch", tt.path)
			}
		})
	}
}

func TestIndexZeroAlias(t *testing.T) {
	m := New()
	if err := m.Set("gear/unit[0]/wow", 1); err != nil {
		t.Fatal(err)
	}
	if v, ok := m.Float("gear/unit/wow"); !ok || v != 1 {
		t.Errorf("expected gear/unit/wow = 1, got %v %v", v, ok)
	}
}

func TestBranchAndLeaf(t *testing.T) {
	m := New()
	_ = m.Set("attitude/phi-deg", 5)

	branch := m.Node("attitude")
	if branch.HasValue() || !branch.HasChildren() {
		t.Error("attitude should be a branch without value")
	}
	if err := m.Set("attitude", 1); !errors.Is(err, ErrNotLeaf) {
		t.Errorf("expected ErrNotLeaf, got %v", err)
	}
}

func TestDeclaredNodeHasNoValue(t *testing.T) {
	m := New()
	n, err := m.Declare("ic/h-agl-ft")
	if err != nil {
		t.Fatal(err)
	}
	if n.HasValue() {
		t.Error("declared node should not carry a value")
	}
	if _, ok := m.Float("ic/h-agl-ft"); ok {
		t.Error("Float should report missing value")
	}
	if len(m.Catalog("ic")) != 0 {
		t.Error("unvalued node should not be catalogued")
	}
}

func TestTie(t *testing.T) {
	m := New()
	x := 3.0
	if err := m.Tie("sim/x", func() float64 { return x }, func(v float64) { x = v }); err != nil {
		t.Fatal(err)
	}
	if v, _ := m.Float("sim/x"); v != 3 {
		t.Errorf("expected 3, got %f", v)
	}
	if err := m.Set("sim/x", 7); err != nil {
		t.Fatal(err)
	}
	if x != 7 {
		t.Errorf("setter not called, x = %f", x)
	}

	if err := m.Tie("sim/ro", func() float64 { return 1 }, nil); err != nil {
		t.Fatal(err)
	}
	if err := m.Set("sim/ro", 2); !errors.Is(err, ErrReadOnly) {
		t.Errorf("expected ErrReadOnly, got %v", err)
	}

	m.Untie("sim/x")
	x = 100
	if v, _ := m.Float("sim/x"); v != 7 {
		t.Errorf("untied node should keep last value 7, got %f", v)
	}
}

func TestCatalog(t *testing.T) {
	m := New()
	_ = m.Set("position/lat-gc-deg", 1)
	_ = m.Set("position/long-gc-deg", 2)
	_ = m.Set("velocities/u-fps", 3)
	_ = m.Set("position/lat-gc-deg", 4)

	got := m.Catalog("position")
	want := []string{"position/lat-gc-deg", "position/long-gc-deg"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Catalog(position) = %v, want %v", got, want)
	}

	if got := m.Catalog("fps"); !reflect.DeepEqual(got, []string{"velocities/u-fps"}) {
		t.Errorf("substring match failed: %v", got)
	}
	if got := m.Catalog("nothing"); got != nil {
		t.Errorf("expected no matches, got %v", got)
	}
}

// Package props is the hierarchical property tree the simulation models
// publish their state through and remote clients read and write.
//
// Paths use '/' between segments ("position/h-sl-ft"); a leading '/' is
// accepted and ignored. A node either carries a scalar value (a leaf), or
// has children (a branch), or was declared without a value yet.
package props

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrMalformedPath = errors.New("props: malformed path")
	ErrNotLeaf       = errors.New("props: not a leaf property")
	ErrReadOnly      = errors.New("props: property is read-only")
)

// Status is the outcome of resolving a path.
type Status int

const (
	Found Status = iota
	NotFound
	Malformed
)

func (s Status) String() string {
	switch s {
	case Found:
		return "found"
	case NotFound:
		return "not found"
	case Malformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Lookup is the result of Manager.Lookup. Node is set only when Status is
// Found.
type Lookup struct {
	Status Status
	Node   *Node
}

var segmentRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.\-]*(\[[0-9]+\])?$`)

// Manager owns the property tree.
type Manager struct {
	root    *Node
	catalog []*Node
}

func New() *Manager {
	return &Manager{root: &Node{}}
}

func splitPath(path string) ([]string, error) {
	p := strings.TrimPrefix(strings.TrimSpace(path), "/")
	if p == "" {
		return nil, fmt.Errorf("%w: %q", ErrMalformedPath, path)
	}
	segs := strings.Split(p, "/")
	for i, s := range segs {
		if !segmentRe.MatchString(s) {
			return nil, fmt.Errorf("%w: %q", ErrMalformedPath, path)
		}
		segs[i] = strings.TrimSuffix(s, "[0]")
	}
	return segs, nil
}

// Lookup resolves path without creating anything.
func (m *Manager) Lookup(path string) Lookup {
	segs, err := splitPath(path)
	if err != nil {
		return Lookup{Status: Malformed}
	}
	n := m.root
	for _, s := range segs {
		n = n.child(s)
		if n == nil {
			return Lookup{Status: NotFound}
		}
	}
	return Lookup{Status: Found, Node: n}
}

// Node returns the node at path, or nil when it is absent or malformed.
func (m *Manager) Node(path string) *Node {
	return m.Lookup(path).Node
}

func (m *Manager) ensure(path string) (*Node, error) {
	segs, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	n := m.root
	for _, s := range segs {
		c := n.child(s)
		if c == nil {
			c = n.addChild(s)
		}
		n = c
	}
	return n, nil
}

// Declare creates the node at path without giving it a value.
func (m *Manager) Declare(path string) (*Node, error) {
	return m.ensure(path)
}

// Set creates the node at path if needed and stores v in it.
func (m *Manager) Set(path string, v float64) error {
	n, err := m.ensure(path)
	if err != nil {
		return err
	}
	if n.HasChildren() {
		return fmt.Errorf("%w: %s", ErrNotLeaf, path)
	}
	if err := n.SetFloat(v); err != nil {
		return err
	}
	m.register(n)
	return nil
}

// Tie binds path to a getter and an optional setter. A nil setter makes the
// property read-only.
func (m *Manager) Tie(path string, get func() float64, set func(float64)) error {
	n, err := m.ensure(path)
	if err != nil {
		return err
	}
	if n.HasChildren() {
		return fmt.Errorf("%w: %s", ErrNotLeaf, path)
	}
	n.get, n.set = get, set
	n.valued = false
	m.register(n)
	return nil
}

// Untie drops the binding at path. The node keeps its last value.
func (m *Manager) Untie(path string) {
	n := m.Node(path)
	if n == nil || n.get == nil {
		return
	}
	n.value = n.get()
	n.valued = true
	n.get, n.set = nil, nil
}

// Float returns the value at path and whether it exists and carries one.
func (m *Manager) Float(path string) (float64, bool) {
	n := m.Node(path)
	if n == nil || !n.HasValue() {
		return 0, false
	}
	return n.Float(), true
}

func (m *Manager) register(n *Node) {
	if n.listed {
		return
	}
	n.listed = true
	m.catalog = append(m.catalog, n)
}

// Catalog returns the paths of every valued property containing check, in
// registration order.
func (m *Manager) Catalog(check string) []string {
	var out []string
	for _, n := range m.catalog {
		if !n.HasValue() {
			continue
		}
		if strings.Contains(n.path, check) {
			out = append(out, n.path)
		}
	}
	return out
}

// Node is a single entry of the property tree.
type Node struct {
	name     string
	path     string
	children []*Node
	index    map[string]*Node

	valued bool
	value  float64
	get    func() float64
	set    func(float64)
	listed bool
}

func (n *Node) child(name string) *Node {
	if n.index == nil {
		return nil
	}
	return n.index[name]
}

func (n *Node) addChild(name string) *Node {
	path := name
	if n.path != "" {
		path = n.path + "/" + name
	}
	c := &Node{name: name, path: path}
	if n.index == nil {
		n.index = make(map[string]*Node)
	}
	n.index[name] = c
	n.children = append(n.children, c)
	return c
}

func (n *Node) Name() string      { return n.name }
func (n *Node) Path() string      { return n.path }
func (n *Node) HasChildren() bool { return len(n.children) > 0 }

// HasValue reports whether the node carries a scalar, stored or tied.
func (n *Node) HasValue() bool {
	return n.valued || n.get != nil
}

func (n *Node) Float() float64 {
	if n.get != nil {
		return n.get()
	}
	return n.value
}

func (n *Node) SetFloat(v float64) error {
	if n.get != nil {
		if n.set == nil {
			return fmt.Errorf("%w: %s", ErrReadOnly, n.path)
		}
		n.set(v)
		return nil
	}
	n.value = v
	n.valued = true
	return nil
}

// Children returns the direct children in creation order.
func (n *Node) Children() []*Node {
	return n.children
}

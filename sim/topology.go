package sim

import (
	"fmt"
	"sort"
)

// NodeID identifies a router in the topology.
type NodeID string

// Node is a topology vertex. Identity is immutable for the run's lifetime;
// the position only feeds the visualization boundary.
type Node struct {
	ID   NodeID
	X, Y float64
}

// Link is a bidirectional edge with a fixed positive cost and a mutable
// up/down status. A down link is excluded from shortest-path computation and
// never delivers packets. LossProb is the per-transmission drop probability
// (0 for lossless runs).
type Link struct {
	A, B     NodeID
	Cost     float64
	Up       bool
	LossProb float64
}

// Peer returns the far endpoint as seen from n.
func (l *Link) Peer(n NodeID) NodeID {
	if l.A == n {
		return l.B
	}
	return l.A
}

// linkKey is the normalized unordered pair (smaller id first).
type linkKey struct {
	a, b NodeID
}

func newLinkKey(a, b NodeID) linkKey {
	if b < a {
		a, b = b, a
	}
	return linkKey{a: a, b: b}
}

// NeighborCost pairs an adjacent node with the cost of the connecting link.
type NeighborCost struct {
	Neighbor NodeID  `json:"neighbor" yaml:"neighbor"`
	Cost     float64 `json:"cost" yaml:"cost"`
}

// Topology holds the nodes and links of one simulated network. Link status
// is mutated only through SetLinkStatus; everything else is fixed at build
// time.
type Topology struct {
	nodes    map[NodeID]*Node
	links    map[linkKey]*Link
	incident map[NodeID][]linkKey
}

// NewTopology creates an empty topology.
func NewTopology() *Topology {
	return &Topology{
		nodes:    make(map[NodeID]*Node),
		links:    make(map[linkKey]*Link),
		incident: make(map[NodeID][]linkKey),
	}
}

// AddNode registers a node. Re-adding an existing id only updates its
// position.
func (t *Topology) AddNode(id NodeID, x, y float64) *Node {
	if n, ok := t.nodes[id]; ok {
		n.X, n.Y = x, y
		return n
	}
	n := &Node{ID: id, X: x, Y: y}
	t.nodes[id] = n
	return n
}

// AddLink connects two existing nodes with the given cost. The pair must not
// already be linked.
func (t *Topology) AddLink(a, b NodeID, cost float64) (*Link, error) {
	if _, ok := t.nodes[a]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, a)
	}
	if _, ok := t.nodes[b]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, b)
	}
	if a == b {
		return nil, fmt.Errorf("link endpoints must differ: %s", a)
	}
	if cost <= 0 {
		return nil, fmt.Errorf("link cost must be positive: %s--%s cost=%v", a, b, cost)
	}
	key := newLinkKey(a, b)
	if _, ok := t.links[key]; ok {
		return nil, fmt.Errorf("%w: %s--%s", ErrDuplicateLink, key.a, key.b)
	}
	l := &Link{A: key.a, B: key.b, Cost: cost, Up: true}
	t.links[key] = l
	t.incident[a] = append(t.incident[a], key)
	t.incident[b] = append(t.incident[b], key)
	return l, nil
}

// SetLinkStatus marks a link up or down.
func (t *Topology) SetLinkStatus(a, b NodeID, up bool) error {
	l, ok := t.links[newLinkKey(a, b)]
	if !ok {
		return fmt.Errorf("%w: %s--%s", ErrUnknownLink, a, b)
	}
	l.Up = up
	return nil
}

// GetLink returns the link between a and b, if any.
func (t *Topology) GetLink(a, b NodeID) (*Link, bool) {
	l, ok := t.links[newLinkKey(a, b)]
	return l, ok
}

// GetNode returns the node with the given id, if any.
func (t *Topology) GetNode(id NodeID) (*Node, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// NeighborsOf returns the currently-up adjacencies of a node with their
// costs, sorted by neighbor id for deterministic iteration. Down links are
// excluded.
func (t *Topology) NeighborsOf(id NodeID) []NeighborCost {
	keys := t.incident[id]
	out := make([]NeighborCost, 0, len(keys))
	for _, key := range keys {
		l := t.links[key]
		if !l.Up {
			continue
		}
		out = append(out, NeighborCost{Neighbor: l.Peer(id), Cost: l.Cost})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Neighbor < out[j].Neighbor })
	return out
}

// NodeIDs returns all node ids in sorted order.
func (t *Topology) NodeIDs() []NodeID {
	ids := make([]NodeID, 0, len(t.nodes))
	for id := range t.nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Links returns all links sorted by endpoint pair.
func (t *Topology) Links() []*Link {
	out := make([]*Link, 0, len(t.links))
	for _, l := range t.links {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		return out[i].B < out[j].B
	})
	return out
}

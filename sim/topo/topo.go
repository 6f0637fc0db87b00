// Package topo describes network topologies: fixed descriptions, YAML
// loading, generators, and the reference shortest-path computation used to
// verify routing tables.
package topo

import (
	"fmt"
	"sort"
)

// Node is one topology vertex. Positions feed the visualization layer.
type Node struct {
	ID string  `yaml:"id" json:"id"`
	X  float64 `yaml:"x" json:"x"`
	Y  float64 `yaml:"y" json:"y"`
}

// Link is one bidirectional edge with its cost.
type Link struct {
	A    string  `yaml:"a" json:"a"`
	B    string  `yaml:"b" json:"b"`
	Cost float64 `yaml:"cost" json:"cost"`
}

// NeighborRef is one adjacency entry in the mapping form of a topology.
type NeighborRef struct {
	Neighbor string  `yaml:"neighbor" json:"neighbor"`
	Cost     float64 `yaml:"cost" json:"cost"`
}

// Position is an optional node placement.
type Position struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

// Description is a complete topology: node list plus normalized link list
// (each unordered pair appears once, smaller id first). It is consumed once
// at simulation setup.
type Description struct {
	Nodes []Node
	Links []Link
}

// normalizeLink orders a pair smaller id first.
func normalizeLink(a, b string, cost float64) Link {
	if b < a {
		a, b = b, a
	}
	return Link{A: a, B: b, Cost: cost}
}

// FromAdjacency builds a Description from a mapping of node id to neighbor
// list. Links listed from both ends are merged; conflicting costs are an
// error. Positions are optional.
func FromAdjacency(adj map[string][]NeighborRef, pos map[string]Position) (*Description, error) {
	ids := make([]string, 0, len(adj))
	for id := range adj {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	d := &Description{}
	seen := map[string]float64{}
	for _, id := range ids {
		p := pos[id]
		d.Nodes = append(d.Nodes, Node{ID: id, X: p.X, Y: p.Y})
	}
	known := map[string]bool{}
	for _, n := range d.Nodes {
		known[n.ID] = true
	}
	for _, id := range ids {
		for _, ref := range adj[id] {
			if !known[ref.Neighbor] {
				return nil, fmt.Errorf("adjacency of %q references unknown node %q", id, ref.Neighbor)
			}
			l := normalizeLink(id, ref.Neighbor, ref.Cost)
			key := l.A + "--" + l.B
			if cost, ok := seen[key]; ok {
				if cost != l.Cost {
					return nil, fmt.Errorf("link %s listed with conflicting costs %v and %v", key, cost, l.Cost)
				}
				continue
			}
			seen[key] = l.Cost
			d.Links = append(d.Links, l)
		}
	}
	sort.Slice(d.Links, func(i, j int) bool {
		if d.Links[i].A != d.Links[j].A {
			return d.Links[i].A < d.Links[j].A
		}
		return d.Links[i].B < d.Links[j].B
	})
	return d, nil
}

// Adjacency returns the mapping form: node id to neighbor list, sorted.
func (d *Description) Adjacency() map[string][]NeighborRef {
	adj := make(map[string][]NeighborRef, len(d.Nodes))
	for _, n := range d.Nodes {
		adj[n.ID] = nil
	}
	for _, l := range d.Links {
		adj[l.A] = append(adj[l.A], NeighborRef{Neighbor: l.B, Cost: l.Cost})
		adj[l.B] = append(adj[l.B], NeighborRef{Neighbor: l.A, Cost: l.Cost})
	}
	for id := range adj {
		refs := adj[id]
		sort.Slice(refs, func(i, j int) bool { return refs[i].Neighbor < refs[j].Neighbor })
		adj[id] = refs
	}
	return adj
}

// Validate checks structural soundness: unique node ids, links between known
// distinct nodes, positive costs, no duplicate pairs.
func (d *Description) Validate() error {
	known := map[string]bool{}
	for _, n := range d.Nodes {
		if n.ID == "" {
			return fmt.Errorf("node with empty id")
		}
		if known[n.ID] {
			return fmt.Errorf("duplicate node id %q", n.ID)
		}
		known[n.ID] = true
	}
	pairs := map[string]bool{}
	for _, l := range d.Links {
		if !known[l.A] || !known[l.B] {
			return fmt.Errorf("link %s--%s references unknown node", l.A, l.B)
		}
		if l.A == l.B {
			return fmt.Errorf("self link on %s", l.A)
		}
		if l.Cost <= 0 {
			return fmt.Errorf("link %s--%s has non-positive cost %v", l.A, l.B, l.Cost)
		}
		n := normalizeLink(l.A, l.B, l.Cost)
		key := n.A + "--" + n.B
		if pairs[key] {
			return fmt.Errorf("duplicate link %s", key)
		}
		pairs[key] = true
	}
	return nil
}

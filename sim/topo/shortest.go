package topo

import "math"

// AllPairsShortestCosts computes the reference shortest-path cost between
// every pair of nodes with Floyd-Warshall, treating every link as up.
// Unreachable pairs are math.Inf(1). Tests compare converged routing tables
// against this.
func AllPairsShortestCosts(d *Description) map[string]map[string]float64 {
	dist := make(map[string]map[string]float64, len(d.Nodes))
	for _, u := range d.Nodes {
		row := make(map[string]float64, len(d.Nodes))
		for _, v := range d.Nodes {
			row[v.ID] = math.Inf(1)
		}
		row[u.ID] = 0
		dist[u.ID] = row
	}
	for _, l := range d.Links {
		if l.Cost < dist[l.A][l.B] {
			dist[l.A][l.B] = l.Cost
			dist[l.B][l.A] = l.Cost
		}
	}
	for _, k := range d.Nodes {
		for _, i := range d.Nodes {
			ik := dist[i.ID][k.ID]
			if math.IsInf(ik, 1) {
				continue
			}
			for _, j := range d.Nodes {
				if alt := ik + dist[k.ID][j.ID]; alt < dist[i.ID][j.ID] {
					dist[i.ID][j.ID] = alt
				}
			}
		}
	}
	return dist
}

// WithoutLink returns a copy of the description with the a--b link removed.
// Useful for computing reference costs after a failure.
func (d *Description) WithoutLink(a, b string) *Description {
	norm := normalizeLink(a, b, 0)
	out := &Description{Nodes: append([]Node(nil), d.Nodes...)}
	for _, l := range d.Links {
		if l.A == norm.A && l.B == norm.B {
			continue
		}
		out.Links = append(out.Links, l)
	}
	return out
}

package topo

import (
	"math"
	"strings"
	"testing"
)

func TestFromAdjacency_MergesBothEnds(t *testing.T) {
	adj := map[string][]NeighborRef{
		"A": {{Neighbor: "B", Cost: 1}},
		"B": {{Neighbor: "A", Cost: 1}, {Neighbor: "C", Cost: 2}},
		"C": nil,
	}
	d, err := FromAdjacency(adj, nil)
	if err != nil {
		t.Fatalf("FromAdjacency failed: %v", err)
	}
	if len(d.Nodes) != 3 {
		t.Errorf("nodes = %v, want 3", d.Nodes)
	}
	if len(d.Links) != 2 {
		t.Fatalf("links = %v, want the A--B listing merged", d.Links)
	}
	// normalized: smaller id first, sorted
	if d.Links[0] != (Link{A: "A", B: "B", Cost: 1}) || d.Links[1] != (Link{A: "B", B: "C", Cost: 2}) {
		t.Errorf("links = %v", d.Links)
	}
}

func TestFromAdjacency_ConflictingCosts(t *testing.T) {
	adj := map[string][]NeighborRef{
		"A": {{Neighbor: "B", Cost: 1}},
		"B": {{Neighbor: "A", Cost: 3}},
	}
	if _, err := FromAdjacency(adj, nil); err == nil || !strings.Contains(err.Error(), "conflicting") {
		t.Errorf("FromAdjacency = %v, want conflicting-cost error", err)
	}
}

func TestFromAdjacency_UnknownNeighbor(t *testing.T) {
	adj := map[string][]NeighborRef{"A": {{Neighbor: "Z", Cost: 1}}}
	if _, err := FromAdjacency(adj, nil); err == nil {
		t.Error("unknown neighbor accepted")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		desc Description
	}{
		{"empty node id", Description{Nodes: []Node{{ID: ""}}}},
		{"duplicate node", Description{Nodes: []Node{{ID: "A"}, {ID: "A"}}}},
		{"unknown endpoint", Description{
			Nodes: []Node{{ID: "A"}},
			Links: []Link{{A: "A", B: "B", Cost: 1}},
		}},
		{"self link", Description{
			Nodes: []Node{{ID: "A"}},
			Links: []Link{{A: "A", B: "A", Cost: 1}},
		}},
		{"non-positive cost", Description{
			Nodes: []Node{{ID: "A"}, {ID: "B"}},
			Links: []Link{{A: "A", B: "B", Cost: 0}},
		}},
		{"duplicate pair reversed", Description{
			Nodes: []Node{{ID: "A"}, {ID: "B"}},
			Links: []Link{{A: "A", B: "B", Cost: 1}, {A: "B", B: "A", Cost: 1}},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.desc.Validate(); err == nil {
				t.Error("invalid description accepted")
			}
		})
	}

	good := Description{
		Nodes: []Node{{ID: "A"}, {ID: "B"}},
		Links: []Link{{A: "A", B: "B", Cost: 1}},
	}
	if err := good.Validate(); err != nil {
		t.Errorf("valid description rejected: %v", err)
	}
}

func TestAdjacency_RoundTrip(t *testing.T) {
	d := Default()
	back, err := FromAdjacency(d.Adjacency(), nil)
	if err != nil {
		t.Fatalf("FromAdjacency failed: %v", err)
	}
	if len(back.Nodes) != len(d.Nodes) || len(back.Links) != len(d.Links) {
		t.Errorf("round trip changed shape: %d/%d nodes, %d/%d links",
			len(back.Nodes), len(d.Nodes), len(back.Links), len(d.Links))
	}
}

func TestAllPairsShortestCosts(t *testing.T) {
	d := Description{
		Nodes: []Node{{ID: "A"}, {ID: "B"}, {ID: "C"}, {ID: "D"}, {ID: "X"}},
		Links: []Link{
			{A: "A", B: "B", Cost: 1},
			{A: "B", B: "C", Cost: 2},
			{A: "A", B: "C", Cost: 5},
			{A: "C", B: "D", Cost: 1},
		},
	}
	dist := AllPairsShortestCosts(&d)

	if got := dist["A"]["C"]; got != 3 {
		t.Errorf("A -> C = %v, want 3 (through B, not the direct cost-5 link)", got)
	}
	if got := dist["A"]["D"]; got != 4 {
		t.Errorf("A -> D = %v, want 4", got)
	}
	if got := dist["D"]["A"]; got != 4 {
		t.Errorf("D -> A = %v, want symmetric 4", got)
	}
	if got := dist["A"]["X"]; !math.IsInf(got, 1) {
		t.Errorf("A -> X = %v, want unreachable", got)
	}
	if got := dist["A"]["A"]; got != 0 {
		t.Errorf("A -> A = %v, want 0", got)
	}
}

func TestWithoutLink(t *testing.T) {
	d, err := Ring(4)
	if err != nil {
		t.Fatalf("Ring failed: %v", err)
	}
	cut := d.WithoutLink("B", "A") // reversed order names the same link
	if len(cut.Links) != len(d.Links)-1 {
		t.Fatalf("links after cut = %d, want %d", len(cut.Links), len(d.Links)-1)
	}
	dist := AllPairsShortestCosts(cut)
	if got := dist["A"]["B"]; got != 3 {
		t.Errorf("A -> B without the direct link = %v, want 3", got)
	}
}

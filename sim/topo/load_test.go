package topo

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleYAML = `
adjacency:
  A: [{neighbor: B, cost: 1}, {neighbor: C, cost: 2.5}]
  B: [{neighbor: A, cost: 1}]
  C: []
positions:
  A: {x: 0, y: 0}
  B: {x: 1, y: 0}
  C: {x: 0.5, y: 1}
`

func TestParse(t *testing.T) {
	d, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(d.Nodes) != 3 || len(d.Links) != 2 {
		t.Fatalf("parsed %d nodes and %d links, want 3 and 2", len(d.Nodes), len(d.Links))
	}
	var c Node
	for _, n := range d.Nodes {
		if n.ID == "C" {
			c = n
		}
	}
	if c.X != 0.5 || c.Y != 1 {
		t.Errorf("position of C = (%v, %v), want (0.5, 1)", c.X, c.Y)
	}
	if d.Links[0].Cost != 1 || d.Links[1].Cost != 2.5 {
		t.Errorf("link costs = %v", d.Links)
	}
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not yaml", ":\n  - ["},
		{"empty document", ""},
		{"no adjacency", "positions:\n  A: {x: 0, y: 0}\n"},
		{"conflicting costs", "adjacency:\n  A: [{neighbor: B, cost: 1}]\n  B: [{neighbor: A, cost: 2}]\n"},
		{"negative cost", "adjacency:\n  A: [{neighbor: B, cost: -1}]\n  B: []\n"},
		{"unknown neighbor", "adjacency:\n  A: [{neighbor: Q, cost: 1}]\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse([]byte(tc.raw)); err == nil {
				t.Error("invalid topology parsed without error")
			}
		})
	}
}

func TestLoadAndMarshal_RoundTrip(t *testing.T) {
	d, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	raw, err := d.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "topology.yaml")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(back.Nodes) != len(d.Nodes) || len(back.Links) != len(d.Links) {
		t.Errorf("round trip changed shape: %d/%d nodes, %d/%d links",
			len(back.Nodes), len(d.Nodes), len(back.Links), len(d.Links))
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("missing file loaded without error")
	}
}

package topo

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// topologyFile is the on-disk YAML form: an adjacency mapping from node id
// to neighbor list, with optional node positions. Links may be listed from
// either or both ends.
//
//	adjacency:
//	  A: [{neighbor: B, cost: 1}, {neighbor: E, cost: 1}]
//	  B: [{neighbor: F, cost: 1}]
//	positions:
//	  A: {x: 0, y: 0}
type topologyFile struct {
	Adjacency map[string][]NeighborRef `yaml:"adjacency"`
	Positions map[string]Position      `yaml:"positions"`
}

// Load reads a topology description from a YAML file.
func Load(path string) (*Description, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read topology file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes a YAML topology description.
func Parse(raw []byte) (*Description, error) {
	var f topologyFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse topology file: %w", err)
	}
	if len(f.Adjacency) == 0 {
		return nil, fmt.Errorf("topology file has no adjacency mapping")
	}
	d, err := FromAdjacency(f.Adjacency, f.Positions)
	if err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Marshal encodes a description back to the YAML file form.
func (d *Description) Marshal() ([]byte, error) {
	f := topologyFile{
		Adjacency: d.Adjacency(),
		Positions: make(map[string]Position, len(d.Nodes)),
	}
	for _, n := range d.Nodes {
		f.Positions[n.ID] = Position{X: n.X, Y: n.Y}
	}
	return yaml.Marshal(&f)
}

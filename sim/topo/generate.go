package topo

import (
	"fmt"
	"math"
	"math/rand"
)

// phonetic names used by the grid generator, wrapping with a numeric suffix
// beyond 26 nodes.
var gridNodeNames = []string{
	"alpha", "bravo", "charlie", "delta", "echo", "foxtrot",
	"golf", "hotel", "india", "juliet", "kilo", "lima", "mike",
	"november", "oscar", "papa", "quebec", "romeo", "sierra",
	"tango", "uniform", "victor", "whiskey", "xray", "yankee", "zulu",
}

// letterNames are the single-letter ids used by Default and Random.
const letterNames = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// euclid is the link cost between two placed nodes.
func euclid(a, b Node) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// addLink appends a link with cost equal to the endpoint distance.
func (d *Description) addLink(byID map[string]Node, a, b string) {
	d.Links = append(d.Links, normalizeLink(a, b, euclid(byID[a], byID[b])))
}

// Default returns the deterministic 8-node test network:
//
//	A---B   C---D
//	|   | / | / |
//	E   F---G---H
//
// Straight links cost 1, diagonal links cost sqrt(2).
func Default() *Description {
	nodes := []Node{
		{ID: "A", X: 0, Y: 0}, {ID: "B", X: 1, Y: 0}, {ID: "C", X: 2, Y: 0}, {ID: "D", X: 3, Y: 0},
		{ID: "E", X: 0, Y: 1}, {ID: "F", X: 1, Y: 1}, {ID: "G", X: 2, Y: 1}, {ID: "H", X: 3, Y: 1},
	}
	byID := map[string]Node{}
	for _, n := range nodes {
		byID[n.ID] = n
	}
	d := &Description{Nodes: nodes}
	for _, pair := range [][2]string{
		{"A", "B"}, {"A", "E"}, {"B", "F"}, {"E", "F"},
		{"C", "D"}, {"C", "F"}, {"C", "G"},
		{"D", "G"}, {"D", "H"}, {"F", "G"}, {"G", "H"},
	} {
		d.addLink(byID, pair[0], pair[1])
	}
	return d
}

// Ring returns an n-node cycle with uniform link cost 1, nodes placed on a
// unit circle. Ids are letters for n <= 26, letter+index beyond.
func Ring(n int) (*Description, error) {
	if n < 3 {
		return nil, fmt.Errorf("ring needs at least 3 nodes, got %d", n)
	}
	d := &Description{}
	for i := 0; i < n; i++ {
		angle := 2 * math.Pi * float64(i) / float64(n)
		d.Nodes = append(d.Nodes, Node{
			ID: letterName(i),
			X:  math.Cos(angle),
			Y:  math.Sin(angle),
		})
	}
	for i := 0; i < n; i++ {
		d.Links = append(d.Links, normalizeLink(letterName(i), letterName((i+1)%n), 1))
	}
	return d, nil
}

// Grid returns a rows x cols lattice with phonetic node names and uniform
// cost-1 links between orthogonal neighbors.
func Grid(rows, cols int) (*Description, error) {
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("grid needs positive dimensions, got %dx%d", rows, cols)
	}
	d := &Description{}
	name := func(r, c int) string {
		index := r*cols + c
		addr := gridNodeNames[index%len(gridNodeNames)]
		if index >= len(gridNodeNames) {
			addr += fmt.Sprintf("%d", index/len(gridNodeNames))
		}
		return addr
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			d.Nodes = append(d.Nodes, Node{ID: name(r, c), X: float64(c), Y: float64(r)})
		}
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if c > 0 {
				d.Links = append(d.Links, normalizeLink(name(r, c), name(r, c-1), 1))
			}
			if r > 0 {
				d.Links = append(d.Links, normalizeLink(name(r, c), name(r-1, c), 1))
			}
		}
	}
	return d, nil
}

// Random generates a connected-ish random topology: n nodes (clamped to
// [5, 26]) placed on a square grid, each linked to a random sample of its
// up-to-8 grid neighbors. Costs are euclidean distances, so diagonals cost
// sqrt(2). Deterministic for a given rng.
func Random(n int, rng *rand.Rand) *Description {
	if n < 5 {
		n = 5
	}
	if n > 26 {
		n = 26
	}
	cols := int(math.Ceil(math.Sqrt(float64(n))))

	coord := func(i int) (int, int) { return i % cols, i / cols }
	index := func(x, y int) int {
		if x < 0 || y < 0 || x >= cols {
			return -1
		}
		ind := y*cols + x
		if ind >= n {
			return -1
		}
		return ind
	}

	d := &Description{}
	byID := map[string]Node{}
	for i := 0; i < n; i++ {
		x, y := coord(i)
		node := Node{ID: letterName(i), X: float64(x), Y: float64(y)}
		d.Nodes = append(d.Nodes, node)
		byID[node.ID] = node
	}

	have := map[string]bool{}
	for i := 0; i < n; i++ {
		x, y := coord(i)
		var ngbrs []int
		for _, nx := range []int{x - 1, x, x + 1} {
			for _, ny := range []int{y - 1, y, y + 1} {
				if nx == x && ny == y {
					continue
				}
				if ind := index(nx, ny); ind >= 0 {
					ngbrs = append(ngbrs, ind)
				}
			}
		}
		outdeg := rng.Intn(len(ngbrs)) + 1
		for _, pi := range rng.Perm(len(ngbrs))[:outdeg] {
			j := ngbrs[pi]
			l := normalizeLink(letterName(i), letterName(j), 0)
			key := l.A + "--" + l.B
			if have[key] {
				continue
			}
			have[key] = true
			d.addLink(byID, l.A, l.B)
		}
	}
	return d
}

// letterName maps an index to A..Z, then A0, B0, ... beyond.
func letterName(i int) string {
	if i < len(letterNames) {
		return string(letterNames[i])
	}
	return fmt.Sprintf("%c%d", letterNames[i%len(letterNames)], i/len(letterNames)-1)
}

package sim

// Snapshot is the read-only view handed to the visualization layer between
// driver steps. It is a deep copy: holding one never pins live simulation
// state, and mutating it has no effect on the run.
type Snapshot struct {
	Tick      int64          `json:"tick"`
	Protocol  string         `json:"protocol"`
	Converged bool           `json:"converged"`
	Nodes     []NodeSnapshot `json:"nodes"`
	Links     []LinkSnapshot `json:"links"`
	Metrics   Metrics        `json:"metrics"`
}

// NodeSnapshot is one router's position and routing table.
type NodeSnapshot struct {
	ID    NodeID       `json:"id"`
	X     float64      `json:"x"`
	Y     float64      `json:"y"`
	Table []RouteEntry `json:"table"`
}

// LinkSnapshot is one link's endpoints, cost, and status.
type LinkSnapshot struct {
	A    NodeID  `json:"a"`
	B    NodeID  `json:"b"`
	Cost float64 `json:"cost"`
	Up   bool    `json:"up"`
}

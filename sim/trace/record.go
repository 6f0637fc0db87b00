// Package trace provides pure-data trace records for simulation runs.
// It has no dependency on sim/ — the driver feeds it plain values, and
// tests and the visualization layer read them back.
package trace

// PacketRecord captures the fate of one packet.
type PacketRecord struct {
	ID        string   `json:"id"`
	Kind      string   `json:"kind"`
	Source    string   `json:"source"`
	Dest      string   `json:"dest"`
	Ingress   int64    `json:"ingress"`
	Completed int64    `json:"completed"`
	Hops      []string `json:"hops,omitempty"`
	Outcome   string   `json:"outcome"` // delivered | no-route | ttl-expired | link-down | lost
}

// RouteChangeRecord captures one routing table mutation.
type RouteChangeRecord struct {
	Tick      int64   `json:"tick"`
	Router    string  `json:"router"`
	Dest      string  `json:"dest"`
	NextHop   string  `json:"next_hop"`
	Cost      float64 `json:"cost"`
	Installed bool    `json:"installed"` // false = entry removed
}

// EventRecord captures one dispatched event, in dispatch order.
type EventRecord struct {
	Tick int64  `json:"tick"`
	Type string `json:"type"`
	Node string `json:"node,omitempty"`
}

package sim

import "fmt"

// Metrics aggregates statistics about one simulation run for final
// reporting and for the visualization layer.
type Metrics struct {
	HellosSent         int // HELLO packets transmitted
	AdvertsSent        int // ADVERT packets transmitted (both protocols)
	DataSent           int // DATA packets injected
	DataDelivered      int // DATA packets that reached their destination
	DataForwarded      int // DATA forwarding hops taken
	DroppedNoRoute     int // DATA dropped: no usable routing table entry
	DroppedTTL         int // DATA dropped: forwarding loop exhausted the TTL
	DroppedLinkDown    int // packets dropped at delivery: traversed link went down
	DroppedLoss        int // packets eaten by configured link loss
	TableChanges       int // routing table mutations across all routers
	LastTableChange    int64
	ConvergedAt        int64 // first tick the convergence condition held, -1 if never
	SimEndedTime       int64
}

// NewMetrics creates a zeroed Metrics.
func NewMetrics() *Metrics {
	return &Metrics{LastTableChange: -1, ConvergedAt: -1}
}

// countSend tallies one transmitted packet by kind.
func (m *Metrics) countSend(kind PacketKind) {
	switch kind {
	case PacketHello:
		m.HellosSent++
	case PacketAdvert:
		m.AdvertsSent++
	case PacketData:
		m.DataForwarded++
	}
}

// Print displays aggregated metrics at the end of the simulation.
func (m *Metrics) Print() {
	fmt.Println("=== Simulation Metrics ===")
	fmt.Printf("Simulated time       : %d ticks\n", m.SimEndedTime)
	fmt.Printf("Hellos sent          : %d\n", m.HellosSent)
	fmt.Printf("Advertisements sent  : %d\n", m.AdvertsSent)
	fmt.Printf("Data injected        : %d\n", m.DataSent)
	fmt.Printf("Data delivered       : %d\n", m.DataDelivered)
	fmt.Printf("Data dropped         : %d (no route), %d (ttl), %d (link down), %d (loss)\n",
		m.DroppedNoRoute, m.DroppedTTL, m.DroppedLinkDown, m.DroppedLoss)
	fmt.Printf("Table changes        : %d (last at tick %d)\n", m.TableChanges, m.LastTableChange)
	if m.ConvergedAt >= 0 {
		fmt.Printf("Converged at         : tick %d\n", m.ConvergedAt)
	} else {
		fmt.Println("Converged at         : never")
	}
}

package sim

import "github.com/google/uuid"

// PacketKind classifies simulated packets.
type PacketKind string

const (
	// PacketHello is the periodic neighbor-liveness probe.
	PacketHello PacketKind = "HELLO"
	// PacketAdvert carries protocol routing information (DV vector or LSA).
	PacketAdvert PacketKind = "ADVERT"
	// PacketData is synthetic payload traffic forwarded via routing tables.
	PacketData PacketKind = "DATA"
)

// DVAdvert is a distance-vector advertisement: the sender's believed cost to
// every destination it knows about. Unreachable destinations appear with the
// infinite-cost sentinel, never omitted.
type DVAdvert struct {
	Vector map[NodeID]float64
}

// LSAdvert is a link-state advertisement: the origin's direct neighbor costs
// under a monotonically increasing sequence number.
type LSAdvert struct {
	Origin    NodeID
	Seq       uint64
	Neighbors []NeighborCost // nil marks a malformed advertisement
}

// Packet is one simulated transmission. Packets are destroyed on delivery or
// drop; only the trace remembers them. Exactly one of DV/LS is set for
// ADVERT packets.
type Packet struct {
	ID      string
	Kind    PacketKind
	Src     NodeID
	Dst     NodeID
	Ingress int64 // tick the packet entered the network
	TTL     int   // remaining hops before a forwarding loop drops it
	Hops    []NodeID
	DV      *DVAdvert
	LS      *LSAdvert
}

// DataTTL bounds forwarding during transient routing loops; a looping DATA
// packet is dropped, not an error.
const DataTTL = 32

// NewPacket creates a packet with a unique id.
func NewPacket(kind PacketKind, src, dst NodeID, ingress int64) *Packet {
	return &Packet{
		ID:      uuid.NewString(),
		Kind:    kind,
		Src:     src,
		Dst:     dst,
		Ingress: ingress,
		TTL:     DataTTL,
	}
}

// Clone duplicates a packet for flooding; the copy keeps the original id so
// duplicate suppression stays observable in the trace.
func (p *Packet) Clone() *Packet {
	cp := *p
	cp.Hops = append([]NodeID(nil), p.Hops...)
	return &cp
}

// AddHop records a forwarding hop.
func (p *Packet) AddHop(n NodeID) {
	p.Hops = append(p.Hops, n)
}

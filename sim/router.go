package sim

import (
	"sort"

	"github.com/sirupsen/logrus"
)

// RouteEntry is one routing table row. At most one entry exists per
// destination; last write wins. An unreachable destination keeps its entry
// with the protocol's infinite-cost sentinel and an empty next hop.
type RouteEntry struct {
	Dest    NodeID  `json:"dest"`
	NextHop NodeID  `json:"next_hop"`
	Cost    float64 `json:"cost"`
}

// Network is the surface the driver exposes to routers and their engines.
// Engines never touch the topology or the event queue directly; sending a
// packet or arming a timer goes through here.
type Network interface {
	// Now returns the current simulated time.
	Now() int64
	// Send transmits a packet one hop from a node to a direct neighbor. The
	// transmission is silently discarded when the connecting link is down or
	// absent, or when link loss eats it.
	Send(from, to NodeID, p *Packet)
	// Neighbors returns the sender's currently-up adjacencies with costs.
	Neighbors(id NodeID) []NeighborCost
	// LinkState reports the cost and status of the a--b link.
	LinkState(a, b NodeID) (cost float64, up bool)
}

// ProtocolEngine is the capability set a routing protocol plugs into the
// router shell. Implementations: DVEngine, LSEngine.
type ProtocolEngine interface {
	Name() string
	// Start runs once before the event loop, after the shell installed its
	// self route.
	Start(now int64)
	// OnTimer handles TimerAdvert and TimerIntegrate expiries.
	OnTimer(kind TimerKind, now int64)
	// OnPacket handles ADVERT packets received from a direct neighbor.
	OnPacket(p *Packet, from NodeID, now int64)
	// OnLinkChange reports an incident link changing status, whether from an
	// injected event or from hello starvation.
	OnLinkChange(peer NodeID, up bool, now int64)
}

// dataDisposition is the shell's verdict on a DATA packet.
type dataDisposition int

const (
	dataForwarded dataDisposition = iota
	dataDelivered
	dataDroppedNoRoute
	dataDroppedTTL
)

// Router is the protocol-agnostic per-node shell: neighbor table, routing
// table, and the active protocol engine. The shell never implements routing
// logic itself; engines publish results through InstallRoute/DropRoute.
type Router struct {
	ID     NodeID
	Engine ProtocolEngine

	net           Network
	table         map[NodeID]RouteEntry
	neighbors     map[NodeID]int64 // peer -> last HELLO tick
	helloInterval int64
	lastChange    int64 // tick of the most recent table mutation

	// observer hooks, set by the driver
	onRouteChange func(r *Router, e RouteEntry, installed bool)
}

// NewRouter creates a shell bound to the given network surface.
func NewRouter(id NodeID, net Network, helloInterval int64) *Router {
	return &Router{
		ID:            id,
		net:           net,
		table:         make(map[NodeID]RouteEntry),
		neighbors:     make(map[NodeID]int64),
		helloInterval: helloInterval,
		lastChange:    -1,
	}
}

// Start installs the self route and starts the engine.
func (r *Router) Start(now int64) {
	r.InstallRoute(r.ID, r.ID, 0)
	r.Engine.Start(now)
}

// InstallRoute publishes a routing result. Overwrites any previous entry for
// the destination.
func (r *Router) InstallRoute(dest, nextHop NodeID, cost float64) {
	e := RouteEntry{Dest: dest, NextHop: nextHop, Cost: cost}
	if prev, ok := r.table[dest]; ok && prev == e {
		return
	}
	r.table[dest] = e
	r.lastChange = r.net.Now()
	if r.onRouteChange != nil {
		r.onRouteChange(r, e, true)
	}
}

// DropRoute removes the entry for a destination entirely. Engines that must
// represent unreachability keep an infinite-cost entry instead.
func (r *Router) DropRoute(dest NodeID) {
	e, ok := r.table[dest]
	if !ok {
		return
	}
	delete(r.table, dest)
	r.lastChange = r.net.Now()
	if r.onRouteChange != nil {
		r.onRouteChange(r, e, false)
	}
}

// Route returns the entry for a destination, if present.
func (r *Router) Route(dest NodeID) (RouteEntry, bool) {
	e, ok := r.table[dest]
	return e, ok
}

// TableSnapshot returns a copy of the routing table sorted by destination.
func (r *Router) TableSnapshot() []RouteEntry {
	out := make([]RouteEntry, 0, len(r.table))
	for _, e := range r.table {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Dest < out[j].Dest })
	return out
}

// LastChange returns the tick of the most recent table mutation, -1 if the
// table never changed.
func (r *Router) LastChange() int64 { return r.lastChange }

// NeighborLastHeard returns the last HELLO tick for a peer.
func (r *Router) NeighborLastHeard(peer NodeID) (int64, bool) {
	t, ok := r.neighbors[peer]
	return t, ok
}

// handlePacket dispatches a received packet. HELLO feeds the neighbor table,
// ADVERT goes to the engine, DATA is forwarded via the routing table.
func (r *Router) handlePacket(p *Packet, from NodeID, now int64) dataDisposition {
	switch p.Kind {
	case PacketHello:
		r.neighbors[from] = now
		return dataDelivered
	case PacketAdvert:
		r.Engine.OnPacket(p, from, now)
		return dataDelivered
	case PacketData:
		return r.forwardData(p, now)
	default:
		logrus.Warnf("[tick %07d] %s: dropping packet of unknown kind %q", now, r.ID, p.Kind)
		return dataDroppedNoRoute
	}
}

// forwardData moves a DATA packet one hop toward its destination.
func (r *Router) forwardData(p *Packet, now int64) dataDisposition {
	if p.Dst == r.ID {
		return dataDelivered
	}
	p.AddHop(r.ID)
	p.TTL--
	if p.TTL <= 0 {
		logrus.Debugf("[tick %07d] %s: TTL expired for packet %s -> %s", now, r.ID, p.Src, p.Dst)
		return dataDroppedTTL
	}
	e, ok := r.table[p.Dst]
	if !ok || e.NextHop == "" || e.NextHop == r.ID {
		logrus.Debugf("[tick %07d] %s: no route for packet %s -> %s", now, r.ID, p.Src, p.Dst)
		return dataDroppedNoRoute
	}
	r.net.Send(r.ID, e.NextHop, p)
	return dataForwarded
}

// handleTimer runs shell-owned timers and forwards the rest to the engine.
func (r *Router) handleTimer(kind TimerKind, now int64) {
	if kind == TimerHello {
		r.sendHellos(now)
		r.expireSilentNeighbors(now)
		return
	}
	r.Engine.OnTimer(kind, now)
}

// sendHellos probes every up neighbor.
func (r *Router) sendHellos(now int64) {
	for _, nc := range r.net.Neighbors(r.ID) {
		r.net.Send(r.ID, nc.Neighbor, NewPacket(PacketHello, r.ID, nc.Neighbor, now))
	}
}

// expireSilentNeighbors declares failed any neighbor silent for two hello
// periods. This backs up explicit LinkStatusChange delivery: the engine sees
// the loss either way.
func (r *Router) expireSilentNeighbors(now int64) {
	horizon := now - 2*r.helloInterval
	var silent []NodeID
	for peer, heard := range r.neighbors {
		if heard <= horizon {
			silent = append(silent, peer)
		}
	}
	// sorted so that equal-tick follow-up events enqueue in a fixed order
	sort.Slice(silent, func(i, j int) bool { return silent[i] < silent[j] })
	for _, peer := range silent {
		delete(r.neighbors, peer)
		logrus.Debugf("[tick %07d] %s: neighbor %s went silent", now, r.ID, peer)
		r.Engine.OnLinkChange(peer, false, now)
	}
}

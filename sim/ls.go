package sim

import (
	"math"
	"sort"

	"github.com/sirupsen/logrus"
)

// lsdbEntry is one origin's stored advertisement. Heard is the tick the
// entry was last written; pruning ages out origins by it.
type lsdbEntry struct {
	Seq       uint64
	Neighbors []NeighborCost
	Heard     int64
}

// LSEngine implements link-state routing over the router shell: every router
// floods its direct neighbor costs under a monotonically increasing sequence
// number and computes shortest paths locally with Dijkstra.
//
// Database invariant: an advertisement whose sequence number is less than or
// equal to the stored one for that origin is discarded without any state
// change, which makes re-delivery idempotent.
type LSEngine struct {
	router *Router
	net    Network

	seq            uint64
	lsdb           map[NodeID]lsdbEntry
	advertInterval int64
}

// NewLSEngine creates an LS engine bound to its shell.
func NewLSEngine(r *Router, net Network, advertInterval int64) *LSEngine {
	return &LSEngine{
		router:         r,
		net:            net,
		lsdb:           make(map[NodeID]lsdbEntry),
		advertInterval: advertInterval,
	}
}

func (e *LSEngine) Name() string { return "ls" }

// Start records the initial self entry; the first flood happens when the
// initial advert timer fires at the start of the run.
func (e *LSEngine) Start(now int64) {
	e.lsdb[e.router.ID] = lsdbEntry{Seq: e.seq, Neighbors: e.makeAdvertisement(), Heard: now}
}

// OnTimer originates the periodic LSA and, at the half-period offset,
// rebuilds the routing table from the accumulated database.
func (e *LSEngine) OnTimer(kind TimerKind, now int64) {
	switch kind {
	case TimerAdvert:
		e.originate(now)
		e.pruneStale(now)
	case TimerIntegrate:
		e.rebuild(now)
	}
}

// OnPacket floods newer advertisements onward and recomputes the table.
// Stale and duplicate sequence numbers are discarded; a missing neighbor
// list is a malformed advertisement, logged and dropped.
func (e *LSEngine) OnPacket(p *Packet, from NodeID, now int64) {
	if p.LS == nil || p.LS.Neighbors == nil {
		logrus.Warnf("[tick %07d] %s: %v (from %s)", now, e.router.ID, ErrMalformedAdvertisement, from)
		return
	}
	origin := p.LS.Origin
	if origin == e.router.ID {
		return
	}
	if stored, ok := e.lsdb[origin]; ok && p.LS.Seq <= stored.Seq {
		return
	}
	e.lsdb[origin] = lsdbEntry{
		Seq:       p.LS.Seq,
		Neighbors: append([]NeighborCost(nil), p.LS.Neighbors...),
		Heard:     now,
	}
	e.rebuild(now)
	// forward to all up neighbors except the one it arrived from
	for _, nc := range e.net.Neighbors(e.router.ID) {
		if nc.Neighbor == from {
			continue
		}
		e.net.Send(e.router.ID, nc.Neighbor, p.Clone())
	}
}

// OnLinkChange floods a fresh LSA reflecting the new adjacency and
// recomputes immediately.
func (e *LSEngine) OnLinkChange(peer NodeID, up bool, now int64) {
	e.originate(now)
	e.rebuild(now)
}

// Database returns a copy of the link-state database for inspection.
func (e *LSEngine) Database() map[NodeID][]NeighborCost {
	out := make(map[NodeID][]NeighborCost, len(e.lsdb))
	for origin, entry := range e.lsdb {
		out[origin] = append([]NeighborCost(nil), entry.Neighbors...)
	}
	return out
}

// Seq returns the current origination sequence number.
func (e *LSEngine) Seq() uint64 { return e.seq }

// makeAdvertisement lists the currently-up incident links.
func (e *LSEngine) makeAdvertisement() []NeighborCost {
	return e.net.Neighbors(e.router.ID)
}

// originate increments the sequence number and floods a fresh LSA.
func (e *LSEngine) originate(now int64) {
	e.seq++
	neighbors := e.makeAdvertisement()
	e.lsdb[e.router.ID] = lsdbEntry{Seq: e.seq, Neighbors: neighbors, Heard: now}
	for _, nc := range neighbors {
		p := NewPacket(PacketAdvert, e.router.ID, nc.Neighbor, now)
		p.LS = &LSAdvert{
			Origin:    e.router.ID,
			Seq:       e.seq,
			Neighbors: append([]NeighborCost(nil), neighbors...),
		}
		e.net.Send(e.router.ID, nc.Neighbor, p)
	}
}

// pruneStale ages out origins not refreshed for two advertisement periods.
// A live origin refloods every period, so its entry stays fresh; comparing
// sequence numbers instead would misfire, because link changes trigger extra
// originations and push the local sequence ahead of undisturbed origins.
func (e *LSEngine) pruneStale(now int64) {
	for origin, entry := range e.lsdb {
		if origin == e.router.ID {
			continue
		}
		if now-entry.Heard > 2*e.advertInterval {
			logrus.Debugf("[tick %07d] %s: aging out LSA of %s (last heard tick %d)", now, e.router.ID, origin, entry.Heard)
			delete(e.lsdb, origin)
		}
	}
}

// rebuild recomputes the routing table: refresh the self entry, walk the
// database for reachable origins, run Dijkstra, and replace the table with
// the result. Destinations that fell out of the reachable set lose their
// entries.
func (e *LSEngine) rebuild(now int64) {
	e.lsdb[e.router.ID] = lsdbEntry{Seq: e.seq, Neighbors: e.makeAdvertisement(), Heard: now}
	nodes := e.knownNodes()
	dist, nextHop := e.dijkstra(nodes)

	installed := map[NodeID]bool{e.router.ID: true}
	for _, v := range nodes {
		if v == e.router.ID {
			continue
		}
		if nh, ok := nextHop[v]; ok && !math.IsInf(dist[v], 1) {
			e.router.InstallRoute(v, nh, dist[v])
			installed[v] = true
		}
	}
	for _, entry := range e.router.TableSnapshot() {
		if !installed[entry.Dest] {
			e.router.DropRoute(entry.Dest)
		}
	}
}

// knownNodes walks the database adjacency from self, breadth-first, in
// sorted order for determinism.
func (e *LSEngine) knownNodes() []NodeID {
	nodes := []NodeID{e.router.ID}
	seen := map[NodeID]bool{e.router.ID: true}
	for i := 0; i < len(nodes); i++ {
		entry, ok := e.lsdb[nodes[i]]
		if !ok {
			continue
		}
		for _, nc := range entry.Neighbors {
			if !seen[nc.Neighbor] {
				seen[nc.Neighbor] = true
				nodes = append(nodes, nc.Neighbor)
			}
		}
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })
	return nodes
}

// dijkstra computes shortest paths from self over the database graph.
// nextHop[v] is the first hop from self toward v. Equal-cost paths resolve
// to the smaller next-hop node id, so the result is deterministic and
// testable.
func (e *LSEngine) dijkstra(nodes []NodeID) (map[NodeID]float64, map[NodeID]NodeID) {
	self := e.router.ID
	dist := make(map[NodeID]float64, len(nodes))
	nextHop := make(map[NodeID]NodeID)
	unvisited := make(map[NodeID]bool, len(nodes))
	for _, u := range nodes {
		dist[u] = math.Inf(1)
		unvisited[u] = true
	}
	dist[self] = 0

	for len(unvisited) > 0 {
		u := minUnvisited(nodes, unvisited, dist)
		delete(unvisited, u)
		if math.IsInf(dist[u], 1) {
			break
		}
		entry := e.lsdb[u]
		for _, nc := range entry.Neighbors {
			v := nc.Neighbor
			if _, known := dist[v]; !known {
				continue
			}
			alt := dist[u] + nc.Cost
			var candidate NodeID
			if u == self {
				candidate = v
			} else {
				candidate = nextHop[u]
			}
			current, haveHop := nextHop[v]
			if alt < dist[v] || (alt == dist[v] && haveHop && candidate < current) {
				dist[v] = alt
				nextHop[v] = candidate
			}
		}
	}
	return dist, nextHop
}

// minUnvisited picks the unvisited node with the smallest tentative
// distance, preferring the smaller id on ties.
func minUnvisited(nodes []NodeID, unvisited map[NodeID]bool, dist map[NodeID]float64) NodeID {
	var best NodeID
	bestDist := math.Inf(1)
	found := false
	for _, u := range nodes {
		if !unvisited[u] {
			continue
		}
		if !found || dist[u] < bestDist {
			best, bestDist, found = u, dist[u], true
		}
	}
	return best
}

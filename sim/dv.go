package sim

import (
	"sort"

	"github.com/sirupsen/logrus"
)

// DVInfinity is the distance-vector cost ceiling. Any candidate cost at or
// above it is clamped to exactly DVInfinity and the destination is treated
// as unreachable. The ceiling bounds count-to-infinity: after a failure,
// costs climb link by link until they hit it, instead of growing forever.
// Split horizon / poison reverse is deliberately not implemented.
const DVInfinity float64 = 32

// DVEngine implements distributed Bellman-Ford over the router shell.
//
// State it keeps beyond the shell's routing table: the most recent vector
// received from each neighbor and the vector last advertised. Unreachable
// destinations stay in the table with the DVInfinity sentinel; they are
// never silently dropped, so peers learn about retractions.
type DVEngine struct {
	router *Router
	net    Network

	received   map[NodeID]map[NodeID]float64 // neighbor -> last vector received
	advertised map[NodeID]float64            // vector last sent (identical to all neighbors)
}

// NewDVEngine creates a DV engine bound to its shell.
func NewDVEngine(r *Router, net Network) *DVEngine {
	return &DVEngine{
		router:   r,
		net:      net,
		received: make(map[NodeID]map[NodeID]float64),
	}
}

func (e *DVEngine) Name() string { return "dv" }

// Start has nothing to do: the first advertisement goes out when the initial
// advert timer fires.
func (e *DVEngine) Start(now int64) {}

// OnTimer sends the periodic full-vector advertisement. The integrate timer
// belongs to the LS schedule and is ignored here.
func (e *DVEngine) OnTimer(kind TimerKind, now int64) {
	if kind != TimerAdvert {
		return
	}
	e.sendAdvertisement(now)
}

// OnPacket integrates a neighbor's vector; a table change triggers an
// immediate re-advertisement.
func (e *DVEngine) OnPacket(p *Packet, from NodeID, now int64) {
	if p.DV == nil || p.DV.Vector == nil {
		logrus.Warnf("[tick %07d] %s: dropping advert without vector from %s", now, e.router.ID, from)
		return
	}
	cost, up := e.net.LinkState(e.router.ID, from)
	if !up {
		// the link died while the advert was in flight
		return
	}
	vec := make(map[NodeID]float64, len(p.DV.Vector))
	for d, c := range p.DV.Vector {
		vec[d] = c
	}
	e.received[from] = vec
	if e.integrate(from, cost, vec) {
		e.sendAdvertisement(now)
	}
}

// OnLinkChange invalidates every route through a lost neighbor and
// re-advertises immediately. A restored link is answered with a fresh
// advertisement so the peer relearns our vector without waiting a period.
func (e *DVEngine) OnLinkChange(peer NodeID, up bool, now int64) {
	if up {
		e.sendAdvertisement(now)
		return
	}
	delete(e.received, peer)
	changed := false
	for _, entry := range e.router.TableSnapshot() {
		if entry.NextHop == peer && entry.Cost < DVInfinity {
			e.router.InstallRoute(entry.Dest, "", DVInfinity)
			changed = true
		}
	}
	if changed {
		e.sendAdvertisement(now)
	}
}

// integrate applies the Bellman-Ford update rule for one received vector.
// For each destination: candidate = link cost + advertised cost, clamped at
// DVInfinity. The candidate replaces the current route when it is strictly
// better, or when the current route already runs through this neighbor and
// the cost moved (including up to the sentinel).
func (e *DVEngine) integrate(from NodeID, linkCost float64, adv map[NodeID]float64) bool {
	dests := make([]NodeID, 0, len(adv))
	for d := range adv {
		dests = append(dests, d)
	}
	sort.Slice(dests, func(i, j int) bool { return dests[i] < dests[j] })

	changed := false
	for _, dest := range dests {
		if dest == e.router.ID {
			continue
		}
		candidate := linkCost + adv[dest]
		if candidate >= DVInfinity {
			candidate = DVInfinity
		}
		current := DVInfinity
		via := NodeID("")
		if entry, ok := e.router.Route(dest); ok {
			current = entry.Cost
			via = entry.NextHop
		}
		switch {
		case via == from && candidate != current:
			if candidate >= DVInfinity {
				e.router.InstallRoute(dest, "", DVInfinity)
			} else {
				e.router.InstallRoute(dest, from, candidate)
			}
			changed = true
		case candidate < current:
			e.router.InstallRoute(dest, from, candidate)
			changed = true
		}
	}
	return changed
}

// sendAdvertisement sends the full current vector to every up neighbor.
func (e *DVEngine) sendAdvertisement(now int64) {
	vector := e.makeVector()
	e.advertised = vector
	for _, nc := range e.net.Neighbors(e.router.ID) {
		p := NewPacket(PacketAdvert, e.router.ID, nc.Neighbor, now)
		vec := make(map[NodeID]float64, len(vector))
		for d, c := range vector {
			vec[d] = c
		}
		p.DV = &DVAdvert{Vector: vec}
		e.net.Send(e.router.ID, nc.Neighbor, p)
	}
}

// makeVector snapshots the current believed costs, sentinel entries included.
func (e *DVEngine) makeVector() map[NodeID]float64 {
	vector := make(map[NodeID]float64)
	for _, entry := range e.router.TableSnapshot() {
		vector[entry.Dest] = entry.Cost
	}
	return vector
}

// LastReceived returns the most recent vector from a neighbor, for
// inspection by tests and the visualization layer.
func (e *DVEngine) LastReceived(from NodeID) (map[NodeID]float64, bool) {
	v, ok := e.received[from]
	return v, ok
}

// LastAdvertised returns the vector most recently sent to neighbors.
func (e *DVEngine) LastAdvertised() map[NodeID]float64 { return e.advertised }

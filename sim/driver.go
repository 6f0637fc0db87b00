package sim

import (
	"fmt"
	"math"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/routesim/routesim/sim/topo"
	"github.com/routesim/routesim/sim/trace"
)

// TransitDelay is the fixed per-hop delivery delay in ticks: a packet sent
// at tick t arrives at t+1.
const TransitDelay int64 = 1

// Driver owns the run: the event queue, the topology, and the routers. It
// pumps events one at a time, applies scheduled failures, and reports
// convergence. All mutation of simulation state flows through here; the
// mutex only serializes control calls from the visualization layer against
// the step loop, never two concurrent steps.
type Driver struct {
	mu sync.Mutex

	cfg     Config
	topo    *Topology
	queue   *EventQueue
	routers map[NodeID]*Router
	order   []NodeID // router ids, sorted, for deterministic iteration
	rng     *PartitionedRNG

	Metrics *Metrics
	Trace   *trace.Trace

	pendingTopoChanges int
	paused             bool
	speed              float64
}

// NewDriver builds a simulation from a topology description. Topology
// misuse (duplicate links, unknown endpoints) surfaces here and the run
// does not start.
func NewDriver(cfg Config, desc *topo.Description) (*Driver, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}

	d := &Driver{
		cfg:     cfg,
		topo:    NewTopology(),
		queue:   NewEventQueue(),
		routers: make(map[NodeID]*Router),
		rng:     NewPartitionedRNG(cfg.Seed),
		Metrics: NewMetrics(),
		Trace:   trace.New(cfg.TraceLevel),
		speed:   1,
	}

	for _, n := range desc.Nodes {
		d.topo.AddNode(NodeID(n.ID), n.X, n.Y)
	}
	for _, l := range desc.Links {
		link, err := d.topo.AddLink(NodeID(l.A), NodeID(l.B), l.Cost)
		if err != nil {
			return nil, err
		}
		link.LossProb = cfg.LossProb
	}

	d.order = d.topo.NodeIDs()
	for _, id := range d.order {
		r := NewRouter(id, d, cfg.HelloInterval)
		switch cfg.Protocol {
		case ProtocolDV:
			r.Engine = NewDVEngine(r, d)
		case ProtocolLS:
			r.Engine = NewLSEngine(r, d, cfg.AdvertInterval)
		}
		r.onRouteChange = d.onRouteChange
		d.routers[id] = r
	}

	for _, id := range d.order {
		d.routers[id].Start(0)
	}
	d.scheduleInitialTimers()
	d.scheduleDataTraffic()
	return d, nil
}

// scheduleInitialTimers arms every router's periodic timers. Offsets are 0
// unless jitter is enabled; the LS integrate timer runs at the half-period
// offset, matching the protocol's table-rebuild schedule.
func (d *Driver) scheduleInitialTimers() {
	jitter := d.rng.ForSubsystem(SubsystemJitter)
	for _, id := range d.order {
		var helloOff, advertOff int64
		if d.cfg.TimerJitter {
			helloOff = jitter.Int63n(d.cfg.HelloInterval)
			advertOff = jitter.Int63n(d.cfg.AdvertInterval)
		}
		d.mustSchedule(NewTimerFireEvent(helloOff, id, TimerHello))
		d.mustSchedule(NewTimerFireEvent(advertOff, id, TimerAdvert))
		if d.cfg.Protocol == ProtocolLS {
			d.mustSchedule(NewTimerFireEvent(advertOff+d.cfg.AdvertInterval/2, id, TimerIntegrate))
		}
	}
}

// scheduleDataTraffic injects the configured number of synthetic DATA
// packets at random times and endpoints, after the network has had two
// advertisement periods to converge.
func (d *Driver) scheduleDataTraffic() {
	if d.cfg.DataPackets <= 0 || len(d.order) < 2 {
		return
	}
	rng := d.rng.ForSubsystem(SubsystemTraffic)
	lo := 2 * d.cfg.AdvertInterval
	if lo >= d.cfg.Horizon {
		lo = 0
	}
	for i := 0; i < d.cfg.DataPackets; i++ {
		src := d.order[rng.Intn(len(d.order))]
		dst := d.order[rng.Intn(len(d.order))]
		for dst == src {
			dst = d.order[rng.Intn(len(d.order))]
		}
		at := lo + rng.Int63n(d.cfg.Horizon-lo)
		if err := d.InjectData(src, dst, at); err != nil {
			panic(fmt.Sprintf("traffic generation produced invalid injection: %v", err))
		}
	}
}

// mustSchedule wraps Schedule for events built from the current clock;
// failure means driver-level corruption.
func (d *Driver) mustSchedule(ev Event) {
	if err := d.queue.Schedule(ev); err != nil {
		panic(fmt.Sprintf("driver scheduled event in the past: %v", err))
	}
}

// onRouteChange is the shell's observer hook for table mutations.
func (d *Driver) onRouteChange(r *Router, e RouteEntry, installed bool) {
	d.Metrics.TableChanges++
	d.Metrics.LastTableChange = d.queue.Now()
	d.Trace.RecordRouteChange(trace.RouteChangeRecord{
		Tick:      d.queue.Now(),
		Router:    string(r.ID),
		Dest:      string(e.Dest),
		NextHop:   string(e.NextHop),
		Cost:      e.Cost,
		Installed: installed,
	})
}

// === Network interface (the surface routers and engines see) ===

// Now returns the current simulated time.
func (d *Driver) Now() int64 { return d.queue.Now() }

// Neighbors returns a node's currently-up adjacencies.
func (d *Driver) Neighbors(id NodeID) []NeighborCost { return d.topo.NeighborsOf(id) }

// LinkState reports cost and status of the a--b link; a missing link is
// reported as down.
func (d *Driver) LinkState(a, b NodeID) (float64, bool) {
	l, ok := d.topo.GetLink(a, b)
	if !ok {
		return 0, false
	}
	return l.Cost, l.Up
}

// Send transmits a packet one hop. A down or absent link discards it, as
// does configured link loss; otherwise arrival is scheduled one transit
// delay ahead.
func (d *Driver) Send(from, to NodeID, p *Packet) {
	l, ok := d.topo.GetLink(from, to)
	if !ok || !l.Up {
		d.Metrics.DroppedLinkDown++
		d.recordPacket(p, "link-down")
		return
	}
	if l.LossProb > 0 && d.rng.ForSubsystem(SubsystemLoss).Float64() < l.LossProb {
		d.Metrics.DroppedLoss++
		d.recordPacket(p, "lost")
		return
	}
	d.Metrics.countSend(p.Kind)
	d.mustSchedule(NewPacketArrivalEvent(d.queue.Now()+TransitDelay, from, to, p))
}

// === Event handlers ===

func (d *Driver) handlePacketArrival(e *PacketArrivalEvent) {
	r, ok := d.routers[e.To]
	if !ok {
		panic(fmt.Sprintf("packet addressed to unknown router %s", e.To))
	}
	now := d.queue.Now()
	// A locally originated packet (From == To) never traversed a link.
	// Anything else is dropped if its link went down while in flight:
	// failure injection does not unschedule events.
	if e.From != e.To {
		if _, up := d.LinkState(e.From, e.To); !up {
			d.Metrics.DroppedLinkDown++
			d.recordPacket(e.Packet, "link-down")
			return
		}
	}
	switch r.handlePacket(e.Packet, e.From, now) {
	case dataDelivered:
		if e.Packet.Kind == PacketData {
			d.Metrics.DataDelivered++
			d.recordPacket(e.Packet, "delivered")
		}
	case dataDroppedNoRoute:
		d.Metrics.DroppedNoRoute++
		d.recordPacket(e.Packet, "no-route")
	case dataDroppedTTL:
		d.Metrics.DroppedTTL++
		d.recordPacket(e.Packet, "ttl-expired")
	}
}

func (d *Driver) handleTimerFire(e *TimerFireEvent) {
	r, ok := d.routers[e.Node]
	if !ok {
		panic(fmt.Sprintf("timer addressed to unknown router %s", e.Node))
	}
	now := d.queue.Now()
	r.handleTimer(e.Kind, now)
	interval := d.cfg.AdvertInterval
	if e.Kind == TimerHello {
		interval = d.cfg.HelloInterval
	}
	d.mustSchedule(NewTimerFireEvent(now+interval, e.Node, e.Kind))
}

func (d *Driver) handleLinkStatusChange(e *LinkStatusChangeEvent) {
	d.pendingTopoChanges--
	if err := d.topo.SetLinkStatus(e.A, e.B, e.Up); err != nil {
		panic(fmt.Sprintf("link status event for unknown link: %v", err))
	}
	now := d.queue.Now()
	logrus.Infof("[tick %07d] link %s--%s %s", now, e.A, e.B, statusWord(e.Up))
	d.routers[e.A].Engine.OnLinkChange(e.B, e.Up, now)
	d.routers[e.B].Engine.OnLinkChange(e.A, e.Up, now)
}

func statusWord(up bool) string {
	if up {
		return "up"
	}
	return "down"
}

// recordPacket traces a packet's fate.
func (d *Driver) recordPacket(p *Packet, outcome string) {
	if d.Trace.Level == trace.LevelNone {
		return
	}
	hops := make([]string, len(p.Hops))
	for i, h := range p.Hops {
		hops[i] = string(h)
	}
	d.Trace.RecordPacket(trace.PacketRecord{
		ID:        p.ID,
		Kind:      string(p.Kind),
		Source:    string(p.Src),
		Dest:      string(p.Dst),
		Ingress:   p.Ingress,
		Completed: d.queue.Now(),
		Hops:      hops,
		Outcome:   outcome,
	})
}

// === Control entry points ===

// FailLink schedules the a--b link to go down at the current time.
func (d *Driver) FailLink(a, b NodeID) error { return d.FailLinkAt(a, b, d.Now()) }

// RestoreLink schedules the a--b link to come back up at the current time.
func (d *Driver) RestoreLink(a, b NodeID) error { return d.RestoreLinkAt(a, b, d.Now()) }

// FailLinkAt schedules a link failure at a future tick.
func (d *Driver) FailLinkAt(a, b NodeID, at int64) error {
	return d.scheduleLinkChange(a, b, at, false)
}

// RestoreLinkAt schedules a link restoration at a future tick.
func (d *Driver) RestoreLinkAt(a, b NodeID, at int64) error {
	return d.scheduleLinkChange(a, b, at, true)
}

func (d *Driver) scheduleLinkChange(a, b NodeID, at int64, up bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.topo.GetLink(a, b); !ok {
		return fmt.Errorf("%w: %s--%s", ErrUnknownLink, a, b)
	}
	if err := d.queue.Schedule(NewLinkStatusChangeEvent(at, a, b, up)); err != nil {
		return err
	}
	d.pendingTopoChanges++
	return nil
}

// InjectData introduces a synthetic DATA packet at its source router.
func (d *Driver) InjectData(src, dst NodeID, at int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.routers[src]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, src)
	}
	if _, ok := d.routers[dst]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, dst)
	}
	p := NewPacket(PacketData, src, dst, at)
	if err := d.queue.Schedule(NewPacketArrivalEvent(at, src, src, p)); err != nil {
		return err
	}
	d.Metrics.DataSent++
	return nil
}

// Pause stops the interactive step loop; the event queue is untouched.
func (d *Driver) Pause() { d.mu.Lock(); d.paused = true; d.mu.Unlock() }

// Resume lets the interactive step loop continue.
func (d *Driver) Resume() { d.mu.Lock(); d.paused = false; d.mu.Unlock() }

// Paused reports whether the interactive loop is paused.
func (d *Driver) Paused() bool { d.mu.Lock(); defer d.mu.Unlock(); return d.paused }

// SetSpeed scales the wall-clock pacing of the interactive loop. It never
// affects simulated time.
func (d *Driver) SetSpeed(speed float64) error {
	if speed <= 0 {
		return fmt.Errorf("speed must be positive, got %v", speed)
	}
	d.mu.Lock()
	d.speed = speed
	d.mu.Unlock()
	return nil
}

// Speed returns the current pacing factor.
func (d *Driver) Speed() float64 { d.mu.Lock(); defer d.mu.Unlock(); return d.speed }

// === Run loop ===

// Run pumps events until the queue empties or the horizon is exhausted.
func (d *Driver) Run() {
	for d.Step() {
	}
	d.mu.Lock()
	d.Metrics.SimEndedTime = min(d.queue.Now(), d.cfg.Horizon)
	if d.convergedLocked() {
		d.Metrics.ConvergedAt = d.Metrics.LastTableChange + d.cfg.AdvertInterval
	}
	d.mu.Unlock()
	logrus.Infof("[tick %07d] simulation ended", d.queue.Now())
}

// Step processes a single event. It returns false when the queue is empty
// or the next event lies beyond the horizon.
func (d *Driver) Step() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if next := d.queue.Peek(); next == nil || next.Timestamp() > d.cfg.Horizon {
		return false
	}
	ev, _ := d.queue.NextEvent()
	logrus.Debugf("[tick %07d] executing %s", ev.Timestamp(), ev.Type())
	if d.Trace.Level == trace.LevelFull {
		d.Trace.RecordEvent(trace.EventRecord{
			Tick: ev.Timestamp(),
			Type: string(ev.Type()),
			Node: eventNode(ev),
		})
	}
	ev.Execute(d)
	return true
}

// eventNode extracts the addressed node for the trace, where one exists.
func eventNode(ev Event) string {
	switch e := ev.(type) {
	case *PacketArrivalEvent:
		return string(e.To)
	case *TimerFireEvent:
		return string(e.Node)
	case *LinkStatusChangeEvent:
		return string(e.A) + "--" + string(e.B)
	default:
		panic(fmt.Sprintf("unknown event variant %T", ev))
	}
}

// Converged reports whether every routing table has been stable for one full
// advertisement period with no topology change pending.
func (d *Driver) Converged() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.convergedLocked()
}

func (d *Driver) convergedLocked() bool {
	if d.pendingTopoChanges > 0 {
		return false
	}
	last := d.Metrics.LastTableChange
	return last >= 0 && d.queue.Now()-last >= d.cfg.AdvertInterval
}

// Router returns the shell for a node id, for inspection by tests.
func (d *Driver) Router(id NodeID) (*Router, bool) {
	r, ok := d.routers[id]
	return r, ok
}

// Config returns the run configuration.
func (d *Driver) Config() Config { return d.cfg }

// Snapshot deep-copies the current state for the visualization layer.
func (d *Driver) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := Snapshot{
		Tick:      d.queue.Now(),
		Protocol:  d.cfg.Protocol,
		Converged: d.convergedLocked(),
		Metrics:   *d.Metrics,
	}
	for _, id := range d.order {
		n, _ := d.topo.GetNode(id)
		s.Nodes = append(s.Nodes, NodeSnapshot{
			ID:    id,
			X:     n.X,
			Y:     n.Y,
			Table: d.routers[id].TableSnapshot(),
		})
	}
	for _, l := range d.topo.Links() {
		s.Links = append(s.Links, LinkSnapshot{A: l.A, B: l.B, Cost: l.Cost, Up: l.Up})
	}
	return s
}

// CurrentDescription exports the live topology, up links only, for
// reference shortest-path computation.
func (d *Driver) CurrentDescription() *topo.Description {
	d.mu.Lock()
	defer d.mu.Unlock()
	desc := &topo.Description{}
	for _, id := range d.order {
		n, _ := d.topo.GetNode(id)
		desc.Nodes = append(desc.Nodes, topo.Node{ID: string(id), X: n.X, Y: n.Y})
	}
	for _, l := range d.topo.Links() {
		if !l.Up {
			continue
		}
		desc.Links = append(desc.Links, topo.Link{A: string(l.A), B: string(l.B), Cost: l.Cost})
	}
	return desc
}

// VerifyTables compares every router's table against the reference
// all-pairs shortest costs over the current up-topology. It returns one
// message per discrepancy; an empty result means the tables are correct.
func (d *Driver) VerifyTables() []string {
	ref := topo.AllPairsShortestCosts(d.CurrentDescription())
	d.mu.Lock()
	defer d.mu.Unlock()

	var problems []string
	const eps = 1e-9
	for _, id := range d.order {
		r := d.routers[id]
		for dst, want := range ref[string(id)] {
			if dst == string(id) {
				continue
			}
			entry, ok := r.Route(NodeID(dst))
			reachable := !math.IsInf(want, 1)
			switch {
			case reachable && (!ok || abs(entry.Cost-want) > eps):
				got := "none"
				if ok {
					got = fmt.Sprintf("%v via %s", entry.Cost, entry.NextHop)
				}
				problems = append(problems, fmt.Sprintf("%s -> %s: want cost %v, got %s", id, dst, want, got))
			case !reachable && ok && entry.Cost < DVInfinity:
				problems = append(problems, fmt.Sprintf("%s -> %s: want unreachable, got cost %v via %s", id, dst, entry.Cost, entry.NextHop))
			}
		}
	}
	return problems
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

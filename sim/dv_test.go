package sim

import (
	"testing"

	"github.com/routesim/routesim/sim/topo"
)

// newTestDriver builds a driver with quiet defaults for protocol tests.
func newTestDriver(t *testing.T, protocol string, horizon int64, desc *topo.Description) *Driver {
	t.Helper()
	d, err := NewDriver(Config{Protocol: protocol, Horizon: horizon, Seed: 42}, desc)
	if err != nil {
		t.Fatalf("NewDriver failed: %v", err)
	}
	return d
}

func lineDescription(abCost, bcCost float64) *topo.Description {
	return &topo.Description{
		Nodes: []topo.Node{{ID: "A"}, {ID: "B", X: 1}, {ID: "C", X: 2}},
		Links: []topo.Link{{A: "A", B: "B", Cost: abCost}, {A: "B", B: "C", Cost: bcCost}},
	}
}

func dvAdvert(src, dst NodeID, vec map[NodeID]float64) *Packet {
	p := NewPacket(PacketAdvert, src, dst, 0)
	p.DV = &DVAdvert{Vector: vec}
	return p
}

func mustRoute(t *testing.T, d *Driver, router, dest NodeID) RouteEntry {
	t.Helper()
	r, ok := d.Router(router)
	if !ok {
		t.Fatalf("no router %s", router)
	}
	e, ok := r.Route(dest)
	if !ok {
		t.Fatalf("%s has no route to %s; table: %v", router, dest, r.TableSnapshot())
	}
	return e
}

// TestDV_RingConvergence runs four routers in a ring of cost-1 links: every
// router must end with cost 1 to each adjacent node and cost 2 to the
// opposite node.
func TestDV_RingConvergence(t *testing.T) {
	desc, err := topo.Ring(4)
	if err != nil {
		t.Fatalf("Ring failed: %v", err)
	}
	d := newTestDriver(t, ProtocolDV, 300, desc)
	d.Run()

	if !d.Converged() {
		t.Fatal("ring did not converge")
	}
	want := map[NodeID]map[NodeID]float64{
		"A": {"B": 1, "C": 2, "D": 1},
		"B": {"A": 1, "C": 1, "D": 2},
		"C": {"A": 2, "B": 1, "D": 1},
		"D": {"A": 1, "B": 2, "C": 1},
	}
	for router, dests := range want {
		for dest, cost := range dests {
			if e := mustRoute(t, d, router, dest); e.Cost != cost {
				t.Errorf("%s -> %s: cost %v, want %v", router, dest, e.Cost, cost)
			}
		}
	}
	if problems := d.VerifyTables(); len(problems) > 0 {
		t.Errorf("table verification failed: %v", problems)
	}
}

// TestDV_IntegrateRules drives one engine by hand through the Bellman-Ford
// update cases: adopt a better path, keep a worse one, follow the current
// next hop upward, and clamp at the cost ceiling.
func TestDV_IntegrateRules(t *testing.T) {
	d := newTestDriver(t, ProtocolDV, 100, lineDescription(1, 2))
	r, _ := d.Router("B")
	e := r.Engine.(*DVEngine)

	// learn A at link cost
	e.OnPacket(dvAdvert("A", "B", map[NodeID]float64{"A": 0}), "A", 0)
	if got := mustRoute(t, d, "B", "A"); got.Cost != 1 || got.NextHop != "A" {
		t.Fatalf("route to A = %+v, want cost 1 via A", got)
	}

	// learn C and a distant D through A
	e.OnPacket(dvAdvert("A", "B", map[NodeID]float64{"A": 0, "D": 3}), "A", 0)
	if got := mustRoute(t, d, "B", "D"); got.Cost != 4 || got.NextHop != "A" {
		t.Fatalf("route to D = %+v, want cost 4 via A", got)
	}

	// a worse path through C must not displace the current route
	e.OnPacket(dvAdvert("C", "B", map[NodeID]float64{"C": 0, "D": 9}), "C", 0)
	if got := mustRoute(t, d, "B", "D"); got.Cost != 4 || got.NextHop != "A" {
		t.Errorf("route to D after worse advert = %+v, want unchanged cost 4 via A", got)
	}

	// an upward revision through the current next hop must be followed
	e.OnPacket(dvAdvert("A", "B", map[NodeID]float64{"A": 0, "D": 10}), "A", 0)
	if got := mustRoute(t, d, "B", "D"); got.Cost != 11 || got.NextHop != "A" {
		t.Errorf("route to D after upward revision = %+v, want cost 11 via A", got)
	}

	// ...and now the path through C wins
	e.OnPacket(dvAdvert("C", "B", map[NodeID]float64{"C": 0, "D": 8}), "C", 0)
	if got := mustRoute(t, d, "B", "D"); got.Cost != 10 || got.NextHop != "C" {
		t.Errorf("route to D after better advert = %+v, want cost 10 via C", got)
	}

	// a candidate at or above the ceiling clamps to the sentinel
	e.OnPacket(dvAdvert("C", "B", map[NodeID]float64{"C": 0, "D": 31}), "C", 0)
	if got := mustRoute(t, d, "B", "D"); got.Cost != DVInfinity || got.NextHop != "" {
		t.Errorf("route to D after ceiling = %+v, want sentinel", got)
	}
}

// TestDV_MalformedAdvertDropped tests that an advert without a vector leaves
// all state untouched.
func TestDV_MalformedAdvertDropped(t *testing.T) {
	d := newTestDriver(t, ProtocolDV, 100, lineDescription(1, 1))
	r, _ := d.Router("B")
	e := r.Engine.(*DVEngine)

	p := NewPacket(PacketAdvert, "A", "B", 0)
	e.OnPacket(p, "A", 0)
	if _, ok := e.LastReceived("A"); ok {
		t.Error("vector stored from malformed advert")
	}
	if len(r.TableSnapshot()) != 1 {
		t.Errorf("table changed by malformed advert: %v", r.TableSnapshot())
	}
}

// TestDV_AdvertisementCarriesSentinel tests that unreachable destinations
// stay in the advertised vector with the infinite cost, never omitted.
func TestDV_AdvertisementCarriesSentinel(t *testing.T) {
	d := newTestDriver(t, ProtocolDV, 100, lineDescription(1, 1))
	r, _ := d.Router("B")
	e := r.Engine.(*DVEngine)

	e.OnPacket(dvAdvert("A", "B", map[NodeID]float64{"A": 0, "D": 2}), "A", 0)
	e.OnLinkChange("A", false, 5)

	if got := mustRoute(t, d, "B", "D"); got.Cost != DVInfinity {
		t.Fatalf("route to D after losing A = %+v, want sentinel", got)
	}
	adv := e.LastAdvertised()
	if cost, ok := adv["D"]; !ok || cost != DVInfinity {
		t.Errorf("advertised vector = %v, want D at sentinel cost", adv)
	}
}

// TestDV_LinkFailureInvalidation fails the middle of a line mid-run: routes
// across the break must settle at the sentinel, and a restore must bring the
// real costs back.
func TestDV_LinkFailureInvalidation(t *testing.T) {
	d := newTestDriver(t, ProtocolDV, 900, lineDescription(1, 1))
	if err := d.FailLinkAt("B", "C", 300); err != nil {
		t.Fatalf("FailLinkAt failed: %v", err)
	}
	if err := d.RestoreLinkAt("B", "C", 600); err != nil {
		t.Fatalf("RestoreLinkAt failed: %v", err)
	}

	// run to just before the restore: C must be unreachable from A and B
	for d.Step() && d.Now() < 599 {
	}
	if got := mustRoute(t, d, "A", "C"); got.Cost != DVInfinity || got.NextHop != "" {
		t.Errorf("A -> C during outage = %+v, want sentinel", got)
	}
	if got := mustRoute(t, d, "B", "C"); got.Cost != DVInfinity {
		t.Errorf("B -> C during outage = %+v, want sentinel", got)
	}

	// finish the run: the restore re-advertises and costs recover
	d.Run()
	if got := mustRoute(t, d, "A", "C"); got.Cost != 2 || got.NextHop != "B" {
		t.Errorf("A -> C after restore = %+v, want cost 2 via B", got)
	}
	if problems := d.VerifyTables(); len(problems) > 0 {
		t.Errorf("table verification failed: %v", problems)
	}
}

// TestDV_ReroutesAroundFailure fails one ring link: traffic between the
// separated neighbors must re-route the long way around.
func TestDV_ReroutesAroundFailure(t *testing.T) {
	desc, err := topo.Ring(4)
	if err != nil {
		t.Fatalf("Ring failed: %v", err)
	}
	d := newTestDriver(t, ProtocolDV, 1000, desc)
	if err := d.FailLinkAt("A", "B", 300); err != nil {
		t.Fatalf("FailLinkAt failed: %v", err)
	}
	d.Run()

	if got := mustRoute(t, d, "A", "B"); got.Cost != 3 || got.NextHop != "D" {
		t.Errorf("A -> B after failure = %+v, want cost 3 via D", got)
	}
	if got := mustRoute(t, d, "B", "A"); got.Cost != 3 || got.NextHop != "C" {
		t.Errorf("B -> A after failure = %+v, want cost 3 via C", got)
	}
	if problems := d.VerifyTables(); len(problems) > 0 {
		t.Errorf("table verification failed: %v", problems)
	}
	if !d.Converged() {
		t.Error("ring did not reconverge after the failure")
	}
}

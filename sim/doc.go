// Package sim provides the discrete-event simulation engine for routesim.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - event.go: Event variants that drive the simulation (PacketArrival, TimerFire, LinkStatusChange)
//   - event_queue.go: The time-ordered queue and logical clock
//   - driver.go: The event loop, failure injection, and convergence tracking
//
// # Architecture
//
// The sim package owns the timeline: a single Driver pops events from the
// EventQueue one at a time and dispatches them to the addressed Router. Each
// Router holds a protocol-agnostic shell (neighbor table, routing table) and
// delegates protocol behavior to its ProtocolEngine:
//   - dv.go: distributed Bellman-Ford with a cost ceiling
//   - ls.go: link-state flooding plus local Dijkstra
//
// Sub-packages:
//   - sim/topo/: topology descriptions, generators, and the reference
//     all-pairs shortest-path computation used to verify routing tables
//   - sim/trace/: pure-data packet/route/event trace records
//
// There is no wall-clock coupling anywhere in this package; simulated time
// advances only when the Driver pops an event. Rendering layers observe the
// simulation through Driver.Snapshot between steps and mutate it only through
// the FailLink/RestoreLink control entry points.
package sim

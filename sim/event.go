package sim

// EventType identifies the payload variant of a scheduled event.
type EventType string

const (
	EventTypePacketArrival    EventType = "PacketArrival"
	EventTypeTimerFire        EventType = "TimerFire"
	EventTypeLinkStatusChange EventType = "LinkStatusChange"
)

// TimerKind distinguishes the periodic timers a router runs.
type TimerKind string

const (
	// TimerHello fires every HelloInterval ticks: send HELLO packets and
	// expire neighbors that have gone silent.
	TimerHello TimerKind = "hello"
	// TimerAdvert fires every AdvertInterval ticks: originate a protocol
	// advertisement (DV vector or LSA).
	TimerAdvert TimerKind = "advert"
	// TimerIntegrate fires at the half-period offset: rebuild the routing
	// table from accumulated protocol state (used by the LS engine).
	TimerIntegrate TimerKind = "integrate"
)

// Event is a scheduled occurrence on the simulation timeline.
// Ordering in the queue is by Timestamp, then by EventID (insertion
// sequence), so equal-timestamp events run in FIFO order.
type Event interface {
	Timestamp() int64
	EventID() uint64
	Type() EventType
	Execute(d *Driver)
}

// BaseEvent provides the common event fields. The event ID is assigned by
// the EventQueue at Schedule time.
type BaseEvent struct {
	timestamp int64
	eventID   uint64
	eventType EventType
}

func newBaseEvent(timestamp int64, eventType EventType) BaseEvent {
	return BaseEvent{timestamp: timestamp, eventType: eventType}
}

func (e *BaseEvent) Timestamp() int64 { return e.timestamp }
func (e *BaseEvent) EventID() uint64  { return e.eventID }
func (e *BaseEvent) Type() EventType  { return e.eventType }

// setEventID is called exactly once, by EventQueue.Schedule.
func (e *BaseEvent) setEventID(id uint64) { e.eventID = id }

// sequenced is implemented by every event via BaseEvent embedding.
type sequenced interface {
	setEventID(id uint64)
}

// PacketArrivalEvent delivers a packet to the far end of a link. The packet
// is dropped at delivery time if the link it traveled is down by then; a
// link failure never removes in-flight events from the queue.
type PacketArrivalEvent struct {
	BaseEvent
	To     NodeID
	From   NodeID // transmitting endpoint of the traversed link
	Packet *Packet
}

// NewPacketArrivalEvent creates a packet delivery at the given tick.
func NewPacketArrivalEvent(timestamp int64, from, to NodeID, p *Packet) *PacketArrivalEvent {
	return &PacketArrivalEvent{
		BaseEvent: newBaseEvent(timestamp, EventTypePacketArrival),
		To:        to,
		From:      from,
		Packet:    p,
	}
}

func (e *PacketArrivalEvent) Execute(d *Driver) { d.handlePacketArrival(e) }

// TimerFireEvent triggers one of a router's periodic timers. The driver
// reschedules the next occurrence after dispatching.
type TimerFireEvent struct {
	BaseEvent
	Node NodeID
	Kind TimerKind
}

// NewTimerFireEvent creates a timer expiry for the given router.
func NewTimerFireEvent(timestamp int64, node NodeID, kind TimerKind) *TimerFireEvent {
	return &TimerFireEvent{
		BaseEvent: newBaseEvent(timestamp, EventTypeTimerFire),
		Node:      node,
		Kind:      kind,
	}
}

func (e *TimerFireEvent) Execute(d *Driver) { d.handleTimerFire(e) }

// LinkStatusChangeEvent applies a link up/down mutation and notifies both
// endpoint routers. This is the sole failure-injection mechanism.
type LinkStatusChangeEvent struct {
	BaseEvent
	A, B NodeID
	Up   bool
}

// NewLinkStatusChangeEvent creates a link status mutation at the given tick.
func NewLinkStatusChangeEvent(timestamp int64, a, b NodeID, up bool) *LinkStatusChangeEvent {
	return &LinkStatusChangeEvent{
		BaseEvent: newBaseEvent(timestamp, EventTypeLinkStatusChange),
		A:         a,
		B:         b,
		Up:        up,
	}
}

func (e *LinkStatusChangeEvent) Execute(d *Driver) { d.handleLinkStatusChange(e) }

package trace

// Level controls the verbosity of trace collection.
type Level string

const (
	// LevelNone disables tracing (zero overhead).
	LevelNone Level = "none"
	// LevelPackets records packet fates only.
	LevelPackets Level = "packets"
	// LevelFull additionally records route changes and event dispatch order.
	LevelFull Level = "full"
)

// validLevels maps accepted level strings.
var validLevels = map[Level]bool{
	LevelNone:    true,
	LevelPackets: true,
	LevelFull:    true,
	"":           true, // empty defaults to none
}

// IsValidLevel returns true if the given string is a recognized trace level.
func IsValidLevel(level string) bool {
	return validLevels[Level(level)]
}

// Trace collects records during a simulation run.
type Trace struct {
	Level        Level
	Packets      []PacketRecord
	RouteChanges []RouteChangeRecord
	Events       []EventRecord
}

// New creates a Trace ready for recording.
func New(level Level) *Trace {
	if level == "" {
		level = LevelNone
	}
	return &Trace{Level: level}
}

// RecordPacket appends a packet fate record.
func (t *Trace) RecordPacket(r PacketRecord) {
	if t.Level == LevelNone {
		return
	}
	t.Packets = append(t.Packets, r)
}

// RecordRouteChange appends a routing table mutation record.
func (t *Trace) RecordRouteChange(r RouteChangeRecord) {
	if t.Level != LevelFull {
		return
	}
	t.RouteChanges = append(t.RouteChanges, r)
}

// RecordEvent appends an event dispatch record.
func (t *Trace) RecordEvent(r EventRecord) {
	if t.Level != LevelFull {
		return
	}
	t.Events = append(t.Events, r)
}

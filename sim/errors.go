package sim

import "errors"

// Sentinel errors surfaced by the engine. Topology misuse and invalid
// scheduling are caller errors: the run must not start (or must abort) when
// they occur. A malformed advertisement only costs the advertisement itself.
var (
	// ErrInvalidSchedule reports an attempt to schedule an event before the
	// current simulated time.
	ErrInvalidSchedule = errors.New("event scheduled before current simulated time")

	// ErrDuplicateLink reports an AddLink for a node pair that is already linked.
	ErrDuplicateLink = errors.New("link already exists")

	// ErrUnknownLink reports a link operation on a node pair with no link.
	ErrUnknownLink = errors.New("unknown link")

	// ErrUnknownNode reports an operation addressed to a node that was never added.
	ErrUnknownNode = errors.New("unknown node")

	// ErrMalformedAdvertisement reports a link-state advertisement without a
	// neighbor list. The advertisement is dropped; the run continues.
	ErrMalformedAdvertisement = errors.New("malformed advertisement: missing neighbor list")
)

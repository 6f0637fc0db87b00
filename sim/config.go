package sim

import (
	"fmt"

	"github.com/routesim/routesim/sim/trace"
)

// Protocol names accepted by Config.
const (
	ProtocolDV = "dv"
	ProtocolLS = "ls"
)

// Default timer periods, in ticks.
const (
	DefaultHelloInterval  int64 = 10
	DefaultAdvertInterval int64 = 30
)

// Config holds one run's parameters.
type Config struct {
	Protocol       string      // routing protocol: "dv" or "ls"
	Horizon        int64       // total simulated-time budget (ticks)
	HelloInterval  int64       // HELLO period (default 10)
	AdvertInterval int64       // advertisement period (default 30)
	Seed           int64       // master seed for all randomness
	TraceLevel     trace.Level // trace verbosity (default none)
	DataPackets    int         // synthetic DATA packets to inject
	LossProb       float64     // per-transmission link loss probability
	TimerJitter    bool        // randomize per-router timer offsets
}

// applyDefaults fills zero-valued fields.
func (c *Config) applyDefaults() {
	if c.HelloInterval == 0 {
		c.HelloInterval = DefaultHelloInterval
	}
	if c.AdvertInterval == 0 {
		c.AdvertInterval = DefaultAdvertInterval
	}
	if c.TraceLevel == "" {
		c.TraceLevel = trace.LevelNone
	}
}

// validate rejects configurations the run must not start with.
func (c *Config) validate() error {
	if c.Protocol != ProtocolDV && c.Protocol != ProtocolLS {
		return fmt.Errorf("unknown protocol %q (want %q or %q)", c.Protocol, ProtocolDV, ProtocolLS)
	}
	if c.Horizon <= 0 {
		return fmt.Errorf("horizon must be positive, got %d", c.Horizon)
	}
	if c.HelloInterval <= 0 || c.AdvertInterval <= 0 {
		return fmt.Errorf("timer intervals must be positive (hello=%d advert=%d)", c.HelloInterval, c.AdvertInterval)
	}
	if c.LossProb < 0 || c.LossProb >= 1 {
		return fmt.Errorf("loss probability must be in [0, 1), got %v", c.LossProb)
	}
	if !trace.IsValidLevel(string(c.TraceLevel)) {
		return fmt.Errorf("unknown trace level %q", c.TraceLevel)
	}
	return nil
}

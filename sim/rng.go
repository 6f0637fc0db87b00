package sim

import (
	"hash/fnv"
	"math/rand"
)

// Subsystem names for the partitioned RNG. Keeping streams isolated means
// e.g. turning on timer jitter does not perturb topology generation.
const (
	// SubsystemTopology seeds random topology generation.
	SubsystemTopology = "topology"
	// SubsystemTraffic seeds synthetic data traffic placement.
	SubsystemTraffic = "traffic"
	// SubsystemJitter seeds per-router timer offsets.
	SubsystemJitter = "jitter"
	// SubsystemLoss seeds per-transmission link loss decisions.
	SubsystemLoss = "loss"
)

// PartitionedRNG provides deterministic, isolated RNG streams per subsystem.
// Two runs with the same seed and configuration draw identical sequences.
//
// Derivation: subsystemSeed = masterSeed XOR fnv1a64(subsystemName).
// Not thread-safe; the driver is single-threaded by construction.
type PartitionedRNG struct {
	masterSeed int64
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a master seed.
func NewPartitionedRNG(masterSeed int64) *PartitionedRNG {
	return &PartitionedRNG{
		masterSeed: masterSeed,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns the RNG for the named subsystem. The same name always
// returns the same cached *rand.Rand. Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	rng := rand.New(rand.NewSource(p.masterSeed ^ fnv1a64(name)))
	p.subsystems[name] = rng
	return rng
}

// Seed returns the master seed this RNG was created with.
func (p *PartitionedRNG) Seed() int64 { return p.masterSeed }

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}

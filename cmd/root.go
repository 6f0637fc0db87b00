package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/routesim/routesim/sim"
	"github.com/routesim/routesim/sim/topo"
	"github.com/routesim/routesim/sim/trace"
)

var (
	// CLI flags shared by run and serve
	seed         int64   // Seed for all randomness (topology, traffic, jitter, loss)
	simTime      int64   // Total simulated-time budget (in ticks)
	algorithm    string  // Routing algorithm (dv or ls)
	logLevel     string  // Log verbosity level
	numNodes     int     // Number of nodes for generated topologies
	randTopology bool    // Use a randomly generated topology
	ringSize     int     // Use an n-node ring topology (0 = off)
	topologyFile string  // Path to a YAML topology description
	traceLevel   string  // Trace verbosity (none, packets, full)
	dataPackets  int     // Number of synthetic DATA packets to inject
	lossProb     float64 // Per-transmission link loss probability
	timerJitter  bool    // Randomize per-router timer offsets

	// serve-only flags
	listenAddr string // HTTP listen address for the visualization server
)

// rootCmd is the base command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "routesim",
	Short: "Discrete-event simulator for distance-vector and link-state routing",
}

// runCmd executes a headless simulation and prints the results.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a headless simulation and print the result summary",
	Run: func(cmd *cobra.Command, args []string) {
		driver := mustBuildDriver()

		logrus.Infof("starting %s simulation: %d ticks, seed %d", algorithm, simTime, seed)
		driver.Run()

		driver.Metrics.Print()
		printTables(driver)
		printCorrectness(driver)
	},
}

// Execute runs the CLI root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setupLogging applies the --log flag before any command body runs.
func setupLogging(cmd *cobra.Command, args []string) {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// mustBuildDriver assembles the topology and driver from the flags,
// exiting on misuse.
func mustBuildDriver() *sim.Driver {
	desc, err := buildDescription()
	if err != nil {
		logrus.Fatalf("building topology: %v", err)
	}
	driver, err := sim.NewDriver(sim.Config{
		Protocol:    algorithm,
		Horizon:     simTime,
		Seed:        seed,
		TraceLevel:  trace.Level(traceLevel),
		DataPackets: dataPackets,
		LossProb:    lossProb,
		TimerJitter: timerJitter,
	}, desc)
	if err != nil {
		logrus.Fatalf("building simulation: %v", err)
	}
	return driver
}

// buildDescription picks the topology source: explicit file, ring, random,
// or the deterministic default test network.
func buildDescription() (*topo.Description, error) {
	switch {
	case topologyFile != "":
		return topo.Load(topologyFile)
	case ringSize > 0:
		return topo.Ring(ringSize)
	case randTopology:
		rng := sim.NewPartitionedRNG(seed).ForSubsystem(sim.SubsystemTopology)
		return topo.Random(numNodes, rng), nil
	default:
		return topo.Default(), nil
	}
}

// printTables dumps every router's converged table, one destination per line.
func printTables(driver *sim.Driver) {
	snap := driver.Snapshot()
	fmt.Println("=== Routing Tables ===")
	for _, node := range snap.Nodes {
		fmt.Printf("%s:\n", node.ID)
		for _, e := range node.Table {
			if e.Dest == node.ID {
				continue
			}
			next := string(e.NextHop)
			if next == "" {
				next = "-"
			}
			fmt.Printf("    %s via %s pathcost %.2f\n", e.Dest, next, e.Cost)
		}
	}
}

// printCorrectness compares final tables against the reference shortest
// paths over the surviving topology.
func printCorrectness(driver *sim.Driver) {
	problems := driver.VerifyTables()
	if len(problems) == 0 {
		fmt.Println("All routing tables match the reference shortest paths.")
		return
	}
	fmt.Printf("%d routing table entries disagree with the reference:\n", len(problems))
	for _, p := range problems {
		fmt.Printf("    %s\n", p)
	}
}

// init sets up CLI flags and subcommands.
func init() {
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 42, "Seed for all randomness")
	rootCmd.PersistentFlags().Int64Var(&simTime, "simtime", 2000, "Total simulation time (in ticks)")
	rootCmd.PersistentFlags().StringVar(&algorithm, "algorithm", "dv", "Routing algorithm (dv or ls)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().IntVar(&numNodes, "numnodes", 12, "Number of nodes for generated topologies")
	rootCmd.PersistentFlags().BoolVar(&randTopology, "rand", false, "Use a randomly generated topology")
	rootCmd.PersistentFlags().IntVar(&ringSize, "ring", 0, "Use an n-node ring topology")
	rootCmd.PersistentFlags().StringVar(&topologyFile, "topology", "", "Path to a YAML topology description")
	rootCmd.PersistentFlags().StringVar(&traceLevel, "trace", "none", "Trace verbosity (none, packets, full)")
	rootCmd.PersistentFlags().IntVar(&dataPackets, "data-packets", 0, "Number of synthetic DATA packets to inject")
	rootCmd.PersistentFlags().Float64Var(&lossProb, "loss", 0.0, "Per-transmission link loss probability")
	rootCmd.PersistentFlags().BoolVar(&timerJitter, "jitter", false, "Randomize per-router timer offsets")

	runCmd.PreRun = setupLogging
	rootCmd.AddCommand(runCmd)
}

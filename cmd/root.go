package cmd

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/parking-sim/parking-sim/engine"
	"github.com/parking-sim/parking-sim/server"
	"github.com/parking-sim/parking-sim/store"
)

var (
	// CLI flags for the allocation engine
	logLevel    string  // Log verbosity level
	numBays     int     // Number of bays in the facility
	slotsPerBay int     // Slots per bay
	policyName  string  // Allocation policy (learned, sequential, random)
	fillRatio   float64 // Initial occupied fraction of the grid
	blendWeight float64 // Learned policy: weight of model score vs value table
	seed        int64   // Seed for grid pre-fill and the random policy
	configPath  string  // Optional YAML engine config, overridden by flags

	// CLI flags for trained artifacts
	modelsPath string // YAML file with trained scoring coefficients
	qtablePath string // YAML file with the trained value table

	// CLI flags for batch simulation
	vehiclesPath string // Vehicle batch file (YAML or JSON)

	// CLI flags for the HTTP server
	listenAddr string // Address the API listens on
	storeDir   string // Directory for per-policy allocation record files
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "parking-sim",
	Short: "Parking slot allocation engine and batch simulator",
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setupLogging parses the --log flag; unusable levels abort the command.
func setupLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// engineConfig folds an optional YAML config file under the CLI flags:
// file values apply only where the flag was left at its default.
func engineConfig(cmd *cobra.Command) (engine.Facility, string, float64, float64, int64) {
	facility := engine.Facility{NumBays: numBays, SlotsPerBay: slotsPerBay}
	pol, fill, blend, sd := policyName, fillRatio, blendWeight, seed

	if configPath != "" {
		cfg, err := engine.LoadEngineConfig(configPath)
		if err != nil {
			logrus.Fatalf("unable to read engine config: %v", err)
		}
		if err := cfg.Validate(); err != nil {
			logrus.Fatalf("invalid engine config: %v", err)
		}
		if !cmd.Flags().Changed("bays") && cfg.Facility.NumBays > 0 {
			facility.NumBays = cfg.Facility.NumBays
		}
		if !cmd.Flags().Changed("slots-per-bay") && cfg.Facility.SlotsPerBay > 0 {
			facility.SlotsPerBay = cfg.Facility.SlotsPerBay
		}
		if !cmd.Flags().Changed("policy") && cfg.Policy != "" {
			pol = cfg.Policy
		}
		if !cmd.Flags().Changed("fill-ratio") && cfg.InitialFillRatio != nil {
			fill = *cfg.InitialFillRatio
		}
		if !cmd.Flags().Changed("blend-weight") && cfg.BlendWeight != nil {
			blend = *cfg.BlendWeight
		}
		if !cmd.Flags().Changed("seed") && cfg.Seed != nil {
			sd = *cfg.Seed
		}
	}
	if err := facility.Validate(); err != nil {
		logrus.Fatalf("invalid facility: %v", err)
	}
	return facility, pol, fill, blend, sd
}

// buildAdapter assembles the scoring adapter from the trained artifact
// files. Without them it degrades to neutral constants and a zero table, so
// the learned policy behaves like the sequential baseline.
func buildAdapter(facility engine.Facility) *engine.ScoringAdapter {
	suitability := engine.ConstantScore(1.0)
	bayPref := engine.ConstantPreference(0)
	slotPref := engine.ConstantPreference(0)

	if modelsPath != "" {
		coeffs, err := LoadModelCoefficients(modelsPath)
		if err != nil {
			logrus.Fatalf("unable to read scoring models: %v", err)
		}
		suitability = engine.LinearSuitability(coeffs.Suitability)
		bayPref = engine.LinearBayPreference(coeffs.BayPreference, facility.NumBays)
		slotPref = engine.LinearSlotPreference(coeffs.SlotPreference, facility.SlotsPerBay)
	}

	table := engine.NewZeroValueTable(defaultOccupancyStates, facility.Capacity())
	if qtablePath != "" {
		loaded, err := engine.LoadValueTable(qtablePath)
		if err != nil {
			logrus.Fatalf("unable to read value table: %v", err)
		}
		table = loaded
	}
	return engine.NewScoringAdapter(suitability, bayPref, slotPref, table)
}

// defaultOccupancyStates is the occupancy-ratio discretization used when no
// trained table supplies its own state count.
const defaultOccupancyStates = 10

// serveCmd runs the HTTP API around a live grid and per-policy record files.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the parking allocation HTTP API",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		facility, _, _, blend, sd := engineConfig(cmd)
		adapter := buildAdapter(facility)

		stores := make(map[string]store.Store, 3)
		for _, name := range []string{engine.PolicyLearned, engine.PolicySequential, engine.PolicyRandom} {
			st, err := store.NewFileStore(filepath.Join(storeDir, "parking_db_"+name+".json"))
			if err != nil {
				logrus.Fatalf("unable to open %s store: %v", name, err)
			}
			stores[name] = st
		}

		metrics := server.NewMetrics()
		service, err := server.NewAllocationService(server.ServiceConfig{
			Facility: facility,
			Options:  engine.PolicyOptions{Adapter: adapter, BlendWeight: blend, Seed: sd},
			Stores:   stores,
			Metrics:  metrics,
		})
		if err != nil {
			logrus.Fatalf("unable to build allocation service: %v", err)
		}

		if err := server.New(service, metrics).ListenAndServe(listenAddr); err != nil {
			logrus.Fatalf("server stopped: %v", err)
		}
	},
}

// init sets up CLI flags and subcommands
func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	pf.IntVar(&numBays, "bays", 4, "Number of bays in the facility")
	pf.IntVar(&slotsPerBay, "slots-per-bay", 10, "Number of slots per bay")
	pf.StringVar(&policyName, "policy", engine.PolicySequential, "Allocation policy (learned, sequential, random)")
	pf.Float64Var(&fillRatio, "fill-ratio", 0, "Initial occupied fraction of the grid [0,1]")
	pf.Float64Var(&blendWeight, "blend-weight", engine.DefaultBlendWeight, "Learned policy weight of model score vs value table")
	pf.Int64Var(&seed, "seed", 42, "Seed for grid pre-fill and the random policy")
	pf.StringVar(&configPath, "config", "", "YAML engine config file (flags override it)")
	pf.StringVar(&modelsPath, "models", "", "YAML file with trained scoring model coefficients")
	pf.StringVar(&qtablePath, "qtable", "", "YAML file with the trained value table")

	simulateCmd.Flags().StringVar(&vehiclesPath, "vehicles", "", "Vehicle batch file (YAML or JSON)")
	compareCmd.Flags().StringVar(&vehiclesPath, "vehicles", "", "Vehicle batch file (YAML or JSON)")

	serveCmd.Flags().StringVar(&listenAddr, "addr", ":8080", "Address the HTTP API listens on")
	serveCmd.Flags().StringVar(&storeDir, "store-dir", ".", "Directory for allocation record files")

	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(serveCmd)
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/dla/config"
	"github.com/pthm-cable/dla/game"
	"github.com/pthm-cable/dla/store"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	particles := flag.Int("particles", 0, "Particle budget (0 = use config)")
	radius := flag.Int("radius", 0, "Containment radius (0 = use config)")
	swarm := flag.Bool("swarm", false, "Walk particles concurrently")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	perfLog := flag.Bool("perf", false, "Print a phase timing table every stats window")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for snapshot files")
	dbPath := flag.String("db", "", "SQLite database for run history (empty = disabled)")
	listRuns := flag.Bool("list-runs", false, "List runs stored in -db and exit")
	stepsPerUpdate := flag.Int("steps-per-update", 100, "Particles per update call in headless mode")
	pngPath := flag.String("png", "", "Write a heat map image here when the run completes")
	restorePath := flag.String("restore", "", "Resume from a snapshot file")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if *listRuns {
		if err := printRuns(*dbPath); err != nil {
			slog.Error("failed to list runs", "error", err)
			os.Exit(1)
		}
		return
	}

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *particles > 0 {
		cfg.Simulation.Particles = *particles
	}
	if *radius > 0 {
		cfg.Simulation.Radius = *radius
	}
	cfg.Recompute()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	// Set up seed
	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	opts := game.Options{
		Seed:           rngSeed,
		Headless:       *headless,
		Swarm:          *swarm,
		LogStats:       *logStats,
		PerfLog:        *perfLog,
		OutputDir:      *outputDir,
		SnapshotDir:    *snapshotDir,
		DBPath:         *dbPath,
		StepsPerUpdate: *stepsPerUpdate,
		PNGPath:        *pngPath,
		RestorePath:    *restorePath,
	}

	if *headless {
		if err := runHeadless(opts); err != nil {
			slog.Error("simulation failed", "error", err)
			os.Exit(1)
		}
		return
	}

	// Graphical mode
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Diffusion-Limited Aggregation")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	g, err := game.NewGameWithOptions(opts)
	if err != nil {
		slog.Error("failed to start simulation", "error", err)
		return
	}
	defer g.Unload()

	for !rl.WindowShouldClose() {
		g.Update()
		g.Draw()
	}
}

// runHeadless spends the particle budget without graphics. An interrupt
// stops between updates and, with -snapshot-dir, leaves a snapshot to
// resume from.
func runHeadless(opts game.Options) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, err := game.NewGameWithOptions(opts)
	if err != nil {
		return err
	}
	defer g.Unload()

	slog.Info("starting headless simulation",
		"seed", opts.Seed,
		"steps_per_update", opts.StepsPerUpdate,
		"swarm", opts.Swarm,
	)

	for !g.Done() {
		if ctx.Err() != nil {
			slog.Info("interrupted", "summary", g.Summary())
			if opts.SnapshotDir != "" {
				g.SaveSnapshot()
			}
			return nil
		}
		g.UpdateHeadless()
	}
	return nil
}

// printRuns lists stored runs, newest first.
func printRuns(path string) error {
	if path == "" {
		return errors.New("-list-runs needs -db")
	}
	db, err := store.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := db.ListRuns()
	if err != nil {
		return err
	}
	for _, r := range runs {
		status := "unfinished"
		if r.FinishedAt != nil {
			status = r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
		}
		fmt.Printf("%s  seed=%d  radius=%d  spawned=%d  aggregated=%d  escaped=%d  exhausted=%d  %s\n",
			r.ID, r.Seed, r.Params.Radius, r.Summary.Spawned, r.Summary.Aggregated,
			r.Summary.Escaped, r.Summary.Exhausted, status)
	}
	return nil
}

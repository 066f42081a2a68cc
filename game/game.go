package game

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/pthm-cable/dla/camera"
	"github.com/pthm-cable/dla/config"
	"github.com/pthm-cable/dla/renderer"
	"github.com/pthm-cable/dla/store"
	"github.com/pthm-cable/dla/systems"
	"github.com/pthm-cable/dla/telemetry"
	"github.com/pthm-cable/dla/ui"
)

// maxSpeed caps the particles (or swarm rounds) simulated per frame.
const maxSpeed = 200

// Options configures game initialization.
type Options struct {
	Config         *config.Config // nil = config.Cfg()
	Seed           int64
	Headless       bool
	Swarm          bool // start in swarm mode regardless of config
	LogStats       bool
	PerfLog        bool   // print a phase timing table every window
	OutputDir      string // CSV logs, cells.csv and config snapshot
	SnapshotDir    string // JSON snapshots on milestones
	DBPath         string // sqlite run store
	StepsPerUpdate int    // headless: particles per update call
	PNGPath        string // heat map written when the run completes
	RestorePath    string // resume from a snapshot file

	// StatsCallback receives every flushed stats window.
	StatsCallback func(telemetry.WindowStats)
}

// Game holds the complete run state.
type Game struct {
	cfg  *config.Config
	seed int64

	sim   *systems.Simulation
	swarm *systems.Swarm

	// Telemetry
	collector     *telemetry.Collector
	perfCollector *telemetry.PerfCollector
	milestones    *telemetry.MilestoneDetector
	outputManager *telemetry.OutputManager
	statsCallback func(telemetry.WindowStats)
	events        []telemetry.Event
	lastStats     telemetry.WindowStats
	hasStats      bool
	logStats      bool
	perfLog       bool
	snapshotDir   string
	pngPath       string

	// Run store
	db  *store.Store
	run *store.Run

	// Rendering (nil in headless mode)
	headless     bool
	cluster      *renderer.ClusterRenderer
	legend       *renderer.Legend
	camera       *camera.Camera
	overlays     *ui.OverlayRegistry
	hud          *ui.HUD
	controls     *ui.ControlsPanel
	statsPanel   *ui.StatsPanel
	perfPanel    *ui.PerfPanel
	paramsPanel  *ui.ParamsPanel
	walkers      []systems.WalkerPos
	screenWidth  float32
	screenHeight float32

	// State
	paused         bool
	stepsPerUpdate int
	speed          int
	started        time.Time
	elapsed        time.Duration
	finished       bool
}

// NewGameWithOptions creates a game with the given options. Must be called
// after the raylib window exists unless opts.Headless is set.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}

	g := &Game{
		cfg:            cfg,
		seed:           opts.Seed,
		headless:       opts.Headless,
		logStats:       opts.LogStats,
		perfLog:        opts.PerfLog,
		statsCallback:  opts.StatsCallback,
		snapshotDir:    opts.SnapshotDir,
		pngPath:        opts.PNGPath,
		stepsPerUpdate: max(1, opts.StepsPerUpdate),
		speed:          cfg.Screen.ParticlesPerFrame,
		started:        time.Now(),
	}

	if err := g.initSimulation(opts.RestorePath); err != nil {
		return nil, err
	}
	p := g.sim.Params()

	// Telemetry
	g.collector = telemetry.NewCollector(cfg.Telemetry.Window, cfg.Telemetry.FractalMinRadius)
	g.collector.Resume(g.sim.Summary().Spawned)
	g.perfCollector = telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow)
	g.milestones = telemetry.NewMilestoneDetector(10, telemetry.MilestoneThresholds{
		Radius:           p.Radius,
		MaxSpawnRadius:   systems.MaxSpawnRadius(p.GridSize()),
		ClusterFractions: cfg.Milestones.ClusterFractions,
		EscapeSpikeRatio: cfg.Milestones.EscapeSpikeRatio,
		EscapeSpikeMin:   cfg.Milestones.EscapeSpikeMin,
	})

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("output: %w", err)
	}
	g.outputManager = om
	if err := om.WriteConfig(cfg); err != nil {
		g.Unload()
		return nil, fmt.Errorf("output: %w", err)
	}

	if opts.DBPath != "" {
		if err := g.initStore(opts.DBPath); err != nil {
			g.Unload()
			return nil, err
		}
	}

	if !opts.Headless {
		g.initRendering()
	}

	if opts.Swarm || cfg.Swarm.Enabled {
		if err := g.enableSwarm(); err != nil {
			g.Unload()
			return nil, err
		}
	}

	slog.Info("simulation initialized",
		"seed", g.seed,
		"radius", p.Radius,
		"particles", p.Particles,
		"max_attempts", p.MaxAttempts,
		"margin", p.Margin,
		"resumed_at", g.sim.Summary().Spawned,
		"swarm", g.swarm != nil,
	)
	return g, nil
}

// initSimulation creates a fresh simulation or resumes one from a snapshot.
func (g *Game) initSimulation(restorePath string) error {
	if restorePath == "" {
		sim, err := systems.NewSimulation(g.cfg.Params(), rand.New(rand.NewSource(g.seed)))
		if err != nil {
			return fmt.Errorf("simulation: %w", err)
		}
		g.sim = sim
		return nil
	}

	snap, err := telemetry.LoadSnapshot(restorePath)
	if err != nil {
		return err
	}
	sim, err := snap.Restore()
	if err != nil {
		return err
	}
	g.sim = sim
	g.seed = snap.RNGSeed
	slog.Info("snapshot restored", "path", restorePath, "summary", sim.Summary())
	return nil
}

// initStore opens the run store and records already-present cells, so a
// restored run is complete in the store. Restored cells are stored in
// lattice order.
func (g *Game) initStore(path string) error {
	db, err := store.Open(path)
	if err != nil {
		return err
	}
	run, err := db.StartRun(g.sim.Params(), g.seed)
	if err != nil {
		db.Close()
		return err
	}
	g.db = db
	g.run = run

	grid := g.sim.Grid()
	size := grid.Size()
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if d, ok := grid.At(x, y); ok {
				run.OnAggregate(systems.Cell{X: x, Y: y, Distance: d}, grid)
			}
		}
	}
	g.sim.AddObserver(run)
	return nil
}

// initRendering sets up the cluster texture, camera and UI panels.
func (g *Game) initRendering() {
	g.screenWidth = float32(g.cfg.Screen.Width)
	g.screenHeight = float32(g.cfg.Screen.Height)
	size := g.sim.Params().GridSize()

	g.cluster = renderer.NewClusterRenderer(size)
	g.cluster.Init()
	g.cluster.Sync(g.sim.Grid())
	g.sim.AddObserver(g.cluster)

	g.camera = camera.New(g.screenWidth, g.screenHeight, size)
	g.legend = renderer.NewLegend(0, 0, 16, 200, float64(size/2))
	g.overlays = ui.NewOverlayRegistry()
	g.hud = ui.NewHUD()
	g.controls = ui.NewControlsPanel(10, 120, 220, maxSpeed)
	g.statsPanel = ui.NewStatsPanel(0, 10, 260)
	g.perfPanel = ui.NewPerfPanel(10, 0)
	g.paramsPanel = ui.NewParamsPanel(0, 10, 260)
	g.layoutPanels()
}

// layoutPanels positions screen-anchored panels for the current window size.
func (g *Game) layoutPanels() {
	w, h := int32(g.screenWidth), int32(g.screenHeight)
	g.legend.X = w - 320
	g.legend.Y = h/2 - g.legend.H/2
	g.statsPanel.SetPosition(w-270, 10)
	g.perfPanel.SetPosition(10, h-140)
}

// enableSwarm switches to concurrent walkers.
func (g *Game) enableSwarm() error {
	sw, err := systems.NewSwarm(g.sim, g.cfg.SwarmParams())
	if err != nil {
		return fmt.Errorf("swarm: %w", err)
	}
	g.swarm = sw
	return nil
}

// toggleSwarm enters swarm mode, or drains the current swarm so the run
// continues one particle at a time once its walkers have finished.
func (g *Game) toggleSwarm() {
	if g.swarm == nil {
		if err := g.enableSwarm(); err != nil {
			slog.Error("failed to enable swarm", "error", err)
		}
		return
	}
	g.swarm.Drain()
}

// Update advances the simulation by one frame (graphics mode).
func (g *Game) Update() {
	g.handleInput()

	if !g.paused {
		for i := 0; i < g.speed && !g.Done(); i++ {
			g.step()
		}
	}
	g.checkFinished()
}

// UpdateHeadless advances the simulation without rendering or input.
func (g *Game) UpdateHeadless() {
	for i := 0; i < g.stepsPerUpdate && !g.Done(); i++ {
		g.step()
	}
	g.checkFinished()
}

// step runs one particle, or one swarm round.
func (g *Game) step() {
	if g.swarm != nil {
		g.stepSwarm()
		return
	}
	g.stepParticle()
}

func (g *Game) stepParticle() {
	if g.sim.Done() {
		return
	}
	pc := g.perfCollector
	pc.Start()

	pc.StartPhase(telemetry.PhaseSpawn)
	x, y, radius := g.sim.Spawn()

	pc.StartPhase(telemetry.PhaseWalk)
	r := g.sim.Walk(x, y)
	r.SpawnRadius = radius

	pc.StartPhase(telemetry.PhaseCommit)
	r = g.sim.Commit(r)

	pc.StartPhase(telemetry.PhaseTelemetry)
	g.record(r)

	pc.End()
}

func (g *Game) stepSwarm() {
	pc := g.perfCollector
	pc.Start()

	pc.StartPhase(telemetry.PhaseSwarm)
	g.swarm.Round()

	pc.StartPhase(telemetry.PhaseTelemetry)
	for _, r := range g.swarm.Finished() {
		g.record(r)
	}

	pc.End()

	if g.swarm.Done() {
		g.swarm.Close()
		if !g.sim.Done() {
			slog.Info("swarm drained", "spawned", g.sim.Summary().Spawned)
		}
		g.swarm = nil
	}
}

// record feeds one finished particle to telemetry.
func (g *Game) record(r systems.Result) {
	ev := telemetry.NewEvent(g.collector.Particles(), r)
	g.collector.Record(ev)
	if g.outputManager != nil {
		g.events = append(g.events, ev)
	}
	if g.collector.ShouldFlush() {
		g.flushTelemetry()
	}
}

// Done reports whether every particle of the budget has finished.
func (g *Game) Done() bool {
	return g.sim.Done() && g.swarm == nil
}

// checkFinished runs the end-of-run outputs once.
func (g *Game) checkFinished() {
	if g.finished || !g.Done() {
		return
	}
	g.finished = true
	g.elapsed = time.Since(g.started)
	g.finishRun()
}

// Summary returns outcome counts so far.
func (g *Game) Summary() systems.Summary {
	return g.sim.Summary()
}

// Simulation returns the underlying simulation.
func (g *Game) Simulation() *systems.Simulation {
	return g.sim
}

// Unload releases resources. Safe to call on a partially built game.
func (g *Game) Unload() {
	if g.swarm != nil {
		g.swarm.Close()
	}
	if g.run != nil && !g.finished {
		if err := g.run.Flush(); err != nil {
			slog.Error("failed to flush run cells", "error", err)
		}
	}
	if g.db != nil {
		if err := g.db.Close(); err != nil {
			slog.Error("failed to close store", "error", err)
		}
	}
	if g.outputManager != nil {
		if err := g.outputManager.WriteEvents(g.events); err != nil {
			slog.Error("failed to write events", "error", err)
		}
		g.events = g.events[:0]
		if err := g.outputManager.Close(); err != nil {
			slog.Error("failed to close output", "error", err)
		}
	}
	if g.cluster != nil {
		g.cluster.Unload()
	}
}

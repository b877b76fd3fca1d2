// Package sim owns the world and the fixed-step simulation loop. It
// wires the behavior passes, state execution and the modifier pipeline
// in a fixed per-tick order.
package sim

import (
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/fernwick/aviary/components"
	"github.com/fernwick/aviary/config"
	"github.com/fernwick/aviary/env"
	"github.com/fernwick/aviary/species"
	"github.com/fernwick/aviary/systems"
	"github.com/fernwick/aviary/telemetry"
)

// Options configures a new simulation.
type Options struct {
	Seed           int64
	OutputDir      string
	StatsWindowSec float64
	LogStats       bool
}

// Simulation holds the complete simulation state.
type Simulation struct {
	world *ecs.World
	rng   *rand.Rand

	birdMapper *ecs.Map7[
		components.Position,
		components.Velocity,
		components.Bird,
		components.Needs,
		components.Blackboard,
		components.Activity,
		components.CacheStore,
	]
	birdFilter *ecs.Filter7[
		components.Position,
		components.Velocity,
		components.Bird,
		components.Needs,
		components.Blackboard,
		components.Activity,
		components.CacheStore,
	]
	objectMapper *ecs.Map2[components.Position, components.UtilityProvider]
	objectFilter *ecs.Filter2[components.Position, components.UtilityProvider]

	// Individual component mappers for lookups
	posMap      *ecs.Map1[components.Position]
	birdMap     *ecs.Map1[components.Bird]
	needsMap    *ecs.Map1[components.Needs]
	bbMap       *ecs.Map1[components.Blackboard]
	activityMap *ecs.Map1[components.Activity]
	cacheMap    *ecs.Map1[components.CacheStore]
	providerMap *ecs.Map1[components.UtilityProvider]
	shelterMap  *ecs.Map1[components.Shelter]

	// Spatial indices, rebuilt every tick
	birdGrid   *systems.SpatialGrid
	objectGrid *systems.SpatialGrid

	traits *species.Table
	envr   *env.Environment
	wander *systems.WanderField

	parallel *parallelState

	// Storm flock formation runs on its own cycle timer.
	stormTimer float32
	// Predator attack cooldowns by bird ID.
	huntCooldown map[uint32]float32

	// Telemetry
	collector *telemetry.Collector
	output    *telemetry.OutputManager
	events    []telemetry.Event
	logStats  bool

	tick        int64
	worldWidth  float32
	worldHeight float32
	nextID      uint32
	ids         map[ecs.Entity]uint32

	// Reused scratch buffers
	neighborBuf []systems.Neighbor
	deadBuf     []ecs.Entity
	expiredBuf  []ecs.Entity
	sample      telemetry.Sample
}

// New creates a simulation from the active config.
func New(opts Options) (*Simulation, error) {
	cfg := config.Cfg()

	world := ecs.NewWorld()

	s := &Simulation{
		world: world,
		rng:   rand.New(rand.NewSource(opts.Seed)),

		birdMapper: ecs.NewMap7[
			components.Position,
			components.Velocity,
			components.Bird,
			components.Needs,
			components.Blackboard,
			components.Activity,
			components.CacheStore,
		](world),
		birdFilter: ecs.NewFilter7[
			components.Position,
			components.Velocity,
			components.Bird,
			components.Needs,
			components.Blackboard,
			components.Activity,
			components.CacheStore,
		](world),
		objectMapper: ecs.NewMap2[components.Position, components.UtilityProvider](world),
		objectFilter: ecs.NewFilter2[components.Position, components.UtilityProvider](world),

		posMap:      ecs.NewMap1[components.Position](world),
		birdMap:     ecs.NewMap1[components.Bird](world),
		needsMap:    ecs.NewMap1[components.Needs](world),
		bbMap:       ecs.NewMap1[components.Blackboard](world),
		activityMap: ecs.NewMap1[components.Activity](world),
		cacheMap:    ecs.NewMap1[components.CacheStore](world),
		providerMap: ecs.NewMap1[components.UtilityProvider](world),
		shelterMap:  ecs.NewMap1[components.Shelter](world),

		traits: species.DefaultTable(),
		envr: env.New(
			float32(cfg.Sim.DayLength),
			cfg.Sim.YearDays,
			opts.Seed,
		),
		wander: systems.NewWanderField(opts.Seed),

		huntCooldown: make(map[uint32]float32),
		ids:          make(map[ecs.Entity]uint32),

		worldWidth:  cfg.Derived.WorldW32,
		worldHeight: cfg.Derived.WorldH32,

		logStats: opts.LogStats,
	}

	cell := float32(cfg.Sim.GridCellSize)
	s.birdGrid = systems.NewSpatialGrid(s.worldWidth, s.worldHeight, cell)
	s.objectGrid = systems.NewSpatialGrid(s.worldWidth, s.worldHeight, cell)

	s.parallel = newParallelState()

	statsWindow := opts.StatsWindowSec
	if statsWindow <= 0 {
		statsWindow = cfg.Telemetry.StatsWindow
	}
	s.collector = telemetry.NewCollector(statsWindow, cfg.Derived.DT32)

	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = cfg.Telemetry.OutputDir
	}
	om, err := telemetry.NewOutputManager(outputDir)
	if err != nil {
		return nil, err
	}
	s.output = om
	if err := s.output.WriteConfig(cfg); err != nil {
		s.output.Close()
		return nil, err
	}

	s.placeObjects()
	s.spawnInitialPopulation()

	return s, nil
}

// Tick returns the current tick count.
func (s *Simulation) Tick() int64 {
	return s.tick
}

// Env exposes the environment for inspection.
func (s *Simulation) Env() *env.Environment {
	return s.envr
}

// World exposes the ECS world for inspection and tests.
func (s *Simulation) World() *ecs.World {
	return s.world
}

// BirdView is a read-only snapshot of one bird for external observers.
type BirdView struct {
	ID        uint32
	Species   species.Species
	X, Y      float32
	State     components.BehaviorState
	TargetX   float32
	TargetY   float32
	HasTarget bool
}

// Birds appends a snapshot of every bird to dst and returns it.
func (s *Simulation) Birds(dst []BirdView) []BirdView {
	query := s.birdFilter.Query()
	for query.Next() {
		pos, _, bird, _, bb, activity, _ := query.Get()
		v := BirdView{
			ID:      s.id(query.Entity()),
			Species: bird.Species,
			X:       pos.X,
			Y:       pos.Y,
			State:   activity.State,
		}
		if !bb.CurrentTarget.Entity.IsZero() || bb.CurrentTarget.X != 0 || bb.CurrentTarget.Y != 0 {
			v.TargetX = bb.CurrentTarget.X
			v.TargetY = bb.CurrentTarget.Y
			v.HasTarget = true
		}
		dst = append(dst, v)
	}
	return dst
}

// Close stops workers and flushes output.
func (s *Simulation) Close() error {
	s.parallel.stopWorkers()
	return s.output.Close()
}

// Step advances the simulation by one fixed tick. The order is fixed:
// environment, spatial rebuild, throttled passes, modifier pipeline,
// state execution, lifecycle, telemetry. Modifiers run before state
// execution so a forced state is executed on the tick it is forced.
func (s *Simulation) Step() {
	cfg := config.Cfg()
	dt := cfg.Derived.DT32

	s.envr.Update(dt)
	s.rebuildGrids()
	s.runThrottledPasses(cfg, dt)
	s.runModifiers(cfg, dt)
	s.executeStates(cfg, dt)
	s.runEcology(cfg, dt)
	s.cleanupDead()
	s.flushTelemetry(cfg)

	s.tick++
}

// rebuildGrids refreshes both spatial indices from current positions.
func (s *Simulation) rebuildGrids() {
	s.birdGrid.Clear()
	query := s.birdFilter.Query()
	for query.Next() {
		pos, _, _, _, _, _, _ := query.Get()
		s.birdGrid.Insert(query.Entity(), pos.X, pos.Y)
	}

	s.objectGrid.Clear()
	oq := s.objectFilter.Query()
	for oq.Next() {
		pos, _ := oq.Get()
		s.objectGrid.Insert(oq.Entity(), pos.X, pos.Y)
	}
}

// id returns the stable external id of an entity, 0 if unknown.
func (s *Simulation) id(e ecs.Entity) uint32 {
	return s.ids[e]
}

func (s *Simulation) emit(ev telemetry.Event) {
	s.events = append(s.events, ev)
}

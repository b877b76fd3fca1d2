// Package config provides configuration loading, validation and hot
// reload for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"sync/atomic"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	World       WorldConfig       `yaml:"world"`
	Sim         SimConfig         `yaml:"sim"`
	Behavior    BehaviorConfig    `yaml:"behavior"`
	Needs       NeedsConfig       `yaml:"needs"`
	Rates       RatesConfig       `yaml:"rates"`
	Population  PopulationConfig  `yaml:"population"`
	Objects     ObjectsConfig     `yaml:"objects"`
	Predation   PredationConfig   `yaml:"predation"`
	Storm       StormConfig       `yaml:"storm"`
	Competition CompetitionConfig `yaml:"competition"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds world dimensions in world units.
type WorldConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// SimConfig holds core loop parameters.
type SimConfig struct {
	DT           float64 `yaml:"dt"`             // fixed tick length in seconds
	DayLength    float64 `yaml:"day_length"`     // sim seconds per day
	YearDays     int     `yaml:"year_days"`      // days per simulated year
	Seed         int64   `yaml:"seed"`           // 0 means time-based
	GridCellSize float64 `yaml:"grid_cell_size"` // spatial hash cell size
}

// BehaviorConfig holds the selector thresholds and pass cadence.
// Threshold names match the priority rules they gate, so a tuning file
// reads like the rule list.
type BehaviorConfig struct {
	FleeFear             float64 `yaml:"flee_fear"`             // fear plus weather factor above this forces fleeing
	ShelterUrgent        float64 `yaml:"shelter_urgent"`        // storm urgency above this forces shelter seeking
	ShelterOpportunistic float64 `yaml:"shelter_opportunistic"` // lower urgency bound for tired birds
	ShelterEnergy        float64 `yaml:"shelter_energy"`        // energy below this makes mild storms count
	DuskStart            float64 `yaml:"dusk_start"`            // roosting window open, 24h clock
	DuskEnd              float64 `yaml:"dusk_end"`              // roosting window close
	ChallengeStress      float64 `yaml:"challenge_stress"`      // stress above this answers a challenge
	CourtSocial          float64 `yaml:"court_social"`          // social need above this courts
	FlockSocial          float64 `yaml:"flock_social"`          // social need above this flocks
	HoverHunger          float64 `yaml:"hover_hunger"`          // hunger above this hover feeds
	EatHunger            float64 `yaml:"eat_hunger"`            // hunger above this eats or retrieves
	CacheHunger          float64 `yaml:"cache_hunger"`          // hunger below this allows caching
	CacheEnergy          float64 `yaml:"cache_energy"`          // energy above this allows caching
	DrinkThirst          float64 `yaml:"drink_thirst"`          // thirst above this drinks
	RestEnergy           float64 `yaml:"rest_energy"`           // energy below this rests
	PlayEnergy           float64 `yaml:"play_energy"`           // energy above this plays
	ExploreFear          float64 `yaml:"explore_fear"`          // fear below this explores

	UtilityInterval  float64 `yaml:"utility_interval"`  // seconds between utility passes
	SocialInterval   float64 `yaml:"social_interval"`   // seconds between social passes
	DecisionInterval float64 `yaml:"decision_interval"` // seconds between selector runs

	SocialRadius     float64 `yaml:"social_radius"`     // neighbor scan radius
	PerceptionRadius float64 `yaml:"perception_radius"` // world object scan radius
	ChallengeRadius  float64 `yaml:"challenge_radius"`  // rival detection radius
	ArrivalRadius    float64 `yaml:"arrival_radius"`    // distance that counts as reaching a target
	MoveSpeed        float64 `yaml:"move_speed"`        // travel speed toward targets
	FleeSpeed        float64 `yaml:"flee_speed"`        // travel speed away from threats
	WanderSpeed      float64 `yaml:"wander_speed"`      // drifting speed while wandering

	MateReceptivity     float64 `yaml:"mate_receptivity"`     // both partners need receptivity above this
	ChallengerDominance float64 `yaml:"challenger_dominance"` // rivals need dominance above this
}

// NeedsConfig holds per-second need drift rates.
type NeedsConfig struct {
	HungerRate  float64 `yaml:"hunger_rate"`
	ThirstRate  float64 `yaml:"thirst_rate"`
	EnergyRate  float64 `yaml:"energy_rate"`  // drain while active
	SocialRate  float64 `yaml:"social_rate"`  // social need growth while alone
	FearDecay   float64 `yaml:"fear_decay"`   // multiplicative decay per second
	StressDecay float64 `yaml:"stress_decay"` // multiplicative decay per second
}

// RatesConfig holds state execution recovery rates and exit thresholds.
type RatesConfig struct {
	EatRate     float64 `yaml:"eat_rate"`     // hunger drop per second while eating
	EatExit     float64 `yaml:"eat_exit"`     // leave eating below this hunger
	DrinkRate   float64 `yaml:"drink_rate"`   // thirst drop per second while drinking
	DrinkExit   float64 `yaml:"drink_exit"`   // leave drinking below this thirst
	BatheRate   float64 `yaml:"bathe_rate"`   // energy gain per second while bathing
	BatheExit   float64 `yaml:"bathe_exit"`   // leave bathing above this energy
	RestRate    float64 `yaml:"rest_rate"`    // energy gain per second while resting
	RestExit    float64 `yaml:"rest_exit"`    // leave resting above this energy
	FearCalm    float64 `yaml:"fear_calm"`    // stop fleeing below this fear
	SocialGain  float64 `yaml:"social_gain"`  // social need drop per second while flocking
	CourtTime   float64 `yaml:"court_time"`   // seconds of courting before pairing resolves
	ForageYield float64 `yaml:"forage_yield"` // hunger drop per second while foraging
}

// PopulationConfig holds spawn counts.
type PopulationConfig struct {
	Birds     map[string]int `yaml:"birds"`     // species name -> count
	MaxBirds  int            `yaml:"max_birds"` // hard cap
	Predators map[string]int `yaml:"predators"` // predator species -> count

	// MigrationRate is the per-second chance a seasonal migrant
	// arrives while the population is under the cap. Zero disables.
	MigrationRate float64 `yaml:"migration_rate"`
}

// ObjectsConfig holds world object placement.
type ObjectsConfig struct {
	Feeders  int `yaml:"feeders"`
	Baths    int `yaml:"baths"`
	Perches  int `yaml:"perches"`
	Shelters int `yaml:"shelters"`
	Shrubs   int `yaml:"shrubs"`

	FeederCapacity int     `yaml:"feeder_capacity"` // simultaneous eaters per feeder
	FeederSupply   float64 `yaml:"feeder_supply"`   // food units per feeder, <0 infinite
	BathCapacity   int     `yaml:"bath_capacity"`

	// EphemeralRate is the per-second chance of a seasonal food pop-up
	// (insect emergence, ripe fruit). Zero disables them.
	EphemeralRate float64 `yaml:"ephemeral_rate"`
}

// PredationConfig holds the predator pipeline parameters.
type PredationConfig struct {
	HuntInterval  float64 `yaml:"hunt_interval"`   // seconds between attack attempts
	AlertFactor   float64 `yaml:"alert_factor"`    // scales propagated fear
	ForceFleeFear float64 `yaml:"force_flee_fear"` // alerted birds above this flee immediately
	PreyBonus     float64 `yaml:"prey_bonus"`      // score bonus for preferred prey
}

// StormConfig holds emergency flock formation parameters.
type StormConfig struct {
	FlockRadius   float64 `yaml:"flock_radius"`   // max spread of one flock
	MinFlock      int     `yaml:"min_flock"`      // smallest viable flock
	MaxFlock      int     `yaml:"max_flock"`      // largest flock
	MaxPerCycle   int     `yaml:"max_per_cycle"`  // new flocks per formation cycle
	CycleInterval float64 `yaml:"cycle_interval"` // seconds between formation cycles
}

// CompetitionConfig holds feeder displacement parameters.
type CompetitionConfig struct {
	Radius         float64 `yaml:"radius"`          // birds this close share a feeding spot
	DisplaceChance float64 `yaml:"displace_chance"` // per-check odds a loser is pushed off
	StressBump     float64 `yaml:"stress_bump"`     // territorial stress added when displaced
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow float64 `yaml:"stats_window"` // seconds per stats window
	OutputDir   string  `yaml:"output_dir"`   // CSV destination, empty disables output
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32     float32
	WorldW32 float32
	WorldH32 float32
}

// global holds the active configuration. Hot reload swaps the pointer
// between ticks, so readers always see a complete config.
var global atomic.Pointer[Config]

// Init loads configuration from the given path, or uses embedded
// defaults if path is empty. Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global.Store(cfg)
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the active configuration. Panics if Init was not called.
func Cfg() *Config {
	c := global.Load()
	if c == nil {
		panic("config: Cfg() called before Init()")
	}
	return c
}

// Swap replaces the active configuration. Used by the reload watcher.
func Swap(c *Config) {
	global.Store(c)
}

// Load loads configuration from a YAML file, merging with embedded
// defaults. If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into the same struct so the file only overrides
		// fields it mentions.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	cfg.computeDerived()

	return cfg, nil
}

// Validate rejects configs the simulation cannot run on.
func (c *Config) Validate() error {
	if c.Sim.DT <= 0 {
		return fmt.Errorf("sim.dt must be positive, got %v", c.Sim.DT)
	}
	if c.World.Width <= 0 || c.World.Height <= 0 {
		return fmt.Errorf("world dimensions must be positive, got %dx%d", c.World.Width, c.World.Height)
	}
	if c.Sim.GridCellSize <= 0 {
		return fmt.Errorf("sim.grid_cell_size must be positive, got %v", c.Sim.GridCellSize)
	}
	for name, v := range map[string]float64{
		"behavior.flee_fear":             c.Behavior.FleeFear,
		"behavior.shelter_urgent":        c.Behavior.ShelterUrgent,
		"behavior.shelter_opportunistic": c.Behavior.ShelterOpportunistic,
		"behavior.shelter_energy":        c.Behavior.ShelterEnergy,
		"behavior.challenge_stress":      c.Behavior.ChallengeStress,
		"behavior.court_social":          c.Behavior.CourtSocial,
		"behavior.flock_social":          c.Behavior.FlockSocial,
		"behavior.hover_hunger":          c.Behavior.HoverHunger,
		"behavior.eat_hunger":            c.Behavior.EatHunger,
		"behavior.cache_hunger":          c.Behavior.CacheHunger,
		"behavior.cache_energy":          c.Behavior.CacheEnergy,
		"behavior.drink_thirst":          c.Behavior.DrinkThirst,
		"behavior.rest_energy":           c.Behavior.RestEnergy,
		"behavior.play_energy":           c.Behavior.PlayEnergy,
		"behavior.explore_fear":          c.Behavior.ExploreFear,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be in [0,1], got %v", name, v)
		}
	}
	for name, v := range map[string]float64{
		"behavior.utility_interval":  c.Behavior.UtilityInterval,
		"behavior.social_interval":   c.Behavior.SocialInterval,
		"behavior.decision_interval": c.Behavior.DecisionInterval,
	} {
		if v <= 0 {
			return fmt.Errorf("%s must be positive, got %v", name, v)
		}
	}
	if c.Behavior.ArrivalRadius <= 0 {
		return fmt.Errorf("behavior.arrival_radius must be positive, got %v", c.Behavior.ArrivalRadius)
	}
	// Social awareness must reach further than object sensing so birds
	// in each other's object range always see each other.
	if c.Behavior.SocialRadius <= c.Behavior.PerceptionRadius {
		return fmt.Errorf("behavior.social_radius (%v) must exceed behavior.perception_radius (%v)",
			c.Behavior.SocialRadius, c.Behavior.PerceptionRadius)
	}
	if c.Storm.MinFlock < 2 {
		return fmt.Errorf("storm.min_flock must be at least 2, got %d", c.Storm.MinFlock)
	}
	if c.Storm.MaxFlock < c.Storm.MinFlock {
		return fmt.Errorf("storm.max_flock (%d) below storm.min_flock (%d)", c.Storm.MaxFlock, c.Storm.MinFlock)
	}
	if c.Objects.EphemeralRate < 0 {
		return fmt.Errorf("objects.ephemeral_rate must not be negative, got %v", c.Objects.EphemeralRate)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.DT32 = float32(c.Sim.DT)
	c.Derived.WorldW32 = float32(c.World.Width)
	c.Derived.WorldH32 = float32(c.World.Height)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

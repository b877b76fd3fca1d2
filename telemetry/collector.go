package telemetry

import "math"

// Collector accumulates events within time windows and produces
// WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int64
	dt                  float32

	windowStartTick int64

	// Event counters for the current window
	attacks       int
	attackKills   int
	alerts        int
	flocksFormed  int
	displacements int
	depletions    int
	pairsFormed   int
	deaths        int
}

// NewCollector creates a stats collector. windowDurationSec is the
// length of each window in simulation seconds, dt the seconds per tick.
func NewCollector(windowDurationSec float64, dt float32) *Collector {
	// float32 dt makes the quotient land just under whole ticks
	// (5.0/0.05 -> 99.999...), so round instead of truncating.
	ticksPerWindow := int64(math.Round(windowDurationSec / float64(dt)))
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}
	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// Record counts an event into the current window.
func (c *Collector) Record(ev Event) {
	switch ev.Type {
	case EventPredatorAttack:
		c.attacks++
		if ev.Success {
			c.attackKills++
		}
	case EventAlertCall:
		c.alerts++
	case EventEmergencyFlock:
		c.flocksFormed++
	case EventObjectDepleted:
		c.depletions++
	case EventDisplacement:
		c.displacements++
	case EventPairFormed:
		c.pairsFormed++
	case EventDeath:
		c.deaths++
	}
}

// ShouldFlush reports whether the current window is complete.
func (c *Collector) ShouldFlush(currentTick int64) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Sample holds the per-bird values gathered at window end.
type Sample struct {
	Hunger []float64
	Thirst []float64
	Energy []float64
	Fear   []float64
	Scores []float64

	BirdCount     int
	PredatorCount int

	Feeding    int
	Drinking   int
	Resting    int
	Fleeing    int
	Sheltering int
	Social     int
	Wandering  int
}

// Flush produces a WindowStats from the counters and the caller's
// sample, then resets for the next window.
func (c *Collector) Flush(currentTick int64, s Sample) WindowStats {
	var attackRate float64
	if c.attacks > 0 {
		attackRate = float64(c.attackKills) / float64(c.attacks)
	}

	hunger := Summarize(s.Hunger)
	thirst := Summarize(s.Thirst)
	energy := Summarize(s.Energy)
	fear := Summarize(s.Fear)
	scores := Summarize(s.Scores)

	stats := WindowStats{
		WindowEndTick: currentTick,
		SimTimeSec:    float64(currentTick) * float64(c.dt),

		BirdCount:     s.BirdCount,
		PredatorCount: s.PredatorCount,

		Attacks:       c.attacks,
		AttackKills:   c.attackKills,
		AttackRate:    attackRate,
		Alerts:        c.alerts,
		FlocksFormed:  c.flocksFormed,
		Displacements: c.displacements,
		Depletions:    c.depletions,
		PairsFormed:   c.pairsFormed,
		Deaths:        c.deaths,

		HungerMean: hunger.Mean,
		HungerStd:  hunger.Std,
		HungerP90:  hunger.P90,
		ThirstMean: thirst.Mean,
		EnergyMean: energy.Mean,
		EnergyP10:  energy.P10,
		FearMean:   fear.Mean,
		FearP90:    fear.P90,

		ScoreMean: scores.Mean,
		ScoreStd:  scores.Std,

		Feeding:    s.Feeding,
		Drinking:   s.Drinking,
		Resting:    s.Resting,
		Fleeing:    s.Fleeing,
		Sheltering: s.Sheltering,
		Social:     s.Social,
		Wandering:  s.Wandering,
	}

	c.windowStartTick = currentTick
	c.attacks = 0
	c.attackKills = 0
	c.alerts = 0
	c.flocksFormed = 0
	c.displacements = 0
	c.depletions = 0
	c.pairsFormed = 0
	c.deaths = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int64 {
	return c.windowDurationTicks
}

package telemetry

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowEndTick int64   `csv:"window_end"`
	SimTimeSec    float64 `csv:"sim_time"`

	// Population at window end
	BirdCount     int `csv:"birds"`
	PredatorCount int `csv:"predators"`

	// Events during window
	Attacks       int     `csv:"attacks"`
	AttackKills   int     `csv:"attack_kills"`
	AttackRate    float64 `csv:"attack_rate"`
	Alerts        int     `csv:"alerts"`
	FlocksFormed  int     `csv:"flocks_formed"`
	Displacements int     `csv:"displacements"`
	Depletions    int     `csv:"depletions"`
	PairsFormed   int     `csv:"pairs_formed"`
	Deaths        int     `csv:"deaths"`

	// Need distribution sampled at window end
	HungerMean float64 `csv:"hunger_mean"`
	HungerStd  float64 `csv:"hunger_std"`
	HungerP90  float64 `csv:"hunger_p90"`
	ThirstMean float64 `csv:"thirst_mean"`
	EnergyMean float64 `csv:"energy_mean"`
	EnergyP10  float64 `csv:"energy_p10"`
	FearMean   float64 `csv:"fear_mean"`
	FearP90    float64 `csv:"fear_p90"`

	// Decision quality sampled at window end
	ScoreMean float64 `csv:"score_mean"`
	ScoreStd  float64 `csv:"score_std"`

	// State occupancy at window end
	Feeding    int `csv:"feeding"`
	Drinking   int `csv:"drinking"`
	Resting    int `csv:"resting"`
	Fleeing    int `csv:"fleeing"`
	Sheltering int `csv:"sheltering"`
	Social     int `csv:"social"`
	Wandering  int `csv:"wandering"`
}

// Dist summarizes a sample: mean, standard deviation and the p10/p90
// quantiles. Empty samples yield zeros.
type Dist struct {
	Mean, Std, P10, P90 float64
}

// Summarize computes a Dist from unsorted values. The slice is sorted
// in place.
func Summarize(values []float64) Dist {
	if len(values) == 0 {
		return Dist{}
	}
	sort.Float64s(values)
	d := Dist{
		Mean: stat.Mean(values, nil),
		P10:  stat.Quantile(0.1, stat.Empirical, values, nil),
		P90:  stat.Quantile(0.9, stat.Empirical, values, nil),
	}
	if len(values) > 1 {
		d.Std = stat.StdDev(values, nil)
	}
	return d
}

package sim

import (
	"log/slog"

	"github.com/fernwick/aviary/components"
	"github.com/fernwick/aviary/config"
)

// flushTelemetry drains the tick's events into the collector and the
// CSV output, and closes out the stats window when it is due.
func (s *Simulation) flushTelemetry(cfg *config.Config) {
	for _, ev := range s.events {
		s.collector.Record(ev)
		if err := s.output.WriteEvent(ev); err != nil {
			slog.Error("event write failed", "error", err)
		}
	}
	s.events = s.events[:0]

	if !s.collector.ShouldFlush(s.tick) {
		return
	}

	s.sampleWorld()
	stats := s.collector.Flush(s.tick, s.sample)
	if err := s.output.WriteStats(stats); err != nil {
		slog.Error("stats write failed", "error", err)
	}
	if s.logStats {
		slog.Info("window stats",
			"tick", stats.WindowEndTick,
			"birds", stats.BirdCount,
			"predators", stats.PredatorCount,
			"hunger_mean", stats.HungerMean,
			"energy_mean", stats.EnergyMean,
			"fear_p90", stats.FearP90,
			"attacks", stats.Attacks,
			"flocks", stats.FlocksFormed,
			"displacements", stats.Displacements,
		)
	}
}

// sampleWorld gathers the per-bird values the window stats summarize.
func (s *Simulation) sampleWorld() {
	sm := &s.sample
	sm.Hunger = sm.Hunger[:0]
	sm.Thirst = sm.Thirst[:0]
	sm.Energy = sm.Energy[:0]
	sm.Fear = sm.Fear[:0]
	sm.Scores = sm.Scores[:0]
	sm.BirdCount = 0
	sm.PredatorCount = 0
	sm.Feeding = 0
	sm.Drinking = 0
	sm.Resting = 0
	sm.Fleeing = 0
	sm.Sheltering = 0
	sm.Social = 0
	sm.Wandering = 0

	query := s.birdFilter.Query()
	for query.Next() {
		_, _, bird, needs, bb, activity, _ := query.Get()

		if s.traits.Get(bird.Species).Predator {
			sm.PredatorCount++
		} else {
			sm.BirdCount++
		}

		sm.Hunger = append(sm.Hunger, float64(needs.Hunger))
		sm.Thirst = append(sm.Thirst, float64(needs.Thirst))
		sm.Energy = append(sm.Energy, float64(needs.Energy))
		sm.Fear = append(sm.Fear, float64(needs.Fear))
		if best := bb.BestCandidate(); best != nil {
			sm.Scores = append(sm.Scores, float64(best.Score))
		}

		switch activity.State {
		case components.StateEating, components.StateForaging,
			components.StateHoverFeeding, components.StateRetrieving:
			sm.Feeding++
		case components.StateDrinking:
			sm.Drinking++
		case components.StateResting, components.StateRoosting, components.StateNesting:
			sm.Resting++
		case components.StateFleeing:
			sm.Fleeing++
		case components.StateSheltering:
			sm.Sheltering++
		case components.StateCourting, components.StateFlocking, components.StateFollowing:
			sm.Social++
		case components.StateWandering:
			sm.Wandering++
		}
	}
}

package sim

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/fernwick/aviary/components"
	"github.com/fernwick/aviary/config"
)

// threatHoldSec is how long a predator sighting keeps fear from
// relaxing.
const threatHoldSec = 5

// runModifiers applies the unthrottled per-tick pipeline: need drift,
// storm overrides, the predator pipeline and competitive resolution.
// It runs before state execution every tick.
func (s *Simulation) runModifiers(cfg *config.Config, dt float32) {
	s.decayNeeds(cfg, dt)
	s.runStorms(cfg, dt)
	s.runPredation(cfg, dt)
	s.runCompetition(cfg)
}

// decayNeeds drifts every bird's needs: hunger and thirst rise, energy
// falls, social need grows, fear and territorial stress relax unless
// something keeps feeding them.
func (s *Simulation) decayNeeds(cfg *config.Config, dt float32) {
	fearDecay := float32(math.Pow(cfg.Needs.FearDecay, float64(dt)))
	stressDecay := float32(math.Pow(cfg.Needs.StressDecay, float64(dt)))
	weatherFear := s.envr.FearFactor()
	feedUrgency := s.envr.FeedUrgency()

	query := s.birdFilter.Query()
	for query.Next() {
		_, _, bird, needs, bb, activity, _ := query.Get()
		tr := s.traits.Get(bird.Species)

		needs.Hunger += float32(cfg.Needs.HungerRate) * feedUrgency * dt
		needs.Thirst += float32(cfg.Needs.ThirstRate) * dt

		switch activity.State {
		case components.StateResting, components.StateRoosting,
			components.StateNesting, components.StateSheltering:
			// Recovery states pay no activity drain.
		default:
			needs.Energy -= float32(cfg.Needs.EnergyRate) * dt
		}

		switch activity.State {
		case components.StateFlocking, components.StateFollowing,
			components.StateCourting:
			// Social states satisfy the need in their routines.
		default:
			needs.SocialNeed += float32(cfg.Needs.SocialRate) * dt
		}

		switch {
		case weatherFear > 0:
			// Hardy species shrug off weather the frail ones fear.
			needs.Fear += weatherFear * (1.1 - tr.WeatherHardiness) * 0.1 * dt
		case bb.ThreatSeen >= 0 && s.envr.Time-bb.ThreatSeen < threatHoldSec:
			// Fear holds while the predator sighting is fresh.
		default:
			needs.Fear *= fearDecay
		}

		if n := len(bb.Challengers); n > 0 {
			needs.TerritorialStress += 0.05 * float32(n) * dt
		} else {
			needs.TerritorialStress *= stressDecay
		}

		needs.Clamp()
	}
}

// forceState assigns a state directly, bypassing the selector. Used by
// overrides only.
func (s *Simulation) forceState(e ecs.Entity, state components.BehaviorState) {
	activity := s.activityMap.Get(e)
	bb := s.bbMap.Get(e)
	if activity == nil || bb == nil {
		return
	}
	if activity.State != state {
		s.releaseOccupancy(bb)
		activity.State = state
		bb.StateTime = 0
	}
}

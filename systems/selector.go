package systems

import (
	"github.com/fernwick/aviary/components"
	"github.com/fernwick/aviary/config"
)

// EnvSnapshot is the environment view the selector sees. Taking a
// snapshot instead of the live environment keeps Select a pure
// function of its arguments.
type EnvSnapshot struct {
	Hour           float32
	WeatherFear    float32
	ShelterUrgency float32
}

// Thresholds are the selector's rule gates, one field per rule.
type Thresholds struct {
	FleeFear             float32
	ShelterUrgent        float32
	ShelterOpportunistic float32
	ShelterEnergy        float32
	DuskStart            float32
	DuskEnd              float32
	ChallengeStress      float32
	CourtSocial          float32
	FlockSocial          float32
	HoverHunger          float32
	EatHunger            float32
	CacheHunger          float32
	CacheEnergy          float32
	DrinkThirst          float32
	RestEnergy           float32
	PlayEnergy           float32
	ExploreFear          float32
}

// ThresholdsFrom converts the loaded behavior config.
func ThresholdsFrom(c *config.BehaviorConfig) Thresholds {
	return Thresholds{
		FleeFear:             float32(c.FleeFear),
		ShelterUrgent:        float32(c.ShelterUrgent),
		ShelterOpportunistic: float32(c.ShelterOpportunistic),
		ShelterEnergy:        float32(c.ShelterEnergy),
		DuskStart:            float32(c.DuskStart),
		DuskEnd:              float32(c.DuskEnd),
		ChallengeStress:      float32(c.ChallengeStress),
		CourtSocial:          float32(c.CourtSocial),
		FlockSocial:          float32(c.FlockSocial),
		HoverHunger:          float32(c.HoverHunger),
		EatHunger:            float32(c.EatHunger),
		CacheHunger:          float32(c.CacheHunger),
		CacheEnergy:          float32(c.CacheEnergy),
		DrinkThirst:          float32(c.DrinkThirst),
		RestEnergy:           float32(c.RestEnergy),
		PlayEnergy:           float32(c.PlayEnergy),
		ExploreFear:          float32(c.ExploreFear),
	}
}

// Decision is the selector's output: the next state and, when the
// state is MovingToTarget, the action and target to pursue.
type Decision struct {
	State  components.BehaviorState
	Action components.ActionType
	Target components.TargetRef
}

func moveTo(a components.ActionType, c *components.UtilityEntry) Decision {
	return Decision{State: components.StateMovingToTarget, Action: a, Target: c.Target}
}

// Select runs the fixed priority cascade against the blackboard's
// candidates. First matching rule wins; with no candidates at all it
// always resolves to Wandering. The same walk that picks the rule also
// resolves the target, so state and target can never disagree.
func Select(bb *components.Blackboard, n *components.Needs, e EnvSnapshot, th Thresholds) Decision {
	cand := bb.CandidateFor

	// 1. Panic overrides everything.
	if n.Fear+e.WeatherFear > th.FleeFear {
		return Decision{State: components.StateFleeing}
	}

	// 2. Severe storms force shelter.
	if e.ShelterUrgency > th.ShelterUrgent {
		if c := cand(components.ActShelter); c != nil {
			return moveTo(components.ActShelter, c)
		}
	}

	// 3. Milder storms send tired birds to cover.
	if e.ShelterUrgency > th.ShelterOpportunistic && n.Energy < th.ShelterEnergy {
		if c := cand(components.ActShelter); c != nil {
			return moveTo(components.ActShelter, c)
		}
	}

	// 4. Dusk roosting window.
	if e.Hour >= th.DuskStart && e.Hour < th.DuskEnd {
		if c := cand(components.ActRoost); c != nil {
			return moveTo(components.ActRoost, c)
		}
		if c := cand(components.ActPerch); c != nil {
			return moveTo(components.ActPerch, c)
		}
	}

	// 5. Territory defense.
	if n.TerritorialStress > th.ChallengeStress {
		if c := cand(components.ActChallenge); c != nil {
			return moveTo(components.ActChallenge, c)
		}
	}

	// 6. Courtship.
	if n.SocialNeed > th.CourtSocial {
		if c := cand(components.ActCourt); c != nil {
			return moveTo(components.ActCourt, c)
		}
	}

	// 7. Flocking.
	if n.SocialNeed > th.FlockSocial {
		if c := cand(components.ActFlock); c != nil {
			return moveTo(components.ActFlock, c)
		}
	}

	// 8. Hover feeders beat perching feeders for the birds that use them.
	if n.Hunger > th.HoverHunger {
		if c := cand(components.ActHoverFeed); c != nil {
			return moveTo(components.ActHoverFeed, c)
		}
	}

	// 9. Feeding: feeder, then ground forage, then a remembered stash.
	if n.Hunger > th.EatHunger {
		if c := cand(components.ActEat); c != nil {
			return moveTo(components.ActEat, c)
		}
		if c := cand(components.ActForage); c != nil {
			return moveTo(components.ActForage, c)
		}
		if c := cand(components.ActRetrieve); c != nil {
			return moveTo(components.ActRetrieve, c)
		}
	}

	// 10. Sated and rested birds stock caches.
	if n.Hunger < th.CacheHunger && n.Energy > th.CacheEnergy {
		if c := cand(components.ActCache); c != nil {
			return moveTo(components.ActCache, c)
		}
	}

	// 11. Drinking.
	if n.Thirst > th.DrinkThirst {
		if c := cand(components.ActDrink); c != nil {
			return moveTo(components.ActDrink, c)
		}
	}

	// 12. Exhaustion: nest, then perch, then rest in place.
	if n.Energy < th.RestEnergy {
		if c := cand(components.ActNest); c != nil {
			return moveTo(components.ActNest, c)
		}
		if c := cand(components.ActPerch); c != nil {
			return moveTo(components.ActPerch, c)
		}
		return Decision{State: components.StateResting}
	}

	// 13. Spare energy goes to play, calm birds explore.
	if n.Energy > th.PlayEnergy {
		if c := cand(components.ActPlay); c != nil {
			return moveTo(components.ActPlay, c)
		}
	}
	if n.Fear < th.ExploreFear {
		if c := cand(components.ActExplore); c != nil {
			return moveTo(components.ActExplore, c)
		}
	}

	// 14. Bathing fills otherwise idle time.
	if c := cand(components.ActBathe); c != nil {
		return moveTo(components.ActBathe, c)
	}

	// 15. Nothing to do.
	return Decision{State: components.StateWandering}
}

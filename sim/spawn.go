package sim

import (
	"log/slog"

	"github.com/mlange-42/ark/ecs"

	"github.com/fernwick/aviary/components"
	"github.com/fernwick/aviary/config"
	"github.com/fernwick/aviary/species"
	"github.com/fernwick/aviary/telemetry"
)

// placeObjects scatters the world objects: feeders, baths, perches,
// shelters and shrubs. Offer values set how attractive each object is
// before needs and environment weigh in.
func (s *Simulation) placeObjects() {
	cfg := config.Cfg()

	for i := 0; i < cfg.Objects.Feeders; i++ {
		offers := []components.ActionOffer{
			{Action: components.ActEat, BaseUtility: 0.8, Range: 300},
		}
		// Every third feeder is a nectar feeder for hover feeders.
		if i%3 == 2 {
			offers = []components.ActionOffer{
				{Action: components.ActHoverFeed, BaseUtility: 0.9, Range: 250},
			}
		}
		s.spawnObject(offers, cfg.Objects.FeederCapacity, float32(cfg.Objects.FeederSupply), false)
	}

	for i := 0; i < cfg.Objects.Baths; i++ {
		s.spawnObject([]components.ActionOffer{
			{Action: components.ActDrink, BaseUtility: 0.7, Range: 250},
			{Action: components.ActBathe, BaseUtility: 0.6, Range: 250},
		}, cfg.Objects.BathCapacity, -1, false)
	}

	for i := 0; i < cfg.Objects.Perches; i++ {
		offers := []components.ActionOffer{
			{Action: components.ActPerch, BaseUtility: 0.5, Range: 200},
		}
		if i%2 == 0 {
			offers = append(offers, components.ActionOffer{
				Action: components.ActRoost, BaseUtility: 0.6, Range: 200,
			})
		}
		s.spawnObject(offers, 0, -1, false)
	}

	for i := 0; i < cfg.Objects.Shelters; i++ {
		s.spawnObject([]components.ActionOffer{
			{Action: components.ActShelter, BaseUtility: 0.9, Range: 350},
			{Action: components.ActNest, BaseUtility: 0.5, Range: 200},
		}, 0, -1, true)
	}

	for i := 0; i < cfg.Objects.Shrubs; i++ {
		offers := []components.ActionOffer{
			{Action: components.ActForage, BaseUtility: 0.6, Range: 250},
			{Action: components.ActCache, BaseUtility: 0.5, Range: 250},
		}
		if i%2 == 0 {
			offers = append(offers, components.ActionOffer{
				Action: components.ActPlay, BaseUtility: 0.4, Range: 200,
			})
		}
		if i%3 == 0 {
			offers = append(offers, components.ActionOffer{
				Action: components.ActExplore, BaseUtility: 0.3, Range: 300,
			})
		}
		s.spawnObject(offers, 0, -1, false)
	}
}

// spawnObject creates one world object at a random position.
func (s *Simulation) spawnObject(offers []components.ActionOffer, capacity int, supply float32, shelter bool) ecs.Entity {
	pos := components.Position{
		X: 60 + s.rng.Float32()*(s.worldWidth-120),
		Y: 60 + s.rng.Float32()*(s.worldHeight-120),
	}
	prov := components.UtilityProvider{
		Offers:   offers,
		Capacity: capacity,
		Resource: supply,
	}
	e := s.objectMapper.NewEntity(&pos, &prov)
	if shelter {
		s.shelterMap.Add(e, &components.Shelter{Quality: 0.5 + s.rng.Float32()*0.5})
	}
	s.registerID(e)
	return e
}

// spawnInitialPopulation creates the configured birds and predators.
func (s *Simulation) spawnInitialPopulation() {
	cfg := config.Cfg()

	total := 0
	spawnSet := func(table map[string]int) {
		for name, count := range table {
			sp, ok := species.FromName(name)
			if !ok {
				slog.Warn("unknown species in population config", "species", name)
				continue
			}
			for i := 0; i < count; i++ {
				if total >= cfg.Population.MaxBirds {
					return
				}
				s.spawnBird(sp)
				total++
			}
		}
	}
	spawnSet(cfg.Population.Birds)
	spawnSet(cfg.Population.Predators)

	slog.Info("population spawned", "birds", total)
}

// spawnBird creates one bird at a random position with randomized
// starting needs and staggered pass timers.
func (s *Simulation) spawnBird(sp species.Species) ecs.Entity {
	cfg := config.Cfg()

	pos := components.Position{
		X: s.rng.Float32() * s.worldWidth,
		Y: s.rng.Float32() * s.worldHeight,
	}
	vel := components.Velocity{}
	bird := components.Bird{
		Species:        sp,
		DominanceMod:   (s.rng.Float32()*2 - 1) * 0.1,
		ReceptivityMod: (s.rng.Float32()*2 - 1) * 0.1,
		NoiseSeed:      s.rng.Float32() * 1000,
	}
	needs := components.Needs{
		Hunger:     0.2 + s.rng.Float32()*0.3,
		Thirst:     0.2 + s.rng.Float32()*0.3,
		Energy:     0.6 + s.rng.Float32()*0.3,
		SocialNeed: s.rng.Float32() * 0.4,
	}
	// Stagger pass timers so the population does not re-decide in
	// lock-step.
	bb := components.Blackboard{
		UtilityTimer:  s.rng.Float32() * float32(cfg.Behavior.UtilityInterval),
		SocialTimer:   s.rng.Float32() * float32(cfg.Behavior.SocialInterval),
		DecisionTimer: s.rng.Float32() * float32(cfg.Behavior.DecisionInterval),
		ThreatSeen:    -1,
	}
	activity := components.Activity{State: components.StateWandering}
	cache := components.CacheStore{}

	e := s.birdMapper.NewEntity(&pos, &vel, &bird, &needs, &bb, &activity, &cache)
	s.registerID(e)
	return e
}

func (s *Simulation) registerID(e ecs.Entity) {
	s.nextID++
	s.ids[e] = s.nextID
}

// kill marks a bird for removal at the end of the tick.
func (s *Simulation) kill(e ecs.Entity) {
	s.deadBuf = append(s.deadBuf, e)
}

// cleanupDead removes killed birds and then clears any target that
// points at an entity that no longer exists. Removal is two-pass:
// collection happened during the tick, structural changes happen here.
func (s *Simulation) cleanupDead() {
	for _, e := range s.deadBuf {
		if !s.world.Alive(e) {
			continue
		}
		s.emit(telemetry.NewDeathEvent(s.tick, s.envr.Time, s.id(e)))
		delete(s.huntCooldown, s.id(e))
		delete(s.ids, e)
		s.world.RemoveEntity(e)
	}
	s.deadBuf = s.deadBuf[:0]

	// Generation-checked handles make stale refs detectable in O(1).
	query := s.birdFilter.Query()
	for query.Next() {
		_, _, _, _, bb, activity, _ := query.Get()
		if bb.CurrentTarget.Entity.IsZero() {
			continue // empty or position-only target, nothing to validate
		}
		if !s.world.Alive(bb.CurrentTarget.Entity) {
			bb.ClearTarget()
			if activity.State == components.StateMovingToTarget {
				activity.State = components.StateWandering
			}
		}
	}
}

package sim

import (
	"sort"

	"github.com/mlange-42/ark/ecs"

	"github.com/fernwick/aviary/components"
	"github.com/fernwick/aviary/config"
	"github.com/fernwick/aviary/telemetry"
)

// runStorms drives the emergency flocking override. While a storm is
// active, eligible groups roll against the severity's formation chance
// on a fixed cycle; formed flocks get a shared shelter target and a
// direct state assignment that bypasses the selector. When the storm
// passes, members still in transit are released.
func (s *Simulation) runStorms(cfg *config.Config, dt float32) {
	if !s.envr.Storming() {
		s.releaseFlocks()
		return
	}

	s.stormTimer -= dt
	if s.stormTimer > 0 {
		return
	}
	s.stormTimer = float32(cfg.Storm.CycleInterval)

	chance := s.envr.Severity.FlockChance()
	formed := 0

	// Candidate leaders, strongest leadership first, deterministic.
	type leader struct {
		e     ecs.Entity
		score float32
		x, y  float32
	}
	var leaders []leader

	query := s.birdFilter.Query()
	for query.Next() {
		pos, _, bird, _, bb, activity, _ := query.Get()
		tr := s.traits.Get(bird.Species)
		if tr.Predator || tr.FlockTendency < 0.3 {
			continue
		}
		if !bb.FlockLeader.IsZero() || activity.State == components.StateSheltering {
			continue
		}
		leaders = append(leaders, leader{
			e:     query.Entity(),
			score: tr.LeadershipPotential * tr.FlockTendency,
			x:     pos.X,
			y:     pos.Y,
		})
	}
	sort.Slice(leaders, func(i, j int) bool {
		if leaders[i].score != leaders[j].score {
			return leaders[i].score > leaders[j].score
		}
		return s.id(leaders[i].e) < s.id(leaders[j].e)
	})

	claimed := make(map[ecs.Entity]bool)

	for _, ld := range leaders {
		if formed >= cfg.Storm.MaxPerCycle {
			break
		}
		if claimed[ld.e] {
			continue
		}
		if s.rng.Float32() >= chance {
			continue
		}

		members := s.gatherFlock(ld.e, ld.x, ld.y, float32(cfg.Storm.FlockRadius), cfg.Storm.MaxFlock, claimed)
		if len(members) < cfg.Storm.MinFlock {
			continue
		}

		shelter, ok := s.nearestShelter(ld.x, ld.y)
		if !ok {
			break // no shelters anywhere, nothing to assign
		}

		for _, m := range members {
			claimed[m] = true
			bb := s.bbMap.Get(m)
			if bb == nil {
				continue
			}
			bb.FlockLeader = ld.e
			bb.FlockShelter = shelter
			bb.CurrentTarget = shelter
			bb.TargetAction = components.ActShelter
			s.forceState(m, components.StateMovingToTarget)
		}
		s.emit(telemetry.NewEmergencyFlockEvent(s.tick, s.envr.Time, s.id(ld.e), len(members)))
		formed++
	}
}

// gatherFlock collects the leader and its unclaimed flockable
// neighbors, capped at maxFlock.
func (s *Simulation) gatherFlock(leader ecs.Entity, x, y, radius float32, maxFlock int, claimed map[ecs.Entity]bool) []ecs.Entity {
	members := []ecs.Entity{leader}

	s.neighborBuf = s.neighborBuf[:0]
	s.neighborBuf = s.birdGrid.QueryRadiusInto(s.neighborBuf, x, y, radius, leader, s.posMap)

	for _, nb := range s.neighborBuf {
		if len(members) >= maxFlock {
			break
		}
		if claimed[nb.E] {
			continue
		}
		bird := s.birdMap.Get(nb.E)
		if bird == nil {
			continue
		}
		tr := s.traits.Get(bird.Species)
		if tr.Predator || tr.FlockTendency < 0.3 {
			continue
		}
		bb := s.bbMap.Get(nb.E)
		if bb == nil || !bb.FlockLeader.IsZero() {
			continue
		}
		members = append(members, nb.E)
	}
	return members
}

// nearestShelter finds the best object offering Shelter, weighing
// distance against cover quality so a sturdier shelter slightly
// further out can win.
func (s *Simulation) nearestShelter(x, y float32) (components.TargetRef, bool) {
	var best components.TargetRef
	var bestCost float32
	found := false

	query := s.objectFilter.Query()
	for query.Next() {
		pos, prov := query.Get()
		if prov.Offer(components.ActShelter) == nil {
			continue
		}
		quality := float32(0.5)
		if sh := s.shelterMap.Get(query.Entity()); sh != nil {
			quality = sh.Quality
		}
		dx := pos.X - x
		dy := pos.Y - y
		cost := (dx*dx + dy*dy) / (quality * quality)
		if !found || cost < bestCost {
			best = components.TargetRef{Entity: query.Entity(), X: pos.X, Y: pos.Y}
			bestCost = cost
			found = true
		}
	}
	return best, found
}

// releaseFlocks clears flock assignments once the storm has passed.
// Birds already under cover finish sheltering on their own.
func (s *Simulation) releaseFlocks() {
	query := s.birdFilter.Query()
	for query.Next() {
		_, _, _, _, bb, activity, _ := query.Get()
		if bb.FlockLeader.IsZero() {
			continue
		}
		if activity.State == components.StateSheltering {
			continue
		}
		bb.FlockLeader = ecs.Entity{}
		bb.FlockShelter = components.TargetRef{}
		if activity.State == components.StateMovingToTarget && bb.TargetAction == components.ActShelter {
			bb.ClearTarget()
			activity.State = components.StateWandering
			bb.StateTime = 0
		}
	}
}

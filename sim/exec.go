package sim

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/fernwick/aviary/components"
	"github.com/fernwick/aviary/config"
	"github.com/fernwick/aviary/telemetry"
)

// windDrift is the maximum wind push in units per second at full wind.
const windDrift = 12

// executeStates runs one update of every bird's active state routine:
// movement, resource effects and exit checks. Runs every tick, serial,
// because routines mutate shared object state (occupancy, supply).
func (s *Simulation) executeStates(cfg *config.Config, dt float32) {
	query := s.birdFilter.Query()
	for query.Next() {
		pos, vel, bird, needs, bb, activity, cache := query.Get()
		e := query.Entity()
		bb.StateTime += dt

		switch activity.State {
		case components.StateWandering:
			s.execWander(e, pos, vel, bird, cfg, dt)

		case components.StateMovingToTarget:
			s.execMoveToTarget(e, pos, vel, bb, activity, cfg, dt)

		case components.StateEating:
			s.execEating(e, pos, vel, needs, bb, activity, cfg, dt)

		case components.StateDrinking:
			needs.Thirst -= float32(cfg.Rates.DrinkRate) * dt
			vel.X, vel.Y = 0, 0
			if needs.Thirst < float32(cfg.Rates.DrinkExit) {
				s.exitToWandering(bb, activity)
			}

		case components.StateBathing:
			needs.Energy += float32(cfg.Rates.BatheRate) * dt
			needs.Fear -= 0.05 * dt
			vel.X, vel.Y = 0, 0
			if needs.Energy > float32(cfg.Rates.BatheExit) {
				s.exitToWandering(bb, activity)
			}

		case components.StateFleeing:
			s.execFleeing(pos, vel, bird, needs, bb, activity, cfg, dt)

		case components.StateResting, components.StateRoosting, components.StateNesting:
			needs.Energy += float32(cfg.Rates.RestRate) * dt
			vel.X, vel.Y = 0, 0
			if needs.Energy > float32(cfg.Rates.RestExit) {
				s.exitToWandering(bb, activity)
			}

		case components.StateSheltering:
			s.execSheltering(needs, vel, bb, activity, dt)

		case components.StatePlaying:
			s.execPlaying(pos, vel, bird, needs, bb, activity, dt)

		case components.StateExploring:
			s.execExploring(pos, vel, bird, needs, bb, activity, cfg, dt)

		case components.StateCourting:
			s.execCourting(e, pos, vel, needs, bb, activity, cfg, dt)

		case components.StateFollowing, components.StateFlocking:
			s.execFlocking(pos, vel, needs, bb, activity, cfg, dt)

		case components.StateTerritorial:
			s.execTerritorial(pos, vel, needs, bb, activity, cfg, dt)

		case components.StateForaging:
			needs.Hunger -= float32(cfg.Rates.ForageYield) * dt
			s.idleDrift(pos, vel, bird, 10, dt)
			if needs.Hunger < float32(cfg.Rates.EatExit) || bb.StateTime > 20 {
				s.exitToWandering(bb, activity)
			}

		case components.StateCaching:
			s.execCaching(pos, vel, needs, bb, activity, cache, dt)

		case components.StateRetrieving:
			s.execRetrieving(pos, needs, vel, bb, activity, cache, cfg, dt)

		case components.StateHoverFeeding:
			// Turbulence makes hovering sloppier and costlier.
			turb := s.envr.Wind
			needs.Hunger -= float32(cfg.Rates.EatRate) * 1.2 * (1 - 0.5*turb) * dt
			needs.Energy -= (0.08 + 0.1*turb) * dt
			vel.X, vel.Y = 0, 0
			if needs.Hunger < float32(cfg.Rates.EatExit) {
				s.exitToWandering(bb, activity)
			}

		case components.StateHunting:
			s.execHunting(e, pos, vel, bb, activity, cfg, dt)

		default:
			activity.State = components.StateWandering
		}

		// Movement integration and clamping for whatever velocity the
		// routine chose. Wind pushes anything airborne; perched birds
		// just grip harder.
		pos.X += vel.X * dt
		pos.Y += vel.Y * dt
		if (vel.X != 0 || vel.Y != 0) && s.envr.Wind > 0 {
			drift := s.envr.Wind * windDrift * dt
			pos.X += s.envr.WindDirX * drift
			pos.Y += s.envr.WindDirY * drift
		}
		pos.X, pos.Y = s.clampWorld(pos.X, pos.Y)

		needs.Clamp()
		debugAssertNeeds(needs)
	}
}

// exitToWandering is the universal state exit: release any occupancy,
// drop the target, fall back to Wandering.
func (s *Simulation) exitToWandering(bb *components.Blackboard, activity *components.Activity) {
	s.releaseOccupancy(bb)
	bb.ClearTarget()
	activity.State = components.StateWandering
	bb.StateTime = 0
	bb.ActionDuration = 0
}

// releaseOccupancy returns the bird's slot on whatever object it holds.
func (s *Simulation) releaseOccupancy(bb *components.Blackboard) {
	if bb.Occupying.IsZero() {
		return
	}
	if s.world.Alive(bb.Occupying) {
		if prov := s.providerMap.Get(bb.Occupying); prov != nil && prov.Occupants > 0 {
			prov.Occupants--
		}
	}
	bb.Occupying = ecs.Entity{}
}

func (s *Simulation) execWander(e ecs.Entity, pos *components.Position, vel *components.Velocity, bird *components.Bird, cfg *config.Config, dt float32) {
	dx, dy := s.wander.Heading(bird.NoiseSeed, s.envr.Time)
	speed := float32(cfg.Behavior.WanderSpeed)
	vel.X = dx * speed
	vel.Y = dy * speed
}

// idleDrift gives passive states a little scripted motion.
func (s *Simulation) idleDrift(pos *components.Position, vel *components.Velocity, bird *components.Bird, speed float32, dt float32) {
	dx, dy := s.wander.Heading(bird.NoiseSeed, s.envr.Time)
	vel.X = dx * speed
	vel.Y = dy * speed
}

// execMoveToTarget steers toward the current target. The next state is
// determined only on arrival, by the action the target provides.
func (s *Simulation) execMoveToTarget(e ecs.Entity, pos *components.Position, vel *components.Velocity, bb *components.Blackboard, activity *components.Activity, cfg *config.Config, dt float32) {
	tx, ty := bb.CurrentTarget.X, bb.CurrentTarget.Y
	if !bb.CurrentTarget.Entity.IsZero() {
		if !s.world.Alive(bb.CurrentTarget.Entity) {
			s.exitToWandering(bb, activity)
			return
		}
		// Follow moving targets (other birds).
		if tp := s.posMap.Get(bb.CurrentTarget.Entity); tp != nil {
			tx, ty = tp.X, tp.Y
			bb.CurrentTarget.X, bb.CurrentTarget.Y = tx, ty
		}
	} else if bb.CurrentTarget.X == 0 && bb.CurrentTarget.Y == 0 {
		s.exitToWandering(bb, activity)
		return
	}

	dx := tx - pos.X
	dy := ty - pos.Y
	arrival := float32(cfg.Behavior.ArrivalRadius)
	if dx*dx+dy*dy <= arrival*arrival {
		s.arrive(e, bb, activity)
		vel.X, vel.Y = 0, 0
		return
	}

	nx, ny := norm(dx, dy)
	speed := float32(cfg.Behavior.MoveSpeed)
	vel.X = nx * speed
	vel.Y = ny * speed
}

// arrive transitions a bird that reached its target into the state the
// target's action implies, claiming an occupancy slot where needed.
func (s *Simulation) arrive(e ecs.Entity, bb *components.Blackboard, activity *components.Activity) {
	next := bb.TargetAction.State()

	if !bb.CurrentTarget.Entity.IsZero() {
		if prov := s.providerMap.Get(bb.CurrentTarget.Entity); prov != nil {
			if !prov.HasRoom() || prov.Depleted {
				s.exitToWandering(bb, activity)
				return
			}
			prov.Occupants++
			bb.Occupying = bb.CurrentTarget.Entity
		}
	}

	activity.State = next
	bb.StateTime = 0
	bb.ActionDuration = 5 + s.rng.Float32()*10
}

func (s *Simulation) execEating(e ecs.Entity, pos *components.Position, vel *components.Velocity, needs *components.Needs, bb *components.Blackboard, activity *components.Activity, cfg *config.Config, dt float32) {
	vel.X, vel.Y = 0, 0

	rate := float32(cfg.Rates.EatRate)
	needs.Hunger -= rate * dt

	if !bb.CurrentTarget.Entity.IsZero() && s.world.Alive(bb.CurrentTarget.Entity) {
		if prov := s.providerMap.Get(bb.CurrentTarget.Entity); prov != nil {
			wasDepleted := prov.Depleted
			taken := prov.Consume(rate * dt)
			if prov.Depleted {
				// Another occupant may have emptied the feeder this
				// tick; only the emptying bite reports the event.
				if !wasDepleted {
					s.emit(telemetry.NewObjectDepletedEvent(s.tick, s.envr.Time, s.id(bb.CurrentTarget.Entity), taken))
				}
				s.exitToWandering(bb, activity)
				return
			}
		}
	} else {
		s.exitToWandering(bb, activity)
		return
	}

	if needs.Hunger < float32(cfg.Rates.EatExit) {
		s.exitToWandering(bb, activity)
	}
}

func (s *Simulation) execFleeing(pos *components.Position, vel *components.Velocity, bird *components.Bird, needs *components.Needs, bb *components.Blackboard, activity *components.Activity, cfg *config.Config, dt float32) {
	dx, dy := -bb.ThreatDirX, -bb.ThreatDirY
	if dx == 0 && dy == 0 {
		dx, dy = s.wander.Heading(bird.NoiseSeed, s.envr.Time)
	}
	nx, ny := norm(dx, dy)
	speed := float32(cfg.Behavior.FleeSpeed)
	vel.X = nx * speed
	vel.Y = ny * speed
	needs.Energy -= 0.1 * dt

	if needs.Fear < float32(cfg.Rates.FearCalm) {
		bb.ThreatDirX, bb.ThreatDirY = 0, 0
		s.exitToWandering(bb, activity)
	}
}

func (s *Simulation) execSheltering(needs *components.Needs, vel *components.Velocity, bb *components.Blackboard, activity *components.Activity, dt float32) {
	vel.X, vel.Y = 0, 0
	needs.Fear -= 0.1 * dt
	needs.Energy += 0.1 * dt

	if !s.envr.Storming() && needs.Fear < 0.3 {
		bb.FlockLeader = ecs.Entity{}
		bb.FlockShelter = components.TargetRef{}
		s.exitToWandering(bb, activity)
	}
}

func (s *Simulation) execPlaying(pos *components.Position, vel *components.Velocity, bird *components.Bird, needs *components.Needs, bb *components.Blackboard, activity *components.Activity, dt float32) {
	s.idleDrift(pos, vel, bird, 25, dt)
	needs.Energy -= 0.1 * dt
	needs.SocialNeed -= 0.05 * dt

	if needs.Energy < 0.5 || bb.StateTime > bb.ActionDuration {
		s.exitToWandering(bb, activity)
	}
}

func (s *Simulation) execExploring(pos *components.Position, vel *components.Velocity, bird *components.Bird, needs *components.Needs, bb *components.Blackboard, activity *components.Activity, cfg *config.Config, dt float32) {
	dx, dy := s.wander.Heading(bird.NoiseSeed, s.envr.Time)
	speed := float32(cfg.Behavior.MoveSpeed) * 0.7
	vel.X = dx * speed
	vel.Y = dy * speed

	if bb.StateTime > bb.ActionDuration {
		s.exitToWandering(bb, activity)
	}
}

func (s *Simulation) execCourting(e ecs.Entity, pos *components.Position, vel *components.Velocity, needs *components.Needs, bb *components.Blackboard, activity *components.Activity, cfg *config.Config, dt float32) {
	mate := bb.CurrentTarget.Entity
	if mate.IsZero() || !s.world.Alive(mate) {
		s.exitToWandering(bb, activity)
		return
	}
	if mp := s.posMap.Get(mate); mp != nil {
		// Circle close to the mate.
		dx := mp.X - pos.X
		dy := mp.Y - pos.Y
		if dx*dx+dy*dy > 40*40 {
			nx, ny := norm(dx, dy)
			vel.X = nx * 40
			vel.Y = ny * 40
		} else {
			vel.X, vel.Y = 0, 0
		}
	}

	if bb.StateTime > float32(cfg.Rates.CourtTime) {
		s.emit(telemetry.NewPairFormedEvent(s.tick, s.envr.Time, s.id(e), s.id(mate)))
		needs.SocialNeed -= 0.6
		s.exitToWandering(bb, activity)
	}
}

func (s *Simulation) execFlocking(pos *components.Position, vel *components.Velocity, needs *components.Needs, bb *components.Blackboard, activity *components.Activity, cfg *config.Config, dt float32) {
	anchor := bb.CurrentTarget.Entity
	if !bb.FlockLeader.IsZero() {
		anchor = bb.FlockLeader
	}
	if anchor.IsZero() || !s.world.Alive(anchor) {
		s.exitToWandering(bb, activity)
		return
	}
	if ap := s.posMap.Get(anchor); ap != nil {
		dx := ap.X - pos.X
		dy := ap.Y - pos.Y
		distSq := dx*dx + dy*dy
		// Hold loose formation: close in from afar, spread out when
		// packed.
		switch {
		case distSq > 60*60:
			nx, ny := norm(dx, dy)
			vel.X = nx * float32(cfg.Behavior.MoveSpeed)
			vel.Y = ny * float32(cfg.Behavior.MoveSpeed)
		case distSq < 20*20 && distSq > 0:
			nx, ny := norm(dx, dy)
			vel.X = -nx * 20
			vel.Y = -ny * 20
		default:
			vel.X *= 0.9
			vel.Y *= 0.9
		}
	}

	needs.SocialNeed -= float32(cfg.Rates.SocialGain) * dt
	if needs.SocialNeed < 0.2 {
		s.exitToWandering(bb, activity)
	}
}

func (s *Simulation) execTerritorial(pos *components.Position, vel *components.Velocity, needs *components.Needs, bb *components.Blackboard, activity *components.Activity, cfg *config.Config, dt float32) {
	rival := bb.CurrentTarget.Entity
	if rival.IsZero() || !s.world.Alive(rival) {
		s.exitToWandering(bb, activity)
		return
	}
	if rp := s.posMap.Get(rival); rp != nil {
		dx := rp.X - pos.X
		dy := rp.Y - pos.Y
		if dx*dx+dy*dy > 35*35 {
			nx, ny := norm(dx, dy)
			vel.X = nx * float32(cfg.Behavior.MoveSpeed)
			vel.Y = ny * float32(cfg.Behavior.MoveSpeed)
		} else {
			vel.X, vel.Y = 0, 0
			// Posturing at close range vents the stress that brought
			// the bird here.
			needs.TerritorialStress -= 0.2 * dt
			needs.Energy -= 0.05 * dt
		}
	}

	if bb.StateTime > 6 || needs.TerritorialStress < 0.2 {
		s.exitToWandering(bb, activity)
	}
}

func (s *Simulation) execCaching(pos *components.Position, vel *components.Velocity, needs *components.Needs, bb *components.Blackboard, activity *components.Activity, cache *components.CacheStore, dt float32) {
	vel.X, vel.Y = 0, 0
	// Hiding food takes a moment.
	if bb.StateTime < 2 {
		return
	}
	jx, jy := s.wander.Jitter(float32(s.tick%97), s.envr.Time, 30)
	cache.Add(components.CacheSite{X: pos.X + jx, Y: pos.Y + jy, Amount: 0.3})
	s.exitToWandering(bb, activity)
}

func (s *Simulation) execRetrieving(pos *components.Position, needs *components.Needs, vel *components.Velocity, bb *components.Blackboard, activity *components.Activity, cache *components.CacheStore, cfg *config.Config, dt float32) {
	vel.X, vel.Y = 0, 0
	idx := cache.Nearest(pos.X, pos.Y)
	if idx < 0 {
		s.exitToWandering(bb, activity)
		return
	}
	site := &cache.Sites[idx]
	take := float32(cfg.Rates.EatRate) * dt
	if take > site.Amount {
		take = site.Amount
	}
	needs.Hunger -= take
	site.Amount -= take

	if site.Amount <= 0 {
		cache.Sites = append(cache.Sites[:idx], cache.Sites[idx+1:]...)
		s.exitToWandering(bb, activity)
		return
	}
	if needs.Hunger < float32(cfg.Rates.EatExit) {
		s.exitToWandering(bb, activity)
	}
}

func (s *Simulation) execHunting(e ecs.Entity, pos *components.Position, vel *components.Velocity, bb *components.Blackboard, activity *components.Activity, cfg *config.Config, dt float32) {
	prey := bb.CurrentTarget.Entity
	if prey.IsZero() || !s.world.Alive(prey) {
		s.exitToWandering(bb, activity)
		return
	}
	pp := s.posMap.Get(prey)
	if pp == nil {
		s.exitToWandering(bb, activity)
		return
	}
	nx, ny := norm(pp.X-pos.X, pp.Y-pos.Y)
	speed := float32(cfg.Behavior.FleeSpeed)
	vel.X = nx * speed
	vel.Y = ny * speed

	// Strike resolution happens in the predation pipeline; a chase
	// that drags on is abandoned.
	if bb.StateTime > 12 {
		s.exitToWandering(bb, activity)
	}
}

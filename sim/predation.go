package sim

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/fernwick/aviary/components"
	"github.com/fernwick/aviary/config"
	"github.com/fernwick/aviary/species"
	"github.com/fernwick/aviary/telemetry"
)

// strikeRange is how close a hunting predator must get to resolve an
// attack.
const strikeRange = 30

// runPredation drives predator hunts and the resulting panic. Each
// predator periodically picks the most attractive prey in range and
// starts a chase; the strike resolves when the chase closes, forcing
// the target's fear to full, pushing it into its species escape
// behavior and propagating an alert call to everything nearby.
func (s *Simulation) runPredation(cfg *config.Config, dt float32) {
	query := s.birdFilter.Query()
	for query.Next() {
		pos, _, bird, needs, bb, activity, _ := query.Get()
		tr := s.traits.Get(bird.Species)
		if !tr.Predator {
			continue
		}
		e := query.Entity()
		id := s.id(e)

		if cd, ok := s.huntCooldown[id]; ok && cd > 0 {
			s.huntCooldown[id] = cd - dt
		}

		switch activity.State {
		case components.StateHunting:
			s.resolveStrike(e, pos, bb, activity, tr, cfg)
		default:
			// Nocturnal hunters sit out the day, diurnal ones the night.
			if tr.Nocturnal == s.envr.IsDaylight() {
				continue
			}
			if s.huntCooldown[id] > 0 || needs.Hunger < 0.3 {
				continue
			}
			if prey, ok := s.pickPrey(e, pos, tr, float32(cfg.Predation.PreyBonus)); ok {
				bb.CurrentTarget = prey
				s.forceState(e, components.StateHunting)
				s.huntCooldown[id] = float32(cfg.Predation.HuntInterval)
			}
		}
	}
}

// pickPrey returns the highest ranked prey within attack range:
// closeness, with a flat bonus for the predator's preferred species.
func (s *Simulation) pickPrey(hunter ecs.Entity, pos *components.Position, tr *species.Traits, preyBonus float32) (components.TargetRef, bool) {
	s.neighborBuf = s.neighborBuf[:0]
	s.neighborBuf = s.birdGrid.QueryRadiusInto(s.neighborBuf, pos.X, pos.Y, tr.AttackRange, hunter, s.posMap)

	var best components.TargetRef
	var bestScore float32
	found := false

	for _, nb := range s.neighborBuf {
		other := s.birdMap.Get(nb.E)
		if other == nil {
			continue
		}
		otr := s.traits.Get(other.Species)
		if otr.Predator {
			continue
		}
		dist := sqrt32(nb.DistSq)
		score := 1 - dist/tr.AttackRange
		if tr.PreysOn(other.Species) {
			score += preyBonus
		}
		if !found || score > bestScore {
			best = components.TargetRef{Entity: nb.E, X: pos.X + nb.DX, Y: pos.Y + nb.DY}
			bestScore = score
			found = true
		}
	}
	return best, found
}

// resolveStrike checks whether the chase has closed and, if so, rolls
// the attack.
func (s *Simulation) resolveStrike(hunter ecs.Entity, pos *components.Position, bb *components.Blackboard, activity *components.Activity, tr *species.Traits, cfg *config.Config) {
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
	dx := pp.X - pos.X
	dy := pp.Y - pos.Y
	if dx*dx+dy*dy > strikeRange*strikeRange {
		return // still chasing
	}

	preyBird := s.birdMap.Get(prey)
	chance := tr.SuccessRate
	if preyBird != nil && tr.PreysOn(preyBird.Species) {
		chance += float32(cfg.Predation.PreyBonus) * 0.2
	}
	success := s.rng.Float32() < chance

	s.emit(telemetry.NewPredatorAttackEvent(s.tick, s.envr.Time, s.id(hunter), s.id(prey), success))

	// Survivors and witnesses panic either way.
	urgency := float32(1.0)
	s.applyAttackPanic(prey, pp, dx, dy)
	s.propagateAlert(prey, pp.X, pp.Y, urgency, cfg)

	if success {
		s.kill(prey)
		hunterNeeds := s.needsMap.Get(hunter)
		if hunterNeeds != nil {
			hunterNeeds.Hunger -= 0.6
			hunterNeeds.Clamp()
		}
	}
	s.exitToWandering(bb, activity)
}

// applyAttackPanic forces the attacked bird's fear to full and drops it
// into its species escape behavior.
func (s *Simulation) applyAttackPanic(prey ecs.Entity, preyPos *components.Position, attackDX, attackDY float32) {
	needs := s.needsMap.Get(prey)
	bb := s.bbMap.Get(prey)
	bird := s.birdMap.Get(prey)
	if needs == nil || bb == nil || bird == nil {
		return
	}
	needs.Fear = 1.0

	// Threat direction points from prey toward the attacker.
	bb.ThreatDirX, bb.ThreatDirY = norm(-attackDX, -attackDY)
	bb.ThreatSeen = s.envr.Time
	bb.ClearTarget()

	switch s.traits.Get(bird.Species).Escape {
	case species.EscapeFreeze:
		s.forceState(prey, components.StateResting)
	case species.EscapeMob:
		s.forceState(prey, components.StateTerritorial)
	case species.EscapeDive:
		s.forceState(prey, components.StateSheltering)
	default:
		s.forceState(prey, components.StateFleeing)
	}
}

// propagateAlert spreads fear from an attack site. Birds near the
// victim gain fear scaled by urgency and falloff; past the flee
// threshold they break into immediate flight.
func (s *Simulation) propagateAlert(origin ecs.Entity, x, y, urgency float32, cfg *config.Config) {
	originBird := s.birdMap.Get(origin)
	alertRange := float32(200)
	if originBird != nil {
		alertRange = s.traits.Get(originBird.Species).AlertRange
	}

	s.emit(telemetry.NewAlertCallEvent(s.tick, s.envr.Time, s.id(origin), urgency))

	s.neighborBuf = s.neighborBuf[:0]
	s.neighborBuf = s.birdGrid.QueryRadiusInto(s.neighborBuf, x, y, alertRange, origin, s.posMap)

	for _, nb := range s.neighborBuf {
		bird := s.birdMap.Get(nb.E)
		if bird == nil || s.traits.Get(bird.Species).Predator {
			continue
		}
		needs := s.needsMap.Get(nb.E)
		bb := s.bbMap.Get(nb.E)
		if needs == nil || bb == nil {
			continue
		}
		dist := sqrt32(nb.DistSq)
		needs.Fear += urgency * (1 - dist/alertRange) * float32(cfg.Predation.AlertFactor)
		needs.Clamp()

		if needs.Fear > float32(cfg.Predation.ForceFleeFear) {
			bb.ThreatDirX, bb.ThreatDirY = norm(-nb.DX, -nb.DY)
			bb.ThreatSeen = s.envr.Time
			bb.ClearTarget()
			s.forceState(nb.E, components.StateFleeing)
		}
	}
}

package sim

import (
	"sort"

	"github.com/mlange-42/ark/ecs"

	"github.com/fernwick/aviary/components"
	"github.com/fernwick/aviary/config"
	"github.com/fernwick/aviary/telemetry"
)

// contender is one bird competing for a feeding spot.
type contender struct {
	e    ecs.Entity
	rank float32
}

// runCompetition resolves crowding at feeders. Birds eating at or
// heading to the same feeder are ranked by aggression times size; the
// ones that don't fit its capacity are displaced back to Wandering
// with a territorial stress bump, and even fitting birds can be
// shouldered off by a crowd.
func (s *Simulation) runCompetition(cfg *config.Config) {
	radius := float32(cfg.Competition.Radius)

	oq := s.objectFilter.Query()
	for oq.Next() {
		feederPos, prov := oq.Get()
		if prov.Offer(components.ActEat) == nil {
			continue
		}
		feeder := oq.Entity()

		contenders := s.gatherContenders(feeder, feederPos, radius)
		if len(contenders) < 2 {
			continue
		}

		sort.Slice(contenders, func(i, j int) bool {
			if contenders[i].rank != contenders[j].rank {
				return contenders[i].rank > contenders[j].rank
			}
			return s.id(contenders[i].e) < s.id(contenders[j].e)
		})

		keep := prov.Capacity
		if keep <= 0 {
			keep = len(contenders) - 1 // unlimited capacity still displaces crowd losers probabilistically
		}
		if keep < 1 {
			keep = 1
		}

		winner := contenders[0].e
		for i := keep; i < len(contenders); i++ {
			loser := contenders[i].e
			// Over capacity the displacement is certain, otherwise a
			// crowd roll.
			if prov.Capacity > 0 && i >= prov.Capacity {
				s.displace(winner, loser, cfg)
			} else if s.rng.Float32() < float32(cfg.Competition.DisplaceChance) {
				s.displace(winner, loser, cfg)
			}
		}
	}
}

// gatherContenders collects birds eating at the feeder or moving to
// eat there, within the sharing radius.
func (s *Simulation) gatherContenders(feeder ecs.Entity, feederPos *components.Position, radius float32) []contender {
	var out []contender

	s.neighborBuf = s.neighborBuf[:0]
	s.neighborBuf = s.birdGrid.QueryRadiusInto(s.neighborBuf, feederPos.X, feederPos.Y, radius, ecs.Entity{}, s.posMap)

	for _, nb := range s.neighborBuf {
		bird := s.birdMap.Get(nb.E)
		activity := s.activityMap.Get(nb.E)
		bb := s.bbMap.Get(nb.E)
		if bird == nil || activity == nil || bb == nil {
			continue
		}
		targeting := bb.CurrentTarget.Entity == feeder
		eating := activity.State == components.StateEating && targeting
		approaching := activity.State == components.StateMovingToTarget &&
			targeting && bb.TargetAction == components.ActEat
		if !eating && !approaching {
			continue
		}
		tr := s.traits.Get(bird.Species)
		out = append(out, contender{
			e:    nb.E,
			rank: tr.TerritorialAggression * tr.SizeFactor,
		})
	}
	return out
}

// displace pushes a losing bird off the feeder.
func (s *Simulation) displace(winner, loser ecs.Entity, cfg *config.Config) {
	needs := s.needsMap.Get(loser)
	bb := s.bbMap.Get(loser)
	activity := s.activityMap.Get(loser)
	if needs == nil || bb == nil || activity == nil {
		return
	}
	needs.TerritorialStress += float32(cfg.Competition.StressBump)
	needs.Clamp()

	s.releaseOccupancy(bb)
	bb.ClearTarget()
	activity.State = components.StateWandering
	bb.StateTime = 0

	s.emit(telemetry.NewDisplacementEvent(s.tick, s.envr.Time, s.id(winner), s.id(loser)))
}

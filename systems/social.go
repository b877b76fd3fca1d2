package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/fernwick/aviary/components"
	"github.com/fernwick/aviary/env"
	"github.com/fernwick/aviary/species"
)

// NeighborBird is the raw view of one nearby bird handed to the social
// pass. The caller resolves components; the pass stays free of world
// access so it can be tested on plain data.
type NeighborBird struct {
	Entity  ecs.Entity
	X, Y    float32
	Dist    float32
	Species species.Species
	Traits  *species.Traits
	DomMod  float32
	RecMod  float32
}

// SocialSelf describes the bird running the pass.
type SocialSelf struct {
	Species species.Species
	Traits  *species.Traits
	DomMod  float32
	RecMod  float32
}

// SocialParams are the tunable gates for mate and rival detection.
type SocialParams struct {
	MateReceptivity     float32
	ChallengerDominance float32
	ChallengeRadius     float32
}

// Compatibility scores how well two birds get along in [0,1]. Same
// species counts most; similar tolerance helps; a clear dominance gap
// reduces friction compared to near-equals; strong flockers bond.
func Compatibility(a, b *species.Traits, sameSpecies bool) float32 {
	var c float32
	if sameSpecies {
		c += 0.3
	}
	tolDelta := a.SocialTolerance - b.SocialTolerance
	if tolDelta < 0 {
		tolDelta = -tolDelta
	}
	c += 0.2 * (1 - tolDelta)

	domDelta := a.Dominance - b.Dominance
	if domDelta < 0 {
		domDelta = -domDelta
	}
	if domDelta > 0.3 {
		c += 0.2
	} else {
		c += 0.1
	}

	c += 0.1 * (a.FlockTendency + b.FlockTendency)
	if c > 1 {
		c = 1
	}
	return c
}

// SocialPass rebuilds the blackboard's social view from the neighbor
// list and injects at most one Court, one Challenge and one Flock
// candidate. Neighbors must be supplied in a deterministic order.
func SocialPass(bb *components.Blackboard, self SocialSelf, neighbors []NeighborBird, n *components.Needs, e *env.Environment, p SocialParams) {
	bb.ResetSocial()

	selfReceptivity := clampf(self.Traits.MatingReceptivity+self.RecMod, 0, 1)
	breeding := e.IsBreedingSeason() && e.IsDaylight()

	bestMate, bestRival, bestFlock := -1, -1, -1

	for i := range neighbors {
		nb := &neighbors[i]
		same := nb.Species == self.Species
		info := components.SocialInfo{
			Entity:        nb.Entity,
			X:             nb.X,
			Y:             nb.Y,
			Dist:          nb.Dist,
			SameSpecies:   same,
			Compatibility: Compatibility(self.Traits, nb.Traits, same),
		}
		bb.Nearby = append(bb.Nearby, info)
		idx := len(bb.Nearby) - 1

		if same && breeding {
			nbReceptivity := clampf(nb.Traits.MatingReceptivity+nb.RecMod, 0, 1)
			if selfReceptivity > p.MateReceptivity && nbReceptivity > p.MateReceptivity {
				bb.Mates = append(bb.Mates, info)
				if bestMate < 0 || info.Compatibility > bb.Nearby[bestMate].Compatibility {
					bestMate = idx
				}
			}
		}

		if same && nb.Dist < p.ChallengeRadius && self.Traits.TerritorialAggression > 0.4 {
			nbDominance := clampf(nb.Traits.Dominance+nb.DomMod, 0, 1)
			if nbDominance > p.ChallengerDominance {
				bb.Challengers = append(bb.Challengers, info)
				if bestRival < 0 || info.Dist < bb.Nearby[bestRival].Dist {
					bestRival = idx
				}
			}
		}

		if info.Compatibility > 0.5 {
			if bestFlock < 0 || info.Compatibility > bb.Nearby[bestFlock].Compatibility {
				bestFlock = idx
			}
		}
	}

	if bestMate >= 0 {
		mate := &bb.Nearby[bestMate]
		score := (0.5 + 0.5*mate.Compatibility) * selfReceptivity *
			e.TimeMod(components.ActCourt, self.Traits.Nocturnal) *
			e.SeasonMod(components.ActCourt) *
			self.Traits.Pref("Court")
		if score > 0 {
			bb.Candidates = append(bb.Candidates, components.UtilityEntry{
				Action: components.ActCourt,
				Target: components.TargetRef{Entity: mate.Entity, X: mate.X, Y: mate.Y},
				Score:  score,
			})
		}
	}

	if bestRival >= 0 {
		rival := &bb.Nearby[bestRival]
		score := self.Traits.TerritorialAggression*0.6 + n.TerritorialStress*0.4
		bb.Candidates = append(bb.Candidates, components.UtilityEntry{
			Action: components.ActChallenge,
			Target: components.TargetRef{Entity: rival.Entity, X: rival.X, Y: rival.Y},
			Score:  score,
		})
	}

	if bestFlock >= 0 {
		buddy := &bb.Nearby[bestFlock]
		score := n.SocialNeed * self.Traits.FlockTendency * buddy.Compatibility *
			self.Traits.Pref("Flock")
		if score > 0 {
			bb.Candidates = append(bb.Candidates, components.UtilityEntry{
				Action: components.ActFlock,
				Target: components.TargetRef{Entity: buddy.Entity, X: buddy.X, Y: buddy.Y},
				Score:  score,
			})
		}
	}
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

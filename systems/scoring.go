package systems

import (
	"math"

	"github.com/fernwick/aviary/components"
	"github.com/fernwick/aviary/env"
	"github.com/fernwick/aviary/species"
)

// NeedWeight maps an action to the drive that motivates it. Actions
// without a dedicated drive get a flat baseline so they stay viable
// when nothing is urgent.
func NeedWeight(a components.ActionType, n *components.Needs) float32 {
	switch a {
	case components.ActEat, components.ActForage, components.ActHoverFeed, components.ActRetrieve:
		return n.Hunger
	case components.ActDrink:
		return n.Thirst
	case components.ActPerch, components.ActRoost, components.ActNest:
		return 1 - n.Energy
	case components.ActBathe:
		return 0.3 + 0.4*(1-n.Energy)
	case components.ActShelter:
		return 0.2 + 0.8*n.Fear
	case components.ActFlock, components.ActCourt, components.ActFollow:
		return n.SocialNeed
	case components.ActChallenge:
		return n.TerritorialStress
	case components.ActCache:
		// Caching is worthwhile when the bird is not hungry itself.
		return 1 - n.Hunger
	case components.ActPlay:
		return n.Energy
	}
	return 0.3
}

// Score computes the utility of one known object for one bird. Objects
// at or beyond their offer range score zero.
func Score(obj *components.KnownObject, dist float32, n *components.Needs, tr *species.Traits, e *env.Environment) float32 {
	if obj.Range <= 0 || dist >= obj.Range {
		return 0
	}
	falloff := 1 - dist/obj.Range
	pref := tr.Pref(obj.Action.String())
	if pref == 0 {
		return 0
	}
	// Floor the drive so a fully satisfied need still leaves a faint
	// candidate; the selector's rules decide whether it matters.
	drive := NeedWeight(obj.Action, n)
	if drive < 0.05 {
		drive = 0.05
	}
	return obj.BaseUtility *
		drive *
		falloff *
		pref *
		e.WeatherMod(obj.Action) *
		e.TimeMod(obj.Action, tr.Nocturnal) *
		e.SeasonMod(obj.Action)
}

// ScoreKnown rebuilds bb.Candidates from bb.Known, keeping the best
// target per action type. Ties keep the first entry encountered, so
// the result is deterministic for a given Known ordering.
func ScoreKnown(bb *components.Blackboard, x, y float32, n *components.Needs, tr *species.Traits, e *env.Environment) {
	bb.Candidates = bb.Candidates[:0]

	var best [components.NumActions]components.UtilityEntry
	var seen [components.NumActions]bool

	for i := range bb.Known {
		obj := &bb.Known[i]
		dx := obj.X - x
		dy := obj.Y - y
		dist := float32(math.Sqrt(float64(dx*dx + dy*dy)))

		s := Score(obj, dist, n, tr, e)
		if s <= 0 {
			continue
		}
		a := obj.Action
		if !seen[a] || s > best[a].Score {
			best[a] = components.UtilityEntry{
				Action: a,
				Target: components.TargetRef{Entity: obj.Entity, X: obj.X, Y: obj.Y},
				Score:  s,
			}
			seen[a] = true
		}
	}

	for a := 0; a < components.NumActions; a++ {
		if seen[a] {
			bb.Candidates = append(bb.Candidates, best[a])
		}
	}
}

// ScoreCaches adds a Retrieve candidate for the nearest remembered
// stash. Stash positions have no backing entity; execution treats them
// as plain locations.
func ScoreCaches(bb *components.Blackboard, store *components.CacheStore, x, y float32, n *components.Needs, tr *species.Traits, e *env.Environment) {
	if store == nil || len(store.Sites) == 0 {
		return
	}
	idx := store.Nearest(x, y)
	if idx < 0 {
		return
	}
	site := &store.Sites[idx]
	obj := components.KnownObject{
		X:           site.X,
		Y:           site.Y,
		Action:      components.ActRetrieve,
		BaseUtility: 0.6,
		Range:       600,
	}
	dx := site.X - x
	dy := site.Y - y
	dist := float32(math.Sqrt(float64(dx*dx + dy*dy)))
	s := Score(&obj, dist, n, tr, e)
	if s <= 0 {
		return
	}
	bb.Candidates = append(bb.Candidates, components.UtilityEntry{
		Action: components.ActRetrieve,
		Target: components.TargetRef{X: site.X, Y: site.Y},
		Score:  s,
	})
}

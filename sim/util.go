package sim

import (
	"fmt"
	"math"

	"github.com/fernwick/aviary/components"
)

// debugChecks enables per-tick invariant checks on every bird's needs.
// Off in normal runs; flip it on when chasing numeric drift.
var debugChecks = false

func debugAssertNeeds(n *components.Needs) {
	if !debugChecks {
		return
	}
	vals := [...]float32{n.Hunger, n.Thirst, n.Energy, n.Fear, n.SocialNeed, n.TerritorialStress}
	for _, v := range vals {
		if v != v || v < 0 || v > 1 {
			panic(fmt.Sprintf("needs out of range: %+v", *n))
		}
	}
}

func sqrt32(v float32) float32 {
	return float32(math.Sqrt(float64(v)))
}

// clampWorld keeps a position inside the world bounds.
func (s *Simulation) clampWorld(x, y float32) (float32, float32) {
	if x < 0 {
		x = 0
	} else if x > s.worldWidth {
		x = s.worldWidth
	}
	if y < 0 {
		y = 0
	} else if y > s.worldHeight {
		y = s.worldHeight
	}
	return x, y
}

// norm returns the unit vector of (dx, dy), or (0, 0) for a zero
// vector.
func norm(dx, dy float32) (float32, float32) {
	d := sqrt32(dx*dx + dy*dy)
	if d == 0 {
		return 0, 0
	}
	return dx / d, dy / d
}

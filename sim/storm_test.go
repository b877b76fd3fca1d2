package sim

import (
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/fernwick/aviary/components"
	"github.com/fernwick/aviary/config"
	"github.com/fernwick/aviary/env"
	"github.com/fernwick/aviary/species"
	"github.com/fernwick/aviary/telemetry"
)

func spawnCluster(s *Simulation, sp species.Species, n int, x, y float32) []ecs.Entity {
	out := make([]ecs.Entity, n)
	for i := range out {
		out[i] = spawnBirdAt(s, sp, x+float32(i*25), y)
	}
	return out
}

func TestStormFormsEmergencyFlock(t *testing.T) {
	s := newTestSim(t, 30)
	cfg := config.Cfg()
	dt := cfg.Derived.DT32

	shelter := s.spawnObject([]components.ActionOffer{
		{Action: components.ActShelter, BaseUtility: 0.9, Range: 350},
	}, 0, -1, true)
	sp := s.posMap.Get(shelter)
	sp.X, sp.Y = 900, 600

	flock := spawnCluster(s, species.Chickadee, 5, 700, 600)

	s.envr.Weather = env.Stormy
	s.envr.Severity = env.SeverityExtreme
	s.rebuildGrids()

	formed := false
	for i := 0; i < 100 && !formed; i++ {
		s.stormTimer = 0
		s.runStorms(cfg, dt)
		for _, b := range flock {
			if !s.bbMap.Get(b).FlockLeader.IsZero() {
				formed = true
			}
		}
	}
	if !formed {
		t.Fatal("an extreme storm should form a flock within 100 cycles at 90% odds")
	}

	members := 0
	for _, b := range flock {
		bb := s.bbMap.Get(b)
		if bb.FlockLeader.IsZero() {
			continue
		}
		members++
		if bb.CurrentTarget.Entity != shelter {
			t.Error("flock members share the nearest shelter target")
		}
		if bb.TargetAction != components.ActShelter {
			t.Errorf("member action = %s, want Shelter", bb.TargetAction)
		}
		if s.activityMap.Get(b).State != components.StateMovingToTarget {
			t.Errorf("member state = %s, want MovingToTarget", s.activityMap.Get(b).State)
		}
	}
	if members < cfg.Storm.MinFlock {
		t.Errorf("flock of %d below the viable minimum %d", members, cfg.Storm.MinFlock)
	}

	flockEvents := 0
	for _, ev := range s.events {
		if ev.Type == telemetry.EventEmergencyFlock {
			flockEvents++
		}
	}
	if flockEvents == 0 {
		t.Error("flock formation should emit an event")
	}

	// Members in transit hold their shelter run; the selector leaves
	// them alone until release.
	for _, b := range flock {
		bb := s.bbMap.Get(b)
		if bb.FlockLeader.IsZero() {
			continue
		}
		bb.DecisionTimer = 0
	}
	s.runThrottledPasses(cfg, dt)
	for _, b := range flock {
		bb := s.bbMap.Get(b)
		if bb.FlockLeader.IsZero() {
			continue
		}
		if s.activityMap.Get(b).State != components.StateMovingToTarget {
			t.Error("selector must not override an emergency flock member")
		}
	}

	// Storm passes: members still traveling are released to wander.
	s.envr.Weather = env.Clear
	s.envr.Severity = env.SeverityNone
	s.runStorms(cfg, dt)
	for _, b := range flock {
		bb := s.bbMap.Get(b)
		if !bb.FlockLeader.IsZero() {
			t.Error("release should clear flock assignments")
		}
		if st := s.activityMap.Get(b).State; st == components.StateMovingToTarget {
			t.Errorf("released member should stop its shelter run, state %s", st)
		}
	}
}

func TestStormNeedsMinimumFlock(t *testing.T) {
	s := newTestSim(t, 31)
	cfg := config.Cfg()
	dt := cfg.Derived.DT32

	s.spawnObject([]components.ActionOffer{
		{Action: components.ActShelter, BaseUtility: 0.9, Range: 350},
	}, 0, -1, true)

	// Two birds cannot form a flock when three are required.
	pair := spawnCluster(s, species.Chickadee, 2, 700, 600)

	s.envr.Weather = env.Stormy
	s.envr.Severity = env.SeverityExtreme
	s.rebuildGrids()

	for i := 0; i < 50; i++ {
		s.stormTimer = 0
		s.runStorms(cfg, dt)
	}
	for _, b := range pair {
		if !s.bbMap.Get(b).FlockLeader.IsZero() {
			t.Fatal("an undersized group must not form a flock")
		}
	}
}

func TestStormSkipsLoners(t *testing.T) {
	s := newTestSim(t, 32)
	cfg := config.Cfg()
	dt := cfg.Derived.DT32

	s.spawnObject([]components.ActionOffer{
		{Action: components.ActShelter, BaseUtility: 0.9, Range: 350},
	}, 0, -1, true)

	// Hummingbirds barely flock; a cluster of them never forms one.
	loners := spawnCluster(s, species.Hummingbird, 5, 700, 600)

	s.envr.Weather = env.Stormy
	s.envr.Severity = env.SeverityExtreme
	s.rebuildGrids()

	for i := 0; i < 50; i++ {
		s.stormTimer = 0
		s.runStorms(cfg, dt)
	}
	for _, b := range loners {
		if !s.bbMap.Get(b).FlockLeader.IsZero() {
			t.Fatal("weak flockers must not be drafted into storm flocks")
		}
	}
}

// Cover quality weighs into shelter choice: a sturdy shelter further
// out beats a flimsy one nearby, and the perception pass scales the
// shelter offer by its quality.
func TestShelterQualityWeighsChoice(t *testing.T) {
	s := newTestSim(t, 34)
	cfg := config.Cfg()

	flimsy := s.spawnObject([]components.ActionOffer{
		{Action: components.ActShelter, BaseUtility: 0.9, Range: 350},
	}, 0, -1, true)
	fp := s.posMap.Get(flimsy)
	fp.X, fp.Y = 700, 600
	s.shelterMap.Get(flimsy).Quality = 0.3

	sturdy := s.spawnObject([]components.ActionOffer{
		{Action: components.ActShelter, BaseUtility: 0.9, Range: 350},
	}, 0, -1, true)
	sp := s.posMap.Get(sturdy)
	sp.X, sp.Y = 900, 600
	s.shelterMap.Get(sturdy).Quality = 1.0

	target, ok := s.nearestShelter(600, 600)
	if !ok {
		t.Fatal("two shelters should yield a pick")
	}
	if target.Entity != sturdy {
		t.Error("the sturdy shelter should outweigh the nearer flimsy one")
	}

	// With equal quality, plain distance decides again.
	s.shelterMap.Get(sturdy).Quality = 0.3
	target, _ = s.nearestShelter(600, 600)
	if target.Entity != flimsy {
		t.Error("equal quality should fall back to the nearest shelter")
	}
	s.shelterMap.Get(sturdy).Quality = 1.0

	bird := spawnBirdAt(s, species.Chickadee, 650, 600)
	bb := s.bbMap.Get(bird)
	bb.SocialTimer = 1000
	bb.DecisionTimer = 1000
	s.rebuildGrids()
	s.runThrottledPasses(cfg, cfg.Derived.DT32)

	found := false
	for i := range bb.Known {
		obj := &bb.Known[i]
		if obj.Entity != flimsy || obj.Action != components.ActShelter {
			continue
		}
		found = true
		want := float32(0.9 * 0.3)
		if diff := obj.BaseUtility - want; diff > 1e-3 || diff < -1e-3 {
			t.Errorf("flimsy shelter offer = %v, want %v", obj.BaseUtility, want)
		}
	}
	if !found {
		t.Fatal("bird should perceive the nearby shelter")
	}
}

func TestCalmWeatherFormsNoFlocks(t *testing.T) {
	s := newTestSim(t, 33)
	cfg := config.Cfg()
	dt := cfg.Derived.DT32

	s.spawnObject([]components.ActionOffer{
		{Action: components.ActShelter, BaseUtility: 0.9, Range: 350},
	}, 0, -1, true)
	flock := spawnCluster(s, species.Starling, 6, 700, 600)
	s.rebuildGrids()

	for i := 0; i < 50; i++ {
		s.stormTimer = 0
		s.runStorms(cfg, dt)
	}
	for _, b := range flock {
		if !s.bbMap.Get(b).FlockLeader.IsZero() {
			t.Fatal("no flocks without a storm")
		}
	}
}

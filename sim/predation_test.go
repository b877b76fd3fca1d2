package sim

import (
	"testing"

	"github.com/fernwick/aviary/components"
	"github.com/fernwick/aviary/config"
	"github.com/fernwick/aviary/species"
	"github.com/fernwick/aviary/telemetry"
)

func TestHawkStartsHuntByDay(t *testing.T) {
	s := newTestSim(t, 10)
	cfg := config.Cfg()
	dt := cfg.Derived.DT32
	s.envr.Time = float64(s.envr.DayLength) / 2 // midday

	hawk := spawnBirdAt(s, species.CoopersHawk, 400, 400)
	prey := spawnBirdAt(s, species.HouseFinch, 500, 400)
	s.needsMap.Get(hawk).Hunger = 0.8

	s.rebuildGrids()
	s.runPredation(cfg, dt)

	if s.activityMap.Get(hawk).State != components.StateHunting {
		t.Fatalf("hungry daylight hawk should hunt, state %s", s.activityMap.Get(hawk).State)
	}
	if s.bbMap.Get(hawk).CurrentTarget.Entity != prey {
		t.Error("hawk should chase the finch")
	}
	if s.huntCooldown[s.id(hawk)] <= 0 {
		t.Error("starting a hunt must arm the cooldown")
	}
}

func TestDecisionPassKeepsHuntsAlive(t *testing.T) {
	s := newTestSim(t, 19)
	cfg := config.Cfg()
	dt := cfg.Derived.DT32
	s.envr.Time = float64(s.envr.DayLength) / 2

	hawk := spawnBirdAt(s, species.CoopersHawk, 400, 400)
	prey := spawnBirdAt(s, species.HouseFinch, 500, 400)
	s.needsMap.Get(hawk).Hunger = 0.8

	s.rebuildGrids()
	s.runPredation(cfg, dt)
	if s.activityMap.Get(hawk).State != components.StateHunting {
		t.Fatalf("hawk should be hunting, state %s", s.activityMap.Get(hawk).State)
	}

	// A due decision tick must not re-decide a mid-chase predator.
	bb := s.bbMap.Get(hawk)
	bb.DecisionTimer = 0
	s.runThrottledPasses(cfg, dt)

	if st := s.activityMap.Get(hawk).State; st != components.StateHunting {
		t.Errorf("decision pass ended the chase, state %s", st)
	}
	if s.bbMap.Get(hawk).CurrentTarget.Entity != prey {
		t.Error("chase target must survive the decision pass")
	}
}

func TestOwlWaitsForNight(t *testing.T) {
	s := newTestSim(t, 11)
	cfg := config.Cfg()
	dt := cfg.Derived.DT32

	owl := spawnBirdAt(s, species.GreatHornedOwl, 400, 400)
	spawnBirdAt(s, species.MourningDove, 480, 400)
	s.needsMap.Get(owl).Hunger = 0.9

	s.envr.Time = float64(s.envr.DayLength) / 2 // midday
	s.rebuildGrids()
	s.runPredation(cfg, dt)
	if s.activityMap.Get(owl).State == components.StateHunting {
		t.Fatal("owl must not hunt by day")
	}

	s.envr.Time = 0 // midnight
	s.runPredation(cfg, dt)
	if s.activityMap.Get(owl).State != components.StateHunting {
		t.Errorf("owl should hunt at night, state %s", s.activityMap.Get(owl).State)
	}
}

func TestSatedHawkIgnoresPrey(t *testing.T) {
	s := newTestSim(t, 12)
	cfg := config.Cfg()
	s.envr.Time = float64(s.envr.DayLength) / 2

	hawk := spawnBirdAt(s, species.CoopersHawk, 400, 400)
	spawnBirdAt(s, species.Sparrow, 460, 400)
	s.needsMap.Get(hawk).Hunger = 0.1

	s.rebuildGrids()
	s.runPredation(cfg, cfg.Derived.DT32)
	if s.activityMap.Get(hawk).State == components.StateHunting {
		t.Error("a sated hawk should not start a hunt")
	}
}

func TestPickPreyPrefersMenuSpecies(t *testing.T) {
	s := newTestSim(t, 13)
	cfg := config.Cfg()

	hawk := spawnBirdAt(s, species.CoopersHawk, 400, 400)
	// The dove is closer, but finches are on the hawk's menu and the
	// preference bonus outweighs the distance edge.
	spawnBirdAt(s, species.MourningDove, 430, 400)
	finch := spawnBirdAt(s, species.HouseFinch, 480, 400)

	s.rebuildGrids()
	pos := s.posMap.Get(hawk)
	tr := s.traits.Get(species.CoopersHawk)
	target, ok := s.pickPrey(hawk, pos, tr, float32(cfg.Predation.PreyBonus))
	if !ok {
		t.Fatal("prey in range should be found")
	}
	if target.Entity != finch {
		t.Errorf("preferred prey should win, got entity %v", target.Entity)
	}
}

func TestStrikePanicsVictimAndNeighbors(t *testing.T) {
	s := newTestSim(t, 14)
	cfg := config.Cfg()
	dt := cfg.Derived.DT32
	s.envr.Time = float64(s.envr.DayLength) / 2

	hawk := spawnBirdAt(s, species.CoopersHawk, 400, 400)
	prey := spawnBirdAt(s, species.HouseFinch, 420, 400)
	witness := spawnBirdAt(s, species.Sparrow, 470, 400)
	s.needsMap.Get(witness).Fear = 0.5

	hawkBB := s.bbMap.Get(hawk)
	hawkBB.CurrentTarget = components.TargetRef{Entity: prey, X: 420, Y: 400}
	s.activityMap.Get(hawk).State = components.StateHunting

	s.rebuildGrids()
	s.runPredation(cfg, dt)

	var sawAttack, sawAlert bool
	for _, ev := range s.events {
		switch ev.Type {
		case telemetry.EventPredatorAttack:
			sawAttack = true
		case telemetry.EventAlertCall:
			sawAlert = true
		}
	}
	if !sawAttack || !sawAlert {
		t.Fatalf("strike should emit attack and alert, got attack=%v alert=%v", sawAttack, sawAlert)
	}

	if f := s.needsMap.Get(prey).Fear; f != 1.0 {
		t.Errorf("victim fear should peg at 1, got %v", f)
	}
	if s.activityMap.Get(prey).State != components.StateFleeing {
		t.Errorf("finches scatter when struck, state %s", s.activityMap.Get(prey).State)
	}

	// The alert pushed the primed witness past the flee threshold.
	wf := s.needsMap.Get(witness).Fear
	if wf <= 0.5 {
		t.Errorf("witness fear should rise, got %v", wf)
	}
	if wf > float32(cfg.Predation.ForceFleeFear) &&
		s.activityMap.Get(witness).State != components.StateFleeing {
		t.Errorf("panicked witness should flee, state %s", s.activityMap.Get(witness).State)
	}

	if s.activityMap.Get(hawk).State != components.StateWandering {
		t.Errorf("hawk should reset after the strike, state %s", s.activityMap.Get(hawk).State)
	}
}

func TestEscapeStyles(t *testing.T) {
	s := newTestSim(t, 15)

	tests := []struct {
		sp   species.Species
		want components.BehaviorState
	}{
		{species.Cardinal, components.StateFleeing},       // scatter
		{species.MourningDove, components.StateResting},   // freeze
		{species.BlueJay, components.StateTerritorial},    // mob
		{species.Hummingbird, components.StateSheltering}, // dive
	}
	for _, tt := range tests {
		e := spawnBirdAt(s, tt.sp, 500, 500)
		pos := s.posMap.Get(e)
		s.applyAttackPanic(e, pos, 50, 0)

		if got := s.activityMap.Get(e).State; got != tt.want {
			t.Errorf("%s: escape state = %s, want %s", tt.sp, got, tt.want)
		}
		needs := s.needsMap.Get(e)
		if needs.Fear != 1.0 {
			t.Errorf("%s: fear should peg at 1, got %v", tt.sp, needs.Fear)
		}
		bb := s.bbMap.Get(e)
		if bb.ThreatDirX != -1 || bb.ThreatDirY != 0 {
			t.Errorf("%s: threat direction should point at the attacker, got (%v,%v)",
				tt.sp, bb.ThreatDirX, bb.ThreatDirY)
		}
	}
}

func TestAlertFalloffAndRange(t *testing.T) {
	s := newTestSim(t, 16)
	cfg := config.Cfg()

	victim := spawnBirdAt(s, species.Cardinal, 500, 500) // alert range 200
	near := spawnBirdAt(s, species.Sparrow, 550, 500)
	farther := spawnBirdAt(s, species.Sparrow, 650, 500)
	outside := spawnBirdAt(s, species.Sparrow, 900, 500)
	hawk := spawnBirdAt(s, species.CoopersHawk, 540, 500)

	s.rebuildGrids()
	s.propagateAlert(victim, 500, 500, 1.0, cfg)

	nearFear := s.needsMap.Get(near).Fear
	fartherFear := s.needsMap.Get(farther).Fear
	if nearFear <= fartherFear {
		t.Errorf("fear should fall off with distance: near %v, farther %v", nearFear, fartherFear)
	}
	if fartherFear <= 0 {
		t.Error("birds inside the alert range should gain fear")
	}
	if s.needsMap.Get(outside).Fear != 0 {
		t.Error("birds outside the alert range stay calm")
	}
	if s.needsMap.Get(hawk).Fear != 0 {
		t.Error("predators ignore alarm calls")
	}
}

func TestSuccessfulStrikeRemovesPrey(t *testing.T) {
	s := newTestSim(t, 17)
	cfg := config.Cfg()
	dt := cfg.Derived.DT32
	s.envr.Time = float64(s.envr.DayLength) / 2

	// Retry with the strike adjacent until the success roll lands.
	for attempt := 0; attempt < 50; attempt++ {
		hawk := spawnBirdAt(s, species.CoopersHawk, 400, 400)
		prey := spawnBirdAt(s, species.HouseFinch, 410, 400)
		s.bbMap.Get(hawk).CurrentTarget = components.TargetRef{Entity: prey, X: 410, Y: 400}
		s.activityMap.Get(hawk).State = components.StateHunting
		s.needsMap.Get(hawk).Hunger = 0.9

		s.rebuildGrids()
		s.runPredation(cfg, dt)
		s.cleanupDead()

		if !s.world.Alive(prey) {
			if h := s.needsMap.Get(hawk).Hunger; h >= 0.9 {
				t.Errorf("a kill should feed the hunter, hunger %v", h)
			}
			return
		}
		s.kill(prey)
		s.kill(hawk)
		s.cleanupDead()
	}
	t.Fatal("no strike succeeded in 50 attempts at 60% odds")
}

package systems

import (
	"testing"

	"github.com/fernwick/aviary/components"
	"github.com/fernwick/aviary/env"
	"github.com/fernwick/aviary/species"
)

func socialParams() SocialParams {
	return SocialParams{
		MateReceptivity:     0.3,
		ChallengerDominance: 0.6,
		ChallengeRadius:     150,
	}
}

func TestCompatibility(t *testing.T) {
	a := &species.Traits{SocialTolerance: 0.6, Dominance: 0.5, FlockTendency: 0.8}
	b := &species.Traits{SocialTolerance: 0.6, Dominance: 0.5, FlockTendency: 0.8}

	// Same species, equal tolerance, near-equal dominance, strong flockers:
	// 0.3 + 0.2 + 0.1 + 0.1*1.6 = 0.76
	got := Compatibility(a, b, true)
	if diff := got - 0.76; diff > 1e-5 || diff < -1e-5 {
		t.Errorf("Compatibility = %v, want 0.76", got)
	}

	// Different species drops the 0.3 bonus.
	if got := Compatibility(a, b, false); got >= 0.76 {
		t.Errorf("cross-species should score lower, got %v", got)
	}

	// A clear dominance gap scores the 0.2 term instead of 0.1.
	dom := &species.Traits{SocialTolerance: 0.6, Dominance: 0.9, FlockTendency: 0.8}
	gapped := Compatibility(a, dom, true)
	if gapped <= got {
		t.Errorf("clear dominance gap should ease friction: %v vs %v", gapped, got)
	}

	// Result is clamped to 1.
	max := &species.Traits{SocialTolerance: 0.5, Dominance: 0.9, FlockTendency: 1}
	maxB := &species.Traits{SocialTolerance: 0.5, Dominance: 0.1, FlockTendency: 1}
	if c := Compatibility(max, maxB, true); c > 1 {
		t.Errorf("compatibility must clamp at 1, got %v", c)
	}
}

func flocker() *species.Traits {
	return &species.Traits{
		SocialTolerance:   0.7,
		Dominance:         0.5,
		FlockTendency:     0.9,
		MatingReceptivity: 0.6,
		ActionPrefs:       map[string]float32{"Court": 1, "Flock": 1},
	}
}

func TestSocialPassMateGating(t *testing.T) {
	tr := flocker()
	self := SocialSelf{Species: species.Cardinal, Traits: tr}
	neighbors := []NeighborBird{{
		X: 50, Dist: 50, Species: species.Cardinal, Traits: tr,
	}}
	n := &components.Needs{SocialNeed: 0.6}

	day := middayEnv() // spring midday, breeding conditions hold
	bb := &components.Blackboard{}
	SocialPass(bb, self, neighbors, n, day, socialParams())
	if len(bb.Mates) != 1 {
		t.Fatalf("receptive same-species neighbor in season should be a mate, got %d", len(bb.Mates))
	}
	if c := bb.CandidateFor(components.ActCourt); c == nil || c.Target.X != 50 {
		t.Errorf("Court candidate should target the mate, got %+v", c)
	}

	// Same pair at night: no courting.
	night := env.New(600, 28, 1) // time 0 is night
	bb = &components.Blackboard{}
	SocialPass(bb, self, neighbors, n, night, socialParams())
	if len(bb.Mates) != 0 {
		t.Error("no mating outside daylight")
	}

	// Same pair in winter: out of season.
	winter := middayEnv()
	winter.Time += 600 * 21 // three quarters through the 28 day year
	bb = &components.Blackboard{}
	SocialPass(bb, self, neighbors, n, winter, socialParams())
	if len(bb.Mates) != 0 {
		t.Error("no mating outside breeding season")
	}

	// Unreceptive neighbor fails the gate even in season.
	cold := flocker()
	cold.MatingReceptivity = 0.1
	bb = &components.Blackboard{}
	SocialPass(bb, self, []NeighborBird{{X: 50, Dist: 50, Species: species.Cardinal, Traits: cold}}, n, day, socialParams())
	if len(bb.Mates) != 0 {
		t.Error("unreceptive neighbor should not be a mate")
	}

	// Cross-species neighbors never mate.
	bb = &components.Blackboard{}
	SocialPass(bb, self, []NeighborBird{{X: 50, Dist: 50, Species: species.BlueJay, Traits: tr}}, n, day, socialParams())
	if len(bb.Mates) != 0 {
		t.Error("cross-species neighbor should not be a mate")
	}
}

func TestSocialPassChallengerGating(t *testing.T) {
	aggressive := &species.Traits{
		TerritorialAggression: 0.7,
		SocialTolerance:       0.3,
		Dominance:             0.5,
	}
	dominant := &species.Traits{Dominance: 0.8, SocialTolerance: 0.3}
	meek := &species.Traits{Dominance: 0.3, SocialTolerance: 0.3}

	self := SocialSelf{Species: species.BlueJay, Traits: aggressive}
	n := &components.Needs{TerritorialStress: 0.5}
	e := middayEnv()
	p := socialParams()

	bb := &components.Blackboard{}
	SocialPass(bb, self, []NeighborBird{{X: 40, Dist: 40, Species: species.BlueJay, Traits: dominant}}, n, e, p)
	if len(bb.Challengers) != 1 {
		t.Fatal("dominant same-species rival inside the radius should register")
	}
	if bb.CandidateFor(components.ActChallenge) == nil {
		t.Error("rival should inject a Challenge candidate")
	}

	// Outside the radius: ignored.
	bb = &components.Blackboard{}
	SocialPass(bb, self, []NeighborBird{{X: 200, Dist: 200, Species: species.BlueJay, Traits: dominant}}, n, e, p)
	if len(bb.Challengers) != 0 {
		t.Error("rival outside the challenge radius should be ignored")
	}

	// Low-dominance neighbor is not worth challenging.
	bb = &components.Blackboard{}
	SocialPass(bb, self, []NeighborBird{{X: 40, Dist: 40, Species: species.BlueJay, Traits: meek}}, n, e, p)
	if len(bb.Challengers) != 0 {
		t.Error("meek neighbor should not register as a rival")
	}

	// A non-territorial bird never challenges.
	mild := SocialSelf{Species: species.BlueJay, Traits: &species.Traits{TerritorialAggression: 0.2, SocialTolerance: 0.3, Dominance: 0.5}}
	bb = &components.Blackboard{}
	SocialPass(bb, mild, []NeighborBird{{X: 40, Dist: 40, Species: species.BlueJay, Traits: dominant}}, n, e, p)
	if len(bb.Challengers) != 0 {
		t.Error("non-territorial bird should not pick fights")
	}
}

func TestSocialPassInjectsAtMostOneEach(t *testing.T) {
	tr := flocker()
	self := SocialSelf{Species: species.Cardinal, Traits: tr}
	n := &components.Needs{SocialNeed: 0.7, TerritorialStress: 0.4}
	e := middayEnv()

	neighbors := make([]NeighborBird, 6)
	for i := range neighbors {
		neighbors[i] = NeighborBird{
			X: float32(20 + i*10), Dist: float32(20 + i*10),
			Species: species.Cardinal, Traits: tr,
		}
	}
	bb := &components.Blackboard{}
	SocialPass(bb, self, neighbors, n, e, socialParams())

	if len(bb.Nearby) != 6 {
		t.Errorf("all neighbors should be recorded, got %d", len(bb.Nearby))
	}
	counts := map[components.ActionType]int{}
	for _, c := range bb.Candidates {
		counts[c.Action]++
	}
	for _, a := range []components.ActionType{components.ActCourt, components.ActChallenge, components.ActFlock} {
		if counts[a] > 1 {
			t.Errorf("at most one %s candidate, got %d", a, counts[a])
		}
	}
	if counts[components.ActFlock] != 1 {
		t.Error("compatible flockers should inject a Flock candidate")
	}
}

func TestSocialPassFlockNeedsCompatibility(t *testing.T) {
	loner := &species.Traits{SocialTolerance: 0.1, Dominance: 0.5, FlockTendency: 0.1}
	stranger := &species.Traits{SocialTolerance: 0.9, Dominance: 0.45, FlockTendency: 0.1}
	self := SocialSelf{Species: species.Cardinal, Traits: loner}
	n := &components.Needs{SocialNeed: 0.9}

	bb := &components.Blackboard{}
	SocialPass(bb, self, []NeighborBird{{X: 30, Dist: 30, Species: species.BlueJay, Traits: stranger}}, n, middayEnv(), socialParams())
	if bb.CandidateFor(components.ActFlock) != nil {
		t.Error("incompatible neighbor should not produce a Flock candidate")
	}
}

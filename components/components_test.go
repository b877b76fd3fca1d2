package components

import (
	"math"
	"testing"
)

func TestNeedsClamp(t *testing.T) {
	tests := []struct {
		name string
		in   Needs
		want Needs
	}{
		{
			name: "above one",
			in:   Needs{Hunger: 1.5, Thirst: 2, Energy: 1.01, Fear: 3, SocialNeed: 1.2, TerritorialStress: 9},
			want: Needs{Hunger: 1, Thirst: 1, Energy: 1, Fear: 1, SocialNeed: 1, TerritorialStress: 1},
		},
		{
			name: "below zero",
			in:   Needs{Hunger: -0.5, Thirst: -1, Energy: -0.01, Fear: -3, SocialNeed: -1, TerritorialStress: -0.2},
			want: Needs{},
		},
		{
			name: "in range untouched",
			in:   Needs{Hunger: 0.5, Thirst: 0.25, Energy: 1, Fear: 0, SocialNeed: 0.9, TerritorialStress: 0.1},
			want: Needs{Hunger: 0.5, Thirst: 0.25, Energy: 1, Fear: 0, SocialNeed: 0.9, TerritorialStress: 0.1},
		},
	}
	for _, tt := range tests {
		n := tt.in
		n.Clamp()
		if n != tt.want {
			t.Errorf("%s: got %+v, want %+v", tt.name, n, tt.want)
		}
	}
}

func TestNeedsClampNaN(t *testing.T) {
	n := Needs{Hunger: float32(math.NaN())}
	n.Clamp()
	if n.Hunger != 0 {
		t.Errorf("NaN hunger should clamp to 0, got %v", n.Hunger)
	}
}

func TestActionState(t *testing.T) {
	tests := []struct {
		action ActionType
		want   BehaviorState
	}{
		{ActEat, StateEating},
		{ActDrink, StateDrinking},
		{ActBathe, StateBathing},
		{ActPerch, StateResting},
		{ActRoost, StateRoosting},
		{ActPlay, StatePlaying},
		{ActExplore, StateExploring},
		{ActNest, StateNesting},
		{ActShelter, StateSheltering},
		{ActCourt, StateCourting},
		{ActFollow, StateFollowing},
		{ActChallenge, StateTerritorial},
		{ActFlock, StateFlocking},
		{ActForage, StateForaging},
		{ActCache, StateCaching},
		{ActRetrieve, StateRetrieving},
		{ActHoverFeed, StateHoverFeeding},
	}
	for _, tt := range tests {
		if got := tt.action.State(); got != tt.want {
			t.Errorf("%s.State() = %s, want %s", tt.action, got, tt.want)
		}
	}
}

func TestBlackboardBestCandidate(t *testing.T) {
	bb := Blackboard{}
	if bb.BestCandidate() != nil {
		t.Error("empty blackboard should have no best candidate")
	}

	bb.Candidates = []UtilityEntry{
		{Action: ActEat, Score: 0.5},
		{Action: ActDrink, Score: 0.8},
		{Action: ActBathe, Score: 0.8},
		{Action: ActPerch, Score: 0.2},
	}
	best := bb.BestCandidate()
	if best == nil || best.Action != ActDrink {
		t.Errorf("tie should keep the earlier entry, got %+v", best)
	}
}

func TestBlackboardCandidateFor(t *testing.T) {
	bb := Blackboard{Candidates: []UtilityEntry{
		{Action: ActEat, Score: 0.5},
		{Action: ActShelter, Score: 0.9},
	}}
	if c := bb.CandidateFor(ActShelter); c == nil || c.Score != 0.9 {
		t.Errorf("CandidateFor(Shelter) = %+v", c)
	}
	if c := bb.CandidateFor(ActCourt); c != nil {
		t.Errorf("CandidateFor(Court) should be nil, got %+v", c)
	}
}

func TestBlackboardResetKeepsCapacity(t *testing.T) {
	bb := Blackboard{
		Known:      make([]KnownObject, 5, 16),
		Candidates: make([]UtilityEntry, 3, 8),
	}
	bb.ResetPerception()
	if len(bb.Known) != 0 || len(bb.Candidates) != 0 {
		t.Error("reset should empty the slices")
	}
	if cap(bb.Known) != 16 || cap(bb.Candidates) != 8 {
		t.Error("reset should keep backing arrays")
	}
}

func TestCacheStoreEviction(t *testing.T) {
	c := CacheStore{}
	for i := 0; i < MaxCacheSites; i++ {
		c.Add(CacheSite{X: float32(i), Amount: 0.5})
	}
	// A smaller stash never evicts a larger one.
	c.Add(CacheSite{X: 100, Amount: 0.1})
	if len(c.Sites) != MaxCacheSites {
		t.Fatalf("store grew past cap: %d", len(c.Sites))
	}
	for _, s := range c.Sites {
		if s.Amount < 0.5 {
			t.Error("small stash should not replace a larger one")
		}
	}
	// A larger stash evicts the smallest.
	c.Add(CacheSite{X: 200, Amount: 0.9})
	found := false
	for _, s := range c.Sites {
		if s.X == 200 {
			found = true
		}
	}
	if !found {
		t.Error("large stash should evict a smaller one")
	}
}

func TestProviderConsume(t *testing.T) {
	p := UtilityProvider{Resource: 1.0}
	if got := p.Consume(0.4); got != 0.4 {
		t.Errorf("Consume(0.4) = %v", got)
	}
	if got := p.Consume(0.8); got != 0.6 {
		t.Errorf("partial supply should grant the remainder, got %v", got)
	}
	if !p.Depleted {
		t.Error("provider should be depleted")
	}

	inf := UtilityProvider{Resource: -1}
	if got := inf.Consume(5); got != 5 || inf.Depleted {
		t.Errorf("infinite supply should always grant, got %v depleted=%v", got, inf.Depleted)
	}
}

func TestProviderHasRoom(t *testing.T) {
	p := UtilityProvider{Capacity: 2, Occupants: 1}
	if !p.HasRoom() {
		t.Error("one slot left should have room")
	}
	p.Occupants = 2
	if p.HasRoom() {
		t.Error("full provider should not have room")
	}
	unlimited := UtilityProvider{Occupants: 99}
	if !unlimited.HasRoom() {
		t.Error("zero capacity means unlimited")
	}
}

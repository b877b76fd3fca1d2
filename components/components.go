// Package components defines the ECS components for birds and world
// objects. Components are plain data; all behavior lives in the systems
// package.
package components

import "github.com/fernwick/aviary/species"

// Position is a location in world units.
type Position struct {
	X, Y float32
}

// Velocity is movement in world units per second.
type Velocity struct {
	X, Y float32
}

// Bird tags an entity as a behaving agent and carries its identity.
type Bird struct {
	Species species.Species
	// Per-individual jitter applied on top of the species trait table.
	DominanceMod   float32
	ReceptivityMod float32
	// Seed decorrelates noise-driven motion between individuals.
	NoiseSeed float32
}

// BehaviorState is what a bird is doing right now. Exactly one is
// active per bird. Wandering is the initial state and the universal
// fallback every other state exits into.
type BehaviorState uint8

const (
	StateWandering BehaviorState = iota
	StateMovingToTarget
	StateEating
	StateDrinking
	StateBathing
	StateFleeing
	StateResting
	StatePlaying
	StateExploring
	StateNesting
	StateRoosting
	StateSheltering
	StateCourting
	StateFollowing
	StateTerritorial
	StateFlocking
	StateForaging
	StateCaching
	StateRetrieving
	StateHoverFeeding
	StateHunting

	NumStates = int(StateHunting) + 1
)

var stateNames = [NumStates]string{
	"Wandering", "MovingToTarget", "Eating", "Drinking", "Bathing",
	"Fleeing", "Resting", "Playing", "Exploring", "Nesting", "Roosting",
	"Sheltering", "Courting", "Following", "Territorial", "Flocking",
	"Foraging", "Caching", "Retrieving", "HoverFeeding", "Hunting",
}

func (s BehaviorState) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "Wandering"
}

// Activity is the bird's single active behavior state.
type Activity struct {
	State BehaviorState
}

// ActionType is something a bird can decide to do. Action types are
// what the scoring passes rank; states are what execution runs.
type ActionType uint8

const (
	ActEat ActionType = iota
	ActDrink
	ActBathe
	ActPerch
	ActPlay
	ActExplore
	ActNest
	ActRoost
	ActShelter
	ActCourt
	ActFollow
	ActChallenge
	ActFlock
	ActForage
	ActCache
	ActRetrieve
	ActHoverFeed

	NumActions = int(ActHoverFeed) + 1
)

var actionNames = [NumActions]string{
	"Eat", "Drink", "Bathe", "Perch", "Play", "Explore", "Nest", "Roost",
	"Shelter", "Court", "Follow", "Challenge", "Flock", "Forage", "Cache",
	"Retrieve", "HoverFeed",
}

func (a ActionType) String() string {
	if int(a) < len(actionNames) {
		return actionNames[a]
	}
	return "Explore"
}

// State returns the behavior state that carries out this action once
// the bird reaches its target.
func (a ActionType) State() BehaviorState {
	switch a {
	case ActEat:
		return StateEating
	case ActDrink:
		return StateDrinking
	case ActBathe:
		return StateBathing
	case ActPerch:
		return StateResting
	case ActRoost:
		return StateRoosting
	case ActPlay:
		return StatePlaying
	case ActExplore:
		return StateExploring
	case ActNest:
		return StateNesting
	case ActShelter:
		return StateSheltering
	case ActCourt:
		return StateCourting
	case ActFollow:
		return StateFollowing
	case ActChallenge:
		return StateTerritorial
	case ActFlock:
		return StateFlocking
	case ActForage:
		return StateForaging
	case ActCache:
		return StateCaching
	case ActRetrieve:
		return StateRetrieving
	case ActHoverFeed:
		return StateHoverFeeding
	}
	return StateWandering
}

// Needs are the internal drives in [0,1] that feed utility scores.
type Needs struct {
	Hunger            float32
	Thirst            float32
	Energy            float32
	Fear              float32
	SocialNeed        float32
	TerritorialStress float32
}

// Clamp forces every need back into [0,1].
func (n *Needs) Clamp() {
	n.Hunger = clamp01(n.Hunger)
	n.Thirst = clamp01(n.Thirst)
	n.Energy = clamp01(n.Energy)
	n.Fear = clamp01(n.Fear)
	n.SocialNeed = clamp01(n.SocialNeed)
	n.TerritorialStress = clamp01(n.TerritorialStress)
}

func clamp01(v float32) float32 {
	if v < 0 || v != v { // NaN guard
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

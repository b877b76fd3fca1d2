package components

import "github.com/mlange-42/ark/ecs"

// TargetRef is a resolved target: an entity handle plus the position it
// held when observed. Handles are generation checked, so a despawned
// target is detected by ecs.World.Alive and the ref is dropped rather
// than resolving to a recycled entity.
type TargetRef struct {
	Entity ecs.Entity
	X, Y   float32
}

// Zero reports whether the ref points at nothing.
func (t TargetRef) Zero() bool {
	return t.Entity.IsZero()
}

// KnownObject is a remembered world object.
type KnownObject struct {
	Entity      ecs.Entity
	X, Y        float32
	Action      ActionType
	BaseUtility float32
	Range       float32
}

// UtilityEntry is one scored candidate produced by the utility pass.
type UtilityEntry struct {
	Action ActionType
	Target TargetRef
	Score  float32
}

// SocialInfo is one nearby bird as seen by the social pass.
type SocialInfo struct {
	Entity        ecs.Entity
	X, Y          float32
	Dist          float32
	SameSpecies   bool
	Compatibility float32
}

// Blackboard is a bird's private memory: what it knows about the world,
// who is nearby, what its options scored, and what it decided. It is
// written by the perception and scoring passes and read by the selector.
type Blackboard struct {
	Known       []KnownObject
	Candidates  []UtilityEntry
	Nearby      []SocialInfo
	Mates       []SocialInfo
	Challengers []SocialInfo

	// Set by the selector, consumed by state execution.
	CurrentTarget TargetRef
	TargetAction  ActionType

	// Object whose occupancy counter this bird holds, zero when none.
	Occupying ecs.Entity

	// Threat memory written by the predator pipeline.
	ThreatDirX, ThreatDirY float32
	ThreatSeen             float64 // sim time of last sighting, <0 when none

	// Flock assignment during storms. Leader is zero outside a flock.
	FlockLeader  ecs.Entity
	FlockShelter TargetRef

	// Pass timers count down independently; a pass runs when its timer
	// expires and then rearms to its interval.
	UtilityTimer  float32
	SocialTimer   float32
	DecisionTimer float32

	// Time spent in the current state, and the roll for timed actions.
	StateTime      float32
	ActionDuration float32
}

// ResetPerception clears the rebuilt-every-pass slices while keeping
// their backing arrays for reuse.
func (b *Blackboard) ResetPerception() {
	b.Known = b.Known[:0]
	b.Candidates = b.Candidates[:0]
}

// ResetSocial clears the social pass output.
func (b *Blackboard) ResetSocial() {
	b.Nearby = b.Nearby[:0]
	b.Mates = b.Mates[:0]
	b.Challengers = b.Challengers[:0]
}

// ClearTarget drops the current target and its action.
func (b *Blackboard) ClearTarget() {
	b.CurrentTarget = TargetRef{}
	b.TargetAction = ActExplore
}

// BestCandidate returns the highest scoring candidate, or nil when the
// list is empty. Ties keep the earlier entry.
func (b *Blackboard) BestCandidate() *UtilityEntry {
	if len(b.Candidates) == 0 {
		return nil
	}
	best := &b.Candidates[0]
	for i := 1; i < len(b.Candidates); i++ {
		if b.Candidates[i].Score > best.Score {
			best = &b.Candidates[i]
		}
	}
	return best
}

// CandidateFor returns the candidate for a specific action, or nil.
func (b *Blackboard) CandidateFor(a ActionType) *UtilityEntry {
	for i := range b.Candidates {
		if b.Candidates[i].Action == a {
			return &b.Candidates[i]
		}
	}
	return nil
}

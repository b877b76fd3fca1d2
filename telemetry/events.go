// Package telemetry provides behavior tracking, windowed statistics and
// CSV output for the simulation.
package telemetry

// EventType identifies telemetry events.
type EventType uint8

const (
	EventPredatorAttack EventType = iota
	EventAlertCall
	EventEmergencyFlock
	EventObjectDepleted
	EventDisplacement
	EventPairFormed
	EventDeath
)

// Event represents a single telemetry event.
type Event struct {
	Type    EventType
	Tick    int64
	SimTime float64

	// Optional fields depending on event type
	EntityID uint32  // origin entity (predator, caller, leader)
	TargetID uint32  // target entity (prey, mate, object)
	Amount   float32 // urgency, depleted amount, flock size
	Success  bool    // attack outcome
}

// NewPredatorAttackEvent records a strike on a prey bird.
func NewPredatorAttackEvent(tick int64, simTime float64, predatorID, preyID uint32, success bool) Event {
	return Event{
		Type:     EventPredatorAttack,
		Tick:     tick,
		SimTime:  simTime,
		EntityID: predatorID,
		TargetID: preyID,
		Success:  success,
	}
}

// NewAlertCallEvent records a warning call and its urgency.
func NewAlertCallEvent(tick int64, simTime float64, originID uint32, urgency float32) Event {
	return Event{
		Type:     EventAlertCall,
		Tick:     tick,
		SimTime:  simTime,
		EntityID: originID,
		Amount:   urgency,
	}
}

// NewEmergencyFlockEvent records a storm flock forming around a leader.
func NewEmergencyFlockEvent(tick int64, simTime float64, leaderID uint32, size int) Event {
	return Event{
		Type:     EventEmergencyFlock,
		Tick:     tick,
		SimTime:  simTime,
		EntityID: leaderID,
		Amount:   float32(size),
	}
}

// NewObjectDepletedEvent records a world object running out of supply.
func NewObjectDepletedEvent(tick int64, simTime float64, objectID uint32, amount float32) Event {
	return Event{
		Type:     EventObjectDepleted,
		Tick:     tick,
		SimTime:  simTime,
		EntityID: objectID,
		Amount:   amount,
	}
}

// NewDisplacementEvent records a bird pushed off a feeder by a dominant
// rival.
func NewDisplacementEvent(tick int64, simTime float64, winnerID, loserID uint32) Event {
	return Event{
		Type:     EventDisplacement,
		Tick:     tick,
		SimTime:  simTime,
		EntityID: winnerID,
		TargetID: loserID,
	}
}

// NewPairFormedEvent records a successful courtship.
func NewPairFormedEvent(tick int64, simTime float64, birdID, mateID uint32) Event {
	return Event{
		Type:     EventPairFormed,
		Tick:     tick,
		SimTime:  simTime,
		EntityID: birdID,
		TargetID: mateID,
	}
}

// NewDeathEvent records a bird removed from the world.
func NewDeathEvent(tick int64, simTime float64, birdID uint32) Event {
	return Event{
		Type:     EventDeath,
		Tick:     tick,
		SimTime:  simTime,
		EntityID: birdID,
	}
}

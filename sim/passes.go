package sim

import (
	"runtime"
	"sync"

	"github.com/mlange-42/ark/ecs"

	"github.com/fernwick/aviary/components"
	"github.com/fernwick/aviary/config"
	"github.com/fernwick/aviary/species"
	"github.com/fernwick/aviary/systems"
)

// parallelThreshold is the minimum bird count to use parallel
// processing. Below this, single-threaded is faster due to goroutine
// overhead.
const parallelThreshold = 64

// passSnapshot captures one bird whose throttled passes are due this
// tick. The blackboard pointer is exclusively owned by this bird, so a
// worker may write it while only reading everything else.
type passSnapshot struct {
	Entity ecs.Entity
	Pos    components.Position
	Bird   components.Bird
	Needs  components.Needs

	BB    *components.Blackboard
	Cache *components.CacheStore

	State components.BehaviorState

	RunUtility  bool
	RunSocial   bool
	RunDecision bool

	// Decision output, applied serially afterwards.
	Decided  bool
	Decision systems.Decision
}

// passParams is the per-tick read-only context shared by all workers.
type passParams struct {
	EnvSnap          systems.EnvSnapshot
	Thresholds       systems.Thresholds
	Social           systems.SocialParams
	SocialRadius     float32
	PerceptionRadius float32
}

// workerScratch holds per-worker reusable buffers.
type workerScratch struct {
	Neighbors []systems.Neighbor
	Birds     []systems.NeighborBird
}

// workChunk is a range of snapshots for one worker.
type workChunk struct {
	start, end int
}

// parallelState holds resources for parallel pass computation.
type parallelState struct {
	snapshots  []passSnapshot
	scratches  []workerScratch
	params     passParams
	numWorkers int

	workChan chan workChunk
	doneChan chan struct{}
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
}

func newParallelState() *parallelState {
	numWorkers := runtime.GOMAXPROCS(0)
	scratches := make([]workerScratch, numWorkers)
	for i := range scratches {
		scratches[i].Neighbors = make([]systems.Neighbor, 0, 64)
		scratches[i].Birds = make([]systems.NeighborBird, 0, 64)
	}
	return &parallelState{
		numWorkers: numWorkers,
		scratches:  scratches,
		snapshots:  make([]passSnapshot, 0, 512),
	}
}

// startWorkers launches persistent worker goroutines.
func (p *parallelState) startWorkers(s *Simulation) {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(s, i)
	}
}

// stopWorkers signals all workers to exit and waits for them.
func (p *parallelState) stopWorkers() {
	if !p.running {
		return
	}
	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

func (p *parallelState) worker(s *Simulation, workerID int) {
	defer p.wg.Done()
	scratch := &p.scratches[workerID]

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			s.computeChunk(chunk.start, chunk.end, scratch)
			p.doneChan <- struct{}{}
		}
	}
}

// runThrottledPasses advances the per-bird pass timers and runs the
// utility, social and decision passes for every bird whose timer
// expired. Passes write only the bird's own blackboard, so independent
// birds compute in parallel; decisions are applied serially afterwards.
func (s *Simulation) runThrottledPasses(cfg *config.Config, dt float32) {
	p := s.parallel
	p.params = passParams{
		EnvSnap: systems.EnvSnapshot{
			Hour:           s.envr.Hour(),
			WeatherFear:    s.envr.FearFactor(),
			ShelterUrgency: s.envr.Severity.Urgency(),
		},
		Thresholds: systems.ThresholdsFrom(&cfg.Behavior),
		Social: systems.SocialParams{
			MateReceptivity:     float32(cfg.Behavior.MateReceptivity),
			ChallengerDominance: float32(cfg.Behavior.ChallengerDominance),
			ChallengeRadius:     float32(cfg.Behavior.ChallengeRadius),
		},
		SocialRadius:     float32(cfg.Behavior.SocialRadius),
		PerceptionRadius: float32(cfg.Behavior.PerceptionRadius),
	}

	// Phase A: advance timers, snapshot birds with work due.
	p.snapshots = p.snapshots[:0]
	query := s.birdFilter.Query()
	for query.Next() {
		pos, _, bird, needs, bb, activity, cache := query.Get()

		bb.UtilityTimer -= dt
		bb.SocialTimer -= dt
		bb.DecisionTimer -= dt

		snap := passSnapshot{
			Entity: query.Entity(),
			Pos:    *pos,
			Bird:   *bird,
			Needs:  *needs,
			BB:     bb,
			Cache:  cache,
			State:  activity.State,
		}
		if bb.UtilityTimer <= 0 {
			bb.UtilityTimer += float32(cfg.Behavior.UtilityInterval)
			snap.RunUtility = true
		}
		if bb.SocialTimer <= 0 {
			bb.SocialTimer += float32(cfg.Behavior.SocialInterval)
			snap.RunSocial = true
		}
		if bb.DecisionTimer <= 0 {
			bb.DecisionTimer += float32(cfg.Behavior.DecisionInterval)
			// Emergency flock members keep their assigned shelter
			// run until the storm releases them, and a hunting
			// predator keeps its chase: the selector knows nothing
			// about hunts, the predation pipeline ends them.
			if bb.FlockLeader.IsZero() && activity.State != components.StateHunting {
				snap.RunDecision = true
			}
		}
		if snap.RunUtility || snap.RunSocial || snap.RunDecision {
			p.snapshots = append(p.snapshots, snap)
		}
	}

	n := len(p.snapshots)
	if n == 0 {
		return
	}

	// Phase B: compute, single-threaded or parallel by count.
	if n < parallelThreshold {
		s.computeChunk(0, n, &p.scratches[0])
	} else {
		s.computeParallel(n)
	}

	// Phase C: apply decisions serially, preserving determinism.
	for i := range p.snapshots {
		snap := &p.snapshots[i]
		if snap.Decided {
			s.applyDecision(snap)
		}
	}
}

// computeParallel dispatches chunks to the worker pool.
func (s *Simulation) computeParallel(n int) {
	p := s.parallel
	p.startWorkers(s)

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers
	chunks := 0
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}
		p.workChan <- workChunk{start: start, end: end}
		chunks++
	}
	for i := 0; i < chunks; i++ {
		<-p.doneChan
	}
}

// computeChunk runs the due passes for a range of snapshots.
func (s *Simulation) computeChunk(start, end int, scratch *workerScratch) {
	p := s.parallel
	for i := start; i < end; i++ {
		snap := &p.snapshots[i]
		tr := s.traits.Get(snap.Bird.Species)

		if snap.RunUtility {
			s.utilityPass(snap, tr, scratch)
		}
		if snap.RunSocial {
			s.socialPass(snap, tr, scratch)
		}
		if snap.RunDecision {
			snap.Decision = systems.Select(snap.BB, &snap.Needs, p.params.EnvSnap, p.params.Thresholds)
			snap.Decided = true
		}
	}
}

// utilityPass rebuilds the bird's world knowledge from nearby objects
// and scores them. Full or depleted objects are not remembered as
// candidates.
func (s *Simulation) utilityPass(snap *passSnapshot, tr *species.Traits, scratch *workerScratch) {
	bb := snap.BB
	bb.ResetPerception()

	scratch.Neighbors = scratch.Neighbors[:0]
	scratch.Neighbors = s.objectGrid.QueryRadiusInto(
		scratch.Neighbors, snap.Pos.X, snap.Pos.Y,
		s.parallel.params.PerceptionRadius, snap.Entity, s.posMap)

	for _, nb := range scratch.Neighbors {
		prov := s.providerMap.Get(nb.E)
		if prov == nil {
			continue
		}
		if prov.Depleted || !prov.HasRoom() {
			continue
		}
		for j := range prov.Offers {
			offer := &prov.Offers[j]
			base := offer.BaseUtility
			if offer.Action == components.ActShelter {
				if sh := s.shelterMap.Get(nb.E); sh != nil {
					base *= sh.Quality
				}
			}
			bb.Known = append(bb.Known, components.KnownObject{
				Entity:      nb.E,
				X:           snap.Pos.X + nb.DX,
				Y:           snap.Pos.Y + nb.DY,
				Action:      offer.Action,
				BaseUtility: base,
				Range:       offer.Range,
			})
		}
	}

	systems.ScoreKnown(bb, snap.Pos.X, snap.Pos.Y, &snap.Needs, tr, s.envr)
	systems.ScoreCaches(bb, snap.Cache, snap.Pos.X, snap.Pos.Y, &snap.Needs, tr, s.envr)
}

// socialPass rebuilds the bird's view of its neighbors and injects
// social candidates. It reads other birds' public components and
// writes only its own blackboard.
func (s *Simulation) socialPass(snap *passSnapshot, tr *species.Traits, scratch *workerScratch) {
	scratch.Neighbors = scratch.Neighbors[:0]
	scratch.Neighbors = s.birdGrid.QueryRadiusInto(
		scratch.Neighbors, snap.Pos.X, snap.Pos.Y,
		s.parallel.params.SocialRadius, snap.Entity, s.posMap)

	scratch.Birds = scratch.Birds[:0]
	for _, nb := range scratch.Neighbors {
		other := s.birdMap.Get(nb.E)
		if other == nil {
			continue
		}
		scratch.Birds = append(scratch.Birds, systems.NeighborBird{
			Entity:  nb.E,
			X:       snap.Pos.X + nb.DX,
			Y:       snap.Pos.Y + nb.DY,
			Dist:    sqrt32(nb.DistSq),
			Species: other.Species,
			Traits:  s.traits.Get(other.Species),
			DomMod:  other.DominanceMod,
			RecMod:  other.ReceptivityMod,
		})
	}

	systems.SocialPass(snap.BB, systems.SocialSelf{
		Species: snap.Bird.Species,
		Traits:  tr,
		DomMod:  snap.Bird.DominanceMod,
		RecMod:  snap.Bird.ReceptivityMod,
	}, scratch.Birds, &snap.Needs, s.envr, s.parallel.params.Social)
}

// applyDecision commits a selector decision to the bird's live
// components.
func (s *Simulation) applyDecision(snap *passSnapshot) {
	activity := s.activityMap.Get(snap.Entity)
	bb := snap.BB
	if activity == nil {
		return
	}

	d := snap.Decision
	if d.State == components.StateMovingToTarget {
		// A bird already executing the decided action at the decided
		// target keeps going instead of re-approaching.
		if activity.State == d.Action.State() &&
			bb.CurrentTarget.Entity == d.Target.Entity &&
			!d.Target.Entity.IsZero() {
			return
		}
		s.releaseOccupancy(bb)
		bb.CurrentTarget = d.Target
		bb.TargetAction = d.Action
	} else {
		s.releaseOccupancy(bb)
		bb.ClearTarget()
	}
	if activity.State != d.State {
		activity.State = d.State
		bb.StateTime = 0
	}
}

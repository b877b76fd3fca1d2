package sim

import (
	"log/slog"

	"github.com/fernwick/aviary/components"
	"github.com/fernwick/aviary/config"
	"github.com/fernwick/aviary/env"
	"github.com/fernwick/aviary/species"
)

// migrantSpecies lists who drifts into the sanctuary each season.
func migrantSpecies(s env.Season) []species.Species {
	switch s {
	case env.Spring:
		return []species.Species{species.Hummingbird, species.Goldfinch, species.Robin}
	case env.Summer:
		return []species.Species{species.Hummingbird, species.HouseFinch, species.Starling}
	case env.Autumn:
		return []species.Species{species.BlueJay, species.Sparrow, species.MourningDove}
	default:
		return []species.Species{species.Chickadee, species.Cardinal}
	}
}

// runEcology spawns short-lived food pop-ups and removes expired ones.
// Warm daylight brings insect emergences; autumn ripens fruit. Birds
// at an expired object notice through the liveness check on their
// target and fall back to wandering.
func (s *Simulation) runEcology(cfg *config.Config, dt float32) {
	s.expiredBuf = s.expiredBuf[:0]
	query := s.objectFilter.Query()
	for query.Next() {
		_, prov := query.Get()
		if prov.Expires > 0 && s.envr.Time >= prov.Expires {
			s.expiredBuf = append(s.expiredBuf, query.Entity())
		}
	}
	for _, e := range s.expiredBuf {
		delete(s.ids, e)
		s.world.RemoveEntity(e)
	}

	s.runMigration(cfg, dt)

	rate := float32(cfg.Objects.EphemeralRate)
	if rate <= 0 || s.rng.Float32() >= rate*dt {
		return
	}

	switch {
	case s.envr.Season() == env.Summer && s.envr.IsDaylight():
		e := s.spawnObject([]components.ActionOffer{
			{Action: components.ActForage, BaseUtility: 0.7, Range: 250},
		}, 0, 0.5, false)
		s.providerMap.Get(e).Expires = s.envr.Time + float64(60+s.rng.Float32()*120)
		slog.Debug("insect emergence", "tick", s.tick)
	case s.envr.Season() == env.Autumn:
		e := s.spawnObject([]components.ActionOffer{
			{Action: components.ActEat, BaseUtility: 0.6, Range: 250},
		}, 0, 0.8, false)
		s.providerMap.Get(e).Expires = s.envr.Time + float64(120+s.rng.Float32()*120)
		slog.Debug("fruit ripened", "tick", s.tick)
	}
}

// runMigration lets seasonal migrants arrive while the population is
// under the cap, and sheds the excess when a reload lowered it.
func (s *Simulation) runMigration(cfg *config.Config, dt float32) {
	count := 0
	query := s.birdFilter.Query()
	for query.Next() {
		count++
		if count > cfg.Population.MaxBirds {
			s.kill(query.Entity())
		}
	}

	rate := float32(cfg.Population.MigrationRate)
	if rate <= 0 || count >= cfg.Population.MaxBirds {
		return
	}
	if s.rng.Float32() >= rate*dt {
		return
	}
	pool := migrantSpecies(s.envr.Season())
	sp := pool[s.rng.Intn(len(pool))]
	e := s.spawnBird(sp)
	slog.Debug("migrant arrived", "species", sp.String(), "id", s.id(e))
}

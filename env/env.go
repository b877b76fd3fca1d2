// Package env models the shared world state every bird perceives: the
// clock, season, weather and storm intensity. It is a plain resource
// updated once per tick before any behavior pass runs.
package env

import (
	"math"
	"math/rand"

	"github.com/fernwick/aviary/components"
)

// Weather is the current sky condition.
type Weather uint8

const (
	Clear Weather = iota
	Cloudy
	Rainy
	Stormy
	Snowy
)

var weatherNames = [...]string{"Clear", "Cloudy", "Rainy", "Stormy", "Snowy"}

func (w Weather) String() string {
	if int(w) < len(weatherNames) {
		return weatherNames[w]
	}
	return "Clear"
}

// StormSeverity grades an active storm. SeverityNone means no storm.
type StormSeverity uint8

const (
	SeverityNone StormSeverity = iota
	SeverityLight
	SeverityModerate
	SeveritySevere
	SeverityExtreme
)

var severityNames = [...]string{"None", "Light", "Moderate", "Severe", "Extreme"}

func (s StormSeverity) String() string {
	if int(s) < len(severityNames) {
		return severityNames[s]
	}
	return "None"
}

// Urgency grades the storm on a [0,1] scale for the selector's shelter
// rules.
func (s StormSeverity) Urgency() float32 {
	switch s {
	case SeverityLight:
		return 0.25
	case SeverityModerate:
		return 0.5
	case SeveritySevere:
		return 0.7
	case SeverityExtreme:
		return 0.9
	}
	return 0
}

// ShelterUrgency is the multiplier a storm applies to shelter seeking.
func (s StormSeverity) ShelterUrgency() float32 {
	switch s {
	case SeverityLight:
		return 1.5
	case SeverityModerate:
		return 2.0
	case SeveritySevere, SeverityExtreme:
		return 3.0
	}
	return 1.0
}

// FlockChance is the per-cycle probability that an eligible group forms
// an emergency flock under this storm.
func (s StormSeverity) FlockChance() float32 {
	switch s {
	case SeverityLight:
		return 0.1
	case SeverityModerate:
		return 0.3
	case SeveritySevere:
		return 0.7
	case SeverityExtreme:
		return 0.9
	}
	return 0
}

// Season of the simulated year.
type Season uint8

const (
	Spring Season = iota
	Summer
	Autumn
	Winter
)

var seasonNames = [...]string{"Spring", "Summer", "Autumn", "Winter"}

func (s Season) String() string {
	if int(s) < len(seasonNames) {
		return seasonNames[s]
	}
	return "Spring"
}

// TimePeriod buckets the day into behaviorally distinct phases.
type TimePeriod uint8

const (
	Dawn TimePeriod = iota
	Day
	Dusk
	Night
)

var periodNames = [...]string{"Dawn", "Day", "Dusk", "Night"}

func (p TimePeriod) String() string {
	if int(p) < len(periodNames) {
		return periodNames[p]
	}
	return "Day"
}

// Environment is the shared world state resource.
type Environment struct {
	Time      float64 // sim seconds since start
	DayLength float32 // seconds per simulated day
	YearDays  int     // simulated days per year

	Weather  Weather
	Severity StormSeverity
	// Storms ramp up and down instead of switching instantly.
	stormTimer   float32
	weatherTimer float32

	Wind float32 // 0-1
	// WindDir is the unit vector the wind pushes toward, re-rolled
	// with each weather change.
	WindDirX float32
	WindDirY float32

	Temperature float32 // degrees C

	rng *rand.Rand
}

// New creates an environment starting at dawn of a spring day.
func New(dayLength float32, yearDays int, seed int64) *Environment {
	if dayLength <= 0 {
		dayLength = 600
	}
	if yearDays <= 0 {
		yearDays = 28
	}
	return &Environment{
		DayLength:    dayLength,
		YearDays:     yearDays,
		Temperature:  15,
		WindDirX:     1,
		weatherTimer: 30,
		rng:          rand.New(rand.NewSource(seed)),
	}
}

// DayFraction is the position within the current day in [0,1).
func (e *Environment) DayFraction() float32 {
	d := float32(e.Time) / e.DayLength
	return d - float32(int(d))
}

// Period returns the current time period. Dawn and dusk each take a
// tenth of the day.
func (e *Environment) Period() TimePeriod {
	f := e.DayFraction()
	switch {
	case f < 0.05 || f >= 0.95:
		return Night
	case f < 0.15:
		return Dawn
	case f < 0.80:
		return Day
	case f < 0.90:
		return Dusk
	default:
		return Night
	}
}

// IsDaylight reports whether the sun is up, dawn and dusk included.
func (e *Environment) IsDaylight() bool {
	return e.Period() != Night
}

// Season returns the current season of the simulated year.
func (e *Environment) Season() Season {
	day := int(float32(e.Time)/e.DayLength) % e.YearDays
	q := e.YearDays / 4
	if q == 0 {
		q = 1
	}
	s := day / q
	if s > 3 {
		s = 3
	}
	return Season(s)
}

// IsBreedingSeason reports whether courting and nesting are in season.
func (e *Environment) IsBreedingSeason() bool {
	s := e.Season()
	return s == Spring || s == Summer
}

// Storming reports whether any storm is active.
func (e *Environment) Storming() bool {
	return e.Severity != SeverityNone
}

// Update advances time and evolves weather. Call once per tick.
func (e *Environment) Update(dt float32) {
	e.Time += float64(dt)
	e.weatherTimer -= dt
	if e.weatherTimer <= 0 {
		e.rollWeather()
	}
	if e.Severity != SeverityNone {
		e.stormTimer -= dt
		if e.stormTimer <= 0 {
			e.decayStorm()
		}
	}
	e.updateTemperature(dt)
}

func (e *Environment) rollWeather() {
	e.weatherTimer = 20 + e.rng.Float32()*60
	r := e.rng.Float32()
	winter := e.Season() == Winter
	switch {
	case r < 0.45:
		e.Weather = Clear
		e.endStorm()
	case r < 0.70:
		e.Weather = Cloudy
		e.endStorm()
	case r < 0.88:
		if winter {
			e.Weather = Snowy
		} else {
			e.Weather = Rainy
		}
		e.endStorm()
	default:
		e.Weather = Stormy
		e.escalateStorm()
	}
	e.Wind = e.rng.Float32()
	if e.Weather == Stormy {
		e.Wind = 0.5 + e.rng.Float32()*0.5
	}
	angle := e.rng.Float64() * 2 * math.Pi
	e.WindDirX = float32(math.Cos(angle))
	e.WindDirY = float32(math.Sin(angle))
}

func (e *Environment) escalateStorm() {
	if e.Severity < SeverityExtreme {
		e.Severity++
	}
	e.stormTimer = 30 + e.rng.Float32()*60
}

func (e *Environment) decayStorm() {
	if e.Severity > SeverityNone {
		e.Severity--
	}
	if e.Severity == SeverityNone {
		if e.Weather == Stormy {
			e.Weather = Cloudy
		}
	} else {
		e.stormTimer = 20 + e.rng.Float32()*40
	}
}

func (e *Environment) endStorm() {
	e.Severity = SeverityNone
	e.stormTimer = 0
}

func (e *Environment) updateTemperature(dt float32) {
	var base float32
	switch e.Season() {
	case Spring:
		base = 14
	case Summer:
		base = 26
	case Autumn:
		base = 10
	case Winter:
		base = -4
	}
	if !e.IsDaylight() {
		base -= 6
	}
	// Relax toward the seasonal baseline.
	e.Temperature += (base - e.Temperature) * 0.02 * dt
}

// WeatherMod returns the weather multiplier for an action's utility.
// Storms make shelter urgent and suppress grooming and idle exploring.
func (e *Environment) WeatherMod(a components.ActionType) float32 {
	bad := e.Weather == Rainy || e.Weather == Stormy || e.Weather == Snowy
	switch a {
	case components.ActShelter:
		if e.Weather == Stormy {
			return 1.33 * e.Severity.ShelterUrgency()
		}
		if bad {
			return 1.5
		}
		return 1.0
	case components.ActBathe, components.ActExplore:
		if bad {
			return 0.2
		}
	case components.ActEat, components.ActForage, components.ActHoverFeed:
		if e.Weather == Snowy {
			return 1.3
		}
		if e.Weather == Stormy {
			return 0.5
		}
	case components.ActCourt, components.ActNest:
		if bad {
			return 0.3
		}
	}
	return 1.0
}

// TimeMod returns the time-of-day multiplier for an action's utility.
// Nocturnal species run on an inverted clock.
func (e *Environment) TimeMod(a components.ActionType, nocturnal bool) float32 {
	p := e.Period()
	active := p != Night
	if nocturnal {
		active = p == Night || p == Dusk
	}
	switch a {
	case components.ActRoost, components.ActPerch:
		if !active {
			return 2.0
		}
		return 1.0
	case components.ActEat, components.ActForage, components.ActHoverFeed:
		if !active {
			return 0.3
		}
		if p == Dawn || p == Dusk {
			return 1.3
		}
	case components.ActCourt, components.ActNest:
		if !active {
			return 0.1
		}
	case components.ActExplore, components.ActBathe, components.ActPlay:
		if !active {
			return 0.3
		}
	}
	return 1.0
}

// SeasonMod returns the seasonal multiplier for an action's utility.
func (e *Environment) SeasonMod(a components.ActionType) float32 {
	switch e.Season() {
	case Spring:
		if a == components.ActCourt || a == components.ActNest {
			return 1.5
		}
	case Autumn:
		if a == components.ActCache {
			return 1.8
		}
	case Winter:
		switch a {
		case components.ActEat, components.ActForage, components.ActRetrieve:
			return 1.4
		case components.ActCourt, components.ActNest:
			return 0.1
		case components.ActBathe:
			return 0.3
		}
	}
	return 1.0
}

// Hour is the time of day on a 24 hour clock.
func (e *Environment) Hour() float32 {
	return e.DayFraction() * 24
}

// FearFactor is the ambient fear contribution of the current weather,
// added to each bird's own fear when the selector checks for panic.
// FeedUrgency scales hunger growth by temperature. Cold birds burn
// reserves faster and must feed more often; heat adds a mild push.
func (e *Environment) FeedUrgency() float32 {
	switch {
	case e.Temperature < 5:
		u := 1 + (5-e.Temperature)*0.03
		if u > 1.5 {
			u = 1.5
		}
		return u
	case e.Temperature > 30:
		return 1.1
	}
	return 1.0
}

func (e *Environment) FearFactor() float32 {
	switch e.Weather {
	case Rainy, Snowy:
		return 0.1
	case Stormy:
		switch e.Severity {
		case SeverityLight:
			return 0.2
		case SeverityModerate:
			return 0.3
		case SeveritySevere:
			return 0.4
		case SeverityExtreme:
			return 0.5
		}
		return 0.2
	}
	return 0
}

// Rand exposes the environment RNG for systems that need stochastic
// rolls tied to the same seed.
func (e *Environment) Rand() *rand.Rand {
	return e.rng
}

// Package species defines the species vocabulary and the data-driven trait
// table used by scoring and selection. Behavior code looks up coefficients
// here instead of branching on species identity.
package species

// Species identifies a kind of bird.
type Species uint8

const (
	Cardinal Species = iota
	BlueJay
	Chickadee
	Robin
	HouseFinch
	Sparrow
	MourningDove
	Starling
	Goldfinch
	Hummingbird
	CoopersHawk
	GreatHornedOwl

	NumSpecies = int(GreatHornedOwl) + 1
)

var speciesNames = [NumSpecies]string{
	"Cardinal", "BlueJay", "Chickadee", "Robin", "HouseFinch", "Sparrow",
	"MourningDove", "Starling", "Goldfinch", "Hummingbird",
	"CoopersHawk", "GreatHornedOwl",
}

// String returns the species name.
func (s Species) String() string {
	if int(s) < len(speciesNames) {
		return speciesNames[s]
	}
	return "Unknown"
}

// FromName returns the species with the given name.
func FromName(name string) (Species, bool) {
	for i, n := range speciesNames {
		if n == name {
			return Species(i), true
		}
	}
	return 0, false
}

// EscapeStyle determines how a species reacts to a predator attack.
type EscapeStyle uint8

const (
	EscapeScatter EscapeStyle = iota // flee in a straight line away from the threat
	EscapeFreeze                     // stay motionless and hope to go unseen
	EscapeMob                        // turn aggressive and harass the predator
	EscapeDive                       // dive into dense cover
)

var escapeNames = [...]string{"Scatter", "Freeze", "Mob", "Dive"}

func (e EscapeStyle) String() string {
	if int(e) < len(escapeNames) {
		return escapeNames[e]
	}
	return "Scatter"
}

// EscapeFromName parses an escape style name, defaulting to Scatter.
func EscapeFromName(name string) EscapeStyle {
	for i, n := range escapeNames {
		if n == name {
			return EscapeStyle(i)
		}
	}
	return EscapeScatter
}

// Traits holds the per-species behavior constants. Zero values are valid
// but dull; use DefaultTable for sensible birds.
type Traits struct {
	// Action preferences multiply utility scores, keyed by action name.
	// Unlisted actions default to 1.0; a 0 entry disables the action.
	ActionPrefs map[string]float32 `yaml:"action_prefs"`

	FlockTendency         float32     `yaml:"flock_tendency"`         // 0-1, likelihood to join mixed flocks
	LeadershipPotential   float32     `yaml:"leadership_potential"`   // 0-1, chance to lead an emergency flock
	TerritorialAggression float32     `yaml:"territorial_aggression"` // 0-1, how hard territory is defended
	SocialTolerance       float32     `yaml:"social_tolerance"`       // 0-1, tolerance of nearby birds
	Dominance             float32     `yaml:"dominance"`              // 0-1, pecking-order rank
	MatingReceptivity     float32     `yaml:"mating_receptivity"`     // 0-1, seasonal willingness to court
	SizeFactor            float32     `yaml:"size_factor"`            // relative body size, competition weight
	WeatherHardiness      float32     `yaml:"weather_hardiness"`      // 0-1, resistance to weather stress
	Nocturnal             bool        `yaml:"nocturnal"`              // active at night instead of day
	Escape                EscapeStyle `yaml:"-"`
	EscapeName            string      `yaml:"escape"`
	AlertRange            float32     `yaml:"alert_range"` // how far this species' warning calls carry

	// Predator-only fields. Predator is false for songbirds.
	Predator      bool     `yaml:"predator"`
	AttackRange   float32  `yaml:"attack_range"`
	SuccessRate   float32  `yaml:"success_rate"`
	PreferredPrey []string `yaml:"preferred_prey"`
}

// Pref returns the preference multiplier for an action name.
func (t *Traits) Pref(action string) float32 {
	if t.ActionPrefs == nil {
		return 1.0
	}
	if v, ok := t.ActionPrefs[action]; ok {
		return v
	}
	return 1.0
}

// PreysOn reports whether sp is on this predator's preferred menu.
func (t *Traits) PreysOn(sp Species) bool {
	for _, name := range t.PreferredPrey {
		if name == sp.String() {
			return true
		}
	}
	return false
}

// Table maps every species to its traits.
type Table [NumSpecies]Traits

// Get returns the traits for a species.
func (t *Table) Get(s Species) *Traits {
	return &t[s]
}

// Resolve fills derived fields after loading (escape style names).
func (t *Table) Resolve() {
	for i := range t {
		if t[i].EscapeName != "" {
			t[i].Escape = EscapeFromName(t[i].EscapeName)
		}
		if t[i].SizeFactor == 0 {
			t[i].SizeFactor = 1.0
		}
		if t[i].AlertRange == 0 {
			t[i].AlertRange = 200
		}
	}
}

// DefaultTable returns the built-in trait table. Values follow field
// observations loosely; they are tuning constants, not ornithology.
func DefaultTable() *Table {
	t := &Table{}

	t[Cardinal] = Traits{
		ActionPrefs:           prefs("Eat", 0.9, "HoverFeed", 0, "Cache", 0.2, "Retrieve", 0.2),
		FlockTendency:         0.3,
		LeadershipPotential:   0.4,
		TerritorialAggression: 0.6,
		SocialTolerance:       0.5,
		Dominance:             0.55,
		MatingReceptivity:     0.6,
		SizeFactor:            1.0,
		WeatherHardiness:      0.5,
		Escape:                EscapeScatter,
		AlertRange:            200,
	}
	t[BlueJay] = Traits{
		ActionPrefs:           prefs("Eat", 0.8, "HoverFeed", 0, "Cache", 0.9, "Retrieve", 0.9),
		FlockTendency:         0.4,
		LeadershipPotential:   0.7,
		TerritorialAggression: 0.9,
		SocialTolerance:       0.3,
		Dominance:             0.8,
		MatingReceptivity:     0.5,
		SizeFactor:            1.3,
		WeatherHardiness:      0.7,
		Escape:                EscapeMob,
		AlertRange:            400,
	}
	t[Chickadee] = Traits{
		ActionPrefs:           prefs("Eat", 0.9, "HoverFeed", 0, "Cache", 0.8, "Retrieve", 0.8),
		FlockTendency:         0.9,
		LeadershipPotential:   0.6,
		TerritorialAggression: 0.2,
		SocialTolerance:       0.8,
		Dominance:             0.3,
		MatingReceptivity:     0.5,
		SizeFactor:            0.6,
		WeatherHardiness:      0.6,
		Escape:                EscapeMob,
		AlertRange:            300,
	}
	t[Robin] = Traits{
		ActionPrefs:           prefs("Eat", 0.6, "Forage", 0.9, "HoverFeed", 0, "Cache", 0.1, "Retrieve", 0.1),
		FlockTendency:         0.4,
		LeadershipPotential:   0.5,
		TerritorialAggression: 0.5,
		SocialTolerance:       0.5,
		Dominance:             0.5,
		MatingReceptivity:     0.7,
		SizeFactor:            1.1,
		WeatherHardiness:      0.5,
		Escape:                EscapeScatter,
		AlertRange:            200,
	}
	t[HouseFinch] = Traits{
		ActionPrefs:           prefs("Eat", 1.0, "HoverFeed", 0, "Cache", 0.1, "Retrieve", 0.1),
		FlockTendency:         0.8,
		LeadershipPotential:   0.3,
		TerritorialAggression: 0.3,
		SocialTolerance:       0.7,
		Dominance:             0.4,
		MatingReceptivity:     0.6,
		SizeFactor:            0.8,
		WeatherHardiness:      0.4,
		Escape:                EscapeScatter,
		AlertRange:            200,
	}
	t[Sparrow] = Traits{
		ActionPrefs:           prefs("Eat", 0.9, "Forage", 0.8, "HoverFeed", 0, "Cache", 0.1, "Retrieve", 0.1),
		FlockTendency:         0.8,
		LeadershipPotential:   0.2,
		TerritorialAggression: 0.3,
		SocialTolerance:       0.7,
		Dominance:             0.35,
		MatingReceptivity:     0.6,
		SizeFactor:            0.8,
		WeatherHardiness:      0.4,
		Escape:                EscapeScatter,
		AlertRange:            200,
	}
	t[MourningDove] = Traits{
		ActionPrefs:           prefs("Eat", 0.8, "Forage", 0.9, "HoverFeed", 0, "Cache", 0, "Retrieve", 0),
		FlockTendency:         0.6,
		LeadershipPotential:   0.3,
		TerritorialAggression: 0.2,
		SocialTolerance:       0.8,
		Dominance:             0.45,
		MatingReceptivity:     0.7,
		SizeFactor:            1.2,
		WeatherHardiness:      0.6,
		Escape:                EscapeFreeze,
		AlertRange:            150,
	}
	t[Starling] = Traits{
		ActionPrefs:           prefs("Eat", 0.9, "Forage", 0.7, "HoverFeed", 0, "Cache", 0.1, "Retrieve", 0.1),
		FlockTendency:         1.0,
		LeadershipPotential:   0.5,
		TerritorialAggression: 0.4,
		SocialTolerance:       0.9,
		Dominance:             0.6,
		MatingReceptivity:     0.5,
		SizeFactor:            1.0,
		WeatherHardiness:      0.6,
		Escape:                EscapeScatter,
		AlertRange:            250,
	}
	t[Goldfinch] = Traits{
		ActionPrefs:           prefs("Eat", 0.9, "HoverFeed", 0, "Cache", 0, "Retrieve", 0),
		FlockTendency:         0.7,
		LeadershipPotential:   0.2,
		TerritorialAggression: 0.1,
		SocialTolerance:       0.9,
		Dominance:             0.25,
		MatingReceptivity:     0.6,
		SizeFactor:            0.6,
		WeatherHardiness:      0.3,
		Escape:                EscapeScatter,
		AlertRange:            150,
	}
	t[Hummingbird] = Traits{
		ActionPrefs:           prefs("Eat", 0.2, "HoverFeed", 1.0, "Forage", 0.1, "Cache", 0, "Retrieve", 0),
		FlockTendency:         0.1,
		LeadershipPotential:   0.1,
		TerritorialAggression: 0.7,
		SocialTolerance:       0.2,
		Dominance:             0.3,
		MatingReceptivity:     0.6,
		SizeFactor:            0.3,
		WeatherHardiness:      0.2,
		Escape:                EscapeDive,
		AlertRange:            100,
	}
	t[CoopersHawk] = Traits{
		ActionPrefs:           prefs("Eat", 0.3, "HoverFeed", 0, "Court", 0.3, "Flock", 0, "Cache", 0, "Retrieve", 0),
		FlockTendency:         0.0,
		LeadershipPotential:   0.2,
		TerritorialAggression: 1.0,
		SocialTolerance:       0.1,
		Dominance:             1.0,
		MatingReceptivity:     0.4,
		SizeFactor:            2.5,
		WeatherHardiness:      0.8,
		Escape:                EscapeScatter,
		AlertRange:            100,
		Predator:              true,
		AttackRange:           250,
		SuccessRate:           0.6,
		PreferredPrey:         []string{"HouseFinch", "Sparrow", "Chickadee", "Goldfinch"},
	}
	t[GreatHornedOwl] = Traits{
		ActionPrefs:           prefs("Eat", 0.3, "HoverFeed", 0, "Court", 0.3, "Flock", 0, "Cache", 0, "Retrieve", 0),
		FlockTendency:         0.0,
		LeadershipPotential:   0.2,
		TerritorialAggression: 1.0,
		SocialTolerance:       0.1,
		Dominance:             1.0,
		MatingReceptivity:     0.4,
		SizeFactor:            3.0,
		WeatherHardiness:      0.9,
		Nocturnal:             true,
		Escape:                EscapeScatter,
		AlertRange:            100,
		Predator:              true,
		AttackRange:           300,
		SuccessRate:           0.65,
		PreferredPrey:         []string{"Starling", "MourningDove", "BlueJay"},
	}

	return t
}

func prefs(kv ...interface{}) map[string]float32 {
	m := make(map[string]float32, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		name := kv[i].(string)
		switch v := kv[i+1].(type) {
		case float64:
			m[name] = float32(v)
		case int:
			m[name] = float32(v)
		case float32:
			m[name] = v
		}
	}
	return m
}

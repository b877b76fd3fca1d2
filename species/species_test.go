package species

import "testing"

func TestFromName(t *testing.T) {
	tests := []struct {
		name string
		want Species
		ok   bool
	}{
		{"Cardinal", Cardinal, true},
		{"BlueJay", BlueJay, true},
		{"GreatHornedOwl", GreatHornedOwl, true},
		{"Dodo", Cardinal, false},
		{"", Cardinal, false},
	}
	for _, tt := range tests {
		got, ok := FromName(tt.name)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("FromName(%q) = %v, %v", tt.name, got, ok)
		}
	}
	for s := Species(0); int(s) < NumSpecies; s++ {
		got, ok := FromName(s.String())
		if !ok || got != s {
			t.Errorf("round trip failed for %s", s)
		}
	}
}

func TestPrefDefaults(t *testing.T) {
	tr := &Traits{}
	if tr.Pref("Eat") != 1.0 {
		t.Error("nil prefs default to 1")
	}
	tr.ActionPrefs = map[string]float32{"HoverFeed": 0, "Eat": 0.9}
	if tr.Pref("HoverFeed") != 0 {
		t.Error("explicit zero disables the action")
	}
	if tr.Pref("Drink") != 1.0 {
		t.Error("unlisted actions default to 1")
	}
}

func TestDefaultTable(t *testing.T) {
	tab := DefaultTable()

	for s := Species(0); int(s) < NumSpecies; s++ {
		tr := tab.Get(s)
		if tr.SizeFactor <= 0 {
			t.Errorf("%s: size factor must be positive", s)
		}
		if tr.AlertRange <= 0 {
			t.Errorf("%s: alert range must be positive", s)
		}
		if tr.Predator && (tr.AttackRange <= 0 || tr.SuccessRate <= 0) {
			t.Errorf("%s: predator missing attack parameters", s)
		}
	}

	// Only hummingbirds work nectar feeders.
	if tab.Get(Hummingbird).Pref("HoverFeed") <= 0 {
		t.Error("hummingbird must use nectar feeders")
	}
	if tab.Get(Cardinal).Pref("HoverFeed") != 0 {
		t.Error("cardinal cannot hover feed")
	}

	// Cachers and non-cachers.
	if tab.Get(BlueJay).Pref("Cache") < 0.5 {
		t.Error("blue jays are committed cachers")
	}
	if tab.Get(MourningDove).Pref("Cache") > 0.3 {
		t.Error("doves barely cache")
	}

	// Raptors are flagged, songbirds are not.
	if !tab.Get(CoopersHawk).Predator || !tab.Get(GreatHornedOwl).Predator {
		t.Error("raptors must be predators")
	}
	if tab.Get(Chickadee).Predator {
		t.Error("chickadees do not hunt birds")
	}
	if !tab.Get(GreatHornedOwl).Nocturnal {
		t.Error("owls hunt at night")
	}
	if tab.Get(CoopersHawk).Nocturnal {
		t.Error("accipiters hunt by day")
	}
}

func TestPreysOn(t *testing.T) {
	tab := DefaultTable()
	hawk := tab.Get(CoopersHawk)
	found := false
	for s := Species(0); int(s) < NumSpecies; s++ {
		if hawk.PreysOn(s) {
			found = true
			if tab.Get(s).Predator {
				t.Errorf("predator %s should not be preferred prey", s)
			}
		}
	}
	if !found {
		t.Error("hawk should prefer some prey species")
	}
}

func TestResolve(t *testing.T) {
	tab := &Table{}
	tab[Cardinal].EscapeName = "Dive"
	tab.Resolve()
	if tab[Cardinal].Escape != EscapeDive {
		t.Error("escape name should resolve to its style")
	}
	if tab[Sparrow].SizeFactor != 1.0 {
		t.Error("zero size factor should default to 1")
	}
	if tab[Sparrow].AlertRange != 200 {
		t.Error("zero alert range should default to 200")
	}
}

func TestEscapeFromName(t *testing.T) {
	tests := []struct {
		name string
		want EscapeStyle
	}{
		{"Scatter", EscapeScatter},
		{"Freeze", EscapeFreeze},
		{"Mob", EscapeMob},
		{"Dive", EscapeDive},
		{"bogus", EscapeScatter},
	}
	for _, tt := range tests {
		if got := EscapeFromName(tt.name); got != tt.want {
			t.Errorf("EscapeFromName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

package config

import "sort"

// Presets are grouped by the kind of session they set up.
var Presets = map[string]map[string]*Config{
	"classroom": {
		"standard": {
			Oscillations: 5, LengthCm: 50, InitialAngleDeg: 15, SettleThresholdDeg: 2,
			Profile: "standard",
		},
		"short": {
			Oscillations: 10, LengthCm: 25, InitialAngleDeg: 10, SettleThresholdDeg: 2,
			Profile: "standard",
		},
		"long": {
			Oscillations: 5, LengthCm: 150, InitialAngleDeg: 15, SettleThresholdDeg: 2,
			Profile: "standard",
		},
	},
	"lab": {
		"precise": {
			Oscillations: 20, LengthCm: 100, InitialAngleDeg: 8, SettleThresholdDeg: 1,
			Profile: "standard",
		},
		"quick": {
			Oscillations: 2, LengthCm: 30, InitialAngleDeg: 15, SettleThresholdDeg: 2,
			Profile: "standard",
		},
		"lowpower": {
			Oscillations: 5, LengthCm: 50, InitialAngleDeg: 15, SettleThresholdDeg: 3,
			Profile: "constrained",
		},
	},
}

func GetPreset(group, preset string) *Config {
	groupPresets, ok := Presets[group]
	if !ok {
		return nil
	}
	cfg, ok := groupPresets[preset]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets(group string) []string {
	groupPresets, ok := Presets[group]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(groupPresets))
	for name := range groupPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ListGroups() []string {
	groups := make([]string, 0, len(Presets))
	for g := range Presets {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups
}

// Apply copies the trial fields of preset onto c, leaving store, server and
// log settings alone.
func (c *Config) Apply(preset *Config) {
	if preset == nil {
		return
	}
	c.Oscillations = preset.Oscillations
	c.LengthCm = preset.LengthCm
	c.InitialAngleDeg = preset.InitialAngleDeg
	c.SettleThresholdDeg = preset.SettleThresholdDeg
	c.Profile = preset.Profile
}

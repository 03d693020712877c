package config

import (
	"sort"

	"github.com/san-kum/fdmctl/internal/ic"
)

// Presets are named initial conditions.
var Presets = map[string]ic.Preset{
	"runway": {
		LatitudeDeg: 37.6189, LongitudeDeg: -122.3750,
		AltitudeAGLFt: 0, TerrainFt: 13, PsiDeg: 284,
	},
	"catapult": {
		LatitudeDeg: 36.8468, LongitudeDeg: -76.2891,
		AltitudeAGLFt: 60, TerrainFt: 0, PsiDeg: 90, ThetaDeg: 2,
	},
	"approach": {
		LatitudeDeg: 37.5500, LongitudeDeg: -122.1000,
		AltitudeAGLFt: 1500, TerrainFt: 13, PsiDeg: 284, ThetaDeg: -3, UFps: 110,
	},
	"cruise": {
		LatitudeDeg: 47.4502, LongitudeDeg: -122.3088,
		AltitudeAGLFt: 8000, TerrainFt: 432, PsiDeg: 180, UFps: 200,
	},
	"banked-turn": {
		LatitudeDeg: 51.4700, LongitudeDeg: -0.4543,
		AltitudeAGLFt: 3000, TerrainFt: 83, PhiDeg: 30, PsiDeg: 270, UFps: 180,
	},
}

func GetPreset(name string) (ic.Preset, bool) {
	p, ok := Presets[name]
	return p, ok
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

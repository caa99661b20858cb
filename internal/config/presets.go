package config

import "sort"

type preset struct {
	description string
	config      *Config
}

var presets = map[string]preset{
	"beam-ratio": {
		description: "crystal sizes 1-100 against twelve beam ratios",
		config:      DefaultConfig(),
	},
	"intermediate-sizes": {
		description: "crystal sizes 8-40 against twelve beam ratios",
		config: func() *Config {
			cfg := DefaultConfig()
			cfg.Variable("size").Values = []float64{8, 12, 15, 18, 25, 30, 40}
			cfg.Output = "beam-ratio-intermediate.csv"
			return cfg
		}(),
	},
	"matched-beam": {
		description: "beam matched to crystal size",
		config: func() *Config {
			cfg := DefaultConfig()
			cfg.Variable("ratio").Values = []float64{1}
			cfg.Output = "matched-beam.csv"
			return cfg
		}(),
	},
	"ppm-10": {
		description: "beam-ratio sweep with ppm = 10 / size",
		config: func() *Config {
			cfg := DefaultConfig()
			cfg.Derived[0].Expr = "10 / size"
			cfg.Output = "beam-ratio-ppm10.csv"
			return cfg
		}(),
	},
}

// GetPreset returns a copy of the named preset, or nil if there is none.
// Callers may modify the copy freely.
func GetPreset(name string) *Config {
	p, ok := presets[name]
	if !ok {
		return nil
	}
	return p.config.Clone()
}

func PresetDescription(name string) string {
	return presets[name].description
}

// ListPresets returns preset names in sorted order.
func ListPresets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

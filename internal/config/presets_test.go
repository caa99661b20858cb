package config

import "testing"

func TestGetPreset(t *testing.T) {
	tests := []struct {
		name  string
		sizes int
		ratio int
	}{
		{"beam-ratio", 7, 12},
		{"intermediate-sizes", 7, 12},
		{"matched-beam", 7, 1},
		{"ppm-10", 7, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetPreset(tt.name)
			if cfg == nil {
				t.Fatal("expected preset, got nil")
			}
			if n := len(cfg.Variable("size").Values); n != tt.sizes {
				t.Errorf("expected %d sizes, got %d", tt.sizes, n)
			}
			if n := len(cfg.Variable("ratio").Values); n != tt.ratio {
				t.Errorf("expected %d ratios, got %d", tt.ratio, n)
			}
			if err := cfg.Validate(); err != nil {
				t.Errorf("preset invalid: %v", err)
			}
			if PresetDescription(tt.name) == "" {
				t.Error("expected description")
			}
		})
	}
}

func TestGetPresetIntermediateSizes(t *testing.T) {
	cfg := GetPreset("intermediate-sizes")
	if cfg.Variable("size").Values[0] != 8 {
		t.Errorf("expected first size 8, got %v", cfg.Variable("size").Values)
	}
}

func TestGetPresetIsFresh(t *testing.T) {
	a := GetPreset("beam-ratio")
	a.Variable("size").Values[0] = 42
	b := GetPreset("beam-ratio")
	if b.Variable("size").Values[0] != 1 {
		t.Error("presets must not share state")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestListPresets(t *testing.T) {
	names := ListPresets()
	want := []string{"beam-ratio", "intermediate-sizes", "matched-beam", "ppm-10"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("expected %s at %d, got %s", want[i], i, names[i])
		}
	}
}

package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/rdsweep/internal/formula"
	"github.com/san-kum/rdsweep/internal/simulator"
	"github.com/san-kum/rdsweep/internal/sweep"
)

const (
	DefaultTemplate = "input.txt"
	DefaultOutput   = "beam-ratio.csv"
	DefaultWorkDir  = "."
)

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Template       string            `yaml:"template"`
	Output         string            `yaml:"output"`
	WorkDir        string            `yaml:"work_dir"`
	PerPointInputs bool              `yaml:"per_point_inputs"`
	Simulator      SimulatorConfig   `yaml:"simulator"`
	Variables      []VariableConfig  `yaml:"variables"`
	Derived        []DerivedConfig   `yaml:"derived"`
	Placeholders   []PlaceholderSpec `yaml:"placeholders"`
	Metrics        []MetricConfig    `yaml:"metrics"`
	Columns        []string          `yaml:"columns,omitempty"`
}

type SimulatorConfig struct {
	Command    []string `yaml:"command"`
	InputFlag  string   `yaml:"input_flag"`
	Summary    string   `yaml:"summary"`
	FailOnExit bool     `yaml:"fail_on_exit"`
}

type VariableConfig struct {
	Name   string    `yaml:"name"`
	Label  string    `yaml:"label,omitempty"`
	Values []float64 `yaml:"values,flow"`
}

type DerivedConfig struct {
	Name  string `yaml:"name"`
	Label string `yaml:"label,omitempty"`
	Expr  string `yaml:"expr"`
}

// PlaceholderSpec binds a token in the template to a variable or derived
// quantity by name.
type PlaceholderSpec struct {
	Token string `yaml:"token"`
	Value string `yaml:"value"`
}

type MetricConfig struct {
	Name  string `yaml:"name"`
	Label string `yaml:"label,omitempty"`
}

// DefaultConfig is the beam-ratio sweep over crystal size and beam-to-crystal
// ratio.
func DefaultConfig() *Config {
	return &Config{
		Template: DefaultTemplate,
		Output:   DefaultOutput,
		WorkDir:  DefaultWorkDir,
		Simulator: SimulatorConfig{
			Command:   []string{"java", "-jar", "raddose3d.jar"},
			InputFlag: simulator.DefaultInputFlag,
			Summary:   simulator.DefaultSummaryName,
		},
		Variables: []VariableConfig{
			{Name: "size", Label: "Crystal Size", Values: []float64{1, 2, 5, 10, 20, 50, 100}},
			{Name: "ratio", Label: "Beam ratio", Values: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 0.75, 1.0, 1.5, 2.0, 3.0, 4.0, 5.0}},
		},
		Derived: []DerivedConfig{
			{Name: "ppm", Expr: "20 * (1 / size)"},
			{Name: "beam_size", Label: "Beam size", Expr: "size * ratio"},
		},
		Placeholders: []PlaceholderSpec{
			{Token: "$", Value: "size"},
			{Token: "?", Value: "ppm"},
			{Token: "@", Value: "beam_size"},
		},
		Metrics: []MetricConfig{
			{Name: "DWD"},
			{Name: "DiffractionEfficiency", Label: "DE"},
		},
		Columns: []string{"size", "ppm", "beam_size", "ratio", "DWD", "DiffractionEfficiency"},
	}
}

// Load reads path over the defaults. Lists present in the file replace the
// default lists wholesale.
func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver reads path over base, which is modified in place.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := overlay(data, base); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return base, nil
}

// Parse decodes a document such as a run's config snapshot over the
// defaults.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := overlay(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// overlay decodes data over base. A document that redeclares variables,
// derived quantities or metrics without listing columns gets the default
// column order over its own declarations, not the base's column list.
func overlay(data []byte, base *Config) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	if len(doc.Content) == 0 {
		return nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: document is not a mapping", ErrInvalid)
	}

	keys := map[string]bool{}
	for i := 0; i+1 < len(root.Content); i += 2 {
		keys[root.Content[i].Value] = true
	}
	if !keys["columns"] && (keys["variables"] || keys["derived"] || keys["metrics"]) {
		base.Columns = nil
	}
	return root.Decode(base)
}

func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

func Save(path string, cfg *Config) error {
	data, err := cfg.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Template == "" {
		return fmt.Errorf("%w: no template", ErrInvalid)
	}
	if c.Output == "" {
		return fmt.Errorf("%w: no output path", ErrInvalid)
	}
	if len(c.Simulator.Command) == 0 || c.Simulator.Command[0] == "" {
		return fmt.Errorf("%w: no simulator command", ErrInvalid)
	}
	_, err := c.Plan()
	return err
}

// Plan compiles the derived formulas and resolves column labels from the
// declarations they name.
func (c *Config) Plan() (*sweep.Plan, error) {
	p := &sweep.Plan{}
	labels := map[string]string{}

	for _, v := range c.Variables {
		p.Variables = append(p.Variables, sweep.Variable{Name: v.Name, Label: v.Label, Values: v.Values})
		labels[v.Name] = v.Label
	}
	for _, d := range c.Derived {
		expr, err := formula.Compile(d.Expr)
		if err != nil {
			return nil, fmt.Errorf("%w: derived %q: %w", ErrInvalid, d.Name, err)
		}
		p.Derived = append(p.Derived, sweep.Derived{Name: d.Name, Label: d.Label, Formula: expr})
		labels[d.Name] = d.Label
	}
	for _, ph := range c.Placeholders {
		p.Placeholders = append(p.Placeholders, sweep.Placeholder{Token: ph.Token, Source: ph.Value})
	}
	for _, m := range c.Metrics {
		p.Metrics = append(p.Metrics, m.Name)
		labels[m.Name] = m.Label
	}

	sources := c.Columns
	if len(sources) == 0 {
		for _, v := range c.Variables {
			sources = append(sources, v.Name)
		}
		for _, d := range c.Derived {
			sources = append(sources, d.Name)
		}
		for _, m := range c.Metrics {
			sources = append(sources, m.Name)
		}
	}
	for _, src := range sources {
		p.Columns = append(p.Columns, sweep.Column{Source: src, Label: labels[src]})
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Clone returns a deep copy so presets can be modified safely.
func (c *Config) Clone() *Config {
	out := *c
	out.Simulator.Command = append([]string(nil), c.Simulator.Command...)
	out.Variables = make([]VariableConfig, len(c.Variables))
	for i, v := range c.Variables {
		v.Values = append([]float64(nil), v.Values...)
		out.Variables[i] = v
	}
	out.Derived = append([]DerivedConfig(nil), c.Derived...)
	out.Placeholders = append([]PlaceholderSpec(nil), c.Placeholders...)
	out.Metrics = append([]MetricConfig(nil), c.Metrics...)
	out.Columns = append([]string(nil), c.Columns...)
	return &out
}

// Variable returns a pointer into c.Variables so callers can override its
// values.
func (c *Config) Variable(name string) *VariableConfig {
	for i := range c.Variables {
		if c.Variables[i].Name == name {
			return &c.Variables[i]
		}
	}
	return nil
}

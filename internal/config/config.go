package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultGravity       = 9.81
	DefaultDt            = 1.0 / 120.0
	DefaultDamping       = 0.3
	DefaultTimeScale     = 1.0
	DefaultWindIntensity = 0.0
	DefaultTurbulence    = 0.5

	PositionIterations = 8
	FrictionIterations = 4
)

// Limits are the clamp ranges applied silently at the mutation
// boundary. Out-of-range input is never rejected, only clamped.
type Limits struct {
	MinArmLength  float64 `yaml:"min_arm_length"`
	MaxArmLength  float64 `yaml:"max_arm_length"`
	MinWireLength float64 `yaml:"min_wire_length"`
	MaxWireLength float64 `yaml:"max_wire_length"`
	MinMass       float64 `yaml:"min_mass"`
	MaxMass       float64 `yaml:"max_mass"`
	MinSize       float64 `yaml:"min_size"`
	MaxSize       float64 `yaml:"max_size"`
}

type PhysicsConfig struct {
	Gravity    float64 `yaml:"gravity"`
	Dt         float64 `yaml:"dt"`
	Damping    float64 `yaml:"damping"`
	TimeScale  float64 `yaml:"time_scale"`
	WindMode   string  `yaml:"wind_mode"` // "uniform" or "turbulent"
	WindX      float64 `yaml:"wind_x"`
	WindY      float64 `yaml:"wind_y"`
	WindZ      float64 `yaml:"wind_z"`
	Intensity  float64 `yaml:"wind_intensity"`
	Turbulence float64 `yaml:"turbulence"`
}

type Config struct {
	DataDir string        `yaml:"data_dir"`
	Preset  string        `yaml:"preset"`
	Limits  Limits        `yaml:"limits"`
	Physics PhysicsConfig `yaml:"physics"`
}

func DefaultConfig() *Config {
	return &Config{
		DataDir: ".mobile",
		Limits: Limits{
			MinArmLength:  0.5,
			MaxArmLength:  8.0,
			MinWireLength: 0.2,
			MaxWireLength: 3.0,
			MinMass:       0.1,
			MaxMass:       10.0,
			MinSize:       0.05,
			MaxSize:       1.5,
		},
		Physics: PhysicsConfig{
			Gravity:    DefaultGravity,
			Dt:         DefaultDt,
			Damping:    DefaultDamping,
			TimeScale:  DefaultTimeScale,
			WindMode:   "uniform",
			WindX:      1.0,
			Intensity:  DefaultWindIntensity,
			Turbulence: DefaultTurbulence,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

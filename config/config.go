// Package config holds the tunables of a simulation, loadable from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every validation error
var ErrInvalidConfig = errors.New("invalid config")

// Config holds the tunables of a World.
// Zero iteration counts let the resolver run twice as many iterations as there are contacts.
type Config struct {
	PositionIterations int     `yaml:"position_iterations"`
	VelocityIterations int     `yaml:"velocity_iterations"`
	PositionEpsilon    float64 `yaml:"position_epsilon"`
	VelocityEpsilon    float64 `yaml:"velocity_epsilon"`

	// Capacity of the contact and potential contact buffers, allocated once
	MaxContacts int `yaml:"max_contacts"`
	MaxPairs    int `yaml:"max_pairs"`

	// Material of every contact, unless UseMaterials mixes the materials of the bodies
	Friction     float64 `yaml:"friction"`
	Restitution  float64 `yaml:"restitution"`
	UseMaterials bool    `yaml:"use_materials"`

	Tolerance float64 `yaml:"tolerance"`
	FaceBias  float64 `yaml:"face_bias"`

	Gravity      [3]float64 `yaml:"gravity"`
	SleepEpsilon float64    `yaml:"sleep_epsilon"`
	// Substeps splits every Step in as many equal frames
	Substeps int `yaml:"substeps"`
}

// Default returns a configuration suited to stacks of bodies around one metre in size
func Default() Config {
	return Config{
		PositionIterations: 0,
		VelocityIterations: 0,
		PositionEpsilon:    0.01,
		VelocityEpsilon:    0.01,
		MaxContacts:        256,
		MaxPairs:           512,
		Friction:           0.9,
		Restitution:        0.1,
		UseMaterials:       false,
		Tolerance:          0,
		FaceBias:           0.001,
		Gravity:            [3]float64{0, -9.81, 0},
		SleepEpsilon:       0.3,
		Substeps:           1,
	}
}

// GravityVector returns Gravity as a vector
func (c Config) GravityVector() mgl64.Vec3 {
	return mgl64.Vec3(c.Gravity)
}

// Validate reports every out of range option, each wrapping ErrInvalidConfig
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
		}
	}

	check(c.PositionIterations >= 0, "position_iterations must not be negative, got %d", c.PositionIterations)
	check(c.VelocityIterations >= 0, "velocity_iterations must not be negative, got %d", c.VelocityIterations)
	check(c.PositionEpsilon >= 0, "position_epsilon must not be negative, got %v", c.PositionEpsilon)
	check(c.VelocityEpsilon >= 0, "velocity_epsilon must not be negative, got %v", c.VelocityEpsilon)
	check(c.MaxContacts > 0, "max_contacts must be positive, got %d", c.MaxContacts)
	check(c.MaxPairs > 0, "max_pairs must be positive, got %d", c.MaxPairs)
	check(c.Friction >= 0, "friction must not be negative, got %v", c.Friction)
	check(c.Restitution >= 0 && c.Restitution <= 1, "restitution must be within [0, 1], got %v", c.Restitution)
	check(c.Tolerance >= 0, "tolerance must not be negative, got %v", c.Tolerance)
	check(c.FaceBias >= 0, "face_bias must not be negative, got %v", c.FaceBias)
	check(c.SleepEpsilon >= 0, "sleep_epsilon must not be negative, got %v", c.SleepEpsilon)
	check(c.Substeps >= 1, "substeps must be at least 1, got %d", c.Substeps)

	return errors.Join(errs...)
}

// Parse reads a YAML document over the defaults: missing options keep their default value,
// unknown options are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Load reads and parses a YAML file
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}

	return cfg, nil
}

// Marshal encodes the configuration as YAML, the inverse of Parse
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

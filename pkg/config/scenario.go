// pkg/config/scenario.go
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/opd-ai/go-leaksim/pkg/geometry"
	"github.com/opd-ai/go-leaksim/pkg/validation"
)

// ErrInvalidScenario is wrapped by every scenario loading or validation failure
var ErrInvalidScenario = errors.New("config: invalid scenario")

// PointConfig is a world-space coordinate
type PointConfig struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`

	missing []string // keys absent from the decoded input
}

type pointKeys struct {
	X *float64 `json:"x" yaml:"x"`
	Y *float64 `json:"y" yaml:"y"`
}

func (p *PointConfig) fromKeys(k pointKeys) {
	*p = PointConfig{}
	if k.X == nil {
		p.missing = append(p.missing, "x")
	} else {
		p.X = *k.X
	}
	if k.Y == nil {
		p.missing = append(p.missing, "y")
	} else {
		p.Y = *k.Y
	}
}

// UnmarshalJSON records absent coordinates so Validate can reject them
func (p *PointConfig) UnmarshalJSON(data []byte) error {
	var k pointKeys
	if err := json.Unmarshal(data, &k); err != nil {
		return err
	}
	p.fromKeys(k)
	return nil
}

// UnmarshalYAML records absent coordinates so Validate can reject them
func (p *PointConfig) UnmarshalYAML(value *yaml.Node) error {
	var k pointKeys
	if err := value.Decode(&k); err != nil {
		return err
	}
	p.fromKeys(k)
	return nil
}

// Point converts to a geometry point
func (p PointConfig) Point() geometry.Point {
	return geometry.Point{X: p.X, Y: p.Y}
}

// SegmentConfig is a wall or pipe between two endpoints
type SegmentConfig struct {
	Start PointConfig `json:"start" yaml:"start"`
	End   PointConfig `json:"end" yaml:"end"`

	missing []string
}

type segmentKeys struct {
	Start *PointConfig `json:"start" yaml:"start"`
	End   *PointConfig `json:"end" yaml:"end"`
}

func (s *SegmentConfig) fromKeys(k segmentKeys) {
	*s = SegmentConfig{}
	if k.Start == nil {
		s.missing = append(s.missing, "start")
	} else {
		s.Start = *k.Start
	}
	if k.End == nil {
		s.missing = append(s.missing, "end")
	} else {
		s.End = *k.End
	}
}

// UnmarshalJSON records absent endpoints so Validate can reject them
func (s *SegmentConfig) UnmarshalJSON(data []byte) error {
	var k segmentKeys
	if err := json.Unmarshal(data, &k); err != nil {
		return err
	}
	s.fromKeys(k)
	return nil
}

// UnmarshalYAML records absent endpoints so Validate can reject them
func (s *SegmentConfig) UnmarshalYAML(value *yaml.Node) error {
	var k segmentKeys
	if err := value.Decode(&k); err != nil {
		return err
	}
	s.fromKeys(k)
	return nil
}

// Vector converts to a geometry segment
func (s SegmentConfig) Vector() geometry.Vector {
	return geometry.Vector{Start: s.Start.Point(), End: s.End.Point()}
}

// Scenario describes the static layout of a simulated room
type Scenario struct {
	Walls      []SegmentConfig `json:"walls" yaml:"walls"`
	Pipes      []SegmentConfig `json:"pipes" yaml:"pipes"`
	DroneStart *PointConfig    `json:"drone_start" yaml:"drone_start"`
}

// LoadScenario reads a scenario file, choosing the decoder by extension
func LoadScenario(path string) (*Scenario, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open scenario file: %w", err)
	}
	defer file.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return LoadScenarioJSON(file)
	case ".yaml", ".yml":
		return LoadScenarioYAML(file)
	default:
		return nil, fmt.Errorf("%w: unsupported file extension %q", ErrInvalidScenario, ext)
	}
}

// LoadScenarioJSON decodes and validates a JSON scenario
func LoadScenarioJSON(r io.Reader) (*Scenario, error) {
	var s Scenario
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadScenarioYAML decodes and validates a YAML scenario
func LoadScenarioYAML(r io.Reader) (*Scenario, error) {
	var s Scenario
	if err := yaml.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// SaveScenario writes the scenario as indented JSON
func SaveScenario(s *Scenario, path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal scenario: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write scenario file: %w", err)
	}
	return nil
}

// Validate requires all three keys, and every coordinate key within them, to
// be present. Empty wall and pipe lists
// are allowed; segments must have finite, distinct endpoints.
func (s *Scenario) Validate() error {
	if s.Walls == nil {
		return fmt.Errorf("%w: missing key %q", ErrInvalidScenario, "walls")
	}
	if s.Pipes == nil {
		return fmt.Errorf("%w: missing key %q", ErrInvalidScenario, "pipes")
	}
	if s.DroneStart == nil {
		return fmt.Errorf("%w: missing key %q", ErrInvalidScenario, "drone_start")
	}

	if err := validateSegments("walls", s.Walls); err != nil {
		return err
	}
	if err := validateSegments("pipes", s.Pipes); err != nil {
		return err
	}
	if err := checkKeys("drone_start", s.DroneStart.missing); err != nil {
		return err
	}
	if err := validation.FinitePair("drone_start", s.DroneStart.X, s.DroneStart.Y); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	return nil
}

func validateSegments(key string, segments []SegmentConfig) error {
	for i, seg := range segments {
		field := fmt.Sprintf("%s[%d]", key, i)
		if err := checkKeys(field, seg.missing); err != nil {
			return err
		}
		if err := checkKeys(field+".start", seg.Start.missing); err != nil {
			return err
		}
		if err := checkKeys(field+".end", seg.End.missing); err != nil {
			return err
		}
		if err := validation.FinitePair(field+".start", seg.Start.X, seg.Start.Y); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidScenario, err)
		}
		if err := validation.FinitePair(field+".end", seg.End.X, seg.End.Y); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidScenario, err)
		}
		if seg.Start.Point() == seg.End.Point() {
			return fmt.Errorf("%w: %s has zero length", ErrInvalidScenario, field)
		}
	}
	return nil
}

func checkKeys(field string, missing []string) error {
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s missing key %q", ErrInvalidScenario, field, missing[0])
}

// WallVectors returns the wall segments in file order
func (s *Scenario) WallVectors() []geometry.Vector {
	return toVectors(s.Walls)
}

// PipeVectors returns the pipe segments in file order
func (s *Scenario) PipeVectors() []geometry.Vector {
	return toVectors(s.Pipes)
}

func toVectors(segments []SegmentConfig) []geometry.Vector {
	vectors := make([]geometry.Vector, len(segments))
	for i, seg := range segments {
		vectors[i] = seg.Vector()
	}
	return vectors
}

// DefaultScenario returns a closed 9x9 room with a pipe along two walls
func DefaultScenario() *Scenario {
	return &Scenario{
		Walls: []SegmentConfig{
			{Start: PointConfig{X: 1, Y: 1}, End: PointConfig{X: 1, Y: 10}},
			{Start: PointConfig{X: 1, Y: 10}, End: PointConfig{X: 10, Y: 10}},
			{Start: PointConfig{X: 10, Y: 10}, End: PointConfig{X: 10, Y: 1}},
			{Start: PointConfig{X: 10, Y: 1}, End: PointConfig{X: 1, Y: 1}},
		},
		Pipes: []SegmentConfig{
			{Start: PointConfig{X: 2, Y: 2}, End: PointConfig{X: 2, Y: 9}},
			{Start: PointConfig{X: 9, Y: 2}, End: PointConfig{X: 9, Y: 9}},
		},
		DroneStart: &PointConfig{X: 5, Y: 5},
	}
}

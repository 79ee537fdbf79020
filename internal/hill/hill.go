package hill

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed hills.yaml
var builtin []byte

// Profile describes one hill. Values are fixed once the catalogue is loaded.
type Profile struct {
	Key          string  `yaml:"key" json:"key"`
	Name         string  `yaml:"name" json:"name"`
	KPoint       float64 `yaml:"k_point" json:"kPoint"`
	HillSize     float64 `yaml:"hill_size" json:"hillSize"`
	InrunAngle   float64 `yaml:"inrun_angle" json:"inrunAngle"`
	LandingAngle float64 `yaml:"landing_angle" json:"landingAngle"`
	BaseSpeed    float64 `yaml:"base_speed" json:"baseSpeed"`
}

// Catalog is an ordered, read-only list of hills.
type Catalog struct {
	hills []Profile
	byKey map[string]int
}

type file struct {
	Hills []Profile `yaml:"hills"`
}

// Default returns the built-in K90/K120/K200 catalogue.
func Default() *Catalog {
	c, err := Parse(builtin)
	if err != nil {
		panic(fmt.Sprintf("hill: built-in catalogue: %v", err))
	}
	return c
}

// Load reads a catalogue from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read hills: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a YAML catalogue.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode hills: %w", err)
	}
	if len(f.Hills) == 0 {
		return nil, fmt.Errorf("no hills defined")
	}
	c := &Catalog{
		hills: make([]Profile, 0, len(f.Hills)),
		byKey: make(map[string]int, len(f.Hills)),
	}
	for i, h := range f.Hills {
		if h.Key == "" {
			return nil, fmt.Errorf("hill %d: empty key", i)
		}
		if _, dup := c.byKey[h.Key]; dup {
			return nil, fmt.Errorf("hill %q: duplicate key", h.Key)
		}
		if h.KPoint <= 0 || h.HillSize <= 0 {
			return nil, fmt.Errorf("hill %q: k_point and hill_size must be positive", h.Key)
		}
		if h.HillSize < h.KPoint {
			return nil, fmt.Errorf("hill %q: hill_size %.0f below k_point %.0f", h.Key, h.HillSize, h.KPoint)
		}
		if h.LandingAngle <= 0 || h.LandingAngle >= 90 {
			return nil, fmt.Errorf("hill %q: landing_angle must be in (0, 90)", h.Key)
		}
		if h.BaseSpeed <= 0 {
			return nil, fmt.Errorf("hill %q: base_speed must be positive", h.Key)
		}
		if h.Name == "" {
			h.Name = h.Key
		}
		c.byKey[h.Key] = len(c.hills)
		c.hills = append(c.hills, h)
	}
	return c, nil
}

// List returns the hills in catalogue order. The slice is a copy.
func (c *Catalog) List() []Profile {
	out := make([]Profile, len(c.hills))
	copy(out, c.hills)
	return out
}

// Select returns the profile for key. The caller hands it to the run it starts.
func (c *Catalog) Select(key string) (Profile, bool) {
	i, ok := c.byKey[key]
	if !ok {
		return Profile{}, false
	}
	return c.hills[i], true
}

// Len reports the number of hills.
func (c *Catalog) Len() int {
	return len(c.hills)
}

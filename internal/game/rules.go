package game

import (
	"fmt"
	"math"
	"sort"

	"github.com/vladimirvolkov/skijump/server/internal/hill"
)

// AerodynamicsProfile holds the per-tick lift/drag/wind coefficients. The
// model is an arcade approximation: cos and sin of body pitch stand in for
// aerodynamic efficiency.
type AerodynamicsProfile struct {
	Lift float64 `yaml:"lift"`
	Drag float64 `yaml:"drag"`
	Wind float64 `yaml:"wind"`
}

// Apply adjusts velocity for one tick of flight.
func (a AerodynamicsProfile) Apply(s *JumpState) {
	rad := s.BodyAngle * math.Pi / 180
	lift := math.Cos(rad) * a.Lift
	drag := math.Abs(math.Sin(rad)) * a.Drag
	s.VY -= lift
	s.VX += s.Wind*a.Wind - drag
}

// LandingRule decides when a flight touches down. Coordinates are relative
// to the takeoff point with y growing downward.
type LandingRule interface {
	Name() string
	// Surface returns the height of the landing hill dx metres past the lip.
	Surface(h hill.Profile, dx float64) float64
	Touchdown(h hill.Profile, s *JumpState) bool
}

// GroundContact lands the jumper on a straight slope at the hill's landing
// angle.
type GroundContact struct{}

func (GroundContact) Name() string { return "ground_contact" }

func (GroundContact) Surface(h hill.Profile, dx float64) float64 {
	if dx <= 0 {
		return 0
	}
	return dx * slope(h)
}

func (g GroundContact) Touchdown(h hill.Profile, s *JumpState) bool {
	return touching(g, h, s)
}

// HeightThreshold lands the jumper once it has dropped to the height of the
// K-point, wherever that happens horizontally.
type HeightThreshold struct{}

func (HeightThreshold) Name() string { return "height_threshold" }

func (HeightThreshold) Surface(h hill.Profile, dx float64) float64 {
	return h.KPoint * slope(h)
}

func (t HeightThreshold) Touchdown(h hill.Profile, s *JumpState) bool {
	return touching(t, h, s)
}

// ProfileCurve follows a knoll, landing slope and outrun: a gentle first
// fifth of the K distance, the full landing angle down to hill size, then a
// flattening outrun.
type ProfileCurve struct{}

const (
	knollFraction = 0.2
	knollSlope    = 0.5
	outrunSlope   = 0.2
)

func (ProfileCurve) Name() string { return "profile_curve" }

func (ProfileCurve) Surface(h hill.Profile, dx float64) float64 {
	if dx <= 0 {
		return 0
	}
	tan := slope(h)
	knoll := h.KPoint * knollFraction
	if dx <= knoll {
		return dx * tan * knollSlope
	}
	y := knoll * tan * knollSlope
	if dx <= h.HillSize {
		return y + (dx-knoll)*tan
	}
	y += (h.HillSize - knoll) * tan
	return y + (dx-h.HillSize)*tan*outrunSlope
}

func (p ProfileCurve) Touchdown(h hill.Profile, s *JumpState) bool {
	return touching(p, h, s)
}

func slope(h hill.Profile) float64 {
	return math.Tan(h.LandingAngle * math.Pi / 180)
}

func touching(r LandingRule, h hill.Profile, s *JumpState) bool {
	dx := s.X - s.TakeoffX
	dy := s.Y - s.TakeoffY
	if dx <= 0 {
		return false
	}
	return dy >= r.Surface(h, dx)
}

// Ruleset pairs aerodynamics with a landing rule.
type Ruleset struct {
	Name    string
	Aero    AerodynamicsProfile
	Landing LandingRule
}

var rulesets = map[string]Ruleset{
	"classic": {
		Name:    "classic",
		Aero:    AerodynamicsProfile{Lift: 0.07, Drag: 0.02, Wind: 0.0003},
		Landing: GroundContact{},
	},
	"arcade": {
		Name:    "arcade",
		Aero:    AerodynamicsProfile{Lift: 0.10, Drag: 0.03, Wind: 0.0003},
		Landing: HeightThreshold{},
	},
	"profile": {
		Name:    "profile",
		Aero:    AerodynamicsProfile{Lift: 0.10, Drag: 0.03, Wind: 0.0003},
		Landing: ProfileCurve{},
	},
}

const DefaultRuleset = "classic"

// LookupRuleset returns the named ruleset.
func LookupRuleset(name string) (Ruleset, error) {
	r, ok := rulesets[name]
	if !ok {
		return Ruleset{}, fmt.Errorf("unknown ruleset %q (have %v)", name, RulesetNames())
	}
	return r, nil
}

// RulesetNames lists the registered rulesets in sorted order.
func RulesetNames() []string {
	names := make([]string, 0, len(rulesets))
	for n := range rulesets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

package game

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning holds the constants of the jump model. Distances are metres,
// speeds m/s, angles degrees.
type Tuning struct {
	Gate            int     `yaml:"gate"`
	GateFactor      float64 `yaml:"gate_factor"`    // run-up speed added per gate
	SpeedPerGate    float64 `yaml:"speed_per_gate"` // launch speed added per gate
	LiftPointX      float64 `yaml:"lift_point_x"`
	ToleranceWindow float64 `yaml:"tolerance_window"`
	MinTiming       float64 `yaml:"min_timing"`
	MaxTiming       float64 `yaml:"max_timing"`
	LiftImpulse     float64 `yaml:"lift_impulse"`
	Gravity         float64 `yaml:"gravity"`
	DistanceScale   float64 `yaml:"distance_scale"` // per tick, equals DT so distance is metres
	PitchStep       float64 `yaml:"pitch_step"`
	MaxBodyAngle    float64 `yaml:"max_body_angle"` // 0 disables the clamp
	MaxWind         int     `yaml:"max_wind"`
	CompleteDelay   float64 `yaml:"complete_delay"` // seconds between landing and run complete

	// Judging
	BaseNote           int     `yaml:"base_note"`
	SteepThreshold     float64 `yaml:"steep_threshold"`
	SteepPenalty       int     `yaml:"steep_penalty"`
	TelemarkThreshold  float64 `yaml:"telemark_threshold"`
	TelemarkBonus      int     `yaml:"telemark_bonus"`
	JudgeJitter        int     `yaml:"judge_jitter"`
	DistanceMultiplier float64 `yaml:"distance_multiplier"`
	DistanceOffset     float64 `yaml:"distance_offset"`
}

const (
	JudgeCount = 5
	TrimCount  = 1 // notes dropped at each end
)

// DefaultTuning returns the shipped constants.
func DefaultTuning() Tuning {
	return Tuning{
		Gate:            10,
		GateFactor:      0.3,
		SpeedPerGate:    0.3,
		LiftPointX:      18,
		ToleranceWindow: 12.5,
		MinTiming:       0.6,
		MaxTiming:       1.2,
		LiftImpulse:     3.0,
		Gravity:         9.81,
		DistanceScale:   DT,
		PitchStep:       2,
		MaxBodyAngle:    90,
		MaxWind:         15,
		CompleteDelay:   2.0,

		BaseNote:           18,
		SteepThreshold:     25,
		SteepPenalty:       3,
		TelemarkThreshold:  10,
		TelemarkBonus:      2,
		JudgeJitter:        1,
		DistanceMultiplier: 1.8,
		DistanceOffset:     60,
	}
}

// LoadTuning overlays the YAML file at path on DefaultTuning. Keys missing
// from the file keep their defaults.
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()
	data, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("read tuning: %w", err)
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("decode tuning: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Validate reports the first constant that would break the model.
func (t Tuning) Validate() error {
	switch {
	case t.Gate < 0:
		return fmt.Errorf("gate must be >= 0")
	case t.GateFactor < 0 || t.SpeedPerGate < 0:
		return fmt.Errorf("gate speed factors must be >= 0")
	case t.ToleranceWindow <= 0:
		return fmt.Errorf("tolerance_window must be positive")
	case t.MinTiming <= 0 || t.MinTiming > t.MaxTiming:
		return fmt.Errorf("timing range [%v, %v] invalid", t.MinTiming, t.MaxTiming)
	case t.DistanceScale <= 0:
		return fmt.Errorf("distance_scale must be positive")
	case t.MaxBodyAngle < 0:
		return fmt.Errorf("max_body_angle must be >= 0")
	case t.MaxWind < 0:
		return fmt.Errorf("max_wind must be >= 0")
	case t.JudgeJitter < 0:
		return fmt.Errorf("judge_jitter must be >= 0")
	case t.CompleteDelay < 0:
		return fmt.Errorf("complete_delay must be >= 0")
	}
	return nil
}

// RunUpSpeed is the speed forced on the jumper every run-up tick.
func (t Tuning) RunUpSpeed(baseSpeed float64, gate int) float64 {
	return baseSpeed + float64(gate)*t.GateFactor
}

// LaunchSpeed is the takeoff speed before the timing factor.
func (t Tuning) LaunchSpeed(baseSpeed float64, gate int) float64 {
	return baseSpeed + float64(gate)*t.SpeedPerGate
}

// Timing rates how close to the lift point the takeoff happened. At the lift
// point the factor is exactly 1; it never leaves [MinTiming, MaxTiming].
func (t Tuning) Timing(x float64) float64 {
	d := x - t.LiftPointX
	if d < 0 {
		d = -d
	}
	return clamp(1-d/t.ToleranceWindow, t.MinTiming, t.MaxTiming)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
